package models

import (
	"time"

	"gorm.io/datatypes"
)

// CandidateResponse is a candidate's raw answer to one question and the points it earned.
type CandidateResponse struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	CandidateID     uint                        `gorm:"not null;uniqueIndex:idx_response_candidate_question" json:"candidate_id"`
	QuestionID      uint                        `gorm:"not null;uniqueIndex:idx_response_candidate_question" json:"question_id"`
	StageID         uint                        `gorm:"not null;index" json:"stage_id"`
	LanguageCode    string                      `gorm:"size:16;not null" json:"language_code"`
	Answer          string                      `gorm:"type:text" json:"answer"`
	Selections      datatypes.JSONSlice[string] `json:"selections"`
	PointsAwarded   *float64                    `json:"points_awarded"`
	AutoGraded      bool                        `gorm:"not null;default:false" json:"auto_graded"`
	GraderNote      string                      `gorm:"type:text" json:"grader_note"`
	GradedBy        *uint                       `json:"graded_by"`
	GradedAt        *time.Time                  `json:"graded_at"`
	SuggestedPoints *float64                    `json:"suggested_points"`
	SuggestionNote  string                      `gorm:"type:text" json:"suggestion_note"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Question        Question                    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsGraded reports whether points have been recorded for the response.
func (r CandidateResponse) IsGraded() bool {
	return r.PointsAwarded != nil
}

// All returns every model the pipeline persists, in migration order.
func All() []interface{} {
	return []interface{}{
		&Program{},
		&Stage{},
		&Question{},
		&QuestionTranslation{},
		&SimulationProfile{},
		&ProfileTranslation{},
		&Candidate{},
		&AssessmentLink{},
		&CandidateResponse{},
		&EmailTemplate{},
		&ContentTranslation{},
		&AuditLog{},
	}
}
