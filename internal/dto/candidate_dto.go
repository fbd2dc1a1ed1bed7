package dto

import (
	"time"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ApplicationRequest is a public self-submitted application.
type ApplicationRequest struct {
	FullName          string `json:"full_name" validate:"required,min=2,max=255"`
	Email             string `json:"email" validate:"required,email,max=320"`
	LinkedInURL       string `json:"linkedin_url" validate:"omitempty,url,max=512"`
	Country           string `json:"country" validate:"max=128"`
	City              string `json:"city" validate:"max=128"`
	Background        string `json:"background" validate:"max=5000"`
	AreaOfInterest    string `json:"area_of_interest" validate:"max=255"`
	PreferredLanguage string `json:"preferred_language" validate:"omitempty,langcode"`
}

// ApplicationResponse acknowledges an application without exposing internals.
type ApplicationResponse struct {
	CandidateID uint                   `json:"candidate_id"`
	Status      models.CandidateStatus `json:"status"`
	EmailQueued bool                   `json:"email_queued"`
}

// CandidateListRequest defines admin candidate filters.
type CandidateListRequest struct {
	ProgramID      *uint
	Status         string `validate:"omitempty,oneof=pending shortlisted rejected invited in_progress completed passed failed"`
	Country        string
	AreaOfInterest string
	Language       string
	Search         string
	Page           int
	PageSize       int
}

// CandidateResponse serializes a candidate for admin endpoints.
type CandidateResponse struct {
	ID                uint                   `json:"id"`
	ProgramID         uint                   `json:"program_id"`
	FullName          string                 `json:"full_name"`
	Email             string                 `json:"email"`
	LinkedInURL       string                 `json:"linkedin_url,omitempty"`
	Country           string                 `json:"country"`
	City              string                 `json:"city"`
	Background        string                 `json:"background"`
	AreaOfInterest    string                 `json:"area_of_interest"`
	PreferredLanguage string                 `json:"preferred_language"`
	AdminNotes        string                 `json:"admin_notes"`
	Status            models.CandidateStatus `json:"status"`
	FinalScore        *float64               `json:"final_score"`
	InvitedAt         *time.Time             `json:"invited_at"`
	StartedAt         *time.Time             `json:"started_at"`
	CompletedAt       *time.Time             `json:"completed_at"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// CandidateListResponse wraps a paginated candidate list.
type CandidateListResponse struct {
	Items      []CandidateResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
}

// UpdateNotesRequest replaces the private admin notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}

// InviteRequest issues an assessment link. Zero expiry uses the program default.
type InviteRequest struct {
	ExpiryHours int `json:"expiry_hours" validate:"omitempty,expiryhours"`
}

// InvitationResponse describes an issued assessment link.
type InvitationResponse struct {
	CandidateID     uint      `json:"candidate_id"`
	Token           string    `json:"token"`
	URL             string    `json:"url"`
	ExpiresAt       time.Time `json:"expires_at"`
	ExpiryHours     int       `json:"expiry_hours"`
	RevokedPrevious int64     `json:"revoked_previous"`
	EmailQueued     bool      `json:"email_queued"`
}

// LinkValidation is the result of validating a token.
type LinkValidation struct {
	LinkID            uint      `json:"-"`
	CandidateID       uint      `json:"candidate_id"`
	ProgramID         uint      `json:"program_id"`
	ExpiresAt         time.Time `json:"expires_at"`
	AttemptsUsed      int       `json:"attempts_used"`
	AttemptsRemaining *int      `json:"attempts_remaining"`
}

// AssessmentSessionResponse is what a candidate sees when opening a valid link.
type AssessmentSessionResponse struct {
	CandidateName string                   `json:"candidate_name"`
	Status        models.CandidateStatus   `json:"status"`
	ExpiresAt     time.Time                `json:"expires_at"`
	Disclaimer    LocalizedContentResponse `json:"disclaimer"`
	Outline       OutlineResponse          `json:"outline"`
}

// AnswerPayload is one submitted answer. Ranking answers use Selections.
type AnswerPayload struct {
	QuestionID uint     `json:"question_id" validate:"required"`
	Answer     string   `json:"answer" validate:"max=20000"`
	Selections []string `json:"selections" validate:"omitempty,max=20,dive,max=500"`
}

// SubmitResponsesRequest stores raw answers for an in-progress assessment.
type SubmitResponsesRequest struct {
	Language string          `json:"language" validate:"omitempty,langcode"`
	Answers  []AnswerPayload `json:"answers" validate:"required,min=1,max=500,dive"`
}

// SubmitResponsesResponse summarises stored answers.
type SubmitResponsesResponse struct {
	Stored         int `json:"stored"`
	AutoGraded     int `json:"auto_graded"`
	PendingReview  int `json:"pending_review"`
	UnknownSkipped int `json:"unknown_skipped"`
}

// GradeResponseRequest records points for an open-ended answer.
type GradeResponseRequest struct {
	Points *float64 `json:"points" validate:"required,gte=0"`
	Note   string   `json:"note" validate:"max=5000"`
}

// CandidateAnswerResponse serializes a stored answer for reviewers.
type CandidateAnswerResponse struct {
	ID              uint                `json:"id"`
	CandidateID     uint                `json:"candidate_id"`
	QuestionID      uint                `json:"question_id"`
	StageID         uint                `json:"stage_id"`
	QuestionType    models.QuestionType `json:"question_type,omitempty"`
	Answer          string              `json:"answer"`
	Selections      []string            `json:"selections,omitempty"`
	PointsAwarded   *float64            `json:"points_awarded"`
	AutoGraded      bool                `json:"auto_graded"`
	GraderNote      string              `json:"grader_note,omitempty"`
	SuggestedPoints *float64            `json:"suggested_points,omitempty"`
	SuggestionNote  string              `json:"suggestion_note,omitempty"`
}

// NewCandidateResponse converts a candidate model.
func NewCandidateResponse(candidate models.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:                candidate.ID,
		ProgramID:         candidate.ProgramID,
		FullName:          candidate.FullName,
		Email:             candidate.Email,
		LinkedInURL:       candidate.LinkedInURL,
		Country:           candidate.Country,
		City:              candidate.City,
		Background:        candidate.Background,
		AreaOfInterest:    candidate.AreaOfInterest,
		PreferredLanguage: candidate.PreferredLanguage,
		AdminNotes:        candidate.AdminNotes,
		Status:            candidate.Status,
		FinalScore:        candidate.FinalScore,
		InvitedAt:         candidate.InvitedAt,
		StartedAt:         candidate.StartedAt,
		CompletedAt:       candidate.CompletedAt,
		CreatedAt:         candidate.CreatedAt,
		UpdatedAt:         candidate.UpdatedAt,
	}
}

// NewCandidateAnswerResponse converts a stored response.
func NewCandidateAnswerResponse(response models.CandidateResponse) CandidateAnswerResponse {
	return CandidateAnswerResponse{
		ID:              response.ID,
		CandidateID:     response.CandidateID,
		QuestionID:      response.QuestionID,
		StageID:         response.StageID,
		QuestionType:    response.Question.Type,
		Answer:          response.Answer,
		Selections:      []string(response.Selections),
		PointsAwarded:   response.PointsAwarded,
		AutoGraded:      response.AutoGraded,
		GraderNote:      response.GraderNote,
		SuggestedPoints: response.SuggestedPoints,
		SuggestionNote:  response.SuggestionNote,
	}
}
