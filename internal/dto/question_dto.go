package dto

import (
	"time"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// QuestionTranslationPayload is one localized variant of a question.
type QuestionTranslationPayload struct {
	LanguageCode  string   `json:"language_code" validate:"required,langcode"`
	Text          string   `json:"text" validate:"required,max=5000"`
	Options       []string `json:"options" validate:"omitempty,max=20,dive,required,max=500"`
	CorrectAnswer string   `json:"correct_answer" validate:"max=5000"`
	Explanation   string   `json:"explanation" validate:"max=5000"`
}

// CreateQuestionCommand adds a question, optionally with its first translations.
type CreateQuestionCommand struct {
	Type         models.QuestionType          `json:"type" validate:"required,oneof=multiple_choice true_false short_answer scenario ranking outreach_draft objection_handling"`
	Points       float64                      `json:"points" validate:"gt=0,lte=1000"`
	Enabled      *bool                        `json:"enabled"`
	Order        int                          `json:"order" validate:"gte=0"`
	Translations []QuestionTranslationPayload `json:"translations" validate:"omitempty,dive"`
}

// UpdateQuestionCommand replaces a question's own fields. Translations are edited one language at a time.
type UpdateQuestionCommand struct {
	Type    models.QuestionType `json:"type" validate:"required,oneof=multiple_choice true_false short_answer scenario ranking outreach_draft objection_handling"`
	Points  float64             `json:"points" validate:"gt=0,lte=1000"`
	Enabled bool                `json:"enabled"`
	Order   int                 `json:"order" validate:"gte=0"`
}

// UpsertQuestionTranslationCommand inserts or replaces the (question, language) translation.
type UpsertQuestionTranslationCommand struct {
	QuestionTranslationPayload
}

// AnswerSchema tells a client how a question is answered. Options are present for
// choice, boolean and ranking kinds only.
type AnswerSchema struct {
	Kind    models.AnswerKind `json:"kind"`
	Options []string          `json:"options,omitempty"`
}

// QuestionTranslationResponse serializes a stored translation for admins.
type QuestionTranslationResponse struct {
	LanguageCode  string    `json:"language_code"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuestionResponse serializes a question with every translation.
type QuestionResponse struct {
	ID           uint                          `json:"id"`
	StageID      uint                          `json:"stage_id"`
	Type         models.QuestionType           `json:"type"`
	Points       float64                       `json:"points"`
	Enabled      bool                          `json:"enabled"`
	Order        int                           `json:"order"`
	Translations []QuestionTranslationResponse `json:"translations"`
}

// OutlineQuestion is a question resolved into one language.
type OutlineQuestion struct {
	ID            uint                `json:"id"`
	Type          models.QuestionType `json:"type"`
	Points        float64             `json:"points"`
	Order         int                 `json:"order"`
	Text          string              `json:"text"`
	Answer        AnswerSchema        `json:"answer"`
	CorrectAnswer string              `json:"correct_answer,omitempty"`
	Explanation   string              `json:"explanation,omitempty"`
	Resolution    models.Resolution   `json:"resolution"`
}

// OutlineStage is an enabled stage with its enabled questions in order.
type OutlineStage struct {
	ID               uint              `json:"id"`
	StageNumber      int               `json:"stage_number"`
	Name             string            `json:"name"`
	PassingThreshold float64           `json:"passing_threshold"`
	WeightPercentage float64           `json:"weight_percentage"`
	TimeLimitMinutes *int              `json:"time_limit_minutes,omitempty"`
	Questions        []OutlineQuestion `json:"questions"`
}

// OutlineResponse is the localized assessment for a program.
type OutlineResponse struct {
	ProgramID    uint           `json:"program_id"`
	ProgramSlug  string         `json:"program_slug"`
	Language     string         `json:"language"`
	FellBack     int            `json:"fell_back"`
	Missing      int            `json:"missing"`
	Stages       []OutlineStage `json:"stages"`
	ForCandidate bool           `json:"for_candidate"`
}

// NewQuestionResponse converts a question model.
func NewQuestionResponse(question models.Question) QuestionResponse {
	response := QuestionResponse{
		ID:           question.ID,
		StageID:      question.StageID,
		Type:         question.Type,
		Points:       question.Points,
		Enabled:      question.Enabled,
		Order:        question.Order,
		Translations: make([]QuestionTranslationResponse, 0, len(question.Translations)),
	}
	for _, translation := range question.Translations {
		options := []string(translation.Options)
		if options == nil {
			options = []string{}
		}
		response.Translations = append(response.Translations, QuestionTranslationResponse{
			LanguageCode:  translation.LanguageCode,
			Text:          translation.Text,
			Options:       options,
			CorrectAnswer: translation.CorrectAnswer,
			Explanation:   translation.Explanation,
			UpdatedAt:     translation.UpdatedAt,
		})
	}
	return response
}
