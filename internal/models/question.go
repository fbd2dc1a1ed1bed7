package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionMultipleChoice    QuestionType = "multiple_choice"
	QuestionTrueFalse         QuestionType = "true_false"
	QuestionShortAnswer       QuestionType = "short_answer"
	QuestionScenario          QuestionType = "scenario"
	QuestionRanking           QuestionType = "ranking"
	QuestionOutreachDraft     QuestionType = "outreach_draft"
	QuestionObjectionHandling QuestionType = "objection_handling"
)

// QuestionTypes lists every valid question type.
var QuestionTypes = []QuestionType{
	QuestionMultipleChoice,
	QuestionTrueFalse,
	QuestionShortAnswer,
	QuestionScenario,
	QuestionRanking,
	QuestionOutreachDraft,
	QuestionObjectionHandling,
}

// AnswerKind is the shape of answer a question expects.
type AnswerKind string

const (
	AnswerMultipleChoice AnswerKind = "multiple_choice"
	AnswerTrueFalse      AnswerKind = "true_false"
	AnswerRanking        AnswerKind = "ranking"
	AnswerFreeText       AnswerKind = "free_text"
)

// AnswerKind maps the question type onto its answer schema kind.
func (t QuestionType) AnswerKind() AnswerKind {
	switch t {
	case QuestionMultipleChoice:
		return AnswerMultipleChoice
	case QuestionTrueFalse:
		return AnswerTrueFalse
	case QuestionRanking:
		return AnswerRanking
	default:
		return AnswerFreeText
	}
}

// AutoGradable reports whether answers can be scored without a reviewer.
func (k AnswerKind) AutoGradable() bool {
	return k != AnswerFreeText
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Question belongs to exactly one stage and is localized through translations.
type Question struct {
	ID           uint                  `gorm:"primaryKey" json:"id"`
	StageID      uint                  `gorm:"not null;index" json:"stage_id"`
	Type         QuestionType          `gorm:"size:32;not null" json:"type"`
	Points       float64               `gorm:"not null" json:"points"`
	Enabled      bool                  `gorm:"not null" json:"enabled"`
	Order        int                   `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Translations []QuestionTranslation `json:"translations,omitempty"`
}

// QuestionTranslation is the localized body of a question. At most one row exists per
// (question, language).
type QuestionTranslation struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	QuestionID    uint                        `gorm:"not null;uniqueIndex:idx_question_translation_lang" json:"question_id"`
	LanguageCode  string                      `gorm:"size:16;not null;uniqueIndex:idx_question_translation_lang" json:"language_code"`
	Text          string                      `gorm:"type:text;not null" json:"text"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                      `gorm:"type:text" json:"correct_answer"`
	Explanation   string                      `gorm:"type:text" json:"explanation"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// Language implements Localized.
func (t QuestionTranslation) Language() string { return t.LanguageCode }
