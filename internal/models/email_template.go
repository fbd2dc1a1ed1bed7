package models

import (
	"time"

	"gorm.io/datatypes"
)

// Template names used by the pipeline.
const (
	TemplateApplicationReceived  = "application_received"
	TemplateAssessmentInvitation = "assessment_invitation"
	TemplateAssessmentPassed     = "assessment_passed"
	TemplateAssessmentFailed     = "assessment_failed"
	TemplateApplicationRejected  = "application_rejected"
)

// EmailTemplate is a localized transactional email body.
type EmailTemplate struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	TemplateName string                      `gorm:"size:128;not null;uniqueIndex:idx_email_template_lang" json:"template_name"`
	LanguageCode string                      `gorm:"size:16;not null;uniqueIndex:idx_email_template_lang" json:"language_code"`
	Subject      string                      `gorm:"size:255;not null" json:"subject"`
	HTMLBody     string                      `gorm:"type:text;not null" json:"html_body"`
	TextBody     string                      `gorm:"type:text" json:"text_body"`
	Placeholders datatypes.JSONSlice[string] `json:"placeholders"`
	IsActive     bool                        `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// Language implements Localized.
func (t EmailTemplate) Language() string { return t.LanguageCode }
