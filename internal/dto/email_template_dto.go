package dto

import (
	"time"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// UpsertEmailTemplateCommand inserts or replaces the (template, language) template.
type UpsertEmailTemplateCommand struct {
	Subject  string `json:"subject" validate:"required,max=255"`
	HTMLBody string `json:"html_body" validate:"required,max=100000"`
	TextBody string `json:"text_body" validate:"max=100000"`
	IsActive *bool  `json:"is_active"`
}

// EmailTemplateResponse serializes a stored template.
type EmailTemplateResponse struct {
	ID           uint      `json:"id"`
	TemplateName string    `json:"template_name"`
	LanguageCode string    `json:"language_code"`
	Subject      string    `json:"subject"`
	HTMLBody     string    `json:"html_body"`
	TextBody     string    `json:"text_body"`
	Placeholders []string  `json:"placeholders"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PreviewEmailRequest renders a template with sample variables.
type PreviewEmailRequest struct {
	Variables map[string]string `json:"variables" validate:"omitempty,dive,keys,required,endkeys"`
}

// RenderedEmail is a template with placeholders substituted.
type RenderedEmail struct {
	TemplateName string            `json:"template_name"`
	Subject      string            `json:"subject"`
	HTMLBody     string            `json:"html_body"`
	TextBody     string            `json:"text_body"`
	Resolution   models.Resolution `json:"resolution"`
	Unresolved   []string          `json:"unresolved"`
}

// NewEmailTemplateResponse converts a template model.
func NewEmailTemplateResponse(template models.EmailTemplate) EmailTemplateResponse {
	placeholders := []string(template.Placeholders)
	if placeholders == nil {
		placeholders = []string{}
	}
	return EmailTemplateResponse{
		ID:           template.ID,
		TemplateName: template.TemplateName,
		LanguageCode: template.LanguageCode,
		Subject:      template.Subject,
		HTMLBody:     template.HTMLBody,
		TextBody:     template.TextBody,
		Placeholders: placeholders,
		IsActive:     template.IsActive,
		UpdatedAt:    template.UpdatedAt,
	}
}
