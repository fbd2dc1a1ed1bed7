package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgramSettings holds the tunables an operator sets for a hiring program.
type ProgramSettings struct {
	SupportedLanguages []string `json:"supported_languages"`
	LinkExpiryHours    int      `json:"link_expiry_hours"`
	MaxAttempts        int      `json:"max_attempts"`
	RequireLinkedIn    bool     `json:"require_linkedin"`
}

// DefaultLanguage returns the first supported language, or English when none is configured.
func (s ProgramSettings) DefaultLanguage() string {
	if len(s.SupportedLanguages) == 0 {
		return "en"
	}
	return s.SupportedLanguages[0]
}

// SupportsLanguage reports whether code is one of the program languages.
func (s ProgramSettings) SupportsLanguage(code string) bool {
	for _, lang := range s.SupportedLanguages {
		if lang == code {
			return true
		}
	}
	return false
}

// Program is the configuration root of a talent assessment pipeline.
type Program struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Slug     string `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Name     string `gorm:"size:255;not null" json:"name"`
	IsActive bool   `gorm:"not null;default:false" json:"is_active"`
	// ActiveSlot is true for the active program and NULL otherwise so the unique
	// index admits exactly one active row.
	ActiveSlot *bool                               `gorm:"uniqueIndex" json:"-"`
	Settings   datatypes.JSONType[ProgramSettings] `json:"settings"`
	CreatedAt  time.Time                           `json:"created_at"`
	UpdatedAt  time.Time                           `json:"updated_at"`
	Stages     []Stage                             `json:"stages,omitempty"`
}

// BeforeSave keeps the active slot in sync with the active flag.
func (p *Program) BeforeSave(tx *gorm.DB) error {
	if p.IsActive {
		active := true
		p.ActiveSlot = &active
	} else {
		p.ActiveSlot = nil
	}
	return nil
}

// Config returns the decoded program settings.
func (p Program) Config() ProgramSettings {
	return p.Settings.Data()
}
