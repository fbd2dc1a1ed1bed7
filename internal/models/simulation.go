package models

import "time"

// SeniorityTier classifies a simulation persona.
type SeniorityTier string

const (
	SeniorityJunior    SeniorityTier = "junior"
	SeniorityMid       SeniorityTier = "mid"
	SenioritySenior    SeniorityTier = "senior"
	SeniorityExecutive SeniorityTier = "executive"
	SeniorityCLevel    SeniorityTier = "c-level"
)

// SimulationProfile is a fictional persona used by role-play stages.
type SimulationProfile struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	ProgramID    uint                 `gorm:"not null;index" json:"program_id"`
	Name         string               `gorm:"size:255;not null" json:"name"`
	Role         string               `gorm:"size:255;not null" json:"role"`
	Seniority    SeniorityTier        `gorm:"size:32;not null" json:"seniority"`
	CompanyType  string               `gorm:"size:128" json:"company_type"`
	Industry     string               `gorm:"size:128" json:"industry"`
	Enabled      bool                 `gorm:"not null" json:"enabled"`
	Order        int                  `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Translations []ProfileTranslation `gorm:"foreignKey:ProfileID" json:"translations,omitempty"`
}

// ProfileTranslation carries the localized persona copy.
type ProfileTranslation struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ProfileID            uint      `gorm:"not null;uniqueIndex:idx_profile_translation_lang" json:"profile_id"`
	LanguageCode         string    `gorm:"size:16;not null;uniqueIndex:idx_profile_translation_lang" json:"language_code"`
	Bio                  string    `gorm:"type:text" json:"bio"`
	ChallengeDescription string    `gorm:"type:text" json:"challenge_description"`
	ObjectionScenario    string    `gorm:"type:text" json:"objection_scenario"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Language implements Localized.
func (t ProfileTranslation) Language() string { return t.LanguageCode }
