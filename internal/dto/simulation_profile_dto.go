package dto

import "github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"

// ProfileTranslationPayload is one localized variant of a persona.
type ProfileTranslationPayload struct {
	LanguageCode         string `json:"language_code" validate:"required,langcode"`
	Bio                  string `json:"bio" validate:"required,max=5000"`
	ChallengeDescription string `json:"challenge_description" validate:"max=5000"`
	ObjectionScenario    string `json:"objection_scenario" validate:"max=5000"`
}

// SimulationProfileCommand creates or replaces a persona.
type SimulationProfileCommand struct {
	Name         string                      `json:"name" validate:"required,max=255"`
	Role         string                      `json:"role" validate:"required,max=255"`
	Seniority    models.SeniorityTier        `json:"seniority" validate:"required,oneof=junior mid senior executive c-level"`
	CompanyType  string                      `json:"company_type" validate:"max=128"`
	Industry     string                      `json:"industry" validate:"max=128"`
	Enabled      *bool                       `json:"enabled"`
	Order        int                         `json:"order" validate:"gte=0"`
	Translations []ProfileTranslationPayload `json:"translations" validate:"omitempty,dive"`
}

// SimulationProfileResponse serializes a persona with all translations.
type SimulationProfileResponse struct {
	ID           uint                        `json:"id"`
	ProgramID    uint                        `json:"program_id"`
	Name         string                      `json:"name"`
	Role         string                      `json:"role"`
	Seniority    models.SeniorityTier        `json:"seniority"`
	CompanyType  string                      `json:"company_type"`
	Industry     string                      `json:"industry"`
	Enabled      bool                        `json:"enabled"`
	Order        int                         `json:"order"`
	Translations []ProfileTranslationPayload `json:"translations"`
}

// LocalizedProfileResponse is a persona resolved into one language.
type LocalizedProfileResponse struct {
	ID                   uint                 `json:"id"`
	Name                 string               `json:"name"`
	Role                 string               `json:"role"`
	Seniority            models.SeniorityTier `json:"seniority"`
	CompanyType          string               `json:"company_type"`
	Industry             string               `json:"industry"`
	Bio                  string               `json:"bio"`
	ChallengeDescription string               `json:"challenge_description"`
	ObjectionScenario    string               `json:"objection_scenario"`
	Resolution           models.Resolution    `json:"resolution"`
}

// NewSimulationProfileResponse converts a persona model.
func NewSimulationProfileResponse(profile models.SimulationProfile) SimulationProfileResponse {
	response := SimulationProfileResponse{
		ID:           profile.ID,
		ProgramID:    profile.ProgramID,
		Name:         profile.Name,
		Role:         profile.Role,
		Seniority:    profile.Seniority,
		CompanyType:  profile.CompanyType,
		Industry:     profile.Industry,
		Enabled:      profile.Enabled,
		Order:        profile.Order,
		Translations: make([]ProfileTranslationPayload, 0, len(profile.Translations)),
	}
	for _, translation := range profile.Translations {
		response.Translations = append(response.Translations, ProfileTranslationPayload{
			LanguageCode:         translation.LanguageCode,
			Bio:                  translation.Bio,
			ChallengeDescription: translation.ChallengeDescription,
			ObjectionScenario:    translation.ObjectionScenario,
		})
	}
	return response
}
