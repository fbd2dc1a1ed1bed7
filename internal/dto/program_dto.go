package dto

import (
	"time"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// ProgramSettingsPayload carries the program-wide assessment options.
type ProgramSettingsPayload struct {
	SupportedLanguages []string `json:"supported_languages" validate:"required,min=1,dive,langcode"`
	LinkExpiryHours    int      `json:"link_expiry_hours" validate:"expiryhours"`
	MaxAttempts        int      `json:"max_attempts" validate:"maxattempts"`
	RequireLinkedIn    bool     `json:"require_linkedin"`
}

// CreateProgramCommand creates an inactive program.
type CreateProgramCommand struct {
	Slug     string                 `json:"slug" validate:"required,max=128,slug"`
	Name     string                 `json:"name" validate:"required,min=2,max=255"`
	Settings ProgramSettingsPayload `json:"settings" validate:"required"`
}

// UpdateProgramCommand replaces a program's editable fields. Activation is a separate command.
type UpdateProgramCommand struct {
	Slug     string                 `json:"slug" validate:"required,max=128,slug"`
	Name     string                 `json:"name" validate:"required,min=2,max=255"`
	Settings ProgramSettingsPayload `json:"settings" validate:"required"`
}

// ProgramResponse serializes a program for admin endpoints.
type ProgramResponse struct {
	ID        uint                   `json:"id"`
	Slug      string                 `json:"slug"`
	Name      string                 `json:"name"`
	IsActive  bool                   `json:"is_active"`
	Settings  models.ProgramSettings `json:"settings"`
	Stages    []StageResponse        `json:"stages,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// CreateStageCommand adds a stage to a program.
type CreateStageCommand struct {
	StageNumber      int     `json:"stage_number" validate:"required,gte=1"`
	Name             string  `json:"name" validate:"required,max=255"`
	PassingThreshold float64 `json:"passing_threshold" validate:"gte=0,lte=100"`
	WeightPercentage float64 `json:"weight_percentage" validate:"gte=0,lte=100"`
	TimeLimitMinutes *int    `json:"time_limit_minutes" validate:"omitempty,gte=1,lte=1440"`
	Enabled          *bool   `json:"enabled"`
	DisplayOrder     int     `json:"display_order" validate:"gte=0"`
}

// UpdateStageCommand replaces every editable field of a stage.
type UpdateStageCommand struct {
	StageNumber      int     `json:"stage_number" validate:"required,gte=1"`
	Name             string  `json:"name" validate:"required,max=255"`
	PassingThreshold float64 `json:"passing_threshold" validate:"gte=0,lte=100"`
	WeightPercentage float64 `json:"weight_percentage" validate:"gte=0,lte=100"`
	TimeLimitMinutes *int    `json:"time_limit_minutes" validate:"omitempty,gte=1,lte=1440"`
	Enabled          bool    `json:"enabled"`
	DisplayOrder     int     `json:"display_order" validate:"gte=0"`
}

// StageResponse serializes a stage.
type StageResponse struct {
	ID               uint      `json:"id"`
	ProgramID        uint      `json:"program_id"`
	StageNumber      int       `json:"stage_number"`
	Name             string    `json:"name"`
	PassingThreshold float64   `json:"passing_threshold"`
	WeightPercentage float64   `json:"weight_percentage"`
	TimeLimitMinutes *int      `json:"time_limit_minutes,omitempty"`
	Enabled          bool      `json:"enabled"`
	DisplayOrder     int       `json:"display_order"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ConfigurationReport lists problems that block a program from being activated.
type ConfigurationReport struct {
	ProgramID          uint     `json:"program_id"`
	Valid              bool     `json:"valid"`
	EnabledStages      int      `json:"enabled_stages"`
	EnabledWeightTotal float64  `json:"enabled_weight_total"`
	Problems           []string `json:"problems"`
}

// NewProgramResponse converts a program model.
func NewProgramResponse(program models.Program) ProgramResponse {
	response := ProgramResponse{
		ID:        program.ID,
		Slug:      program.Slug,
		Name:      program.Name,
		IsActive:  program.IsActive,
		Settings:  program.Config(),
		CreatedAt: program.CreatedAt,
		UpdatedAt: program.UpdatedAt,
	}
	for _, stage := range program.Stages {
		response.Stages = append(response.Stages, NewStageResponse(stage))
	}
	return response
}

// NewStageResponse converts a stage model.
func NewStageResponse(stage models.Stage) StageResponse {
	return StageResponse{
		ID:               stage.ID,
		ProgramID:        stage.ProgramID,
		StageNumber:      stage.StageNumber,
		Name:             stage.Name,
		PassingThreshold: stage.PassingThreshold,
		WeightPercentage: stage.WeightPercentage,
		TimeLimitMinutes: stage.TimeLimitMinutes,
		Enabled:          stage.Enabled,
		DisplayOrder:     stage.DisplayOrder,
		UpdatedAt:        stage.UpdatedAt,
	}
}
