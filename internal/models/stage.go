package models

import "time"

// Stage is one weighted step of a program's assessment.
type Stage struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ProgramID        uint       `gorm:"not null;uniqueIndex:idx_stage_program_number" json:"program_id"`
	StageNumber      int        `gorm:"not null;uniqueIndex:idx_stage_program_number" json:"stage_number"`
	Name             string     `gorm:"size:255;not null" json:"name"`
	PassingThreshold float64    `gorm:"not null" json:"passing_threshold"`
	WeightPercentage float64    `gorm:"not null" json:"weight_percentage"`
	TimeLimitMinutes *int       `json:"time_limit_minutes"`
	Enabled          bool       `gorm:"not null" json:"enabled"`
	DisplayOrder     int        `gorm:"not null;default:0" json:"display_order"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Questions        []Question `json:"questions,omitempty"`
}

// Passes reports whether a percentage score meets the stage threshold.
func (s Stage) Passes(score float64) bool {
	return score+1e-9 >= s.PassingThreshold
}
