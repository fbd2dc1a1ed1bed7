package dto

import "github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"

// StageScore is one stage's contribution to a candidate's result.
type StageScore struct {
	StageID          uint    `json:"stage_id"`
	StageNumber      int     `json:"stage_number"`
	Name             string  `json:"name"`
	WeightPercentage float64 `json:"weight_percentage"`
	PassingThreshold float64 `json:"passing_threshold"`
	PointsEarned     float64 `json:"points_earned"`
	PointsAvailable  float64 `json:"points_available"`
	Score            float64 `json:"score"`
	Attempted        bool    `json:"attempted"`
	Passed           bool    `json:"passed"`
	Ungraded         int     `json:"ungraded"`
}

// ScoreBreakdown is the full scoring result for a candidate.
type ScoreBreakdown struct {
	CandidateID   uint                   `json:"candidate_id"`
	Stages        []StageScore           `json:"stages"`
	WeightedScore float64                `json:"weighted_score"`
	PassBar       float64                `json:"pass_bar"`
	AllStagesPass bool                   `json:"all_stages_pass"`
	Disposition   models.CandidateStatus `json:"disposition"`
	Ungraded      int                    `json:"ungraded"`
	Finalized     bool                   `json:"finalized"`
}

// GradeSuggestionResponse is an assistant's non-binding grade suggestion.
type GradeSuggestionResponse struct {
	ResponseID uint    `json:"response_id"`
	Points     float64 `json:"points"`
	MaxPoints  float64 `json:"max_points"`
	Rationale  string  `json:"rationale"`
}
