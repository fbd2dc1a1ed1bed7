package dto

import "time"

// FunnelStep is the candidate count at one status in funnel order.
type FunnelStep struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Bucket is a labelled count used for top-N breakdowns.
type Bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// FunnelResponse aggregates pipeline state for dashboards.
type FunnelResponse struct {
	TotalCandidates int64            `json:"total_candidates"`
	StatusCounts    map[string]int64 `json:"status_counts"`
	Funnel          []FunnelStep     `json:"funnel"`
	TopCountries    []Bucket         `json:"top_countries"`
	TopInterests    []Bucket         `json:"top_interests"`
	TopLanguages    []Bucket         `json:"top_languages"`
	PassRate        float64          `json:"pass_rate"`
	CompletionRate  float64          `json:"completion_rate"`
	ConversionRate  float64          `json:"conversion_rate"`
	GeneratedAt     time.Time        `json:"generated_at"`
	CacheHit        bool             `json:"cache_hit"`
}
