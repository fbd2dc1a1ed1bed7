package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records an operator action against a pipeline entity.
type AuditLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ActorID     uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole   string            `gorm:"size:32;not null" json:"actor_role"`
	Action      string            `gorm:"size:64;not null;index" json:"action"`
	EntityType  string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID    *uint             `json:"entity_id"`
	CandidateID *uint             `gorm:"index" json:"candidate_id"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time         `json:"created_at"`
}
