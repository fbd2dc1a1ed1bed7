package dto

import (
	"time"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// AuditListRequest filters the operator audit trail.
type AuditListRequest struct {
	Page        int
	PageSize    int
	ActorID     uint
	CandidateID uint
	Action      string
	EntityType  string
	Since       *time.Time
}

// AuditEntryResponse serializes one audit entry.
type AuditEntryResponse struct {
	ID          uint                   `json:"id"`
	ActorID     uint                   `json:"actor_id"`
	ActorRole   string                 `json:"actor_role"`
	Action      string                 `json:"action"`
	EntityType  string                 `json:"entity_type"`
	EntityID    *uint                  `json:"entity_id"`
	CandidateID *uint                  `json:"candidate_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"created_at"`
}

// AuditListResponse wraps a page of audit entries.
type AuditListResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewAuditEntryResponse converts a model into its DTO.
func NewAuditEntryResponse(entry models.AuditLog) AuditEntryResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AuditEntryResponse{
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		ActorRole:   entry.ActorRole,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		CandidateID: entry.CandidateID,
		Metadata:    metadata,
		CreatedAt:   entry.CreatedAt,
	}
}
