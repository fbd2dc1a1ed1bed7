package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
)

func TestAuditRecordMasksContactData(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditLogRepository(db), testLogger())
	ctx := WithActor(observability.WithCorrelationID(context.Background(), "corr-1"), Actor{ID: 7, Role: " Admin "})

	candidateID := uint(42)
	require.NoError(t, svc.Record(ctx, AuditEntry{
		Action:      "Candidate.Invited",
		EntityType:  "candidate",
		EntityID:    &candidateID,
		CandidateID: &candidateID,
		Metadata: map[string]interface{}{
			"email":        "maria.lopez@example.com",
			"invite_token": strings.Repeat("f", 64),
			"expiry_hours": 72,
		},
	}))

	list, err := svc.List(context.Background(), dto.AuditListRequest{CandidateID: candidateID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, int64(1), list.Pagination.TotalItems)

	entry := list.Items[0]
	require.Equal(t, uint(7), entry.ActorID)
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "candidate.invited", entry.Action)
	require.Equal(t, "m***z@example.com", entry.Metadata["email"])
	require.Equal(t, "ffffff***", entry.Metadata["invite_token"])
	require.Equal(t, json.Number("72"), entry.Metadata["expiry_hours"])
	require.Equal(t, "corr-1", entry.Metadata["correlation_id"])
}

func TestAuditRecordRequiresActionAndEntity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditLogRepository(db), testLogger())

	require.ErrorIs(t, svc.Record(context.Background(), AuditEntry{EntityType: "candidate"}), ErrValidation)
	require.ErrorIs(t, svc.Record(context.Background(), AuditEntry{Action: "x"}), ErrValidation)
}

func TestAuditListFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditLogRepository(db), testLogger())
	admin := WithActor(context.Background(), Actor{ID: 1, Role: "admin"})
	reviewer := WithActor(context.Background(), Actor{ID: 2, Role: "reviewer"})

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(admin, AuditEntry{Action: AuditCandidateDecided, EntityType: "candidate"}))
	}
	require.NoError(t, svc.Record(reviewer, AuditEntry{Action: AuditResponseGraded, EntityType: "candidate_response"}))
	require.NoError(t, svc.Record(context.Background(), AuditEntry{Action: AuditTemplateSaved, EntityType: "email_template"}))

	page, err := svc.List(context.Background(), dto.AuditListRequest{ActorID: 1, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, int64(3), page.Pagination.TotalItems)
	require.Equal(t, 2, page.Pagination.TotalPages)

	graded, err := svc.List(context.Background(), dto.AuditListRequest{Action: AuditResponseGraded})
	require.NoError(t, err)
	require.Len(t, graded.Items, 1)
	require.Equal(t, "reviewer", graded.Items[0].ActorRole)

	system, err := svc.List(context.Background(), dto.AuditListRequest{EntityType: "email_template"})
	require.NoError(t, err)
	require.Len(t, system.Items, 1)
	require.Equal(t, "system", system.Items[0].ActorRole)
	require.Zero(t, system.Items[0].ActorID)
}
