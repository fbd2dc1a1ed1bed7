package service

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
)

// Audit actions recorded by the pipeline.
const (
	AuditProgramActivated   = "program.activated"
	AuditCandidateDecided   = "candidate.decided"
	AuditInvitationIssued   = "candidate.invited"
	AuditResponseGraded     = "response.graded"
	AuditCandidateFinalized = "candidate.finalized"
	AuditTemplateSaved      = "email_template.saved"
)

// Actor is the authenticated operator behind a request.
type Actor struct {
	ID   uint
	Role string
}

type actorKey struct{}

// WithActor attaches the operator to ctx so services can attribute their writes.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the operator stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// AuditEntry describes one operator action.
type AuditEntry struct {
	Action      string
	EntityType  string
	EntityID    *uint
	CandidateID *uint
	Metadata    map[string]interface{}
}

// AuditRecorder appends entries to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditService records and lists operator actions.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit trail service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

// Record stores entry attributed to the actor in ctx, or to "system" when there is none.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	if strings.TrimSpace(entry.Action) == "" || strings.TrimSpace(entry.EntityType) == "" {
		return NewValidationError("audit action and entity type are required")
	}

	actor, _ := ActorFromContext(ctx)
	metadata := maskMetadata(entry.Metadata)
	if id := observability.CorrelationID(ctx); id != "" {
		metadata["correlation_id"] = id
	}
	model := models.AuditLog{
		ActorID:     actor.ID,
		ActorRole:   normalizeRole(actor.Role),
		Action:      strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType:  strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:    entry.EntityID,
		CandidateID: entry.CandidateID,
		Metadata:    metadata,
	}
	return s.repo.Create(ctx, &model)
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	filter := repository.AuditLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
		Since:      req.Since,
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.CandidateID > 0 {
		filter.CandidateID = &req.CandidateID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAuditEntryResponse(entry))
	}

	pagination := dto.PaginationMeta{Page: maxInt(req.Page, 1), PageSize: req.PageSize, TotalItems: total, TotalPages: 1}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	}
	return dto.AuditListResponse{Items: items, Pagination: pagination}, nil
}

// recordAudit writes to the trail without failing the operation it describes.
func recordAudit(ctx context.Context, audit AuditRecorder, logger zerolog.Logger, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record audit entry")
	}
}

func maskMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	masked := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		switch {
		case strings.Contains(lower, "email"):
			if text, ok := value.(string); ok {
				masked[key] = maskEmailAddress(text)
				continue
			}
			masked[key] = "***"
		case strings.Contains(lower, "token"):
			if text, ok := value.(string); ok {
				masked[key] = maskToken(text)
				continue
			}
			masked[key] = "***"
		default:
			masked[key] = value
		}
	}
	return masked
}

func normalizeRole(role string) string {
	if r := strings.ToLower(strings.TrimSpace(role)); r != "" {
		return r
	}
	return "system"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func uintPtr(value uint) *uint {
	return &value
}
