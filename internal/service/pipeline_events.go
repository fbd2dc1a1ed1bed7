package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
)

// Subjects pipeline events are published on.
const (
	SubjectStatusChanged    = "talent.candidates.status_changed"
	SubjectInvitationIssued = "talent.invitations.issued"
)

// PipelineEvent is the payload of every pipeline event.
type PipelineEvent struct {
	Source      string                 `json:"source"`
	Correlation string                 `json:"correlation_id,omitempty"`
	CandidateID uint                   `json:"candidate_id"`
	ProgramID   uint                   `json:"program_id"`
	From        models.CandidateStatus `json:"from,omitempty"`
	To          models.CandidateStatus `json:"to,omitempty"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
	FinalScore  *float64               `json:"final_score,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// EventPublisher fans pipeline events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event PipelineEvent) error
}

// CacheInvalidator drops derived read models after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type eventPublisher struct {
	nats   *nats.Conn
	redis  *redis.Client
	nodeID string
}

// NewEventPublisher publishes on NATS and redis pub/sub. Either connection may be nil;
// with both nil publishing is a no-op.
func NewEventPublisher(natsConn *nats.Conn, redisClient *redis.Client) EventPublisher {
	return &eventPublisher{nats: natsConn, redis: redisClient, nodeID: uuid.NewString()}
}

func (p *eventPublisher) Publish(ctx context.Context, subject string, event PipelineEvent) error {
	event.Source = p.nodeID
	if event.Correlation == "" {
		event.Correlation = observability.CorrelationID(ctx)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.nats != nil {
		if err := p.nats.Publish(subject, payload); err != nil {
			return err
		}
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, subject, payload).Err(); err != nil {
			return err
		}
	}

	return nil
}

// transitionRecorder runs the after-commit side effects of a status change. None of
// them can fail the change itself.
type transitionRecorder struct {
	events EventPublisher
	cache  CacheInvalidator
	logger zerolog.Logger
}

func (r transitionRecorder) record(ctx context.Context, candidate models.Candidate, from, to models.CandidateStatus, finalScore *float64) {
	observability.StatusTransitions().WithLabelValues(string(from), string(to)).Inc()
	r.invalidate(ctx)

	r.publish(ctx, SubjectStatusChanged, PipelineEvent{
		CandidateID: candidate.ID,
		ProgramID:   candidate.ProgramID,
		From:        from,
		To:          to,
		FinalScore:  finalScore,
	})
}

func (r transitionRecorder) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("failed to invalidate funnel cache")
	}
}

func (r transitionRecorder) publish(ctx context.Context, subject string, event PipelineEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, subject, event); err != nil {
		r.logger.Warn().Err(err).Str("subject", subject).Uint("candidate_id", event.CandidateID).Msg("failed to publish pipeline event")
	}
}
