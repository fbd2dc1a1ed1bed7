package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
)

const (
	defaultExpiryHours = 72
	maxTokenAttempts   = 3
)

// InvitationService issues and validates assessment links.
type InvitationService interface {
	Issue(ctx context.Context, candidateID uint, expiryHours int) (dto.InvitationResponse, error)
	Validate(ctx context.Context, token string) (dto.LinkValidation, error)
	BuildURL(programSlug, token string) string
}

type invitationService struct {
	programs   repository.ProgramRepository
	candidates repository.CandidateRepository
	links      repository.AssessmentLinkRepository
	tx         repository.Transactor
	notifier   CandidateNotifier
	recorder   transitionRecorder
	audit      AuditRecorder
	settings   PipelineSettings
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
	newToken   func() string
}

// NewInvitationService constructs the link issuer.
func NewInvitationService(programs repository.ProgramRepository, candidates repository.CandidateRepository, links repository.AssessmentLinkRepository, tx repository.Transactor, notifier CandidateNotifier, events EventPublisher, cache CacheInvalidator, audit AuditRecorder, settings PipelineSettings, logger zerolog.Logger) InvitationService {
	log := logger.With().Str("component", "invitation_service").Logger()
	return &invitationService{
		programs:   programs,
		candidates: candidates,
		links:      links,
		tx:         tx,
		notifier:   notifier,
		recorder:   transitionRecorder{events: events, cache: cache, logger: log},
		audit:      audit,
		settings:   settings,
		logger:     log,
		tracer:     otel.Tracer(tracerPrefix + "invitation"),
		now:        time.Now,
		newToken:   generateToken,
	}
}

// generateToken concatenates two random v4 UUIDs without separators.
func generateToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// Issue mints a link for the candidate and records the invitation in one transaction.
// Pending and shortlisted candidates move to invited; invited candidates get a fresh link
// and a new invited_at. Earlier outstanding links are revoked when configured to.
func (s *invitationService) Issue(ctx context.Context, candidateID uint, expiryHours int) (dto.InvitationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.issue")
	defer span.End()
	span.SetAttributes(attribute.Int64("candidate.id", int64(candidateID)))

	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return dto.InvitationResponse{}, failSpan(span, storeError(err, ErrCandidateNotFound, nil), "lookup failed")
	}

	from := candidate.Status
	switch from {
	case models.CandidateStatusPending, models.CandidateStatusShortlisted, models.CandidateStatusInvited:
	default:
		return dto.InvitationResponse{}, failSpan(span, &InvalidTransitionError{From: from, To: models.CandidateStatusInvited}, "invalid transition")
	}

	program, err := s.programs.GetByID(ctx, candidate.ProgramID)
	if err != nil {
		return dto.InvitationResponse{}, failSpan(span, storeError(err, ErrProgramNotFound, nil), "lookup failed")
	}

	if expiryHours == 0 {
		expiryHours = program.Config().LinkExpiryHours
	}
	if expiryHours == 0 {
		expiryHours = defaultExpiryHours
	}
	if !containsInt(dto.ExpiryHourOptions, expiryHours) {
		return dto.InvitationResponse{}, failSpan(span, FieldError("expiry_hours", fmt.Sprintf("must be one of %v", dto.ExpiryHourOptions)), "validation failed")
	}

	now := s.now().UTC()
	expiresAt := now.Add(time.Duration(expiryHours) * time.Hour)

	var (
		link    models.AssessmentLink
		revoked int64
	)
	for attempt := 1; ; attempt++ {
		link = models.AssessmentLink{CandidateID: candidate.ID, Token: s.newToken(), ExpiresAt: expiresAt, CreatedAt: now}
		err = s.tx.WithinTransaction(ctx, func(tx repository.TxRepositories) error {
			revoked = 0
			if s.settings.RevokePreviousLinks {
				count, err := tx.Links.RevokeOutstanding(ctx, candidate.ID, now)
				if err != nil {
					return err
				}
				revoked = count
			}

			if err := tx.Links.Create(ctx, &link); err != nil {
				return err
			}

			updates := map[string]interface{}{"invited_at": now}
			if from == models.CandidateStatusInvited {
				return tx.Candidates.Touch(ctx, candidate.ID, from, updates)
			}
			return tx.Candidates.TransitionStatus(ctx, candidate.ID, from, models.CandidateStatusInvited, updates)
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}

		observability.TokenCollisions().Inc()
		s.logger.Warn().Uint("candidate_id", candidate.ID).Int("attempt", attempt).Msg("assessment token collision, regenerating")
		if attempt >= maxTokenAttempts {
			return dto.InvitationResponse{}, failSpan(span, ErrTokenExhausted, "token allocation failed")
		}
	}
	if err != nil {
		return dto.InvitationResponse{}, failSpan(span, storeError(err, ErrCandidateNotFound, nil), "invitation failed")
	}

	observability.InvitationsIssued().Inc()
	candidate.Status = models.CandidateStatusInvited
	candidate.InvitedAt = &now
	if from != models.CandidateStatusInvited {
		s.recorder.record(ctx, candidate, from, models.CandidateStatusInvited, nil)
	}
	s.recorder.publish(ctx, SubjectInvitationIssued, PipelineEvent{
		CandidateID: candidate.ID,
		ProgramID:   candidate.ProgramID,
		To:          models.CandidateStatusInvited,
		ExpiresAt:   &expiresAt,
		OccurredAt:  now,
	})

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Action:      AuditInvitationIssued,
		EntityType:  "assessment_link",
		EntityID:    uintPtr(link.ID),
		CandidateID: uintPtr(candidate.ID),
		Metadata: map[string]interface{}{
			"token":            link.Token,
			"expiry_hours":     expiryHours,
			"revoked_previous": revoked,
			"resend":           from == models.CandidateStatusInvited,
		},
	})

	invitationURL := s.BuildURL(program.Slug, link.Token)
	emailQueued := notifyBestEffort(ctx, s.notifier, s.logger, models.TemplateAssessmentInvitation, candidate, map[string]string{
		PlaceholderAssessmentLink: invitationURL,
		PlaceholderExpiryHours:    strconv.Itoa(expiryHours),
	})

	s.logger.Info().
		Uint("candidate_id", candidate.ID).
		Str("token", maskToken(link.Token)).
		Time("expires_at", expiresAt).
		Int64("revoked_previous", revoked).
		Bool("email_queued", emailQueued).
		Msg("assessment link issued")

	return dto.InvitationResponse{
		CandidateID:     candidate.ID,
		Token:           link.Token,
		URL:             invitationURL,
		ExpiresAt:       expiresAt,
		ExpiryHours:     expiryHours,
		RevokedPrevious: revoked,
		EmailQueued:     emailQueued,
	}, nil
}

// Validate resolves a token to its candidate. Unknown tokens are ErrLinkNotFound; a
// token at or past its expiry is ErrLinkExpired and a revoked one ErrLinkRevoked, both
// of which match ErrExpired.
func (s *invitationService) Validate(ctx context.Context, token string) (dto.LinkValidation, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.validate")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return dto.LinkValidation{}, failSpan(span, ErrLinkNotFound, "empty token")
	}

	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		return dto.LinkValidation{}, failSpan(span, storeError(err, ErrLinkNotFound, nil), "lookup failed")
	}

	now := s.now().UTC()
	if link.IsRevoked() {
		return dto.LinkValidation{}, failSpan(span, ErrLinkRevoked, "link revoked")
	}
	if link.IsExpired(now) {
		return dto.LinkValidation{}, failSpan(span, ErrLinkExpired, "link expired")
	}

	candidate, err := s.candidates.GetByID(ctx, link.CandidateID)
	if err != nil {
		return dto.LinkValidation{}, failSpan(span, storeError(err, ErrLinkNotFound, nil), "candidate lookup failed")
	}

	validation := dto.LinkValidation{
		LinkID:       link.ID,
		CandidateID:  link.CandidateID,
		ProgramID:    candidate.ProgramID,
		ExpiresAt:    link.ExpiresAt,
		AttemptsUsed: link.AttemptCount,
	}

	program, err := s.programs.GetByID(ctx, candidate.ProgramID)
	if err != nil {
		return dto.LinkValidation{}, failSpan(span, storeError(err, ErrProgramNotFound, nil), "program lookup failed")
	}
	if maxAttempts := program.Config().MaxAttempts; maxAttempts > 0 {
		remaining := maxAttempts - link.AttemptCount
		if remaining < 0 {
			remaining = 0
		}
		validation.AttemptsRemaining = &remaining
	}

	return validation, nil
}

// BuildURL returns {origin}/careers/<program-slug>/assessment/<token>.
func (s *invitationService) BuildURL(programSlug, token string) string {
	origin := strings.TrimRight(s.settings.PublicOrigin, "/")
	return fmt.Sprintf("%s/careers/%s/assessment/%s", origin, url.PathEscape(programSlug), url.PathEscape(token))
}

func containsInt(values []int, target int) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
