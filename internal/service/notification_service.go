package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/mailer"
)

// CandidateNotifier sends templated emails to candidates.
type CandidateNotifier interface {
	// Notify renders template in the candidate's language and sends it. Failures come
	// back as *DeliveryError.
	Notify(ctx context.Context, template string, candidate models.Candidate, vars map[string]string) error
}

type candidateNotifier struct {
	templates EmailTemplateService
	mailer    mailer.Mailer
	settings  PipelineSettings
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCandidateNotifier constructs a notifier over the template service and a mail transport.
func NewCandidateNotifier(templates EmailTemplateService, transport mailer.Mailer, settings PipelineSettings, logger zerolog.Logger) CandidateNotifier {
	return &candidateNotifier{
		templates: templates,
		mailer:    transport,
		settings:  settings,
		logger:    logger.With().Str("component", "candidate_notifier").Logger(),
		now:       time.Now,
	}
}

func (n *candidateNotifier) Notify(ctx context.Context, template string, candidate models.Candidate, vars map[string]string) error {
	values := map[string]string{
		PlaceholderFullName:    candidate.FullName,
		PlaceholderEmail:       candidate.Email,
		PlaceholderCompanyName: n.settings.CompanyName,
		PlaceholderCurrentDate: n.now().UTC().Format("2006-01-02"),
	}
	for key, value := range vars {
		values[key] = value
	}

	rendered, err := n.templates.Render(ctx, template, candidate.PreferredLanguage, values)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrTemplateNotFound) {
			result = "no_template"
		}
		observability.EmailDeliveries().WithLabelValues(template, result).Inc()
		return &DeliveryError{Template: template, Err: err}
	}
	if len(rendered.Unresolved) > 0 {
		n.logger.Warn().Str("template", template).Strs("unresolved", rendered.Unresolved).Msg("email rendered with unresolved placeholders")
	}

	msg := mailer.Message{
		To:           candidate.Email,
		From:         n.settings.MailFrom,
		Subject:      rendered.Subject,
		HTMLBody:     rendered.HTMLBody,
		TextBody:     rendered.TextBody,
		TemplateName: template,
		LanguageCode: rendered.Resolution.Language,
		Metadata:     map[string]string{"resolution": string(rendered.Resolution.Status)},
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		observability.EmailDeliveries().WithLabelValues(template, "failed").Inc()
		return &DeliveryError{Template: template, Err: err}
	}

	observability.EmailDeliveries().WithLabelValues(template, "sent").Inc()
	n.logger.Info().Str("template", template).Str("email", maskEmailAddress(candidate.Email)).Msg("candidate email sent")
	return nil
}

// notifyBestEffort sends an email and logs a failure instead of returning it.
func notifyBestEffort(ctx context.Context, notifier CandidateNotifier, logger zerolog.Logger, template string, candidate models.Candidate, vars map[string]string) bool {
	if notifier == nil {
		return false
	}
	if err := notifier.Notify(ctx, template, candidate, vars); err != nil {
		logger.Warn().Err(err).
			Str("template", template).
			Uint("candidate_id", candidate.ID).
			Str("email", maskEmailAddress(candidate.Email)).
			Msg("candidate email not delivered")
		return false
	}
	return true
}
