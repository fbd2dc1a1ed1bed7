package mailer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Message is a rendered transactional email.
type Message struct {
	To           string            `json:"to"`
	From         string            `json:"from"`
	Subject      string            `json:"subject"`
	HTMLBody     string            `json:"html_body"`
	TextBody     string            `json:"text_body,omitempty"`
	TemplateName string            `json:"template_name"`
	LanguageCode string            `json:"language_code"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Mailer hands a message to the transactional email provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer only logs messages. It is used when no outbox transport is configured.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info().
		Str("template", msg.TemplateName).
		Str("language", msg.LanguageCode).
		Str("subject", msg.Subject).
		Msg("email handed to log transport")
	return nil
}

// RetryConfig bounds the retry loop of a RetryingMailer.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// RetryingMailer retries transient send failures with exponential backoff.
type RetryingMailer struct {
	next   Mailer
	cfg    RetryConfig
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// ErrPermanent marks send failures that must not be retried.
var ErrPermanent = errors.New("permanent delivery failure")

// NewRetryingMailer wraps next with retry-with-backoff semantics.
func NewRetryingMailer(next Mailer, cfg RetryConfig, logger zerolog.Logger) *RetryingMailer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	return &RetryingMailer{
		next:   next,
		cfg:    cfg,
		logger: logger.With().Str("component", "retrying_mailer").Logger(),
		sleep:  sleepContext,
	}
}

// Send delivers msg, retrying until it succeeds, the attempts run out, the error is
// permanent or ctx is done.
func (m *RetryingMailer) Send(ctx context.Context, msg Message) error {
	delay := m.cfg.Backoff
	var lastErr error

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		err := m.next.Send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrPermanent) || attempt == m.cfg.MaxAttempts {
			break
		}

		m.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Str("template", msg.TemplateName).Msg("email send failed, retrying")
		if err := m.sleep(ctx, delay); err != nil {
			return err
		}

		delay *= 2
		if delay > m.cfg.MaxBackoff {
			delay = m.cfg.MaxBackoff
		}
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
