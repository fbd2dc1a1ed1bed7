package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type flakyMailer struct {
	failures int
	err      error
	calls    int
}

func (f *flakyMailer) Send(ctx context.Context, msg Message) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func newTestRetryingMailer(next Mailer, attempts int) (*RetryingMailer, *[]time.Duration) {
	m := NewRetryingMailer(next, RetryConfig{MaxAttempts: attempts, Backoff: 10 * time.Millisecond, MaxBackoff: 25 * time.Millisecond}, zerolog.Nop())
	waits := []time.Duration{}
	m.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return m, &waits
}

func TestRetryingMailerRetriesWithBackoff(t *testing.T) {
	next := &flakyMailer{failures: 3, err: errors.New("smtp unavailable")}
	m, waits := newTestRetryingMailer(next, 4)

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com"}))
	require.Equal(t, 4, next.calls)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}, *waits)
}

func TestRetryingMailerGivesUpAfterMaxAttempts(t *testing.T) {
	next := &flakyMailer{failures: 10, err: errors.New("smtp unavailable")}
	m, _ := newTestRetryingMailer(next, 3)

	err := m.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	require.Equal(t, 3, next.calls)
}

func TestRetryingMailerStopsOnPermanentError(t *testing.T) {
	next := &flakyMailer{failures: 10, err: ErrPermanent}
	m, waits := newTestRetryingMailer(next, 5)

	err := m.Send(context.Background(), Message{To: "a@example.com"})
	require.ErrorIs(t, err, ErrPermanent)
	require.Equal(t, 1, next.calls)
	require.Empty(t, *waits)
}

func TestRetryingMailerHonoursCancellation(t *testing.T) {
	next := &flakyMailer{failures: 10, err: errors.New("timeout")}
	m := NewRetryingMailer(next, RetryConfig{MaxAttempts: 5, Backoff: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, Message{To: "a@example.com"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, next.calls)
}
