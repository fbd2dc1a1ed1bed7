package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerPrefix = "github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service/"

// PipelineSettings carries the configuration the pipeline services share.
type PipelineSettings struct {
	PublicOrigin        string
	CompanyName         string
	MailFrom            string
	StoreTimeout        time.Duration
	EnforceStageWeights bool
	RevokePreviousLinks bool
	AnalyticsCacheTTL   time.Duration
}

func maskEmailAddress(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "***"
	}
	local := parts[0]
	domain := parts[1]
	if len(local) <= 2 {
		local = local[:1] + "***"
	} else {
		local = local[:1] + "***" + local[len(local)-1:]
	}
	return local + "@" + domain
}

// maskToken keeps only a short prefix of a token for log lines.
func maskToken(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:6] + "***"
}

// withStoreTimeout runs a configuration write under the store timeout. A deadline hit
// surfaces ErrStoreTimeout.
func withStoreTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return err
}

func failSpan(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

func boolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func normalizeAnswer(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
