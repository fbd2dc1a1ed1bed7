package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
)

const (
	correlationHeader = "X-Correlation-ID"
	correlationLocal  = "correlation_id"
)

// CorrelationID reuses the caller's X-Correlation-ID (or X-Request-ID) or mints one,
// echoes it back and binds it to the user context so audit entries and pipeline
// events carry it.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := firstNonBlank(c.Get(correlationHeader), c.Get(fiber.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(correlationHeader, id)
		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), id))
		return c.Next()
	}
}

// GetCorrelationID returns the identifier assigned to the current request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok {
		return id
	}
	return observability.CorrelationID(c.UserContext())
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
