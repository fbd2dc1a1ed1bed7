package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
)

const (
	// AdminPrefix is the operator API; its requests feed the admin collectors.
	AdminPrefix = "/api/v1/admin"
	// CareersPrefix is the public candidate API.
	CareersPrefix = "/api/v1/careers"
)

// Observability logs every admin and careers request and records admin request
// metrics. Careers requests never log the assessment token.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		surface := requestSurface(c.Path())
		if surface == "" {
			return err
		}

		elapsed := time.Since(start)
		route := routeTemplate(c)
		status := c.Response().StatusCode()

		if surface == "admin" {
			code := strconv.Itoa(status)
			observability.AdminRequests().WithLabelValues(c.Method(), route, code).Inc()
			observability.AdminLatency().WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())
			if status >= fiber.StatusBadRequest {
				observability.AdminErrors().WithLabelValues(c.Method(), route, code).Inc()
			}
		}

		fields := logger.With().
			Str("surface", surface).
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", c.Method()).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed)
		if operator, ok := c.Locals("user_id").(uint); ok {
			fields = fields.Uint("operator_id", operator)
		}
		if slug := c.Params("slug"); slug != "" {
			fields = fields.Str("program", slug)
		}
		reqLogger := fields.Logger()

		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = reqLogger.Error()
		case status >= fiber.StatusBadRequest:
			event = reqLogger.Warn()
		default:
			event = reqLogger.Info()
		}
		event.Msg(surface + " request")

		return err
	}
}

func requestSurface(path string) string {
	switch {
	case strings.HasPrefix(path, AdminPrefix):
		return "admin"
	case strings.HasPrefix(path, CareersPrefix):
		return "careers"
	default:
		return ""
	}
}

// routeTemplate keeps metric cardinality bounded by labelling with the registered
// pattern instead of the concrete path.
func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}
