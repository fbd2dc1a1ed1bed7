package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck reports service identity and the reachability of each named dependency.
// Any unreachable dependency degrades the status and answers 503.
func HealthCheck(cfg config.Config, deps map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if len(deps) > 0 {
			ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
			defer cancel()

			payload.Dependencies = make(map[string]string, len(deps))
			for name, pinger := range deps {
				if pinger == nil {
					continue
				}
				if err := pinger.Ping(ctx); err != nil {
					payload.Dependencies[name] = "unavailable"
					payload.Status = "degraded"
					continue
				}
				payload.Dependencies[name] = "ok"
			}
		}

		if payload.Status != "ok" {
			return utils.SendSuccessWithStatus(c, fiber.StatusServiceUnavailable, "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
