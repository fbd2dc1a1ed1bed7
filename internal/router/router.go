package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/handler"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/middleware"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
)

// Operator roles allowed on the admin API.
var operatorRoles = []string{"admin", "recruiter"}

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProgramHandler   *handler.AdminProgramHandler
	ProfileHandler   *handler.AdminProfileHandler
	CandidateHandler *handler.AdminCandidateHandler
	ContentHandler   *handler.AdminContentHandler
	AnalyticsHandler *handler.AdminAnalyticsHandler
	AuditHandler     *handler.AdminAuditHandler
	CareersHandler   *handler.CareersHandler
	Health           map[string]handler.Pinger
	JWTMiddleware    fiber.Handler
	CareersRateLimit int
	CareersWindow    time.Duration
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Health))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(operatorRoles...))
	if deps.ProgramHandler != nil {
		deps.ProgramHandler.Register(admin)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(admin)
	}
	if deps.CandidateHandler != nil {
		deps.CandidateHandler.Register(admin)
	}
	if deps.ContentHandler != nil {
		deps.ContentHandler.Register(admin)
	}
	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(admin.Group("/analytics"))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(admin.Group("/audit"))
	}

	if deps.CareersHandler != nil {
		careers := api.Group("/careers/:slug", middleware.RateLimit("careers", deps.CareersRateLimit, deps.CareersWindow))
		deps.CareersHandler.Register(careers)
	}
}
