package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// AdminAnalyticsHandler exposes funnel analytics for administrators.
type AdminAnalyticsHandler struct {
	service service.FunnelAnalyticsService
	logger  zerolog.Logger
}

// NewAdminAnalyticsHandler constructs the handler.
func NewAdminAnalyticsHandler(service service.FunnelAnalyticsService, logger zerolog.Logger) *AdminAnalyticsHandler {
	return &AdminAnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_analytics_handler").Logger(),
	}
}

// Register attaches analytics routes to the router group.
func (h *AdminAnalyticsHandler) Register(router fiber.Router) {
	router.Get("/funnel", h.funnel)
}

func (h *AdminAnalyticsHandler) funnel(c *fiber.Ctx) error {
	top, err := parseQueryInt(c, "top")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	programID, err := parseQueryUint(c, "program_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	funnel, err := h.service.Funnel(requestContext(c), programID, top)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load analytics")
	}

	return utils.SendSuccess(c, "funnel analytics", funnel)
}
