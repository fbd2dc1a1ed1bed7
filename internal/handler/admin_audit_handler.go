package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// AdminAuditHandler exposes the operator audit trail.
type AdminAuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAdminAuditHandler constructs the handler.
func NewAdminAuditHandler(service service.AuditService, logger zerolog.Logger) *AdminAuditHandler {
	return &AdminAuditHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_audit_handler").Logger(),
	}
}

// Register attaches audit routes to the router group.
func (h *AdminAuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminAuditHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 25
	} else if pageSize > 200 {
		pageSize = 200
	}

	req := dto.AuditListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}

	if actorID, err := parseQueryUint(c, "actor_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	} else if actorID != nil {
		req.ActorID = *actorID
	}
	if candidateID, err := parseQueryUint(c, "candidate_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid candidate id")
	} else if candidateID != nil {
		req.CandidateID = *candidateID
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "since must be RFC3339")
		}
		req.Since = &parsed
	}

	response, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list audit entries")
	}

	return utils.OK(c, response.Items, "audit entries", fiber.Map{"pagination": response.Pagination})
}
