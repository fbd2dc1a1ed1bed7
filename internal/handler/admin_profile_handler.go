package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// AdminProfileHandler manages simulation personas.
type AdminProfileHandler struct {
	service service.SimulationProfileService
	logger  zerolog.Logger
}

// NewAdminProfileHandler constructs the handler.
func NewAdminProfileHandler(service service.SimulationProfileService, logger zerolog.Logger) *AdminProfileHandler {
	return &AdminProfileHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_profile_handler").Logger(),
	}
}

// Register attaches routes.
func (h *AdminProfileHandler) Register(router fiber.Router) {
	router.Get("/programs/:id/profiles", h.list)
	router.Post("/programs/:id/profiles", h.create)
	router.Put("/profiles/:id", h.update)
	router.Put("/profiles/:id/translations/:lang", h.upsertTranslation)
}

func (h *AdminProfileHandler) list(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if lang := c.Query("lang"); lang != "" {
		profiles, err := h.service.ListLocalized(requestContext(c), id, lang)
		if err != nil {
			return respondError(c, h.logger, err, "failed to list profiles")
		}
		return utils.SendSuccess(c, "profiles retrieved", profiles)
	}

	profiles, err := h.service.List(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list profiles")
	}
	return utils.SendSuccess(c, "profiles retrieved", profiles)
}

func (h *AdminProfileHandler) create(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SimulationProfileCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.Create(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create profile")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "profile created", profile)
}

func (h *AdminProfileHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SimulationProfileCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.service.Update(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update profile")
	}
	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *AdminProfileHandler) upsertTranslation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProfileTranslationPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.LanguageCode = c.Params("lang")

	profile, err := h.service.UpsertTranslation(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save profile translation")
	}
	return utils.SendSuccess(c, "profile translation saved", profile)
}
