package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// CareersHandler serves the public application and assessment endpoints. The link
// token is the only credential on assessment routes.
type CareersHandler struct {
	pipeline service.CandidatePipelineService
	logger   zerolog.Logger
}

// NewCareersHandler constructs the handler.
func NewCareersHandler(pipeline service.CandidatePipelineService, logger zerolog.Logger) *CareersHandler {
	return &CareersHandler{
		pipeline: pipeline,
		logger:   logger.With().Str("component", "careers_handler").Logger(),
	}
}

// Register wires routes under /careers/:slug.
func (h *CareersHandler) Register(router fiber.Router) {
	router.Post("/applications", h.apply)
	router.Get("/assessment/:token", h.open)
	router.Post("/assessment/:token/start", h.start)
	router.Post("/assessment/:token/responses", h.submit)
}

func (h *CareersHandler) apply(c *fiber.Ctx) error {
	var payload dto.ApplicationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.pipeline.Apply(requestContext(c), c.Params("slug"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit application")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application received", response)
}

func (h *CareersHandler) open(c *fiber.Ctx) error {
	session, err := h.pipeline.OpenAssessment(requestContext(c), c.Params("slug"), c.Params("token"), preferredLanguage(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to open assessment")
	}
	return utils.SendSuccess(c, "assessment ready", session)
}

func (h *CareersHandler) start(c *fiber.Ctx) error {
	session, err := h.pipeline.StartAssessment(requestContext(c), c.Params("slug"), c.Params("token"), preferredLanguage(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to start assessment")
	}
	return utils.SendSuccess(c, "assessment started", session)
}

func (h *CareersHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitResponsesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.pipeline.SubmitResponses(requestContext(c), c.Params("slug"), c.Params("token"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to store responses")
	}
	return utils.SendSuccess(c, "responses stored", result)
}

// preferredLanguage returns the lang query value, or the Accept-Language header when
// the query is absent.
func preferredLanguage(c *fiber.Ctx) string {
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return lang
	}
	return c.Get(fiber.HeaderAcceptLanguage)
}
