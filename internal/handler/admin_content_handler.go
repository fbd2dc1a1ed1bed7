package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// AdminContentHandler edits email templates and keyed localized copy.
type AdminContentHandler struct {
	templates service.EmailTemplateService
	content   service.ContentService
	logger    zerolog.Logger
}

// NewAdminContentHandler constructs the handler.
func NewAdminContentHandler(templates service.EmailTemplateService, content service.ContentService, logger zerolog.Logger) *AdminContentHandler {
	return &AdminContentHandler{
		templates: templates,
		content:   content,
		logger:    logger.With().Str("component", "admin_content_handler").Logger(),
	}
}

// Register attaches routes.
func (h *AdminContentHandler) Register(router fiber.Router) {
	router.Get("/email-templates", h.listTemplates)
	router.Put("/email-templates/:name/:lang", h.upsertTemplate)
	router.Post("/email-templates/:name/:lang/preview", h.previewTemplate)
	router.Get("/content/:key/:lang", h.resolveContent)
	router.Put("/content/:key/:lang", h.upsertContent)
}

func (h *AdminContentHandler) listTemplates(c *fiber.Ctx) error {
	templates, err := h.templates.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list email templates")
	}
	return utils.SendSuccess(c, "email templates retrieved", templates)
}

func (h *AdminContentHandler) upsertTemplate(c *fiber.Ctx) error {
	var payload dto.UpsertEmailTemplateCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	template, err := h.templates.Upsert(actorContext(c), c.Params("name"), c.Params("lang"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save email template")
	}
	return utils.SendSuccess(c, "email template saved", template)
}

func (h *AdminContentHandler) previewTemplate(c *fiber.Ctx) error {
	var payload dto.PreviewEmailRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	rendered, err := h.templates.Render(requestContext(c), c.Params("name"), c.Params("lang"), payload.Variables)
	if err != nil {
		return respondError(c, h.logger, err, "failed to render email template")
	}
	return utils.SendSuccess(c, "email preview", rendered)
}

func (h *AdminContentHandler) resolveContent(c *fiber.Ctx) error {
	content, err := h.content.Resolve(requestContext(c), c.Params("key"), c.Params("lang"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load content")
	}
	return utils.SendSuccess(c, "content retrieved", content)
}

func (h *AdminContentHandler) upsertContent(c *fiber.Ctx) error {
	var payload dto.UpsertContentCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	content, err := h.content.Upsert(actorContext(c), c.Params("key"), c.Params("lang"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save content")
	}
	return utils.SendSuccess(c, "content saved", content)
}
