package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// AdminProgramHandler exposes program, stage and question configuration.
type AdminProgramHandler struct {
	programs  service.ProgramService
	questions service.QuestionBankService
	logger    zerolog.Logger
}

// NewAdminProgramHandler constructs the handler.
func NewAdminProgramHandler(programs service.ProgramService, questions service.QuestionBankService, logger zerolog.Logger) *AdminProgramHandler {
	return &AdminProgramHandler{
		programs:  programs,
		questions: questions,
		logger:    logger.With().Str("component", "admin_program_handler").Logger(),
	}
}

// Register attaches routes to the admin group.
func (h *AdminProgramHandler) Register(router fiber.Router) {
	programs := router.Group("/programs")
	programs.Get("", h.list)
	programs.Post("", h.create)
	programs.Get("/active", h.active)
	programs.Get("/:id", h.get)
	programs.Put("/:id", h.update)
	programs.Post("/:id/activate", h.activate)
	programs.Get("/:id/validation", h.validate)
	programs.Get("/:id/outline", h.outline)
	programs.Post("/:id/stages", h.createStage)

	router.Put("/stages/:id", h.updateStage)
	router.Get("/stages/:id/questions", h.listQuestions)
	router.Post("/stages/:id/questions", h.createQuestion)
	router.Put("/questions/:id", h.updateQuestion)
	router.Put("/questions/:id/translations/:lang", h.upsertTranslation)
}

func (h *AdminProgramHandler) list(c *fiber.Ctx) error {
	programs, err := h.programs.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list programs")
	}
	return utils.SendSuccess(c, "programs retrieved", programs)
}

func (h *AdminProgramHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateProgramCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	program, err := h.programs.Create(actorContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create program")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "program created", program)
}

func (h *AdminProgramHandler) active(c *fiber.Ctx) error {
	program, err := h.programs.GetActive(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load active program")
	}
	return utils.SendSuccess(c, "active program", program)
}

func (h *AdminProgramHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	program, err := h.programs.Get(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load program")
	}
	return utils.SendSuccess(c, "program retrieved", program)
}

func (h *AdminProgramHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateProgramCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	program, err := h.programs.Update(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update program")
	}
	return utils.SendSuccess(c, "program updated", program)
}

func (h *AdminProgramHandler) activate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	program, err := h.programs.Activate(actorContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to activate program")
	}
	return utils.SendSuccess(c, "program activated", program)
}

func (h *AdminProgramHandler) validate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.programs.ValidateConfiguration(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to validate program")
	}
	return utils.SendSuccess(c, "configuration report", report)
}

func (h *AdminProgramHandler) outline(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	outline, err := h.questions.GetOutline(requestContext(c), id, c.Query("lang"), false)
	if err != nil {
		return respondError(c, h.logger, err, "failed to build outline")
	}
	return utils.SendSuccess(c, "assessment outline", outline)
}

func (h *AdminProgramHandler) createStage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CreateStageCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	stage, err := h.programs.CreateStage(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create stage")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "stage created", stage)
}

func (h *AdminProgramHandler) updateStage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateStageCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	stage, err := h.programs.UpdateStage(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update stage")
	}
	return utils.SendSuccess(c, "stage updated", stage)
}

func (h *AdminProgramHandler) listQuestions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questions, err := h.questions.ListQuestions(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list questions")
	}
	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *AdminProgramHandler) createQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CreateQuestionCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.questions.CreateQuestion(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create question")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question created", question)
}

func (h *AdminProgramHandler) updateQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateQuestionCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	question, err := h.questions.UpdateQuestion(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update question")
	}
	return utils.SendSuccess(c, "question updated", question)
}

func (h *AdminProgramHandler) upsertTranslation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpsertQuestionTranslationCommand
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.LanguageCode = c.Params("lang")

	question, err := h.questions.UpsertTranslation(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save translation")
	}
	return utils.SendSuccess(c, "translation saved", question)
}
