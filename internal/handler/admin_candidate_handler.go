package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// AdminCandidateHandler exposes candidate review, invitations and scoring.
type AdminCandidateHandler struct {
	pipeline    service.CandidatePipelineService
	invitations service.InvitationService
	scoring     service.ScoringService
	logger      zerolog.Logger
}

// NewAdminCandidateHandler constructs the handler.
func NewAdminCandidateHandler(pipeline service.CandidatePipelineService, invitations service.InvitationService, scoring service.ScoringService, logger zerolog.Logger) *AdminCandidateHandler {
	return &AdminCandidateHandler{
		pipeline:    pipeline,
		invitations: invitations,
		scoring:     scoring,
		logger:      logger.With().Str("component", "admin_candidate_handler").Logger(),
	}
}

// Register attaches routes.
func (h *AdminCandidateHandler) Register(router fiber.Router) {
	candidates := router.Group("/candidates")
	candidates.Get("", h.list)
	candidates.Get("/:id", h.get)
	candidates.Get("/:id/responses", h.responses)
	candidates.Patch("/:id/notes", h.updateNotes)
	candidates.Post("/:id/shortlist", h.shortlist)
	candidates.Post("/:id/reject", h.reject)
	candidates.Post("/:id/invite", h.invite)
	candidates.Get("/:id/score", h.score)
	candidates.Post("/:id/finalize", h.finalize)

	router.Patch("/responses/:id/grade", h.grade)
	router.Post("/responses/:id/suggestion", h.suggest)
}

func (h *AdminCandidateHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	programID, err := parseQueryUint(c, "program_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.CandidateListRequest{
		ProgramID:      programID,
		Status:         c.Query("status"),
		Country:        c.Query("country"),
		AreaOfInterest: c.Query("area_of_interest"),
		Language:       c.Query("language"),
		Search:         c.Query("search"),
		Page:           page,
		PageSize:       pageSize,
	}

	result, err := h.pipeline.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list candidates")
	}

	meta := fiber.Map{
		"pagination": result.Pagination,
		"filters": fiber.Map{
			"status":           req.Status,
			"country":          req.Country,
			"area_of_interest": req.AreaOfInterest,
			"language":         req.Language,
			"search":           req.Search,
		},
	}
	return utils.OK(c, result.Items, "candidates retrieved", meta)
}

func (h *AdminCandidateHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	candidate, err := h.pipeline.Get(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load candidate")
	}
	return utils.SendSuccess(c, "candidate retrieved", candidate)
}

func (h *AdminCandidateHandler) responses(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	answers, err := h.pipeline.ListResponses(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list responses")
	}
	return utils.SendSuccess(c, "responses retrieved", answers)
}

func (h *AdminCandidateHandler) updateNotes(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateNotesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	candidate, err := h.pipeline.UpdateNotes(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update notes")
	}
	return utils.SendSuccess(c, "notes updated", candidate)
}

func (h *AdminCandidateHandler) shortlist(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	candidate, err := h.pipeline.Shortlist(actorContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to shortlist candidate")
	}
	return utils.SendSuccess(c, "candidate shortlisted", candidate)
}

func (h *AdminCandidateHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	candidate, err := h.pipeline.Reject(actorContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to reject candidate")
	}
	return utils.SendSuccess(c, "candidate rejected", candidate)
}

func (h *AdminCandidateHandler) invite(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.InviteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	invitation, err := h.invitations.Issue(actorContext(c), id, payload.ExpiryHours)
	if err != nil {
		return respondError(c, h.logger, err, "failed to issue invitation")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "invitation issued", invitation)
}

func (h *AdminCandidateHandler) score(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	breakdown, err := h.scoring.Preview(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to compute score")
	}
	return utils.SendSuccess(c, "score preview", breakdown)
}

func (h *AdminCandidateHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	breakdown, err := h.scoring.Finalize(actorContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to finalize assessment")
	}
	return utils.SendSuccess(c, "assessment finalized", breakdown)
}

func (h *AdminCandidateHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeResponseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	answer, err := h.scoring.GradeResponse(actorContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to grade response")
	}
	return utils.SendSuccess(c, "response graded", answer)
}

func (h *AdminCandidateHandler) suggest(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	suggestion, err := h.scoring.SuggestGrade(actorContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to suggest grade")
	}
	return utils.SendSuccess(c, "grade suggestion", suggestion)
}
