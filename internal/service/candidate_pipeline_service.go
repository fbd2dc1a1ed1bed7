package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// CandidatePipelineService drives candidates through intake, review and the assessment run.
type CandidatePipelineService interface {
	Apply(ctx context.Context, programSlug string, req dto.ApplicationRequest) (dto.ApplicationResponse, error)
	List(ctx context.Context, req dto.CandidateListRequest) (dto.CandidateListResponse, error)
	Get(ctx context.Context, id uint) (dto.CandidateResponse, error)
	ListResponses(ctx context.Context, id uint) ([]dto.CandidateAnswerResponse, error)
	UpdateNotes(ctx context.Context, id uint, req dto.UpdateNotesRequest) (dto.CandidateResponse, error)
	Shortlist(ctx context.Context, id uint) (dto.CandidateResponse, error)
	Reject(ctx context.Context, id uint) (dto.CandidateResponse, error)
	OpenAssessment(ctx context.Context, programSlug, token, lang string) (dto.AssessmentSessionResponse, error)
	StartAssessment(ctx context.Context, programSlug, token, lang string) (dto.AssessmentSessionResponse, error)
	SubmitResponses(ctx context.Context, programSlug, token string, req dto.SubmitResponsesRequest) (dto.SubmitResponsesResponse, error)
}

type candidatePipelineService struct {
	programs    repository.ProgramRepository
	questions   repository.QuestionRepository
	candidates  repository.CandidateRepository
	responses   repository.CandidateResponseRepository
	tx          repository.Transactor
	invitations InvitationService
	outline     QuestionBankService
	content     ContentService
	notifier    CandidateNotifier
	recorder    transitionRecorder
	audit       AuditRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCandidatePipelineService constructs the candidate pipeline.
func NewCandidatePipelineService(
	programs repository.ProgramRepository,
	questions repository.QuestionRepository,
	candidates repository.CandidateRepository,
	responses repository.CandidateResponseRepository,
	tx repository.Transactor,
	invitations InvitationService,
	outline QuestionBankService,
	content ContentService,
	notifier CandidateNotifier,
	events EventPublisher,
	cache CacheInvalidator,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) CandidatePipelineService {
	log := logger.With().Str("component", "candidate_pipeline_service").Logger()
	return &candidatePipelineService{
		programs:    programs,
		questions:   questions,
		candidates:  candidates,
		responses:   responses,
		tx:          tx,
		invitations: invitations,
		outline:     outline,
		content:     content,
		notifier:    notifier,
		recorder:    transitionRecorder{events: events, cache: cache, logger: log},
		audit:       audit,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      log,
		tracer:      otel.Tracer(tracerPrefix + "candidate_pipeline"),
		now:         time.Now,
	}
}

// Apply records a self-submitted application against the active program with the given slug.
func (s *candidatePipelineService) Apply(ctx context.Context, programSlug string, req dto.ApplicationRequest) (dto.ApplicationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "candidate.apply")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.ApplicationResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	program, err := s.activeProgram(ctx, programSlug)
	if err != nil {
		return dto.ApplicationResponse{}, failSpan(span, err, "program lookup failed")
	}
	settings := program.Config()

	linkedIn := strings.TrimSpace(req.LinkedInURL)
	if settings.RequireLinkedIn && linkedIn == "" {
		return dto.ApplicationResponse{}, failSpan(span, FieldError("linkedin_url", "is required for this program"), "validation failed")
	}
	if linkedIn != "" && !isLinkedInURL(linkedIn) {
		return dto.ApplicationResponse{}, failSpan(span, FieldError("linkedin_url", "must be a linkedin.com profile URL"), "validation failed")
	}

	language := settings.DefaultLanguage()
	if req.PreferredLanguage != "" {
		code, _ := utils.NormalizeLanguage(req.PreferredLanguage)
		if !settings.SupportsLanguage(code) {
			return dto.ApplicationResponse{}, failSpan(span, FieldError("preferred_language", "is not offered by this program"), "validation failed")
		}
		language = code
	}

	fullName := s.clean(req.FullName)
	if fullName == "" {
		return dto.ApplicationResponse{}, failSpan(span, FieldError("full_name", "is empty after sanitization"), "validation failed")
	}

	candidate := models.Candidate{
		ProgramID:         program.ID,
		FullName:          fullName,
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		LinkedInURL:       linkedIn,
		Country:           s.clean(req.Country),
		City:              s.clean(req.City),
		Background:        s.clean(req.Background),
		AreaOfInterest:    s.clean(req.AreaOfInterest),
		PreferredLanguage: language,
		Status:            models.CandidateStatusPending,
	}

	if err := s.candidates.Create(ctx, &candidate); err != nil {
		return dto.ApplicationResponse{}, failSpan(span, storeError(err, nil, ErrDuplicateCandidate), "persistence failed")
	}
	span.SetAttributes(attribute.Int64("candidate.id", int64(candidate.ID)))

	s.recorder.invalidate(ctx)
	s.recorder.publish(ctx, SubjectStatusChanged, PipelineEvent{
		CandidateID: candidate.ID,
		ProgramID:   candidate.ProgramID,
		To:          models.CandidateStatusPending,
	})

	queued := notifyBestEffort(ctx, s.notifier, s.logger, models.TemplateApplicationReceived, candidate, nil)
	s.logger.Info().Uint("candidate_id", candidate.ID).Str("email", maskEmailAddress(candidate.Email)).Msg("application received")

	return dto.ApplicationResponse{CandidateID: candidate.ID, Status: candidate.Status, EmailQueued: queued}, nil
}

func (s *candidatePipelineService) List(ctx context.Context, req dto.CandidateListRequest) (dto.CandidateListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CandidateListResponse{}, validationFailure(err)
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	language := ""
	if req.Language != "" {
		language, _ = utils.NormalizeLanguage(req.Language)
	}

	candidates, total, err := s.candidates.List(ctx, repository.CandidateFilter{
		ProgramID:      req.ProgramID,
		Status:         req.Status,
		Country:        strings.TrimSpace(req.Country),
		AreaOfInterest: strings.TrimSpace(req.AreaOfInterest),
		Language:       language,
		Search:         strings.TrimSpace(req.Search),
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		return dto.CandidateListResponse{}, err
	}

	items := make([]dto.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, dto.NewCandidateResponse(candidate))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return dto.CandidateListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *candidatePipelineService) Get(ctx context.Context, id uint) (dto.CandidateResponse, error) {
	candidate, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		return dto.CandidateResponse{}, storeError(err, ErrCandidateNotFound, nil)
	}
	return dto.NewCandidateResponse(candidate), nil
}

func (s *candidatePipelineService) ListResponses(ctx context.Context, id uint) ([]dto.CandidateAnswerResponse, error) {
	if _, err := s.candidates.GetByID(ctx, id); err != nil {
		return nil, storeError(err, ErrCandidateNotFound, nil)
	}

	responses, err := s.responses.ListByCandidate(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CandidateAnswerResponse, 0, len(responses))
	for _, response := range responses {
		items = append(items, dto.NewCandidateAnswerResponse(response))
	}
	return items, nil
}

func (s *candidatePipelineService) UpdateNotes(ctx context.Context, id uint, req dto.UpdateNotesRequest) (dto.CandidateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CandidateResponse{}, validationFailure(err)
	}
	if err := s.candidates.UpdateNotes(ctx, id, strings.TrimSpace(req.Notes)); err != nil {
		return dto.CandidateResponse{}, storeError(err, ErrCandidateNotFound, nil)
	}
	return s.Get(ctx, id)
}

func (s *candidatePipelineService) Shortlist(ctx context.Context, id uint) (dto.CandidateResponse, error) {
	return s.decide(ctx, id, models.CandidateStatusShortlisted, "")
}

// Reject ends the candidate's pipeline and sends the rejection email best effort.
func (s *candidatePipelineService) Reject(ctx context.Context, id uint) (dto.CandidateResponse, error) {
	return s.decide(ctx, id, models.CandidateStatusRejected, models.TemplateApplicationRejected)
}

func (s *candidatePipelineService) decide(ctx context.Context, id uint, to models.CandidateStatus, template string) (dto.CandidateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "candidate.decide")
	defer span.End()
	span.SetAttributes(attribute.Int64("candidate.id", int64(id)), attribute.String("candidate.to", string(to)))

	candidate, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		return dto.CandidateResponse{}, failSpan(span, storeError(err, ErrCandidateNotFound, nil), "lookup failed")
	}

	from := candidate.Status
	if err := transitionCandidate(ctx, s.candidates, candidate, to, nil); err != nil {
		return dto.CandidateResponse{}, failSpan(span, err, "transition failed")
	}
	candidate.Status = to
	s.recorder.record(ctx, candidate, from, to, nil)
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Action:      AuditCandidateDecided,
		EntityType:  "candidate",
		EntityID:    uintPtr(candidate.ID),
		CandidateID: uintPtr(candidate.ID),
		Metadata:    map[string]interface{}{"from": string(from), "to": string(to)},
	})

	if template != "" {
		notifyBestEffort(ctx, s.notifier, s.logger, template, candidate, nil)
	}

	return s.Get(ctx, id)
}

// OpenAssessment validates the token and returns the candidate-facing assessment without
// recording anything.
func (s *candidatePipelineService) OpenAssessment(ctx context.Context, programSlug, token, lang string) (dto.AssessmentSessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "candidate.open_assessment")
	defer span.End()

	validation, candidate, program, err := s.resolveLink(ctx, programSlug, token)
	if err != nil {
		return dto.AssessmentSessionResponse{}, failSpan(span, err, "link rejected")
	}
	return s.session(ctx, program, candidate, lang, validation.ExpiresAt)
}

// StartAssessment records an attempt on the link and moves an invited candidate to
// in_progress. Candidates already in progress resume; each start counts against the
// program's attempt cap.
func (s *candidatePipelineService) StartAssessment(ctx context.Context, programSlug, token, lang string) (dto.AssessmentSessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "candidate.start_assessment")
	defer span.End()

	validation, candidate, program, err := s.resolveLink(ctx, programSlug, token)
	if err != nil {
		return dto.AssessmentSessionResponse{}, failSpan(span, err, "link rejected")
	}

	from := candidate.Status
	if from != models.CandidateStatusInvited && from != models.CandidateStatusInProgress {
		return dto.AssessmentSessionResponse{}, failSpan(span, &InvalidTransitionError{From: from, To: models.CandidateStatusInProgress}, "invalid transition")
	}

	now := s.now().UTC()
	err = s.tx.WithinTransaction(ctx, func(tx repository.TxRepositories) error {
		if err := tx.Links.RecordAttempt(ctx, validation.LinkID, now, program.Config().MaxAttempts); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrAttemptsExhausted
			}
			return err
		}
		if from == models.CandidateStatusInProgress {
			return nil
		}
		return transitionCandidate(ctx, tx.Candidates, candidate, models.CandidateStatusInProgress, map[string]interface{}{"started_at": now})
	})
	if err != nil {
		return dto.AssessmentSessionResponse{}, failSpan(span, storeError(err, ErrCandidateNotFound, nil), "start failed")
	}

	if from == models.CandidateStatusInvited {
		candidate.Status = models.CandidateStatusInProgress
		candidate.StartedAt = &now
		s.recorder.record(ctx, candidate, from, models.CandidateStatusInProgress, nil)
		s.logger.Info().Uint("candidate_id", candidate.ID).Str("token", maskToken(token)).Msg("assessment started")
	}

	return s.session(ctx, program, candidate, lang, validation.ExpiresAt)
}

// SubmitResponses stores answers for an in-progress assessment. Answers to choice,
// boolean and ranking questions are graded immediately; free-text answers wait for a
// reviewer. Resubmitting a question replaces the earlier answer and its grade.
func (s *candidatePipelineService) SubmitResponses(ctx context.Context, programSlug, token string, req dto.SubmitResponsesRequest) (dto.SubmitResponsesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "candidate.submit_responses")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.SubmitResponsesResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	_, candidate, program, err := s.resolveLink(ctx, programSlug, token)
	if err != nil {
		return dto.SubmitResponsesResponse{}, failSpan(span, err, "link rejected")
	}
	if candidate.Status != models.CandidateStatusInProgress {
		return dto.SubmitResponsesResponse{}, failSpan(span, ErrAssessmentNotActive, "assessment not active")
	}

	language := candidate.PreferredLanguage
	if code, ok := utils.NormalizeLanguage(req.Language); ok {
		language = code
	}

	questions, err := s.enabledQuestions(ctx, program.ID)
	if err != nil {
		return dto.SubmitResponsesResponse{}, failSpan(span, err, "question lookup failed")
	}

	result := dto.SubmitResponsesResponse{}
	records := make([]models.CandidateResponse, 0, len(req.Answers))
	seen := make(map[uint]struct{}, len(req.Answers))
	for _, answer := range req.Answers {
		question, ok := questions[answer.QuestionID]
		if !ok {
			return dto.SubmitResponsesResponse{}, failSpan(span, FieldError("answers.question_id", "references a question outside this assessment"), "validation failed")
		}
		if _, dup := seen[answer.QuestionID]; dup {
			return dto.SubmitResponsesResponse{}, failSpan(span, FieldError("answers.question_id", "is repeated"), "validation failed")
		}
		seen[answer.QuestionID] = struct{}{}

		translation, _ := models.ResolveTranslation(question.Translations, language, program.Config().DefaultLanguage(), "en")
		record := models.CandidateResponse{
			CandidateID:  candidate.ID,
			QuestionID:   question.ID,
			StageID:      question.StageID,
			LanguageCode: language,
			Answer:       strings.TrimSpace(s.sanitizer.Sanitize(answer.Answer)),
			Selections:   datatypes.JSONSlice[string](trimAll(answer.Selections)),
		}

		if points, graded := autoGrade(question, translation, record.Answer, record.Selections); graded {
			now := s.now().UTC()
			record.PointsAwarded = &points
			record.AutoGraded = true
			record.GradedAt = &now
			result.AutoGraded++
		} else {
			result.PendingReview++
		}
		records = append(records, record)
	}

	if err := s.responses.Upsert(ctx, records); err != nil {
		return dto.SubmitResponsesResponse{}, failSpan(span, err, "persistence failed")
	}
	result.Stored = len(records)

	s.logger.Info().
		Uint("candidate_id", candidate.ID).
		Int("stored", result.Stored).
		Int("auto_graded", result.AutoGraded).
		Msg("assessment responses stored")
	return result, nil
}

func (s *candidatePipelineService) resolveLink(ctx context.Context, programSlug, token string) (dto.LinkValidation, models.Candidate, models.Program, error) {
	validation, err := s.invitations.Validate(ctx, token)
	if err != nil {
		return dto.LinkValidation{}, models.Candidate{}, models.Program{}, err
	}

	program, err := s.programs.GetBySlug(ctx, strings.TrimSpace(programSlug))
	if err != nil {
		return dto.LinkValidation{}, models.Candidate{}, models.Program{}, storeError(err, ErrProgramMismatch, nil)
	}
	if program.ID != validation.ProgramID {
		return dto.LinkValidation{}, models.Candidate{}, models.Program{}, ErrProgramMismatch
	}

	candidate, err := s.candidates.GetByID(ctx, validation.CandidateID)
	if err != nil {
		return dto.LinkValidation{}, models.Candidate{}, models.Program{}, storeError(err, ErrLinkNotFound, nil)
	}
	return validation, candidate, program, nil
}

func (s *candidatePipelineService) session(ctx context.Context, program models.Program, candidate models.Candidate, lang string, expiresAt time.Time) (dto.AssessmentSessionResponse, error) {
	lang = utils.MatchLanguage(lang, program.Config().SupportedLanguages, candidate.PreferredLanguage)

	outline, err := s.outline.GetOutline(ctx, program.ID, lang, true)
	if err != nil {
		return dto.AssessmentSessionResponse{}, err
	}

	disclaimer, err := s.content.Resolve(ctx, DisclaimerContentKey, outline.Language)
	if err != nil && !errors.Is(err, ErrContentNotFound) {
		return dto.AssessmentSessionResponse{}, err
	}

	return dto.AssessmentSessionResponse{
		CandidateName: candidate.FullName,
		Status:        candidate.Status,
		ExpiresAt:     expiresAt,
		Disclaimer:    disclaimer,
		Outline:       outline,
	}, nil
}

func (s *candidatePipelineService) activeProgram(ctx context.Context, slug string) (models.Program, error) {
	program, err := s.programs.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return models.Program{}, storeError(err, ErrProgramNotFound, nil)
	}
	if !program.IsActive {
		return models.Program{}, ErrProgramNotFound
	}
	return program, nil
}

func (s *candidatePipelineService) enabledQuestions(ctx context.Context, programID uint) (map[uint]models.Question, error) {
	stages, err := s.programs.ListStages(ctx, programID)
	if err != nil {
		return nil, err
	}

	stageIDs := make([]uint, 0, len(stages))
	for _, stage := range stages {
		if stage.Enabled {
			stageIDs = append(stageIDs, stage.ID)
		}
	}

	questions, err := s.questions.ListByStages(ctx, stageIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		if question.Enabled {
			byID[question.ID] = question
		}
	}
	return byID, nil
}

func (s *candidatePipelineService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(strings.TrimSpace(value)))
}

// transitionCandidate moves candidate to the next status if the state machine allows it
// and the stored status still matches. A rejected edge leaves the row untouched.
func transitionCandidate(ctx context.Context, repo repository.CandidateRepository, candidate models.Candidate, to models.CandidateStatus, updates map[string]interface{}) error {
	if !candidate.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{From: candidate.Status, To: to}
	}

	if err := repo.TransitionStatus(ctx, candidate.ID, candidate.Status, to, updates); err != nil {
		return storeError(err, ErrCandidateNotFound, nil)
	}
	return nil
}

func isLinkedInURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			trimmed = append(trimmed, value)
		}
	}
	return trimmed
}
