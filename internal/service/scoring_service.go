package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/observability"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/ai"
)

const pointsTolerance = 1e-9

// ScoringService grades responses and turns them into a final score and disposition.
type ScoringService interface {
	Preview(ctx context.Context, candidateID uint) (dto.ScoreBreakdown, error)
	Finalize(ctx context.Context, candidateID uint) (dto.ScoreBreakdown, error)
	GradeResponse(ctx context.Context, responseID uint, req dto.GradeResponseRequest) (dto.CandidateAnswerResponse, error)
	SuggestGrade(ctx context.Context, responseID uint) (dto.GradeSuggestionResponse, error)
}

type scoringService struct {
	programs   repository.ProgramRepository
	questions  repository.QuestionRepository
	candidates repository.CandidateRepository
	responses  repository.CandidateResponseRepository
	tx         repository.Transactor
	grader     ai.Grader
	notifier   CandidateNotifier
	recorder   transitionRecorder
	audit      AuditRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewScoringService constructs the scoring engine. grader may be nil.
func NewScoringService(
	programs repository.ProgramRepository,
	questions repository.QuestionRepository,
	candidates repository.CandidateRepository,
	responses repository.CandidateResponseRepository,
	tx repository.Transactor,
	grader ai.Grader,
	notifier CandidateNotifier,
	events EventPublisher,
	cache CacheInvalidator,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ScoringService {
	log := logger.With().Str("component", "scoring_service").Logger()
	return &scoringService{
		programs:   programs,
		questions:  questions,
		candidates: candidates,
		responses:  responses,
		tx:         tx,
		grader:     grader,
		notifier:   notifier,
		recorder:   transitionRecorder{events: events, cache: cache, logger: log},
		audit:      audit,
		validator:  validate,
		logger:     log,
		tracer:     otel.Tracer(tracerPrefix + "scoring"),
		now:        time.Now,
	}
}

// Preview computes the breakdown from stored responses without writing anything.
func (s *scoringService) Preview(ctx context.Context, candidateID uint) (dto.ScoreBreakdown, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.preview")
	defer span.End()
	span.SetAttributes(attribute.Int64("candidate.id", int64(candidateID)))

	candidate, breakdown, err := s.compute(ctx, candidateID)
	if err != nil {
		return dto.ScoreBreakdown{}, failSpan(span, err, "scoring failed")
	}
	breakdown.Finalized = candidate.Status == models.CandidateStatusPassed || candidate.Status == models.CandidateStatusFailed
	return breakdown, nil
}

// Finalize moves an in-progress candidate to completed with the final score and then to
// passed or failed, in one transaction. Every response must be graded first. Finalizing
// a candidate that already has a disposition returns the recomputed breakdown and writes
// nothing.
func (s *scoringService) Finalize(ctx context.Context, candidateID uint) (dto.ScoreBreakdown, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.finalize")
	defer span.End()
	span.SetAttributes(attribute.Int64("candidate.id", int64(candidateID)))

	candidate, breakdown, err := s.compute(ctx, candidateID)
	if err != nil {
		return dto.ScoreBreakdown{}, failSpan(span, err, "scoring failed")
	}

	switch candidate.Status {
	case models.CandidateStatusPassed, models.CandidateStatusFailed:
		breakdown.Finalized = true
		return breakdown, nil
	case models.CandidateStatusInProgress, models.CandidateStatusCompleted:
	default:
		return dto.ScoreBreakdown{}, failSpan(span, &InvalidTransitionError{From: candidate.Status, To: models.CandidateStatusCompleted}, "invalid transition")
	}

	if breakdown.Ungraded > 0 {
		return dto.ScoreBreakdown{}, failSpan(span, fmt.Errorf("%d %w", breakdown.Ungraded, ErrGradingIncomplete), "grading incomplete")
	}

	now := s.now().UTC()
	finalScore := breakdown.WeightedScore
	disposition := breakdown.Disposition
	from := candidate.Status

	err = s.tx.WithinTransaction(ctx, func(tx repository.TxRepositories) error {
		current := candidate
		if current.Status == models.CandidateStatusInProgress {
			updates := map[string]interface{}{"completed_at": now, "final_score": finalScore}
			if err := transitionCandidate(ctx, tx.Candidates, current, models.CandidateStatusCompleted, updates); err != nil {
				return err
			}
			current.Status = models.CandidateStatusCompleted
		}
		return transitionCandidate(ctx, tx.Candidates, current, disposition, nil)
	})
	if err != nil {
		return dto.ScoreBreakdown{}, failSpan(span, err, "finalize failed")
	}

	observability.AssessmentsScored().WithLabelValues(string(disposition)).Inc()
	candidate.FinalScore = &finalScore
	candidate.CompletedAt = &now
	if from == models.CandidateStatusInProgress {
		s.recorder.record(ctx, candidate, from, models.CandidateStatusCompleted, &finalScore)
	}
	candidate.Status = disposition
	s.recorder.record(ctx, candidate, models.CandidateStatusCompleted, disposition, &finalScore)

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Action:      AuditCandidateFinalized,
		EntityType:  "candidate",
		EntityID:    uintPtr(candidate.ID),
		CandidateID: uintPtr(candidate.ID),
		Metadata:    map[string]interface{}{"final_score": finalScore, "disposition": string(disposition)},
	})

	template := models.TemplateAssessmentFailed
	if disposition == models.CandidateStatusPassed {
		template = models.TemplateAssessmentPassed
	}
	notifyBestEffort(ctx, s.notifier, s.logger, template, candidate, map[string]string{
		PlaceholderScore: fmt.Sprintf("%.2f", finalScore),
	})

	s.logger.Info().
		Uint("candidate_id", candidate.ID).
		Float64("final_score", finalScore).
		Str("disposition", string(disposition)).
		Msg("assessment finalized")

	breakdown.Finalized = true
	return breakdown, nil
}

// GradeResponse records reviewer points for one response. Points may not exceed the
// question's value and grading is closed once the candidate has a disposition.
func (s *scoringService) GradeResponse(ctx context.Context, responseID uint, req dto.GradeResponseRequest) (dto.CandidateAnswerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.grade_response")
	defer span.End()
	span.SetAttributes(attribute.Int64("response.id", int64(responseID)))

	if err := s.validator.Struct(req); err != nil {
		return dto.CandidateAnswerResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	response, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return dto.CandidateAnswerResponse{}, failSpan(span, storeError(err, ErrResponseNotFound, nil), "lookup failed")
	}

	candidate, err := s.candidates.GetByID(ctx, response.CandidateID)
	if err != nil {
		return dto.CandidateAnswerResponse{}, failSpan(span, storeError(err, ErrCandidateNotFound, nil), "lookup failed")
	}
	if candidate.Status == models.CandidateStatusCompleted || candidate.Status.Terminal() {
		return dto.CandidateAnswerResponse{}, failSpan(span, ErrAlreadyFinalized, "grading closed")
	}

	points := *req.Points
	if points > response.Question.Points+pointsTolerance {
		return dto.CandidateAnswerResponse{}, failSpan(span, FieldError("points", fmt.Sprintf("must not exceed %.2f", response.Question.Points)), "validation failed")
	}

	grade := repository.ResponseGrade{
		Points:   points,
		Note:     strings.TrimSpace(req.Note),
		GradedAt: s.now().UTC(),
	}
	if actor, ok := ActorFromContext(ctx); ok && actor.ID > 0 {
		grade.GradedBy = uintPtr(actor.ID)
	}

	if err := s.responses.Grade(ctx, responseID, grade); err != nil {
		return dto.CandidateAnswerResponse{}, failSpan(span, storeError(err, ErrResponseNotFound, nil), "grade failed")
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Action:      AuditResponseGraded,
		EntityType:  "candidate_response",
		EntityID:    uintPtr(responseID),
		CandidateID: uintPtr(response.CandidateID),
		Metadata:    map[string]interface{}{"points": points, "max_points": response.Question.Points},
	})

	updated, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return dto.CandidateAnswerResponse{}, failSpan(span, storeError(err, ErrResponseNotFound, nil), "reload failed")
	}
	return dto.NewCandidateAnswerResponse(updated), nil
}

// SuggestGrade asks the grading assistant for points on an open-ended answer and stores
// the suggestion next to the response. The suggestion never counts towards the score.
func (s *scoringService) SuggestGrade(ctx context.Context, responseID uint) (dto.GradeSuggestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.suggest_grade")
	defer span.End()
	span.SetAttributes(attribute.Int64("response.id", int64(responseID)))

	if s.grader == nil {
		return dto.GradeSuggestionResponse{}, failSpan(span, ErrGraderUnavailable, "grader unavailable")
	}

	response, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return dto.GradeSuggestionResponse{}, failSpan(span, storeError(err, ErrResponseNotFound, nil), "lookup failed")
	}

	question := response.Question
	if question.Type.AnswerKind().AutoGradable() {
		return dto.GradeSuggestionResponse{}, failSpan(span, ErrNotGradable, "not gradable")
	}

	translation, _ := models.ResolveTranslation(question.Translations, response.LanguageCode, "en")
	suggestion, err := s.grader.Suggest(ctx, ai.GradingInput{
		QuestionType:    string(question.Type),
		QuestionText:    translation.Text,
		ReferenceAnswer: translation.CorrectAnswer,
		Explanation:     translation.Explanation,
		CandidateAnswer: response.Answer,
		LanguageCode:    response.LanguageCode,
		MaxPoints:       question.Points,
	})
	if err != nil {
		return dto.GradeSuggestionResponse{}, failSpan(span, err, "assistant failed")
	}

	points := suggestion.Points
	if points < 0 {
		points = 0
	}
	if points > question.Points {
		points = question.Points
	}

	if err := s.responses.SaveSuggestion(ctx, responseID, points, suggestion.Rationale); err != nil {
		return dto.GradeSuggestionResponse{}, failSpan(span, storeError(err, ErrResponseNotFound, nil), "persist failed")
	}

	return dto.GradeSuggestionResponse{
		ResponseID: responseID,
		Points:     points,
		MaxPoints:  question.Points,
		Rationale:  suggestion.Rationale,
	}, nil
}

func (s *scoringService) compute(ctx context.Context, candidateID uint) (models.Candidate, dto.ScoreBreakdown, error) {
	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return models.Candidate{}, dto.ScoreBreakdown{}, storeError(err, ErrCandidateNotFound, nil)
	}

	stages, err := s.programs.ListStages(ctx, candidate.ProgramID)
	if err != nil {
		return models.Candidate{}, dto.ScoreBreakdown{}, err
	}

	stageIDs := make([]uint, 0, len(stages))
	for _, stage := range stages {
		stageIDs = append(stageIDs, stage.ID)
	}
	questions, err := s.questions.ListByStages(ctx, stageIDs)
	if err != nil {
		return models.Candidate{}, dto.ScoreBreakdown{}, err
	}

	responses, err := s.responses.ListByCandidate(ctx, candidateID)
	if err != nil {
		return models.Candidate{}, dto.ScoreBreakdown{}, err
	}

	breakdown := ComputeScore(stages, questions, responses)
	breakdown.CandidateID = candidateID
	return candidate, breakdown, nil
}

// ComputeScore aggregates graded responses into per-stage percentages, the weighted final
// score and the disposition. Only enabled stages and enabled questions count. A stage is
// attempted when the candidate answered at least one of its questions; unanswered
// questions of an attempted stage earn nothing.
//
// The weighted score divides by the weights of attempted stages only. The candidate passes
// when every attempted stage meets its own threshold and the weighted score meets the
// weight-averaged threshold of those stages. With no attempted stage the score is 0 and the
// candidate fails. Ungraded responses count as zero here and are reported in Ungraded.
func ComputeScore(stages []models.Stage, questions []models.Question, responses []models.CandidateResponse) dto.ScoreBreakdown {
	ordered := make([]models.Stage, 0, len(stages))
	for _, stage := range stages {
		if stage.Enabled {
			ordered = append(ordered, stage)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].StageNumber < ordered[j].StageNumber
	})

	available := make(map[uint]float64)
	questionStage := make(map[uint]uint)
	for _, question := range questions {
		if !question.Enabled {
			continue
		}
		available[question.StageID] += question.Points
		questionStage[question.ID] = question.StageID
	}

	earned := make(map[uint]float64)
	attempted := make(map[uint]bool)
	ungraded := make(map[uint]int)
	for _, response := range responses {
		stageID, ok := questionStage[response.QuestionID]
		if !ok {
			continue
		}
		attempted[stageID] = true
		if !response.IsGraded() {
			ungraded[stageID]++
			continue
		}
		earned[stageID] += *response.PointsAwarded
	}

	breakdown := dto.ScoreBreakdown{
		Stages:        make([]dto.StageScore, 0, len(ordered)),
		AllStagesPass: true,
		Disposition:   models.CandidateStatusFailed,
	}

	var (
		weightSum, weightedSum, thresholdSum float64
		plainSum, plainThreshold             float64
		attemptedCount                       int
	)
	for _, stage := range ordered {
		score := 0.0
		if available[stage.ID] > 0 {
			score = earned[stage.ID] / available[stage.ID] * 100
		}

		result := dto.StageScore{
			StageID:          stage.ID,
			StageNumber:      stage.StageNumber,
			Name:             stage.Name,
			WeightPercentage: stage.WeightPercentage,
			PassingThreshold: stage.PassingThreshold,
			PointsEarned:     round2(earned[stage.ID]),
			PointsAvailable:  round2(available[stage.ID]),
			Score:            round2(score),
			Attempted:        attempted[stage.ID],
			Ungraded:         ungraded[stage.ID],
		}
		breakdown.Ungraded += ungraded[stage.ID]

		if result.Attempted {
			attemptedCount++
			result.Passed = stage.Passes(score)
			if !result.Passed {
				breakdown.AllStagesPass = false
			}
			weightSum += stage.WeightPercentage
			weightedSum += score * stage.WeightPercentage
			thresholdSum += stage.PassingThreshold * stage.WeightPercentage
			plainSum += score
			plainThreshold += stage.PassingThreshold
		}
		breakdown.Stages = append(breakdown.Stages, result)
	}

	if attemptedCount == 0 {
		breakdown.AllStagesPass = false
		return breakdown
	}

	var weighted, bar float64
	if weightSum > 0 {
		weighted = weightedSum / weightSum
		bar = thresholdSum / weightSum
	} else {
		weighted = plainSum / float64(attemptedCount)
		bar = plainThreshold / float64(attemptedCount)
	}

	breakdown.WeightedScore = round2(weighted)
	breakdown.PassBar = round2(bar)
	if breakdown.AllStagesPass && weighted+pointsTolerance >= bar {
		breakdown.Disposition = models.CandidateStatusPassed
	}
	return breakdown
}

// autoGrade scores answers whose correctness follows from the answer key. Free-text
// kinds, and keyed kinds without a key in the resolved translation, are left for a
// reviewer.
func autoGrade(question models.Question, translation models.QuestionTranslation, answer string, selections []string) (float64, bool) {
	switch question.Type.AnswerKind() {
	case models.AnswerMultipleChoice:
		if strings.TrimSpace(translation.CorrectAnswer) == "" {
			return 0, false
		}
		given := answer
		if strings.TrimSpace(given) == "" && len(selections) == 1 {
			given = selections[0]
		}
		if normalizeAnswer(given) == normalizeAnswer(translation.CorrectAnswer) {
			return question.Points, true
		}
		return 0, true

	case models.AnswerTrueFalse:
		if strings.TrimSpace(translation.CorrectAnswer) == "" {
			return 0, false
		}
		given := answer
		if strings.TrimSpace(given) == "" && len(selections) == 1 {
			given = selections[0]
		}
		if normalizeBool(given) == normalizeBool(translation.CorrectAnswer) {
			return question.Points, true
		}
		return 0, true

	case models.AnswerRanking:
		expected := []string(translation.Options)
		if len(expected) < 2 {
			return 0, false
		}
		if len(selections) != len(expected) {
			return 0, true
		}
		for i := range expected {
			if normalizeAnswer(selections[i]) != normalizeAnswer(expected[i]) {
				return 0, true
			}
		}
		return question.Points, true

	default:
		return 0, false
	}
}

func normalizeBool(value string) string {
	switch normalized := normalizeAnswer(value); normalized {
	case "true", "t", "yes", "y", "1":
		return "true"
	case "false", "f", "no", "n", "0":
		return "false"
	default:
		return normalized
	}
}
