package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
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

var defaultBooleanOptions = []string{"true", "false"}

// QuestionBankService edits questions and resolves the localized assessment outline.
type QuestionBankService interface {
	ListQuestions(ctx context.Context, stageID uint) ([]dto.QuestionResponse, error)
	CreateQuestion(ctx context.Context, stageID uint, cmd dto.CreateQuestionCommand) (dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, id uint, cmd dto.UpdateQuestionCommand) (dto.QuestionResponse, error)
	UpsertTranslation(ctx context.Context, questionID uint, cmd dto.UpsertQuestionTranslationCommand) (dto.QuestionResponse, error)
	GetOutline(ctx context.Context, programID uint, lang string, forCandidate bool) (dto.OutlineResponse, error)
}

type questionBankService struct {
	programs  repository.ProgramRepository
	repo      repository.QuestionRepository
	validator *validator.Validate
	settings  PipelineSettings
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewQuestionBankService constructs the question bank service.
func NewQuestionBankService(programs repository.ProgramRepository, repo repository.QuestionRepository, validate *validator.Validate, settings PipelineSettings, logger zerolog.Logger) QuestionBankService {
	return &questionBankService{
		programs:  programs,
		repo:      repo,
		validator: validate,
		settings:  settings,
		logger:    logger.With().Str("component", "question_bank_service").Logger(),
		tracer:    otel.Tracer(tracerPrefix + "question_bank"),
	}
}

func (s *questionBankService) ListQuestions(ctx context.Context, stageID uint) ([]dto.QuestionResponse, error) {
	if _, err := s.programs.GetStage(ctx, stageID); err != nil {
		return nil, storeError(err, ErrStageNotFound, nil)
	}

	questions, err := s.repo.ListByStages(ctx, []uint{stageID})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, dto.NewQuestionResponse(question))
	}
	return responses, nil
}

func (s *questionBankService) CreateQuestion(ctx context.Context, stageID uint, cmd dto.CreateQuestionCommand) (dto.QuestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "question.create")
	defer span.End()
	span.SetAttributes(attribute.Int64("stage.id", int64(stageID)))

	if err := s.validator.Struct(cmd); err != nil {
		return dto.QuestionResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	if _, err := s.programs.GetStage(ctx, stageID); err != nil {
		return dto.QuestionResponse{}, failSpan(span, storeError(err, ErrStageNotFound, nil), "lookup failed")
	}

	question := models.Question{
		StageID: stageID,
		Type:    cmd.Type,
		Points:  cmd.Points,
		Enabled: boolValue(cmd.Enabled, true),
		Order:   cmd.Order,
	}

	seen := make(map[string]struct{}, len(cmd.Translations))
	for _, payload := range cmd.Translations {
		translation, err := buildQuestionTranslation(cmd.Type, payload)
		if err != nil {
			return dto.QuestionResponse{}, failSpan(span, err, "validation failed")
		}
		if _, dup := seen[translation.LanguageCode]; dup {
			return dto.QuestionResponse{}, failSpan(span, FieldError("translations", "repeat language "+translation.LanguageCode), "validation failed")
		}
		seen[translation.LanguageCode] = struct{}{}
		question.Translations = append(question.Translations, translation)
	}

	err := withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Create(ctx, &question)
	})
	if err != nil {
		return dto.QuestionResponse{}, failSpan(span, storeError(err, nil, nil), "persistence failed")
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionBankService) UpdateQuestion(ctx context.Context, id uint, cmd dto.UpdateQuestionCommand) (dto.QuestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "question.update")
	defer span.End()
	span.SetAttributes(attribute.Int64("question.id", int64(id)))

	if err := s.validator.Struct(cmd); err != nil {
		return dto.QuestionResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.QuestionResponse{}, failSpan(span, storeError(err, ErrQuestionNotFound, nil), "lookup failed")
	}

	// A type change must keep every stored translation valid for the new answer kind.
	if cmd.Type != question.Type {
		for _, translation := range question.Translations {
			payload := dto.QuestionTranslationPayload{
				LanguageCode:  translation.LanguageCode,
				Text:          translation.Text,
				Options:       []string(translation.Options),
				CorrectAnswer: translation.CorrectAnswer,
			}
			if _, err := buildQuestionTranslation(cmd.Type, payload); err != nil {
				return dto.QuestionResponse{}, failSpan(span, err, "validation failed")
			}
		}
	}

	question.Type = cmd.Type
	question.Points = cmd.Points
	question.Enabled = cmd.Enabled
	question.Order = cmd.Order

	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Update(ctx, &question)
	})
	if err != nil {
		return dto.QuestionResponse{}, failSpan(span, storeError(err, ErrQuestionNotFound, nil), "persistence failed")
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionBankService) UpsertTranslation(ctx context.Context, questionID uint, cmd dto.UpsertQuestionTranslationCommand) (dto.QuestionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "question.upsert_translation")
	defer span.End()
	span.SetAttributes(attribute.Int64("question.id", int64(questionID)))

	if err := s.validator.Struct(cmd); err != nil {
		return dto.QuestionResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	question, err := s.repo.GetByID(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, failSpan(span, storeError(err, ErrQuestionNotFound, nil), "lookup failed")
	}

	translation, err := buildQuestionTranslation(question.Type, cmd.QuestionTranslationPayload)
	if err != nil {
		return dto.QuestionResponse{}, failSpan(span, err, "validation failed")
	}
	translation.QuestionID = question.ID

	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.UpsertTranslation(ctx, &translation)
	})
	if err != nil {
		return dto.QuestionResponse{}, failSpan(span, storeError(err, ErrQuestionNotFound, nil), "persistence failed")
	}

	updated, err := s.repo.GetByID(ctx, questionID)
	if err != nil {
		return dto.QuestionResponse{}, storeError(err, ErrQuestionNotFound, nil)
	}
	return dto.NewQuestionResponse(updated), nil
}

// GetOutline returns the enabled stages of a program in display order, each with its
// enabled questions resolved into lang. Missing translations fall back to the program's
// default language, then to the first available one; every question reports which
// happened. Candidate outlines omit answer keys.
func (s *questionBankService) GetOutline(ctx context.Context, programID uint, lang string, forCandidate bool) (dto.OutlineResponse, error) {
	ctx, span := s.tracer.Start(ctx, "question.outline")
	defer span.End()

	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return dto.OutlineResponse{}, failSpan(span, storeError(err, ErrProgramNotFound, nil), "lookup failed")
	}

	settings := program.Config()
	requested, ok := utils.NormalizeLanguage(lang)
	if !ok {
		requested = settings.DefaultLanguage()
	}
	span.SetAttributes(attribute.String("outline.language", requested))

	stages, err := s.programs.ListStages(ctx, programID)
	if err != nil {
		return dto.OutlineResponse{}, failSpan(span, err, "list stages failed")
	}

	enabled := make([]models.Stage, 0, len(stages))
	stageIDs := make([]uint, 0, len(stages))
	for _, stage := range stages {
		if stage.Enabled {
			enabled = append(enabled, stage)
			stageIDs = append(stageIDs, stage.ID)
		}
	}

	questions, err := s.repo.ListByStages(ctx, stageIDs)
	if err != nil {
		return dto.OutlineResponse{}, failSpan(span, err, "list questions failed")
	}

	outline := buildOutline(program, enabled, questions, requested, forCandidate)
	if outline.FellBack > 0 || outline.Missing > 0 {
		s.logger.Debug().
			Uint("program_id", programID).
			Str("language", requested).
			Int("fell_back", outline.FellBack).
			Int("missing", outline.Missing).
			Msg("outline served with substituted translations")
	}
	return outline, nil
}

func buildOutline(program models.Program, stages []models.Stage, questions []models.Question, lang string, forCandidate bool) dto.OutlineResponse {
	byStage := make(map[uint][]models.Question, len(stages))
	for _, question := range questions {
		if question.Enabled {
			byStage[question.StageID] = append(byStage[question.StageID], question)
		}
	}

	fallbacks := []string{program.Config().DefaultLanguage()}
	if fallbacks[0] != "en" {
		fallbacks = append(fallbacks, "en")
	}

	outline := dto.OutlineResponse{
		ProgramID:    program.ID,
		ProgramSlug:  program.Slug,
		Language:     lang,
		Stages:       make([]dto.OutlineStage, 0, len(stages)),
		ForCandidate: forCandidate,
	}

	for _, stage := range stages {
		items := byStage[stage.ID]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Order == items[j].Order {
				return items[i].ID < items[j].ID
			}
			return items[i].Order < items[j].Order
		})

		outlineStage := dto.OutlineStage{
			ID:               stage.ID,
			StageNumber:      stage.StageNumber,
			Name:             stage.Name,
			PassingThreshold: stage.PassingThreshold,
			WeightPercentage: stage.WeightPercentage,
			TimeLimitMinutes: stage.TimeLimitMinutes,
			Questions:        make([]dto.OutlineQuestion, 0, len(items)),
		}

		for _, question := range items {
			translation, resolution := models.ResolveTranslation(question.Translations, lang, fallbacks...)
			switch resolution.Status {
			case models.ResolutionFellBack:
				outline.FellBack++
			case models.ResolutionMissing:
				outline.Missing++
			}

			item := dto.OutlineQuestion{
				ID:         question.ID,
				Type:       question.Type,
				Points:     question.Points,
				Order:      question.Order,
				Text:       translation.Text,
				Answer:     answerSchema(question, translation, forCandidate),
				Resolution: resolution,
			}
			if !forCandidate {
				item.CorrectAnswer = translation.CorrectAnswer
				item.Explanation = translation.Explanation
			}
			outlineStage.Questions = append(outlineStage.Questions, item)
		}

		outline.Stages = append(outline.Stages, outlineStage)
	}

	return outline
}

// answerSchema derives the tagged answer variant from the question type. Ranking
// options are stored in their correct order, so candidates get them shuffled.
func answerSchema(question models.Question, translation models.QuestionTranslation, forCandidate bool) dto.AnswerSchema {
	kind := question.Type.AnswerKind()
	switch kind {
	case models.AnswerMultipleChoice:
		return dto.AnswerSchema{Kind: kind, Options: append([]string(nil), translation.Options...)}
	case models.AnswerRanking:
		options := append([]string(nil), translation.Options...)
		if forCandidate {
			options = scrambleRanking(options, int64(question.ID)<<16|int64(translation.ID))
		}
		return dto.AnswerSchema{Kind: kind, Options: options}
	case models.AnswerTrueFalse:
		options := []string(translation.Options)
		if len(options) == 0 {
			options = defaultBooleanOptions
		}
		return dto.AnswerSchema{Kind: kind, Options: append([]string(nil), options...)}
	default:
		return dto.AnswerSchema{Kind: models.AnswerFreeText}
	}
}

// scrambleRanking returns a stable permutation of key that differs from key whenever
// its options are not all equal.
func scrambleRanking(key []string, seed int64) []string {
	shuffled := append([]string(nil), key...)
	rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if !sameOrder(shuffled, key) {
		return shuffled
	}
	for shift := 1; shift < len(key); shift++ {
		rotated := append(append([]string(nil), key[shift:]...), key[:shift]...)
		if !sameOrder(rotated, key) {
			return rotated
		}
	}
	return shuffled
}

func sameOrder(a, b []string) bool {
	for i := range a {
		if normalizeAnswer(a[i]) != normalizeAnswer(b[i]) {
			return false
		}
	}
	return true
}

// buildQuestionTranslation checks a translation against the answer kind of its question.
func buildQuestionTranslation(questionType models.QuestionType, payload dto.QuestionTranslationPayload) (models.QuestionTranslation, error) {
	lang, ok := utils.NormalizeLanguage(payload.LanguageCode)
	if !ok {
		return models.QuestionTranslation{}, FieldError("language_code", "is not a known language code")
	}

	options := make([]string, 0, len(payload.Options))
	seen := make(map[string]struct{}, len(payload.Options))
	for _, option := range payload.Options {
		option = strings.TrimSpace(option)
		if option == "" {
			return models.QuestionTranslation{}, FieldError("options", "must not contain blank entries")
		}
		key := normalizeAnswer(option)
		if _, dup := seen[key]; dup {
			return models.QuestionTranslation{}, FieldError("options", "must be unique")
		}
		seen[key] = struct{}{}
		options = append(options, option)
	}

	correct := strings.TrimSpace(payload.CorrectAnswer)
	switch questionType.AnswerKind() {
	case models.AnswerMultipleChoice:
		if len(options) < 2 {
			return models.QuestionTranslation{}, FieldError("options", "multiple choice questions need at least two options")
		}
		if _, found := seen[normalizeAnswer(correct)]; !found {
			return models.QuestionTranslation{}, FieldError("correct_answer", "must match one of the options")
		}
	case models.AnswerTrueFalse:
		if len(options) == 0 {
			options = append(options, defaultBooleanOptions...)
			for _, option := range options {
				seen[option] = struct{}{}
			}
		}
		if len(options) != 2 {
			return models.QuestionTranslation{}, FieldError("options", "true/false questions need exactly two options")
		}
		if _, found := seen[normalizeAnswer(correct)]; !found {
			return models.QuestionTranslation{}, FieldError("correct_answer", "must match one of the options")
		}
	case models.AnswerRanking:
		if len(options) < 2 {
			return models.QuestionTranslation{}, FieldError("options", "ranking questions need at least two options in their correct order")
		}
	default:
		if len(options) > 0 {
			return models.QuestionTranslation{}, FieldError("options", fmt.Sprintf("are not accepted for %s questions", questionType))
		}
	}

	return models.QuestionTranslation{
		LanguageCode:  lang,
		Text:          strings.TrimSpace(payload.Text),
		Options:       datatypes.JSONSlice[string](options),
		CorrectAnswer: correct,
		Explanation:   strings.TrimSpace(payload.Explanation),
	}, nil
}
