package service

import (
	"context"
	"fmt"
	"math"
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

const weightTolerance = 0.01

// ProgramService manages programs and their stage configuration.
type ProgramService interface {
	List(ctx context.Context) ([]dto.ProgramResponse, error)
	Get(ctx context.Context, id uint) (dto.ProgramResponse, error)
	GetActive(ctx context.Context) (dto.ProgramResponse, error)
	Create(ctx context.Context, cmd dto.CreateProgramCommand) (dto.ProgramResponse, error)
	Update(ctx context.Context, id uint, cmd dto.UpdateProgramCommand) (dto.ProgramResponse, error)
	Activate(ctx context.Context, id uint) (dto.ProgramResponse, error)
	ValidateConfiguration(ctx context.Context, id uint) (dto.ConfigurationReport, error)
	CreateStage(ctx context.Context, programID uint, cmd dto.CreateStageCommand) (dto.StageResponse, error)
	UpdateStage(ctx context.Context, id uint, cmd dto.UpdateStageCommand) (dto.StageResponse, error)
}

type programService struct {
	repo      repository.ProgramRepository
	questions repository.QuestionRepository
	validator *validator.Validate
	settings  PipelineSettings
	audit     AuditRecorder
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewProgramService constructs the program configuration service.
func NewProgramService(repo repository.ProgramRepository, questions repository.QuestionRepository, validate *validator.Validate, settings PipelineSettings, audit AuditRecorder, logger zerolog.Logger) ProgramService {
	return &programService{
		repo:      repo,
		questions: questions,
		validator: validate,
		settings:  settings,
		audit:     audit,
		logger:    logger.With().Str("component", "program_service").Logger(),
		tracer:    otel.Tracer(tracerPrefix + "program"),
	}
}

func (s *programService) List(ctx context.Context) ([]dto.ProgramResponse, error) {
	programs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ProgramResponse, 0, len(programs))
	for _, program := range programs {
		responses = append(responses, dto.NewProgramResponse(program))
	}
	return responses, nil
}

func (s *programService) Get(ctx context.Context, id uint) (dto.ProgramResponse, error) {
	program, err := s.loadWithStages(ctx, id)
	if err != nil {
		return dto.ProgramResponse{}, err
	}
	return dto.NewProgramResponse(program), nil
}

func (s *programService) GetActive(ctx context.Context) (dto.ProgramResponse, error) {
	program, err := s.repo.GetActive(ctx)
	if err != nil {
		return dto.ProgramResponse{}, storeError(err, ErrNoActiveProgram, nil)
	}

	stages, err := s.repo.ListStages(ctx, program.ID)
	if err != nil {
		return dto.ProgramResponse{}, err
	}
	program.Stages = stages
	return dto.NewProgramResponse(program), nil
}

func (s *programService) Create(ctx context.Context, cmd dto.CreateProgramCommand) (dto.ProgramResponse, error) {
	ctx, span := s.tracer.Start(ctx, "program.create")
	defer span.End()

	if err := s.validator.Struct(cmd); err != nil {
		return dto.ProgramResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	settings, err := normalizeSettings(cmd.Settings)
	if err != nil {
		return dto.ProgramResponse{}, failSpan(span, err, "validation failed")
	}

	program := models.Program{
		Slug:     strings.TrimSpace(cmd.Slug),
		Name:     strings.TrimSpace(cmd.Name),
		Settings: datatypes.NewJSONType(settings),
	}

	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Create(ctx, &program)
	})
	if err != nil {
		return dto.ProgramResponse{}, failSpan(span, storeError(err, nil, ErrDuplicateSlug), "persistence failed")
	}

	s.logger.Info().Uint("program_id", program.ID).Str("slug", program.Slug).Msg("program created")
	return dto.NewProgramResponse(program), nil
}

func (s *programService) Update(ctx context.Context, id uint, cmd dto.UpdateProgramCommand) (dto.ProgramResponse, error) {
	ctx, span := s.tracer.Start(ctx, "program.update")
	defer span.End()
	span.SetAttributes(attribute.Int64("program.id", int64(id)))

	if err := s.validator.Struct(cmd); err != nil {
		return dto.ProgramResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	settings, err := normalizeSettings(cmd.Settings)
	if err != nil {
		return dto.ProgramResponse{}, failSpan(span, err, "validation failed")
	}

	program, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ProgramResponse{}, failSpan(span, storeError(err, ErrProgramNotFound, nil), "lookup failed")
	}

	program.Slug = strings.TrimSpace(cmd.Slug)
	program.Name = strings.TrimSpace(cmd.Name)
	program.Settings = datatypes.NewJSONType(settings)

	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Update(ctx, &program)
	})
	if err != nil {
		return dto.ProgramResponse{}, failSpan(span, storeError(err, ErrProgramNotFound, ErrDuplicateSlug), "persistence failed")
	}

	return s.Get(ctx, id)
}

// Activate makes id the single active program. With weight enforcement enabled the
// program must pass ValidateConfiguration first.
func (s *programService) Activate(ctx context.Context, id uint) (dto.ProgramResponse, error) {
	ctx, span := s.tracer.Start(ctx, "program.activate")
	defer span.End()
	span.SetAttributes(attribute.Int64("program.id", int64(id)))

	report, err := s.ValidateConfiguration(ctx, id)
	if err != nil {
		return dto.ProgramResponse{}, failSpan(span, err, "validation failed")
	}
	if !report.Valid && s.settings.EnforceStageWeights {
		return dto.ProgramResponse{}, failSpan(span, NewValidationError(strings.Join(report.Problems, "; ")), "configuration invalid")
	}

	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Activate(ctx, id)
	})
	if err != nil {
		return dto.ProgramResponse{}, failSpan(span, storeError(err, ErrProgramNotFound, nil), "activation failed")
	}

	s.logger.Info().Uint("program_id", id).Msg("program activated")
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Action:     AuditProgramActivated,
		EntityType: "program",
		EntityID:   uintPtr(id),
		Metadata:   map[string]interface{}{"weight_total": report.EnabledWeightTotal, "valid": report.Valid},
	})
	return s.Get(ctx, id)
}

func (s *programService) ValidateConfiguration(ctx context.Context, id uint) (dto.ConfigurationReport, error) {
	program, err := s.loadWithStages(ctx, id)
	if err != nil {
		return dto.ConfigurationReport{}, err
	}

	enabledIDs := make([]uint, 0, len(program.Stages))
	for _, stage := range program.Stages {
		if stage.Enabled {
			enabledIDs = append(enabledIDs, stage.ID)
		}
	}

	questions, err := s.questions.ListByStages(ctx, enabledIDs)
	if err != nil {
		return dto.ConfigurationReport{}, err
	}
	return buildConfigurationReport(program, questions), nil
}

func (s *programService) CreateStage(ctx context.Context, programID uint, cmd dto.CreateStageCommand) (dto.StageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "program.create_stage")
	defer span.End()

	if err := s.validator.Struct(cmd); err != nil {
		return dto.StageResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	if _, err := s.repo.GetByID(ctx, programID); err != nil {
		return dto.StageResponse{}, failSpan(span, storeError(err, ErrProgramNotFound, nil), "lookup failed")
	}
	if err := s.ensureStageNumberFree(ctx, programID, cmd.StageNumber, 0); err != nil {
		return dto.StageResponse{}, failSpan(span, err, "validation failed")
	}

	stage := models.Stage{
		ProgramID:        programID,
		StageNumber:      cmd.StageNumber,
		Name:             strings.TrimSpace(cmd.Name),
		PassingThreshold: cmd.PassingThreshold,
		WeightPercentage: cmd.WeightPercentage,
		TimeLimitMinutes: cmd.TimeLimitMinutes,
		Enabled:          boolValue(cmd.Enabled, true),
		DisplayOrder:     cmd.DisplayOrder,
	}

	err := withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.CreateStage(ctx, &stage)
	})
	if err != nil {
		return dto.StageResponse{}, failSpan(span, storeError(err, nil, ErrDuplicateStage), "persistence failed")
	}

	return dto.NewStageResponse(stage), nil
}

func (s *programService) UpdateStage(ctx context.Context, id uint, cmd dto.UpdateStageCommand) (dto.StageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "program.update_stage")
	defer span.End()
	span.SetAttributes(attribute.Int64("stage.id", int64(id)))

	if err := s.validator.Struct(cmd); err != nil {
		return dto.StageResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	stage, err := s.repo.GetStage(ctx, id)
	if err != nil {
		return dto.StageResponse{}, failSpan(span, storeError(err, ErrStageNotFound, nil), "lookup failed")
	}
	if err := s.ensureStageNumberFree(ctx, stage.ProgramID, cmd.StageNumber, stage.ID); err != nil {
		return dto.StageResponse{}, failSpan(span, err, "validation failed")
	}

	stage.StageNumber = cmd.StageNumber
	stage.Name = strings.TrimSpace(cmd.Name)
	stage.PassingThreshold = cmd.PassingThreshold
	stage.WeightPercentage = cmd.WeightPercentage
	stage.TimeLimitMinutes = cmd.TimeLimitMinutes
	stage.Enabled = cmd.Enabled
	stage.DisplayOrder = cmd.DisplayOrder

	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.UpdateStage(ctx, &stage)
	})
	if err != nil {
		return dto.StageResponse{}, failSpan(span, storeError(err, ErrStageNotFound, ErrDuplicateStage), "persistence failed")
	}

	return dto.NewStageResponse(stage), nil
}

func (s *programService) loadWithStages(ctx context.Context, id uint) (models.Program, error) {
	program, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Program{}, storeError(err, ErrProgramNotFound, nil)
	}

	stages, err := s.repo.ListStages(ctx, id)
	if err != nil {
		return models.Program{}, err
	}
	program.Stages = stages
	return program, nil
}

func (s *programService) ensureStageNumberFree(ctx context.Context, programID uint, number int, selfID uint) error {
	stages, err := s.repo.ListStages(ctx, programID)
	if err != nil {
		return err
	}
	for _, stage := range stages {
		if stage.StageNumber == number && stage.ID != selfID {
			return FieldError("stage_number", fmt.Sprintf("%d is already used in this program", number))
		}
	}
	return nil
}

func normalizeSettings(payload dto.ProgramSettingsPayload) (models.ProgramSettings, error) {
	languages := make([]string, 0, len(payload.SupportedLanguages))
	seen := make(map[string]struct{}, len(payload.SupportedLanguages))
	for _, code := range payload.SupportedLanguages {
		normalized, ok := utils.NormalizeLanguage(code)
		if !ok {
			return models.ProgramSettings{}, FieldError("settings.supported_languages", "contains unknown language code "+code)
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		languages = append(languages, normalized)
	}

	return models.ProgramSettings{
		SupportedLanguages: languages,
		LinkExpiryHours:    payload.LinkExpiryHours,
		MaxAttempts:        payload.MaxAttempts,
		RequireLinkedIn:    payload.RequireLinkedIn,
	}, nil
}

// buildConfigurationReport checks the enabled stages of a program. Problems block
// activation; the weight total must be 100.
func buildConfigurationReport(program models.Program, questions []models.Question) dto.ConfigurationReport {
	report := dto.ConfigurationReport{ProgramID: program.ID, Problems: []string{}}

	enabledQuestions := make(map[uint]int)
	for _, question := range questions {
		if question.Enabled {
			enabledQuestions[question.StageID]++
		}
	}

	total := 0.0
	for _, stage := range program.Stages {
		if !stage.Enabled {
			continue
		}
		report.EnabledStages++
		total += stage.WeightPercentage

		if stage.WeightPercentage <= 0 {
			report.Problems = append(report.Problems, fmt.Sprintf("stage %d (%s) is enabled with zero weight", stage.StageNumber, stage.Name))
		}
		if enabledQuestions[stage.ID] == 0 {
			report.Problems = append(report.Problems, fmt.Sprintf("stage %d (%s) has no enabled questions", stage.StageNumber, stage.Name))
		}
	}
	report.EnabledWeightTotal = round2(total)

	if report.EnabledStages == 0 {
		report.Problems = append(report.Problems, "program has no enabled stages")
	} else if math.Abs(total-100) > weightTolerance {
		report.Problems = append(report.Problems, fmt.Sprintf("enabled stage weights sum to %.2f, expected 100", total))
	}

	report.Valid = len(report.Problems) == 0
	return report
}
