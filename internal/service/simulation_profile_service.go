package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// SimulationProfileService manages the personas used by role-play stages.
type SimulationProfileService interface {
	List(ctx context.Context, programID uint) ([]dto.SimulationProfileResponse, error)
	ListLocalized(ctx context.Context, programID uint, lang string) ([]dto.LocalizedProfileResponse, error)
	Create(ctx context.Context, programID uint, cmd dto.SimulationProfileCommand) (dto.SimulationProfileResponse, error)
	Update(ctx context.Context, id uint, cmd dto.SimulationProfileCommand) (dto.SimulationProfileResponse, error)
	UpsertTranslation(ctx context.Context, id uint, payload dto.ProfileTranslationPayload) (dto.SimulationProfileResponse, error)
}

type simulationProfileService struct {
	programs  repository.ProgramRepository
	repo      repository.SimulationProfileRepository
	validator *validator.Validate
	settings  PipelineSettings
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSimulationProfileService constructs the persona service.
func NewSimulationProfileService(programs repository.ProgramRepository, repo repository.SimulationProfileRepository, validate *validator.Validate, settings PipelineSettings, logger zerolog.Logger) SimulationProfileService {
	return &simulationProfileService{
		programs:  programs,
		repo:      repo,
		validator: validate,
		settings:  settings,
		logger:    logger.With().Str("component", "simulation_profile_service").Logger(),
		tracer:    otel.Tracer(tracerPrefix + "simulation_profile"),
	}
}

func (s *simulationProfileService) List(ctx context.Context, programID uint) ([]dto.SimulationProfileResponse, error) {
	if _, err := s.programs.GetByID(ctx, programID); err != nil {
		return nil, storeError(err, ErrProgramNotFound, nil)
	}

	profiles, err := s.repo.ListByProgram(ctx, programID, false)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SimulationProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		responses = append(responses, dto.NewSimulationProfileResponse(profile))
	}
	return responses, nil
}

// ListLocalized returns enabled personas in order with copy resolved into lang.
func (s *simulationProfileService) ListLocalized(ctx context.Context, programID uint, lang string) ([]dto.LocalizedProfileResponse, error) {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, storeError(err, ErrProgramNotFound, nil)
	}

	code, ok := utils.NormalizeLanguage(lang)
	if !ok {
		code = program.Config().DefaultLanguage()
	}

	profiles, err := s.repo.ListByProgram(ctx, programID, true)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.LocalizedProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		translation, resolution := models.ResolveTranslation(profile.Translations, code, program.Config().DefaultLanguage(), "en")
		responses = append(responses, dto.LocalizedProfileResponse{
			ID:                   profile.ID,
			Name:                 profile.Name,
			Role:                 profile.Role,
			Seniority:            profile.Seniority,
			CompanyType:          profile.CompanyType,
			Industry:             profile.Industry,
			Bio:                  translation.Bio,
			ChallengeDescription: translation.ChallengeDescription,
			ObjectionScenario:    translation.ObjectionScenario,
			Resolution:           resolution,
		})
	}
	return responses, nil
}

func (s *simulationProfileService) Create(ctx context.Context, programID uint, cmd dto.SimulationProfileCommand) (dto.SimulationProfileResponse, error) {
	ctx, span := s.tracer.Start(ctx, "simulation_profile.create")
	defer span.End()

	if err := s.validator.Struct(cmd); err != nil {
		return dto.SimulationProfileResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}
	if _, err := s.programs.GetByID(ctx, programID); err != nil {
		return dto.SimulationProfileResponse{}, failSpan(span, storeError(err, ErrProgramNotFound, nil), "lookup failed")
	}

	profile := models.SimulationProfile{ProgramID: programID, Enabled: true}
	applyProfileCommand(&profile, cmd)

	seen := make(map[string]struct{}, len(cmd.Translations))
	for _, payload := range cmd.Translations {
		translation, err := buildProfileTranslation(payload)
		if err != nil {
			return dto.SimulationProfileResponse{}, failSpan(span, err, "validation failed")
		}
		if _, dup := seen[translation.LanguageCode]; dup {
			return dto.SimulationProfileResponse{}, failSpan(span, FieldError("translations", "repeat language "+translation.LanguageCode), "validation failed")
		}
		seen[translation.LanguageCode] = struct{}{}
		profile.Translations = append(profile.Translations, translation)
	}

	err := withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Create(ctx, &profile)
	})
	if err != nil {
		return dto.SimulationProfileResponse{}, failSpan(span, storeError(err, nil, nil), "persistence failed")
	}
	return dto.NewSimulationProfileResponse(profile), nil
}

// Update replaces the persona's own fields. Translations in cmd are upserted by language.
func (s *simulationProfileService) Update(ctx context.Context, id uint, cmd dto.SimulationProfileCommand) (dto.SimulationProfileResponse, error) {
	ctx, span := s.tracer.Start(ctx, "simulation_profile.update")
	defer span.End()
	span.SetAttributes(attribute.Int64("profile.id", int64(id)))

	if err := s.validator.Struct(cmd); err != nil {
		return dto.SimulationProfileResponse{}, failSpan(span, validationFailure(err), "validation failed")
	}

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.SimulationProfileResponse{}, failSpan(span, storeError(err, ErrProfileNotFound, nil), "lookup failed")
	}

	translations := make([]models.ProfileTranslation, 0, len(cmd.Translations))
	for _, payload := range cmd.Translations {
		translation, err := buildProfileTranslation(payload)
		if err != nil {
			return dto.SimulationProfileResponse{}, failSpan(span, err, "validation failed")
		}
		translation.ProfileID = profile.ID
		translations = append(translations, translation)
	}

	applyProfileCommand(&profile, cmd)
	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, &profile); err != nil {
			return err
		}
		for i := range translations {
			if err := s.repo.UpsertTranslation(ctx, &translations[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dto.SimulationProfileResponse{}, failSpan(span, storeError(err, ErrProfileNotFound, nil), "persistence failed")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.SimulationProfileResponse{}, storeError(err, ErrProfileNotFound, nil)
	}
	return dto.NewSimulationProfileResponse(updated), nil
}

func (s *simulationProfileService) UpsertTranslation(ctx context.Context, id uint, payload dto.ProfileTranslationPayload) (dto.SimulationProfileResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SimulationProfileResponse{}, validationFailure(err)
	}

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.SimulationProfileResponse{}, storeError(err, ErrProfileNotFound, nil)
	}

	translation, err := buildProfileTranslation(payload)
	if err != nil {
		return dto.SimulationProfileResponse{}, err
	}
	translation.ProfileID = profile.ID

	err = withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.UpsertTranslation(ctx, &translation)
	})
	if err != nil {
		return dto.SimulationProfileResponse{}, storeError(err, ErrProfileNotFound, nil)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.SimulationProfileResponse{}, storeError(err, ErrProfileNotFound, nil)
	}
	return dto.NewSimulationProfileResponse(updated), nil
}

func applyProfileCommand(profile *models.SimulationProfile, cmd dto.SimulationProfileCommand) {
	profile.Name = strings.TrimSpace(cmd.Name)
	profile.Role = strings.TrimSpace(cmd.Role)
	profile.Seniority = cmd.Seniority
	profile.CompanyType = strings.TrimSpace(cmd.CompanyType)
	profile.Industry = strings.TrimSpace(cmd.Industry)
	profile.Enabled = boolValue(cmd.Enabled, profile.Enabled)
	profile.Order = cmd.Order
}

func buildProfileTranslation(payload dto.ProfileTranslationPayload) (models.ProfileTranslation, error) {
	code, ok := utils.NormalizeLanguage(payload.LanguageCode)
	if !ok {
		return models.ProfileTranslation{}, FieldError("language_code", "is not a known language code")
	}
	return models.ProfileTranslation{
		LanguageCode:         code,
		Bio:                  strings.TrimSpace(payload.Bio),
		ChallengeDescription: strings.TrimSpace(payload.ChallengeDescription),
		ObjectionScenario:    strings.TrimSpace(payload.ObjectionScenario),
	}, nil
}
