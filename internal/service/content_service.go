package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// DisclaimerContentKey holds the notice shown before an assessment starts.
const DisclaimerContentKey = "assessment_disclaimer"

// ContentService stores and resolves keyed localized copy.
type ContentService interface {
	Upsert(ctx context.Context, key, lang string, cmd dto.UpsertContentCommand) (dto.LocalizedContentResponse, error)
	Resolve(ctx context.Context, key, lang string) (dto.LocalizedContentResponse, error)
}

type contentService struct {
	repo      repository.ContentTranslationRepository
	validator *validator.Validate
	settings  PipelineSettings
	logger    zerolog.Logger
}

// NewContentService constructs the content localization service.
func NewContentService(repo repository.ContentTranslationRepository, validate *validator.Validate, settings PipelineSettings, logger zerolog.Logger) ContentService {
	return &contentService{
		repo:      repo,
		validator: validate,
		settings:  settings,
		logger:    logger.With().Str("component", "content_service").Logger(),
	}
}

func (s *contentService) Upsert(ctx context.Context, key, lang string, cmd dto.UpsertContentCommand) (dto.LocalizedContentResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 128 {
		return dto.LocalizedContentResponse{}, FieldError("content_key", "must be between 1 and 128 characters")
	}
	code, ok := utils.NormalizeLanguage(lang)
	if !ok {
		return dto.LocalizedContentResponse{}, FieldError("language_code", "is not a known language code")
	}
	if err := s.validator.Struct(cmd); err != nil {
		return dto.LocalizedContentResponse{}, validationFailure(err)
	}

	content := models.ContentTranslation{ContentKey: key, LanguageCode: code, Content: strings.TrimSpace(cmd.Content)}
	err := withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Upsert(ctx, &content)
	})
	if err != nil {
		return dto.LocalizedContentResponse{}, storeError(err, nil, nil)
	}

	s.logger.Info().Str("content_key", key).Str("language", code).Msg("content translation saved")
	return dto.LocalizedContentResponse{
		Key:        key,
		Content:    content.Content,
		Resolution: models.Resolution{Status: models.ResolutionFound, Requested: code, Language: code},
	}, nil
}

// Resolve returns the copy for lang, falling back to English and then to the first
// stored language. ErrContentNotFound is returned when the key has no translation at all.
func (s *contentService) Resolve(ctx context.Context, key, lang string) (dto.LocalizedContentResponse, error) {
	items, err := s.repo.ListByKey(ctx, strings.TrimSpace(key))
	if err != nil {
		return dto.LocalizedContentResponse{}, err
	}

	code, ok := utils.NormalizeLanguage(lang)
	if !ok {
		code = "en"
	}

	item, resolution := models.ResolveTranslation(items, code, "en")
	if resolution.Status == models.ResolutionMissing {
		return dto.LocalizedContentResponse{Key: key, Resolution: resolution}, ErrContentNotFound
	}
	return dto.LocalizedContentResponse{Key: key, Content: item.Content, Resolution: resolution}, nil
}
