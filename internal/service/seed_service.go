package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

// SeedService loads a complete program definition through the regular services, so
// every validation rule applies to seeded data too.
type SeedService interface {
	Apply(ctx context.Context, file dto.SeedFile) (dto.SeedSummary, error)
}

type seedService struct {
	programs  ProgramService
	questions QuestionBankService
	profiles  SimulationProfileService
	templates EmailTemplateService
	content   ContentService
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(programs ProgramService, questions QuestionBankService, profiles SimulationProfileService, templates EmailTemplateService, content ContentService, logger zerolog.Logger) SeedService {
	return &seedService{
		programs:  programs,
		questions: questions,
		profiles:  profiles,
		templates: templates,
		content:   content,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

// Apply writes templates and content first, then the program tree, and activates the
// program last when asked to. It stops at the first failure; rows already written stay.
func (s *seedService) Apply(ctx context.Context, file dto.SeedFile) (dto.SeedSummary, error) {
	var summary dto.SeedSummary

	for _, tpl := range file.EmailTemplates {
		_, err := s.templates.Upsert(ctx, tpl.Name, tpl.Language, dto.UpsertEmailTemplateCommand{
			Subject:  tpl.Subject,
			HTMLBody: tpl.HTMLBody,
			TextBody: tpl.TextBody,
		})
		if err != nil {
			return summary, fmt.Errorf("email template %s/%s: %w", tpl.Name, tpl.Language, err)
		}
		summary.Templates++
	}

	for _, item := range file.Content {
		if _, err := s.content.Upsert(ctx, item.Key, item.Language, dto.UpsertContentCommand{Content: item.Content}); err != nil {
			return summary, fmt.Errorf("content %s/%s: %w", item.Key, item.Language, err)
		}
		summary.Content++
	}

	if strings.TrimSpace(file.Program.Slug) == "" {
		s.logger.Info().Int("templates", summary.Templates).Int("content", summary.Content).Msg("seed applied without program")
		return summary, nil
	}

	def := file.Program
	program, err := s.programs.Create(ctx, dto.CreateProgramCommand{
		Slug: def.Slug,
		Name: def.Name,
		Settings: dto.ProgramSettingsPayload{
			SupportedLanguages: def.SupportedLanguages,
			LinkExpiryHours:    def.LinkExpiryHours,
			MaxAttempts:        def.MaxAttempts,
			RequireLinkedIn:    def.RequireLinkedIn,
		},
	})
	if err != nil {
		return summary, fmt.Errorf("program %s: %w", def.Slug, err)
	}
	summary.ProgramID = program.ID

	for i, stageDef := range def.Stages {
		enabled := !stageDef.Disabled
		stage, err := s.programs.CreateStage(ctx, program.ID, dto.CreateStageCommand{
			StageNumber:      stageDef.Number,
			Name:             stageDef.Name,
			PassingThreshold: stageDef.PassingThreshold,
			WeightPercentage: stageDef.Weight,
			TimeLimitMinutes: stageDef.TimeLimitMinutes,
			Enabled:          &enabled,
			DisplayOrder:     i + 1,
		})
		if err != nil {
			return summary, fmt.Errorf("stage %d: %w", stageDef.Number, err)
		}
		summary.Stages++

		for j, questionDef := range stageDef.Questions {
			translations := make([]dto.QuestionTranslationPayload, 0, len(questionDef.Translations))
			for _, variant := range questionDef.Translations {
				translations = append(translations, dto.QuestionTranslationPayload{
					LanguageCode:  variant.Language,
					Text:          variant.Text,
					Options:       variant.Options,
					CorrectAnswer: variant.CorrectAnswer,
					Explanation:   variant.Explanation,
				})
			}
			_, err := s.questions.CreateQuestion(ctx, stage.ID, dto.CreateQuestionCommand{
				Type:         models.QuestionType(questionDef.Type),
				Points:       questionDef.Points,
				Order:        j + 1,
				Translations: translations,
			})
			if err != nil {
				return summary, fmt.Errorf("stage %d question %d: %w", stageDef.Number, j+1, err)
			}
			summary.Questions++
		}
	}

	for i, profileDef := range def.Profiles {
		translations := make([]dto.ProfileTranslationPayload, 0, len(profileDef.Translations))
		for _, variant := range profileDef.Translations {
			translations = append(translations, dto.ProfileTranslationPayload{
				LanguageCode:         variant.Language,
				Bio:                  variant.Bio,
				ChallengeDescription: variant.ChallengeDescription,
				ObjectionScenario:    variant.ObjectionScenario,
			})
		}
		_, err := s.profiles.Create(ctx, program.ID, dto.SimulationProfileCommand{
			Name:         profileDef.Name,
			Role:         profileDef.Role,
			Seniority:    models.SeniorityTier(profileDef.Seniority),
			CompanyType:  profileDef.CompanyType,
			Industry:     profileDef.Industry,
			Order:        i + 1,
			Translations: translations,
		})
		if err != nil {
			return summary, fmt.Errorf("profile %s: %w", profileDef.Name, err)
		}
		summary.Profiles++
	}

	if def.Activate {
		if _, err := s.programs.Activate(ctx, program.ID); err != nil {
			return summary, fmt.Errorf("activate %s: %w", def.Slug, err)
		}
		summary.Activated = true
	}

	s.logger.Info().
		Str("program", def.Slug).
		Int("stages", summary.Stages).
		Int("questions", summary.Questions).
		Int("profiles", summary.Profiles).
		Bool("activated", summary.Activated).
		Msg("program seeded")
	return summary, nil
}
