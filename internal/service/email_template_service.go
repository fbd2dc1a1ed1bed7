package service

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// Placeholders recognised in email templates.
const (
	PlaceholderFullName       = "full_name"
	PlaceholderEmail          = "email"
	PlaceholderAssessmentLink = "assessment_link"
	PlaceholderExpiryHours    = "expiry_hours"
	PlaceholderCompanyName    = "company_name"
	PlaceholderScore          = "score"
	PlaceholderStageName      = "stage_name"
	PlaceholderCurrentDate    = "current_date"
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

	knownPlaceholders = map[string]struct{}{
		PlaceholderFullName:       {},
		PlaceholderEmail:          {},
		PlaceholderAssessmentLink: {},
		PlaceholderExpiryHours:    {},
		PlaceholderCompanyName:    {},
		PlaceholderScore:          {},
		PlaceholderStageName:      {},
		PlaceholderCurrentDate:    {},
	}

	knownTemplates = map[string]struct{}{
		models.TemplateApplicationReceived:  {},
		models.TemplateAssessmentInvitation: {},
		models.TemplateAssessmentPassed:     {},
		models.TemplateAssessmentFailed:     {},
		models.TemplateApplicationRejected:  {},
	}
)

// EmailTemplateService stores templates and renders them.
type EmailTemplateService interface {
	List(ctx context.Context) ([]dto.EmailTemplateResponse, error)
	Upsert(ctx context.Context, name, lang string, cmd dto.UpsertEmailTemplateCommand) (dto.EmailTemplateResponse, error)
	Render(ctx context.Context, name, lang string, vars map[string]string) (dto.RenderedEmail, error)
}

type emailTemplateService struct {
	repo      repository.EmailTemplateRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	settings  PipelineSettings
	audit     AuditRecorder
	logger    zerolog.Logger
}

// NewEmailTemplateService constructs the template service.
func NewEmailTemplateService(repo repository.EmailTemplateRepository, validate *validator.Validate, settings PipelineSettings, audit AuditRecorder, logger zerolog.Logger) EmailTemplateService {
	return &emailTemplateService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		settings:  settings,
		audit:     audit,
		logger:    logger.With().Str("component", "email_template_service").Logger(),
	}
}

func (s *emailTemplateService) List(ctx context.Context) ([]dto.EmailTemplateResponse, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EmailTemplateResponse, 0, len(templates))
	for _, template := range templates {
		responses = append(responses, dto.NewEmailTemplateResponse(template))
	}
	return responses, nil
}

// Upsert inserts or replaces the template for (name, lang). The placeholder list is
// derived from the subject and bodies; unknown placeholders are rejected.
func (s *emailTemplateService) Upsert(ctx context.Context, name, lang string, cmd dto.UpsertEmailTemplateCommand) (dto.EmailTemplateResponse, error) {
	name = strings.TrimSpace(name)
	if _, ok := knownTemplates[name]; !ok {
		return dto.EmailTemplateResponse{}, FieldError("template_name", "is not a known template")
	}
	code, ok := utils.NormalizeLanguage(lang)
	if !ok {
		return dto.EmailTemplateResponse{}, FieldError("language_code", "is not a known language code")
	}
	if err := s.validator.Struct(cmd); err != nil {
		return dto.EmailTemplateResponse{}, validationFailure(err)
	}

	placeholders := ExtractPlaceholders(cmd.Subject, cmd.HTMLBody, cmd.TextBody)
	var unknown []string
	for _, placeholder := range placeholders {
		if _, ok := knownPlaceholders[placeholder]; !ok {
			unknown = append(unknown, "{{"+placeholder+"}}")
		}
	}
	if len(unknown) > 0 {
		return dto.EmailTemplateResponse{}, FieldError("placeholders", "unknown: "+strings.Join(unknown, ", "))
	}

	template := models.EmailTemplate{
		TemplateName: name,
		LanguageCode: code,
		Subject:      strings.TrimSpace(cmd.Subject),
		HTMLBody:     s.sanitizeHTML(cmd.HTMLBody),
		TextBody:     strings.TrimSpace(cmd.TextBody),
		Placeholders: datatypes.JSONSlice[string](placeholders),
		IsActive:     boolValue(cmd.IsActive, true),
	}

	err := withStoreTimeout(ctx, s.settings.StoreTimeout, func(ctx context.Context) error {
		return s.repo.Upsert(ctx, &template)
	})
	if err != nil {
		return dto.EmailTemplateResponse{}, storeError(err, nil, nil)
	}

	stored, err := s.repo.ListByName(ctx, name, false)
	if err != nil {
		return dto.EmailTemplateResponse{}, err
	}
	for _, item := range stored {
		if item.LanguageCode == code {
			template = item
			break
		}
	}

	s.logger.Info().Str("template", name).Str("language", code).Strs("placeholders", placeholders).Msg("email template saved")
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Action:     AuditTemplateSaved,
		EntityType: "email_template",
		EntityID:   uintPtr(template.ID),
		Metadata:   map[string]interface{}{"template_name": name, "language_code": code},
	})
	return dto.NewEmailTemplateResponse(template), nil
}

// Render substitutes vars into the active template for name. The language falls back
// from lang to English and then to the first active translation. Placeholders without a
// value are left in place and listed in Unresolved.
func (s *emailTemplateService) Render(ctx context.Context, name, lang string, vars map[string]string) (dto.RenderedEmail, error) {
	templates, err := s.repo.ListByName(ctx, name, true)
	if err != nil {
		return dto.RenderedEmail{}, err
	}

	code, ok := utils.NormalizeLanguage(lang)
	if !ok {
		code = "en"
	}

	template, resolution := models.ResolveTranslation(templates, code, "en")
	if resolution.Status == models.ResolutionMissing {
		return dto.RenderedEmail{TemplateName: name, Resolution: resolution}, ErrTemplateNotFound
	}

	unresolved := make(map[string]struct{})
	rendered := dto.RenderedEmail{
		TemplateName: name,
		Subject:      substitutePlaceholders(template.Subject, vars, false, unresolved),
		HTMLBody:     substitutePlaceholders(template.HTMLBody, vars, true, unresolved),
		TextBody:     substitutePlaceholders(template.TextBody, vars, false, unresolved),
		Resolution:   resolution,
		Unresolved:   make([]string, 0, len(unresolved)),
	}
	for placeholder := range unresolved {
		rendered.Unresolved = append(rendered.Unresolved, placeholder)
	}
	sort.Strings(rendered.Unresolved)

	return rendered, nil
}

// sanitizeHTML cleans the body with the UGC policy while keeping placeholders intact,
// including those used inside attribute values.
func (s *emailTemplateService) sanitizeHTML(body string) string {
	var names []string
	protected := placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		names = append(names, name)
		return fmt.Sprintf("TPLPH%dX", len(names)-1)
	})

	cleaned := s.sanitizer.Sanitize(protected)
	for i := len(names) - 1; i >= 0; i-- {
		cleaned = strings.ReplaceAll(cleaned, fmt.Sprintf("TPLPH%dX", i), "{{"+names[i]+"}}")
	}
	return strings.TrimSpace(cleaned)
}

// ExtractPlaceholders returns the distinct placeholder names used in texts, in order of
// first appearance.
func ExtractPlaceholders(texts ...string) []string {
	seen := make(map[string]struct{})
	placeholders := make([]string, 0)
	for _, text := range texts {
		for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
			name := match[1]
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			placeholders = append(placeholders, name)
		}
	}
	return placeholders
}

func substitutePlaceholders(text string, vars map[string]string, escape bool, unresolved map[string]struct{}) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if _, known := knownPlaceholders[name]; !known || !ok {
			unresolved[name] = struct{}{}
			return match
		}
		if escape {
			return html.EscapeString(value)
		}
		return value
	})
}
