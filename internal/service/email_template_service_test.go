package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
)

func newTemplateService(t *testing.T) (EmailTemplateService, repository.EmailTemplateRepository) {
	t.Helper()
	db := setupTestDB(t)
	repo := repository.NewEmailTemplateRepository(db)
	return NewEmailTemplateService(repo, dto.NewValidator(), PipelineSettings{}, nil, testLogger()), repo
}

func TestEmailTemplateUpsertReplacesExistingRow(t *testing.T) {
	svc, repo := newTemplateService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, models.TemplateAssessmentInvitation, "en", dto.UpsertEmailTemplateCommand{
		Subject:  "Your assessment",
		HTMLBody: "<p>First {{full_name}}</p>",
	})
	require.NoError(t, err)

	saved, err := svc.Upsert(ctx, models.TemplateAssessmentInvitation, "en", dto.UpsertEmailTemplateCommand{
		Subject:  "Your assessment, {{full_name}}",
		HTMLBody: "<p>Second <a href=\"{{assessment_link}}\">start</a></p><script>alert(1)</script>",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"full_name", "assessment_link"}, saved.Placeholders)

	stored, err := repo.ListByName(ctx, models.TemplateAssessmentInvitation, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Contains(t, stored[0].HTMLBody, "Second")
	require.Contains(t, stored[0].HTMLBody, `href="{{assessment_link}}"`)
	require.NotContains(t, stored[0].HTMLBody, "script")
}

func TestEmailTemplateRejectsUnknownPlaceholdersAndNames(t *testing.T) {
	svc, repo := newTemplateService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, models.TemplateAssessmentPassed, "en", dto.UpsertEmailTemplateCommand{
		Subject:  "Congratulations",
		HTMLBody: "<p>{{full_name}} earned {{bonus}}</p>",
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "{{bonus}}")

	_, err = svc.Upsert(ctx, "newsletter", "en", dto.UpsertEmailTemplateCommand{Subject: "x", HTMLBody: "<p>x</p>"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Upsert(ctx, models.TemplateAssessmentPassed, "!!", dto.UpsertEmailTemplateCommand{Subject: "x", HTMLBody: "<p>x</p>"})
	require.ErrorIs(t, err, ErrValidation)

	stored, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestEmailTemplateRenderSubstitutesAndFallsBack(t *testing.T) {
	svc, repo := newTemplateService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, models.TemplateAssessmentFailed, "en", dto.UpsertEmailTemplateCommand{
		Subject:  "Result for {{full_name}}",
		HTMLBody: "<p>{{full_name}} scored {{score}} on {{current_date}}</p>",
		TextBody: "{{full_name}} scored {{score}}",
	})
	require.NoError(t, err)

	rendered, err := svc.Render(ctx, models.TemplateAssessmentFailed, "pt", map[string]string{
		PlaceholderFullName: "Ana <Silva>",
		PlaceholderScore:    "61.25",
	})
	require.NoError(t, err)
	require.Equal(t, models.ResolutionFellBack, rendered.Resolution.Status)
	require.Equal(t, "en", rendered.Resolution.Language)
	require.Equal(t, "Result for Ana <Silva>", rendered.Subject)
	require.Equal(t, "<p>Ana &lt;Silva&gt; scored 61.25 on {{current_date}}</p>", rendered.HTMLBody)
	require.Equal(t, "Ana <Silva> scored 61.25", rendered.TextBody)
	require.Equal(t, []string{"current_date"}, rendered.Unresolved)

	require.NoError(t, repo.Upsert(ctx, &models.EmailTemplate{
		TemplateName: models.TemplateAssessmentFailed,
		LanguageCode: "pt",
		Subject:      "Resultado",
		HTMLBody:     "<p>Olá {{full_name}}</p>",
		IsActive:     true,
	}))
	rendered, err = svc.Render(ctx, models.TemplateAssessmentFailed, "pt-BR", map[string]string{PlaceholderFullName: "Ana"})
	require.NoError(t, err)
	require.Equal(t, models.ResolutionFound, rendered.Resolution.Status)
	require.Equal(t, "<p>Olá Ana</p>", rendered.HTMLBody)

	_, err = svc.Render(ctx, models.TemplateApplicationRejected, "en", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestEmailTemplateInactiveIsNotRendered(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()
	inactive := false

	_, err := svc.Upsert(ctx, models.TemplateApplicationReceived, "en", dto.UpsertEmailTemplateCommand{
		Subject:  "Thanks",
		HTMLBody: "<p>Thanks</p>",
		IsActive: &inactive,
	})
	require.NoError(t, err)

	_, err = svc.Render(ctx, models.TemplateApplicationReceived, "en", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestExtractPlaceholders(t *testing.T) {
	placeholders := ExtractPlaceholders("{{ full_name }} {{email}}", "{{full_name}} {{score}}", "")
	require.Equal(t, []string{"full_name", "email", "score"}, placeholders)
	require.Empty(t, ExtractPlaceholders("no tokens { here }"))
}
