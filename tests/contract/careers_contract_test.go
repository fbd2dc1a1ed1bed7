package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/app"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/database"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/handler"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

func setupCareersApp(t *testing.T) (*fiber.App, app.Services) {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:contract_%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.Config{PublicOrigin: "https://jobs.example.com", CompanyName: "Petrodeal", StoreTimeout: 5 * time.Second, EnforceStageWeights: true}
	services := app.NewServices(cfg, app.Infrastructure{DB: db}, zerolog.Nop())

	ctx := context.Background()
	program, err := services.Programs.Create(ctx, dto.CreateProgramCommand{
		Slug:     "lng-desk",
		Name:     "LNG Desk",
		Settings: dto.ProgramSettingsPayload{SupportedLanguages: []string{"en", "pt"}, LinkExpiryHours: 24, MaxAttempts: 1},
	})
	require.NoError(t, err)
	stage, err := services.Programs.CreateStage(ctx, program.ID, dto.CreateStageCommand{StageNumber: 1, Name: "Shipping", PassingThreshold: 50, WeightPercentage: 100})
	require.NoError(t, err)
	_, err = services.Questions.CreateQuestion(ctx, stage.ID, dto.CreateQuestionCommand{
		Type:   models.QuestionTrueFalse,
		Points: 4,
		Translations: []dto.QuestionTranslationPayload{
			{LanguageCode: "en", Text: "LNG is shipped at -162C.", CorrectAnswer: "true"},
			{LanguageCode: "pt", Text: "O GNL é transportado a -162C.", CorrectAnswer: "true"},
		},
	})
	require.NoError(t, err)
	_, err = services.Programs.Activate(ctx, program.ID)
	require.NoError(t, err)

	fiberApp := fiber.New()
	careers := handler.NewCareersHandler(services.Pipeline, zerolog.Nop())
	careers.Register(fiberApp.Group("/api/v1/careers/:slug"))
	return fiberApp, services
}

func postJSON(t *testing.T, fiberApp *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := fiberApp.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAssessmentSessionContract(t *testing.T) {
	schema := compileSchema(t, "assessment_session.schema.json")
	fiberApp, services := setupCareersApp(t)

	resp := postJSON(t, fiberApp, "/api/v1/careers/lng-desk/applications", map[string]string{
		"full_name": "Tiago Silva", "email": "tiago@example.com", "preferred_language": "pt",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data dto.ApplicationResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	invitation, err := services.Invitations.Issue(context.Background(), created.Data.CandidateID, 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/careers/lng-desk/assessment/"+invitation.Token, nil)
	resp, err = fiberApp.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateBody(t, schema, resp)
}

func TestApplicationValidationErrorContract(t *testing.T) {
	schema := compileSchema(t, "error.schema.json")
	fiberApp, _ := setupCareersApp(t)

	resp := postJSON(t, fiberApp, "/api/v1/careers/lng-desk/applications", map[string]string{
		"full_name": "T", "email": "nope",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	validateBody(t, schema, resp)
}
