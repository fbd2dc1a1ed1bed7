package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/app"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/database"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/router"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/mailer"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

type testServer struct {
	t        *testing.T
	fiber    *fiber.App
	services app.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.Config{
		AppName:             "talent-test",
		AppEnv:              "test",
		JWTSecret:           testSecret,
		PublicOrigin:        "https://jobs.example.com",
		CompanyName:         "Petrodeal",
		MailFrom:            "talent@example.com",
		StoreTimeout:        5 * time.Second,
		EnforceStageWeights: true,
		RevokePreviousLinks: true,
	}
	logger := zerolog.Nop()
	services := app.NewServices(cfg, app.Infrastructure{DB: db, Mailer: mailer.NewLogMailer(logger)}, logger)

	fiberApp := fiber.New()
	router.Register(fiberApp, cfg, app.RouterDependencies(cfg, services, nil, logger))

	return &testServer{t: t, fiber: fiberApp, services: services}
}

func operatorToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "7",
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(method, path string, body interface{}, token string, headers ...string) (int, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.fiber.Test(req, -1)
	require.NoError(s.t, err)

	var env envelope
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// seedActiveProgram creates an active single-stage program offered in en and es. Its
// one question only has an English translation.
func (s *testServer) seedActiveProgram() (dto.ProgramResponse, dto.QuestionResponse) {
	s.t.Helper()
	ctx := context.Background()

	program, err := s.services.Programs.Create(ctx, dto.CreateProgramCommand{
		Slug: "trade-desk",
		Name: "Trade Desk Associates",
		Settings: dto.ProgramSettingsPayload{
			SupportedLanguages: []string{"en", "es"},
			LinkExpiryHours:    72,
			MaxAttempts:        1,
		},
	})
	require.NoError(s.t, err)

	stage, err := s.services.Programs.CreateStage(ctx, program.ID, dto.CreateStageCommand{StageNumber: 1, Name: "Market basics", PassingThreshold: 60, WeightPercentage: 100})
	require.NoError(s.t, err)

	question, err := s.services.Questions.CreateQuestion(ctx, stage.ID, dto.CreateQuestionCommand{
		Type:   models.QuestionMultipleChoice,
		Points: 10,
		Order:  1,
		Translations: []dto.QuestionTranslationPayload{{
			LanguageCode:  "en",
			Text:          "Which grade is lighter?",
			Options:       []string{"Brent", "WTI", "Urals"},
			CorrectAnswer: "WTI",
		}},
	})
	require.NoError(s.t, err)

	program, err = s.services.Programs.Activate(ctx, program.ID)
	require.NoError(s.t, err)
	return program, question
}
