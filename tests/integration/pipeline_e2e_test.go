package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/app"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/database"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/middleware"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/router"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
)

const jwtSecret = "integration-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t        *testing.T
	app      *fiber.App
	services app.Services
	token    string
}

func setupPipelineApp(t *testing.T) *harness {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := config.Config{
		AppName:             "talent-e2e",
		AppEnv:              "test",
		JWTSecret:           jwtSecret,
		PublicOrigin:        "https://jobs.example.com",
		CompanyName:         "Petrodeal",
		MailFrom:            "talent@example.com",
		StoreTimeout:        5 * time.Second,
		EnforceStageWeights: true,
		RevokePreviousLinks: true,
		AnalyticsCacheTTL:   time.Minute,
	}
	logger := zerolog.New(io.Discard)
	services := app.NewServices(cfg, app.Infrastructure{DB: db, Redis: redisClient}, logger)

	fiberApp := fiber.New()
	middleware.Register(fiberApp, middleware.Config{Logger: &logger})
	router.Register(fiberApp, cfg, app.RouterDependencies(cfg, services, nil, logger))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 42, "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	return &harness{t: t, app: fiberApp, services: services, token: signed}
}

func (h *harness) call(method, path string, body interface{}, admin bool) (int, envelope) {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if admin {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+h.token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	var env envelope
	require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func seedTwoStageProgram(t *testing.T, services app.Services) {
	t.Helper()
	seeder := service.NewSeedService(services.Programs, services.Questions, services.Profiles, services.Templates, services.Content, zerolog.Nop())
	_, err := seeder.Apply(context.Background(), dto.SeedFile{
		EmailTemplates: []dto.SeedEmailTemplate{
			{Name: "assessment_invitation", Language: "en", Subject: "{{company_name}} assessment", HTMLBody: `<p>Hi {{full_name}}, start at <a href="{{assessment_link}}">this link</a>.</p>`},
			{Name: "assessment_passed", Language: "en", Subject: "Congratulations", HTMLBody: "<p>You scored {{score}}.</p>"},
		},
		Content: []dto.SeedContent{{Key: "assessment_disclaimer", Language: "en", Content: "Answer on your own."}},
		Program: dto.SeedProgram{
			Slug:               "trade-desk",
			Name:               "Trade Desk Associates",
			SupportedLanguages: []string{"en"},
			LinkExpiryHours:    72,
			MaxAttempts:        1,
			Activate:           true,
			Stages: []dto.SeedStage{
				{
					Number: 1, Name: "Market basics", PassingThreshold: 50, Weight: 40,
					Questions: []dto.SeedQuestion{
						{Type: "multiple_choice", Points: 5, Translations: []dto.SeedQuestionVariant{{Language: "en", Text: "Which grade is lighter?", Options: []string{"Brent", "WTI"}, CorrectAnswer: "WTI"}}},
						{Type: "short_answer", Points: 5, Translations: []dto.SeedQuestionVariant{{Language: "en", Text: "Define contango."}}},
					},
				},
				{
					Number: 2, Name: "Documentation", PassingThreshold: 60, Weight: 60,
					Questions: []dto.SeedQuestion{
						{Type: "true_false", Points: 10, Translations: []dto.SeedQuestionVariant{{Language: "en", Text: "A bill of lading is a document of title.", CorrectAnswer: "true"}}},
					},
				},
			},
		},
	})
	require.NoError(t, err)
}

func TestPipelineEndToEnd(t *testing.T) {
	h := setupPipelineApp(t)
	seedTwoStageProgram(t, h.services)

	status, env := h.call(http.MethodPost, "/api/v1/careers/trade-desk/applications", map[string]string{
		"full_name": "Ada Moreno", "email": "ada@example.com", "country": "Spain", "area_of_interest": "crude",
	}, false)
	require.Equal(t, http.StatusCreated, status)
	application := decode[dto.ApplicationResponse](t, env.Data)
	candidatePath := fmt.Sprintf("/api/v1/admin/candidates/%d", application.CandidateID)

	status, env = h.call(http.MethodPost, candidatePath+"/invite", map[string]int{"expiry_hours": 24}, true)
	require.Equal(t, http.StatusCreated, status)
	invitation := decode[dto.InvitationResponse](t, env.Data)
	require.Equal(t, 24, invitation.ExpiryHours)

	assessment := "/api/v1/careers/trade-desk/assessment/" + invitation.Token
	status, env = h.call(http.MethodPost, assessment+"/start", nil, false)
	require.Equal(t, http.StatusOK, status)
	session := decode[dto.AssessmentSessionResponse](t, env.Data)
	require.Equal(t, "Answer on your own.", session.Disclaimer.Content)
	require.Len(t, session.Outline.Stages, 2)

	stageOne := session.Outline.Stages[0].Questions
	stageTwo := session.Outline.Stages[1].Questions
	status, env = h.call(http.MethodPost, assessment+"/responses", map[string]interface{}{
		"answers": []map[string]interface{}{
			{"question_id": stageOne[0].ID, "answer": "WTI"},
			{"question_id": stageOne[1].ID, "answer": "Futures priced above spot."},
			{"question_id": stageTwo[0].ID, "answer": "true"},
		},
	}, false)
	require.Equal(t, http.StatusOK, status)
	stored := decode[dto.SubmitResponsesResponse](t, env.Data)
	require.Equal(t, 3, stored.Stored)
	require.Equal(t, 1, stored.PendingReview)

	status, _ = h.call(http.MethodPost, candidatePath+"/finalize", nil, true)
	require.Equal(t, http.StatusBadRequest, status)

	status, env = h.call(http.MethodGet, candidatePath+"/responses", nil, true)
	require.Equal(t, http.StatusOK, status)
	answers := decode[[]dto.CandidateAnswerResponse](t, env.Data)
	var essayID uint
	for _, answer := range answers {
		if answer.QuestionID == stageOne[1].ID {
			essayID = answer.ID
		}
	}
	require.NotZero(t, essayID)

	status, _ = h.call(http.MethodPost, fmt.Sprintf("/api/v1/admin/responses/%d/suggestion", essayID), nil, true)
	require.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = h.call(http.MethodPatch, fmt.Sprintf("/api/v1/admin/responses/%d/grade", essayID), map[string]interface{}{"points": 1, "note": "partially right"}, true)
	require.Equal(t, http.StatusOK, status)

	status, env = h.call(http.MethodGet, "/api/v1/admin/analytics/funnel", nil, true)
	require.Equal(t, http.StatusOK, status)
	require.False(t, decode[dto.FunnelResponse](t, env.Data).CacheHit)
	status, env = h.call(http.MethodGet, "/api/v1/admin/analytics/funnel", nil, true)
	require.Equal(t, http.StatusOK, status)
	require.True(t, decode[dto.FunnelResponse](t, env.Data).CacheHit)

	status, env = h.call(http.MethodPost, candidatePath+"/finalize", nil, true)
	require.Equal(t, http.StatusOK, status)
	breakdown := decode[dto.ScoreBreakdown](t, env.Data)
	require.Equal(t, "passed", string(breakdown.Disposition))
	require.InDelta(t, 84.0, breakdown.WeightedScore, 0.01)

	status, env = h.call(http.MethodGet, "/api/v1/admin/analytics/funnel", nil, true)
	require.Equal(t, http.StatusOK, status)
	funnel := decode[dto.FunnelResponse](t, env.Data)
	require.False(t, funnel.CacheHit)
	require.Equal(t, int64(1), funnel.StatusCounts["passed"])

	status, env = h.call(http.MethodGet, fmt.Sprintf("/api/v1/admin/audit?candidate_id=%d", application.CandidateID), nil, true)
	require.Equal(t, http.StatusOK, status)
	entries := decode[[]dto.AuditEntryResponse](t, env.Data)
	actions := map[string]bool{}
	for _, entry := range entries {
		actions[entry.Action] = true
		require.Equal(t, uint(42), entry.ActorID)
	}
	require.True(t, actions[service.AuditInvitationIssued])
	require.True(t, actions[service.AuditResponseGraded])
	require.True(t, actions[service.AuditCandidateFinalized])
}
