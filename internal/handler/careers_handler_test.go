package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func apply(server *testServer, slug, email string) (int, envelope) {
	return server.do(http.MethodPost, "/api/v1/careers/"+slug+"/applications", map[string]interface{}{
		"full_name":          "Ada Moreno",
		"email":              email,
		"country":            "Spain",
		"area_of_interest":   "crude",
		"preferred_language": "en",
	}, "")
}

func TestCareersApplicationValidation(t *testing.T) {
	server := newTestServer(t)
	server.seedActiveProgram()

	status, env := apply(server, "trade-desk", "ada@example.com")
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)

	status, _ = apply(server, "trade-desk", "ADA@example.com")
	require.Equal(t, http.StatusConflict, status)

	status, env = apply(server, "trade-desk", "not-an-email")
	require.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, env.Details)

	status, _ = apply(server, "unknown-program", "ada@example.com")
	require.Equal(t, http.StatusNotFound, status)
}

func TestCareersAssessmentFlow(t *testing.T) {
	server := newTestServer(t)
	_, question := server.seedActiveProgram()
	admin := operatorToken(t, "admin", time.Hour)

	status, env := apply(server, "trade-desk", "ada@example.com")
	require.Equal(t, http.StatusCreated, status)
	var application struct {
		CandidateID uint `json:"candidate_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &application))

	status, env = server.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/candidates/%d/invite", application.CandidateID), nil, admin)
	require.Equal(t, http.StatusCreated, status)
	var invitation struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &invitation))
	require.Len(t, invitation.Token, 64)
	require.True(t, strings.HasPrefix(invitation.URL, "https://jobs.example.com/"))

	base := "/api/v1/careers/trade-desk/assessment/" + invitation.Token

	status, env = server.do(http.MethodGet, base, nil, "", fiber.HeaderAcceptLanguage, "es-MX,es;q=0.9")
	require.Equal(t, http.StatusOK, status)
	var session struct {
		Status  string `json:"status"`
		Outline struct {
			FellBack int `json:"fell_back"`
			Stages   []struct {
				Questions []struct {
					ID            uint   `json:"id"`
					CorrectAnswer string `json:"correct_answer"`
				} `json:"questions"`
			} `json:"stages"`
		} `json:"outline"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.Equal(t, "invited", session.Status)
	require.Equal(t, 1, session.Outline.FellBack)
	require.Len(t, session.Outline.Stages, 1)
	require.Equal(t, question.ID, session.Outline.Stages[0].Questions[0].ID)
	require.Empty(t, session.Outline.Stages[0].Questions[0].CorrectAnswer)

	status, _ = server.do(http.MethodGet, "/api/v1/careers/trade-desk/assessment/"+strings.Repeat("a", 64), nil, "")
	require.Equal(t, http.StatusNotFound, status)

	status, _ = server.do(http.MethodPost, base+"/responses", map[string]interface{}{
		"answers": []map[string]interface{}{{"question_id": question.ID, "answer": "WTI"}},
	}, "")
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, env = server.do(http.MethodPost, base+"/start", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.Equal(t, "in_progress", session.Status)

	status, env = server.do(http.MethodPost, base+"/responses", map[string]interface{}{
		"answers": []map[string]interface{}{{"question_id": question.ID, "answer": "WTI"}},
	}, "")
	require.Equal(t, http.StatusOK, status)
	var stored struct {
		Stored     int `json:"stored"`
		AutoGraded int `json:"auto_graded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	require.Equal(t, 1, stored.Stored)
	require.Equal(t, 1, stored.AutoGraded)

	status, env = server.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/candidates/%d/finalize", application.CandidateID), nil, admin)
	require.Equal(t, http.StatusOK, status)
	var breakdown struct {
		Disposition string `json:"disposition"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &breakdown))
	require.Equal(t, "passed", breakdown.Disposition)

	status, env = server.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/candidates/%d/reject", application.CandidateID), nil, admin)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotEmpty(t, env.Details)

	status, env = server.do(http.MethodGet, "/api/v1/admin/analytics/funnel", nil, admin)
	require.Equal(t, http.StatusOK, status)
	var funnel struct {
		TotalCandidates int64 `json:"total_candidates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &funnel))
	require.Equal(t, int64(1), funnel.TotalCandidates)
}
