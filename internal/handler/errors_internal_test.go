package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
)

func TestRespondErrorMapsPipelineErrors(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		message     string
		wantDetails bool
	}{
		{name: "validation with fields", err: service.FieldError("email", "must be a valid email"), status: fiber.StatusBadRequest, wantDetails: true},
		{name: "grading incomplete", err: service.ErrGradingIncomplete, status: fiber.StatusBadRequest},
		{name: "not found", err: service.ErrCandidateNotFound, status: fiber.StatusNotFound, message: service.ErrCandidateNotFound.Error()},
		{name: "expired link", err: service.ErrLinkExpired, status: fiber.StatusGone},
		{name: "revoked link", err: service.ErrLinkRevoked, status: fiber.StatusGone},
		{name: "transition", err: &service.InvalidTransitionError{From: models.CandidateStatusRejected, To: models.CandidateStatusInvited}, status: fiber.StatusUnprocessableEntity, wantDetails: true},
		{name: "not in progress", err: service.ErrAssessmentNotActive, status: fiber.StatusUnprocessableEntity},
		{name: "duplicate", err: service.ErrDuplicateCandidate, status: fiber.StatusConflict},
		{name: "store timeout", err: fmt.Errorf("load stages: %w", service.ErrStoreTimeout), status: fiber.StatusGatewayTimeout, message: "store timeout"},
		{name: "grader", err: service.ErrGraderUnavailable, status: fiber.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("disk on fire"), status: fiber.StatusInternalServerError, message: "failed to do the thing"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondError(c, zerolog.Nop(), tc.err, "failed to do the thing")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body struct {
				Success bool            `json:"success"`
				Message string          `json:"message"`
				Details json.RawMessage `json:"details"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.False(t, body.Success)
			if tc.message != "" {
				require.Equal(t, tc.message, body.Message)
			}
			if tc.wantDetails {
				require.NotEmpty(t, body.Details)
			}
		})
	}
}

func TestRespondErrorIncludesTransitionEndpoints(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, zerolog.Nop(), &service.InvalidTransitionError{From: models.CandidateStatusPassed, To: models.CandidateStatusRejected}, "fallback")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	var body struct {
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "passed", body.Details["from"])
	require.Equal(t, "rejected", body.Details["to"])
}

func TestPreferredLanguageFallsBackToHeader(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(preferredLanguage(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/?lang=pt", nil)
	req.Header.Set(fiber.HeaderAcceptLanguage, "es-MX,es;q=0.9")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "pt", string(body))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAcceptLanguage, "es-MX,es;q=0.9")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "es-MX,es;q=0.9", string(body))
}
