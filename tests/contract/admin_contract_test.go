package contract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/handler"
)

type stubFunnelService struct {
	response dto.FunnelResponse
	program  *uint
	topN     int
}

func (s *stubFunnelService) Funnel(_ context.Context, programID *uint, topN int) (dto.FunnelResponse, error) {
	s.program = programID
	s.topN = topN
	return s.response, nil
}

func (s *stubFunnelService) Invalidate(context.Context) error { return nil }

func TestFunnelAnalyticsContract(t *testing.T) {
	schema := compileSchema(t, "funnel.schema.json")

	stub := &stubFunnelService{response: dto.FunnelResponse{
		TotalCandidates: 6,
		StatusCounts:    map[string]int64{"pending": 2, "invited": 1, "passed": 2, "failed": 1},
		Funnel: []dto.FunnelStep{
			{Status: "pending", Count: 6},
			{Status: "invited", Count: 4},
			{Status: "completed", Count: 3},
			{Status: "passed", Count: 2},
		},
		TopCountries:   []dto.Bucket{{Label: "Nigeria", Count: 4}, {Label: "Brazil", Count: 2}},
		TopInterests:   []dto.Bucket{{Label: "lng", Count: 6}},
		TopLanguages:   []dto.Bucket{{Label: "en", Count: 5}, {Label: "pt", Count: 1}},
		PassRate:       0.6667,
		CompletionRate: 0.75,
		ConversionRate: 0.3333,
		GeneratedAt:    time.Now().UTC(),
	}}

	h := handler.NewAdminAnalyticsHandler(stub, zerolog.Nop())
	app := fiber.New()
	h.Register(app.Group("/api/v1/admin/analytics"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics/funnel?top=3&program_id=4", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	validateBody(t, schema, resp)

	require.Equal(t, 3, stub.topN)
	require.NotNil(t, stub.program)
	require.Equal(t, uint(4), *stub.program)
}

func TestFunnelAnalyticsRejectsBadProgramFilter(t *testing.T) {
	schema := compileSchema(t, "error.schema.json")

	h := handler.NewAdminAnalyticsHandler(&stubFunnelService{}, zerolog.Nop())
	app := fiber.New()
	h.Register(app.Group("/api/v1/admin/analytics"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics/funnel?program_id=abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	validateBody(t, schema, resp)
}
