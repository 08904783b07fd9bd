package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parastopwal07/dezerv-backend/internal/assessment"
	"github.com/parastopwal07/dezerv-backend/internal/embedding"
	"github.com/parastopwal07/dezerv-backend/internal/query"
	"github.com/parastopwal07/dezerv-backend/internal/vector/flat"
)

type stubGenerator struct {
	output string
	err    error
}

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func newTestApp(gen *stubGenerator) *fiber.App {
	index := flat.NewIndex(embedding.NewHashingEmbedder(64))
	engine := query.NewEngine(index, assessment.NewSynthesizer(gen), 3)
	h := NewAssessmentHandler(engine)

	app := fiber.New()
	app.Get("/risk-assessment", h.HandleRiskAssessment)
	app.Post("/risk-assessment", h.HandleRiskAssessmentQuery)
	app.Post("/portfolio-risk-assessment", h.HandlePortfolioAssessment)
	app.Get("/allocation", h.HandleAllocation)
	app.Get("/assessments", h.HandleAssessmentHistory)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandleRiskAssessment(t *testing.T) {
	app := newTestApp(&stubGenerator{output: `{"risk_score": 6.5, "reason": "Moderate exposure"}`})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/risk-assessment?risk_score=5.0", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, 6.5, body["riskScore"])
	assert.Equal(t, "Moderate exposure", body["message"])
}

func TestHandleRiskAssessment_BadPrior(t *testing.T) {
	app := newTestApp(&stubGenerator{output: `{"risk_score": 5, "reason": "r"}`})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/risk-assessment?risk_score=high", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleRiskAssessmentQuery_RequiresQuery(t *testing.T) {
	app := newTestApp(&stubGenerator{output: `{"risk_score": 5, "reason": "r"}`})

	req := httptest.NewRequest(http.MethodPost, "/risk-assessment", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleRiskAssessment_BackendDown(t *testing.T) {
	app := newTestApp(&stubGenerator{err: errors.New("connection refused")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/risk-assessment", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandlePortfolioAssessment_FallsBackToBaseline(t *testing.T) {
	app := newTestApp(&stubGenerator{err: errors.New("connection refused")})

	payload := `{"stocks": 50, "gold": 10, "fixedDeposit": 20, "bonds": 10, "mutualFunds": 10, "totalValue": 100}`
	req := httptest.NewRequest(http.MethodPost, "/portfolio-risk-assessment", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, 6.8, body["riskScore"])
	assert.Equal(t, portfolioFallbackMessage, body["message"])
}

func TestHandlePortfolioAssessment_RequiresTotal(t *testing.T) {
	app := newTestApp(&stubGenerator{output: `{"risk_score": 5, "reason": "r"}`})

	req := httptest.NewRequest(http.MethodPost, "/portfolio-risk-assessment", bytes.NewBufferString(`{"stocks": 10}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleAllocation(t *testing.T) {
	app := newTestApp(&stubGenerator{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/allocation?risk_score=8", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(49), body["stocks"])
	assert.Equal(t, float64(10), body["bonds"])
}

func TestHandleAllocation_Validation(t *testing.T) {
	app := newTestApp(&stubGenerator{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/allocation?risk_score=11", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/allocation", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleAssessmentHistory_Empty(t *testing.T) {
	app := newTestApp(&stubGenerator{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/assessments", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["count"])
}
