package handlers

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/assessment"
	"github.com/parastopwal07/dezerv-backend/internal/query"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

const defaultQuery = "Assess the financial risk profile of this user based on their recent activity."

// portfolioFallbackMessage is returned when synthesis is unavailable and the
// deterministic baseline score is used instead.
const portfolioFallbackMessage = "Could not connect to AI service. Using fallback portfolio risk assessment."

type AssessmentHandler struct {
	engine *query.Engine
}

func NewAssessmentHandler(engine *query.Engine) *AssessmentHandler {
	return &AssessmentHandler{
		engine: engine,
	}
}

// HandleRiskAssessment serves GET requests with an optional ?risk_score=
// prior.
func (h *AssessmentHandler) HandleRiskAssessment(c *fiber.Ctx) error {
	req := query.AssessmentRequest{Query: defaultQuery}

	if raw := c.Query("risk_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "risk_score must be a number",
			})
		}
		req.PriorScore = &score
	}

	return h.assess(c, req)
}

// HandleRiskAssessmentQuery serves POST requests with a free-form query and
// an optional prior score in the body.
func (h *AssessmentHandler) HandleRiskAssessmentQuery(c *fiber.Ctx) error {
	var body struct {
		Query     string   `json:"query"`
		RiskScore *float64 `json:"risk_score"`
	}

	if err := c.BodyParser(&body); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if body.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	return h.assess(c, query.AssessmentRequest{
		Query:      body.Query,
		PriorScore: body.RiskScore,
	})
}

func (h *AssessmentHandler) assess(c *fiber.Ctx, req query.AssessmentRequest) error {
	result, err := h.engine.Assess(c.Context(), req)
	if err != nil {
		logger.Error("Failed to assess risk", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Risk assessment is temporarily unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"riskScore": result.RiskScore,
		"message":   result.Message,
	})
}

// HandlePortfolioAssessment evaluates an allocation. When synthesis is
// unavailable the deterministic baseline score is returned instead of an
// error.
func (h *AssessmentHandler) HandlePortfolioAssessment(c *fiber.Ctx) error {
	var alloc assessment.PortfolioAllocation

	if err := c.BodyParser(&alloc); err != nil {
		logger.Error("Failed to parse portfolio", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if alloc.TotalValue <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "totalValue must be positive",
		})
	}

	result, err := h.engine.AssessPortfolio(c.Context(), alloc)
	if err != nil {
		logger.Warn("Synthesis unavailable, using baseline portfolio score", zap.Error(err))
		return c.JSON(fiber.Map{
			"riskScore": math.Round(alloc.BaselineScore()*10) / 10,
			"message":   portfolioFallbackMessage,
		})
	}

	return c.JSON(fiber.Map{
		"riskScore": result.RiskScore,
		"message":   result.Message,
	})
}

// HandleAllocation maps a risk score to a recommended allocation.
func (h *AssessmentHandler) HandleAllocation(c *fiber.Ctx) error {
	raw := c.Query("risk_score")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "risk_score is required",
		})
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || score < assessment.MinScore || score > assessment.MaxScore {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "risk_score must be a number between 1 and 10",
		})
	}

	return c.JSON(assessment.AllocationForScore(score))
}

// HandleAssessmentHistory lists recent assessments, newest first.
func (h *AssessmentHandler) HandleAssessmentHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	history, err := h.engine.History(limit)
	if err != nil {
		logger.Error("Failed to list assessments", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list assessments",
		})
	}

	items := make([]fiber.Map, 0, len(history))
	for _, a := range history {
		items = append(items, fiber.Map{
			"id":         a.ID,
			"query":      a.Query,
			"riskScore":  a.RiskScore,
			"message":    a.Message,
			"fallback":   a.Fallback,
			"latency_ms": a.LatencyMS,
			"created_at": a.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"assessments": items,
		"count":       len(items),
	})
}
