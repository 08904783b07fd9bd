package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/ingestion"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

type IngestHandler struct {
	processor *ingestion.Processor
}

func NewIngestHandler(processor *ingestion.Processor) *IngestHandler {
	return &IngestHandler{
		processor: processor,
	}
}

// HandleIngest accepts raw notification text, either as a JSON body with a
// "text" field or as a plain text body, and rebuilds all derived state.
func (h *IngestHandler) HandleIngest(c *fiber.Ctx) error {
	var raw string

	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err == nil && body.Text != "" {
		raw = body.Text
	} else {
		raw = string(c.Body())
	}

	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body is empty",
		})
	}

	summary, err := h.processor.Ingest(c.Context(), raw)
	if err != nil {
		logger.Error("Ingestion failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Ingestion failed",
		})
	}

	return c.JSON(summary)
}
