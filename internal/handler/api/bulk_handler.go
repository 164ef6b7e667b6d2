package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"reportbot/internal/seed"
)

// BulkHandler serves synthetic data generation.
type BulkHandler struct {
	generator *seed.Generator
	logger    *zap.Logger
}

func NewBulkHandler(generator *seed.Generator, logger *zap.Logger) *BulkHandler {
	return &BulkHandler{generator: generator, logger: logger}
}

type bulkGenerateRequest struct {
	Count int `json:"count"`
}

// Generate handles POST /api/bulk/generate.
func (h *BulkHandler) Generate(c echo.Context) error {
	var req bulkGenerateRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Count < 1 || req.Count > 100 {
		return errorResponse(c, http.StatusBadRequest, "count must be between 1 and 100")
	}

	created, err := h.generator.Generate(req.Count)
	if err != nil {
		h.logger.Error("Bulk generation failed", zap.Int("created", created), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "bulk generation failed")
	}
	return successResponse(c, "bulk_generate", map[string]interface{}{"created": created})
}
