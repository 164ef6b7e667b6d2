package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"reportbot/internal/executor"
	"reportbot/internal/planner"
	"reportbot/internal/report"
	"reportbot/internal/schema"
)

// SchemaHandler serves schema index maintenance, schema search, plan-only
// query generation and direct query execution.
type SchemaHandler struct {
	extractor *schema.Extractor
	retriever *schema.Retriever
	planner   QueryPlanner
	runner    DirectRunner
	logger    *zap.Logger
}

// QueryPlanner generates a SQL plan for the build endpoint.
type QueryPlanner interface {
	PlanQuery(ctx context.Context, text string) planner.Plan
}

// DirectRunner executes raw SQL for the execute endpoint.
type DirectRunner interface {
	Execute(ctx context.Context, query string, params []any) executor.Outcome
}

func NewSchemaHandler(extractor *schema.Extractor, retriever *schema.Retriever, qp QueryPlanner, runner DirectRunner, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{extractor: extractor, retriever: retriever, planner: qp, runner: runner, logger: logger}
}

// Build handles POST /api/schema/build.
func (h *SchemaHandler) Build(c echo.Context) error {
	count, err := h.extractor.Rebuild(c.Request().Context())
	if err != nil {
		h.logger.Error("Schema rebuild failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "schema rebuild failed")
	}
	return successResponse(c, "schema_build", map[string]interface{}{"tables": count})
}

// Search handles GET /api/schema/search.
func (h *SchemaHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return errorResponse(c, http.StatusBadRequest, "query parameter q is required")
	}

	k, _ := strconv.Atoi(c.QueryParam("k"))
	matches, err := h.retriever.Search(c.Request().Context(), query, k)
	if err != nil {
		h.logger.Error("Schema search failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "schema search failed")
	}
	return successResponse(c, "schema_search", matches)
}

type buildQueryRequest struct {
	Text string `json:"text"`
}

// BuildQuery handles POST /api/query/build. It returns the generated plan
// without executing it.
func (h *SchemaHandler) BuildQuery(c echo.Context) error {
	var req buildQueryRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return errorResponse(c, http.StatusBadRequest, "text is required")
	}

	plan := h.planner.PlanQuery(c.Request().Context(), req.Text)
	return successResponse(c, "query_plan", plan)
}

type executeRequest struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

// Execute handles POST /api/query/execute. It bypasses planning and runs
// the given SQL directly, shaped the same way as report results.
func (h *SchemaHandler) Execute(c echo.Context) error {
	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return errorResponse(c, http.StatusBadRequest, "query is required")
	}

	out := h.runner.Execute(c.Request().Context(), req.Query, req.Params)
	shaped, err := report.ShapeOutcome(out)
	if err != nil {
		h.logger.Error("Shaping result failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "shaping result failed")
	}
	if shaped.Type == report.TypeError {
		return errorResponse(c, http.StatusBadRequest, shaped.Message)
	}
	return successResponse(c, shaped.Type, shaped)
}
