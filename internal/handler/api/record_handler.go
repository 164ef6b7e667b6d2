package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"reportbot/internal/models"
	"reportbot/internal/repository"
)

// RecordHandler serves plain CRUD for the demo dataset.
type RecordHandler struct {
	records *repository.RecordRepository
	logger  *zap.Logger
}

func NewRecordHandler(records *repository.RecordRepository, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{records: records, logger: logger}
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

func parseLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return limit
}

// ── Leads ─────────────────────────────────────────────────────────────

func (h *RecordHandler) ListLeads(c echo.Context) error {
	leads, err := h.records.ListLeads(parseLimit(c))
	if err != nil {
		h.logger.Error("Listing leads failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not list leads")
	}
	return successResponse(c, "leads", leads)
}

func (h *RecordHandler) GetLead(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid lead id")
	}

	lead, err := h.records.FindLead(id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "lead not found")
	}
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "could not load lead")
	}
	return successResponse(c, "lead", lead)
}

func (h *RecordHandler) CreateLead(c echo.Context) error {
	var lead models.Lead
	if err := c.Bind(&lead); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if lead.Name == "" || lead.Email == "" {
		return errorResponse(c, http.StatusBadRequest, "name and email are required")
	}

	if err := h.records.CreateLead(&lead); err != nil {
		h.logger.Error("Creating lead failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not create lead")
	}
	return successResponse(c, "lead", lead)
}

func (h *RecordHandler) UpdateLead(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid lead id")
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	// ignore attempts to rewrite identity or timestamps
	delete(updates, "id")
	delete(updates, "created_at")
	delete(updates, "updated_at")
	if len(updates) == 0 {
		return errorResponse(c, http.StatusBadRequest, "no updatable fields given")
	}

	if err := h.records.UpdateLead(id, updates); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "lead not found")
		}
		h.logger.Error("Updating lead failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not update lead")
	}
	return messageResponse(c, "lead updated")
}

func (h *RecordHandler) DeleteLead(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid lead id")
	}

	if err := h.records.DeleteLead(id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "lead not found")
		}
		h.logger.Error("Deleting lead failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not delete lead")
	}
	return messageResponse(c, "lead deleted")
}

// ── Projects ──────────────────────────────────────────────────────────

func (h *RecordHandler) ListProjects(c echo.Context) error {
	projects, err := h.records.ListProjects(parseLimit(c))
	if err != nil {
		h.logger.Error("Listing projects failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not list projects")
	}
	return successResponse(c, "projects", projects)
}

func (h *RecordHandler) CreateProject(c echo.Context) error {
	var project models.Project
	if err := c.Bind(&project); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if project.Name == "" {
		return errorResponse(c, http.StatusBadRequest, "name is required")
	}

	if err := h.records.CreateProject(&project); err != nil {
		h.logger.Error("Creating project failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not create project")
	}
	return successResponse(c, "project", project)
}

func (h *RecordHandler) DeleteProject(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid project id")
	}

	if err := h.records.DeleteProject(id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "project not found")
		}
		h.logger.Error("Deleting project failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not delete project")
	}
	return messageResponse(c, "project deleted")
}

// ── Addresses ─────────────────────────────────────────────────────────

func (h *RecordHandler) ListAddresses(c echo.Context) error {
	addresses, err := h.records.ListAddresses(parseLimit(c))
	if err != nil {
		h.logger.Error("Listing addresses failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not list addresses")
	}
	return successResponse(c, "addresses", addresses)
}

func (h *RecordHandler) CreateAddress(c echo.Context) error {
	var address models.Address
	if err := c.Bind(&address); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	if err := h.records.CreateAddress(&address); err != nil {
		h.logger.Error("Creating address failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not create address")
	}
	return successResponse(c, "address", address)
}

func (h *RecordHandler) DeleteAddress(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid address id")
	}

	if err := h.records.DeleteAddress(id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "address not found")
		}
		h.logger.Error("Deleting address failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not delete address")
	}
	return messageResponse(c, "address deleted")
}
