package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"reportbot/internal/middleware"
	"reportbot/internal/models"
	"reportbot/internal/orchestrator"
	"reportbot/internal/report"
	"reportbot/internal/repository"
	"reportbot/internal/scheduler"
)

// ReportHandler serves the natural language report endpoints.
type ReportHandler struct {
	orch      *orchestrator.Orchestrator
	scheduler JobService
	rooms     RoomStatuser
	logger    *zap.Logger
}

// RoomStatuser reports the status of a background query room, with the
// result payload while the room is still live.
type RoomStatuser interface {
	Status(room string) (string, *report.Shaped)
}

// JobService is the scheduler surface the handlers need.
type JobService interface {
	ListJobs(email string) ([]models.ReportJob, error)
	ControlJob(jobID, email, action string) error
}

func NewReportHandler(orch *orchestrator.Orchestrator, scheduler JobService, rooms RoomStatuser, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{orch: orch, scheduler: scheduler, rooms: rooms, logger: logger}
}

// RoomStatus handles GET /api/report/room/:room.
func (h *ReportHandler) RoomStatus(c echo.Context) error {
	room := c.Param("room")
	status, payload := h.rooms.Status(room)

	data := map[string]interface{}{
		"room":   room,
		"status": status,
	}
	if payload != nil {
		data["payload"] = payload
	}
	return successResponse(c, "room_status", data)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze handles POST /api/report/analyze.
func (h *ReportHandler) Analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	result, err := h.orch.Analyze(c.Request().Context(), orchestrator.Request{
		Text:      req.Text,
		UserEmail: middleware.UserEmail(c),
	})
	if err != nil {
		var validationErr *orchestrator.ValidationError
		var intentErr *orchestrator.IntentError
		var planningErr *orchestrator.PlanningError
		switch {
		case errors.As(err, &validationErr):
			return errorResponse(c, http.StatusBadRequest, validationErr.Error())
		case errors.As(err, &intentErr):
			return errorResponse(c, http.StatusUnprocessableEntity,
				"I couldn't understand that request. Try asking for a report, e.g. 'show me all leads from last week'.")
		case errors.As(err, &planningErr):
			// conversational refusal or a request for more detail
			return messageResponse(c, planningErr.Explanation)
		default:
			h.logger.Error("Analyze failed", zap.Error(err))
			return errorResponse(c, http.StatusInternalServerError, "report analysis failed")
		}
	}

	switch {
	case result.Processing != nil:
		return successResponse(c, "processing", result)
	case result.Scheduled != nil:
		return successResponse(c, "scheduled", result)
	default:
		return successResponse(c, "report", result)
	}
}

type jobSummary struct {
	JobID       string   `json:"job_id"`
	Query       string   `json:"query"`
	RunAt       string   `json:"run_at"`
	NextRunTime *string  `json:"next_run_time"`
	Recurring   bool     `json:"recurring"`
	Status      string   `json:"status"`
	LastStatus  string   `json:"last_status,omitempty"`
	Actions     []string `json:"actions"`
}

// Status handles GET /api/report/status.
func (h *ReportHandler) Status(c echo.Context) error {
	email := middleware.UserEmail(c)
	jobs, err := h.scheduler.ListJobs(email)
	if err != nil {
		h.logger.Error("Listing jobs failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "could not load scheduled reports")
	}

	active := 0
	summaries := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		status := job.Status()
		if status == "Active" {
			active++
		}

		summary := jobSummary{
			JobID:      job.JobID,
			Query:      job.Query,
			RunAt:      job.RunAt.Format("2006-01-02 15:04:05"),
			Recurring:  job.Recurring,
			Status:     status,
			LastStatus: job.LastStatus,
			Actions:    jobActions(status),
		}
		if job.NextRunTime != nil {
			next := job.NextRunTime.Format("2006-01-02 15:04:05")
			summary.NextRunTime = &next
		}
		summaries = append(summaries, summary)
	}

	return successResponse(c, "status", map[string]interface{}{
		"total":     len(jobs),
		"active":    active,
		"completed": len(jobs) - active,
		"jobs":      summaries,
	})
}

func jobActions(status string) []string {
	if status == "Active" {
		return []string{"pause", "delete"}
	}
	return []string{"resume", "delete"}
}

type jobActionRequest struct {
	Action string `json:"action"`
}

// JobAction handles POST /api/report/job/:job_id/action.
func (h *ReportHandler) JobAction(c echo.Context) error {
	var req jobActionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	jobID := c.Param("job_id")
	email := middleware.UserEmail(c)

	if err := h.scheduler.ControlJob(jobID, email, req.Action); err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			return errorResponse(c, http.StatusNotFound, "no such job for this user")
		case errors.Is(err, scheduler.ErrUnknownAction):
			return errorResponse(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Job action failed",
				zap.String("job_id", jobID), zap.String("action", req.Action), zap.Error(err))
			return errorResponse(c, http.StatusInternalServerError, "job action failed")
		}
	}

	return messageResponse(c, "job "+req.Action+" applied to "+jobID)
}
