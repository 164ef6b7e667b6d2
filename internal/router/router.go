package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"reportbot/internal/handler/api"
	"reportbot/internal/middleware"
	"reportbot/internal/rooms"
)

// Handlers bundles the API handlers wired by Setup.
type Handlers struct {
	Report *api.ReportHandler
	Schema *api.SchemaHandler
	Record *api.RecordHandler
	Bulk   *api.BulkHandler
}

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	handlers *Handlers,
	hub *rooms.Hub,
	submitDeduper middleware.SubmitDeduper,
	logger *zap.Logger,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Report routes require the caller's identity
	reportGroup := e.Group("/api/report")
	reportGroup.Use(middleware.RequireUserEmail())
	reportGroup.POST("/analyze", handlers.Report.Analyze,
		middleware.ReportSubmitDedup(submitDeduper))
	reportGroup.GET("/status", handlers.Report.Status)
	reportGroup.POST("/job/:job_id/action", handlers.Report.JobAction)
	reportGroup.GET("/room/:room", handlers.Report.RoomStatus)

	// Schema maintenance and direct execution
	e.POST("/api/schema/build", handlers.Schema.Build)
	e.GET("/api/schema/search", handlers.Schema.Search)
	e.POST("/api/query/build", handlers.Schema.BuildQuery)
	e.POST("/api/query/execute", handlers.Schema.Execute)

	// Demo dataset CRUD
	e.GET("/api/leads", handlers.Record.ListLeads)
	e.POST("/api/leads", handlers.Record.CreateLead)
	e.GET("/api/leads/:id", handlers.Record.GetLead)
	e.PUT("/api/leads/:id", handlers.Record.UpdateLead)
	e.DELETE("/api/leads/:id", handlers.Record.DeleteLead)

	e.GET("/api/projects", handlers.Record.ListProjects)
	e.POST("/api/projects", handlers.Record.CreateProject)
	e.DELETE("/api/projects/:id", handlers.Record.DeleteProject)

	e.GET("/api/addresses", handlers.Record.ListAddresses)
	e.POST("/api/addresses", handlers.Record.CreateAddress)
	e.DELETE("/api/addresses/:id", handlers.Record.DeleteAddress)

	e.POST("/api/bulk/generate", handlers.Bulk.Generate)

	// Background query rooms
	e.GET("/ws/:room", func(c echo.Context) error {
		room := c.Param("room")
		if err := hub.Join(room, c.Response(), c.Request()); err != nil {
			logger.Warn("Websocket upgrade failed", zap.String("room", room), zap.Error(err))
			return err
		}
		return nil
	})

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
