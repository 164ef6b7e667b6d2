package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"reportbot/internal/bootstrap"
	"reportbot/internal/config"
	"reportbot/internal/executor"
	"reportbot/internal/handler/api"
	"reportbot/internal/llm"
	"reportbot/internal/mailer"
	"reportbot/internal/middleware"
	"reportbot/internal/orchestrator"
	"reportbot/internal/planner"
	"reportbot/internal/repository"
	"reportbot/internal/rooms"
	"reportbot/internal/router"
	"reportbot/internal/scheduler"
	"reportbot/internal/schema"
	"reportbot/internal/seed"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// --- Repositories ---
	schemaRepo := repository.NewSchemaRepository(db)
	jobRepo := repository.NewReportJobRepository(db)
	recordRepo := repository.NewRecordRepository(db)

	// --- LLM client ---
	gemini := llm.NewGeminiClient(cfg.LLM, logger)

	// --- Schema retrieval ---
	extractor := schema.NewExtractor(db, schemaRepo, gemini, logger)
	retriever := schema.NewRetriever(schemaRepo, gemini, logger)

	// --- Execution and background rooms ---
	runner := executor.New(db, logger)
	hub := rooms.NewHub(logger)
	roomManager := rooms.NewManager(hub, logger)

	// --- Mail + scheduler ---
	mail := mailer.New(cfg.SMTP, logger)
	sched := scheduler.New(cfg.Scheduler, jobRepo, runner, mail, logger)
	sched.Start()

	// --- Planning + orchestration ---
	plan := planner.New(gemini, retriever, cfg.Scheduler.Location(), logger)
	orch := orchestrator.New(plan, runner, roomManager, sched, cfg.Scheduler.QueryTimeout, logger)

	// --- Submit Deduper (Redis with in-memory fallback) ---
	submitDeduper, dedupeErr := middleware.NewSubmitDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		30*time.Second,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for submit dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo + routes ---
	e := echo.New()
	e.HideBanner = true

	handlers := &router.Handlers{
		Report: api.NewReportHandler(orch, sched, roomManager, logger),
		Schema: api.NewSchemaHandler(extractor, retriever, plan, runner, logger),
		Record: api.NewRecordHandler(recordRepo, logger),
		Bulk:   api.NewBulkHandler(seed.NewGenerator(recordRepo, logger), logger),
	}
	router.Setup(e, handlers, hub, submitDeduper, logger)

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting report server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	sched.Stop()
	roomManager.Wait()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
