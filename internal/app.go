// Package internal wires the application together.
package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"reactionlens/internal/config"
	"reactionlens/internal/database"
	httpapi "reactionlens/internal/http"
	"reactionlens/internal/jobs"
	"reactionlens/internal/logging"
)

// Application bundles the long-lived components of the service.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.Manager
	Jobs      *jobs.Scheduler
	Fiber     *fiber.App
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)

	dbManager := database.NewManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	jobsManager := jobs.NewScheduler(dbManager, logger, cfg)

	fiberApp := fiber.New(fiber.Config{
		AppName:   cfg.AppName,
		BodyLimit: cfg.MaxUploadSizeInMb * 1024 * 1024,
	})
	fiberApp.Use(recover.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST,GET,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	server := httpapi.NewServer(cfg, logger, dbManager.GetConnection())
	server.RegisterRoutes(fiberApp)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Jobs:      jobsManager,
		Fiber:     fiberApp,
	}, nil
}

// StartAsync begins background jobs and serves HTTP without blocking the
// caller.
func (a *Application) StartAsync() error {
	if err := a.Jobs.Start(); err != nil {
		return fmt.Errorf("failed to start background jobs: %w", err)
	}

	go func() {
		addr := ":" + a.Config.AppPort
		a.Logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := a.Fiber.Listen(addr); err != nil {
			a.Logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()

	return nil
}

// Shutdown stops jobs, drains the HTTP server and closes the database.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Jobs.Stop()

	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		a.Logger.Error("Error shutting down HTTP server", slog.Any("error", err))
	}

	if err := a.DBManager.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
