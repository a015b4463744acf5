// Package http exposes the dataset and dashboard API over fiber.
package http

import (
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"reactionlens/internal/analytics"
	"reactionlens/internal/config"
)

// Server wires the handlers to their dependencies.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	cache  *resultCache
}

// NewServer creates the handler set.
func NewServer(cfg *config.Config, logger *slog.Logger, db *gorm.DB) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		cache:  newResultCache(),
	}
}

// RegisterRoutes mounts all API routes on the app.
func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Get("/health", s.HealthAction)

	api := app.Group("/api")
	api.Post("/datasets", s.CreateDatasetAction)
	api.Get("/datasets", s.ListDatasetsAction)
	api.Delete("/datasets/:id", s.DeleteDatasetAction)
	api.Get("/datasets/:id/dashboard", s.DashboardAction)
	api.Get("/datasets/:id/export/json", s.ExportJSONAction)
	api.Get("/datasets/:id/export/days.csv", s.ExportDaysCSVAction)
	api.Get("/datasets/:id/export/events.csv", s.ExportEventsCSVAction)
}

func (s *Server) pipelineOptions() analytics.Options {
	return analytics.Options{
		ForecastDays:    s.cfg.ForecastDays,
		LeaderboardSize: s.cfg.LeaderboardSize,
		RecentEvents:    s.cfg.RecentEvents,
	}
}

// resultCache holds the last successful pipeline run per dataset. Results are
// immutable, so a plain pointer swap under the lock is enough.
type resultCache struct {
	mu      sync.RWMutex
	results map[string]*analytics.Result
}

func newResultCache() *resultCache {
	return &resultCache{results: make(map[string]*analytics.Result)}
}

func (c *resultCache) Get(publicID string) (*analytics.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.results[publicID]
	return res, ok
}

func (c *resultCache) Set(publicID string, res *analytics.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[publicID] = res
}

func (c *resultCache) Delete(publicID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, publicID)
}
