package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"reactionlens/internal/analytics"
	"reactionlens/internal/events"
	"reactionlens/internal/pkg/async"
)

// DashboardResponse is the full dashboard payload for one dataset.
type DashboardResponse struct {
	Dataset     *events.Dataset         `json:"dataset"`
	Result      *analytics.Result       `json:"result"`
	Leaderboard []events.LeaderboardRow `json:"leaderboard_sql"`
	Recent      []events.Event          `json:"recent_events_sql"`
}

// DashboardAction returns the cached pipeline result for a dataset, alongside
// the raw-SQL leaderboard and recent events. A cache miss (e.g. after a
// restart) recomputes from the stored events. The independent pieces are
// assembled via the worker pool.
func (s *Server) DashboardAction(c *fiber.Ctx) error {
	publicID := c.Params("id")
	ds, err := events.GetDataset(s.db, publicID)
	if err != nil {
		var notFound *events.DatasetNotFoundError
		if errors.As(err, &notFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": notFound.Error(),
				"code":  "DATASET_NOT_FOUND",
			})
		}
		s.logger.Error("Failed to load dataset", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load dataset",
			"code":  "STORAGE_ERROR",
		})
	}

	tasks := []async.Task{
		{
			Name: "result",
			Execute: func() (any, error) {
				return s.resultFor(ds)
			},
		},
		{
			Name: "leaderboard",
			Execute: func() (any, error) {
				return events.GetLeaderboard(s.db, ds.ID, s.cfg.LeaderboardSize)
			},
		},
		{
			Name: "recent",
			Execute: func() (any, error) {
				return events.GetRecentEvents(s.db, ds.ID, s.cfg.RecentEvents)
			},
		},
	}

	pool := async.NewPool(len(tasks))
	results := pool.Execute(c.Context(), tasks)

	resp := DashboardResponse{Dataset: ds}
	for name, r := range results {
		if r.Err != nil {
			s.logger.Error("Dashboard task failed",
				slog.String("task", name), slog.Any("error", r.Err))
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to assemble dashboard",
				"code":  "DASHBOARD_ERROR",
			})
		}
		switch name {
		case "result":
			resp.Result = r.Data.(*analytics.Result)
		case "leaderboard":
			resp.Leaderboard = r.Data.([]events.LeaderboardRow)
		case "recent":
			resp.Recent = r.Data.([]events.Event)
		}
	}

	return c.JSON(resp)
}

// resultFor returns the cached result or recomputes it from storage.
func (s *Server) resultFor(ds *events.Dataset) (*analytics.Result, error) {
	if res, ok := s.cache.Get(ds.PublicID); ok {
		return res, nil
	}

	evs, err := events.GetEvents(s.db, ds.ID)
	if err != nil {
		return nil, err
	}
	res := analytics.Process(evs, s.pipelineOptions())
	s.cache.Set(ds.PublicID, res)
	return res, nil
}
