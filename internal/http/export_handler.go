package http

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"reactionlens/internal/analytics"
	"reactionlens/internal/events"
)

// ExportJSONAction dumps the full pipeline result for a dataset.
func (s *Server) ExportJSONAction(c *fiber.Ctx) error {
	ds, res, err := s.datasetWithResult(c)
	if err != nil {
		return s.exportError(c, err)
	}
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.json"`, ds.PublicID))
	return c.JSON(res)
}

// ExportDaysCSVAction writes one row per day with the core daily metrics.
func (s *Server) ExportDaysCSVAction(c *fiber.Ctx) error {
	ds, res, err := s.datasetWithResult(c)
	if err != nil {
		return s.exportError(c, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"day", "total", "wow", "curious", "boring", "new", "returning", "returning_rate", "sentiment"})
	for _, dm := range res.Metrics {
		w.Write([]string{
			dm.Day,
			fmt.Sprintf("%d", dm.Total),
			fmt.Sprintf("%d", dm.Counts.Wow),
			fmt.Sprintf("%d", dm.Counts.Curious),
			fmt.Sprintf("%d", dm.Counts.Boring),
			fmt.Sprintf("%d", dm.NewCount),
			fmt.Sprintf("%d", dm.ReturningCount),
			fmt.Sprintf("%.4f", dm.ReturningRate),
			fmt.Sprintf("%.4f", dm.Sentiment),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return s.exportError(c, err)
	}

	return s.sendCSV(c, ds.PublicID+"-days.csv", buf.Bytes())
}

// ExportEventsCSVAction writes the stored normalized events back out.
func (s *Server) ExportEventsCSVAction(c *fiber.Ctx) error {
	publicID := c.Params("id")
	ds, err := events.GetDataset(s.db, publicID)
	if err != nil {
		return s.exportError(c, err)
	}
	evs, err := events.GetEvents(s.db, ds.ID)
	if err != nil {
		return s.exportError(c, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"timestamp", "emoji", "label", "user_id"})
	for _, ev := range evs {
		w.Write([]string{
			ev.Timestamp.UTC().Format(time.RFC3339),
			ev.Emoji.Glyph(),
			ev.Emoji.Label(),
			ev.UserID,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return s.exportError(c, err)
	}

	return s.sendCSV(c, ds.PublicID+"-events.csv", buf.Bytes())
}

func (s *Server) datasetWithResult(c *fiber.Ctx) (*events.Dataset, *analytics.Result, error) {
	ds, err := events.GetDataset(s.db, c.Params("id"))
	if err != nil {
		return nil, nil, err
	}
	res, err := s.resultFor(ds)
	if err != nil {
		return nil, nil, err
	}
	return ds, res, nil
}

func (s *Server) sendCSV(c *fiber.Ctx, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

func (s *Server) exportError(c *fiber.Ctx, err error) error {
	var notFound *events.DatasetNotFoundError
	if errors.As(err, &notFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": notFound.Error(),
			"code":  "DATASET_NOT_FOUND",
		})
	}
	s.logger.Error("Export failed", slog.Any("error", err))
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "export failed",
		"code":  "EXPORT_ERROR",
	})
}
