package http

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reactionlens/internal/analytics"
	"reactionlens/internal/events"
)

var titleCaser = cases.Title(language.English)

// CreateDatasetAction handles a multipart CSV upload: parse, normalize,
// persist, then run the full pipeline and cache its result.
func (s *Server) CreateDatasetAction(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file upload",
			"code":  "MISSING_FILE",
		})
	}

	maxBytes := int64(s.cfg.MaxUploadSizeInMb) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return c.Status(http.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "file too large",
			"code":  "FILE_TOO_LARGE",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open upload", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read upload",
			"code":  "UPLOAD_READ_ERROR",
		})
	}
	defer f.Close()

	header, rows, err := events.ReadCSV(f)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_CSV",
		})
	}

	evs, report, err := events.Normalize(header, rows)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_DATA",
		})
	}

	name := displayName(fileHeader.Filename)
	ds, err := events.CreateDataset(s.db, name, evs, report)
	if err != nil {
		s.logger.Error("Failed to persist dataset", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store dataset",
			"code":  "STORAGE_ERROR",
		})
	}

	result := analytics.Process(evs, s.pipelineOptions())
	s.cache.Set(ds.PublicID, result)

	s.logger.Info("Dataset created",
		slog.String("dataset", ds.PublicID),
		slog.Int("rows", report.KeptRows),
		slog.Int("dropped", report.DroppedRows))

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"dataset": ds,
		"report":  report,
	})
}

// ListDatasetsAction returns all datasets, newest first.
func (s *Server) ListDatasetsAction(c *fiber.Ctx) error {
	list, err := events.ListDatasets(s.db)
	if err != nil {
		s.logger.Error("Failed to list datasets", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list datasets",
			"code":  "STORAGE_ERROR",
		})
	}
	return c.JSON(fiber.Map{"datasets": list})
}

// DeleteDatasetAction removes a dataset, its events and its cached result.
func (s *Server) DeleteDatasetAction(c *fiber.Ctx) error {
	publicID := c.Params("id")
	if err := events.DeleteDataset(s.db, publicID); err != nil {
		var notFound *events.DatasetNotFoundError
		if errors.As(err, &notFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": notFound.Error(),
				"code":  "DATASET_NOT_FOUND",
			})
		}
		s.logger.Error("Failed to delete dataset", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete dataset",
			"code":  "STORAGE_ERROR",
		})
	}
	s.cache.Delete(publicID)
	return c.JSON(fiber.Map{"deleted": publicID})
}

// displayName turns an uploaded filename into a readable dataset name, e.g.
// "q3_survey-results.csv" becomes "Q3 Survey Results".
func displayName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled Dataset"
	}
	return titleCaser.String(base)
}
