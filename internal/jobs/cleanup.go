package jobs

import (
	"log/slog"
	"time"

	"reactionlens/internal/config"
	"reactionlens/internal/database"
	"reactionlens/internal/events"
)

// CleanupJob removes datasets past the retention window, events included.
type CleanupJob struct {
	dbManager *database.Manager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.Manager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run deletes datasets older than the configured retention period.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.DatasetRetentionDays
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old datasets",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoff))

	deleted, err := events.DeleteDatasetsOlderThan(j.dbManager.GetConnection(), cutoff)
	if err != nil {
		j.logger.Error("Failed to clean up old datasets", slog.Any("error", err))
		return err
	}

	if deleted == 0 {
		j.logger.Debug("No old datasets to clean up")
		return nil
	}

	j.logger.Info("Cleaned up old datasets",
		slog.Int("deleted_count", deleted),
		slog.Int("retention_days", retentionDays))
	return nil
}
