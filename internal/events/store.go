package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DatasetNotFoundError represents an error when a dataset is not found
type DatasetNotFoundError struct {
	PublicID string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset not found: %s", e.PublicID)
}

// NewDatasetNotFoundError creates a new DatasetNotFoundError
func NewDatasetNotFoundError(publicID string) *DatasetNotFoundError {
	return &DatasetNotFoundError{PublicID: publicID}
}

const insertBatchSize = 500

// CreateDataset persists a dataset and its normalized events in one
// transaction. The events get their DatasetID assigned here.
func CreateDataset(db *gorm.DB, name string, evs []Event, report Report) (*Dataset, error) {
	ds := &Dataset{
		PublicID:    uuid.NewString(),
		Name:        name,
		RowCount:    report.KeptRows,
		DroppedRows: report.DroppedRows,
	}
	if len(evs) > 0 {
		ds.FirstDay = evs[0].DayKey()
		ds.LastDay = evs[0].DayKey()
		for _, ev := range evs {
			if day := ev.DayKey(); day < ds.FirstDay {
				ds.FirstDay = day
			} else if day > ds.LastDay {
				ds.LastDay = day
			}
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ds).Error; err != nil {
			return fmt.Errorf("create dataset: %w", err)
		}
		for i := range evs {
			evs[i].DatasetID = ds.ID
		}
		if len(evs) > 0 {
			if err := tx.CreateInBatches(evs, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert events: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// GetDataset retrieves a dataset by its public id.
func GetDataset(db *gorm.DB, publicID string) (*Dataset, error) {
	var ds Dataset
	if err := db.Where("public_id = ?", publicID).First(&ds).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewDatasetNotFoundError(publicID)
		}
		return nil, fmt.Errorf("unexpected error querying dataset: %w", err)
	}
	return &ds, nil
}

// ListDatasets returns all datasets, newest first.
func ListDatasets(db *gorm.DB) ([]Dataset, error) {
	var out []Dataset
	if err := db.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDataset removes a dataset and its events.
func DeleteDataset(db *gorm.DB, publicID string) error {
	ds, err := GetDataset(db, publicID)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset_id = ?", ds.ID).Delete(&Event{}).Error; err != nil {
			return err
		}
		return tx.Delete(ds).Error
	})
}

// GetEvents loads a dataset's events in chronological order.
func GetEvents(db *gorm.DB, datasetID uint) ([]Event, error) {
	var out []Event
	if err := db.Where("dataset_id = ?", datasetID).Order("timestamp ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LeaderboardRow is one repeat user with their reaction tally.
type LeaderboardRow struct {
	UserID   string `json:"user_id"`
	Count    int    `json:"count"`
	FirstDay string `json:"first_day"`
	LastDay  string `json:"last_day"`
}

// GetLeaderboard returns the top repeat users by event count directly from
// sqlite, bypassing the in-memory pipeline.
func GetLeaderboard(db *gorm.DB, datasetID uint, limit int) ([]LeaderboardRow, error) {
	query := `
		SELECT user_id,
		       COUNT(*) AS count,
		       MIN(strftime('%Y-%m-%d', timestamp)) AS first_day,
		       MAX(strftime('%Y-%m-%d', timestamp)) AS last_day
		FROM events
		WHERE dataset_id = ? AND user_id != ''
		GROUP BY user_id
		HAVING COUNT(*) > 1
		ORDER BY count DESC, user_id ASC
		LIMIT ?
	`
	var rows []LeaderboardRow
	if err := db.Raw(query, datasetID, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRecentEvents returns the newest events for a dataset.
func GetRecentEvents(db *gorm.DB, datasetID uint, limit int) ([]Event, error) {
	var out []Event
	err := db.Where("dataset_id = ?", datasetID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDatasetsOlderThan removes datasets created before the cutoff along
// with their events, returning how many datasets went away.
func DeleteDatasetsOlderThan(db *gorm.DB, cutoff time.Time) (int, error) {
	var stale []Dataset
	if err := db.Where("created_at < ?", cutoff).Find(&stale).Error; err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, len(stale))
		for i, ds := range stale {
			ids[i] = ds.ID
		}
		if err := tx.Where("dataset_id IN ?", ids).Delete(&Event{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&Dataset{}).Error
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}
