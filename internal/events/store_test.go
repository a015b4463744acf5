package events_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reactionlens/internal/events"
	"reactionlens/internal/testsupport"
)

func TestCreateAndGetDataset(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	evs := []events.Event{
		testsupport.Reaction(events.EmojiWow, testsupport.Day(2, 10), "a"),
		testsupport.Reaction(events.EmojiBoring, testsupport.Day(0, 9), "b"),
		testsupport.Reaction(events.EmojiCurious, testsupport.Day(5, 14), "a"),
	}
	report := events.Report{TotalRows: 4, KeptRows: 3, DroppedRows: 1}

	ds, err := events.CreateDataset(db, "Q1 Survey", evs, report)
	require.NoError(t, err)
	assert.NotEmpty(t, ds.PublicID)
	assert.Equal(t, "2024-03-01", ds.FirstDay)
	assert.Equal(t, "2024-03-06", ds.LastDay)
	assert.Equal(t, 3, ds.RowCount)
	assert.Equal(t, 1, ds.DroppedRows)

	got, err := events.GetDataset(db, ds.PublicID)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, got.ID)
	assert.Equal(t, "Q1 Survey", got.Name)

	stored, err := events.GetEvents(db, ds.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	// Chronological regardless of insert order.
	for i := 1; i < len(stored); i++ {
		assert.True(t, stored[i].Timestamp.After(stored[i-1].Timestamp))
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	_, err := events.GetDataset(db, "missing-id")
	var notFound *events.DatasetNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing-id", notFound.PublicID)
}

func TestListDatasetsNewestFirst(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	first, err := events.CreateDataset(db, "older", nil, events.Report{})
	require.NoError(t, err)
	db.Model(first).Update("created_at", time.Now().Add(-time.Hour))

	second, err := events.CreateDataset(db, "newer", nil, events.Report{})
	require.NoError(t, err)

	list, err := events.ListDatasets(db)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.PublicID, list[0].PublicID)
	assert.Equal(t, first.PublicID, list[1].PublicID)
}

func TestDeleteDatasetCascades(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	evs := []events.Event{testsupport.Reaction(events.EmojiWow, testsupport.Day(0, 10), "a")}
	ds, err := events.CreateDataset(db, "doomed", evs, events.Report{KeptRows: 1})
	require.NoError(t, err)

	require.NoError(t, events.DeleteDataset(db, ds.PublicID))

	_, err = events.GetDataset(db, ds.PublicID)
	var notFound *events.DatasetNotFoundError
	assert.True(t, errors.As(err, &notFound))

	var count int64
	db.Model(&events.Event{}).Where("dataset_id = ?", ds.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	err = events.DeleteDataset(db, "missing-id")
	assert.True(t, errors.As(err, &notFound))
}

func TestGetLeaderboard(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	evs := []events.Event{
		testsupport.Reaction(events.EmojiWow, testsupport.Day(0, 9), "heavy"),
		testsupport.Reaction(events.EmojiWow, testsupport.Day(1, 9), "heavy"),
		testsupport.Reaction(events.EmojiCurious, testsupport.Day(2, 9), "heavy"),
		testsupport.Reaction(events.EmojiWow, testsupport.Day(0, 10), "light"),
		testsupport.Reaction(events.EmojiBoring, testsupport.Day(3, 10), "light"),
		testsupport.Reaction(events.EmojiWow, testsupport.Day(0, 11), "once"),
		testsupport.Reaction(events.EmojiWow, testsupport.Day(0, 12), ""),
		testsupport.Reaction(events.EmojiWow, testsupport.Day(1, 12), ""),
	}
	ds, err := events.CreateDataset(db, "board", evs, events.Report{KeptRows: len(evs)})
	require.NoError(t, err)

	rows, err := events.GetLeaderboard(db, ds.ID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2, "single-visit and anonymous users are excluded")

	assert.Equal(t, "heavy", rows[0].UserID)
	assert.Equal(t, 3, rows[0].Count)
	assert.Equal(t, "2024-03-01", rows[0].FirstDay)
	assert.Equal(t, "2024-03-03", rows[0].LastDay)
	assert.Equal(t, "light", rows[1].UserID)

	capped, err := events.GetLeaderboard(db, ds.ID, 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func TestGetRecentEvents(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	var evs []events.Event
	for day := 0; day < 5; day++ {
		evs = append(evs, testsupport.Reaction(events.EmojiCurious, testsupport.Day(day, 12), "u"))
	}
	ds, err := events.CreateDataset(db, "recent", evs, events.Report{KeptRows: len(evs)})
	require.NoError(t, err)

	recent, err := events.GetRecentEvents(db, ds.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "2024-03-05", recent[0].DayKey())
	assert.Equal(t, "2024-03-03", recent[2].DayKey())
}

func TestDeleteDatasetsOlderThan(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	stale, err := events.CreateDataset(db, "stale",
		[]events.Event{testsupport.Reaction(events.EmojiWow, testsupport.Day(0, 10), "a")},
		events.Report{KeptRows: 1})
	require.NoError(t, err)
	db.Model(stale).Update("created_at", time.Now().AddDate(0, 0, -90))

	fresh, err := events.CreateDataset(db, "fresh", nil, events.Report{})
	require.NoError(t, err)

	deleted, err := events.DeleteDatasetsOlderThan(db, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = events.GetDataset(db, stale.PublicID)
	var notFound *events.DatasetNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = events.GetDataset(db, fresh.PublicID)
	assert.NoError(t, err)

	var orphaned int64
	db.Model(&events.Event{}).Where("dataset_id = ?", stale.ID).Count(&orphaned)
	assert.Equal(t, int64(0), orphaned)

	deleted, err = events.DeleteDatasetsOlderThan(db, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}
