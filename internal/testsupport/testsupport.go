// Package testsupport provides shared fixtures for package tests: in-memory
// sqlite databases, a quiet logger and event builders.
package testsupport

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reactionlens/internal/events"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

func allModels() []any {
	return []any{
		&events.Dataset{},
		&events.Event{},
	}
}

// SetupTestDB creates a migrated in-memory database. Uses a named database
// with cache=shared so multiple connections within a test see the same data;
// cached by root test name so setup helpers called from subtests share it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// GetLogger returns a logger that discards everything.
func GetLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Day returns a UTC timestamp on the given day offset from a fixed base date,
// at the given hour. Offset 0 is 2024-03-01.
func Day(offset, hour int) time.Time {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset).Add(time.Duration(hour) * time.Hour)
}

// Reaction builds an event for tests.
func Reaction(emoji events.Emoji, ts time.Time, userID string) events.Event {
	return events.Event{Emoji: emoji, Timestamp: ts, UserID: userID}
}

// Series builds one event per day from day weights: each entry w spawns an
// event with Wow when w > 0, Boring when w < 0, Curious otherwise, all from
// distinct users.
func Series(weights ...int) []events.Event {
	out := make([]events.Event, 0, len(weights))
	for i, w := range weights {
		emoji := events.EmojiCurious
		if w > 0 {
			emoji = events.EmojiWow
		} else if w < 0 {
			emoji = events.EmojiBoring
		}
		out = append(out, Reaction(emoji, Day(i, 12), fmt.Sprintf("u%d", i)))
	}
	return out
}
