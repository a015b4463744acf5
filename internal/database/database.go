// Package database manages the sqlite connection and schema migrations.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reactionlens/internal/config"
	"reactionlens/internal/events"
)

// Manager owns the gorm connection for the lifetime of the process.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

// NewManager creates a database manager. Call Init before use.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Init opens the sqlite database, enables WAL and sizes the pool. In-memory
// databases (test) skip directory creation.
func (m *Manager) Init() error {
	path := m.cfg.GetDatabasePath()
	if !isMemoryDSN(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if m.cfg.IsDevelopment() {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	if isMemoryDSN(path) {
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(m.cfg.GetMaxIdleConns())

	m.db = db
	m.logger.Info("Database ready", slog.String("path", path))
	return nil
}

// GetConnection returns the live gorm handle, or nil before Init.
func (m *Manager) GetConnection() *gorm.DB {
	return m.db
}

// Migrate creates or updates the schema inside one transaction.
func (m *Manager) Migrate() error {
	if m.db == nil {
		return gorm.ErrInvalidDB
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&events.Dataset{},
			&events.Event{},
		)
	})
	if err != nil {
		m.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	m.logger.Info("Database migration completed successfully")
	return nil
}

// Close releases the underlying pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || filepath.Base(path) == ":memory:" ||
		len(path) >= 5 && path[:5] == "file:"
}
