package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reactionlens/internal/config"
	"reactionlens/internal/events"
	"reactionlens/internal/testsupport"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:  config.Test,
		DatabaseName: fmt.Sprintf("file:db_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano()),
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(memoryConfig(t), testsupport.GetLogger())
	assert.Nil(t, m.GetConnection(), "no connection before Init")

	require.NoError(t, m.Init())
	require.NotNil(t, m.GetConnection())
	require.NoError(t, m.Migrate())

	// The schema is usable after migration.
	db := m.GetConnection()
	require.NoError(t, db.Create(&events.Dataset{PublicID: "x", Name: "probe"}).Error)
	var count int64
	db.Model(&events.Dataset{}).Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, m.Close())
}

func TestMigrateBeforeInit(t *testing.T) {
	m := NewManager(memoryConfig(t), testsupport.GetLogger())
	assert.ErrorIs(t, m.Migrate(), gorm.ErrInvalidDB)
}

func TestIsMemoryDSN(t *testing.T) {
	assert.True(t, isMemoryDSN(":memory:"))
	assert.True(t, isMemoryDSN("file:test?mode=memory"))
	assert.False(t, isMemoryDSN("storage/reactionlens-test.db"))
}
