package seeder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reactionlens/internal/events"
	"reactionlens/internal/testsupport"
)

func TestNewSeederDefaults(t *testing.T) {
	s := NewSeeder(nil, nil, 0, 0)
	assert.Equal(t, 45, s.Days)
	assert.Equal(t, 120, s.UsersCount)
	assert.NotNil(t, s.Logger)

	s = NewSeeder(nil, testsupport.GetLogger(), 10, 20)
	assert.Equal(t, 10, s.Days)
	assert.Equal(t, 20, s.UsersCount)
}

func TestSeedPersistsDataset(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	s := NewSeeder(db, testsupport.GetLogger(), 14, 30)

	ds, err := s.Seed("Demo Data")
	require.NoError(t, err)
	assert.Equal(t, "Demo Data", ds.Name)
	assert.NotEmpty(t, ds.PublicID)
	assert.Greater(t, ds.RowCount, 0)
	assert.LessOrEqual(t, ds.FirstDay, ds.LastDay)

	stored, err := events.GetEvents(db, ds.ID)
	require.NoError(t, err)
	assert.Len(t, stored, ds.RowCount)
}

func TestGenerateShape(t *testing.T) {
	s := NewSeeder(nil, testsupport.GetLogger(), 20, 40)
	evs := s.generate()
	require.NotEmpty(t, evs)

	days := map[string]int{}
	for _, ev := range evs {
		assert.NotEqual(t, events.EmojiUnknown, ev.Emoji)
		assert.True(t, strings.HasPrefix(ev.UserID, "user-"))
		days[ev.DayKey()]++
	}
	assert.Len(t, days, 20, "every day gets at least one event")

	// The spike day multiplies the base volume, so the busiest day is big
	// even when it lands on a weekend.
	busiest := 0
	for _, n := range days {
		if n > busiest {
			busiest = n
		}
	}
	assert.GreaterOrEqual(t, busiest, 20)
}

func TestWorkingHourRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		h := workingHour()
		assert.GreaterOrEqual(t, h, 0)
		assert.Less(t, h, 24)
	}
}

func TestPickEmojiTracked(t *testing.T) {
	for i := 0; i < 200; i++ {
		assert.NotEqual(t, events.EmojiUnknown, pickEmoji(i%10, 5))
	}
}
