// Package seeder generates synthetic reaction datasets for development. The
// output has enough structure (weekday bias, returning users, one injected
// spike day) that every dashboard panel shows something meaningful.
package seeder

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"

	"reactionlens/internal/events"
)

// Seeder handles the data seeding process.
type Seeder struct {
	DB         *gorm.DB
	Logger     *slog.Logger
	Days       int
	UsersCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, logger *slog.Logger, days, usersCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 45
	}
	if usersCount <= 0 {
		usersCount = 120
	}
	return &Seeder{DB: db, Logger: logger, Days: days, UsersCount: usersCount}
}

// Seed creates one synthetic dataset and returns it.
func (s *Seeder) Seed(name string) (*events.Dataset, error) {
	start := time.Now()
	s.Logger.Info("Seeding synthetic dataset...",
		slog.String("name", name),
		slog.Int("days", s.Days),
		slog.Int("users", s.UsersCount))

	evs := s.generate()
	report := events.Report{TotalRows: len(evs), KeptRows: len(evs)}

	ds, err := events.CreateDataset(s.DB, name, evs, report)
	if err != nil {
		return nil, fmt.Errorf("persist seeded dataset: %w", err)
	}

	s.Logger.Info("Seeding completed",
		slog.String("dataset", ds.PublicID),
		slog.Int("events", len(evs)),
		slog.Duration("elapsed", time.Since(start)))
	return ds, nil
}

func (s *Seeder) generate() []events.Event {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	startDay := end.AddDate(0, 0, -(s.Days - 1))

	// A third of the population keeps coming back; the rest react once or
	// twice and disappear.
	loyal := s.UsersCount / 3
	spikeDay := s.Days * 3 / 4

	var out []events.Event
	for dayIdx := 0; dayIdx < s.Days; dayIdx++ {
		day := startDay.AddDate(0, 0, dayIdx)

		base := 8 + rand.IntN(6)
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
			base = base / 2
		case time.Tuesday, time.Wednesday:
			base += 4
		}
		if dayIdx == spikeDay {
			base *= 5
		}

		for i := 0; i < base; i++ {
			userIdx := rand.IntN(s.UsersCount)
			if i%3 == 0 {
				userIdx = rand.IntN(loyal + 1)
			}

			hour := workingHour()
			ts := day.Add(time.Duration(hour)*time.Hour +
				time.Duration(rand.IntN(60))*time.Minute)

			out = append(out, events.Event{
				Emoji:     pickEmoji(dayIdx, spikeDay),
				Timestamp: ts,
				UserID:    fmt.Sprintf("user-%03d", userIdx),
			})
		}
	}
	return out
}

// workingHour skews timestamps toward business hours.
func workingHour() int {
	if rand.IntN(10) < 7 {
		return 9 + rand.IntN(9)
	}
	return rand.IntN(24)
}

func pickEmoji(dayIdx, spikeDay int) events.Emoji {
	roll := rand.IntN(100)
	if dayIdx == spikeDay {
		// Spike days trend euphoric so the anomaly panels light up.
		switch {
		case roll < 70:
			return events.EmojiWow
		case roll < 90:
			return events.EmojiCurious
		default:
			return events.EmojiBoring
		}
	}
	switch {
	case roll < 40:
		return events.EmojiWow
	case roll < 75:
		return events.EmojiCurious
	default:
		return events.EmojiBoring
	}
}
