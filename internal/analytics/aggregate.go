package analytics

import (
	"sort"
	"time"

	"reactionlens/internal/events"
)

// EmojiCounts holds per-emoji tallies aligned with events.TrackedEmojis.
type EmojiCounts struct {
	Wow     int `json:"wow"`
	Curious int `json:"curious"`
	Boring  int `json:"boring"`
}

func (c *EmojiCounts) add(e events.Emoji) {
	switch e {
	case events.EmojiWow:
		c.Wow++
	case events.EmojiCurious:
		c.Curious++
	case events.EmojiBoring:
		c.Boring++
	}
}

// Get returns the count for a tracked emoji.
func (c EmojiCounts) Get(e events.Emoji) int {
	switch e {
	case events.EmojiWow:
		return c.Wow
	case events.EmojiCurious:
		return c.Curious
	case events.EmojiBoring:
		return c.Boring
	default:
		return 0
	}
}

// Total returns the sum over tracked emojis.
func (c EmojiCounts) Total() int {
	return c.Wow + c.Curious + c.Boring
}

// DayShares holds per-emoji fractions of a day's total.
type DayShares struct {
	Wow     float64 `json:"wow"`
	Curious float64 `json:"curious"`
	Boring  float64 `json:"boring"`
}

// DayMetrics is the derived aggregate for one calendar day. Recomputed
// wholesale on every run, never mutated incrementally.
type DayMetrics struct {
	Day                string         `json:"day"`
	Total              int            `json:"total"`
	Counts             EmojiCounts    `json:"counts"`
	CountsNew          EmojiCounts    `json:"counts_new"`
	CountsReturning    EmojiCounts    `json:"counts_returning"`
	NewCount           int            `json:"new_count"`
	ReturningCount     int            `json:"returning_count"`
	ReturningRate      float64        `json:"returning_rate"`
	Sentiment          float64        `json:"sentiment"`
	SentimentNew       float64        `json:"sentiment_new"`
	SentimentReturning float64        `json:"sentiment_returning"`
	Events             []events.Event `json:"-"`
}

// UserProfile tracks one user's chronological activity across the dataset.
type UserProfile struct {
	UserID string
	Count  int
	Events []events.Event // chronological
}

// StackedSeries carries one per-day count series per tracked emoji, each
// index-aligned with the day list.
type StackedSeries struct {
	Wow     []int `json:"wow"`
	Curious []int `json:"curious"`
	Boring  []int `json:"boring"`
}

// Aggregation is the output of the daily aggregation stage. Every per-day
// slice is index-aligned with Days.
type Aggregation struct {
	Days    []string
	PerDay  map[string]*DayMetrics
	Metrics []*DayMetrics

	Stacked            StackedSeries
	StackedNew         StackedSeries
	StackedReturning   StackedSeries
	SentimentSeries    []float64
	SentimentNew       []float64
	SentimentReturning []float64
	ReturningRate      []float64
	DailyTotals        []int
	Shares             []DayShares

	Users       map[string]*UserProfile
	UniqueUsers int
	Repeaters   int

	TotalEvents int
	MinTime     time.Time
	MaxTime     time.Time
}

// Aggregate groups events by UTC day and folds over the days in order,
// splitting new vs. returning against the seen-before set as of the start of
// each day. User ids are only marked seen after a day's full tally, so a
// same-day pair of events can never count each other as returning, and a
// user's first day is always new.
func Aggregate(evs []events.Event) *Aggregation {
	sorted := make([]events.Event, len(evs))
	copy(sorted, evs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	byDay := make(map[string][]events.Event)
	users := make(map[string]*UserProfile)
	agg := &Aggregation{
		PerDay:      make(map[string]*DayMetrics),
		Users:       users,
		TotalEvents: len(sorted),
	}

	for _, ev := range sorted {
		day := ev.DayKey()
		byDay[day] = append(byDay[day], ev)
		if agg.MinTime.IsZero() || ev.Timestamp.Before(agg.MinTime) {
			agg.MinTime = ev.Timestamp
		}
		if ev.Timestamp.After(agg.MaxTime) {
			agg.MaxTime = ev.Timestamp
		}
		if ev.UserID != "" {
			p := users[ev.UserID]
			if p == nil {
				p = &UserProfile{UserID: ev.UserID}
				users[ev.UserID] = p
			}
			p.Count++
			p.Events = append(p.Events, ev)
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	agg.Days = days

	seenBefore := make(map[string]struct{})
	for _, day := range days {
		dayEvents := byDay[day]
		dm := tallyDay(day, dayEvents, seenBefore)

		agg.PerDay[day] = dm
		agg.Metrics = append(agg.Metrics, dm)

		agg.Stacked.Wow = append(agg.Stacked.Wow, dm.Counts.Wow)
		agg.Stacked.Curious = append(agg.Stacked.Curious, dm.Counts.Curious)
		agg.Stacked.Boring = append(agg.Stacked.Boring, dm.Counts.Boring)
		agg.StackedNew.Wow = append(agg.StackedNew.Wow, dm.CountsNew.Wow)
		agg.StackedNew.Curious = append(agg.StackedNew.Curious, dm.CountsNew.Curious)
		agg.StackedNew.Boring = append(agg.StackedNew.Boring, dm.CountsNew.Boring)
		agg.StackedReturning.Wow = append(agg.StackedReturning.Wow, dm.CountsReturning.Wow)
		agg.StackedReturning.Curious = append(agg.StackedReturning.Curious, dm.CountsReturning.Curious)
		agg.StackedReturning.Boring = append(agg.StackedReturning.Boring, dm.CountsReturning.Boring)

		agg.SentimentSeries = append(agg.SentimentSeries, dm.Sentiment)
		agg.SentimentNew = append(agg.SentimentNew, dm.SentimentNew)
		agg.SentimentReturning = append(agg.SentimentReturning, dm.SentimentReturning)
		agg.ReturningRate = append(agg.ReturningRate, dm.ReturningRate)
		agg.DailyTotals = append(agg.DailyTotals, dm.Total)

		total := float64(dm.Total)
		if total == 0 {
			total = 1
		}
		agg.Shares = append(agg.Shares, DayShares{
			Wow:     float64(dm.Counts.Wow) / total,
			Curious: float64(dm.Counts.Curious) / total,
			Boring:  float64(dm.Counts.Boring) / total,
		})

		// Mark users seen only after the day's full tally
		for _, ev := range dayEvents {
			if ev.UserID != "" {
				seenBefore[ev.UserID] = struct{}{}
			}
		}
	}

	agg.UniqueUsers = len(users)
	for _, p := range users {
		if p.Count > 1 {
			agg.Repeaters++
		}
	}

	return agg
}

func tallyDay(day string, dayEvents []events.Event, seenBefore map[string]struct{}) *DayMetrics {
	dm := &DayMetrics{Day: day, Total: len(dayEvents), Events: dayEvents}

	var sentSum float64
	var sentN int
	var sentSumNew float64
	var sentNNew int
	var sentSumRet float64
	var sentNRet int

	for _, ev := range dayEvents {
		dm.Counts.add(ev.Emoji)
		weight, hasWeight := ev.Emoji.Weight()
		if hasWeight {
			sentSum += weight
			sentN++
		}

		_, returning := seenBefore[ev.UserID]
		returning = returning && ev.UserID != ""
		if returning {
			dm.ReturningCount++
			dm.CountsReturning.add(ev.Emoji)
			if hasWeight {
				sentSumRet += weight
				sentNRet++
			}
		} else {
			dm.CountsNew.add(ev.Emoji)
			if hasWeight {
				sentSumNew += weight
				sentNNew++
			}
		}
	}

	dm.NewCount = dm.Total - dm.ReturningCount
	if dm.Total > 0 {
		dm.ReturningRate = float64(dm.ReturningCount) / float64(dm.Total)
	}
	if sentN > 0 {
		dm.Sentiment = sentSum / float64(sentN)
	}
	if sentNNew > 0 {
		dm.SentimentNew = sentSumNew / float64(sentNNew)
	}
	if sentNRet > 0 {
		dm.SentimentReturning = sentSumRet / float64(sentNRet)
	}

	return dm
}
