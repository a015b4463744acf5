package analytics

import (
	"sort"

	"reactionlens/internal/events"
)

// Options tunes a pipeline run. Zero values fall back to the defaults below.
type Options struct {
	ForecastDays    int
	LeaderboardSize int
	RecentEvents    int
	TopInsights     int
}

const (
	defaultForecastDays    = 7
	defaultLeaderboardSize = 20
	defaultRecentEvents    = 100
	defaultTopInsights     = 5
	controlBandWindow      = 7
	controlBandK           = 3.0
	trendRecentWindow      = 7
)

func (o Options) withDefaults() Options {
	if o.ForecastDays <= 0 {
		o.ForecastDays = defaultForecastDays
	}
	if o.LeaderboardSize <= 0 {
		o.LeaderboardSize = defaultLeaderboardSize
	}
	if o.RecentEvents <= 0 {
		o.RecentEvents = defaultRecentEvents
	}
	if o.TopInsights <= 0 {
		o.TopInsights = defaultTopInsights
	}
	return o
}

// EmojiSummary describes one share series: its average level, extremes and
// recent drift.
type EmojiSummary struct {
	Label     string  `json:"label"`
	Avg       float64 `json:"avg"`
	PeakDay   string  `json:"peak_day"`
	PeakValue float64 `json:"peak_value"`
	LowDay    string  `json:"low_day"`
	LowValue  float64 `json:"low_value"`
	RecentAvg float64 `json:"recent_avg"`
	Change    float64 `json:"change"`
}

// UserStory is one leaderboard row for a repeat user.
type UserStory struct {
	UserID     string      `json:"user_id"`
	Count      int         `json:"count"`
	FirstDay   string      `json:"first_day"`
	LastDay    string      `json:"last_day"`
	ActiveDays int         `json:"active_days"`
	Mix        EmojiCounts `json:"mix"`
	Sentiment  float64     `json:"sentiment"`
}

// SummaryStats condenses the sentiment series for the header panel.
type SummaryStats struct {
	Overall  float64   `json:"overall"`
	Recent   float64   `json:"recent"`
	Median   float64   `json:"median"`
	StdDev   float64   `json:"std_dev"`
	Smoothed []float64 `json:"smoothed"`
}

// Result is one complete pipeline run over a dataset's events. It is
// immutable once built; every per-day slice is index-aligned with Days.
type Result struct {
	Days    []string      `json:"days"`
	Metrics []*DayMetrics `json:"metrics"`

	Stacked            StackedSeries `json:"stacked"`
	StackedNew         StackedSeries `json:"stacked_new"`
	StackedReturning   StackedSeries `json:"stacked_returning"`
	SentimentSeries    []float64     `json:"sentiment_series"`
	SentimentNew       []float64     `json:"sentiment_new"`
	SentimentReturning []float64     `json:"sentiment_returning"`
	ReturningRate      []float64     `json:"returning_rate"`
	DailyTotals        []int         `json:"daily_totals"`
	Shares             []DayShares   `json:"shares"`

	OutliersZScore []OutlierRecord   `json:"outliers_zscore"`
	OutliersMAD    []OutlierRecord   `json:"outliers_mad"`
	Combined       []CombinedAnomaly `json:"combined_anomalies"`
	Bands          ControlBands      `json:"control_bands"`

	Trend    TrendAnalysis `json:"trend"`
	Momentum Momentum      `json:"momentum"`
	Patterns Patterns      `json:"patterns"`

	Transitions TransitionAnalysis `json:"transitions"`
	Retention   Retention          `json:"retention"`
	Cohorts     CohortRetention    `json:"cohorts"`

	Forecast ForecastSet `json:"forecast"`

	Insights    []Insight        `json:"insights"`
	TopRanked   []Insight        `json:"top_insights"`
	Summary     ExecutiveSummary `json:"summary"`
	Stats       SummaryStats     `json:"stats"`
	EmojiTrends [3]EmojiSummary  `json:"emoji_trends"`
	Dayparts    Dayparts         `json:"dayparts"`

	Leaderboard []UserStory    `json:"leaderboard"`
	Recent      []events.Event `json:"recent_events"`

	TotalEvents int `json:"total_events"`
	UniqueUsers int `json:"unique_users"`
	Repeaters   int `json:"repeaters"`
}

// Process runs the whole pipeline over normalized events. It is a pure
// function of its inputs and touches no shared state, so callers can swap the
// returned Result into a cache atomically.
func Process(evs []events.Event, opts Options) *Result {
	opts = opts.withDefaults()
	agg := Aggregate(evs)

	res := &Result{
		Days:               agg.Days,
		Metrics:            agg.Metrics,
		Stacked:            agg.Stacked,
		StackedNew:         agg.StackedNew,
		StackedReturning:   agg.StackedReturning,
		SentimentSeries:    agg.SentimentSeries,
		SentimentNew:       agg.SentimentNew,
		SentimentReturning: agg.SentimentReturning,
		ReturningRate:      agg.ReturningRate,
		DailyTotals:        agg.DailyTotals,
		Shares:             agg.Shares,
		TotalEvents:        agg.TotalEvents,
		UniqueUsers:        agg.UniqueUsers,
		Repeaters:          agg.Repeaters,
	}

	res.OutliersZScore = DetectDayOutliersZScore(agg)
	res.OutliersMAD = DetectDayOutliersMAD(agg)
	res.Combined = MergeAnomalies(
		DetectAnomaliesZScore(agg.SentimentSeries, agg.Days, ZScoreThreshold),
		DetectAnomaliesMAD(agg.SentimentSeries, agg.Days, MADThreshold),
	)
	res.Bands = CalculateControlBands(agg.SentimentSeries, controlBandWindow, controlBandK)

	res.Trend = AnalyzeTrend(agg.SentimentSeries, trendRecentWindow)
	res.Momentum = CalculateMomentum(agg.SentimentSeries)
	res.Patterns = DetectPatterns(agg.SentimentSeries, agg.Days)

	res.Transitions = AnalyzeTransitions(agg.Users, agg.Days)
	res.Retention, res.Cohorts = AnalyzeRetention(agg.Users, agg.Days)

	res.Forecast = BuildForecastSet(agg.SentimentSeries, agg.Days, opts.ForecastDays)

	res.Insights = GenerateInsights(agg, res.Trend, res.Momentum, res.Combined, res.Patterns, res.Forecast)
	res.TopRanked = TopInsights(res.Insights, opts.TopInsights)
	res.Summary = SummarizeInsights(res.Insights)

	res.Stats = summarizeSentiment(agg.SentimentSeries)
	res.EmojiTrends = summarizeShares(agg)
	res.Dayparts = BuildDayparts(evs)

	res.Leaderboard = buildLeaderboard(agg, opts.LeaderboardSize)
	res.Recent = recentEvents(evs, opts.RecentEvents)

	return res
}

func summarizeSentiment(series []float64) SummaryStats {
	stats := SummaryStats{
		Overall:  Mean(series),
		Median:   Median(series),
		StdDev:   StdDev(series),
		Smoothed: MovingAverage(series, 7),
	}
	window := 7
	if window > len(series) {
		window = len(series)
	}
	if window > 0 {
		stats.Recent = Mean(series[len(series)-window:])
	}
	return stats
}

func summarizeShares(agg *Aggregation) [3]EmojiSummary {
	var out [3]EmojiSummary
	for i, e := range events.TrackedEmojis {
		shares := make([]float64, len(agg.Shares))
		for j, s := range agg.Shares {
			shares[j] = s.Get(e)
		}
		out[i] = summarizeSeries(e.Label(), shares, agg.Days)
	}
	return out
}

func summarizeSeries(label string, shares []float64, days []string) EmojiSummary {
	s := EmojiSummary{Label: label, Avg: Mean(shares)}
	if len(shares) == 0 {
		return s
	}

	peakIdx, lowIdx := 0, 0
	for i, v := range shares {
		if v > shares[peakIdx] {
			peakIdx = i
		}
		if v < shares[lowIdx] {
			lowIdx = i
		}
	}
	s.PeakDay, s.PeakValue = days[peakIdx], shares[peakIdx]
	s.LowDay, s.LowValue = days[lowIdx], shares[lowIdx]

	window := 7
	if window > len(shares) {
		window = len(shares)
	}
	s.RecentAvg = Mean(shares[len(shares)-window:])
	s.Change = s.RecentAvg - s.Avg
	return s
}

// Get returns the share for a tracked emoji.
func (s DayShares) Get(e events.Emoji) float64 {
	switch e {
	case events.EmojiWow:
		return s.Wow
	case events.EmojiCurious:
		return s.Curious
	case events.EmojiBoring:
		return s.Boring
	default:
		return 0
	}
}

func buildLeaderboard(agg *Aggregation, limit int) []UserStory {
	var repeat []*UserProfile
	for _, p := range agg.Users {
		if p.Count > 1 {
			repeat = append(repeat, p)
		}
	}
	sort.Slice(repeat, func(i, j int) bool {
		if repeat[i].Count != repeat[j].Count {
			return repeat[i].Count > repeat[j].Count
		}
		return repeat[i].UserID < repeat[j].UserID
	})
	if len(repeat) > limit {
		repeat = repeat[:limit]
	}

	out := make([]UserStory, 0, len(repeat))
	for _, p := range repeat {
		story := UserStory{UserID: p.UserID, Count: p.Count}
		activeDays := make(map[string]struct{})
		var sentSum float64
		var sentN int
		for _, ev := range p.Events {
			activeDays[ev.DayKey()] = struct{}{}
			story.Mix.add(ev.Emoji)
			if w, ok := ev.Emoji.Weight(); ok {
				sentSum += w
				sentN++
			}
		}
		if len(p.Events) > 0 {
			story.FirstDay = p.Events[0].DayKey()
			story.LastDay = p.Events[len(p.Events)-1].DayKey()
		}
		story.ActiveDays = len(activeDays)
		if sentN > 0 {
			story.Sentiment = sentSum / float64(sentN)
		}
		out = append(out, story)
	}
	return out
}

func recentEvents(evs []events.Event, limit int) []events.Event {
	sorted := make([]events.Event, len(evs))
	copy(sorted, evs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
