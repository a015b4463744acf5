package analytics

import (
	"fmt"
	"math"
	"sort"
	"unicode"

	"reactionlens/internal/events"
)

// Insight priorities and types.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	InsightOverview     = "overview"
	InsightTrend        = "trend"
	InsightMomentum     = "momentum"
	InsightAnomaly      = "anomaly"
	InsightEngagement   = "engagement"
	InsightVolume       = "volume"
	InsightDistribution = "distribution"
	InsightConcern      = "concern"
	InsightForecast     = "forecast"
	InsightPattern      = "pattern"
)

// Insight is one natural-language finding about the dataset.
type Insight struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Icon     string `json:"icon"`
}

// insightInputs carries the already-computed stages the generators read from.
type insightInputs struct {
	agg      *Aggregation
	trend    TrendAnalysis
	momentum Momentum
	combined []CombinedAnomaly
	patterns Patterns
	forecast ForecastSet
}

// GenerateInsights runs every generator in a fixed order. Generators that
// have nothing to say contribute nothing.
func GenerateInsights(agg *Aggregation, trend TrendAnalysis, momentum Momentum, combined []CombinedAnomaly, patterns Patterns, forecast ForecastSet) []Insight {
	in := insightInputs{agg: agg, trend: trend, momentum: momentum, combined: combined, patterns: patterns, forecast: forecast}

	var out []Insight
	out = append(out, overviewInsight(in))
	out = append(out, sentimentInsights(in)...)
	out = append(out, anomalyInsights(in)...)
	out = append(out, engagementInsights(in)...)
	out = append(out, emojiInsights(in)...)
	out = append(out, forecastInsights(in)...)
	out = append(out, patternInsights(in)...)
	return out
}

func overviewInsight(in insightInputs) Insight {
	agg := in.agg
	avgPerDay := 0.0
	if len(agg.Days) > 0 {
		avgPerDay = float64(agg.TotalEvents) / float64(len(agg.Days))
	}
	return Insight{
		Type:     InsightOverview,
		Priority: PriorityHigh,
		Title:    "Dataset Overview",
		Message: fmt.Sprintf("Analyzed %d reactions from %d unique users over %d days (avg %.1f reactions/day).",
			agg.TotalEvents, agg.UniqueUsers, len(agg.Days), avgPerDay),
		Icon: "📊",
	}
}

func sentimentInsights(in insightInputs) []Insight {
	var out []Insight
	trend := in.trend

	if trend.Direction != TrendStable {
		strength := "moderately"
		priority := PriorityMedium
		if trend.Strength > 0.5 {
			strength = "strongly"
			priority = PriorityHigh
		}
		direction, relation, heading, icon := "negative", "lower", "Down", "📉"
		if trend.Direction == TrendIncreasing {
			direction, relation, heading, icon = "positive", "higher", "Up", "📈"
		}
		out = append(out, Insight{
			Type:     InsightTrend,
			Priority: priority,
			Title:    fmt.Sprintf("Sentiment Trending %s", heading),
			Message: fmt.Sprintf("Sentiment is %s trending %s. Recent average (%.2f) is %.1f%% %s than overall average (%.2f).",
				strength, direction, trend.RecentAvg, math.Abs(trend.ChangePercent), relation, trend.OverallAvg),
			Icon: icon,
		})
	} else if trend.Description != "Insufficient data" {
		out = append(out, Insight{
			Type:     InsightTrend,
			Priority: PriorityLow,
			Title:    "Stable Sentiment",
			Message:  fmt.Sprintf("Sentiment remains stable around %.2f, with minimal variation over the period.", trend.OverallAvg),
			Icon:     "➡️",
		})
	}

	if in.momentum.Score > 0.3 && in.momentum.Direction != MomentumNeutral {
		direction, outlook, icon := "downward", "declining", "⚠️"
		if in.momentum.Direction == MomentumPositive {
			direction, outlook, icon = "upward", "improving", "🚀"
		}
		priority := PriorityMedium
		if in.momentum.Score > 0.5 {
			priority = PriorityHigh
		}
		out = append(out, Insight{
			Type:     InsightMomentum,
			Priority: priority,
			Title:    fmt.Sprintf("Strong %s Momentum", titleWord(direction)),
			Message:  fmt.Sprintf("%s. This suggests %s user satisfaction.", in.momentum.Description, outlook),
			Icon:     icon,
		})
	}

	return out
}

func anomalyInsights(in insightInputs) []Insight {
	var out []Insight
	recent := in.combined
	if len(recent) > 3 {
		recent = recent[:3]
	}
	for _, a := range recent {
		if a.Index >= len(in.agg.Metrics) {
			continue
		}
		dm := in.agg.Metrics[a.Index]
		kind, icon := "Dip", "📉"
		if a.Type == AnomalyTypeSpike {
			kind, icon = "Spike", "⚡"
		}
		priority := PriorityMedium
		if a.Severity == SeverityHigh {
			priority = PriorityHigh
		}
		top := topEmoji(dm.Counts)
		out = append(out, Insight{
			Type:     InsightAnomaly,
			Priority: priority,
			Title:    fmt.Sprintf("Sentiment %s on %s", kind, dm.Day),
			Message: fmt.Sprintf("Detected %s severity %s with %d reactions. Top reaction: %s %s (%.1f%%).",
				a.Severity, a.Type, dm.Total, top.glyph, top.label, top.percent),
			Icon: icon,
		})
	}
	return out
}

func engagementInsights(in insightInputs) []Insight {
	var out []Insight
	agg := in.agg

	returningPercent := 0.0
	if agg.UniqueUsers > 0 {
		returningPercent = float64(agg.Repeaters) / float64(agg.UniqueUsers) * 100
	}
	switch {
	case returningPercent > 50:
		out = append(out, Insight{
			Type:     InsightEngagement,
			Priority: PriorityHigh,
			Title:    "High User Retention",
			Message: fmt.Sprintf("Strong engagement: %.1f%% of users (%d of %d) have responded multiple times.",
				returningPercent, agg.Repeaters, agg.UniqueUsers),
			Icon: "🔄",
		})
	case returningPercent > 25:
		out = append(out, Insight{
			Type:     InsightEngagement,
			Priority: PriorityMedium,
			Title:    "Moderate User Retention",
			Message: fmt.Sprintf("%.1f%% of users (%d) are returning responders. Consider strategies to increase repeat engagement.",
				returningPercent, agg.Repeaters),
			Icon: "🔄",
		})
	default:
		out = append(out, Insight{
			Type:     InsightEngagement,
			Priority: PriorityMedium,
			Title:    "Low User Retention",
			Message:  fmt.Sprintf("Only %.1f%% of users return. Most responses are from new users each day.", returningPercent),
			Icon:     "👥",
		})
	}

	if len(agg.DailyTotals) > 0 {
		totals := make([]float64, len(agg.DailyTotals))
		for i, t := range agg.DailyTotals {
			totals[i] = float64(t)
		}
		avgDaily := Mean(totals)
		window := 7
		if window > len(totals) {
			window = len(totals)
		}
		recentAvg := Mean(totals[len(totals)-window:])
		if avgDaily != 0 {
			volumeChange := (recentAvg - avgDaily) / avgDaily * 100
			if math.Abs(volumeChange) > 20 {
				heading, relation, icon := "Decreasing", "lower", "📉"
				if volumeChange > 0 {
					heading, relation, icon = "Increasing", "higher", "📈"
				}
				out = append(out, Insight{
					Type:     InsightVolume,
					Priority: PriorityMedium,
					Title:    fmt.Sprintf("Response Volume %s", heading),
					Message: fmt.Sprintf("Recent daily average (%.1f) is %.1f%% %s than overall average (%.1f).",
						recentAvg, math.Abs(volumeChange), relation, avgDaily),
					Icon: icon,
				})
			}
		}
	}

	return out
}

func emojiInsights(in insightInputs) []Insight {
	var out []Insight
	agg := in.agg
	if len(agg.Shares) == 0 {
		return out
	}

	wow := make([]float64, len(agg.Shares))
	curious := make([]float64, len(agg.Shares))
	boring := make([]float64, len(agg.Shares))
	for i, s := range agg.Shares {
		wow[i] = s.Wow
		curious[i] = s.Curious
		boring[i] = s.Boring
	}
	avgWow, avgCurious, avgBoring := Mean(wow), Mean(curious), Mean(boring)

	type slot struct {
		emoji   events.Emoji
		percent float64
	}
	distribution := []slot{
		{events.EmojiWow, avgWow * 100},
		{events.EmojiCurious, avgCurious * 100},
		{events.EmojiBoring, avgBoring * 100},
	}
	sort.SliceStable(distribution, func(i, j int) bool { return distribution[i].percent > distribution[j].percent })
	dominant := distribution[0]

	out = append(out, Insight{
		Type:     InsightDistribution,
		Priority: PriorityMedium,
		Title:    fmt.Sprintf("%s %s Reactions Dominate", dominant.emoji.Glyph(), dominant.emoji.Label()),
		Message: fmt.Sprintf("%.1f%% of reactions are %s. Distribution: Wow %.1f%%, Curious %.1f%%, Boring %.1f%%.",
			dominant.percent, dominant.emoji.Label(), avgWow*100, avgCurious*100, avgBoring*100),
		Icon: dominant.emoji.Glyph(),
	})

	if avgBoring > 0.3 {
		out = append(out, Insight{
			Type:     InsightConcern,
			Priority: PriorityHigh,
			Title:    "High Boring Response Rate",
			Message: fmt.Sprintf("%.1f%% of reactions are 😴 Boring. Consider reviewing content strategy to increase engagement.",
				avgBoring*100),
			Icon: "⚠️",
		})
	}

	return out
}

func forecastInsights(in insightInputs) []Insight {
	var out []Insight
	predictions := in.forecast.Ensemble.Predictions
	if len(predictions) < 7 || len(in.agg.SentimentSeries) == 0 {
		return out
	}

	lastActual := in.agg.SentimentSeries[len(in.agg.SentimentSeries)-1]
	weekOut := predictions[6]
	change := weekOut - lastActual

	if math.Abs(change) > 0.1 {
		direction, heading, icon := "decline", "Decline", "⚠️"
		if change > 0 {
			direction, heading, icon = "improve", "Improve", "🔮"
		}
		priority := PriorityMedium
		if math.Abs(change) > 0.2 {
			priority = PriorityHigh
		}
		out = append(out, Insight{
			Type:     InsightForecast,
			Priority: priority,
			Title:    fmt.Sprintf("Sentiment Expected to %s", heading),
			Message: fmt.Sprintf("7-day forecast predicts sentiment will %s from %.2f to %.2f (%+.1f%%).",
				direction, lastActual, weekOut, change*100),
			Icon: icon,
		})
	} else {
		out = append(out, Insight{
			Type:     InsightForecast,
			Priority: PriorityLow,
			Title:    "Stable Forecast",
			Message:  fmt.Sprintf("Sentiment expected to remain stable around %.2f over the next 7 days.", weekOut),
			Icon:     "🔮",
		})
	}

	return out
}

func patternInsights(in insightInputs) []Insight {
	var out []Insight
	if in.patterns.DayOfWeek.HasPattern {
		out = append(out, Insight{
			Type:     InsightPattern,
			Priority: PriorityMedium,
			Title:    "Day-of-Week Pattern Detected",
			Message:  in.patterns.DayOfWeek.Description + ". Consider timing content releases accordingly.",
			Icon:     "📅",
		})
	}
	if in.patterns.Weekend.HasPattern {
		out = append(out, Insight{
			Type:     InsightPattern,
			Priority: PriorityMedium,
			Title:    "Weekday vs Weekend Pattern",
			Message:  in.patterns.Weekend.Description + ". This could inform content scheduling strategies.",
			Icon:     "📆",
		})
	}
	return out
}

// TopInsights returns the highest-priority insights, at most limit, with the
// original generation order preserved inside each priority tier.
func TopInsights(insights []Insight, limit int) []Insight {
	out := make([]Insight, len(insights))
	copy(out, insights)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityWeight(out[i].Priority) > priorityWeight(out[j].Priority)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func priorityWeight(p string) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ExecutiveSummary condenses the insight list into one paragraph plus the
// high-priority titles.
type ExecutiveSummary struct {
	Summary           string   `json:"summary"`
	KeyPoints         []string `json:"key_points"`
	TotalInsights     int      `json:"total_insights"`
	HighPriorityCount int      `json:"high_priority_count"`
}

// SummarizeInsights builds the executive summary from the full insight list.
func SummarizeInsights(insights []Insight) ExecutiveSummary {
	summary := ExecutiveSummary{TotalInsights: len(insights)}

	var text string
	for _, in := range insights {
		if in.Type == InsightOverview {
			text = in.Message + " "
			break
		}
	}
	for _, in := range insights {
		if in.Priority == PriorityHigh {
			summary.KeyPoints = append(summary.KeyPoints, in.Title)
		}
	}
	summary.HighPriorityCount = len(summary.KeyPoints)

	if len(summary.KeyPoints) > 0 {
		text += "Key findings: " + joinTitles(summary.KeyPoints) + "."
	} else {
		text += "Overall sentiment is stable with no major concerns."
	}
	summary.Summary = text
	return summary
}

func joinTitles(titles []string) string {
	out := ""
	for i, t := range titles {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}

type topEmojiResult struct {
	glyph   string
	label   string
	percent float64
}

func topEmoji(counts EmojiCounts) topEmojiResult {
	best := events.EmojiWow
	for _, e := range events.TrackedEmojis[1:] {
		if counts.Get(e) > counts.Get(best) {
			best = e
		}
	}
	percent := 0.0
	if total := counts.Total(); total > 0 {
		percent = float64(counts.Get(best)) / float64(total) * 100
	}
	return topEmojiResult{glyph: best.Glyph(), label: best.Label(), percent: percent}
}

func titleWord(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
