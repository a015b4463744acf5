package analytics

import (
	"fmt"
	"math"
	"time"
)

// Trend directions.
const (
	TrendStable     = "stable"
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// Momentum directions.
const (
	MomentumPositive = "positive"
	MomentumNegative = "negative"
	MomentumNeutral  = "neutral"
)

// TrendAnalysis compares the recent window's average against the whole
// series.
type TrendAnalysis struct {
	Direction     string  `json:"direction"`
	Strength      float64 `json:"strength"`
	ChangePercent float64 `json:"change_percent"`
	RecentAvg     float64 `json:"recent_avg"`
	OverallAvg    float64 `json:"overall_avg"`
	Description   string  `json:"description"`
}

// AnalyzeTrend classifies the series as stable below a 5% change, otherwise
// increasing/decreasing with strength normalized to [0,1] at 20% change.
// A zero overall average is treated as 1 in the denominator.
func AnalyzeTrend(series []float64, recentWindow int) TrendAnalysis {
	if len(series) < 2 {
		return TrendAnalysis{Direction: TrendStable, Description: "Insufficient data"}
	}

	overallAvg := Mean(series)
	window := recentWindow
	if window > len(series) {
		window = len(series)
	}
	recentAvg := Mean(series[len(series)-window:])

	change := recentAvg - overallAvg
	denom := overallAvg
	if denom == 0 {
		denom = 1
	}
	changePercent := math.Abs(change/denom) * 100

	t := TrendAnalysis{
		ChangePercent: changePercent,
		RecentAvg:     recentAvg,
		OverallAvg:    overallAvg,
	}

	switch {
	case changePercent < 5:
		t.Direction = TrendStable
		t.Description = "Sentiment is stable"
	case change > 0:
		t.Direction = TrendIncreasing
		t.Strength = math.Min(changePercent/20, 1)
		t.Description = fmt.Sprintf("Sentiment trending %s positive", intensityWord(changePercent))
	default:
		t.Direction = TrendDecreasing
		t.Strength = math.Min(changePercent/20, 1)
		t.Description = fmt.Sprintf("Sentiment trending %s negative", intensityWord(changePercent))
	}

	return t
}

func intensityWord(changePercent float64) string {
	if changePercent >= 15 {
		return "strongly"
	}
	return "moderately"
}

// CalculateVelocity returns the per-index rate of change over the window;
// indices before a full window are 0.
func CalculateVelocity(series []float64, window int) []float64 {
	velocity := make([]float64, len(series))
	for i := window; i < len(series); i++ {
		velocity[i] = (series[i] - series[i-window]) / float64(window)
	}
	return velocity
}

// Momentum combines trend strength with recent velocity.
type Momentum struct {
	Score       float64 `json:"score"`
	Direction   string  `json:"direction"`
	Velocity    float64 `json:"velocity"`
	Trend       string  `json:"trend"`
	Description string  `json:"description"`
}

// CalculateMomentum scores momentum as 0.6×trend strength plus 0.4×|mean of
// the last seven velocities|. Above 0.3 is strong, above 0.1 moderate.
func CalculateMomentum(series []float64) Momentum {
	if len(series) < 7 {
		return Momentum{Direction: MomentumNeutral, Description: "Insufficient data"}
	}

	trend := AnalyzeTrend(series, 7)
	velocity := CalculateVelocity(series, 3)
	recent := velocity
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	avgVelocity := Mean(recent)

	score := trend.Strength*0.6 + math.Abs(avgVelocity)*0.4

	m := Momentum{
		Score:       score,
		Direction:   MomentumNeutral,
		Velocity:    avgVelocity,
		Trend:       trend.Direction,
		Description: "Neutral momentum",
	}

	switch {
	case score > 0.3:
		if trend.Direction == TrendIncreasing {
			m.Direction = MomentumPositive
			m.Description = "Strong positive momentum"
		} else if trend.Direction == TrendDecreasing {
			m.Direction = MomentumNegative
			m.Description = "Strong negative momentum"
		}
	case score > 0.1:
		if trend.Direction == TrendIncreasing {
			m.Direction = MomentumPositive
		} else {
			m.Direction = MomentumNegative
		}
		m.Description = fmt.Sprintf("Moderate %s momentum", m.Direction)
	}

	return m
}

// DayOfWeekPattern reports whether some UTC weekday consistently runs hotter
// or colder than the rest.
type DayOfWeekPattern struct {
	HasPattern  bool               `json:"has_pattern"`
	Averages    map[string]float64 `json:"averages"`
	PeakDay     string             `json:"peak_day"`
	PeakValue   float64            `json:"peak_value"`
	LowDay      string             `json:"low_day"`
	LowValue    float64            `json:"low_value"`
	Description string             `json:"description"`
}

// WeekendPattern reports a weekday-vs-weekend split.
type WeekendPattern struct {
	HasPattern  bool    `json:"has_pattern"`
	WeekdayAvg  float64 `json:"weekday_avg"`
	WeekendAvg  float64 `json:"weekend_avg"`
	Difference  float64 `json:"difference"`
	Description string  `json:"description"`
}

// Patterns is the combined pattern-detection output.
type Patterns struct {
	DayOfWeek   DayOfWeekPattern `json:"day_of_week"`
	Weekend     WeekendPattern   `json:"weekend"`
	Count       int              `json:"count"`
	Description string           `json:"description"`
}

// Pattern significance thresholds, in sentiment units.
const (
	dayOfWeekPatternRange = 0.2
	weekendPatternDiff    = 0.15
)

// DetectPatterns buckets the series by UTC weekday of each day key and
// checks for day-of-week and weekday/weekend effects.
func DetectPatterns(series []float64, days []string) Patterns {
	p := Patterns{Description: "No significant patterns detected"}
	if len(series) < 7 {
		p.Description = "Insufficient data for pattern detection"
		return p
	}

	p.DayOfWeek = analyzeDayOfWeekPattern(series, days)
	p.Weekend = analyzeWeekendPattern(series, days)

	if p.DayOfWeek.HasPattern {
		p.Count++
	}
	if p.Weekend.HasPattern {
		p.Count++
	}
	if p.Count > 0 {
		p.Description = fmt.Sprintf("Found %d pattern(s)", p.Count)
	}
	return p
}

func weekdayOf(day string) (time.Weekday, bool) {
	t, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}

func analyzeDayOfWeekPattern(series []float64, days []string) DayOfWeekPattern {
	buckets := make(map[time.Weekday][]float64)
	for i, day := range days {
		if i >= len(series) {
			break
		}
		if wd, ok := weekdayOf(day); ok {
			buckets[wd] = append(buckets[wd], series[i])
		}
	}

	out := DayOfWeekPattern{Averages: make(map[string]float64)}
	minAvg := math.Inf(1)
	maxAvg := math.Inf(-1)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		vals, ok := buckets[wd]
		if !ok {
			continue
		}
		avg := Mean(vals)
		out.Averages[wd.String()] = avg
		if avg < minAvg {
			minAvg = avg
			out.LowDay = wd.String()
			out.LowValue = avg
		}
		if avg > maxAvg {
			maxAvg = avg
			out.PeakDay = wd.String()
			out.PeakValue = avg
		}
	}

	if maxAvg-minAvg > dayOfWeekPatternRange {
		out.HasPattern = true
		out.Description = fmt.Sprintf("%ss tend to have higher sentiment, %ss lower", out.PeakDay, out.LowDay)
	} else {
		out.Description = "No clear day-of-week pattern"
	}
	return out
}

func analyzeWeekendPattern(series []float64, days []string) WeekendPattern {
	var weekday, weekend []float64
	for i, day := range days {
		if i >= len(series) {
			break
		}
		wd, ok := weekdayOf(day)
		if !ok {
			continue
		}
		if wd == time.Saturday || wd == time.Sunday {
			weekend = append(weekend, series[i])
		} else {
			weekday = append(weekday, series[i])
		}
	}

	out := WeekendPattern{
		WeekdayAvg: Mean(weekday),
		WeekendAvg: Mean(weekend),
	}
	out.Difference = math.Abs(out.WeekendAvg - out.WeekdayAvg)
	if out.Difference > weekendPatternDiff {
		out.HasPattern = true
		if out.WeekendAvg > out.WeekdayAvg {
			out.Description = "Weekends show higher sentiment"
		} else {
			out.Description = "Weekdays show higher sentiment"
		}
	} else {
		out.Description = "No significant weekday/weekend difference"
	}
	return out
}
