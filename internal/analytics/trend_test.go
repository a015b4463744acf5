package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTrendInsufficientData(t *testing.T) {
	trend := AnalyzeTrend([]float64{0.5}, 7)
	assert.Equal(t, TrendStable, trend.Direction)
	assert.Equal(t, "Insufficient data", trend.Description)
}

func TestAnalyzeTrendStable(t *testing.T) {
	series := []float64{0.5, 0.5, 0.5, 0.51, 0.5, 0.5, 0.5, 0.5}
	trend := AnalyzeTrend(series, 7)
	assert.Equal(t, TrendStable, trend.Direction)
	assert.Equal(t, 0.0, trend.Strength)
}

func TestAnalyzeTrendIncreasing(t *testing.T) {
	series := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.8, 0.8, 0.8}
	trend := AnalyzeTrend(series, 3)
	assert.Equal(t, TrendIncreasing, trend.Direction)
	assert.Greater(t, trend.Strength, 0.0)
	assert.LessOrEqual(t, trend.Strength, 1.0)
	assert.Contains(t, trend.Description, "positive")
}

func TestAnalyzeTrendZeroOverallAverage(t *testing.T) {
	// Overall mean 0 uses denominator 1, so no division blow-up.
	series := []float64{-0.5, 0.5, -0.5, 0.5, -0.4, 0.4, 0.0, 0.0}
	trend := AnalyzeTrend(series, 7)
	assert.False(t, trend.ChangePercent != trend.ChangePercent, "must not be NaN")
}

func TestCalculateVelocity(t *testing.T) {
	v := CalculateVelocity([]float64{0, 3, 6, 9, 12}, 3)
	require.Len(t, v, 5)
	assert.Equal(t, 0.0, v[0])
	assert.Equal(t, 0.0, v[2])
	assert.InDelta(t, 3.0, v[3], 1e-9)
	assert.InDelta(t, 3.0, v[4], 1e-9)
}

func TestCalculateMomentumInsufficientData(t *testing.T) {
	m := CalculateMomentum([]float64{1, 2, 3})
	assert.Equal(t, MomentumNeutral, m.Direction)
	assert.Equal(t, "Insufficient data", m.Description)
}

func TestCalculateMomentumPositive(t *testing.T) {
	series := []float64{-1, -0.8, -0.6, -0.4, -0.2, 0, 0.2, 0.4, 0.6, 0.8, 1}
	m := CalculateMomentum(series)
	assert.Equal(t, MomentumPositive, m.Direction)
	assert.Greater(t, m.Score, 0.1)
}

func TestDetectPatternsInsufficientData(t *testing.T) {
	p := DetectPatterns([]float64{1, 2, 3}, []string{"2024-03-01", "2024-03-02", "2024-03-03"})
	assert.Equal(t, "Insufficient data for pattern detection", p.Description)
	assert.Equal(t, 0, p.Count)
}

func TestDetectPatternsWeekendEffect(t *testing.T) {
	// Two full weeks: weekends at 0.9, weekdays at 0.1.
	days := make([]string, 0, 14)
	series := make([]float64, 0, 14)
	agg := Aggregate(testsupportTwoWeeks())
	days = agg.Days
	for _, day := range days {
		wd, ok := weekdayOf(day)
		require.True(t, ok)
		if wd == 0 || wd == 6 { // Sunday or Saturday
			series = append(series, 0.9)
		} else {
			series = append(series, 0.1)
		}
	}

	p := DetectPatterns(series, days)
	assert.True(t, p.Weekend.HasPattern)
	assert.Equal(t, "Weekends show higher sentiment", p.Weekend.Description)
	assert.GreaterOrEqual(t, p.Count, 1)
}
