package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInsightsAlwaysLeadsWithOverview(t *testing.T) {
	res := Process(testsupport8DaySpike(), Options{})
	require.NotEmpty(t, res.Insights)
	first := res.Insights[0]
	assert.Equal(t, InsightOverview, first.Type)
	assert.Equal(t, PriorityHigh, first.Priority)
	assert.Contains(t, first.Message, "reactions from")
}

func TestGenerateInsightsAnomalyOnSpikeDay(t *testing.T) {
	res := Process(testsupport8DaySpike(), Options{})

	var anomaly *Insight
	for i := range res.Insights {
		if res.Insights[i].Type == InsightAnomaly {
			anomaly = &res.Insights[i]
			break
		}
	}
	require.NotNil(t, anomaly, "the spike day should produce an anomaly insight")
	assert.Contains(t, anomaly.Title, "2024-03-08")
	assert.Contains(t, anomaly.Message, "Wow")
}

func TestEngagementInsightBanding(t *testing.T) {
	// All users return: 100% repeaters.
	evs := testsupportTwoWeeks()
	for i := range evs {
		evs[i].UserID = "sameUser"
	}
	res := Process(evs, Options{})

	var engagement *Insight
	for i := range res.Insights {
		if res.Insights[i].Type == InsightEngagement {
			engagement = &res.Insights[i]
			break
		}
	}
	require.NotNil(t, engagement)
	assert.Equal(t, "High User Retention", engagement.Title)
	assert.Equal(t, PriorityHigh, engagement.Priority)
}

func TestTopInsightsStableRanking(t *testing.T) {
	insights := []Insight{
		{Type: "a", Priority: PriorityLow, Title: "low-1"},
		{Type: "b", Priority: PriorityHigh, Title: "high-1"},
		{Type: "c", Priority: PriorityMedium, Title: "med-1"},
		{Type: "d", Priority: PriorityHigh, Title: "high-2"},
		{Type: "e", Priority: PriorityMedium, Title: "med-2"},
	}

	top := TopInsights(insights, 4)
	require.Len(t, top, 4)
	assert.Equal(t, "high-1", top[0].Title)
	assert.Equal(t, "high-2", top[1].Title, "ties keep generation order")
	assert.Equal(t, "med-1", top[2].Title)
	assert.Equal(t, "med-2", top[3].Title)

	// Input order is untouched.
	assert.Equal(t, "low-1", insights[0].Title)
}

func TestSummarizeInsights(t *testing.T) {
	insights := []Insight{
		{Type: InsightOverview, Priority: PriorityHigh, Title: "Dataset Overview", Message: "Analyzed 10 reactions."},
		{Type: InsightConcern, Priority: PriorityHigh, Title: "High Boring Response Rate"},
		{Type: InsightTrend, Priority: PriorityLow, Title: "Stable Sentiment"},
	}

	summary := SummarizeInsights(insights)
	assert.Equal(t, 3, summary.TotalInsights)
	assert.Equal(t, 2, summary.HighPriorityCount)
	assert.Contains(t, summary.Summary, "Analyzed 10 reactions.")
	assert.Contains(t, summary.Summary, "Key findings: Dataset Overview, High Boring Response Rate.")
}

func TestTitleWord(t *testing.T) {
	assert.Equal(t, "Upward", titleWord("upward"))
	assert.Equal(t, "Downward", titleWord("downward"))
	assert.Equal(t, "", titleWord(""))
	assert.Equal(t, "Already", titleWord("Already"))
	assert.Equal(t, "Émotion", titleWord("émotion"), "non-ASCII first rune stays intact")
}

func TestSummarizeInsightsNoHighPriority(t *testing.T) {
	summary := SummarizeInsights([]Insight{
		{Type: InsightTrend, Priority: PriorityLow, Title: "Stable Sentiment"},
	})
	assert.Contains(t, summary.Summary, "no major concerns")
	assert.Empty(t, summary.KeyPoints)
}
