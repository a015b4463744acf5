package analytics

import (
	"fmt"
	"math"
	"sort"
)

// Detection thresholds. Values follow the standard conventions for z-score
// and modified-z (MAD) outlier detection.
const (
	ZScoreThreshold    = 2.0
	ZScoreHighSeverity = 3.0
	MADThreshold       = 3.5
	MADHighSeverity    = 5.0
	madScale           = 0.6745 // modified-z constant for normal data
	madToStdDev        = 1.4826 // scales MAD to approximate stddev under normality
)

// Anomaly types and severities.
const (
	AnomalyTypeSpike = "spike"
	AnomalyTypeDip   = "dip"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Anomaly flags one index of a numeric series.
type Anomaly struct {
	Index    int     `json:"index"`
	Day      string  `json:"day"`
	Value    float64 `json:"value"`
	Score    float64 `json:"score"`
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
}

// CombinedAnomaly is the per-index union of the z-score and MAD detectors.
// When both fire, the MAD score is kept for reporting since it is robust to
// the outlier itself.
type CombinedAnomaly struct {
	Anomaly
	Methods  []string `json:"methods"`
	MADScore float64  `json:"mad_score,omitempty"`
}

// DetectAnomaliesZScore flags indices whose z-score over the whole series
// exceeds the threshold. A constant series (zero stddev) yields no anomalies.
func DetectAnomaliesZScore(series []float64, days []string, threshold float64) []Anomaly {
	if len(series) < 3 {
		return nil
	}
	mean := Mean(series)
	std := StdDev(series)
	if std == 0 {
		return nil
	}

	var out []Anomaly
	for i, v := range series {
		z := (v - mean) / std
		if math.Abs(z) < threshold {
			continue
		}
		a := Anomaly{Index: i, Value: v, Score: z, Type: AnomalyTypeDip, Severity: SeverityMedium}
		if z > 0 {
			a.Type = AnomalyTypeSpike
		}
		if math.Abs(z) >= ZScoreHighSeverity {
			a.Severity = SeverityHigh
		}
		if i < len(days) {
			a.Day = days[i]
		}
		out = append(out, a)
	}
	return out
}

// DetectAnomaliesMAD flags indices whose modified z-score (MAD-based)
// exceeds the threshold. A zero MAD yields no anomalies.
func DetectAnomaliesMAD(series []float64, days []string, threshold float64) []Anomaly {
	if len(series) < 3 {
		return nil
	}
	med := Median(series)
	mad := MedianAbsDeviation(series, med)
	if mad == 0 {
		return nil
	}

	var out []Anomaly
	for i, v := range series {
		modZ := madScale * math.Abs(v-med) / mad
		if modZ < threshold {
			continue
		}
		a := Anomaly{Index: i, Value: v, Score: modZ, Type: AnomalyTypeDip, Severity: SeverityMedium}
		if v > med {
			a.Type = AnomalyTypeSpike
		}
		if modZ >= MADHighSeverity {
			a.Severity = SeverityHigh
		}
		if i < len(days) {
			a.Day = days[i]
		}
		out = append(out, a)
	}
	return out
}

// MergeAnomalies unions the two detectors' results per index, newest first.
func MergeAnomalies(zAnomalies, madAnomalies []Anomaly) []CombinedAnomaly {
	merged := make(map[int]*CombinedAnomaly)

	for _, a := range zAnomalies {
		merged[a.Index] = &CombinedAnomaly{Anomaly: a, Methods: []string{"z-score"}}
	}
	for _, a := range madAnomalies {
		if existing, ok := merged[a.Index]; ok {
			existing.Methods = append(existing.Methods, "mad")
			existing.MADScore = a.Score
		} else {
			merged[a.Index] = &CombinedAnomaly{Anomaly: a, Methods: []string{"mad"}, MADScore: a.Score}
		}
	}

	out := make([]CombinedAnomaly, 0, len(merged))
	for _, a := range merged {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index > out[j].Index })
	return out
}

// OutlierRecord merges every metric that tripped a detector on one day into
// a single record.
type OutlierRecord struct {
	Day         string   `json:"day"`
	Index       int      `json:"index"`
	Tags        []string `json:"tags"`
	Details     []string `json:"details"`
	TotalEvents int      `json:"total_events"`
}

// outlierCollector accumulates per-day records across metric series.
type outlierCollector struct {
	agg     *Aggregation
	records map[string]*OutlierRecord
}

func (c *outlierCollector) add(idx int, tag, detail string) {
	day := c.agg.Days[idx]
	rec, ok := c.records[day]
	if !ok {
		rec = &OutlierRecord{Day: day, Index: idx, TotalEvents: c.agg.DailyTotals[idx]}
		c.records[day] = rec
	}
	rec.Tags = append(rec.Tags, tag)
	if detail != "" {
		rec.Details = append(rec.Details, detail)
	}
}

func (c *outlierCollector) sorted() []OutlierRecord {
	out := make([]OutlierRecord, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalEvents != out[j].TotalEvents {
			return out[i].TotalEvents > out[j].TotalEvents
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// metricSeries pairs one detected series with its spike/dip tag names.
type metricSeries struct {
	values   []float64
	spikeTag string
	dipTag   string
}

func detectedSeries(agg *Aggregation) []metricSeries {
	wow := make([]float64, len(agg.Shares))
	curious := make([]float64, len(agg.Shares))
	boring := make([]float64, len(agg.Shares))
	for i, s := range agg.Shares {
		wow[i] = s.Wow
		curious[i] = s.Curious
		boring[i] = s.Boring
	}
	return []metricSeries{
		{agg.SentimentSeries, "Engagement spike", "Engagement dip"},
		{wow, "Wow spike", "Wow low"},
		{curious, "Curious spike", "Curious low"},
		{boring, "Boring spike", "Boring low"},
	}
}

// DetectDayOutliersZScore runs the z-score detector over the sentiment
// series and the three emoji share series, merging hits per day.
func DetectDayOutliersZScore(agg *Aggregation) []OutlierRecord {
	c := &outlierCollector{agg: agg, records: make(map[string]*OutlierRecord)}
	for _, m := range detectedSeries(agg) {
		for _, a := range DetectAnomaliesZScore(m.values, agg.Days, ZScoreThreshold) {
			tag := m.dipTag
			if a.Type == AnomalyTypeSpike {
				tag = m.spikeTag
			}
			c.add(a.Index, tag, fmt.Sprintf("z=%.2f", a.Score))
		}
	}
	return c.sorted()
}

// DetectDayOutliersMAD is the robust counterpart over the same four series.
func DetectDayOutliersMAD(agg *Aggregation) []OutlierRecord {
	c := &outlierCollector{agg: agg, records: make(map[string]*OutlierRecord)}
	for _, m := range detectedSeries(agg) {
		for _, a := range DetectAnomaliesMAD(m.values, agg.Days, MADThreshold) {
			tag := m.dipTag + " (MAD)"
			if a.Type == AnomalyTypeSpike {
				tag = m.spikeTag + " (MAD)"
			}
			c.add(a.Index, tag, fmt.Sprintf("mz=%.2f", a.Score))
		}
	}
	return c.sorted()
}

// ControlBands is a rolling mean ± k×scaled-MAD envelope, index-aligned with
// the source series. It is a visual drift signal only and feeds no discrete
// outlier list.
type ControlBands struct {
	Mean  []float64 `json:"mean"`
	Upper []float64 `json:"upper"`
	Lower []float64 `json:"lower"`
}

// CalculateControlBands computes trailing-window bands; early indices use
// the partial window available.
func CalculateControlBands(series []float64, window int, k float64) ControlBands {
	bands := ControlBands{
		Mean:  make([]float64, len(series)),
		Upper: make([]float64, len(series)),
		Lower: make([]float64, len(series)),
	}
	for i := range series {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		win := series[start : i+1]
		m := Mean(win)
		scaledMAD := MedianAbsDeviation(win, Median(win)) * madToStdDev
		bands.Mean[i] = m
		bands.Upper[i] = m + k*scaledMAD
		bands.Lower[i] = m - k*scaledMAD
	}
	return bands
}
