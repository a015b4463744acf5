package analytics

import (
	"math"
	"time"
)

// Forecast methods.
const (
	ForecastMethodMovingAverage = "moving-average"
	ForecastMethodExponential   = "exponential-smoothing"
	ForecastMethodEnsemble      = "ensemble"
	ForecastMethodInsufficient  = "insufficient-data"
)

const (
	forecastWindow    = 7
	smoothingAlpha    = 0.3
	confidenceZ       = 1.96
	confidenceLevel   = 0.95
	adjustChangeLimit = 20.0
)

// ConfidenceBands are the upper/lower envelopes around a forecast, one entry
// per forecast day.
type ConfidenceBands struct {
	Upper []float64 `json:"upper"`
	Lower []float64 `json:"lower"`
	Level float64   `json:"level"`
}

// Forecast is one method's projection. Predictions is empty with method
// "insufficient-data" when the history is too short.
type Forecast struct {
	Predictions []float64       `json:"predictions"`
	Confidence  ConfidenceBands `json:"confidence"`
	Method      string          `json:"method"`
	BaseValue   float64         `json:"base_value,omitempty"`
	Trend       float64         `json:"trend,omitempty"`
	Volatility  float64         `json:"volatility,omitempty"`
}

// ForecastSet bundles the individual methods with their ensemble and the
// projected date labels.
type ForecastSet struct {
	Simple              Forecast       `json:"simple"`
	Exponential         Forecast       `json:"exponential"`
	Ensemble            Forecast       `json:"ensemble"`
	Dates               []string       `json:"dates"`
	Recommendation      ForecastAdvice `json:"recommendation"`
	LastHistoricalValue float64        `json:"last_historical_value"`
	LastHistoricalDate  string         `json:"last_historical_date"`
}

// ForecastAdvice flags whether the recent window drifted far enough from the
// prior window that the projection deserves a shorter horizon.
type ForecastAdvice struct {
	Adjust        bool    `json:"adjust"`
	Reason        string  `json:"reason"`
	ChangePercent float64 `json:"change_percent,omitempty"`
}

func insufficientForecast() Forecast {
	return Forecast{
		Predictions: []float64{},
		Confidence:  ConfidenceBands{Upper: []float64{}, Lower: []float64{}},
		Method:      ForecastMethodInsufficient,
	}
}

// Volatility is the standard deviation of the series' first differences.
func Volatility(series []float64) float64 {
	return StdDev(FirstDifferences(series))
}

// ForecastMovingAverage projects from the mean of the trailing window plus a
// per-day linear trend fitted over the same window. Band width grows as
// volatility·sqrt(day)·1.96.
func ForecastMovingAverage(series []float64, horizon, window int) Forecast {
	if len(series) < window {
		return insufficientForecast()
	}

	recent := series[len(series)-window:]
	base := Mean(recent)
	trend := OLSSlope(recent)
	volatility := Volatility(series)

	f := Forecast{
		Method:     ForecastMethodMovingAverage,
		BaseValue:  base,
		Trend:      trend,
		Volatility: volatility,
		Confidence: ConfidenceBands{Level: confidenceLevel},
	}
	for i := 1; i <= horizon; i++ {
		prediction := base + trend*float64(i)
		width := volatility * math.Sqrt(float64(i)) * confidenceZ
		f.Predictions = append(f.Predictions, prediction)
		f.Confidence.Upper = append(f.Confidence.Upper, prediction+width)
		f.Confidence.Lower = append(f.Confidence.Lower, prediction-width)
	}
	return f
}

// ForecastExponential projects from the last smoothed value plus the last
// smoothing step as trend. Histories shorter than 3 fall back to the moving
// average method.
func ForecastExponential(series []float64, horizon int, alpha float64) Forecast {
	if len(series) < 3 {
		return ForecastMovingAverage(series, horizon, forecastWindow)
	}

	smoothed := ExponentialSmoothing(series, alpha)
	last := smoothed[len(smoothed)-1]
	trend := last - smoothed[len(smoothed)-2]
	volatility := Volatility(series)

	f := Forecast{
		Method:     ForecastMethodExponential,
		BaseValue:  last,
		Trend:      trend,
		Volatility: volatility,
		Confidence: ConfidenceBands{Level: confidenceLevel},
	}
	for i := 1; i <= horizon; i++ {
		prediction := last + trend*float64(i)
		width := volatility * math.Sqrt(float64(i)) * confidenceZ
		f.Predictions = append(f.Predictions, prediction)
		f.Confidence.Upper = append(f.Confidence.Upper, prediction+width)
		f.Confidence.Lower = append(f.Confidence.Lower, prediction-width)
	}
	return f
}

// ExponentialSmoothing seeds with the first value and folds forward with
// alpha·x + (1-alpha)·prev.
func ExponentialSmoothing(series []float64, alpha float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	smoothed := make([]float64, len(series))
	smoothed[0] = series[0]
	for i := 1; i < len(series); i++ {
		smoothed[i] = alpha*series[i] + (1-alpha)*smoothed[i-1]
	}
	return smoothed
}

// ForecastEnsemble averages the two methods' predictions and takes the widest
// envelope per day. If either component has no predictions, the ensemble is
// insufficient too.
func ForecastEnsemble(ma, es Forecast, horizon int) Forecast {
	if len(ma.Predictions) < horizon || len(es.Predictions) < horizon {
		return insufficientForecast()
	}

	f := Forecast{
		Method:     ForecastMethodEnsemble,
		Confidence: ConfidenceBands{Level: confidenceLevel},
	}
	for i := 0; i < horizon; i++ {
		f.Predictions = append(f.Predictions, (ma.Predictions[i]+es.Predictions[i])/2)
		f.Confidence.Upper = append(f.Confidence.Upper, math.Max(ma.Confidence.Upper[i], es.Confidence.Upper[i]))
		f.Confidence.Lower = append(f.Confidence.Lower, math.Min(ma.Confidence.Lower[i], es.Confidence.Lower[i]))
	}
	return f
}

// ForecastDates returns the horizon day keys following lastDay.
func ForecastDates(lastDay string, horizon int) []string {
	t, err := time.ParseInLocation("2006-01-02", lastDay, time.UTC)
	if err != nil {
		return nil
	}
	dates := make([]string, 0, horizon)
	for i := 1; i <= horizon; i++ {
		dates = append(dates, t.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return dates
}

// AdviseForecast compares the trailing window's average against the window
// before it; a shift above 20% suggests the projection base is stale.
func AdviseForecast(series []float64, window int) ForecastAdvice {
	if len(series) < window*2 {
		return ForecastAdvice{Reason: "insufficient-data"}
	}

	recentAvg := Mean(series[len(series)-window:])
	priorAvg := Mean(series[len(series)-window*2 : len(series)-window])
	denom := priorAvg
	if denom == 0 {
		denom = 1
	}
	changePercent := math.Abs((recentAvg-priorAvg)/denom) * 100

	if changePercent > adjustChangeLimit {
		return ForecastAdvice{Adjust: true, Reason: "significant-trend-change", ChangePercent: changePercent}
	}
	return ForecastAdvice{Reason: "stable-trend"}
}

// BuildForecastSet runs every method over the sentiment series and projects
// horizon days past the last observed day.
func BuildForecastSet(series []float64, days []string, horizon int) ForecastSet {
	set := ForecastSet{
		Simple:      ForecastMovingAverage(series, horizon, forecastWindow),
		Exponential: ForecastExponential(series, horizon, smoothingAlpha),
	}
	set.Ensemble = ForecastEnsemble(set.Simple, set.Exponential, horizon)
	set.Recommendation = AdviseForecast(series, forecastWindow)

	if len(days) > 0 {
		lastDay := days[len(days)-1]
		set.Dates = ForecastDates(lastDay, horizon)
		set.LastHistoricalDate = lastDay
	}
	if len(series) > 0 {
		set.LastHistoricalValue = series[len(series)-1]
	}
	return set
}
