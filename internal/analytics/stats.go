package analytics

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median returns the middle value (average of the two middle values for even
// lengths), or 0 for an empty slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// StdDev returns the population standard deviation, or 0 when there are
// fewer than two values.
func StdDev(xs []float64) float64 {
	if len(xs) <= 1 {
		return 0
	}
	avg := Mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// MedianAbsDeviation returns the median absolute deviation from med.
func MedianAbsDeviation(xs []float64, med float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - med)
	}
	return Median(devs)
}

// MovingAverage smooths a series with a trailing window; early indices use
// the partial window available so the output stays index-aligned.
func MovingAverage(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = Mean(xs[start : i+1])
	}
	return out
}

// FirstDifferences returns xs[i] - xs[i-1] for i = 1..len-1.
func FirstDifferences(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out = append(out, xs[i]-xs[i-1])
	}
	return out
}

// OLSSlope fits ys against its indices 0..n-1 and returns the slope.
// Degenerate fits (fewer than two points, zero x-variance) yield 0.
func OLSSlope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (float64(n)*sumXY - sumX*sumY) / denom
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0
	}
	return slope
}
