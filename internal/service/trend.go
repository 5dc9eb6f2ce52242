package service

import "math"

// Trend classifications.
const (
	TrendIncreasing = "INCREASING"
	TrendDecreasing = "DECREASING"
	TrendStable     = "STABLE"
)

// Slopes within ±slopeThreshold classify as stable.
const slopeThreshold = 0.1

// Trend is an ordinary least-squares fit over a short series.
type Trend struct {
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
	Classification string  `json:"classification"`
}

// FitTrend fits y against x = 1..n and classifies the slope. Fewer
// than two points yield a flat stable trend.
func FitTrend(series []float64) Trend {
	n := len(series)
	if n < 2 {
		return Trend{Slope: 0, Intercept: 0, Classification: TrendStable}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range series {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	classification := TrendStable
	switch {
	case slope > slopeThreshold:
		classification = TrendIncreasing
	case slope < -slopeThreshold:
		classification = TrendDecreasing
	}

	return Trend{Slope: slope, Intercept: intercept, Classification: classification}
}

// round2 rounds to two decimal places, matching report payload
// precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
