package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"metergrid/internal/service"
)

func TestFitTrend_EmptySeries(t *testing.T) {
	trend := service.FitTrend(nil)

	assert.Equal(t, 0.0, trend.Slope)
	assert.Equal(t, 0.0, trend.Intercept)
	assert.Equal(t, service.TrendStable, trend.Classification)
}

func TestFitTrend_SinglePoint(t *testing.T) {
	trend := service.FitTrend([]float64{42})

	assert.Equal(t, 0.0, trend.Slope)
	assert.Equal(t, service.TrendStable, trend.Classification)
}

func TestFitTrend_StrictlyIncreasing(t *testing.T) {
	trend := service.FitTrend([]float64{10, 20, 30, 40, 50})

	assert.Equal(t, service.TrendIncreasing, trend.Classification)
	assert.Greater(t, trend.Slope, 0.0)
	// Perfect line: y = 10x, intercept 0.
	assert.InDelta(t, 10.0, trend.Slope, 1e-9)
	assert.InDelta(t, 0.0, trend.Intercept, 1e-9)
}

func TestFitTrend_StrictlyDecreasing(t *testing.T) {
	trend := service.FitTrend([]float64{50, 40, 30, 20, 10})

	assert.Equal(t, service.TrendDecreasing, trend.Classification)
	assert.Less(t, trend.Slope, 0.0)
}

func TestFitTrend_ConstantSeries(t *testing.T) {
	trend := service.FitTrend([]float64{7, 7, 7, 7})

	assert.Equal(t, service.TrendStable, trend.Classification)
	assert.InDelta(t, 0.0, trend.Slope, 0.1)
	assert.InDelta(t, 7.0, trend.Intercept, 1e-9)
}

func TestFitTrend_SlopeWithinThresholdIsStable(t *testing.T) {
	// Slope of exactly 0.05 per step stays inside the +/-0.1 band.
	trend := service.FitTrend([]float64{1.00, 1.05, 1.10, 1.15})

	assert.Equal(t, service.TrendStable, trend.Classification)
}
