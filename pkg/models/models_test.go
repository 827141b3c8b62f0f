package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() *CleanSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []SeriesPoint{
		{Timestamp: start, Count: 10},
		{Timestamp: start.Add(24 * time.Hour), Count: 20, Imputed: true},
		{Timestamp: start.Add(48 * time.Hour), Count: 30},
		{Timestamp: start.Add(72 * time.Hour), Count: 40},
	}
	return &CleanSeries{StationID: "STN-1", Interval: 24 * time.Hour, Points: points}
}

func TestCleanSeriesAccessors(t *testing.T) {
	s := sampleSeries()

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []float64{10, 20, 30, 40}, s.Values())
	assert.Equal(t, 1, s.ImputedCount())

	ts := s.Timestamps()
	require.Len(t, ts, 4)
	assert.Equal(t, s.Points[0].Timestamp, ts[0])
}

func TestCleanSeriesValuesIsACopy(t *testing.T) {
	s := sampleSeries()
	values := s.Values()
	values[0] = -999
	assert.Equal(t, 10.0, s.Points[0].Count)
}

func TestCleanSeriesSlice(t *testing.T) {
	s := sampleSeries()

	sub := s.Slice(1, 3)
	assert.Equal(t, []float64{20, 30}, sub.Values())
	assert.Equal(t, s.StationID, sub.StationID)
	assert.Equal(t, s.Interval, sub.Interval)

	// Out-of-range bounds clamp; inverted bounds yield an empty series.
	assert.Equal(t, 4, s.Slice(-5, 99).Len())
	assert.Equal(t, 0, s.Slice(3, 1).Len())

	// Slicing copies the points.
	sub.Points[0].Count = -1
	assert.Equal(t, 20.0, s.Points[1].Count)
}

func TestCleanSeriesStats(t *testing.T) {
	stats := sampleSeries().Stats()

	assert.Equal(t, int64(4), stats.Count)
	assert.InDelta(t, 25, stats.Mean, 1e-9)
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 40.0, stats.Max)
	assert.Greater(t, stats.StandardDev, 0.0)

	assert.Equal(t, SeriesStats{}, (&CleanSeries{}).Stats())
}

func TestDecompositionReconstruct(t *testing.T) {
	additive := &Decomposition{
		Mode:     DecompositionAdditive,
		Trend:    []float64{10, 20},
		Seasonal: []float64{1, -1},
		Residual: []float64{0.5, 0.5},
	}
	assert.Equal(t, []float64{11.5, 19.5}, additive.Reconstruct())

	multiplicative := &Decomposition{
		Mode:     DecompositionMultiplicative,
		Trend:    []float64{10, 20},
		Seasonal: []float64{1.1, 0.9},
		Residual: []float64{1, 1},
	}
	recon := multiplicative.Reconstruct()
	assert.InDelta(t, 11, recon[0], 1e-9)
	assert.InDelta(t, 18, recon[1], 1e-9)
}

func TestForecastHorizon(t *testing.T) {
	fc := &Forecast{Points: []float64{1, 2, 3}}
	assert.Equal(t, 3, fc.Horizon())
	assert.Equal(t, 0, (&Forecast{}).Horizon())
}
