package decompose

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

func seriesFrom(values []float64) *models.CleanSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		points[i] = models.SeriesPoint{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Count:     v,
		}
	}
	return &models.CleanSeries{StationID: "STN-1", Interval: 24 * time.Hour, Points: points}
}

func syntheticSeasonal(n, period int, amplitude, level float64) []float64 {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, n)
	for i := range values {
		phase := 2 * math.Pi * float64(i%period) / float64(period)
		values[i] = level + 0.5*float64(i) + amplitude*math.Sin(phase) + rng.NormFloat64()
	}
	return values
}

func TestDecomposeAdditiveReconstruction(t *testing.T) {
	values := syntheticSeasonal(10*7, 7, 20, 500)
	d := NewDecomposer(nil)

	dec, err := d.Decompose(seriesFrom(values), 7, models.DecompositionAdditive)
	require.NoError(t, err)

	require.Len(t, dec.Trend, len(values))
	require.Len(t, dec.Seasonal, len(values))
	require.Len(t, dec.Residual, len(values))

	recon := dec.Reconstruct()
	for i := range values {
		assert.InDelta(t, values[i], recon[i], 1e-6, "index %d", i)
	}
}

func TestDecomposeAdditiveSeasonalSumsToZero(t *testing.T) {
	values := syntheticSeasonal(10*7, 7, 20, 500)
	d := NewDecomposer(nil)

	dec, err := d.Decompose(seriesFrom(values), 7, models.DecompositionAdditive)
	require.NoError(t, err)

	sum := 0.0
	for i := 0; i < 7; i++ {
		sum += dec.Seasonal[i]
	}
	assert.InDelta(t, 0.0, sum, 1e-8)
}

func TestDecomposeAdditiveRecoversSeasonality(t *testing.T) {
	// Pure signal with no noise: phase averages should recover the seasonal
	// swing closely away from the edges.
	period := 7
	n := 20 * period
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 10*math.Sin(2*math.Pi*float64(i%period)/float64(period))
	}

	d := NewDecomposer(nil)
	dec, err := d.Decompose(seriesFrom(values), period, models.DecompositionAdditive)
	require.NoError(t, err)

	for i := period; i < n-period; i++ {
		want := 10 * math.Sin(2*math.Pi*float64(i%period)/float64(period))
		assert.InDelta(t, want, dec.Seasonal[i], 0.5, "index %d", i)
	}
}

func TestDecomposeMultiplicativeReconstruction(t *testing.T) {
	values := syntheticSeasonal(10*7, 7, 20, 500)
	d := NewDecomposer(nil)

	dec, err := d.Decompose(seriesFrom(values), 7, models.DecompositionMultiplicative)
	require.NoError(t, err)

	recon := dec.Reconstruct()
	for i := range values {
		assert.InEpsilon(t, values[i], recon[i], 1e-4, "index %d", i)
	}

	// Multiplicative seasonal factors average to one over a period.
	sum := 0.0
	for i := 0; i < 7; i++ {
		sum += dec.Seasonal[i]
	}
	assert.InDelta(t, 1.0, sum/7, 1e-8)
}

func TestDecomposeMultiplicativeRejectsNonPositive(t *testing.T) {
	values := syntheticSeasonal(10*7, 7, 20, 500)
	values[13] = 0

	d := NewDecomposer(nil)
	_, err := d.Decompose(seriesFrom(values), 7, models.DecompositionMultiplicative)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidDecompositionMode(err))
}

func TestDecomposeInsufficientData(t *testing.T) {
	d := NewDecomposer(nil)
	_, err := d.Decompose(seriesFrom(make([]float64, 13)), 7, models.DecompositionAdditive)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}

func TestDecomposeRejectsUnknownMode(t *testing.T) {
	values := syntheticSeasonal(10*7, 7, 20, 500)
	d := NewDecomposer(nil)
	_, err := d.Decompose(seriesFrom(values), 7, models.DecompositionMode("stl"))
	assert.Error(t, err)
}
