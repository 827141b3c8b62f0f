package stationarity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/pkg/errors"
)

func newTester() *Tester {
	return NewTester(config.DefaultConfig(), nil)
}

func TestVerdictWhiteNoiseIsStationary(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 300)
	for i := range values {
		values[i] = rng.NormFloat64()
	}

	verdict, err := newTester().Verdict(values)
	require.NoError(t, err)

	assert.True(t, verdict.IsStationary)
	assert.Equal(t, 0, verdict.DifferencingOrder)
	assert.Less(t, verdict.PValue, 0.05)
	assert.Negative(t, verdict.TestStatistic)
}

func TestVerdictTrendingSeriesNeedsDifferencing(t *testing.T) {
	// A random walk with drift has a unit root. One difference leaves drift
	// plus noise, which is stationary.
	rng := rand.New(rand.NewSource(3))
	values := make([]float64, 300)
	level := 0.0
	for i := range values {
		level += 1.0 + rng.NormFloat64()
		values[i] = level
	}

	verdict, err := newTester().Verdict(values)
	require.NoError(t, err)

	assert.False(t, verdict.IsStationary)
	assert.Equal(t, 1, verdict.DifferencingOrder)
	assert.GreaterOrEqual(t, verdict.PValue, 0.05)
}

func TestVerdictLinearTrend(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	values := make([]float64, 200)
	for i := range values {
		values[i] = 2*float64(i) + rng.NormFloat64()
	}

	verdict, err := newTester().Verdict(values)
	require.NoError(t, err)

	assert.False(t, verdict.IsStationary)
	assert.GreaterOrEqual(t, verdict.DifferencingOrder, 1)
	assert.LessOrEqual(t, verdict.DifferencingOrder, 2)
}

func TestVerdictConstantSeries(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 7
	}

	verdict, err := newTester().Verdict(values)
	require.NoError(t, err)
	assert.True(t, verdict.IsStationary)
	assert.Equal(t, 0, verdict.DifferencingOrder)
}

func TestVerdictTooFewObservations(t *testing.T) {
	_, err := newTester().Verdict([]float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}

func TestVerdictReportsRegressionShape(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	values := make([]float64, 100)
	for i := range values {
		values[i] = rng.NormFloat64()
	}

	verdict, err := newTester().Verdict(values)
	require.NoError(t, err)
	assert.Greater(t, verdict.Lags, 0)
	assert.Greater(t, verdict.NObs, 0)
	assert.Less(t, verdict.NObs, len(values))
}

func TestMacKinnonPValueMonotone(t *testing.T) {
	stats := []float64{-5, -3.5, -2.9, -2.6, -2.0, -1.0, 0, 1}
	prev := -1.0
	for _, s := range stats {
		p := mackinnonPValue(s)
		assert.GreaterOrEqual(t, p, prev, "stat %g", s)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		prev = p
	}
}
