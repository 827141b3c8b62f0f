package mathutil

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDifference(t *testing.T) {
	values := []float64{1, 4, 9, 16, 25}

	first := Difference(values, 1)
	assert.Equal(t, []float64{3, 5, 7, 9}, first)

	second := Difference(values, 2)
	assert.Equal(t, []float64{2, 2, 2}, second)

	assert.Equal(t, values, Difference(values, 0))
}

func TestDifferenceTooShort(t *testing.T) {
	assert.Nil(t, Difference([]float64{1}, 1))
	assert.Nil(t, Difference([]float64{1, 2}, 2))
}

func TestIntegrateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n, h := 50, 10

	full := make([]float64, n+h)
	for i := range full {
		full[i] = rng.NormFloat64() * 10
	}

	for d := 1; d <= 2; d++ {
		history := full[:n]
		diffFull := Difference(full, d)
		futureDiff := diffFull[n-d:]

		tails := DifferenceTails(history, d)
		restored := Integrate(futureDiff, tails)

		require.Len(t, restored, h)
		for i := range restored {
			assert.InDelta(t, full[n+i], restored[i], 1e-9, "order %d step %d", d, i)
		}
	}
}

func TestACFWhiteNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 500)
	for i := range values {
		values[i] = rng.NormFloat64()
	}

	acf := ACF(values, 10)
	require.Len(t, acf, 11)
	assert.Equal(t, 1.0, acf[0])
	for k := 1; k <= 10; k++ {
		assert.Less(t, mathAbs(acf[k]), 0.15, "lag %d", k)
	}
}

func TestACFConstantSeries(t *testing.T) {
	acf := ACF([]float64{5, 5, 5, 5, 5}, 3)
	require.Len(t, acf, 4)
	assert.Equal(t, 1.0, acf[0])
	assert.Equal(t, 0.0, acf[1])
}

func TestOLSExactFit(t *testing.T) {
	// y = 2 + 3x with no noise
	n := 20
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
		y[i] = 2 + 3*float64(i)
	}

	res, ok := OLS(x, y)
	require.True(t, ok)
	assert.InDelta(t, 2.0, res.Coefficients[0], 1e-9)
	assert.InDelta(t, 3.0, res.Coefficients[1], 1e-9)
	assert.InDelta(t, 0.0, res.SSE, 1e-9)
}

func TestOLSSingular(t *testing.T) {
	// Two identical columns
	n := 10
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, 1)
		y[i] = float64(i)
	}

	_, ok := OLS(x, y)
	assert.False(t, ok)
}

func mathAbs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
