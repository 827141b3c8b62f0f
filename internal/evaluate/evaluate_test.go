package evaluate

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/pkg/models"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesOf(values ...float64) *models.CleanSeries {
	points := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		points[i] = models.SeriesPoint{
			Timestamp: testStart.Add(time.Duration(i) * 24 * time.Hour),
			Count:     v,
		}
	}
	return &models.CleanSeries{StationID: "STN-1", Interval: 24 * time.Hour, Points: points}
}

func forecastAt(offsets []int, points []float64) *models.Forecast {
	ts := make([]time.Time, len(offsets))
	for i, off := range offsets {
		ts[i] = testStart.Add(time.Duration(off) * 24 * time.Hour)
	}
	return &models.Forecast{StationID: "STN-1", Timestamps: ts, Points: points}
}

func TestEvaluateMetrics(t *testing.T) {
	actual := seriesOf(10, 20, 30)
	fc := forecastAt([]int{0, 1, 2}, []float64{12, 18, 33})

	e := NewEvaluator(config.DefaultConfig(), nil)
	report, err := e.Evaluate(actual, fc, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, report.WindowSize)
	assert.InDelta(t, 7.0/3, report.Metrics[models.MetricMAE], 1e-9)
	assert.InDelta(t, math.Sqrt(17.0/3), report.Metrics[models.MetricRMSE], 1e-9)
	assert.InDelta(t, 100*(0.2+0.1+0.1)/3, report.Metrics[models.MetricMAPE], 1e-9)
	assert.Nil(t, report.Diagnostics)
}

func TestEvaluateMAPESkipsZeroActuals(t *testing.T) {
	actual := seriesOf(0, 10)
	fc := forecastAt([]int{0, 1}, []float64{5, 12})

	e := NewEvaluator(config.DefaultConfig(), nil)
	report, err := e.Evaluate(actual, fc, nil, 0)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, report.Metrics[models.MetricMAPE], 1e-9)
}

func TestEvaluatePartialOverlap(t *testing.T) {
	actual := seriesOf(10, 20)
	fc := forecastAt([]int{1, 2, 3}, []float64{19, 25, 31})

	e := NewEvaluator(config.DefaultConfig(), nil)
	report, err := e.Evaluate(actual, fc, nil, 0)
	require.NoError(t, err)

	// Only the day-1 timestamp overlaps the actual series.
	assert.Equal(t, 1, report.WindowSize)
	assert.InDelta(t, 1.0, report.Metrics[models.MetricMAE], 1e-9)
}

func TestEvaluateNoOverlap(t *testing.T) {
	actual := seriesOf(10, 20)
	fc := forecastAt([]int{10, 11}, []float64{1, 2})

	e := NewEvaluator(config.DefaultConfig(), nil)
	_, err := e.Evaluate(actual, fc, nil, 0)
	assert.Error(t, err)
}

func TestEvaluateDiagnosticsCleanResiduals(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	residuals := make([]float64, 200)
	for i := range residuals {
		residuals[i] = rng.NormFloat64()
	}

	actual := seriesOf(10, 20)
	fc := forecastAt([]int{0, 1}, []float64{10, 20})

	e := NewEvaluator(config.DefaultConfig(), nil)
	report, err := e.Evaluate(actual, fc, residuals, 1)
	require.NoError(t, err)

	require.NotNil(t, report.Diagnostics)
	assert.InDelta(t, 0, report.Diagnostics.Mean, 0.2)
	require.NotNil(t, report.Diagnostics.LjungBox)
	assert.Greater(t, report.Diagnostics.LjungBox.PValue, 0.01)
	assert.InDelta(t, 2.0, report.Diagnostics.DurbinWatson, 0.4)
}

func TestEvaluateWarnsOnAutocorrelatedResiduals(t *testing.T) {
	// Strongly persistent residuals: Ljung-Box should reject and
	// Durbin-Watson should fall well below 2.
	rng := rand.New(rand.NewSource(19))
	residuals := make([]float64, 200)
	prev := 0.0
	for i := range residuals {
		prev = 0.9*prev + rng.NormFloat64()
		residuals[i] = prev
	}

	actual := seriesOf(10, 20)
	fc := forecastAt([]int{0, 1}, []float64{10, 20})

	e := NewEvaluator(config.DefaultConfig(), nil)
	report, err := e.Evaluate(actual, fc, residuals, 1)
	require.NoError(t, err)

	require.NotNil(t, report.Diagnostics.LjungBox)
	assert.Less(t, report.Diagnostics.LjungBox.PValue, 0.05)
	assert.Less(t, report.Diagnostics.DurbinWatson, 1.5)
	assert.NotEmpty(t, report.Warnings)
}

func TestLjungBoxTooShort(t *testing.T) {
	assert.Nil(t, LjungBox([]float64{1, 2, 3}, 0, 0))
}

func TestDurbinWatsonAlternatingResiduals(t *testing.T) {
	residuals := make([]float64, 100)
	for i := range residuals {
		if i%2 == 0 {
			residuals[i] = 1
		} else {
			residuals[i] = -1
		}
	}
	// Perfect negative first-order correlation pushes the statistic near 4.
	assert.InDelta(t, 4.0, DurbinWatson(residuals), 0.1)
}

func TestWalkForwardBeatsNaive(t *testing.T) {
	// AR(1) with a strongly negative coefficient: one-step model forecasts
	// should clearly beat carrying the last value forward.
	rng := rand.New(rand.NewSource(29))
	n := 500
	values := make([]float64, n)
	prev := 0.0
	for i := range values {
		prev = -0.5*prev + rng.NormFloat64()
		values[i] = 100 + prev
	}

	series := seriesOf(values...)
	e := NewEvaluator(config.DefaultConfig(), nil)

	window := 100
	report, err := e.WalkForward(series, models.ModelSpec{AROrder: 1}, window)
	require.NoError(t, err)
	assert.Equal(t, window, report.WindowSize)

	naiveSq := 0.0
	for i := n - window; i < n; i++ {
		d := values[i] - values[i-1]
		naiveSq += d * d
	}
	naiveRMSE := math.Sqrt(naiveSq / float64(window))

	assert.Less(t, report.Metrics[models.MetricRMSE], naiveRMSE)
	assert.Less(t, report.Metrics[models.MetricRMSE], 1.3)
}

func TestWalkForwardHonorsConfiguredModel(t *testing.T) {
	// On a sign-flipping AR(1) the one-step AR and SES forecasts disagree,
	// so the backtests must score differently when the model changes.
	rng := rand.New(rand.NewSource(37))
	values := make([]float64, 300)
	prev := 0.0
	for i := range values {
		prev = -0.6*prev + rng.NormFloat64()
		values[i] = 50 + prev
	}
	series := seriesOf(values...)
	spec := models.ModelSpec{AROrder: 1}

	arCfg := config.DefaultConfig()
	arReport, err := NewEvaluator(arCfg, nil).WalkForward(series, spec, 50)
	require.NoError(t, err)

	sesCfg := config.DefaultConfig()
	sesCfg.Model = config.ModelSES
	sesReport, err := NewEvaluator(sesCfg, nil).WalkForward(series, spec, 50)
	require.NoError(t, err)

	assert.NotEqual(t, arReport.Metrics[models.MetricRMSE], sesReport.Metrics[models.MetricRMSE])
	// The AR model exploits the alternation that flat smoothing cannot.
	assert.Less(t, arReport.Metrics[models.MetricRMSE], sesReport.Metrics[models.MetricRMSE])
}

func TestWalkForwardWindowValidation(t *testing.T) {
	series := seriesOf(1, 2, 3, 4, 5)
	e := NewEvaluator(config.DefaultConfig(), nil)

	_, err := e.WalkForward(series, models.ModelSpec{}, 0)
	assert.Error(t, err)

	_, err = e.WalkForward(series, models.ModelSpec{}, 5)
	assert.Error(t, err)
}
