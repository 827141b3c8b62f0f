// Package forecast fits linear autoregressive models and produces point
// forecasts with confidence intervals on the original count scale.
package forecast

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/internal/mathutil"
	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

// Forecaster fits the selected model and generates forecasts for a
// requested horizon.
type Forecaster struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewForecaster creates a forecaster from the pipeline configuration.
func NewForecaster(cfg *config.Config, logger *logrus.Logger) *Forecaster {
	if logger == nil {
		logger = logrus.New()
	}
	return &Forecaster{cfg: cfg, logger: logger}
}

// Forecast fits the model described by spec to the series and forecasts
// `horizon` steps ahead. Long-horizon autoregressive forecasts are
// unreliable, so horizons beyond the configured maximum are rejected
// rather than silently produced.
func (f *Forecaster) Forecast(series *models.CleanSeries, spec models.ModelSpec, horizon int) (*models.Forecast, error) {
	if horizon < 1 {
		return nil, errors.NewValidationError(errors.CodeOutOfRange, "forecast horizon must be a positive integer")
	}
	if maxHorizon := f.cfg.MaxHorizon(); horizon > maxHorizon {
		return nil, errors.NewHorizonTooLongError(horizon, maxHorizon)
	}

	if f.cfg.Model == config.ModelSES {
		return f.forecastSES(series, spec, horizon)
	}
	return f.forecastAR(series, spec, horizon)
}

func (f *Forecaster) forecastAR(series *models.CleanSeries, spec models.ModelSpec, horizon int) (*models.Forecast, error) {
	values := series.Values()
	d := spec.DifferencingOrder

	// Optional linear detrend before fitting; the extrapolated trend is
	// added back to the forecast afterwards.
	var trendAlpha, trendBeta float64
	if f.cfg.Detrend {
		xs := make([]float64, len(values))
		for i := range xs {
			xs[i] = float64(i)
		}
		trendAlpha, trendBeta = stat.LinearRegression(xs, values, nil, false)
		detrended := make([]float64, len(values))
		for i, v := range values {
			detrended[i] = v - (trendAlpha + trendBeta*float64(i))
		}
		values = detrended
	}

	diffed := mathutil.Difference(values, d)
	if diffed == nil {
		return nil, errors.NewModelFitError("series too short for requested differencing")
	}

	model, err := FitAR(diffed, spec.AROrder)
	if err != nil {
		return nil, err
	}

	points := model.Forecast(diffed, horizon)
	if d > 0 {
		tails := mathutil.DifferenceTails(values, d)
		points = mathutil.Integrate(points, tails)
	}

	// Forecast error variance grows with the cumulative psi weights of the
	// (integrated) process.
	psi := model.PsiWeights(horizon)
	for level := 0; level < d; level++ {
		cum := 0.0
		for j := range psi {
			cum += psi[j]
			psi[j] = cum
		}
	}

	if f.cfg.Detrend {
		n := len(values)
		for h := range points {
			points[h] += trendAlpha + trendBeta*float64(n+h)
		}
	}

	z := distuv.UnitNormal.Quantile(0.5 + f.cfg.ConfidenceLevel/2)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	variance := 0.0
	for h := 0; h < horizon; h++ {
		variance += psi[h] * psi[h] * model.Sigma2
		margin := z * math.Sqrt(variance)
		lower[h] = points[h] - margin
		upper[h] = points[h] + margin
	}

	fc := &models.Forecast{
		StationID:       series.StationID,
		Spec:            spec,
		Timestamps:      futureTimestamps(series, horizon),
		Points:          points,
		Lower:           lower,
		Upper:           upper,
		ConfidenceLevel: f.cfg.ConfidenceLevel,
	}

	f.logger.WithFields(logrus.Fields{
		"station":  series.StationID,
		"model":    "ar",
		"ar_order": spec.AROrder,
		"diff":     d,
		"horizon":  horizon,
	}).Debug("Generated forecast")

	return fc, nil
}

func (f *Forecaster) forecastSES(series *models.CleanSeries, spec models.ModelSpec, horizon int) (*models.Forecast, error) {
	model, err := FitSES(series.Values())
	if err != nil {
		return nil, err
	}

	points := model.Forecast(horizon)
	z := distuv.UnitNormal.Quantile(0.5 + f.cfg.ConfidenceLevel/2)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		margin := z * math.Sqrt(model.VarianceAt(h+1))
		lower[h] = points[h] - margin
		upper[h] = points[h] + margin
	}

	fc := &models.Forecast{
		StationID:       series.StationID,
		Spec:            spec,
		Timestamps:      futureTimestamps(series, horizon),
		Points:          points,
		Lower:           lower,
		Upper:           upper,
		ConfidenceLevel: f.cfg.ConfidenceLevel,
	}

	f.logger.WithFields(logrus.Fields{
		"station": series.StationID,
		"model":   "ses",
		"alpha":   model.Alpha,
		"horizon": horizon,
	}).Debug("Generated forecast")

	return fc, nil
}

func futureTimestamps(series *models.CleanSeries, horizon int) []time.Time {
	last := series.Points[len(series.Points)-1].Timestamp
	out := make([]time.Time, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = last.Add(time.Duration(i+1) * series.Interval)
	}
	return out
}
