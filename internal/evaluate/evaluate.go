// Package evaluate computes forecast error metrics over a withheld trailing
// window and advisory residual diagnostics for the fitted model.
package evaluate

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/internal/forecast"
	"github.com/transitlab/ridecast/internal/mathutil"
	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

// Evaluator scores forecasts against withheld actuals.
type Evaluator struct {
	cfg        *config.Config
	logger     *logrus.Logger
	forecaster *forecast.Forecaster
}

// NewEvaluator creates an evaluator from the pipeline configuration.
func NewEvaluator(cfg *config.Config, logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{
		cfg:        cfg,
		logger:     logger,
		forecaster: forecast.NewForecaster(cfg, logger),
	}
}

// Evaluate compares forecast point estimates against the actual series over
// the overlapping horizon and reports MAE, RMSE, and MAPE. The residuals
// argument carries the in-sample fit residuals for diagnostics; it may be
// nil when only hold-out metrics are wanted.
func (e *Evaluator) Evaluate(actual *models.CleanSeries, fc *models.Forecast, residuals []float64, fitdf int) (*models.EvaluationReport, error) {
	actualByTime := make(map[int64]float64, actual.Len())
	for _, p := range actual.Points {
		actualByTime[p.Timestamp.Unix()] = p.Count
	}

	var predicted, observed []float64
	for i, ts := range fc.Timestamps {
		if v, ok := actualByTime[ts.Unix()]; ok {
			predicted = append(predicted, fc.Points[i])
			observed = append(observed, v)
		}
	}
	if len(predicted) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidTimeRange,
			"forecast window does not overlap the actual series")
	}

	report := &models.EvaluationReport{
		StationID:  actual.StationID,
		WindowSize: len(predicted),
		Metrics:    metrics(observed, predicted),
	}

	if residuals != nil {
		report.Diagnostics = e.diagnostics(residuals, fitdf)
		report.Warnings = warningsFor(report.Diagnostics, e.cfg.SignificanceLevel)
	}

	e.logger.WithFields(logrus.Fields{
		"station": actual.StationID,
		"window":  report.WindowSize,
		"mae":     report.Metrics[models.MetricMAE],
		"rmse":    report.Metrics[models.MetricRMSE],
	}).Debug("Evaluated forecast")

	return report, nil
}

// WalkForward performs a rolling-origin backtest over the trailing window:
// the configured model is refitted on a history grown by each observed test
// point and a one-step forecast is collected for every step.
func (e *Evaluator) WalkForward(series *models.CleanSeries, spec models.ModelSpec, window int) (*models.EvaluationReport, error) {
	n := series.Len()
	if window < 1 || window >= n {
		return nil, errors.NewValidationError(errors.CodeOutOfRange,
			fmt.Sprintf("walk-forward window must be in [1, %d)", n))
	}

	values := series.Values()
	split := n - window

	var predicted, observed []float64
	for t := split; t < n; t++ {
		fc, err := e.forecaster.Forecast(series.Slice(0, t), spec, 1)
		if err != nil {
			return nil, err
		}
		predicted = append(predicted, fc.Points[0])
		observed = append(observed, values[t])
	}

	report := &models.EvaluationReport{
		StationID:  series.StationID,
		WindowSize: window,
		Metrics:    metrics(observed, predicted),
	}

	e.logger.WithFields(logrus.Fields{
		"station": series.StationID,
		"window":  window,
		"rmse":    report.Metrics[models.MetricRMSE],
	}).Debug("Walk-forward backtest complete")

	return report, nil
}

// metrics computes MAE, RMSE, and MAPE between observed and predicted.
// MAPE skips zero actuals rather than dividing by them.
func metrics(observed, predicted []float64) map[string]float64 {
	n := float64(len(observed))
	var absSum, sqSum, pctSum float64
	pctCount := 0
	for i := range observed {
		err := observed[i] - predicted[i]
		absSum += math.Abs(err)
		sqSum += err * err
		if observed[i] != 0 {
			pctSum += math.Abs(err / observed[i])
			pctCount++
		}
	}

	m := map[string]float64{
		models.MetricMAE:  absSum / n,
		models.MetricRMSE: math.Sqrt(sqSum / n),
	}
	if pctCount > 0 {
		m[models.MetricMAPE] = pctSum / float64(pctCount) * 100
	}
	return m
}

// diagnostics runs the advisory residual checks: mean near zero, Ljung-Box
// autocorrelation, and the Durbin-Watson statistic.
func (e *Evaluator) diagnostics(residuals []float64, fitdf int) *models.ResidualDiagnostics {
	diag := &models.ResidualDiagnostics{
		Mean:     stat.Mean(residuals, nil),
		Variance: stat.Variance(residuals, nil),
	}
	diag.LjungBox = LjungBox(residuals, 0, fitdf)
	diag.DurbinWatson = DurbinWatson(residuals)
	return diag
}

// warningsFor converts diagnostic outcomes into advisory warnings. They
// flag possible model misspecification but never fail the run.
func warningsFor(diag *models.ResidualDiagnostics, significance float64) []string {
	var warnings []string
	if diag.Variance > 0 {
		standardized := math.Abs(diag.Mean) / math.Sqrt(diag.Variance)
		if standardized > 0.1 {
			warnings = append(warnings, fmt.Sprintf(
				"residual mean %.4f deviates from zero", diag.Mean))
		}
	}
	if diag.LjungBox != nil && diag.LjungBox.PValue < significance {
		warnings = append(warnings, fmt.Sprintf(
			"residuals show autocorrelation (Ljung-Box p=%.4f)", diag.LjungBox.PValue))
	}
	if diag.DurbinWatson != 0 && (diag.DurbinWatson < 1.5 || diag.DurbinWatson > 2.5) {
		warnings = append(warnings, fmt.Sprintf(
			"Durbin-Watson statistic %.2f suggests serial correlation", diag.DurbinWatson))
	}
	return warnings
}

// LjungBox tests residuals for autocorrelation up to the given lag. Zero
// lags selects a default of min(ln(n), n/4). fitdf is the number of model
// parameters, subtracted from the degrees of freedom.
func LjungBox(residuals []float64, lags, fitdf int) *models.LjungBoxResult {
	n := len(residuals)
	if n < 10 {
		return nil
	}
	if lags <= 0 {
		lags = int(math.Log(float64(n)))
		if lags > n/4 {
			lags = n / 4
		}
		if lags < 1 {
			lags = 1
		}
	}
	if lags >= n {
		lags = n - 1
	}

	acf := mathutil.ACF(residuals, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi := distuv.ChiSquared{K: float64(dof)}
	return &models.LjungBoxResult{
		Statistic: q,
		PValue:    1 - chi.CDF(q),
		Lags:      lags,
		DOF:       dof,
	}
}

// DurbinWatson computes the first-order serial correlation statistic.
// Values near 2 indicate no autocorrelation.
func DurbinWatson(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return 0
	}
	var num, den float64
	for i := 1; i < n; i++ {
		d := residuals[i] - residuals[i-1]
		num += d * d
	}
	for _, r := range residuals {
		den += r * r
	}
	if den == 0 {
		return 0
	}
	return num / den
}
