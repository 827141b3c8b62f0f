// Package models defines the data artifacts exchanged between pipeline
// stages: raw counter readings, cleaned per-station series, decompositions,
// stationarity verdicts, model specifications, forecasts, and evaluation
// reports.
package models

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// RawReading is a single cumulative counter observation from one turnstile.
// Counters are monotonically non-decreasing except at resets, which the
// series builder detects and discards.
type RawReading struct {
	StationID       string    `json:"station_id"`
	TurnstileID     string    `json:"turnstile_id"`
	Timestamp       time.Time `json:"timestamp"`
	CumulativeCount float64   `json:"cumulative_count"`
}

// SeriesPoint is one regularly-sampled observation in a clean series.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     float64   `json:"count"`
	Imputed   bool      `json:"imputed,omitempty"`
}

// CleanSeries is an ordered, uniformly spaced count series for one station.
// Timestamps are strictly increasing with constant spacing and all counts
// are non-negative. A series is never mutated after creation; each pipeline
// stage reads it and produces a new artifact.
type CleanSeries struct {
	StationID string        `json:"station_id"`
	Interval  time.Duration `json:"interval"`
	Points    []SeriesPoint `json:"points"`
}

// Len returns the number of observations in the series.
func (s *CleanSeries) Len() int {
	return len(s.Points)
}

// Values returns the count values as a new slice.
func (s *CleanSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Count
	}
	return values
}

// Timestamps returns the observation timestamps as a new slice.
func (s *CleanSeries) Timestamps() []time.Time {
	timestamps := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		timestamps[i] = p.Timestamp
	}
	return timestamps
}

// Slice returns a copy of the series restricted to [start, end).
func (s *CleanSeries) Slice(start, end int) *CleanSeries {
	if start < 0 {
		start = 0
	}
	if end > len(s.Points) {
		end = len(s.Points)
	}
	if start >= end {
		return &CleanSeries{StationID: s.StationID, Interval: s.Interval}
	}
	points := make([]SeriesPoint, end-start)
	copy(points, s.Points[start:end])
	return &CleanSeries{StationID: s.StationID, Interval: s.Interval, Points: points}
}

// ImputedCount returns the number of imputed observations.
func (s *CleanSeries) ImputedCount() int {
	count := 0
	for _, p := range s.Points {
		if p.Imputed {
			count++
		}
	}
	return count
}

// Stats computes summary statistics for the series.
func (s *CleanSeries) Stats() SeriesStats {
	values := s.Values()
	if len(values) == 0 {
		return SeriesStats{}
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean, std := stat.MeanStdDev(values, nil)
	return SeriesStats{
		Count:       int64(len(values)),
		Mean:        mean,
		StandardDev: std,
		Min:         min,
		Max:         max,
	}
}

// SeriesStats contains summary statistics of a clean series.
type SeriesStats struct {
	Count       int64   `json:"count"`
	Mean        float64 `json:"mean"`
	StandardDev float64 `json:"standard_dev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// DecompositionMode selects between additive and multiplicative
// decomposition.
type DecompositionMode string

const (
	DecompositionAdditive       DecompositionMode = "additive"
	DecompositionMultiplicative DecompositionMode = "multiplicative"
)

// Decomposition contains the trend, seasonal, and residual components of a
// series. For additive mode trend+seasonal+residual reconstructs the
// original values; for multiplicative mode their product does.
type Decomposition struct {
	StationID string            `json:"station_id"`
	Mode      DecompositionMode `json:"mode"`
	Period    int               `json:"period"`
	Trend     []float64         `json:"trend"`
	Seasonal  []float64         `json:"seasonal"`
	Residual  []float64         `json:"residual"`
}

// Reconstruct recombines the components according to the decomposition mode.
func (d *Decomposition) Reconstruct() []float64 {
	values := make([]float64, len(d.Trend))
	for i := range values {
		if d.Mode == DecompositionMultiplicative {
			values[i] = d.Trend[i] * d.Seasonal[i] * d.Residual[i]
		} else {
			values[i] = d.Trend[i] + d.Seasonal[i] + d.Residual[i]
		}
	}
	return values
}

// StationarityVerdict is the outcome of a unit-root test plus the
// recommended differencing order. It is derived solely from the tested
// series and never mutated afterward.
type StationarityVerdict struct {
	IsStationary      bool    `json:"is_stationary"`
	TestStatistic     float64 `json:"test_statistic"`
	PValue            float64 `json:"p_value"`
	DifferencingOrder int     `json:"differencing_order"`
	Lags              int     `json:"lags"`
	NObs              int     `json:"n_obs"`
}

// ModelSpec identifies the autoregressive model to fit. Immutable once
// selected; owned by one forecaster invocation.
type ModelSpec struct {
	AROrder           int     `json:"ar_order"`
	DifferencingOrder int     `json:"differencing_order"`
	SeasonalPeriod    int     `json:"seasonal_period"`
	AICc              float64 `json:"aicc,omitempty"`
}

// Forecast holds point forecasts with confidence bounds for a fixed horizon.
// Lower and Upper bracket Points at the stated confidence level, and all
// four sequences share the same length.
type Forecast struct {
	StationID       string      `json:"station_id"`
	Spec            ModelSpec   `json:"spec"`
	Timestamps      []time.Time `json:"timestamps"`
	Points          []float64   `json:"points"`
	Lower           []float64   `json:"lower"`
	Upper           []float64   `json:"upper"`
	ConfidenceLevel float64     `json:"confidence_level"`
}

// Horizon returns the number of forecast steps.
func (f *Forecast) Horizon() int {
	return len(f.Points)
}

// Metric names reported by the evaluator.
const (
	MetricMAE  = "mae"
	MetricRMSE = "rmse"
	MetricMAPE = "mape"
)

// LjungBoxResult contains the Ljung-Box test for residual autocorrelation.
// The null hypothesis is that residuals are independent up to the tested
// lag.
type LjungBoxResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Lags      int     `json:"lags"`
	DOF       int     `json:"dof"`
}

// ResidualDiagnostics contains advisory in-sample residual checks.
type ResidualDiagnostics struct {
	Mean         float64         `json:"mean"`
	Variance     float64         `json:"variance"`
	LjungBox     *LjungBoxResult `json:"ljung_box,omitempty"`
	DurbinWatson float64         `json:"durbin_watson"`
}

// EvaluationReport contains hold-out error metrics and residual
// diagnostics. Diagnostics are advisory; warnings never fail the run.
type EvaluationReport struct {
	StationID   string               `json:"station_id"`
	WindowSize  int                  `json:"window_size"`
	Metrics     map[string]float64   `json:"metrics"`
	Diagnostics *ResidualDiagnostics `json:"diagnostics,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
}
