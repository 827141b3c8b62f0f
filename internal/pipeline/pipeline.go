// Package pipeline orchestrates the per-station forecasting run: series
// building, decomposition, stationarity testing, model selection,
// forecasting, and evaluation. Stations are mutually independent and are
// processed over a bounded worker pool with no shared mutable state.
package pipeline

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/internal/decompose"
	"github.com/transitlab/ridecast/internal/evaluate"
	"github.com/transitlab/ridecast/internal/forecast"
	"github.com/transitlab/ridecast/internal/mathutil"
	"github.com/transitlab/ridecast/internal/series"
	"github.com/transitlab/ridecast/internal/stationarity"
	"github.com/transitlab/ridecast/pkg/models"
)

// Result holds every artifact produced for one station's run.
type Result struct {
	RunID           string                      `json:"run_id"`
	StationID       string                      `json:"station_id"`
	Series          *models.CleanSeries         `json:"series"`
	Decomposition   *models.Decomposition       `json:"decomposition"`
	Verdict         *models.StationarityVerdict `json:"verdict"`
	ResidualVerdict *models.StationarityVerdict `json:"residual_verdict,omitempty"`
	Spec            models.ModelSpec            `json:"spec"`
	Forecast        *models.Forecast            `json:"forecast"`
	Report          *models.EvaluationReport    `json:"report"`
}

// Pipeline wires the pipeline stages together for repeated runs.
type Pipeline struct {
	cfg        *config.Config
	logger     *logrus.Logger
	builder    *series.Builder
	decomposer *decompose.Decomposer
	tester     *stationarity.Tester
	selector   *forecast.Selector
	forecaster *forecast.Forecaster
	evaluator  *evaluate.Evaluator
}

// New creates a pipeline from the configuration.
func New(cfg *config.Config, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		builder:    series.NewBuilder(cfg, logger),
		decomposer: decompose.NewDecomposer(logger),
		tester:     stationarity.NewTester(cfg, logger),
		selector:   forecast.NewSelector(cfg, logger),
		forecaster: forecast.NewForecaster(cfg, logger),
		evaluator:  evaluate.NewEvaluator(cfg, logger),
	}
}

// Run executes the full pipeline for one station. The evaluation withholds
// a trailing window the size of the configured horizon, fits on the
// remainder, and scores the forecast against the withheld actuals; the
// returned Forecast is then produced from the complete series.
func (p *Pipeline) Run(stationID string, readings []models.RawReading) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.WithFields(logrus.Fields{"run_id": runID, "station": stationID})
	log.Info("Starting pipeline run")

	clean, err := p.builder.Build(stationID, readings)
	if err != nil {
		return nil, err
	}

	decomp, err := p.decomposer.Decompose(clean, p.cfg.SeasonalPeriod, p.cfg.DecompositionMode)
	if err != nil {
		return nil, err
	}

	verdict, err := p.tester.Verdict(clean.Values())
	if err != nil {
		return nil, err
	}

	// The residual retest validates that the decomposition captured the
	// series structure; its outcome is informational.
	residualVerdict, err := p.tester.Verdict(decomp.Residual)
	if err != nil {
		residualVerdict = nil
	}

	spec, err := p.selector.Select(clean, verdict)
	if err != nil {
		return nil, err
	}

	report, err := p.evaluateHoldOut(clean, spec)
	if err != nil {
		return nil, err
	}

	fc, err := p.forecaster.Forecast(clean, spec, p.cfg.Horizon)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"ar_order": spec.AROrder,
		"diff":     spec.DifferencingOrder,
		"mae":      report.Metrics[models.MetricMAE],
	}).Info("Pipeline run complete")

	return &Result{
		RunID:           runID,
		StationID:       stationID,
		Series:          clean,
		Decomposition:   decomp,
		Verdict:         verdict,
		ResidualVerdict: residualVerdict,
		Spec:            spec,
		Forecast:        fc,
		Report:          report,
	}, nil
}

// evaluateHoldOut withholds the trailing horizon, forecasts it from the
// training portion, and scores the result with in-sample residual
// diagnostics from the training fit.
func (p *Pipeline) evaluateHoldOut(clean *models.CleanSeries, spec models.ModelSpec) (*models.EvaluationReport, error) {
	window := p.cfg.Horizon
	if clean.Len() <= window+p.cfg.MinIntervalsOrDefault() {
		// Not enough history to withhold a window; report without metrics.
		return &models.EvaluationReport{
			StationID: clean.StationID,
			Metrics:   map[string]float64{},
			Warnings:  []string{"series too short for hold-out evaluation"},
		}, nil
	}

	train := clean.Slice(0, clean.Len()-window)
	fc, err := p.forecaster.Forecast(train, spec, window)
	if err != nil {
		return nil, err
	}

	// Diagnostics come from whichever model actually produced the forecast.
	var residuals []float64
	fitdf := 1
	if p.cfg.Model == config.ModelSES {
		if model, err := forecast.FitSES(train.Values()); err == nil {
			residuals = model.Residuals
		}
	} else {
		diffed := mathutil.Difference(train.Values(), spec.DifferencingOrder)
		if model, err := forecast.FitAR(diffed, spec.AROrder); err == nil {
			residuals = model.Residuals
		}
		fitdf = spec.AROrder + 1
	}

	return p.evaluator.Evaluate(clean, fc, residuals, fitdf)
}

// RunAll groups readings by station and runs each station's pipeline over a
// bounded worker pool. Results are returned in station order; stations that
// fail are logged and skipped.
func (p *Pipeline) RunAll(readings []models.RawReading) []*Result {
	byStation := make(map[string][]models.RawReading)
	for _, r := range readings {
		byStation[r.StationID] = append(byStation[r.StationID], r)
	}

	stations := make([]string, 0, len(byStation))
	for id := range byStation {
		stations = append(stations, id)
	}
	sort.Strings(stations)

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make(map[string]*Result, len(stations))

	workers := p.cfg.StationWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(stations) {
		workers = len(stations)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				res, err := p.Run(id, byStation[id])
				if err != nil {
					p.logger.WithFields(logrus.Fields{
						"station": id,
						"error":   err,
					}).Warn("Station pipeline failed")
					continue
				}
				mu.Lock()
				results[id] = res
				mu.Unlock()
			}
		}()
	}

	for _, id := range stations {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	ordered := make([]*Result, 0, len(results))
	for _, id := range stations {
		if res, ok := results[id]; ok {
			ordered = append(ordered, res)
		}
	}
	return ordered
}
