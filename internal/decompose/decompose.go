// Package decompose splits a clean series into trend, seasonal, and
// residual components using classical moving-average decomposition.
package decompose

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

// Decomposer performs classical seasonal decomposition.
type Decomposer struct {
	logger *logrus.Logger
}

// NewDecomposer creates a decomposer.
func NewDecomposer(logger *logrus.Logger) *Decomposer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Decomposer{logger: logger}
}

// Decompose splits the series into trend, seasonal, and residual components
// for the given seasonal period. Additive mode satisfies
// trend+seasonal+residual == original; multiplicative mode satisfies
// trend*seasonal*residual == original and requires strictly positive data.
func (d *Decomposer) Decompose(series *models.CleanSeries, period int, mode models.DecompositionMode) (*models.Decomposition, error) {
	n := series.Len()
	if period < 2 {
		return nil, errors.NewValidationError(errors.CodeOutOfRange, "seasonal period must be at least 2")
	}
	if n < 2*period {
		return nil, errors.NewInsufficientDataError(
			fmt.Sprintf("need at least %d observations for period %d, have %d", 2*period, period, n))
	}

	values := series.Values()

	if mode == models.DecompositionMultiplicative {
		for i, v := range values {
			if v <= 0 {
				return nil, errors.NewInvalidDecompositionModeError(
					fmt.Sprintf("value %g at index %d", v, i))
			}
		}
	} else if mode != models.DecompositionAdditive {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"decomposition mode must be additive or multiplicative")
	}

	trend := centeredMovingAverage(values, period)

	// Detrend, then average the detrended values at each phase position.
	detrended := make([]float64, n)
	for i := range values {
		if mode == models.DecompositionMultiplicative {
			detrended[i] = values[i] / trend[i]
		} else {
			detrended[i] = values[i] - trend[i]
		}
	}

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range detrended {
		pattern[i%period] += v
		counts[i%period]++
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}

	// Normalize: additive seasonal values sum to zero over one period,
	// multiplicative values average to one.
	sum := 0.0
	for _, v := range pattern {
		sum += v
	}
	mean := sum / float64(period)
	for i := range pattern {
		if mode == models.DecompositionMultiplicative {
			pattern[i] /= mean
		} else {
			pattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := range values {
		seasonal[i] = pattern[i%period]
		if mode == models.DecompositionMultiplicative {
			residual[i] = values[i] / (trend[i] * seasonal[i])
		} else {
			residual[i] = values[i] - trend[i] - seasonal[i]
		}
	}

	d.logger.WithFields(logrus.Fields{
		"station": series.StationID,
		"period":  period,
		"mode":    mode,
		"n":       n,
	}).Debug("Decomposed series")

	return &models.Decomposition{
		StationID: series.StationID,
		Mode:      mode,
		Period:    period,
		Trend:     trend,
		Seasonal:  seasonal,
		Residual:  residual,
	}, nil
}

// centeredMovingAverage smooths the series with a window equal to the
// seasonal period. Even periods use a 2xm weighted average so the window
// stays centered. Edges, where a full window does not fit, carry the
// nearest interior estimate so every position has a defined trend.
func centeredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	half := period / 2

	lo, hi := half, n-half-1
	if period%2 == 0 {
		hi = n - half - 1
		for i := half; i <= hi; i++ {
			sum := 0.5*values[i-half] + 0.5*values[i+half]
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	} else {
		hi = n - half - 1
		for i := half; i <= hi; i++ {
			sum := 0.0
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	}

	for i := 0; i < lo; i++ {
		trend[i] = trend[lo]
	}
	for i := hi + 1; i < n; i++ {
		trend[i] = trend[hi]
	}
	return trend
}
