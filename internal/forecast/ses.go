package forecast

import (
	"math"

	"github.com/transitlab/ridecast/pkg/errors"
)

// SESModel is a simple exponential smoothing model. It forecasts a flat
// continuation of the last smoothed level and serves as the alternative to
// the autoregressive model for series without exploitable autocorrelation
// structure.
type SESModel struct {
	Alpha     float64
	Level     float64
	Residuals []float64
	Sigma2    float64
}

// FitSES fits the smoothing parameter by grid search over (0, 1),
// minimizing the in-sample one-step sum of squared errors.
func FitSES(values []float64) (*SESModel, error) {
	n := len(values)
	if n < 2 {
		return nil, errors.NewModelFitError("exponential smoothing needs at least 2 observations")
	}

	best := &SESModel{}
	bestSSE := math.Inf(1)

	for i := 1; i <= 19; i++ {
		alpha := float64(i) * 0.05
		level := values[0]
		residuals := make([]float64, 0, n-1)
		sse := 0.0
		for _, v := range values[1:] {
			e := v - level
			residuals = append(residuals, e)
			sse += e * e
			level += alpha * e
		}
		if sse < bestSSE {
			bestSSE = sse
			best = &SESModel{Alpha: alpha, Level: level, Residuals: residuals}
		}
	}

	best.Sigma2 = bestSSE / float64(len(best.Residuals))
	return best, nil
}

// Forecast returns a flat forecast at the fitted level.
func (m *SESModel) Forecast(steps int) []float64 {
	out := make([]float64, steps)
	for i := range out {
		out[i] = m.Level
	}
	return out
}

// VarianceAt returns the forecast error variance h steps ahead.
func (m *SESModel) VarianceAt(h int) float64 {
	return m.Sigma2 * (1 + float64(h-1)*m.Alpha*m.Alpha)
}
