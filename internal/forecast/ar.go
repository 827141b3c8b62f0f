package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/transitlab/ridecast/internal/mathutil"
	"github.com/transitlab/ridecast/pkg/errors"
)

// ARModel is a linear autoregressive model fitted by least squares:
// y_t = c + phi_1*y_{t-1} + ... + phi_p*y_{t-p} + e_t.
type ARModel struct {
	Order        int
	Intercept    float64
	Coefficients []float64
	Residuals    []float64
	Sigma2       float64
	LogLik       float64
	AIC          float64
	AICc         float64
	NObs         int
}

// FitAR fits an AR(p) model to the values. It fails with a model fit error
// when the series has fewer than p+1 observations or the regression is
// numerically singular (e.g. a constant series).
func FitAR(values []float64, p int) (*ARModel, error) {
	n := len(values)
	if p < 0 {
		return nil, errors.NewValidationError(errors.CodeOutOfRange, "AR order must be non-negative")
	}
	if n < p+1 {
		return nil, errors.NewModelFitError(
			fmt.Sprintf("AR(%d) needs at least %d observations, have %d", p, p+1, n))
	}
	if stat.Variance(values, nil) == 0 {
		return nil, errors.NewModelFitError("series is constant")
	}

	model := &ARModel{Order: p, Coefficients: make([]float64, p)}

	if p == 0 {
		// White noise around a mean.
		mean := stat.Mean(values, nil)
		model.Intercept = mean
		model.Residuals = make([]float64, n)
		sse := 0.0
		for i, v := range values {
			model.Residuals[i] = v - mean
			sse += model.Residuals[i] * model.Residuals[i]
		}
		model.NObs = n
		model.Sigma2 = sse / float64(n-1)
		model.computeIC(sse)
		return model, nil
	}

	rows := n - p
	cols := p + 1
	if rows < cols {
		return nil, errors.NewModelFitError(
			fmt.Sprintf("AR(%d) regression underdetermined: %d rows, %d parameters", p, rows, cols))
	}

	x := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		t := i + p
		y[i] = values[t]
		x.Set(i, 0, 1)
		for j := 1; j <= p; j++ {
			x.Set(i, j, values[t-j])
		}
	}

	res, ok := mathutil.OLS(x, y)
	if !ok {
		return nil, errors.NewModelFitError("singular autoregressive design matrix")
	}

	model.Intercept = res.Coefficients[0]
	copy(model.Coefficients, res.Coefficients[1:])
	model.Residuals = res.Residuals
	model.NObs = rows
	model.Sigma2 = res.Sigma2
	model.computeIC(res.SSE)
	return model, nil
}

// computeIC fills in the Gaussian log-likelihood and information criteria.
func (m *ARModel) computeIC(sse float64) {
	n := float64(m.NObs)
	k := float64(m.Order + 1) // AR coefficients plus intercept

	variance := sse / n
	if variance <= 0 {
		m.LogLik = math.Inf(1)
		m.AIC = math.Inf(-1)
		m.AICc = math.Inf(-1)
		return
	}

	m.LogLik = -n/2*math.Log(2*math.Pi) - n/2*math.Log(variance) - sse/(2*variance)
	m.AIC = -2*m.LogLik + 2*k

	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
}

// Forecast produces point forecasts by recursive substitution, feeding each
// forecast step back in as history for the next.
func (m *ARModel) Forecast(history []float64, steps int) []float64 {
	ext := make([]float64, len(history), len(history)+steps)
	copy(ext, history)

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		pred := m.Intercept
		for j := 0; j < m.Order; j++ {
			idx := len(ext) - 1 - j
			if idx < 0 {
				break
			}
			pred += m.Coefficients[j] * ext[idx]
		}
		out[h] = pred
		ext = append(ext, pred)
	}
	return out
}

// PsiWeights returns the first `steps` moving-average representation
// weights of the AR process, used for forecast-error variance growth.
func (m *ARModel) PsiWeights(steps int) []float64 {
	psi := make([]float64, steps)
	if steps == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < steps; j++ {
		for i := 1; i <= m.Order && i <= j; i++ {
			psi[j] += m.Coefficients[i-1] * psi[j-i]
		}
	}
	return psi
}
