// Package stationarity verifies whether a series is stationary using the
// Augmented Dickey-Fuller unit-root test and recommends the differencing
// order needed to reach stationarity.
package stationarity

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/internal/mathutil"
	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

const minObservations = 10

// Tester runs unit-root tests with a configured significance level.
type Tester struct {
	significance float64
	maxDiff      int
	logger       *logrus.Logger
}

// NewTester creates a stationarity tester from the pipeline configuration.
func NewTester(cfg *config.Config, logger *logrus.Logger) *Tester {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tester{
		significance: cfg.SignificanceLevel,
		maxDiff:      cfg.MaxDifferencingOrder,
		logger:       logger,
	}
}

// Verdict tests the series for stationarity and, when the test fails,
// recommends a differencing order by iteratively differencing and retesting
// up to the configured maximum. The reported statistic and p-value always
// describe the original series; DifferencingOrder is the first order at
// which a retest passed, or the maximum tried when none did.
func (t *Tester) Verdict(values []float64) (*models.StationarityVerdict, error) {
	stat, pValue, lags, nObs, err := t.adf(values)
	if err != nil {
		return nil, err
	}

	verdict := &models.StationarityVerdict{
		IsStationary:      pValue < t.significance,
		TestStatistic:     stat,
		PValue:            pValue,
		DifferencingOrder: 0,
		Lags:              lags,
		NObs:              nObs,
	}
	if verdict.IsStationary {
		return verdict, nil
	}

	current := values
	for d := 1; d <= t.maxDiff; d++ {
		current = mathutil.Difference(current, 1)
		if len(current) < minObservations {
			verdict.DifferencingOrder = d - 1
			return verdict, nil
		}

		_, p, _, _, err := t.adf(current)
		if err != nil {
			return nil, err
		}
		if p < t.significance {
			verdict.DifferencingOrder = d
			t.logger.WithFields(logrus.Fields{
				"order":   d,
				"p_value": p,
			}).Debug("Series stationary after differencing")
			return verdict, nil
		}
	}

	verdict.DifferencingOrder = t.maxDiff
	return verdict, nil
}

// adf runs the Augmented Dickey-Fuller regression with a constant term.
// The null hypothesis is that the series contains a unit root.
func (t *Tester) adf(values []float64) (stat, pValue float64, lags, nObs int, err error) {
	n := len(values)
	if n < minObservations {
		return 0, 0, 0, 0, errors.NewInsufficientDataError(
			fmt.Sprintf("stationarity test needs at least %d observations, have %d", minObservations, n))
	}

	// Schwert-style default lag selection.
	maxLag := int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	if maxLag >= n-2 {
		maxLag = n - 3
	}
	if maxLag < 0 {
		maxLag = 0
	}

	diff := mathutil.Difference(values, 1)

	// Regression: dy_t = alpha + beta*y_{t-1} + sum(gamma_i * dy_{t-i}).
	// Beta's t-statistic is the test statistic.
	rows := len(diff) - maxLag
	cols := 2 + maxLag
	if rows <= cols {
		return 0, 0, 0, 0, errors.NewInsufficientDataError(
			fmt.Sprintf("stationarity regression underdetermined: %d rows, %d regressors", rows, cols))
	}

	x := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		ti := i + maxLag
		y[i] = diff[ti]
		x.Set(i, 0, 1)
		x.Set(i, 1, values[ti])
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff[ti-j])
		}
	}

	res, ok := mathutil.OLS(x, y)
	if !ok || res.StdErrors[1] == 0 {
		// A degenerate regression means the series has no variation left;
		// treat it as stationary.
		return 0, 0, maxLag, rows, nil
	}

	stat = res.Coefficients[1] / res.StdErrors[1]
	return stat, mackinnonPValue(stat), maxLag, rows, nil
}

// mackinnonKnots are approximate (statistic, p-value) pairs for the ADF
// distribution with constant, from MacKinnon's response surface.
var mackinnonKnots = [][2]float64{
	{-3.96, 0.001},
	{-3.43, 0.01},
	{-2.86, 0.05},
	{-2.57, 0.10},
	{-1.94, 0.25},
	{-1.62, 0.50},
	{-0.50, 0.85},
	{0.60, 0.99},
}

// mackinnonPValue interpolates an approximate p-value for the ADF statistic.
func mackinnonPValue(stat float64) float64 {
	if stat <= mackinnonKnots[0][0] {
		return mackinnonKnots[0][1]
	}
	last := mackinnonKnots[len(mackinnonKnots)-1]
	if stat >= last[0] {
		return last[1]
	}
	for i := 1; i < len(mackinnonKnots); i++ {
		lo, hi := mackinnonKnots[i-1], mackinnonKnots[i]
		if stat <= hi[0] {
			frac := (stat - lo[0]) / (hi[0] - lo[0])
			return lo[1] + frac*(hi[1]-lo[1])
		}
	}
	return last[1]
}
