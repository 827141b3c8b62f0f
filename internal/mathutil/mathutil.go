// Package mathutil provides the shared numeric routines used by the
// pipeline stages: differencing, integration, autocorrelation, and ordinary
// least squares.
package mathutil

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Difference applies d successive first differences to the values.
func Difference(values []float64, d int) []float64 {
	result := make([]float64, len(values))
	copy(result, values)

	for i := 0; i < d; i++ {
		if len(result) < 2 {
			return nil
		}
		diff := make([]float64, len(result)-1)
		for j := 1; j < len(result); j++ {
			diff[j-1] = result[j] - result[j-1]
		}
		result = diff
	}
	return result
}

// Integrate reverses d levels of differencing for a forecast on the
// differenced scale. tails holds, for each level applied (outermost first),
// the last value of the series at that level of differencing.
func Integrate(forecast []float64, tails []float64) []float64 {
	result := make([]float64, len(forecast))
	copy(result, forecast)

	for level := len(tails) - 1; level >= 0; level-- {
		prev := tails[level]
		for j := range result {
			result[j] += prev
			prev = result[j]
		}
	}
	return result
}

// DifferenceTails returns the last value of the series at each successive
// level of differencing, for use with Integrate. tails[0] is the last
// original value, tails[1] the last first-difference, and so on.
func DifferenceTails(values []float64, d int) []float64 {
	tails := make([]float64, d)
	current := values
	for i := 0; i < d; i++ {
		tails[i] = current[len(current)-1]
		current = Difference(current, 1)
	}
	return tails
}

// ACF computes the autocorrelation function up to maxLag. The returned
// slice has maxLag+1 entries with ACF(0) == 1.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if n == 0 || maxLag < 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := stat.Mean(values, nil)
	var c0 float64
	for _, v := range values {
		c0 += (v - mean) * (v - mean)
	}
	c0 /= float64(n)

	acf := make([]float64, maxLag+1)
	acf[0] = 1.0
	if c0 == 0 {
		return acf
	}

	for k := 1; k <= maxLag; k++ {
		var ck float64
		for i := k; i < n; i++ {
			ck += (values[i] - mean) * (values[i-k] - mean)
		}
		ck /= float64(n)
		acf[k] = ck / c0
	}
	return acf
}

// OLSResult contains the outcome of an ordinary least squares regression.
type OLSResult struct {
	Coefficients []float64
	StdErrors    []float64
	Residuals    []float64
	SSE          float64
	Sigma2       float64
}

// OLS solves y = X*beta by least squares and returns coefficient standard
// errors. Returns false when the design matrix is singular.
func OLS(x *mat.Dense, y []float64) (*OLSResult, bool) {
	n, k := x.Dims()
	if n == 0 || n < k || len(y) != n {
		return nil, false
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, false
	}

	yVec := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yVec)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	coefs := make([]float64, k)
	for i := 0; i < k; i++ {
		coefs[i] = beta.AtVec(i)
	}

	residuals := make([]float64, n)
	sse := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < k; j++ {
			pred += coefs[j] * x.At(i, j)
		}
		residuals[i] = y[i] - pred
		sse += residuals[i] * residuals[i]
	}

	sigma2 := 0.0
	if n > k {
		sigma2 = sse / float64(n-k)
	}

	se := make([]float64, k)
	for i := 0; i < k; i++ {
		se[i] = math.Sqrt(sigma2 * xtxInv.At(i, i))
	}

	return &OLSResult{
		Coefficients: coefs,
		StdErrors:    se,
		Residuals:    residuals,
		SSE:          sse,
		Sigma2:       sigma2,
	}, true
}
