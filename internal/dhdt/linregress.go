package dhdt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// tiny keeps the t statistic finite for a perfect correlation
const tiny = 1.0e-20

// Trend holds the parameters of a least squares line fitted to one point's
// height samples.
type Trend struct {
	Slope     float64 // height per time unit of x
	Intercept float64
	RValue    float64 // Pearson correlation coefficient
	PValue    float64 // two-sided, null hypothesis of zero slope
	StdErr    float64 // standard error of the slope
}

// LinRegress fits y = Intercept + Slope*x using only the positions where both x
// and y are valid. It returns false, and a zero Trend, when fewer than two such
// positions exist or when all of their x values are identical.
//
// x and y must have the same length; anything else is a bug in the caller and
// panics.
func LinRegress(x, y []Value) (Trend, bool) {
	if len(x) != len(y) {
		panic(fmt.Sprintf("dhdt: LinRegress given %d x values and %d y values", len(x), len(y)))
	}

	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if x[i].usable() && y[i].usable() {
			xs = append(xs, x[i].Float64)
			ys = append(ys, y[i].Float64)
		}
	}

	n := len(xs)
	if n < 2 || constant(xs) {
		return Trend{}, false
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	xvar := stat.Variance(xs, nil)
	yvar := stat.Variance(ys, nil)
	cov := stat.Covariance(xs, ys, nil)

	var r float64
	if yvar != 0 {
		r = cov / math.Sqrt(xvar*yvar)
		r = math.Max(-1, math.Min(1, r))
	}

	var p, stderr float64
	if n == 2 {
		if ys[0] == ys[1] {
			p = 1
		}
	} else {
		df := float64(n - 2)
		t := r * math.Sqrt(df/((1-r+tiny)*(1+r+tiny)))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		p = 2 * dist.Survival(math.Abs(t))
		stderr = math.Sqrt(math.Max(0, 1-r*r) * yvar / xvar / df)
	}

	return Trend{
		Slope:     slope,
		Intercept: intercept,
		RValue:    r,
		PValue:    p,
		StdErr:    stderr,
	}, true
}

func constant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
