/*package fit contains the ordinary least squares fit shared by the aggregate
metrics and the image analyzer. Both fit power laws, so the inputs are usually
logarithms already.
*/
package fit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aglogen/aglogen/errs"
)

// Line is the result of fitting y = Intercept + Slope * x.
type Line struct {
	Slope, Intercept float64
	// RSquared is the coefficient of determination. A perfect fit has
	// RSquared = 1, including the case where y is constant.
	RSquared float64
	// StdErr is the standard error of the slope. It is zero when only two
	// points were fit.
	StdErr float64
	// Residuals are y - (Intercept + Slope * x) for each input point.
	Residuals []float64
	N         int
}

// Linear fits a line to (xs, ys). Pairs where either value is NaN or infinite
// are dropped. Fewer than two usable pairs, or usable pairs which all share
// one x value, yield an error of kind errs.NumericDegeneracy.
func Linear(xs, ys []float64) (Line, error) {
	return Weighted(xs, ys, nil)
}

// Weighted is Linear with a weight per point. A nil ws weights every point
// equally. Points with non-positive weights are dropped. RSquared and StdErr
// use the weighted sums of squares; Residuals are unweighted.
func Weighted(xs, ys, ws []float64) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, errs.Invalid("fit", "len(xs) = %d but len(ys) = %d",
			len(xs), len(ys))
	} else if ws != nil && len(ws) != len(xs) {
		return Line{}, errs.Invalid("fit", "len(xs) = %d but len(ws) = %d",
			len(xs), len(ws))
	}

	x := make([]float64, 0, len(xs))
	y := make([]float64, 0, len(ys))
	var w []float64
	if ws != nil {
		w = make([]float64, 0, len(ws))
	}
	for i := range xs {
		if !isFinite(xs[i]) || !isFinite(ys[i]) {
			continue
		}
		if ws != nil {
			if !(ws[i] > 0) || math.IsInf(ws[i], 0) {
				continue
			}
			w = append(w, ws[i])
		}
		x = append(x, xs[i])
		y = append(y, ys[i])
	}
	if len(x) < 2 {
		return Line{}, errs.New(errs.NumericDegeneracy, "fit",
			"%d usable points, need at least 2", len(x))
	}
	if floats.Max(x) == floats.Min(x) {
		return Line{}, errs.New(errs.NumericDegeneracy, "fit",
			"all %d points have x = %g", len(x), x[0])
	}

	alpha, beta := stat.LinearRegression(x, y, w, false)

	line := Line{Slope: beta, Intercept: alpha, N: len(x)}
	line.Residuals = make([]float64, len(x))
	meanX, meanY := stat.Mean(x, w), stat.Mean(y, w)
	ssRes, ssX, ssY := 0.0, 0.0, 0.0
	for i := range x {
		wi := 1.0
		if w != nil {
			wi = w[i]
		}
		r := y[i] - (alpha + beta*x[i])
		line.Residuals[i] = r
		ssRes += wi * r * r
		ssX += wi * (x[i] - meanX) * (x[i] - meanX)
		ssY += wi * (y[i] - meanY) * (y[i] - meanY)
	}

	switch {
	case ssRes == 0:
		line.RSquared = 1
	case ssY == 0:
		line.RSquared = 0
	default:
		line.RSquared = 1 - ssRes/ssY
	}

	if len(x) > 2 {
		line.StdErr = math.Sqrt(ssRes / float64(len(x)-2) / ssX)
	}

	return line, nil
}

// LogLog fits log10(ys) against log10(xs). Non-positive values are unusable
// and are dropped along with their partner.
func LogLog(xs, ys []float64) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, errs.Invalid("fit", "len(xs) = %d but len(ys) = %d",
			len(xs), len(ys))
	}
	lx, ly := make([]float64, len(xs)), make([]float64, len(ys))
	for i := range xs {
		lx[i], ly[i] = Log10(xs[i]), Log10(ys[i])
	}
	return Linear(lx, ly)
}

// WeightedLogLog is LogLog with a weight per point.
func WeightedLogLog(xs, ys, ws []float64) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, errs.Invalid("fit", "len(xs) = %d but len(ys) = %d",
			len(xs), len(ys))
	}
	lx, ly := make([]float64, len(xs)), make([]float64, len(ys))
	for i := range xs {
		lx[i], ly[i] = Log10(xs[i]), Log10(ys[i])
	}
	return Weighted(lx, ly, ws)
}

// Log10 returns log10(x) for x > 0 and NaN otherwise, so that unusable points
// fall out of Linear.
func Log10(x float64) float64 {
	if !(x > 0) {
		return math.NaN()
	}
	return math.Log10(x)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
