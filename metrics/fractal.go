package metrics

import (
	"fmt"
	"math"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fit"
)

// Fractal describes the power law N = Kf * (Rg / rp)^Df.
type Fractal struct {
	Df, Kf   float64
	RSquared float64
	// StdErr is the standard error of Df.
	StdErr float64
	// Points is the number of (N, Rg) pairs used by the fit.
	Points int
}

// FitFractal fits log10 N against log10(Rg / rp). Pairs with Rg <= 0 carry no
// information and are dropped. If fewer than two usable pairs remain, Df and
// Kf are NaN and the error has kind errs.NumericDegeneracy.
func FitFractal(ns, rgs []float64, rp float64) (Fractal, error) {
	return fitFractal(ns, rgs, nil, rp)
}

func fitFractal(ns, rgs, ws []float64, rp float64) (Fractal, error) {
	if len(ns) != len(rgs) {
		return nanFractal(), errs.Invalid("metrics",
			"got %d particle counts but %d radii of gyration", len(ns), len(rgs))
	}
	if !(rp > 0) {
		return nanFractal(), errs.Invalid("metrics",
			"primary radius must be positive, got %g", rp)
	}

	norm := make([]float64, len(rgs))
	for i, rg := range rgs {
		norm[i] = rg / rp
	}

	line, err := fit.WeightedLogLog(norm, ns, ws)
	if err != nil {
		return nanFractal(), fmt.Errorf("fitting fractal dimension: %w", err)
	}

	return Fractal{
		Df:       line.Slope,
		Kf:       math.Pow(10, line.Intercept),
		RSquared: line.RSquared,
		StdErr:   line.StdErr,
		Points:   line.N,
	}, nil
}

// FitGrowth fits the growth curve of a single aggregate, where rgEvolution[k]
// belongs to N = k+1 particles. Each point is weighted by 1/N, so every
// decade of N carries the same weight in the fit.
func FitGrowth(rgEvolution []float64, rp float64) (Fractal, error) {
	ns := make([]float64, len(rgEvolution))
	ws := make([]float64, len(rgEvolution))
	for k := range ns {
		ns[k] = float64(k + 1)
		ws[k] = 1 / ns[k]
	}
	return fitFractal(ns, rgEvolution, ws, rp)
}

func nanFractal() Fractal {
	return Fractal{Df: math.NaN(), Kf: math.NaN(), RSquared: math.NaN(),
		StdErr: math.NaN()}
}
