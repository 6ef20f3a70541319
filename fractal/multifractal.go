package fractal

import (
	"context"
	"math"
	"time"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fit"
)

// MultifractalAnalyzer computes the mass exponents tau(q) and generalized
// dimensions D_q of the box measure. With p_i the fraction of foreground
// pixels in box i at size s,
//
//	sum_i p_i^q ~ s^tau(q),    D_q = tau(q) / (q - 1)
//
// and for q = 1, where that ratio is singular, D_1 is the slope of
// sum_i p_i log10(p_i) against log10(s) and Tau is 0. D_0 is the box-counting
// dimension, so Tau = -D_0 at q = 0.
//
// LogCounts holds the q = 0 series, log10 N(s), and RSquared and StdErr
// describe its fit.
type MultifractalAnalyzer struct{}

func (MultifractalAnalyzer) Method() Method { return Multifractal }

func (MultifractalAnalyzer) Analyze(ctx context.Context, m *Mask, p Params) (*Result, error) {
	start := time.Now()
	qs := p.Q
	if len(qs) == 0 {
		qs = DefaultQ
	}
	for _, q := range qs {
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return nil, errs.Invalid("fractal", "moment q = %g is not finite", q)
		}
	}
	sizes, err := prepare(ctx, m, &p)
	if err != nil {
		return nil, err
	}

	t := newTable(m)
	total := float64(m.Count())
	res := newResult(Multifractal, sizes, false)

	// moments[k][i] is the partition sum for qs[k] at sizes[i].
	moments := make([][]float64, len(qs))
	for k := range moments {
		moments[k] = make([]float64, len(sizes))
	}
	err = eachScale(ctx, p.Workers, len(sizes), func(i int) {
		masses := t.boxMasses(sizes[i])
		ps := make([]float64, 0, len(masses))
		for _, mass := range masses {
			if mass > 0 {
				ps = append(ps, float64(mass)/total)
			}
		}
		res.LogCounts[i] = fit.Log10(float64(len(ps)))
		for k, q := range qs {
			moments[k][i] = partition(ps, q)
		}
	})
	if err != nil {
		return nil, err
	}

	res.Q = append([]float64(nil), qs...)
	res.Tau = make([]float64, len(qs))
	res.Dq = make([]float64, len(qs))
	for k, q := range qs {
		line, err := fit.Linear(res.LogSizes, moments[k])
		if err != nil {
			return nil, err
		}
		if q == 1 {
			res.Tau[k], res.Dq[k] = 0, line.Slope
		} else {
			res.Tau[k], res.Dq[k] = line.Slope, line.Slope/(q-1)
		}
	}

	line, err := fit.Linear(res.LogSizes, res.LogCounts)
	if err != nil {
		return nil, err
	}
	res.RSquared, res.StdErr, res.Residuals = line.RSquared, line.StdErr, line.Residuals

	res.ExecutionTime = time.Since(start)
	return res, nil
}

// partition returns log10(sum p^q), or sum p log10(p) when q = 1.
func partition(ps []float64, q float64) float64 {
	sum := 0.0
	if q == 1 {
		for _, p := range ps {
			sum += p * math.Log10(p)
		}
		return sum
	}
	for _, p := range ps {
		sum += math.Pow(p, q)
	}
	return fit.Log10(sum)
}
