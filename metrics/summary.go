package metrics

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options controls the optional parts of Summarize.
type Options struct {
	// ContactTolerance is the eps passed to Coordination.
	ContactTolerance float64
	// RDFBins and RDFMax control the radial distribution function. The RDF is
	// skipped if RDFBins is zero. RDFMax defaults to 10 * rp.
	RDFBins int
	RDFMax  float64
}

// Summary collects every metric for one aggregate.
type Summary struct {
	Rp          float64
	Rg          float64
	RgEvolution []float64
	Fractal     Fractal
	// FitErr is non-nil when Fractal could not be fit. Fractal holds NaNs
	// then.
	FitErr       error
	Coordination CoordinationStats
	Porosity     float64
	BoxPorosity  float64
	Inertia      InertiaTensor
	RDF          RDF
}

// Summarize computes every metric for a finished aggregate. The independent
// metrics run concurrently, but each one is computed serially and writes only
// its own field, so the result does not depend on scheduling.
//
// A failed fractal fit is reported in Summary.FitErr rather than as an error.
// The returned error is non-nil only if ctx is done or a metric fails
// outright.
func Summarize(
	ctx context.Context, xs []r3.Vec, rs []float64, opts Options,
) (*Summary, error) {
	s := &Summary{Rp: MeanRadius(rs)}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.RgEvolution = RgEvolution(xs, rs)
		s.Fractal, s.FitErr = FitGrowth(s.RgEvolution, s.Rp)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Rg = RadiusOfGyration(xs, rs)
		s.Porosity = Porosity(xs, rs)
		s.BoxPorosity = BoxPorosity(xs, rs)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Coordination = Coordination(xs, rs, opts.ContactTolerance)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		s.Inertia, err = Inertia(xs, rs)
		return err
	})
	if opts.RDFBins > 0 {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rMax := opts.RDFMax
			if !(rMax > 0) {
				rMax = 10 * s.Rp
			}
			s.RDF = RadialDistribution(xs, opts.RDFBins, rMax)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}
