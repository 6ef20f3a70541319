package aggregate

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/metrics"
)

// Result is a finished aggregate and its metrics. It is owned by the caller
// and never modified by the engine after Run returns.
type Result struct {
	Algorithm Kind
	Version   string
	Seed      uint64

	// Coordinates and Radii are indexed by particle id.
	Coordinates []r3.Vec
	Radii       []float64
	// RgEvolution[k] is the radius of gyration of particles 0 through k.
	RgEvolution []float64

	// FractalDimension and Prefactor are NaN when the fit is undefined, in
	// which case FitError says why.
	FractalDimension float64
	Prefactor        float64
	FitRSquared      float64
	FitStdErr        float64
	FitError         error

	Porosity     float64
	Coordination metrics.CoordinationStats
	Inertia      metrics.InertiaTensor

	Stats         Stats
	ExecutionTime time.Duration

	// Partial is set on results attached to errors. Partial results carry
	// geometry only.
	Partial bool
}

// ExecutionTimeMs returns the wall-clock time of the run in milliseconds.
func (res *Result) ExecutionTimeMs() uint64 {
	return uint64(res.ExecutionTime / time.Millisecond)
}

// N returns the number of particles.
func (res *Result) N() int { return len(res.Coordinates) }

func (res *Result) String() string {
	return fmt.Sprintf("%s: N = %d, Df = %.4g, kf = %.4g, porosity = %.3g",
		res.Algorithm, res.N(), res.FractalDimension, res.Prefactor, res.Porosity)
}

// run holds what every engine tracks while it works.
type run struct {
	kind  Kind
	seed  uint64
	start time.Time
	stats Stats
}

func newRun(kind Kind, seed uint64) *run {
	return &run{kind: kind, seed: seed, start: time.Now()}
}

// geometry copies the particles of c into a new Result, ordered by id.
func (rn *run) geometry(c *cluster) *Result {
	res := &Result{
		Algorithm:   rn.kind,
		Version:     Version,
		Seed:        rn.seed,
		Coordinates: make([]r3.Vec, c.len()),
		Radii:       make([]float64, c.len()),
		Stats:       rn.stats,
	}
	copy(res.Coordinates, c.xs)
	copy(res.Radii, c.rs)
	res.ExecutionTime = time.Since(rn.start)
	return res
}

// fail returns an error of the given kind with the geometry built so far.
func (rn *run) fail(kind errs.Kind, c *cluster, format string, args ...any) error {
	err := errs.New(kind, rn.kind.String(), format, args...)
	err.Partial = rn.partial(c)
	return err
}

// canceled converts a context error, attaching the geometry built so far.
func (rn *run) canceled(err error, c *cluster) error {
	return errs.FromContext(rn.kind.String(), err, rn.partial(c))
}

func (rn *run) partial(c *cluster) *Result {
	res := rn.geometry(c)
	res.Partial = true
	res.FractalDimension, res.Prefactor = math.NaN(), math.NaN()
	res.FitRSquared, res.FitStdErr = math.NaN(), math.NaN()
	res.RgEvolution = metrics.RgEvolution(res.Coordinates, res.Radii)
	return res
}

// finish builds the final Result for c. If history is non-nil the fractal
// fit uses it instead of the growth curve; it must then hold (N, Rg) pairs.
func (rn *run) finish(
	ctx context.Context, c *cluster, eps float64, history *mergeHistory,
) (*Result, error) {
	res := rn.geometry(c)

	sum, err := metrics.Summarize(ctx, res.Coordinates, res.Radii,
		metrics.Options{ContactTolerance: eps})
	if err != nil {
		if ctx.Err() != nil {
			return nil, rn.canceled(ctx.Err(), c)
		}
		return nil, fmt.Errorf("%s: summarizing aggregate: %w", rn.kind, err)
	}

	frac, fitErr := sum.Fractal, sum.FitErr
	if history != nil {
		frac, fitErr = metrics.FitFractal(history.ns, history.rgs, sum.Rp)
	}

	res.RgEvolution = sum.RgEvolution
	res.FractalDimension, res.Prefactor = frac.Df, frac.Kf
	res.FitRSquared, res.FitStdErr = frac.RSquared, frac.StdErr
	res.FitError = fitErr
	res.Porosity = sum.Porosity
	res.Coordination = sum.Coordination
	res.Inertia = sum.Inertia
	res.ExecutionTime = time.Since(rn.start)
	return res, nil
}

// mergeHistory records the size and Rg of every cluster formed by a merge.
type mergeHistory struct {
	ns, rgs []float64
}

func (h *mergeHistory) add(c *cluster) {
	h.ns = append(h.ns, float64(c.len()))
	h.rgs = append(h.rgs, c.rg())
}
