/*package aggregate grows three-dimensional aggregates of spherical primary
particles.

Three algorithms are provided behind the Engine interface:

	DLA:       particle-cluster diffusion-limited aggregation
	CCA:       cluster-cluster aggregation
	Ballistic: ballistic particle-cluster aggregation

Every run is single-threaded and fully determined by its Params, including
the seed: two runs with the same inputs return identical geometry and
metrics. Runs never share state, so separate runs may execute concurrently.

Particles never overlap by more than ContactTolerance * rp, and DLA and CCA
aggregates are always a single connected component.
*/
package aggregate

import (
	"context"
	"io"
	"log/slog"

	"github.com/aglogen/aglogen/errs"
)

// Engine is one aggregation algorithm.
type Engine interface {
	Name() string
	Version() string
	// Run grows an aggregate. Errors are *errs.Error values. Errors raised
	// after validation carry the partial geometry as a *Result in their
	// Partial field.
	Run(ctx context.Context, p Params) (*Result, error)
}

// Options configures the engines built by NewRegistry. Nil configs are
// replaced by the package defaults.
type Options struct {
	Logger    *slog.Logger
	DLA       *DLAConfig
	Ballistic *BallisticConfig
	CCA       *CCAConfig
}

// Registry maps every Kind to its Engine.
type Registry map[Kind]Engine

// NewRegistry builds one engine of every kind.
func NewRegistry(opts Options) Registry {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}

	dla, bal, cca := DefaultDLAConfig(), DefaultBallisticConfig(), DefaultCCAConfig()
	if opts.DLA != nil {
		dla = *opts.DLA
	}
	if opts.Ballistic != nil {
		bal = *opts.Ballistic
	}
	if opts.CCA != nil {
		cca = *opts.CCA
	}

	return Registry{
		DLA:       NewDLA(dla, log),
		CCA:       NewCCA(cca, log),
		Ballistic: NewBallistic(bal, log),
	}
}

// Simulate runs the engine registered for p.Algorithm.
func Simulate(ctx context.Context, reg Registry, p Params) (*Result, error) {
	eng, ok := reg[p.Algorithm]
	if !ok {
		return nil, errs.Invalid("aggregate", "no engine registered for %s", p.Algorithm)
	}
	return eng.Run(ctx, p)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// start performs the checks every engine makes before touching any state.
func start(ctx context.Context, want Kind, p *Params, check func() error) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Algorithm != want {
		return errs.Invalid(want.String(), "engine cannot run algorithm %s", p.Algorithm)
	}
	if err := check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errs.FromContext(want.String(), err, nil)
	}
	return nil
}

// progress logs at most ten times over a run of n particles.
func progress(log *slog.Logger, kind Kind, done, n int) {
	if n < 10 || done%(n/10) == 0 {
		log.Debug("aggregate progress", "algorithm", kind.String(),
			"done", done, "total", n)
	}
}
