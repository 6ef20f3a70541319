package aggregate

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/rand"
)

// DLAEngine grows an aggregate one random walker at a time. The seed particle
// sits at the origin. Each new particle is launched from a sphere just
// outside the aggregate and walks until it sticks.
type DLAEngine struct {
	cfg DLAConfig
	log *slog.Logger
}

// NewDLA returns a DLA engine. log may be nil.
func NewDLA(cfg DLAConfig, log *slog.Logger) *DLAEngine {
	if log == nil {
		log = discardLogger()
	}
	return &DLAEngine{cfg: cfg, log: log}
}

func (e *DLAEngine) Name() string    { return DLA.String() }
func (e *DLAEngine) Version() string { return Version }

// Run grows p.NParticles particles.
//
// The launch radius is extent + r + LaunchMargin * rMax, where extent bounds
// the current aggregate. If it is larger than p.DomainBound the run fails
// with errs.ResourceExhaustion. Walkers beyond KillFactor times the launch
// radius (or p.DomainBound, if smaller) are relaunched.
func (e *DLAEngine) Run(ctx context.Context, p Params) (*Result, error) {
	cfg := &e.cfg
	if err := start(ctx, DLA, &p, cfg.check); err != nil {
		return nil, err
	}

	rn := newRun(DLA, p.Seed)
	gen := rand.NewGenerator(p.Seed)
	eps := ContactTolerance * cfg.Radius.Min

	agg := newCluster(cfg.cellSize())
	agg.add(0, r3.Vec{}, drawRadius(gen, cfg.Radius))

	w := &walker{cfg: &cfg.Walk, gen: gen, sticking: p.StickingProbability,
		stats: &rn.stats}

	for agg.len() < p.NParticles {
		r := drawRadius(gen, cfg.Radius)
		b := singleParticle(r, cfg.Walk.StepFactor)

		launch := agg.extent + r + cfg.Walk.LaunchMargin*cfg.Radius.Max
		if launch > p.DomainBound {
			return nil, rn.fail(errs.ResourceExhaustion, agg,
				"launch radius %g exceeds domain bound %g after %d particles",
				launch, p.DomainBound, agg.len())
		}
		kill := math.Min(cfg.Walk.KillFactor*launch, p.DomainBound)

		placed := false
		for launches := 0; !placed; launches++ {
			if err := ctx.Err(); err != nil {
				return nil, rn.canceled(err, agg)
			}
			if launches >= cfg.Budget.MaxLaunches {
				return nil, rn.fail(errs.NonConvergent, agg,
					"particle %d did not stick after %d launches",
					agg.len(), launches)
			}

			rn.stats.Launches++
			pos, out := w.walk(agg, b, r3.Scale(launch, gen.UnitVector()), kill)
			switch out {
			case stuck:
				agg.add(agg.len(), pos, r)
				placed = true
			case exhausted:
				rn.stats.Failures++
				if rn.stats.Failures > cfg.Budget.MaxFailures {
					return nil, rn.fail(errs.NonConvergent, agg,
						"%d walks used up their step budget", rn.stats.Failures)
				}
			}
		}
		progress(e.log, DLA, agg.len(), p.NParticles)
	}

	return rn.finish(ctx, agg, eps, nil)
}
