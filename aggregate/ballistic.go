package aggregate

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/geom"
	"github.com/aglogen/aglogen/rand"
)

// BallisticEngine grows an aggregate from particles fired along straight
// lines. Each particle starts on the launch sphere and travels inward with a
// random impact parameter until it hits the aggregate.
type BallisticEngine struct {
	cfg BallisticConfig
	log *slog.Logger
}

// NewBallistic returns a ballistic engine. log may be nil.
func NewBallistic(cfg BallisticConfig, log *slog.Logger) *BallisticEngine {
	if log == nil {
		log = discardLogger()
	}
	return &BallisticEngine{cfg: cfg, log: log}
}

func (e *BallisticEngine) Name() string    { return Ballistic.String() }
func (e *BallisticEngine) Version() string { return Version }

// Run grows p.NParticles particles. Launch geometry and domain handling
// match DLAEngine.Run. A contact which does not stick reflects the particle
// specularly about the contact normal. A particle which leaves the aggregate
// without touching it is relaunched.
func (e *BallisticEngine) Run(ctx context.Context, p Params) (*Result, error) {
	cfg := &e.cfg
	if err := start(ctx, Ballistic, &p, cfg.check); err != nil {
		return nil, err
	}

	rn := newRun(Ballistic, p.Seed)
	gen := rand.NewGenerator(p.Seed)
	eps := ContactTolerance * cfg.Radius.Min

	agg := newCluster(cfg.cellSize())
	agg.add(0, r3.Vec{}, drawRadius(gen, cfg.Radius))

	f := &flight{cfg: cfg, gen: gen, sticking: p.StickingProbability,
		stats: &rn.stats}

	for agg.len() < p.NParticles {
		r := drawRadius(gen, cfg.Radius)

		launch := agg.extent + r + cfg.LaunchMargin*cfg.Radius.Max
		if launch > p.DomainBound {
			return nil, rn.fail(errs.ResourceExhaustion, agg,
				"launch radius %g exceeds domain bound %g after %d particles",
				launch, p.DomainBound, agg.len())
		}

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
			pos, out := f.fly(agg, r, launch)
			switch out {
			case stuck:
				agg.add(agg.len(), pos, r)
				placed = true
			case exhausted:
				rn.stats.Failures++
				if rn.stats.Failures > cfg.Budget.MaxFailures {
					return nil, rn.fail(errs.NonConvergent, agg,
						"%d flights bounced more than %d times",
						rn.stats.Failures, cfg.MaxBounces)
				}
			}
		}
		progress(e.log, Ballistic, agg.len(), p.NParticles)
	}

	return rn.finish(ctx, agg, eps, nil)
}

type flight struct {
	cfg      *BallisticConfig
	gen      *rand.Generator
	sticking float64
	stats    *Stats
}

// fly launches one particle of radius r from the sphere of radius launch.
//
// The line of flight points inward along -n for a random unit vector n and
// is offset from the origin by an impact parameter drawn uniformly from the
// disk of radius extent + r perpendicular to it. Every line which could touch
// the aggregate passes through that disk.
func (f *flight) fly(agg *cluster, r, launch float64) (r3.Vec, outcome) {
	n := f.gen.UnitVector()
	u, v := geom.Perpendicular(n)
	bx, by := f.gen.InDisk()
	bMax := agg.extent + r
	impact := r3.Add(r3.Scale(bx*bMax, u), r3.Scale(by*bMax, v))

	// Start where the line enters the launch sphere. |impact| < launch
	// because LaunchMargin >= 1.
	depth := launch*launch - r3.Dot(impact, impact)
	o := r3.Add(impact, r3.Scale(math.Sqrt(depth), n))
	dir := r3.Scale(-1, n)

	for bounces := 0; ; bounces++ {
		s, hit, ok := agg.rayCast(o, dir, r)
		if !ok {
			return o, escaped
		}
		o = r3.Add(o, r3.Scale(s, dir))

		f.stats.Contacts++
		if f.sticking >= 1 || f.gen.Float64() < f.sticking {
			return o, stuck
		}
		f.stats.Rejections++

		if bounces >= f.cfg.MaxBounces {
			return o, exhausted
		}
		normal := r3.Unit(r3.Sub(o, agg.xs[hit]))
		dir = r3.Unit(geom.Reflect(dir, normal))
	}
}
