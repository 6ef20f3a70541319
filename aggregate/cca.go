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

// CCAEngine implements cluster-cluster aggregation. Every particle starts as
// its own cluster inside a cube of side p.DomainBound. At each step a random
// cluster diffuses toward its nearest neighbor until the two stick, and the
// pair becomes one rigid cluster. The run ends when one cluster remains.
type CCAEngine struct {
	cfg CCAConfig
	log *slog.Logger
}

// NewCCA returns a CCA engine. log may be nil.
func NewCCA(cfg CCAConfig, log *slog.Logger) *CCAEngine {
	if log == nil {
		log = discardLogger()
	}
	return &CCAEngine{cfg: cfg, log: log}
}

func (e *CCAEngine) Name() string    { return CCA.String() }
func (e *CCAEngine) Version() string { return Version }

// ccaCluster is a cluster together with where it sits in the lab frame.
type ccaCluster struct {
	*cluster
	origin r3.Vec
	// center and bound are the lab-frame center of mass and a radius about
	// it which encloses every particle. center is where the cluster is
	// stored in the partner index.
	center r3.Vec
	bound  float64
}

func (cc *ccaCluster) update() {
	cm := cc.centerOfMass()
	cc.center = r3.Add(cc.origin, cm)
	cc.bound = cc.extent + r3.Norm(cm)
}

// ccaState is the working set of one run.
type ccaState struct {
	clusters []*ccaCluster
	alive    []int
	centers  *geom.Index
	maxBound float64
}

// Run aggregates p.NParticles particles.
//
// Pair approach happens in the frame of the larger cluster (the mover, if
// they are the same size). The smaller one is launched from a sphere of
// radius Ra + Rb + LaunchMargin * rMax, first along the line joining their
// centers and at random directions after that, and walks until it sticks.
// Contact is exact, so merged clusters never overlap. The fractal fit uses
// the size and Rg of every cluster formed by a merge.
func (e *CCAEngine) Run(ctx context.Context, p Params) (*Result, error) {
	cfg := &e.cfg
	if err := start(ctx, CCA, &p, cfg.check); err != nil {
		return nil, err
	}

	L := p.DomainBound
	solid := float64(p.NParticles) * 4 * math.Pi / 3 * mass(cfg.Radius.Max)
	if frac := solid / (L * L * L); frac > cfg.MaxPackingFraction {
		return nil, errs.Invalid("cca",
			"packing fraction %.3g of %d particles in a box of side %g is over %g",
			frac, p.NParticles, L, cfg.MaxPackingFraction)
	}

	rn := newRun(CCA, p.Seed)
	gen := rand.NewGenerator(p.Seed)
	eps := ContactTolerance * cfg.Radius.Min
	cell := cfg.cellSize()

	st, err := e.place(gen, p, cell)
	if err != nil {
		return nil, err
	}

	w := &walker{cfg: &cfg.Walk, gen: gen, sticking: p.StickingProbability,
		stats: &rn.stats}
	history := &mergeHistory{}

	for len(st.alive) > 1 {
		if err := ctx.Err(); err != nil {
			return nil, rn.canceled(err, st.world(cell))
		}

		slot := gen.Intn(len(st.alive))
		mover := st.alive[slot]
		partner := st.nearest(mover)

		small, large := mover, partner
		if st.clusters[partner].len() < st.clusters[mover].len() {
			small, large = partner, mover
		}
		S, B := st.clusters[small], st.clusters[large]

		b := clusterBody(S.cluster, cfg.Walk.StepFactor, cfg.Radius.Min)
		launch := B.extent + S.extent + cfg.Walk.LaunchMargin*cfg.Radius.Max
		kill := cfg.Walk.KillFactor * launch

		dir := r3.Sub(S.center, B.center)
		if n := r3.Norm(dir); n > 0 {
			dir = r3.Scale(1/n, dir)
		} else {
			dir = gen.UnitVector()
		}

		placed := false
		for launches := 0; !placed; launches++ {
			if launches > 0 {
				if err := ctx.Err(); err != nil {
					return nil, rn.canceled(err, st.world(cell))
				}
				dir = gen.UnitVector()
			}
			if launches >= cfg.Budget.MaxLaunches {
				return nil, rn.fail(errs.NonConvergent, st.world(cell),
					"clusters of %d and %d particles did not stick after %d launches",
					S.len(), B.len(), launches)
			}

			rn.stats.Launches++
			pos, out := w.walk(B.cluster, b, r3.Scale(launch, dir), kill)
			switch out {
			case stuck:
				st.merge(large, small, pos)
				history.add(B.cluster)
				placed = true
			case exhausted:
				rn.stats.Failures++
				if rn.stats.Failures > cfg.Budget.MaxFailures {
					return nil, rn.fail(errs.NonConvergent, st.world(cell),
						"%d walks used up their step budget", rn.stats.Failures)
				}
			}
		}
		progress(e.log, CCA, p.NParticles-len(st.alive)+1, p.NParticles)
	}

	return rn.finish(ctx, st.world(cell), eps, history)
}

// place puts every particle in its own cluster, uniformly in the domain cube
// and without overlaps.
func (e *CCAEngine) place(gen *rand.Generator, p Params, cell float64) (*ccaState, error) {
	cfg := &e.cfg
	half := p.DomainBound / 2

	// Enough cells that a typical cell holds a few clusters.
	spacing := p.DomainBound / math.Cbrt(float64(p.NParticles))
	st := &ccaState{centers: geom.NewIndex(math.Max(2*cell, spacing))}
	occupied := geom.NewIndex(cell)
	xs := make([]r3.Vec, 0, p.NParticles)
	rs := make([]float64, 0, p.NParticles)

	for i := 0; i < p.NParticles; i++ {
		r := drawRadius(gen, cfg.Radius)
		var x r3.Vec
		ok := false
		for try := 0; try < cfg.MaxPlacementTries && !ok; try++ {
			x = r3.Vec{
				X: gen.Uniform(-half, half),
				Y: gen.Uniform(-half, half),
				Z: gen.Uniform(-half, half),
			}
			ok = true
			occupied.Each(x, cell, func(j int) bool {
				rr := r + rs[j]
				d := r3.Sub(x, xs[j])
				if r3.Dot(d, d) < rr*rr {
					ok = false
				}
				return ok
			})
		}
		if !ok {
			return nil, errs.New(errs.ResourceExhaustion, "cca",
				"could not place particle %d without overlap in %d tries",
				i, cfg.MaxPlacementTries)
		}

		occupied.Insert(i, x)
		xs = append(xs, x)
		rs = append(rs, r)

		cc := &ccaCluster{cluster: newCluster(cell), origin: x}
		cc.add(i, r3.Vec{}, r)
		cc.update()
		st.clusters = append(st.clusters, cc)
		st.alive = append(st.alive, i)
		st.centers.Insert(i, cc.center)
		st.maxBound = math.Max(st.maxBound, cc.bound)
	}
	return st, nil
}

// nearest returns the alive cluster with the smallest bounding-sphere gap to
// cluster i. Ties go to the lowest index.
//
// The query radius grows until the best gap found is no larger than the
// smallest gap any unvisited cluster could have.
func (st *ccaState) nearest(i int) int {
	ci := st.clusters[i]
	q := ci.bound + st.maxBound + st.centers.CellSize()
	for {
		best, bestGap := -1, math.Inf(1)
		st.centers.Each(ci.center, q, func(j int) bool {
			if j == i {
				return true
			}
			cj := st.clusters[j]
			gap := r3.Norm(r3.Sub(cj.center, ci.center)) - ci.bound - cj.bound
			if gap < bestGap || (gap == bestGap && j < best) {
				best, bestGap = j, gap
			}
			return true
		})
		if best >= 0 && bestGap <= q-ci.bound-st.maxBound {
			return best
		}
		q *= 2
	}
}

// merge moves cluster small to offset pos in large's frame and absorbs it.
// The merged cluster is then shifted so that its lab-frame center of mass is
// the mass-weighted mean of the two centers before the merge.
func (st *ccaState) merge(large, small int, pos r3.Vec) {
	B, S := st.clusters[large], st.clusters[small]
	mB, mS := B.m, S.m
	target := r3.Scale(1/(mB+mS), r3.Add(r3.Scale(mB, B.center), r3.Scale(mS, S.center)))

	st.centers.Remove(small, S.center)
	st.centers.Remove(large, B.center)

	B.absorb(S.cluster, pos)
	B.origin = r3.Sub(target, B.centerOfMass())
	B.update()
	st.centers.Insert(large, B.center)
	st.maxBound = math.Max(st.maxBound, B.bound)

	st.clusters[small] = nil
	for k, id := range st.alive {
		if id == small {
			st.alive[k] = st.alive[len(st.alive)-1]
			st.alive = st.alive[:len(st.alive)-1]
			break
		}
	}
}

// world collects every alive cluster into one lab-frame cluster, with each
// particle at the index it was placed with.
func (st *ccaState) world(cell float64) *cluster {
	n := 0
	for _, id := range st.alive {
		n += st.clusters[id].len()
	}
	xs, rs := make([]r3.Vec, n), make([]float64, n)
	for _, id := range st.alive {
		cc := st.clusters[id]
		for k, x := range cc.xs {
			xs[cc.ids[k]] = r3.Add(cc.origin, x)
			rs[cc.ids[k]] = cc.rs[k]
		}
	}

	out := newCluster(cell)
	for i := range xs {
		out.add(i, xs[i], rs[i])
	}
	return out
}
