package aggregate

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/geom"
	"github.com/aglogen/aglogen/rand"
)

// cluster is a rigid group of particles stored in its own frame. DLA and
// Ballistic grow a single cluster whose frame is the lab frame. CCA keeps one
// per surviving cluster.
//
// Particles are only ever appended. The frame origin is the reference point
// for extent, which bounds every particle:
//
//	|xs[i]| + rs[i] <= extent
type cluster struct {
	xs     []r3.Vec
	rs     []float64
	ids    []int
	idx    *geom.Index
	rMax   float64
	extent float64

	// Mass moments in the cluster frame, for Rg.
	m, s2 float64
	s1    r3.Vec
}

func newCluster(cellSize float64) *cluster {
	return &cluster{idx: geom.NewIndex(cellSize)}
}

func (c *cluster) len() int { return len(c.xs) }

// add appends a particle with global id at frame position x.
func (c *cluster) add(id int, x r3.Vec, r float64) {
	c.idx.Insert(len(c.xs), x)
	c.xs = append(c.xs, x)
	c.rs = append(c.rs, r)
	c.ids = append(c.ids, id)
	c.rMax = math.Max(c.rMax, r)
	c.extent = math.Max(c.extent, r3.Norm(x)+r)

	m := mass(r)
	c.m += m
	c.s1 = r3.Add(c.s1, r3.Scale(m, x))
	c.s2 += m * r3.Dot(x, x)
}

// absorb adds every particle of o, whose frame origin sits at offset in c's
// frame. ids keep their order: c's first, then o's.
func (c *cluster) absorb(o *cluster, offset r3.Vec) {
	for i, x := range o.xs {
		c.add(o.ids[i], r3.Add(x, offset), o.rs[i])
	}
}

// centerOfMass returns the mass-weighted center in the cluster frame.
func (c *cluster) centerOfMass() r3.Vec {
	return r3.Scale(1/c.m, c.s1)
}

// rg returns the point-mass radius of gyration.
func (c *cluster) rg() float64 {
	cm := c.centerOfMass()
	return math.Sqrt(math.Max(0, c.s2/c.m-r3.Dot(cm, cm)))
}

// sweep finds the earliest contact between a sphere of radius r moving from
// p to p + d and any particle of c. Ties go to the lowest particle index.
func (c *cluster) sweep(p, d r3.Vec, r float64) (t float64, hit int, ok bool) {
	half := r3.Scale(0.5, d)
	reach := c.sweepReach(r3.Norm(d), r)
	t, hit = math.Inf(1), -1

	c.idx.Each(r3.Add(p, half), reach, func(j int) bool {
		tj, touch := geom.Sweep(p, d, c.xs[j], r+c.rs[j])
		if touch && (tj < t || (tj == t && j < hit)) {
			t, hit = tj, j
		}
		return true
	})
	return t, hit, hit >= 0
}

// sweepReach is the radius of the index query made by sweeping a sphere of
// radius r a distance step.
func (c *cluster) sweepReach(step, r float64) float64 {
	return step/2 + r + c.rMax
}

// rayChunk is the longest ray chunk whose query for a sphere of radius r
// stays within one index cell.
func (c *cluster) rayChunk(r float64) float64 {
	cell := c.idx.CellSize()
	// Kept just under the limit so rounding cannot widen the query.
	if chunk := 2 * (cell - r - c.rMax) * (1 - 1e-9); chunk > 0 {
		return chunk
	}
	return cell
}

// rayCast finds the nearest point along o + s*v (v a unit vector) at which a
// sphere of radius r touches a particle of c. The ray is marched in chunks of
// rayChunk(r) across the part of it that lies inside the bounding sphere,
// and the first chunk with a hit ends the search.
func (c *cluster) rayCast(o, v r3.Vec, r float64) (s float64, hit int, ok bool) {
	// Interval of the ray inside the sphere of radius extent + r.
	R := c.extent + r
	b := r3.Dot(o, v)
	disc := b*b - (r3.Dot(o, o) - R*R)
	if disc < 0 {
		return 0, -1, false
	}
	root := math.Sqrt(disc)
	sLo, sHi := math.Max(0, -b-root), -b+root
	if sHi < 0 {
		return 0, -1, false
	}

	chunk := c.rayChunk(r)
	for s0 := sLo; s0 <= sHi; s0 += chunk {
		s1 := math.Min(s0+chunk, sHi)
		mid := r3.Add(o, r3.Scale(0.5*(s0+s1), v))
		reach := c.sweepReach(s1-s0, r)

		s, hit = math.Inf(1), -1
		c.idx.Each(mid, reach, func(j int) bool {
			sj, touch := geom.RayHit(o, v, c.xs[j], r+c.rs[j])
			if touch && sj <= s1 && (sj < s || (sj == s && j < hit)) {
				s, hit = sj, j
			}
			return true
		})
		if hit >= 0 {
			return s, hit, true
		}
	}
	return 0, -1, false
}

// body is the moving side of a walk: particle offsets from a reference
// point, with the radius of their bounding sphere about it.
type body struct {
	offs   []r3.Vec
	rs     []float64
	radius float64
	step   float64
}

func singleParticle(r, stepFactor float64) *body {
	return &body{
		offs:   []r3.Vec{{}},
		rs:     []float64{r},
		radius: r,
		step:   stepFactor * r,
	}
}

func clusterBody(c *cluster, stepFactor, rMin float64) *body {
	return &body{offs: c.xs, rs: c.rs, radius: c.extent, step: stepFactor * rMin}
}

// sweepBody is sweep for every particle of b at reference point p. Ties go to
// the lowest target index, then the lowest body index.
func (c *cluster) sweepBody(p, d r3.Vec, b *body) (t float64, ok bool) {
	t = math.Inf(1)
	hit := -1
	for k, off := range b.offs {
		tk, j, touch := c.sweep(r3.Add(p, off), d, b.rs[k])
		if touch && (tk < t || (tk == t && j < hit)) {
			t, hit = tk, j
		}
	}
	return t, hit >= 0
}

func drawRadius(gen *rand.Generator, rr RadiusRange) float64 {
	if rr.Min == rr.Max {
		return rr.Min
	}
	return gen.Uniform(rr.Min, rr.Max)
}

func mass(r float64) float64 { return r * r * r }
