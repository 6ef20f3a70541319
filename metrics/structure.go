package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/geom"
)

// RDF is a radial distribution function sampled at bin centers.
type RDF struct {
	R []float64
	G []float64
	// Pairs[i] is the raw number of unordered pairs in bin i.
	Pairs []int
}

// RadialDistribution histograms the center-to-center distances of all pairs
// closer than rMax into the given number of equal-width shells. Each shell
// count is normalized to a number density per particle:
//
//	G[i] = 2 * Pairs[i] / (N * V_shell[i])
func RadialDistribution(xs []r3.Vec, bins int, rMax float64) RDF {
	if bins < 0 {
		bins = 0
	}
	rdf := RDF{
		R:     make([]float64, bins),
		G:     make([]float64, bins),
		Pairs: make([]int, bins),
	}
	if bins <= 0 || !(rMax > 0) {
		return rdf
	}
	dr := rMax / float64(bins)
	for i := range rdf.R {
		rdf.R[i] = (float64(i) + 0.5) * dr
	}
	if len(xs) < 2 {
		return rdf
	}

	idx := geom.NewIndex(rMax)
	for i, x := range xs {
		idx.Insert(i, x)
	}

	for i, x := range xs {
		idx.Each(x, rMax, func(j int) bool {
			if j <= i {
				return true
			}
			d := r3.Norm(r3.Sub(xs[j], x))
			if d < rMax {
				rdf.Pairs[min(int(d/dr), bins-1)]++
			}
			return true
		})
	}

	n := float64(len(xs))
	for i := range rdf.G {
		lo, hi := float64(i)*dr, float64(i+1)*dr
		shell := 4 * math.Pi / 3 * (hi*hi*hi - lo*lo*lo)
		rdf.G[i] = 2 * float64(rdf.Pairs[i]) / (n * shell)
	}
	return rdf
}

// CoordinationStats summarizes how many neighbors each particle touches.
type CoordinationStats struct {
	Mean, Std float64
	Counts    []int
}

// Coordination counts, for each particle, the particles whose centers are
// within ri + rj + eps of its own.
func Coordination(xs []r3.Vec, rs []float64, eps float64) CoordinationStats {
	st := CoordinationStats{Counts: make([]int, len(xs))}
	if len(xs) == 0 {
		return st
	}

	rMax := floats.Max(rs)
	reach := 2*rMax + eps
	idx := geom.NewIndex(reach)
	for i, x := range xs {
		idx.Insert(i, x)
	}

	for i, x := range xs {
		idx.Each(x, reach, func(j int) bool {
			if j <= i {
				return true
			}
			contact := rs[i] + rs[j] + eps
			d := r3.Sub(xs[j], x)
			if r3.Dot(d, d) <= contact*contact {
				st.Counts[i]++
				st.Counts[j]++
			}
			return true
		})
	}

	sum := 0.0
	for _, c := range st.Counts {
		sum += float64(c)
	}
	st.Mean = sum / float64(len(xs))
	ss := 0.0
	for _, c := range st.Counts {
		d := float64(c) - st.Mean
		ss += d * d
	}
	st.Std = math.Sqrt(ss / float64(len(xs)))
	return st
}

// Porosity returns the fraction of the enclosing sphere which is empty. The
// sphere is centered on the center of mass and reaches the far side of the
// outermost particle. The empty set has porosity 1.
func Porosity(xs []r3.Vec, rs []float64) float64 {
	if len(xs) == 0 {
		return 1
	}
	cm := CenterOfMass(xs, rs)
	R, solid := 0.0, 0.0
	for i, x := range xs {
		R = math.Max(R, r3.Norm(r3.Sub(x, cm))+rs[i])
		solid += mass(rs[i])
	}
	return clampUnit(1 - solid/(R*R*R))
}

// BoxPorosity is Porosity measured against the axis-aligned bounding box of
// the particles instead of the enclosing sphere.
func BoxPorosity(xs []r3.Vec, rs []float64) float64 {
	if len(xs) == 0 {
		return 1
	}
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	solid := 0.0
	for i, x := range xs {
		r := rs[i]
		lo = r3.Vec{X: math.Min(lo.X, x.X-r), Y: math.Min(lo.Y, x.Y-r), Z: math.Min(lo.Z, x.Z-r)}
		hi = r3.Vec{X: math.Max(hi.X, x.X+r), Y: math.Max(hi.Y, x.Y+r), Z: math.Max(hi.Z, x.Z+r)}
		solid += 4 * math.Pi / 3 * mass(r)
	}
	box := (hi.X - lo.X) * (hi.Y - lo.Y) * (hi.Z - lo.Z)
	return clampUnit(1 - solid/box)
}

func clampUnit(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
