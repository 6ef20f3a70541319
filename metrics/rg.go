/*package metrics computes structural properties of a finished aggregate: the
growth of its radius of gyration, its fractal dimension and prefactor, and a
handful of packing descriptors (RDF, coordination, porosity, inertia).

Every particle's mass is taken to be proportional to r^3. Geometry is passed as
parallel slices of centers and radii and is never modified.
*/
package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// RgEvolution returns Rg[k], the radius of gyration of the first k+1
// particles, for every k. Particles are treated as point masses, so Rg[0] is
// always 0. It runs in a single O(N) pass using a mass-weighted running mean
// and running sum of squared deviations.
func RgEvolution(xs []r3.Vec, rs []float64) []float64 {
	out := make([]float64, len(xs))
	var (
		mean r3.Vec
		w, s float64
	)
	for k, x := range xs {
		m := mass(rs[k])
		w += m
		delta := r3.Sub(x, mean)
		mean = r3.Add(mean, r3.Scale(m/w, delta))
		s += m * r3.Dot(delta, r3.Sub(x, mean))
		out[k] = math.Sqrt(math.Max(0, s/w))
	}
	return out
}

// RadiusOfGyration returns the point-mass radius of gyration of the whole
// set. It agrees with the last element of RgEvolution up to rounding.
func RadiusOfGyration(xs []r3.Vec, rs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cm := CenterOfMass(xs, rs)
	w, s := 0.0, 0.0
	for i, x := range xs {
		m := mass(rs[i])
		d := r3.Sub(x, cm)
		w += m
		s += m * r3.Dot(d, d)
	}
	return math.Sqrt(s / w)
}

// CenterOfMass returns the r^3-weighted mean position. The empty set has its
// center at the origin.
func CenterOfMass(xs []r3.Vec, rs []float64) r3.Vec {
	var (
		sum r3.Vec
		w   float64
	)
	for i, x := range xs {
		m := mass(rs[i])
		sum = r3.Add(sum, r3.Scale(m, x))
		w += m
	}
	if w == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/w, sum)
}

// MeanRadius returns the primary particle radius rp used to normalize Rg.
func MeanRadius(rs []float64) float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rs {
		sum += r
	}
	return sum / float64(len(rs))
}

func mass(r float64) float64 { return r * r * r }
