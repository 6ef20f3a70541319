/*package project turns three-dimensional aggregates into two-dimensional
binary images for the fractal analyzer.

A Projection is an orthographic view of the particle centers from a camera at
a given azimuth and elevation. Rasterize then lays the projected disks onto a
pixel grid.
*/
package project

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/geom"
)

// Projection is one orthographic view of an aggregate.
type Projection struct {
	// X and Y are the projected centers. Radii are unchanged by projection.
	X, Y, Radii []float64
	// Azimuth and Elevation are the view angles in degrees.
	Azimuth, Elevation float64
	// Bounds is {MinX, MaxX, MinY, MaxY} of the projected disks, including
	// their radii. It is all zeros for an empty projection.
	Bounds [4]float64
}

// Len returns the number of projected particles.
func (p *Projection) Len() int { return len(p.X) }

// Width and Height return the extent of Bounds.
func (p *Projection) Width() float64  { return p.Bounds[1] - p.Bounds[0] }
func (p *Projection) Height() float64 { return p.Bounds[3] - p.Bounds[2] }

// Project views the spheres (xs[i], rs[i]) from azimuth az and elevation el,
// both in degrees.
func Project(xs []r3.Vec, rs []float64, az, el float64) (*Projection, error) {
	if len(xs) != len(rs) {
		return nil, errs.Invalid("project", "%d centers but %d radii", len(xs), len(rs))
	} else if math.IsNaN(az) || math.IsInf(az, 0) || math.IsNaN(el) || math.IsInf(el, 0) {
		return nil, errs.Invalid("project", "view angles (%g, %g) are not finite", az, el)
	}

	p := &Projection{
		X:         make([]float64, len(xs)),
		Y:         make([]float64, len(xs)),
		Radii:     append([]float64(nil), rs...),
		Azimuth:   az,
		Elevation: el,
	}
	if len(xs) == 0 {
		return p, nil
	}

	view := geom.ViewMatrix(az, el)
	minX, maxX := math.Inf(+1), math.Inf(-1)
	minY, maxY := math.Inf(+1), math.Inf(-1)
	for i, x := range xs {
		v := geom.Rotate(view, x)
		r := rs[i]
		p.X[i], p.Y[i] = v.X, v.Y

		minX, maxX = math.Min(minX, v.X-r), math.Max(maxX, v.X+r)
		minY, maxY = math.Min(minY, v.Y-r), math.Max(maxY, v.Y+r)
	}
	p.Bounds = [4]float64{minX, maxX, minY, maxY}
	return p, nil
}

// Range is an inclusive sweep of angles in degrees.
type Range struct {
	Start, End, Step float64
}

// DefaultRange is the angle sweep used when none is given.
var DefaultRange = Range{0, 150, 30}

func (r Range) angles() []float64 {
	var out []float64
	for a := r.Start; a <= r.End+1e-10; a += r.Step {
		out = append(out, a)
	}
	return out
}

func (r Range) check(name string) error {
	if r.Step <= 0 || math.IsNaN(r.Step) || math.IsInf(r.Step, 0) {
		return errs.Invalid("project", "%s step must be positive, got %g", name, r.Step)
	} else if math.IsNaN(r.Start) || math.IsNaN(r.End) ||
		math.IsInf(r.Start, 0) || math.IsInf(r.End, 0) {
		return errs.Invalid("project", "%s range [%g, %g] is not finite",
			name, r.Start, r.End)
	} else if r.End < r.Start {
		return errs.Invalid("project", "%s range [%g, %g] is empty",
			name, r.Start, r.End)
	}
	return nil
}

// Batch projects the spheres once for every (azimuth, elevation) pair in the
// two ranges, azimuth-major. Views from the poles are identical up to an
// in-plane rotation, so elevations of +/-90 are only used at the first
// azimuth.
func Batch(xs []r3.Vec, rs []float64, az, el Range) ([]*Projection, error) {
	if err := az.check("azimuth"); err != nil {
		return nil, err
	} else if err := el.check("elevation"); err != nil {
		return nil, err
	}

	azs, els := az.angles(), el.angles()
	out := make([]*Projection, 0, len(azs)*len(els))
	for i, a := range azs {
		for _, e := range els {
			if i > 0 && math.Abs(math.Abs(e)-90) < 1e-10 {
				continue
			}
			p, err := Project(xs, rs, a, e)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	return out, nil
}
