package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is a ball with center C and radius R.
type Sphere struct {
	C r3.Vec
	R float64
}

// Overlaps returns true if the two spheres interpenetrate by more than eps.
func (s Sphere) Overlaps(o Sphere, eps float64) bool {
	rr := s.R + o.R - eps
	if rr <= 0 {
		return false
	}
	d := r3.Sub(s.C, o.C)
	return r3.Dot(d, d) < rr*rr
}

// Touches returns true if the two spheres are within eps of contact (or
// overlapping).
func (s Sphere) Touches(o Sphere, eps float64) bool {
	rr := s.R + o.R + eps
	d := r3.Sub(s.C, o.C)
	return r3.Dot(d, d) <= rr*rr
}

// Sweep finds the first time t in [0, 1] at which a sphere whose center moves
// from p to p + d comes within contact distance R of the point q. It returns
// false if there is no contact along the segment.
//
// A sphere which already touches q is in contact at t = 0 only when the move
// takes it closer. Moving away from a contact is always allowed, so a walker
// resting against a particle can leave it.
func Sweep(p, d, q r3.Vec, R float64) (t float64, ok bool) {
	f := r3.Sub(p, q)
	a := r3.Dot(d, d)
	b := r3.Dot(f, d)
	c := r3.Dot(f, f) - R*R

	if c <= 0 {
		return 0, b < 0
	}
	if a == 0 || b >= 0 {
		return 0, false
	}

	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}

	// Smaller root of a t^2 + 2 b t + c = 0, in the cancellation-free form.
	t = c / (-b + math.Sqrt(disc))
	if t > 1 {
		return 0, false
	}
	return t, true
}

// RayHit returns the nearest non-negative distance s along the ray
// o + s * dir (dir must be a unit vector) at which the ray comes within R of
// q. Rays starting inside the contact sphere hit at s = 0 if they point
// inward and miss otherwise.
func RayHit(o, dir, q r3.Vec, R float64) (s float64, ok bool) {
	f := r3.Sub(o, q)
	b := r3.Dot(f, dir)
	c := r3.Dot(f, f) - R*R

	if c <= 0 {
		return 0, b < 0
	}
	if b >= 0 {
		return 0, false
	}

	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return c / (-b + math.Sqrt(disc)), true
}

// Reflect mirrors the direction d about the plane with unit normal n.
func Reflect(d, n r3.Vec) r3.Vec {
	return r3.Sub(d, r3.Scale(2*r3.Dot(d, n), n))
}

// Perpendicular returns two unit vectors which together with the unit vector
// n form a right-handed orthonormal basis.
func Perpendicular(n r3.Vec) (u, v r3.Vec) {
	// Cross with whichever axis is least aligned with n.
	ax := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ax = r3.Vec{Y: 1}
	}
	u = r3.Unit(r3.Cross(n, ax))
	v = r3.Cross(n, u)
	return u, v
}
