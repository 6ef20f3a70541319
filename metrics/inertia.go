package metrics

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/errs"
)

// InertiaTensor holds the principal moments of an aggregate's inertia tensor
// about its center of mass, in ascending order, with the matching unit axes.
type InertiaTensor struct {
	Moments [3]float64
	Axes    [3]r3.Vec

	// Anisotropy is Moments[2] / Moments[0].
	Anisotropy float64
	// Asphericity is (I3 - (I1 + I2)/2) / (I1 + I2 + I3).
	Asphericity float64
	// Acylindricity is (I2 - I1) / (I1 + I2 + I3).
	Acylindricity float64
}

// minMoment keeps the shape ratios finite for collinear or single-particle
// sets.
const minMoment = 1e-10

// Inertia diagonalizes the r^3-weighted point-mass inertia tensor.
func Inertia(xs []r3.Vec, rs []float64) (InertiaTensor, error) {
	if len(xs) < 2 {
		return InertiaTensor{
			Moments:    [3]float64{1, 1, 1},
			Axes:       [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}},
			Anisotropy: 1,
		}, nil
	}

	cm := CenterOfMass(xs, rs)
	var ixx, iyy, izz, ixy, ixz, iyz float64
	for i, x := range xs {
		d := r3.Sub(x, cm)
		m := mass(rs[i])
		ixx += m * (d.Y*d.Y + d.Z*d.Z)
		iyy += m * (d.X*d.X + d.Z*d.Z)
		izz += m * (d.X*d.X + d.Y*d.Y)
		ixy -= m * d.X * d.Y
		ixz -= m * d.X * d.Z
		iyz -= m * d.Y * d.Z
	}

	tensor := mat.NewSymDense(3, []float64{
		ixx, ixy, ixz,
		ixy, iyy, iyz,
		ixz, iyz, izz,
	})

	var eig mat.EigenSym
	if ok := eig.Factorize(tensor, true); !ok {
		return InertiaTensor{}, errs.New(errs.NumericDegeneracy, "metrics",
			"inertia tensor eigendecomposition did not converge")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// EigenSym returns eigenvalues in ascending order.
	var it InertiaTensor
	for k := 0; k < 3; k++ {
		it.Moments[k] = max(vals[k], minMoment)
		it.Axes[k] = r3.Vec{X: vecs.At(0, k), Y: vecs.At(1, k), Z: vecs.At(2, k)}
	}

	i1, i2, i3 := it.Moments[0], it.Moments[1], it.Moments[2]
	trace := i1 + i2 + i3
	it.Anisotropy = i3 / i1
	it.Asphericity = (i3 - 0.5*(i1+i2)) / trace
	it.Acylindricity = (i2 - i1) / trace
	return it, nil
}
