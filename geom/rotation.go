package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ViewMatrix creates the orthographic view rotation for a camera at azimuth az
// and elevation el, both in degrees. Azimuth rotates around the z axis (0 looks
// from +x, 90 from +y) and elevation tilts up from the xy plane (90 looks down
// from +z).
//
// After rotation the x and y components are the horizontal and vertical image
// coordinates and z points along the line of sight.
func ViewMatrix(az, el float64) *r3.Mat {
	sinAz, cosAz := math.Sincos(az * math.Pi / 180)
	sinEl, cosEl := math.Sincos(el * math.Pi / 180)

	return r3.NewMat([]float64{
		-sinAz, cosAz, 0,
		-cosAz * sinEl, -sinAz * sinEl, cosEl,
		cosAz * cosEl, sinAz * cosEl, sinEl,
	})
}

// Rotate applies the rotation m to v.
func Rotate(m *r3.Mat, v r3.Vec) r3.Vec {
	return m.MulVec(v)
}
