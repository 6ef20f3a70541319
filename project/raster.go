package project

import (
	"math"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fractal"
)

// MaxPixels bounds the size of a rasterized image.
const MaxPixels = 1 << 26

// PixelSize returns the pixel size which makes the larger side of p's bounds
// span n pixels.
func (p *Projection) PixelSize(n int) float64 {
	return math.Max(p.Width(), p.Height()) / float64(n)
}

// Rasterize lays the projected disks onto a grid with the given pixel size
// and margin pixels of background on every side. A pixel is foreground if its
// center lies inside any disk. Row 0 is the top of the image, at MaxY.
func (p *Projection) Rasterize(pixel float64, margin int) (*fractal.Mask, error) {
	if !(pixel > 0) || math.IsInf(pixel, 0) {
		return nil, errs.Invalid("project", "pixel size must be positive, got %g", pixel)
	} else if margin < 0 {
		return nil, errs.Invalid("project", "margin must be non-negative, got %d", margin)
	} else if p.Len() == 0 {
		return nil, errs.Invalid("project", "nothing to rasterize")
	}

	// The slack keeps an exact multiple of pixel from gaining a column to
	// rounding.
	fw := math.Ceil(p.Width()/pixel-1e-9) + 2*float64(margin)
	fh := math.Ceil(p.Height()/pixel-1e-9) + 2*float64(margin)
	if fw*fh > MaxPixels {
		return nil, errs.New(errs.ResourceExhaustion, "project",
			"a %gx%g image is larger than %d pixels", fw, fh, MaxPixels)
	}
	w, h := max(int(fw), 1), max(int(fh), 1)
	m := fractal.NewMask(w, h)

	// Pixel (i, j) has its center at (x0 + (i + 1/2) pixel, y0 - (j + 1/2) pixel).
	x0 := p.Bounds[0] - float64(margin)*pixel
	y0 := p.Bounds[3] + float64(margin)*pixel
	for k := range p.X {
		cx, cy, r := p.X[k], p.Y[k], p.Radii[k]
		i0 := max(int(math.Floor((cx-r-x0)/pixel)), 0)
		i1 := min(int(math.Ceil((cx+r-x0)/pixel)), w-1)
		j0 := max(int(math.Floor((y0-cy-r)/pixel)), 0)
		j1 := min(int(math.Ceil((y0-cy+r)/pixel)), h-1)

		for j := j0; j <= j1; j++ {
			dy := y0 - (float64(j)+0.5)*pixel - cy
			for i := i0; i <= i1; i++ {
				dx := x0 + (float64(i)+0.5)*pixel - cx
				if dx*dx+dy*dy <= r*r {
					m.Set(i, j, true)
				}
			}
		}
	}
	return m, nil
}
