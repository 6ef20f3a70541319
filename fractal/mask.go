package fractal

import (
	"fmt"

	"github.com/aglogen/aglogen/errs"
)

// Mask is a binary image stored in row-major order. Pix[y*Width + x] is true
// for foreground pixels.
type Mask struct {
	Width, Height int
	Pix           []bool
}

// NewMask returns an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

func (m *Mask) At(x, y int) bool     { return m.Pix[y*m.Width+x] }
func (m *Mask) Set(x, y int, v bool) { m.Pix[y*m.Width+x] = v }

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, p := range m.Pix {
		if p {
			n++
		}
	}
	return n
}

// Points returns the coordinates of every foreground pixel in row-major
// order.
func (m *Mask) Points() [][2]int {
	pts := make([][2]int, 0, m.Count())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				pts = append(pts, [2]int{x, y})
			}
		}
	}
	return pts
}

func (m *Mask) String() string {
	return fmt.Sprintf("Mask{%dx%d, %d set}", m.Width, m.Height, m.Count())
}

func (m *Mask) check() error {
	switch {
	case m == nil:
		return errs.Invalid("fractal", "mask is nil")
	case m.Width <= 0 || m.Height <= 0:
		return errs.Invalid("fractal", "mask is empty (%dx%d)", m.Width, m.Height)
	case len(m.Pix) != m.Width*m.Height:
		return errs.Invalid("fractal", "mask has %d pixels but is %dx%d",
			len(m.Pix), m.Width, m.Height)
	}
	return nil
}

// table is a summed-area table over a Mask: s[y*(w+1) + x] is the number of
// foreground pixels with coordinates below (x, y).
type table struct {
	w, h int
	s    []int
}

func newTable(m *Mask) *table {
	t := &table{w: m.Width, h: m.Height, s: make([]int, (m.Width+1)*(m.Height+1))}
	stride := m.Width + 1
	for y := 0; y < m.Height; y++ {
		row := 0
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				row++
			}
			t.s[(y+1)*stride+x+1] = t.s[y*stride+x+1] + row
		}
	}
	return t
}

// sum returns the number of foreground pixels in [x0, x1) x [y0, y1). The
// rectangle is clipped to the image.
func (t *table) sum(x0, y0, x1, y1 int) int {
	x1, y1 = min(x1, t.w), min(y1, t.h)
	x0, y0 = max(x0, 0), max(y0, 0)
	if x0 >= x1 || y0 >= y1 {
		return 0
	}
	stride := t.w + 1
	return t.s[y1*stride+x1] - t.s[y0*stride+x1] - t.s[y1*stride+x0] + t.s[y0*stride+x0]
}

// boxMasses returns the foreground count of every box in the grid of s x s
// boxes covering the image. Boxes on the right and bottom edges are partial.
func (t *table) boxMasses(s int) []int {
	nx, ny := (t.w+s-1)/s, (t.h+s-1)/s
	out := make([]int, 0, nx*ny)
	for by := 0; by < ny; by++ {
		for bx := 0; bx < nx; bx++ {
			out = append(out, t.sum(bx*s, by*s, (bx+1)*s, (by+1)*s))
		}
	}
	return out
}
