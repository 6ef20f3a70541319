package fractal

import (
	"context"
	"time"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fit"
)

// SandboxAnalyzer estimates the mass-radius dimension: the slope of
// log M(r) against log r, where M(r) is the mean number of foreground pixels
// within distance r of a set of foreground seed pixels.
//
// Seeds are taken at an even stride through the foreground pixels in
// row-major order. Pixels at least the largest radius from every edge are
// used when there are any, so that large disks are not clipped.
type SandboxAnalyzer struct{}

func (SandboxAnalyzer) Method() Method { return Sandbox }

func (SandboxAnalyzer) Analyze(ctx context.Context, m *Mask, p Params) (*Result, error) {
	start := time.Now()
	if p.Seeds < 1 {
		return nil, errs.Invalid("fractal", "Seeds must be at least 1, got %d", p.Seeds)
	}
	sizes, err := prepare(ctx, m, &p)
	if err != nil {
		return nil, err
	}

	seeds := sandboxSeeds(m, p.Seeds, sizes[len(sizes)-1])
	res := newResult(Sandbox, sizes, false)
	err = eachScale(ctx, p.Workers, len(sizes), func(i int) {
		r := sizes[i]
		total := 0
		for _, c := range seeds {
			total += diskMass(m, c[0], c[1], r)
		}
		res.LogCounts[i] = fit.Log10(float64(total) / float64(len(seeds)))
	})
	if err != nil {
		return nil, err
	}

	if err := fitDimension(res); err != nil {
		return nil, err
	}
	res.ExecutionTime = time.Since(start)
	return res, nil
}

func sandboxSeeds(m *Mask, n, rMax int) [][2]int {
	all := m.Points()
	var inner [][2]int
	for _, pt := range all {
		x, y := pt[0], pt[1]
		if x >= rMax && y >= rMax && m.Width-1-x >= rMax && m.Height-1-y >= rMax {
			inner = append(inner, pt)
		}
	}
	cand := all
	if len(inner) > 0 {
		cand = inner
	}

	n = min(n, len(cand))
	stride := len(cand) / n
	seeds := make([][2]int, n)
	for k := range seeds {
		seeds[k] = cand[k*stride]
	}
	return seeds
}

// diskMass counts foreground pixels within Euclidean distance r of (cx, cy).
func diskMass(m *Mask, cx, cy, r int) int {
	n := 0
	y0, y1 := max(cy-r, 0), min(cy+r, m.Height-1)
	for y := y0; y <= y1; y++ {
		dy := y - cy
		x0, x1 := max(cx-r, 0), min(cx+r, m.Width-1)
		row := m.Pix[y*m.Width:]
		for x := x0; x <= x1; x++ {
			dx := x - cx
			if row[x] && dx*dx+dy*dy <= r*r {
				n++
			}
		}
	}
	return n
}
