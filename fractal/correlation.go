package fractal

import (
	"context"
	"sort"
	"time"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fit"
)

// CorrelationAnalyzer estimates the correlation dimension: the slope of
// log C(r) against log r, where
//
//	C(r) = 2 * #{pairs at distance <= r} / (N * (N - 1))
//
// over N foreground pixels. Images with more than MaxPoints foreground pixels
// are thinned by taking every k-th pixel in row-major order.
type CorrelationAnalyzer struct{}

func (CorrelationAnalyzer) Method() Method { return Correlation }

func (CorrelationAnalyzer) Analyze(ctx context.Context, m *Mask, p Params) (*Result, error) {
	start := time.Now()
	if p.MaxPoints < 2 {
		return nil, errs.Invalid("fractal", "MaxPoints must be at least 2, got %d",
			p.MaxPoints)
	}
	sizes, err := prepare(ctx, m, &p)
	if err != nil {
		return nil, err
	}

	pts := thin(m.Points(), p.MaxPoints)
	if len(pts) < 2 {
		return nil, errs.New(errs.NumericDegeneracy, "fractal",
			"correlation needs at least 2 foreground pixels, got %d", len(pts))
	}

	r2 := make([]int, len(sizes))
	for i, r := range sizes {
		r2[i] = r * r
	}

	// Rows of the pair triangle are split into chunks. Each chunk counts
	// into its own histogram and the histograms are summed in order.
	chunks := min(len(pts), 64)
	hists := make([][]int, chunks)
	err = eachScale(ctx, p.Workers, chunks, func(c int) {
		h := make([]int, len(sizes))
		for i := c; i < len(pts); i += chunks {
			a := pts[i]
			for _, b := range pts[i+1:] {
				dx, dy := a[0]-b[0], a[1]-b[1]
				d2 := dx*dx + dy*dy
				// First radius with d <= r.
				k := sort.Search(len(r2), func(k int) bool { return r2[k] >= d2 })
				if k < len(h) {
					h[k]++
				}
			}
		}
		hists[c] = h
	})
	if err != nil {
		return nil, err
	}

	// hist[k] counts pairs whose first enclosing radius is sizes[k], so
	// pairs(d <= sizes[i]) is the prefix sum.
	res := newResult(Correlation, sizes, false)
	n := float64(len(pts))
	pairs := 0
	for i := range sizes {
		for _, h := range hists {
			pairs += h[i]
		}
		res.LogCounts[i] = fit.Log10(2 * float64(pairs) / (n * (n - 1)))
	}

	if err := fitDimension(res); err != nil {
		return nil, err
	}
	res.ExecutionTime = time.Since(start)
	return res, nil
}

func thin(pts [][2]int, max int) [][2]int {
	if len(pts) <= max {
		return pts
	}
	stride := (len(pts) + max - 1) / max
	out := make([][2]int, 0, max)
	for i := 0; i < len(pts); i += stride {
		out = append(out, pts[i])
	}
	return out
}
