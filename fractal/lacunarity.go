package fractal

import (
	"context"
	"math"
	"time"

	"github.com/aglogen/aglogen/fit"
)

// LacunarityAnalyzer measures gliding-box lacunarity. For every size s an
// s x s box is placed at every position fully inside the image, and
//
//	Lambda(s) = Var(M) / Mean(M)^2
//
// over the box masses M. Lambda is 0 for a uniform image and grows with
// gappiness. LogCounts holds log10 Lambda, which is NaN where Lambda is 0.
// There is no single dimension, so Df is NaN.
type LacunarityAnalyzer struct{}

func (LacunarityAnalyzer) Method() Method { return Lacunarity }

func (LacunarityAnalyzer) Analyze(ctx context.Context, m *Mask, p Params) (*Result, error) {
	start := time.Now()
	sizes, err := prepare(ctx, m, &p)
	if err != nil {
		return nil, err
	}

	t := newTable(m)
	res := newResult(Lacunarity, sizes, false)
	res.Lacunarity = make([]float64, len(sizes))
	err = eachScale(ctx, p.Workers, len(sizes), func(i int) {
		res.Lacunarity[i] = glidingBox(t, sizes[i])
		res.LogCounts[i] = fit.Log10(res.Lacunarity[i])
	})
	if err != nil {
		return nil, err
	}
	res.ExecutionTime = time.Since(start)
	return res, nil
}

func glidingBox(t *table, s int) float64 {
	var sum, sum2, n float64
	for y := 0; y+s <= t.h; y++ {
		for x := 0; x+s <= t.w; x++ {
			mass := float64(t.sum(x, y, x+s, y+s))
			sum += mass
			sum2 += mass * mass
			n++
		}
	}
	if sum == 0 {
		return math.NaN()
	}
	mean := sum / n
	return math.Max(0, sum2/n-mean*mean) / (mean * mean)
}
