package fractal

import (
	"context"
	"time"

	"github.com/aglogen/aglogen/fit"
)

// BoxCounter estimates the box-counting dimension: the slope of log N(s)
// against log(1/s), where N(s) is the number of s x s grid boxes containing
// at least one foreground pixel.
type BoxCounter struct{}

func (BoxCounter) Method() Method { return BoxCounting }

func (BoxCounter) Analyze(ctx context.Context, m *Mask, p Params) (*Result, error) {
	start := time.Now()
	sizes, err := prepare(ctx, m, &p)
	if err != nil {
		return nil, err
	}

	t := newTable(m)
	res := newResult(BoxCounting, sizes, true)
	err = eachScale(ctx, p.Workers, len(sizes), func(i int) {
		n := 0
		for _, mass := range t.boxMasses(sizes[i]) {
			if mass > 0 {
				n++
			}
		}
		res.LogCounts[i] = fit.Log10(float64(n))
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
