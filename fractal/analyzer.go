/*package fractal measures the fractal properties of two-dimensional binary
images.

Five analyses are provided behind the Analyzer interface. BoxCounting,
Sandbox, and Correlation estimate a scalar fractal dimension from a log-log
fit. Lacunarity and Multifractal describe how mass is distributed across
scales instead and return curves rather than a single dimension.

Masks are expected to be clean 0/1 images. No thresholding or denoising is
done here.

Work at different scales may run concurrently, but every scale writes into
its own slot and the fit is done serially afterwards, so results are
identical from run to run.
*/
package fractal

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fit"
)

// Result is the output of one analysis.
type Result struct {
	Method Method
	// Sizes are the box sizes or radii used, in pixels.
	Sizes []int
	// LogSizes and LogCounts are the base-10 log-log series. For
	// BoxCounting LogSizes is log10(1/size); for every other method it is
	// log10(size). Unusable scales (zero counts) are NaN.
	LogSizes, LogCounts []float64

	// Df, Intercept, RSquared, StdErr, and Residuals describe the fit of
	// LogCounts against LogSizes. Df is NaN for Lacunarity and Multifractal.
	Df, Intercept, RSquared, StdErr float64
	// CI95 is the approximate 95% confidence interval on Df.
	CI95      [2]float64
	Residuals []float64

	// Lacunarity[i] is the gliding-box lacunarity, Var(M) / Mean(M)^2 over box
	// masses M, at Sizes[i].
	Lacunarity []float64

	// Q, Tau, and Dq are the multifractal spectrum: Tau[i] = tau(Q[i]) and
	// Dq[i] is the generalized dimension D_q.
	Q, Tau, Dq []float64

	ExecutionTime time.Duration
}

// Analyzer is one analysis method.
type Analyzer interface {
	Method() Method
	// Analyze measures m. Errors are *errs.Error values.
	Analyze(ctx context.Context, m *Mask, p Params) (*Result, error)
}

// Registry maps methods to analyzers.
type Registry map[Method]Analyzer

// NewRegistry returns a Registry with every method in this package.
func NewRegistry() Registry {
	reg := Registry{}
	for _, a := range []Analyzer{
		BoxCounter{}, SandboxAnalyzer{}, CorrelationAnalyzer{},
		LacunarityAnalyzer{}, MultifractalAnalyzer{},
	} {
		reg[a.Method()] = a
	}
	return reg
}

// Analyze runs the analyzer registered for method.
func Analyze(
	ctx context.Context, reg Registry, method Method, m *Mask, p Params,
) (*Result, error) {
	a, ok := reg[method]
	if !ok {
		return nil, errs.Invalid("fractal", "no analyzer registered for %s", method)
	}
	return a.Analyze(ctx, m, p)
}

// prepare validates the inputs shared by every method and returns the
// scales to use.
func prepare(ctx context.Context, m *Mask, p *Params) ([]int, error) {
	if err := m.check(); err != nil {
		return nil, err
	} else if err := p.check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.FromContext("fractal", err, nil)
	}
	if m.Count() == 0 {
		return nil, errs.New(errs.NumericDegeneracy, "fractal",
			"mask has no foreground pixels")
	}
	sizes := p.Scales(m)
	if len(sizes) < 2 {
		return nil, errs.New(errs.NumericDegeneracy, "fractal",
			"only %d usable scales between %d and %d on a %dx%d mask",
			len(sizes), p.MinSize, p.MaxSize, m.Width, m.Height)
	}
	return sizes, nil
}

// eachScale calls fn(i) for i in [0, n) on up to workers goroutines.
func eachScale(ctx context.Context, workers, n int, fn func(i int)) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errs.FromContext("fractal", err, nil)
	}
	return nil
}

// fitDimension fills in the fit fields of res from its log-log series.
func fitDimension(res *Result) error {
	line, err := fit.Linear(res.LogSizes, res.LogCounts)
	if err != nil {
		return err
	}
	res.Df, res.Intercept = line.Slope, line.Intercept
	res.RSquared, res.StdErr = line.RSquared, line.StdErr
	res.CI95 = [2]float64{line.Slope - 1.96*line.StdErr, line.Slope + 1.96*line.StdErr}
	res.Residuals = line.Residuals
	return nil
}

func newResult(method Method, sizes []int, invert bool) *Result {
	res := &Result{
		Method:    method,
		Sizes:     sizes,
		LogSizes:  make([]float64, len(sizes)),
		LogCounts: make([]float64, len(sizes)),
		Df:        math.NaN(),
		Intercept: math.NaN(),
		RSquared:  math.NaN(),
		StdErr:    math.NaN(),
		CI95:      [2]float64{math.NaN(), math.NaN()},
	}
	for i, s := range sizes {
		res.LogSizes[i] = math.Log10(float64(s))
		if invert {
			res.LogSizes[i] = -res.LogSizes[i]
		}
	}
	return res
}
