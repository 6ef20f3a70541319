/*package aglogen runs aggregation engines and fractal analyses on behalf of a
caller.

The engines and analyzers are synchronous and only stop at their own
checkpoints. A Runner executes each call on a worker goroutine under an
optional deadline, so a caller can bound how long it waits without the engine
knowing anything about time.
*/
package aglogen

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/aglogen/aglogen/aggregate"
	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fractal"
	"github.com/aglogen/aglogen/project"
)

// Runner executes simulations and analyses.
type Runner struct {
	// Timeout bounds every call. Zero means no bound.
	Timeout time.Duration

	engines   aggregate.Registry
	analyzers fractal.Registry
	workers   int
	log       *slog.Logger
}

// NewRunner creates a Runner around the engines described by opts. workers
// limits SimulateAll and AnalyzeViews; a non-positive value uses one worker
// per CPU.
func NewRunner(opts aggregate.Options, timeout time.Duration, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		Timeout:   timeout,
		engines:   aggregate.NewRegistry(opts),
		analyzers: fractal.NewRegistry(),
		workers:   workers,
		log:       log,
	}
}

// Workers returns the worker limit.
func (r *Runner) Workers() int { return r.workers }

// Simulate runs one aggregation. If the deadline passes, the error has kind
// errs.Timeout and carries the geometry built so far.
func (r *Runner) Simulate(ctx context.Context, p aggregate.Params) (*aggregate.Result, error) {
	var res *aggregate.Result
	err := r.run(ctx, "simulate", func(ctx context.Context) error {
		var err error
		res, err = aggregate.Simulate(ctx, r.engines, p)
		return err
	})
	if err != nil {
		r.log.Warn("simulation failed", "algorithm", p.Algorithm.String(),
			"seed", p.Seed, "err", err)
		return nil, err
	}
	r.log.Info("simulation finished", "result", res.String())
	r.logMemory()
	return res, nil
}

// Analyze runs one fractal analysis of m.
func (r *Runner) Analyze(
	ctx context.Context, method fractal.Method, m *fractal.Mask, p fractal.Params,
) (*fractal.Result, error) {
	var res *fractal.Result
	err := r.run(ctx, "analyze", func(ctx context.Context) error {
		var err error
		res, err = fractal.Analyze(ctx, r.analyzers, method, m, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("analysis finished", "method", method.String(),
		"df", res.Df, "r2", res.RSquared, "ms", res.ExecutionTime.Milliseconds())
	return res, nil
}

// SimulateAll runs every parameter set, up to Workers at a time. results[i]
// and fails[i] belong to ps[i]; exactly one of them is non-nil.
func (r *Runner) SimulateAll(
	ctx context.Context, ps []aggregate.Params,
) (results []*aggregate.Result, fails []error) {
	results = make([]*aggregate.Result, len(ps))
	fails = make([]error, len(ps))

	jobs := make(chan int, len(ps))
	for i := range ps {
		jobs <- i
	}
	close(jobs)

	workers := min(r.workers, len(ps))
	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		go func(id int) {
			for i := range jobs {
				results[i], fails[i] = r.Simulate(ctx, ps[i])
			}
			out <- id
		}(id)
	}
	for i := 0; i < workers; i++ {
		<-out
	}
	return results, fails
}

// View is the analysis of one projection of an aggregate.
type View struct {
	Projection *project.Projection
	Mask       *fractal.Mask
	Result     *fractal.Result
}

// AnalyzeViews projects res at every angle pair in az and el, rasterizes each
// view so that its larger side spans pixels pixels, and analyzes the images
// with method. Views are returned in project.Batch order.
func (r *Runner) AnalyzeViews(
	ctx context.Context, res *aggregate.Result, az, el project.Range,
	pixels int, method fractal.Method, p fractal.Params,
) ([]View, error) {
	if res == nil {
		return nil, errs.Invalid("analyze", "no aggregate to project")
	} else if pixels < 1 {
		return nil, errs.Invalid("analyze", "pixels must be positive, got %d", pixels)
	}
	ps, err := project.Batch(res.Coordinates, res.Radii, az, el)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(ps))
	for i, proj := range ps {
		m, err := proj.Rasterize(proj.PixelSize(pixels), 0)
		if err != nil {
			return nil, err
		}
		views[i] = View{Projection: proj, Mask: m}
	}

	jobs := make(chan int, len(views))
	for i := range views {
		jobs <- i
	}
	close(jobs)

	fails := make([]error, len(views))
	workers := min(r.workers, len(views))
	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		go func(id int) {
			for i := range jobs {
				views[i].Result, fails[i] = r.Analyze(ctx, method, views[i].Mask, p)
			}
			out <- id
		}(id)
	}
	for i := 0; i < workers; i++ {
		<-out
	}

	for _, err := range fails {
		if err != nil {
			return nil, err
		}
	}
	return views, nil
}

// run calls fn on a worker goroutine and waits for it. When the deadline
// passes, fn is left to reach its next checkpoint so that whatever it has
// built comes back in the error.
func (r *Runner) run(ctx context.Context, op string, fn func(context.Context) error) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		err := <-done
		if err == nil {
			return nil
		} else if _, ok := errs.KindOf(err); ok {
			return err
		}
		return errs.FromContext(op, ctx.Err(), nil)
	}
}

func (r *Runner) logMemory() {
	if !r.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.log.Debug("memory", "alloc_mb", ms.Alloc>>20, "sys_mb", ms.Sys>>20)
}
