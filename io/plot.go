package io

import (
	"fmt"
	"math"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/aglogen/aglogen/aggregate"
	"github.com/aglogen/aglogen/fractal"
)

// PlotFit adds a figure of the log-log series of res and its fitted line to
// the pending plot script, saved to fname. Call plt.Execute to run it.
func PlotFit(fname string, res *fractal.Result) {
	plt.Figure()
	plt.Plot(res.LogSizes, res.LogCounts, "ok")

	if !math.IsNaN(res.Df) {
		lo, hi := finiteRange(res.LogSizes)
		b := res.Intercept
		plt.Plot([]float64{lo, hi}, []float64{b + res.Df*lo, b + res.Df*hi},
			"r", plt.LW(2))
		plt.Title(fmt.Sprintf(`%s: $D_f$ = %.3f, $R^2$ = %.4f`,
			res.Method, res.Df, res.RSquared))
	} else {
		plt.Title(res.Method.String())
	}

	if res.Method == fractal.BoxCounting {
		plt.XLabel(`$\log_{10}(1/s)$`, plt.FontSize(16))
	} else {
		plt.XLabel(`$\log_{10}(s)$`, plt.FontSize(16))
	}
	plt.YLabel(`$\log_{10}(N)$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.Grid(plt.Axis("x"), plt.Which("both"))
	plt.SaveFig(fname)
}

// PlotGrowth adds a figure of the radius of gyration against particle count
// to the pending plot script, saved to fname.
func PlotGrowth(fname string, res *aggregate.Result) {
	ns := make([]float64, 0, res.N())
	rgs := make([]float64, 0, res.N())
	for i, rg := range res.RgEvolution {
		if rg > 0 {
			ns = append(ns, float64(i+1))
			rgs = append(rgs, rg)
		}
	}

	plt.Figure()
	plt.Plot(rgs, ns, "ok")
	plt.XScale("log")
	plt.YScale("log")
	plt.Title(fmt.Sprintf(`%s, N = %d: $D_f$ = %.3f, $k_f$ = %.3f`,
		res.Algorithm, res.N(), res.FractalDimension, res.Prefactor))
	plt.XLabel(`$R_g$`, plt.FontSize(16))
	plt.YLabel(`$N$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.Grid(plt.Axis("x"), plt.Which("both"))
	plt.SaveFig(fname)
}

func finiteRange(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(+1), math.Inf(-1)
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
	}
	return lo, hi
}
