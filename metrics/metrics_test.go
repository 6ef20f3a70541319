package metrics

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/errs"
)

func randomCloud(n int, seed int64) ([]r3.Vec, []float64) {
	gen := rand.New(rand.NewSource(seed))
	xs, rs := make([]r3.Vec, n), make([]float64, n)
	for i := range xs {
		xs[i] = r3.Vec{X: gen.NormFloat64(), Y: gen.NormFloat64(), Z: gen.NormFloat64()}
		rs[i] = 0.5 + gen.Float64()
	}
	return xs, rs
}

func TestRgEvolutionMatchesDirect(t *testing.T) {
	xs, rs := randomCloud(200, 1)
	rg := RgEvolution(xs, rs)
	require.Len(t, rg, len(xs))
	assert.Equal(t, 0.0, rg[0])

	for _, k := range []int{1, 2, 10, 50, 199} {
		want := RadiusOfGyration(xs[:k+1], rs[:k+1])
		assert.InDelta(t, want, rg[k], 1e-10, "k = %d", k)
	}
}

func TestRgEvolutionPair(t *testing.T) {
	xs := []r3.Vec{{}, {X: 2}}
	rg := RgEvolution(xs, []float64{1, 1})
	assert.Equal(t, []float64{0, 1}, rg)
	assert.Equal(t, 1.0, RadiusOfGyration(xs, []float64{1, 1}))
}

func TestCenterOfMass(t *testing.T) {
	cm := CenterOfMass([]r3.Vec{{}, {X: 3}}, []float64{1, 2})
	assert.InDelta(t, 3*8.0/9.0, cm.X, 1e-12)
	assert.Equal(t, r3.Vec{}, CenterOfMass(nil, nil))
}

func TestFitFractalRoundTrip(t *testing.T) {
	table := []struct {
		df, kf, rp float64
	}{
		{1.8, 1.3, 1},
		{2.5, 0.9, 0.25},
		{1.4, 2.1, 10},
	}

	for i, test := range table {
		var ns, rgs []float64
		for rg := 1.5 * test.rp; rg < 200*test.rp; rg *= 1.3 {
			rgs = append(rgs, rg)
			ns = append(ns, test.kf*math.Pow(rg/test.rp, test.df))
		}

		f, err := FitFractal(ns, rgs, test.rp)
		if err != nil {
			t.Errorf("%d) Unexpected error: %v", i+1, err)
			continue
		}
		if math.Abs(f.Df-test.df)/test.df > 1e-6 {
			t.Errorf("%d) Expected Df = %g, got %g", i+1, test.df, f.Df)
		}
		if math.Abs(f.Kf-test.kf)/test.kf > 1e-6 {
			t.Errorf("%d) Expected kf = %g, got %g", i+1, test.kf, f.Kf)
		}
		if math.Abs(f.RSquared-1) > 1e-9 {
			t.Errorf("%d) Expected R^2 = 1, got %g", i+1, f.RSquared)
		}
	}
}

func TestFitGrowthWeighting(t *testing.T) {
	// An exact power law is recovered whatever the weights.
	rg := make([]float64, 200)
	for k := range rg {
		rg[k] = math.Pow(float64(k+1)/1.3, 1/1.8)
	}
	f, err := FitGrowth(rg, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.8, f.Df, 1e-9)
	assert.InDelta(t, 1.3, f.Kf, 1e-9)

	// Rg growing faster at small N (a concave log-log curve) is fit by
	// a shallower slope once every decade counts the same.
	for k := range rg {
		n := float64(k + 1)
		rg[k] = math.Pow(n, 1/1.8) * (1 + 0.5*math.Log10(n))
	}
	ns := make([]float64, len(rg))
	for k := range ns {
		ns[k] = float64(k + 1)
	}
	plain, err := FitFractal(ns, rg, 1)
	require.NoError(t, err)
	weighted, err := FitGrowth(rg, 1)
	require.NoError(t, err)
	assert.Less(t, weighted.Df, plain.Df)
}

func TestFitGrowthDegenerate(t *testing.T) {
	rg := RgEvolution([]r3.Vec{{}}, []float64{1})
	assert.Equal(t, []float64{0}, rg)

	f, err := FitGrowth(rg, 1)
	assert.True(t, errors.Is(err, errs.ErrNumericDegeneracy))
	assert.True(t, math.IsNaN(f.Df))
	assert.True(t, math.IsNaN(f.Kf))

	_, err = FitFractal([]float64{1, 2}, []float64{1, 2}, 0)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameters))
}

func TestCoordinationChain(t *testing.T) {
	xs := []r3.Vec{{}, {X: 2}, {X: 4}, {X: 10}}
	rs := []float64{1, 1, 1, 1}
	c := Coordination(xs, rs, 1e-9)
	assert.Equal(t, []int{1, 2, 1, 0}, c.Counts)
	assert.InDelta(t, 1.0, c.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), c.Std, 1e-12)
}

func TestRDFLattice(t *testing.T) {
	// Simple cubic lattice, spacing 1: six nearest neighbors at r = 1.
	var xs []r3.Vec
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			for k := 0; k < 5; k++ {
				xs = append(xs, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)})
			}
		}
	}
	rdf := RadialDistribution(xs, 20, 2)
	require.Len(t, rdf.G, 20)

	total := 0
	for _, p := range rdf.Pairs {
		total += p
	}
	// Nearest-neighbor bonds of a 5^3 cube: 3 * 5 * 5 * 4.
	assert.Equal(t, 300, rdf.Pairs[10])
	assert.Equal(t, 0, rdf.Pairs[0])
	assert.Greater(t, total, 300)
	assert.Greater(t, rdf.G[10], 0.0)
	assert.Equal(t, 0.0, rdf.G[5])
	assert.InDelta(t, 1.05, rdf.R[10], 1e-12)
}

func TestPorosity(t *testing.T) {
	assert.InDelta(t, 0, Porosity([]r3.Vec{{X: 3}}, []float64{2}), 1e-12)
	assert.Equal(t, 1.0, Porosity(nil, nil))

	// Two touching unit spheres: enclosing sphere of radius 2.
	p := Porosity([]r3.Vec{{X: -1}, {X: 1}}, []float64{1, 1})
	assert.InDelta(t, 1-2.0/8.0, p, 1e-12)

	// One unit sphere in a 2x2x2 box.
	bp := BoxPorosity([]r3.Vec{{}}, []float64{1})
	assert.InDelta(t, 1-math.Pi/6, bp, 1e-12)
}

func TestInertia(t *testing.T) {
	// Octahedron: isotropic.
	xs := []r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}
	rs := []float64{1, 1, 1, 1, 1, 1}
	it, err := Inertia(xs, rs)
	require.NoError(t, err)
	for k := 0; k < 3; k++ {
		assert.InDelta(t, 4, it.Moments[k], 1e-9)
	}
	assert.InDelta(t, 1, it.Anisotropy, 1e-9)
	assert.InDelta(t, 0, it.Asphericity, 1e-9)

	// A rod along z: smallest moment about z.
	xs = []r3.Vec{{Z: -3}, {Z: -1}, {Z: 1}, {Z: 3}, {X: 0.1}}
	rs = []float64{1, 1, 1, 1, 1}
	it, err = Inertia(xs, rs)
	require.NoError(t, err)
	assert.Less(t, it.Moments[0], it.Moments[1])
	assert.InDelta(t, 1, math.Abs(it.Axes[0].Z), 1e-2)
	assert.Greater(t, it.Anisotropy, 10.0)
	assert.Greater(t, it.Asphericity, 0.2)

	it, err = Inertia(xs[:1], rs[:1])
	require.NoError(t, err)
	assert.Equal(t, 1.0, it.Anisotropy)
}

func TestSummarize(t *testing.T) {
	xs, rs := randomCloud(300, 2)
	s1, err := Summarize(context.Background(), xs, rs, Options{
		ContactTolerance: 1e-9, RDFBins: 10,
	})
	require.NoError(t, err)
	s2, err := Summarize(context.Background(), xs, rs, Options{
		ContactTolerance: 1e-9, RDFBins: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, s1.RgEvolution, s2.RgEvolution)
	assert.Equal(t, s1.Fractal, s2.Fractal)
	assert.Equal(t, s1.Coordination, s2.Coordination)
	assert.Len(t, s1.RDF.G, 10)
	assert.InDelta(t, s1.Rg, s1.RgEvolution[len(xs)-1], 1e-10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Summarize(ctx, xs, rs, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
