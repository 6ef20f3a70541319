package project

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/errs"
	"github.com/aglogen/aglogen/fractal"
)

func TestProject(t *testing.T) {
	xs := []r3.Vec{{X: 1, Y: 2, Z: 3}}
	rs := []float64{0.5}

	table := []struct {
		az, el float64
		x, y   float64
	}{
		{0, 0, 2, 3},
		{90, 0, -1, 3},
		{180, 0, -2, 3},
		{0, 90, 2, -1},
	}

	for i, test := range table {
		p, err := Project(xs, rs, test.az, test.el)
		require.NoError(t, err)
		if math.Abs(p.X[0]-test.x) > 1e-12 || math.Abs(p.Y[0]-test.y) > 1e-12 {
			t.Errorf("%d) Expected (%g, %g) at (%g, %g), got (%g, %g)", i+1,
				test.x, test.y, test.az, test.el, p.X[0], p.Y[0])
		}
		bounds := [4]float64{test.x - 0.5, test.x + 0.5, test.y - 0.5, test.y + 0.5}
		for k := range bounds {
			assert.InDelta(t, bounds[k], p.Bounds[k], 1e-12)
		}
	}
}

func TestProjectEmpty(t *testing.T) {
	p, err := Project(nil, nil, 30, 60)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, [4]float64{}, p.Bounds)

	_, err = Project([]r3.Vec{{}}, nil, 0, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
	_, err = Project(nil, nil, math.NaN(), 0)
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestProjectPreservesDistances(t *testing.T) {
	// Two spheres separated along the line of sight overlap in projection,
	// and two separated across it keep their distance.
	xs := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 5, Y: 0, Z: 0}, {X: 0, Y: 5, Z: 0}}
	rs := []float64{1, 1, 1}
	p, err := Project(xs, rs, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, math.Hypot(p.X[1]-p.X[0], p.Y[1]-p.Y[0]), 1e-12)
	assert.InDelta(t, 5.0, math.Hypot(p.X[2]-p.X[0], p.Y[2]-p.Y[0]), 1e-12)
}

func TestBatch(t *testing.T) {
	xs := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}
	rs := []float64{1, 1}

	ps, err := Batch(xs, rs, DefaultRange, DefaultRange)
	require.NoError(t, err)
	// 6 azimuths x 6 elevations, with the 90 degree views kept only once.
	assert.Len(t, ps, 36-5)
	assert.Equal(t, 0.0, ps[0].Azimuth)
	assert.Equal(t, 0.0, ps[0].Elevation)
	for _, p := range ps {
		if p.Azimuth > 0 {
			assert.NotEqual(t, 90.0, p.Elevation)
		}
	}

	ps, err = Batch(xs, rs, Range{0, 0, 1}, Range{-90, 90, 45})
	require.NoError(t, err)
	assert.Len(t, ps, 5)

	table := []struct {
		az, el Range
	}{
		{Range{0, 150, 0}, DefaultRange},
		{DefaultRange, Range{10, 0, 5}},
		{Range{0, math.Inf(1), 10}, DefaultRange},
	}
	for i, test := range table {
		if _, err := Batch(xs, rs, test.az, test.el); !assert.ErrorIs(
			t, err, errs.ErrInvalidParameters) {
			t.Errorf("%d) Expected invalid ranges %v, %v to fail", i+1, test.az, test.el)
		}
	}
}

func TestRasterize(t *testing.T) {
	p, err := Project([]r3.Vec{{X: 0, Y: 0, Z: 0}}, []float64{1}, 0, 0)
	require.NoError(t, err)

	m, err := p.Rasterize(0.05, 2)
	require.NoError(t, err)
	assert.Equal(t, 44, m.Width)
	assert.Equal(t, 44, m.Height)
	assert.InDelta(t, math.Pi/(0.05*0.05), float64(m.Count()), 40)
	assert.False(t, m.At(0, 0))
	assert.True(t, m.At(22, 22))

	assert.InDelta(t, 0.1, p.PixelSize(20), 1e-12)

	// Two disks side by side stay separated by background.
	p, err = Project([]r3.Vec{{X: 0, Y: -2, Z: 0}, {X: 0, Y: 2, Z: 0}}, []float64{1, 1}, 0, 0)
	require.NoError(t, err)
	m, err = p.Rasterize(0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, 60, m.Width)
	assert.Equal(t, 20, m.Height)
	for y := 0; y < m.Height; y++ {
		assert.False(t, m.At(30, y))
	}
}

func TestRasterizeErrors(t *testing.T) {
	p, err := Project([]r3.Vec{{X: 0, Y: 0, Z: 0}}, []float64{1}, 0, 0)
	require.NoError(t, err)
	empty, err := Project(nil, nil, 0, 0)
	require.NoError(t, err)

	table := []struct {
		p      *Projection
		pixel  float64
		margin int
		kind   errs.Kind
	}{
		{p, 0, 0, errs.InvalidParameters},
		{p, math.NaN(), 0, errs.InvalidParameters},
		{p, 0.1, -1, errs.InvalidParameters},
		{empty, 0.1, 0, errs.InvalidParameters},
		{p, 1e-6, 0, errs.ResourceExhaustion},
	}
	for i, test := range table {
		_, err := test.p.Rasterize(test.pixel, test.margin)
		if kind, ok := errs.KindOf(err); !ok || kind != test.kind {
			t.Errorf("%d) Expected error of kind %s, got %v", i+1, test.kind, err)
		}
	}
}

func TestRasterizedDimension(t *testing.T) {
	// A straight chain of touching spheres projects to a rod, whose
	// box-counting dimension is close to 1 well above the particle size.
	var xs []r3.Vec
	var rs []float64
	for i := 0; i < 200; i++ {
		xs = append(xs, r3.Vec{Y: 2 * float64(i)})
		rs = append(rs, 1)
	}
	p, err := Project(xs, rs, 0, 0)
	require.NoError(t, err)
	m, err := p.Rasterize(0.5, 130)
	require.NoError(t, err)

	params := fractal.DefaultParams()
	params.MinSize, params.MaxSize, params.NScales = 8, 256, 6
	res, err := fractal.BoxCounter{}.Analyze(context.Background(), m, params)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Df, 0.15)
}
