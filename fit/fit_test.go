package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aglogen/aglogen/errs"
)

func TestLinear(t *testing.T) {
	table := []struct {
		xs, ys           []float64
		slope, intercept float64
		r2               float64
	}{
		{[]float64{0, 1}, []float64{1, 3}, 2, 1, 1},
		{[]float64{1, 2, 3, 4}, []float64{-1, -3, -5, -7}, -2, 1, 1},
		{[]float64{1, 2, 3}, []float64{5, 5, 5}, 0, 5, 1},
		{[]float64{0, 1, 2, math.NaN()}, []float64{0, 1, 2, 7}, 1, 0, 1},
	}

	for i, test := range table {
		line, err := Linear(test.xs, test.ys)
		if err != nil {
			t.Errorf("%d) Unexpected error: %v", i+1, err)
			continue
		}
		if math.Abs(line.Slope-test.slope) > 1e-12 ||
			math.Abs(line.Intercept-test.intercept) > 1e-12 {
			t.Errorf("%d) Expected %g x + %g, got %g x + %g", i+1,
				test.slope, test.intercept, line.Slope, line.Intercept)
		}
		if math.Abs(line.RSquared-test.r2) > 1e-12 {
			t.Errorf("%d) Expected R^2 = %g, got %g", i+1, test.r2, line.RSquared)
		}
	}
}

func TestLinearNoisy(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0.1, 0.9, 2.1, 2.9, 4.1}
	line, err := Linear(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, line.Slope, 0.05)
	assert.Less(t, line.RSquared, 1.0)
	assert.Greater(t, line.RSquared, 0.99)
	assert.Greater(t, line.StdErr, 0.0)
	assert.Len(t, line.Residuals, 5)
	assert.Equal(t, 5, line.N)
}

func TestLinearDegenerate(t *testing.T) {
	table := []struct {
		xs, ys []float64
	}{
		{nil, nil},
		{[]float64{1}, []float64{1}},
		{[]float64{2, 2, 2}, []float64{1, 2, 3}},
		{[]float64{1, math.Inf(1)}, []float64{1, 2}},
	}

	for i, test := range table {
		_, err := Linear(test.xs, test.ys)
		assert.True(t, errors.Is(err, errs.ErrNumericDegeneracy),
			"%d) Expected numeric degeneracy, got %v", i+1, err)
	}

	_, err := Linear([]float64{1, 2}, []float64{1})
	assert.True(t, errors.Is(err, errs.ErrInvalidParameters))
}

func TestLogLogPowerLaw(t *testing.T) {
	xs := []float64{1, 2, 4, 8, 16}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1.3 * math.Pow(x, 1.8)
	}
	line, err := LogLog(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1.8, line.Slope, 1e-12)
	assert.InDelta(t, 1.3, math.Pow(10, line.Intercept), 1e-12)
	assert.Equal(t, 1.0, line.RSquared)
}

func TestLogLogDropsNonPositive(t *testing.T) {
	line, err := LogLog([]float64{0, 1, 10, 100}, []float64{5, 1, 10, 100})
	require.NoError(t, err)
	assert.Equal(t, 3, line.N)
	assert.InDelta(t, 1, line.Slope, 1e-12)

	_, err = LogLog([]float64{1, 10}, []float64{0, -1})
	assert.True(t, errors.Is(err, errs.ErrNumericDegeneracy))
}

func TestWeighted(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{0, 1, 2, 10}

	line, err := Weighted(xs, ys, nil)
	require.NoError(t, err)
	plain, err := Linear(xs, ys)
	require.NoError(t, err)
	assert.Equal(t, plain, line)

	// A zero weight drops the outlier entirely.
	line, err = Weighted(xs, ys, []float64{1, 1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 3, line.N)
	assert.InDelta(t, 1, line.Slope, 1e-12)
	assert.InDelta(t, 0, line.Intercept, 1e-12)

	// Down-weighting the outlier pulls the slope toward the other points.
	heavy, err := Weighted(xs, ys, []float64{1, 1, 1, 1})
	require.NoError(t, err)
	light, err := Weighted(xs, ys, []float64{1, 1, 1, 0.1})
	require.NoError(t, err)
	assert.InDelta(t, plain.Slope, heavy.Slope, 1e-12)
	assert.Less(t, light.Slope, heavy.Slope)
	assert.Greater(t, light.Slope, 1.0)

	_, err = Weighted(xs, ys, []float64{1, 1})
	assert.True(t, errors.Is(err, errs.ErrInvalidParameters))
	_, err = Weighted(xs, ys, []float64{1, 0, 0, 0})
	assert.True(t, errors.Is(err, errs.ErrNumericDegeneracy))
}
