package geom

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func randomPoints(n int, width float64, seed int64) []r3.Vec {
	gen := rand.New(rand.NewSource(seed))
	xs := make([]r3.Vec, n)
	for i := range xs {
		xs[i] = r3.Vec{
			X: (gen.Float64() - 0.5) * width,
			Y: (gen.Float64() - 0.5) * width,
			Z: (gen.Float64() - 0.5) * width,
		}
	}
	return xs
}

func TestIndexMatchesBruteForce(t *testing.T) {
	xs := randomPoints(2000, 20, 1)
	idx := NewIndex(1.0)
	for i, x := range xs {
		idx.Insert(i, x)
	}
	require.Equal(t, len(xs), idx.Len())

	queries := randomPoints(50, 22, 2)
	for _, radius := range []float64{0.3, 1.0, 2.5, 40} {
		for i, q := range queries {
			var got []int
			idx.Each(q, radius, func(id int) bool {
				if r3.Norm(r3.Sub(xs[id], q)) <= radius {
					got = append(got, id)
				}
				return true
			})
			sort.Ints(got)

			var want []int
			for j, x := range xs {
				if r3.Norm(r3.Sub(x, q)) <= radius {
					want = append(want, j)
				}
			}

			if len(want) == 0 {
				assert.Empty(t, got, "%d) radius %g", i+1, radius)
			} else {
				assert.Equal(t, want, got, "%d) radius %g", i+1, radius)
			}
		}
	}
}

func TestIndexDeterministicOrder(t *testing.T) {
	xs := randomPoints(500, 5, 3)
	idx1, idx2 := NewIndex(0.5), NewIndex(0.5)
	for i, x := range xs {
		idx1.Insert(i, x)
		idx2.Insert(i, x)
	}
	q := r3.Vec{X: 0.1, Y: -0.2, Z: 0.3}
	for _, radius := range []float64{0.5, 100} {
		assert.Equal(t, idx1.QueryNear(q, radius), idx2.QueryNear(q, radius))
	}
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex(1)
	a, b := r3.Vec{X: 0.2}, r3.Vec{X: 0.4}
	idx.Insert(1, a)
	idx.Insert(2, b)
	idx.Insert(3, r3.Vec{X: 5})

	assert.True(t, idx.Remove(1, a))
	assert.False(t, idx.Remove(1, a))
	assert.False(t, idx.Remove(3, a))
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []int{2}, idx.QueryNear(r3.Vec{}, 0.5))
}

func TestIndexEarlyStop(t *testing.T) {
	idx := NewIndex(1)
	for i := 0; i < 10; i++ {
		idx.Insert(i, r3.Vec{})
	}
	n := 0
	idx.Each(r3.Vec{}, 1, func(int) bool { n++; return n < 3 })
	assert.Equal(t, 3, n)
}

func TestIndexFarPoints(t *testing.T) {
	idx := NewIndex(1)
	far := r3.Vec{X: 1e300}
	idx.Insert(0, far)
	assert.Equal(t, []int{0}, idx.QueryNear(far, 1))
	assert.Empty(t, idx.QueryNear(r3.Vec{}, 1))
}

func TestSweep(t *testing.T) {
	table := []struct {
		p, d, q r3.Vec
		R       float64
		t       float64
		ok      bool
	}{
		// Head-on: center stops at distance 2 from q.
		{r3.Vec{X: -5}, r3.Vec{X: 10}, r3.Vec{}, 2, 0.3, true},
		// Falls short.
		{r3.Vec{X: -5}, r3.Vec{X: 2}, r3.Vec{}, 2, 0, false},
		// Passes by at impact parameter 3.
		{r3.Vec{X: -5, Y: 3}, r3.Vec{X: 10}, r3.Vec{}, 2, 0, false},
		// Grazes at impact parameter 1.
		{r3.Vec{X: -5, Y: 1}, r3.Vec{X: 10}, r3.Vec{}, 2, (5 - math.Sqrt(3)) / 10, true},
		// Resting in contact and moving inward.
		{r3.Vec{X: -2}, r3.Vec{X: 1}, r3.Vec{}, 2, 0, true},
		// Resting in contact and moving away.
		{r3.Vec{X: -2}, r3.Vec{X: -1}, r3.Vec{}, 2, 0, false},
		// Moving away from a distant sphere.
		{r3.Vec{X: -5}, r3.Vec{X: -1}, r3.Vec{}, 2, 0, false},
		// No motion.
		{r3.Vec{X: -5}, r3.Vec{}, r3.Vec{}, 2, 0, false},
	}

	for i, test := range table {
		tt, ok := Sweep(test.p, test.d, test.q, test.R)
		if ok != test.ok {
			t.Errorf("%d) Expected ok = %v, got %v", i+1, test.ok, ok)
			continue
		}
		if ok && math.Abs(tt-test.t) > 1e-12 {
			t.Errorf("%d) Expected t = %g, got %g", i+1, test.t, tt)
		}
	}
}

func TestSweepNoOverlap(t *testing.T) {
	gen := rand.New(rand.NewSource(4))
	for i := 0; i < 1000; i++ {
		p := r3.Vec{X: gen.Float64()*8 - 4, Y: gen.Float64()*8 - 4, Z: gen.Float64()*8 - 4}
		if r3.Norm(p) <= 2 {
			continue
		}
		d := r3.Vec{X: gen.Float64()*6 - 3, Y: gen.Float64()*6 - 3, Z: gen.Float64()*6 - 3}
		tt, ok := Sweep(p, d, r3.Vec{}, 2)
		if !ok {
			tt = 1
		}
		end := r3.Add(p, r3.Scale(tt, d))
		require.GreaterOrEqual(t, r3.Norm(end), 2-1e-9, "%d) sweep ends inside", i+1)
		if ok {
			require.InDelta(t, 2, r3.Norm(end), 1e-9, "%d) contact not at R", i+1)
		}
	}
}

func TestRayHitNearestRoot(t *testing.T) {
	dir := r3.Vec{X: 1}
	s, ok := RayHit(r3.Vec{X: -10}, dir, r3.Vec{}, 1)
	require.True(t, ok)
	assert.InDelta(t, 9, s, 1e-12)

	s, ok = RayHit(r3.Vec{X: -10, Y: 0.6}, dir, r3.Vec{}, 1)
	require.True(t, ok)
	assert.InDelta(t, 10-0.8, s, 1e-12)

	_, ok = RayHit(r3.Vec{X: -10, Y: 1.1}, dir, r3.Vec{}, 1)
	assert.False(t, ok)

	_, ok = RayHit(r3.Vec{X: 10}, dir, r3.Vec{}, 1)
	assert.False(t, ok, "sphere behind the ray")
}

func TestReflect(t *testing.T) {
	d := Reflect(r3.Vec{X: 1, Y: -1}, r3.Vec{Y: 1})
	assert.InDelta(t, 1, d.X, 1e-15)
	assert.InDelta(t, 1, d.Y, 1e-15)
}

func TestPerpendicular(t *testing.T) {
	for i, n := range []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}, r3.Unit(r3.Vec{X: 1, Y: 2, Z: 3})} {
		u, v := Perpendicular(n)
		assert.InDelta(t, 0, r3.Dot(u, n), 1e-12, "%d) u.n", i+1)
		assert.InDelta(t, 0, r3.Dot(v, n), 1e-12, "%d) v.n", i+1)
		assert.InDelta(t, 0, r3.Dot(u, v), 1e-12, "%d) u.v", i+1)
		assert.InDelta(t, 1, r3.Norm(u), 1e-12, "%d) |u|", i+1)
		assert.InDelta(t, 1, r3.Norm(v), 1e-12, "%d) |v|", i+1)
	}
}

func TestViewMatrix(t *testing.T) {
	table := []struct {
		az, el float64
		in     r3.Vec
		out    r3.Vec
	}{
		{0, 0, r3.Vec{X: 1}, r3.Vec{X: 0, Y: 0, Z: 1}},
		{0, 0, r3.Vec{Y: 1}, r3.Vec{X: 1}},
		{0, 0, r3.Vec{Z: 1}, r3.Vec{Y: 1}},
		{90, 0, r3.Vec{X: 1}, r3.Vec{X: -1}},
		{0, 90, r3.Vec{Z: 1}, r3.Vec{Z: 1}},
	}

	for i, test := range table {
		got := Rotate(ViewMatrix(test.az, test.el), test.in)
		if r3.Norm(r3.Sub(got, test.out)) > 1e-12 {
			t.Errorf("%d) Expected %v, got %v", i+1, test.out, got)
		}
	}
}

func BenchmarkIndexQuery(b *testing.B) {
	xs := randomPoints(10000, 40, 5)
	idx := NewIndex(1)
	for i, x := range xs {
		idx.Insert(i, x)
	}
	buf := make([]int, 0, 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = idx.AppendNear(buf[:0], xs[i%len(xs)], 1)
	}
}
