package rand

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestDeterministic(t *testing.T) {
	g1, g2 := NewGenerator(42), NewGenerator(42)
	for i := 0; i < 1000; i++ {
		require.Equal(t, g1.Uint64(), g2.Uint64(), "draw %d", i)
	}

	g1, g2 = NewGenerator(42), NewGenerator(43)
	same := 0
	for i := 0; i < 100; i++ {
		if g1.Uint64() == g2.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 5)
}

func TestReseed(t *testing.T) {
	g := NewGenerator(7)
	first := []uint64{g.Uint64(), g.Uint64(), g.Uint64()}
	g.Init(7)
	assert.Equal(t, first, []uint64{g.Uint64(), g.Uint64(), g.Uint64()})
	assert.Equal(t, uint64(7), g.Seed())
}

func TestFloat64Range(t *testing.T) {
	g := NewGenerator(1)
	sum := 0.0
	n := 100000
	for i := 0; i < n; i++ {
		x := g.Float64()
		require.True(t, x >= 0 && x < 1, "%d) %g out of [0, 1)", i, x)
		sum += x
	}
	assert.InDelta(t, 0.5, sum/float64(n), 0.01)
}

func TestUnitVector(t *testing.T) {
	g := NewGenerator(123)
	mean := r3.Vec{}
	n := 20000
	for i := 0; i < n; i++ {
		v := g.UnitVector()
		require.InDelta(t, 1.0, r3.Norm(v), 1e-12, "%d) |%v| != 1", i, v)
		mean = r3.Add(mean, v)
	}
	mean = r3.Scale(1/float64(n), mean)
	assert.InDelta(t, 0, mean.X, 0.03)
	assert.InDelta(t, 0, mean.Y, 0.03)
	assert.InDelta(t, 0, mean.Z, 0.03)
}

func TestIntn(t *testing.T) {
	g := NewGenerator(5)
	counts := make([]int, 6)
	for i := 0; i < 60000; i++ {
		counts[g.Intn(6)]++
	}
	for i, c := range counts {
		assert.InDelta(t, 10000, c, 500, "%d) bucket count", i)
	}
	assert.Panics(t, func() { g.Intn(0) })
}

func TestInDisk(t *testing.T) {
	g := NewGenerator(9)
	for i := 0; i < 1000; i++ {
		x, y := g.InDisk()
		require.LessOrEqual(t, math.Hypot(x, y), 1.0)
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, SplitSeed(42, 3), SplitSeed(42, 3))
	assert.NotEqual(t, SplitSeed(42, 3), SplitSeed(42, 4))
	assert.NotEqual(t, SplitSeed(42, 0), uint64(42))

	g := NewGenerator(42)
	before := NewGenerator(42).Uint64()
	c1, c2 := g.Split(0), g.Split(0)
	assert.Equal(t, c1.Uint64(), c2.Uint64())
	assert.Equal(t, before, g.Uint64(), "Split must not advance the parent")
}

func BenchmarkUnitVector(b *testing.B) {
	g := NewGenerator(1)
	for i := 0; i < b.N; i++ {
		g.UnitVector()
	}
}
