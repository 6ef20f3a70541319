/*package rand provides the seeded random stream used by a single simulation
run.

A Generator is the only source of randomness for a run and is never shared.
The draw sequence for a given seed is fixed: it is defined by the PCG source in
golang.org/x/exp/rand plus the conversions in this file, and nothing here reads
a clock or a global generator.

When work is split across goroutines, each piece gets its own child
generator from Split (or a seed from SplitSeed). Children are derived from the
parent seed and a piece index only, so the result does not depend on which
goroutine runs first.
*/
package rand

import (
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// Generator is a deterministic PCG stream. Generators should not be shared
// between goroutines.
type Generator struct {
	seed uint64
	src  xrand.PCGSource
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	g := &Generator{}
	g.Init(seed)
	return g
}

// Init (re)seeds the Generator.
func (g *Generator) Init(seed uint64) {
	g.seed = seed
	g.src.Seed(seed)
}

// Seed returns the seed the Generator was created with.
func (g *Generator) Seed() uint64 { return g.seed }

// Uint64 returns the next 64 raw bits of the stream.
func (g *Generator) Uint64() uint64 { return g.src.Uint64() }

// Float64 returns a uniform value in [0, 1) built from the top 53 bits of one
// Uint64 draw.
func (g *Generator) Float64() float64 {
	return float64(g.src.Uint64()>>11) * (1.0 / (1 << 53))
}

// Uniform returns a uniform value in [lo, hi).
func (g *Generator) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.Float64()
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("rand: Intn called with n <= 0")
	}
	un := uint64(n)
	// Reject the top sliver of the range so that every residue is equally
	// likely.
	limit := math.MaxUint64 - math.MaxUint64%un
	for {
		x := g.src.Uint64()
		if x < limit {
			return int(x % un)
		}
	}
}

// UnitVector returns a point drawn uniformly from the unit sphere. It uses
// two Float64 draws: z = 1 - 2u, then phi = 2 pi v.
func (g *Generator) UnitVector() r3.Vec {
	z := 1 - 2*g.Float64()
	phi := 2 * math.Pi * g.Float64()
	s := math.Sqrt(math.Max(0, 1-z*z))
	sin, cos := math.Sincos(phi)
	return r3.Vec{X: s * cos, Y: s * sin, Z: z}
}

// InDisk returns a point drawn uniformly from the unit disk as (x, y).
func (g *Generator) InDisk() (x, y float64) {
	r := math.Sqrt(g.Float64())
	sin, cos := math.Sincos(2 * math.Pi * g.Float64())
	return r * cos, r * sin
}

// Split returns a child Generator for the sub-stream with the given index.
// The parent's state is not advanced.
func (g *Generator) Split(index uint64) *Generator {
	return NewGenerator(SplitSeed(g.seed, index))
}

// SplitSeed is the splitting function used for sub-streams:
//
//	splitmix64(seed ^ splitmix64(index + 1))
//
// The same (seed, index) pair always gives the same child seed.
func SplitSeed(seed, index uint64) uint64 {
	return splitmix64(seed ^ splitmix64(index+1))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
