package fractal

import (
	"fmt"
	"math"
	"strings"

	"github.com/aglogen/aglogen/errs"
)

// Method selects a fractal analysis.
type Method int

const (
	BoxCounting Method = iota
	Sandbox
	Correlation
	Lacunarity
	Multifractal
)

var methodNames = []string{
	"box_counting", "sandbox", "correlation", "lacunarity", "multifractal",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod converts a method name to a Method. Names are case
// insensitive, and "-" or " " may be used in place of "_".
func ParseMethod(s string) (Method, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(s))
	for i, name := range methodNames {
		if norm == name {
			return Method(i), nil
		}
	}
	return 0, errs.Invalid("fractal", "unrecognized method '%s'", s)
}

// DefaultQ is the moment range used by Multifractal when Params.Q is empty.
var DefaultQ = []float64{-5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5}

// Params controls the scales an analysis covers. Box sizes, radii, and
// distances are all in pixels.
type Params struct {
	MinSize, MaxSize, NScales int
	// Seeds is the number of sandbox centers.
	Seeds int
	// MaxPoints bounds the number of pixels used by Correlation.
	MaxPoints int
	// Q is the list of moments for Multifractal.
	Q []float64
	// Workers limits the number of goroutines used per analysis. Zero means
	// no limit.
	Workers int
}

// DefaultParams returns the parameters used when none are given.
func DefaultParams() Params {
	return Params{
		MinSize: 2, MaxSize: 512, NScales: 20,
		Seeds: 50, MaxPoints: 2000,
		Q: DefaultQ,
	}
}

func (p *Params) check() error {
	switch {
	case p.MinSize < 1:
		return errs.Invalid("fractal", "MinSize must be at least 1, got %d", p.MinSize)
	case p.MinSize > p.MaxSize:
		return errs.Invalid("fractal", "MinSize = %d is larger than MaxSize = %d",
			p.MinSize, p.MaxSize)
	case p.NScales < 2:
		return errs.Invalid("fractal", "NScales must be at least 2, got %d", p.NScales)
	case p.Workers < 0:
		return errs.Invalid("fractal", "Workers must be non-negative, got %d", p.Workers)
	}
	return nil
}

// Scales returns the integer sizes an analysis of m uses: NScales values
// spaced evenly in log from MinSize to min(MaxSize, Width, Height), rounded,
// with duplicates removed, in ascending order.
func (p *Params) Scales(m *Mask) []int {
	hi := min(p.MaxSize, m.Width, m.Height)
	if hi < p.MinSize {
		return nil
	}
	logLo, logHi := math.Log(float64(p.MinSize)), math.Log(float64(hi))

	var out []int
	for i := 0; i < p.NScales; i++ {
		f := float64(i) / float64(p.NScales-1)
		s := int(math.Round(math.Exp(logLo + (logHi-logLo)*f)))
		s = min(max(s, p.MinSize), hi)
		if len(out) == 0 || s > out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
