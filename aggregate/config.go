package aggregate

import (
	"github.com/aglogen/aglogen/errs"
)

// RadiusRange is the range primary particle radii are drawn from. If Min and
// Max are equal every particle has that radius and no random draw is made.
type RadiusRange struct {
	Min, Max float64
}

func (rr RadiusRange) check(op string) error {
	if !(rr.Min > 0) || !(rr.Max >= rr.Min) {
		return errs.Invalid(op, "radius range [%g, %g] is not a positive interval",
			rr.Min, rr.Max)
	}
	return nil
}

// WalkConfig controls the random walks used by DLA and CCA.
type WalkConfig struct {
	// StepFactor is the length of a near-field step in units of the walker's
	// smallest particle radius.
	StepFactor float64
	// LaunchMargin is the gap, in units of the largest radius, between the
	// bounding sphere of the target and the launch sphere.
	LaunchMargin float64
	// KillFactor is the ratio of the kill radius to the launch radius.
	KillFactor float64
	// JumpThreshold is the gap, in step lengths, beyond which the walker
	// takes one large jump to the edge of the target's bounding sphere
	// instead of many small steps.
	JumpThreshold float64
	// Drift biases near-field steps toward the target. 0 is an unbiased
	// walk. Must be in [0, 1).
	Drift float64
	// MaxWalkSteps is the step budget for one launch.
	MaxWalkSteps int
}

func (wc *WalkConfig) check(op string) error {
	switch {
	case !(wc.StepFactor > 0):
		return errs.Invalid(op, "StepFactor must be positive, got %g", wc.StepFactor)
	case !(wc.LaunchMargin >= 1):
		return errs.Invalid(op, "LaunchMargin must be at least 1, got %g",
			wc.LaunchMargin)
	case !(wc.KillFactor >= 1):
		return errs.Invalid(op, "KillFactor must be at least 1, got %g", wc.KillFactor)
	case !(wc.JumpThreshold >= 0):
		return errs.Invalid(op, "JumpThreshold must be non-negative, got %g",
			wc.JumpThreshold)
	case !(wc.Drift >= 0 && wc.Drift < 1):
		return errs.Invalid(op, "Drift must be in [0, 1), got %g", wc.Drift)
	case wc.MaxWalkSteps <= 0:
		return errs.Invalid(op, "MaxWalkSteps must be positive, got %d",
			wc.MaxWalkSteps)
	}
	return nil
}

// Budget holds the limits which turn a stuck run into errs.NonConvergent.
type Budget struct {
	// MaxLaunches is the number of launches allowed for a single particle
	// (DLA, Ballistic) or a single merge (CCA).
	MaxLaunches int
	// MaxFailures is the number of failed launches allowed over a whole run.
	MaxFailures int
}

func (b *Budget) check(op string) error {
	if b.MaxLaunches <= 0 || b.MaxFailures < 0 {
		return errs.Invalid(op, "budget of %d launches and %d failures is not usable",
			b.MaxLaunches, b.MaxFailures)
	}
	return nil
}

// DLAConfig configures particle-cluster diffusion-limited aggregation.
type DLAConfig struct {
	Radius RadiusRange
	Walk   WalkConfig
	Budget Budget
}

// BallisticConfig configures ballistic particle-cluster aggregation.
type BallisticConfig struct {
	Radius       RadiusRange
	LaunchMargin float64
	// MaxBounces is the number of rejected contacts allowed in one flight
	// before it counts as a failure.
	MaxBounces int
	Budget     Budget
}

// CCAConfig configures cluster-cluster aggregation.
type CCAConfig struct {
	Radius RadiusRange
	Walk   WalkConfig
	Budget Budget
	// MaxPlacementTries is the number of rejection-sampling attempts for
	// placing each initial particle.
	MaxPlacementTries int
	// MaxPackingFraction is the largest allowed ratio of particle volume to
	// domain volume.
	MaxPackingFraction float64
}

func defaultWalk() WalkConfig {
	return WalkConfig{
		StepFactor:    0.5,
		LaunchMargin:  5,
		KillFactor:    3,
		JumpThreshold: 4,
		MaxWalkSteps:  1000000,
	}
}

func defaultBudget() Budget {
	return Budget{MaxLaunches: 10000, MaxFailures: 1000}
}

// DefaultDLAConfig returns the configuration used when none is given:
// unit monodisperse spheres and a half-radius step.
func DefaultDLAConfig() DLAConfig {
	return DLAConfig{
		Radius: RadiusRange{1, 1},
		Walk:   defaultWalk(),
		Budget: defaultBudget(),
	}
}

// DefaultBallisticConfig returns the configuration used when none is given:
// unit monodisperse spheres with up to 1000 bounces per flight.
func DefaultBallisticConfig() BallisticConfig {
	return BallisticConfig{
		Radius:       RadiusRange{1, 1},
		LaunchMargin: 5,
		MaxBounces:   1000,
		Budget:       defaultBudget(),
	}
}

// DefaultCCAConfig returns the configuration used when none is given. It
// shares the DLA walk and rejects domains more than 30% full.
func DefaultCCAConfig() CCAConfig {
	return CCAConfig{
		Radius:             RadiusRange{1, 1},
		Walk:               defaultWalk(),
		Budget:             defaultBudget(),
		MaxPlacementTries:  1000,
		MaxPackingFraction: 0.3,
	}
}

// sweepCell returns an index cell size for which a swept step of at most
// maxStep, between spheres no larger than rMax, visits only the 27 cells
// around it.
func sweepCell(rMax, maxStep, eps float64) float64 {
	return 2*rMax + maxStep/2 + eps
}

func (c *DLAConfig) cellSize() float64 {
	return sweepCell(c.Radius.Max, c.Walk.StepFactor*c.Radius.Max,
		ContactTolerance*c.Radius.Min)
}

// cellSize leaves room for rayCast chunks at least two radii long.
func (c *BallisticConfig) cellSize() float64 {
	return 3*c.Radius.Max + ContactTolerance*c.Radius.Min
}

func (c *CCAConfig) cellSize() float64 {
	return sweepCell(c.Radius.Max, c.Walk.StepFactor*c.Radius.Min,
		ContactTolerance*c.Radius.Min)
}

func (c *DLAConfig) check() error {
	if err := c.Radius.check("dla"); err != nil {
		return err
	} else if err := c.Walk.check("dla"); err != nil {
		return err
	}
	return c.Budget.check("dla")
}

func (c *BallisticConfig) check() error {
	switch {
	case !(c.LaunchMargin >= 1):
		return errs.Invalid("ballistic", "LaunchMargin must be at least 1, got %g",
			c.LaunchMargin)
	case c.MaxBounces < 0:
		return errs.Invalid("ballistic", "MaxBounces must be non-negative, got %d",
			c.MaxBounces)
	}
	if err := c.Radius.check("ballistic"); err != nil {
		return err
	}
	return c.Budget.check("ballistic")
}

func (c *CCAConfig) check() error {
	if err := c.Radius.check("cca"); err != nil {
		return err
	} else if err := c.Walk.check("cca"); err != nil {
		return err
	} else if err := c.Budget.check("cca"); err != nil {
		return err
	}
	if c.MaxPlacementTries <= 0 {
		return errs.Invalid("cca", "MaxPlacementTries must be positive, got %d",
			c.MaxPlacementTries)
	} else if !(c.MaxPackingFraction > 0 && c.MaxPackingFraction < 1) {
		return errs.Invalid("cca", "MaxPackingFraction must be in (0, 1), got %g",
			c.MaxPackingFraction)
	}
	return nil
}
