package aggregate

import (
	"fmt"
	"math"
	"strings"

	"github.com/aglogen/aglogen/errs"
)

// Kind selects an aggregation algorithm.
type Kind int

const (
	DLA Kind = iota
	CCA
	Ballistic
)

// Version is reported by every engine in this package.
const Version = "1.0.0"

// MaxParticles bounds NParticles. Larger requests fail with
// errs.ResourceExhaustion before anything is allocated.
const MaxParticles = 1 << 22

// ContactTolerance is the relative slack eps / rp used when checking contact
// and overlap, where rp is the smallest primary radius of a run.
const ContactTolerance = 1e-9

var kindNames = []string{"dla", "cca", "ballistic"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts an algorithm name ("dla", "cca", or "ballistic", case
// insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, errs.Invalid("aggregate", "unrecognized algorithm '%s'", s)
}

// Params are the inputs shared by every algorithm.
type Params struct {
	Algorithm  Kind
	NParticles int
	// StickingProbability is the chance that a contact becomes a bond. It is
	// drawn once per contact event.
	StickingProbability float64
	// DomainBound limits the simulation volume. For DLA and Ballistic it is
	// the radius of the largest allowed launch sphere. For CCA it is the side
	// length of the cube the clusters start in.
	DomainBound float64
	Seed        uint64
}

// Validate checks that p is usable. It returns an error of kind
// errs.InvalidParameters, or errs.ResourceExhaustion if NParticles is over
// MaxParticles.
func (p *Params) Validate() error {
	op := p.Algorithm.String()
	switch {
	case p.Algorithm < DLA || p.Algorithm > Ballistic:
		return errs.Invalid("aggregate", "unknown algorithm %d", int(p.Algorithm))
	case p.NParticles <= 0:
		return errs.Invalid(op, "NParticles must be positive, got %d", p.NParticles)
	case p.NParticles > MaxParticles:
		return errs.New(errs.ResourceExhaustion, op,
			"NParticles = %d is over the limit of %d", p.NParticles, MaxParticles)
	case math.IsNaN(p.StickingProbability) ||
		p.StickingProbability < 0 || p.StickingProbability > 1:
		return errs.Invalid(op, "StickingProbability must be in [0, 1], got %g",
			p.StickingProbability)
	case !(p.DomainBound > 0) || math.IsInf(p.DomainBound, 0):
		return errs.Invalid(op, "DomainBound must be positive and finite, got %g",
			p.DomainBound)
	}
	return nil
}
