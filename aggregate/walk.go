package aggregate

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aglogen/aglogen/rand"
)

// Stats counts what happened during a run.
type Stats struct {
	// Launches is the number of walks or flights started.
	Launches int
	// Contacts is the number of contact events, each of which drew the
	// sticking probability once.
	Contacts int
	// Rejections is the number of contacts which did not stick.
	Rejections int
	// Failures is the number of launches which used up their step or bounce
	// budget.
	Failures int
}

type outcome int

const (
	stuck outcome = iota
	escaped
	exhausted
)

// walker runs the off-lattice random walk shared by DLA and CCA.
type walker struct {
	cfg      *WalkConfig
	gen      *rand.Generator
	sticking float64
	stats    *Stats
}

// stick draws the sticking probability for one contact.
func (w *walker) stick() bool {
	w.stats.Contacts++
	if w.sticking >= 1 || w.gen.Float64() < w.sticking {
		return true
	}
	w.stats.Rejections++
	return false
}

// walk moves b from start, in tgt's frame, until it sticks, leaves the sphere
// of radius kill, or runs out of steps. It returns the final reference
// position.
//
// Far from tgt the walker jumps straight to the edge of the region it can
// reach without touching anything. Near tgt each step is swept exactly, so
// the body stops at first contact and never overlaps. A rejected contact
// leaves the body resting where it touched.
func (w *walker) walk(tgt *cluster, b *body, start r3.Vec, kill float64) (r3.Vec, outcome) {
	pos := start
	for step := 0; step < w.cfg.MaxWalkSteps; step++ {
		gap := r3.Norm(pos) - tgt.extent - b.radius

		if gap > w.cfg.JumpThreshold*b.step {
			pos = r3.Add(pos, r3.Scale(gap, w.gen.UnitVector()))
		} else {
			d := r3.Scale(b.step, w.direction(pos))
			if t, ok := tgt.sweepBody(pos, d, b); ok {
				pos = r3.Add(pos, r3.Scale(t, d))
				if w.stick() {
					return pos, stuck
				}
				continue
			}
			pos = r3.Add(pos, d)
		}

		if r3.Norm(pos) > kill {
			return pos, escaped
		}
	}
	return pos, exhausted
}

// direction returns a unit step direction, pulled toward the frame origin by
// Drift.
func (w *walker) direction(pos r3.Vec) r3.Vec {
	u := w.gen.UnitVector()
	if w.cfg.Drift == 0 {
		return u
	}
	n := r3.Norm(pos)
	if n == 0 {
		return u
	}
	biased := r3.Sub(u, r3.Scale(w.cfg.Drift/n, pos))
	if r3.Norm(biased) == 0 {
		return u
	}
	return r3.Unit(biased)
}
