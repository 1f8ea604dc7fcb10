package sat

import (
	"math/rand"

	"github.com/rhartert/yagh"
)

// decisionOrder selects the next decision literal. Implementations are
// notified of every unassignment (Undo) so that they can restore candidates
// after a backjump, and of every variable visited during conflict analysis
// (Bump).
type decisionOrder interface {
	Bump(varID int)
	Decay()
	Undo(varID int)

	// Select returns the next decision literal, or 0 if every variable is
	// assigned.
	Select(s *Solver) Literal
}

// randOrder starts from a uniformly random variable, takes the first
// unassigned one found scanning forward with wraparound, and gives it a
// uniformly random polarity. This is the solver's default order.
type randOrder struct {
	rng *rand.Rand
}

func (o *randOrder) Bump(varID int) {}
func (o *randOrder) Decay()         {}
func (o *randOrder) Undo(varID int) {}

func (o *randOrder) Select(s *Solver) Literal {
	n := s.NumVariables()
	if n == 0 {
		return 0
	}

	// Start from a random variable and scan with wraparound for the first
	// unassigned one.
	x := 0
	start := o.rng.Intn(n) + 1
	for i := 0; i < n; i++ {
		cand := start + i
		if cand > n {
			cand -= n
		}
		if !s.vars[cand].assigned {
			x = cand
			break
		}
	}
	if x == 0 {
		return 0
	}

	if o.rng.Intn(2) == 1 {
		return Literal(-x)
	}
	return Literal(x)
}

// activityOrder ranks variables by a conflict-driven activity score kept in
// an int-keyed heap, in the style of VSIDS. Polarities are still chosen at
// random: there is no phase saving.
type activityOrder struct {
	rng        *rand.Rand
	activities []float64
	varInc     float64
	varDecay   float64
	heap       *yagh.IntMap[float64]
}

func newActivityOrder(s *Solver) *activityOrder {
	o := &activityOrder{
		rng:        s.rng,
		activities: make([]float64, len(s.vars)),
		varInc:     1,
		varDecay:   0.95,
		heap:       yagh.New[float64](len(s.vars)),
	}
	for x := 1; x < len(s.vars); x++ {
		o.heap.Put(x, 0)
	}
	return o
}

func (o *activityOrder) Bump(varID int) {
	o.activities[varID] += o.varInc

	if o.activities[varID] > 1e100 {
		o.varInc *= 1e-100 // important to keep proportions
		for i := range o.activities {
			o.activities[i] *= 1e-100
		}
	}

	if o.heap.Contains(varID) {
		o.heap.Put(varID, -o.activities[varID])
	}
}

func (o *activityOrder) Decay() {
	o.varInc *= o.varDecay
}

func (o *activityOrder) Undo(varID int) {
	o.heap.Put(varID, -o.activities[varID])
}

func (o *activityOrder) Select(s *Solver) Literal {
	for {
		next, ok := o.heap.Pop()
		if !ok {
			return 0
		}
		if s.vars[next.Elem].assigned {
			continue
		}

		if o.rng.Intn(2) == 1 {
			return Literal(-next.Elem)
		}
		return Literal(next.Elem)
	}
}
