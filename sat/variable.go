package sat

// variable groups the solver's per-variable state. Variables are identified
// by positive integers matching the literal encoding; slot 0 of the solver's
// variable store is unused.
type variable struct {
	// Current assignment. The sign field is only meaningful while assigned
	// is true and mirrors the polarity of the trail literal: a true sign
	// means the negative literal holds.
	assigned bool
	sign     bool

	// Level and reason of the current assignment. The reason is nil for
	// decisions and initial unit facts.
	level  int
	reason *Clause

	// Scratch flag owned by conflict analysis. Must be false outside it.
	mark bool

	// Record of a length-1 input clause over this variable. Unit facts are
	// not pushed on the trail at add time; they are settled by the initial
	// propagation pass of Solve.
	unit     bool
	unitSign bool

	// Clauses watching the positive (index 0) and negative (index 1)
	// literal of this variable.
	watches [2][]*Clause
}
