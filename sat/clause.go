package sat

import "strings"

// Clause is a disjunction of literals. The literals in slots 0 and 1 are the
// watched pair. Propagation permutes slots freely but never changes which
// literals the clause contains. Empty and unit input clauses are absorbed by
// AddClause and never reach this type; a learned clause may hold a single
// literal, in which case it is not watched and only serves as a reason.
type Clause struct {
	learnt bool

	// The clause's literals. Input clauses contain at least two literals;
	// learned clauses contain at least one.
	literals []Literal
}

func newClause(literals []Literal, learnt bool) *Clause {
	c := &Clause{learnt: learnt}
	c.literals = append(make([]Literal, 0, len(literals)), literals...)
	return c
}

// Len returns the number of literals in the clause.
func (c *Clause) Len() int {
	return len(c.literals)
}

// watchOutcome describes what propagate did with a clause whose watched
// literal just became false.
type watchOutcome int8

const (
	// The clause stays in the current watch list: it is satisfied, still
	// has a non-false watch, or just implied its other watched literal.
	watchKept watchOutcome = iota

	// The watch moved to another literal; the caller must remove the
	// clause from the current list.
	watchMoved

	// Every literal of the clause is false.
	watchConflict
)

// propagate updates the clause after its watched literal fl became false.
// If the other watched literal is satisfied the clause needs no work. If a
// non-false replacement exists in the unordered tail, it is swapped into the
// watched slot and the clause migrates to the replacement's watch list.
// Otherwise the clause is unit or conflicting.
func (c *Clause) propagate(s *Solver, fl Literal) watchOutcome {
	// Slot k holds the literal that just became false.
	k := 0
	if c.literals[1] == fl {
		k = 1
	}
	other := c.literals[1-k]

	if s.LitValue(other) == True {
		return watchKept
	}

	for j := 2; j < len(c.literals); j++ {
		if s.LitValue(c.literals[j]) != False {
			c.literals[k], c.literals[j] = c.literals[j], c.literals[k]
			s.watch(c, c.literals[k])
			return watchMoved
		}
	}

	if s.LitValue(other) == Unknown {
		// Unit clause. The implied literal moves to slot 0 so that a
		// reason's first slot is always the literal it assigned; conflict
		// analysis relies on this when expanding reasons.
		if k == 0 {
			c.literals[0], c.literals[1] = c.literals[1], c.literals[0]
		}
		s.assign(other, c)
		return watchKept
	}

	return watchConflict
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	sb.WriteString(c.literals[0].String())
	for _, l := range c.literals[1:] {
		sb.WriteByte(' ')
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
