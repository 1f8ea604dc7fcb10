package sat

import "fmt"

// Literal represents a literal, that is, a boolean variable or its negation.
// It is encoded as the signed ID of its variable: Literal(3) is variable 3
// and Literal(-3) its negation. The zero value is reserved to mean "no
// literal".
type Literal int

// VarID returns the ID of the literal's variable.
func (l Literal) VarID() int {
	if l < 0 {
		return int(-l)
	}
	return int(l)
}

// IsPositive returns true if and only if the literal represents the value of
// its boolean variable (i.e. not its negation).
func (l Literal) IsPositive() bool {
	return l > 0
}

// Opposite returns the opposite literal.
func (l Literal) Opposite() Literal {
	return -l
}

func (l Literal) String() string {
	if l.IsPositive() {
		return fmt.Sprintf("%d", int(l))
	}
	return fmt.Sprintf("!%d", l.VarID())
}

// watchIdx returns the index of the watch list that holds the clauses
// watching l on its variable: 0 for the positive literal, 1 for the negative
// one.
func watchIdx(l Literal) int {
	if l < 0 {
		return 1
	}
	return 0
}
