package sat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSolver returns a solver with nVars variables and the given clauses
// already added.
func newTestSolver(t *testing.T, nVars int, clauses ...[]Literal) *Solver {
	t.Helper()
	s := NewDefaultSolver()
	for i := 0; i < nVars; i++ {
		s.AddVariable()
	}
	for _, c := range clauses {
		require.NoError(t, s.AddClause(c))
	}
	return s
}

// checkInvariants verifies the solver's structural invariants: watch lists
// hold each long clause exactly twice (on the lists of its first two slots),
// the trail matches the assignment flags with nondecreasing levels, marks
// are retired, and reasons carry the literal they assigned in slot 0.
func checkInvariants(t *testing.T, s *Solver) {
	t.Helper()

	watchCount := map[*Clause]int{}
	for x := 1; x < len(s.vars); x++ {
		for i := 0; i < 2; i++ {
			lit := Literal(x)
			if i == 1 {
				lit = -lit
			}
			for _, c := range s.vars[x].watches[i] {
				watchCount[c]++
				if c.literals[0] != lit && c.literals[1] != lit {
					t.Errorf("clause %s on the watch list of %s but not watching it", c, lit)
				}
			}
		}
		if s.vars[x].mark {
			t.Errorf("variable %d still marked outside conflict analysis", x)
		}
	}
	for _, c := range s.constraints {
		if watchCount[c] != 2 {
			t.Errorf("clause %s in %d watch lists, want 2", c, watchCount[c])
		}
	}
	for _, c := range s.learnts {
		if len(c.literals) < 2 {
			continue // unit learned clauses are not watched
		}
		if watchCount[c] != 2 {
			t.Errorf("learnt %s in %d watch lists, want 2", c, watchCount[c])
		}
	}

	// At quiescence no clause may have both watched literals false.
	for _, c := range append(append([]*Clause{}, s.constraints...), s.learnts...) {
		if len(c.literals) < 2 {
			continue
		}
		if s.LitValue(c.literals[0]) == False && s.LitValue(c.literals[1]) == False {
			t.Errorf("clause %s has both watched literals false", c)
		}
	}

	onTrail := map[int]bool{}
	prevLevel := 0
	for _, l := range s.trail {
		x := l.VarID()
		if onTrail[x] {
			t.Errorf("variable %d appears twice on the trail", x)
		}
		onTrail[x] = true

		v := &s.vars[x]
		if !v.assigned {
			t.Errorf("trail literal %s is not assigned", l)
		}
		if v.sign != (l < 0) {
			t.Errorf("trail literal %s disagrees with the assigned sign", l)
		}
		if v.level < prevLevel {
			t.Errorf("trail levels decrease at literal %s", l)
		}
		prevLevel = v.level

		if v.reason != nil && v.reason.literals[0] != l {
			t.Errorf("reason of %s does not hold it in slot 0: %s", l, v.reason)
		}
	}
	for x := 1; x < len(s.vars); x++ {
		if s.vars[x].assigned && !onTrail[x] {
			t.Errorf("variable %d assigned but absent from the trail", x)
		}
	}
}

func TestAddClause_Empty(t *testing.T) {
	s := newTestSolver(t, 2)
	require.NoError(t, s.AddClause(nil))

	assert.Equal(t, False, s.Solve())
}

func TestAddClause_ConflictingUnits(t *testing.T) {
	s := newTestSolver(t, 1, []Literal{1}, []Literal{-1})

	assert.Equal(t, False, s.Solve())
}

func TestAddClause_RepeatedUnit(t *testing.T) {
	s := newTestSolver(t, 2, []Literal{1}, []Literal{1}, []Literal{-1, 2})

	require.Equal(t, True, s.Solve())
	assert.True(t, s.Model()[1])
	assert.True(t, s.Model()[2])
}

func TestAddClause_Errors(t *testing.T) {
	s := newTestSolver(t, 2)

	assert.Error(t, s.AddClause([]Literal{1, 0}), "zero literal")
	assert.Error(t, s.AddClause([]Literal{1, 3}), "undeclared variable")
	assert.Error(t, s.AddClause([]Literal{1, -3}), "undeclared variable")

	s.Solve()
	assert.Error(t, s.AddClause([]Literal{1, 2}), "clauses are frozen after Solve")
}

func TestAddClause_ToleratesDuplicatesAndTautologies(t *testing.T) {
	s := newTestSolver(t, 2,
		[]Literal{1, 1, 2},
		[]Literal{1, -1},
		[]Literal{-2, -2},
	)

	require.Equal(t, True, s.Solve())
	checkInvariants(t, s)
	assert.False(t, s.Model()[2])
}

func TestPropagate_UnitChain(t *testing.T) {
	s := newTestSolver(t, 3,
		[]Literal{-1, 2},
		[]Literal{-2, 3},
	)

	s.dlevel = 1
	require.True(t, s.propagate(1, nil))

	assert.Equal(t, []Literal{1, 2, 3}, s.trail)
	assert.Equal(t, True, s.LitValue(2))
	assert.Equal(t, True, s.LitValue(3))
	checkInvariants(t, s)
}

func TestPropagate_MovesWatchToUnassignedLiteral(t *testing.T) {
	c := []Literal{-1, -2, 3}
	s := newTestSolver(t, 3, c)

	s.dlevel = 1
	require.True(t, s.propagate(1, nil))

	// The clause is not unit yet: the watch on -1 must have moved to 3,
	// leaving -2 and 3 watched.
	assert.Equal(t, []Literal{1}, s.trail)
	assert.Empty(t, s.vars[1].watches[1])
	assert.Len(t, s.vars[3].watches[0], 1)
	checkInvariants(t, s)
}

func TestPropagate_SatisfiedClauseStaysPut(t *testing.T) {
	s := newTestSolver(t, 2, []Literal{2, -1})

	s.dlevel = 1
	require.True(t, s.propagate(2, nil))
	require.True(t, s.propagate(1, nil))

	// The clause is satisfied by 2; the watch on -1 must not move.
	assert.Len(t, s.vars[1].watches[1], 1)
	checkInvariants(t, s)
}

// A conflict below a single decision must learn the opposite unit fact and
// restart propagation at the top level.
func TestAnalyze_LearnsUnitFact(t *testing.T) {
	s := newTestSolver(t, 4,
		[]Literal{-1, 2},
		[]Literal{-1, 3},
		[]Literal{-2, -3, 4},
		[]Literal{-4, -3},
	)

	s.dlevel = 1
	require.True(t, s.propagate(1, nil))

	require.Len(t, s.learnts, 1)
	assert.Equal(t, []Literal{-1}, s.learnts[0].literals)
	assert.Equal(t, 0, s.dlevel)
	assert.Equal(t, []Literal{-1}, s.trail)
	checkInvariants(t, s)
}

// A conflict at level 2 involving a level 1 literal must backjump to level 1
// with the level 1 literal in slot 1 of the learned clause.
func TestAnalyze_BackjumpsToSecondHighestLevel(t *testing.T) {
	s := newTestSolver(t, 3,
		[]Literal{-1, -2, 3},
		[]Literal{-2, -3, -1},
	)

	s.dlevel = 1
	require.True(t, s.propagate(1, nil))
	s.dlevel = 2
	require.True(t, s.propagate(2, nil))

	require.Len(t, s.learnts, 1)
	assert.Equal(t, []Literal{-2, -1}, s.learnts[0].literals)
	assert.Equal(t, 1, s.dlevel)
	assert.Equal(t, []Literal{1, -2}, s.trail)
	assert.Equal(t, s.learnts[0], s.vars[2].reason)
	checkInvariants(t, s)
}

// A conflict literal whose reason is entirely covered by the conflict is
// dropped from the learned clause.
func TestAnalyze_MinimizesLearnedClause(t *testing.T) {
	s := newTestSolver(t, 5,
		[]Literal{-1, 2},
		[]Literal{-3, 4},
		[]Literal{-4, -2, 5},
		[]Literal{-5, -4, -1},
	)

	s.dlevel = 1
	require.True(t, s.propagate(1, nil))
	s.dlevel = 2
	require.True(t, s.propagate(3, nil))

	// The raw first-UIP clause is (-4 -1 -2); -2 is redundant because its
	// reason (-1) is already in the conflict.
	require.Len(t, s.learnts, 1)
	assert.Equal(t, []Literal{-4, -1}, s.learnts[0].literals)
	assert.Equal(t, 1, s.dlevel)
	checkInvariants(t, s)
}

func TestSolve_SAT(t *testing.T) {
	s := newTestSolver(t, 3,
		[]Literal{1, 2, 3},
		[]Literal{-1, -2},
		[]Literal{-1, -3},
		[]Literal{-2, -3},
	)

	require.Equal(t, True, s.Solve())

	model := s.Model()
	require.NotNil(t, model)
	nTrue := 0
	for x := 1; x <= 3; x++ {
		if model[x] {
			nTrue++
		}
	}
	assert.Equal(t, 1, nTrue, "exactly one variable must be true")
	checkInvariants(t, s)
}

func TestSolve_UNSAT(t *testing.T) {
	s := newTestSolver(t, 4,
		[]Literal{1, 2},
		[]Literal{-1, 3},
		[]Literal{-2, 3},
		[]Literal{-3, 4},
		[]Literal{-3, -4},
	)

	assert.Equal(t, False, s.Solve())
	assert.Nil(t, s.Model())
}

func TestSolve_NoVariables(t *testing.T) {
	s := newTestSolver(t, 0)
	assert.Equal(t, True, s.Solve())
}

func TestSolve_NoClauses(t *testing.T) {
	s := newTestSolver(t, 2)
	require.Equal(t, True, s.Solve())
	assert.Len(t, s.Model(), 3)
}

// Re-adding the clauses learned during a solve must not change the result.
func TestSolve_LearnedClausesAreImplied(t *testing.T) {
	clauses := [][]Literal{
		{1, 2},
		{-1, 3},
		{-2, 3},
		{-3, 4},
		{-3, -4},
	}

	s := newTestSolver(t, 4, clauses...)
	require.Equal(t, False, s.Solve())

	augmented := newTestSolver(t, 4, clauses...)
	for _, c := range s.learnts {
		require.NoError(t, augmented.AddClause(c.literals))
	}
	assert.Equal(t, False, augmented.Solve())
}

func TestSolve_MaxConflicts(t *testing.T) {
	ops := DefaultOptions
	ops.MaxConflicts = 0
	s := NewSolver(ops)
	for i := 0; i < 4; i++ {
		s.AddVariable()
	}
	require.NoError(t, s.AddClause([]Literal{1, 2}))
	require.NoError(t, s.AddClause([]Literal{-1, 2}))

	assert.Equal(t, Unknown, s.Solve())
}

func TestSolve_Timeout(t *testing.T) {
	ops := DefaultOptions
	ops.Timeout = 0
	s := NewSolver(ops)
	for i := 0; i < 2; i++ {
		s.AddVariable()
	}
	require.NoError(t, s.AddClause([]Literal{1, 2}))

	assert.Equal(t, Unknown, s.Solve())
}

func TestSolve_ActivityOrder(t *testing.T) {
	ops := DefaultOptions
	ops.ActivityOrder = true

	s := NewSolver(ops)
	for i := 0; i < 4; i++ {
		s.AddVariable()
	}
	for _, c := range [][]Literal{
		{1, 2},
		{-1, 3},
		{-2, 3},
		{-3, 4},
		{-3, -4},
	} {
		require.NoError(t, s.AddClause(c))
	}
	assert.Equal(t, False, s.Solve())

	s = NewSolver(ops)
	for i := 0; i < 3; i++ {
		s.AddVariable()
	}
	for _, c := range [][]Literal{
		{1, 2, 3},
		{-1, -2},
		{-1, -3},
		{-2, -3},
	} {
		require.NoError(t, s.AddClause(c))
	}
	require.Equal(t, True, s.Solve())
	checkInvariants(t, s)
}

func TestSolve_SameSeedSameSearch(t *testing.T) {
	clauses := [][]Literal{
		{1, 2, 3},
		{-1, -2, 4},
		{-3, -4},
		{2, -4, 1},
	}

	run := func() (LBool, []bool, int64) {
		s := NewSolver(Options{Seed: 7, MaxConflicts: -1, Timeout: -1})
		for i := 0; i < 4; i++ {
			s.AddVariable()
		}
		for _, c := range clauses {
			require.NoError(t, s.AddClause(c))
		}
		return s.Solve(), s.Model(), s.TotalDecisions
	}

	status1, model1, decisions1 := run()
	status2, model2, decisions2 := run()

	assert.Equal(t, status1, status2)
	assert.Equal(t, model1, model2)
	assert.Equal(t, decisions1, decisions2)
}
