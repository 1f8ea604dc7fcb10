package sat

import (
	"fmt"
	"math/rand"
	"time"
)

// Solver is a conflict-driven clause-learning SAT solver. Build one with
// NewSolver, declare variables with AddVariable, load clauses with AddClause,
// then call Solve. The one-shot Solve function at package level covers the
// common case.
type Solver struct {
	// Variable store. Index 0 is unused so that variable IDs line up with
	// the signed-literal encoding.
	vars []variable

	// Clause database. Clauses are referenced from watch lists and reason
	// fields; the solver never iterates the database itself.
	constraints []*Clause
	learnts     []*Clause

	// Trail of assigned literals in assignment order, and the current
	// decision level. Levels may have gaps after a backjump; only their
	// order matters.
	trail  []Literal
	dlevel int

	// Whether the problem has reached a top level conflict.
	unsat bool

	// Decision ordering.
	order         decisionOrder
	activityOrder bool
	rng           *rand.Rand

	// True once Solve has been called; the clause set is frozen from then
	// on.
	started bool

	// Model of the last successful solve, indexed by variable ID (slot 0
	// unused).
	model []bool

	// Search statistics.
	TotalDecisions   int64
	TotalConflicts   int64
	TotalAssignments int64
	startTime        time.Time

	// Stop conditions.
	hasStopCond bool
	maxConflict int64
	timeout     time.Duration
	verbose     bool

	// Buffers reused across analyze calls: the learned clause under
	// construction and the conflict literals collected from levels below
	// the conflict level.
	tmpLearnt    []Literal
	tmpConflicts []Literal
}

type Options struct {
	// Seed for the decision RNG. Two solvers with the same seed and input
	// follow the same search.
	Seed int64

	// MaxConflicts stops the search after this many conflicts; -1 means no
	// limit. A stopped search returns Unknown.
	MaxConflicts int64

	// Timeout stops the search after this duration; -1 means no limit.
	Timeout time.Duration

	// ActivityOrder replaces the uniform random decision order with a
	// conflict-driven activity order.
	ActivityOrder bool

	// Verbose prints periodic search statistics as DIMACS comment lines.
	Verbose bool
}

var DefaultOptions = Options{
	Seed:         0,
	MaxConflicts: -1,
	Timeout:      -1,
}

// NewDefaultSolver returns a solver configured with default options. This is
// equivalent to calling NewSolver with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

func NewSolver(ops Options) *Solver {
	s := &Solver{
		vars:          make([]variable, 1), // slot 0 is a sentinel
		rng:           rand.New(rand.NewSource(ops.Seed)),
		activityOrder: ops.ActivityOrder,
		maxConflict:   -1,
		timeout:       -1,
		verbose:       ops.Verbose,
	}
	s.order = &randOrder{rng: s.rng}

	if ops.MaxConflicts >= 0 {
		s.hasStopCond = true
		s.maxConflict = ops.MaxConflicts
	}
	if ops.Timeout >= 0 {
		s.hasStopCond = true
		s.timeout = ops.Timeout
	}

	return s
}

// Solve builds a solver over variables 1..n, adds the given clauses (signed
// DIMACS-style integers), and solves. On True the returned model maps each
// variable ID to its value; slot 0 is unused.
func Solve(n int, clauses [][]int) (LBool, []bool, error) {
	s := NewDefaultSolver()
	for i := 0; i < n; i++ {
		s.AddVariable()
	}
	for _, c := range clauses {
		lits := make([]Literal, len(c))
		for i, l := range c {
			lits[i] = Literal(l)
		}
		if err := s.AddClause(lits); err != nil {
			return Unknown, nil, err
		}
	}
	status := s.Solve()
	return status, s.Model(), nil
}

func (s *Solver) NumVariables() int {
	return len(s.vars) - 1
}

func (s *Solver) NumAssigns() int {
	return len(s.trail)
}

func (s *Solver) NumConstraints() int {
	return len(s.constraints)
}

func (s *Solver) NumLearnts() int {
	return len(s.learnts)
}

// AddVariable adds a fresh variable to the solver and returns its ID.
// Variable IDs start at 1.
func (s *Solver) AddVariable() int {
	s.vars = append(s.vars, variable{})
	return len(s.vars) - 1
}

// VarValue returns the current value of variable x.
func (s *Solver) VarValue(x int) LBool {
	return s.LitValue(Literal(x))
}

// LitValue returns the current value of literal l.
func (s *Solver) LitValue(l Literal) LBool {
	v := &s.vars[l.VarID()]
	if !v.assigned {
		return Unknown
	}
	if v.sign == (l < 0) {
		return True
	}
	return False
}

// Model returns the satisfying assignment found by the last Solve that
// returned True, indexed by variable ID (slot 0 unused). It returns nil if
// no model has been found.
func (s *Solver) Model() []bool {
	return s.model
}

// watch registers clause c on the watch list of literal l.
func (s *Solver) watch(c *Clause, l Literal) {
	v := &s.vars[l.VarID()]
	i := watchIdx(l)
	v.watches[i] = append(v.watches[i], c)
}

// AddClause adds a clause over the solver's variables. An empty clause makes
// the problem unsatisfiable; a unit clause is recorded on its variable and
// settled when Solve starts; longer clauses watch their first two literals.
// The clause is not checked for being already satisfied or contradicted, and
// duplicate literals or tautologies are kept as given.
func (s *Solver) AddClause(clause []Literal) error {
	if s.started {
		return fmt.Errorf("cannot add clauses once Solve has been called")
	}
	for _, l := range clause {
		if l == 0 {
			return fmt.Errorf("literal 0 is reserved")
		}
		if v := l.VarID(); v > s.NumVariables() {
			return fmt.Errorf("literal %d references an undeclared variable", int(l))
		}
	}

	switch len(clause) {
	case 0:
		s.unsat = true
	case 1:
		l := clause[0]
		v := &s.vars[l.VarID()]
		neg := !l.IsPositive()
		if v.unit && v.unitSign != neg {
			s.unsat = true
			return nil
		}
		v.unit = true
		v.unitSign = neg
	default:
		c := newClause(clause, false)
		s.constraints = append(s.constraints, c)
		s.watch(c, c.literals[0])
		s.watch(c, c.literals[1])
	}

	return nil
}

// assign makes literal l true at the current decision level and pushes it on
// the trail. The reason is the clause that implied l, or nil for decisions
// and initial unit facts.
func (s *Solver) assign(l Literal, reason *Clause) {
	v := &s.vars[l.VarID()]
	v.assigned = true
	v.sign = l < 0
	v.level = s.dlevel
	v.reason = reason
	s.trail = append(s.trail, l)
	s.TotalAssignments++
}

// propagate assigns seed with the given reason and runs unit propagation to
// quiescence. Conflicts are resolved in place by analyze: the solver learns
// a clause, backjumps, and propagation resumes from the learned implication.
// It returns false once a conflict proves the problem unsatisfiable.
func (s *Solver) propagate(seed Literal, reason *Clause) bool {
	s.assign(seed, reason)
	curr := len(s.trail) - 1

outer:
	for curr < len(s.trail) {
		l := s.trail[curr]
		curr++

		// fl just became false; wake the clauses watching it.
		fl := l.Opposite()
		ws := &s.vars[fl.VarID()].watches[watchIdx(fl)]

		for i := 0; i < len(*ws); i++ {
			switch c := (*ws)[i]; c.propagate(s, fl) {
			case watchKept:

			case watchMoved:
				// The clause left this list: swap-with-last, pop, and
				// re-examine the slot that received the last element.
				last := len(*ws) - 1
				(*ws)[i] = (*ws)[last]
				*ws = (*ws)[:last]
				i--

			case watchConflict:
				s.TotalConflicts++
				learnt := s.analyze(c)
				if learnt == nil {
					s.unsat = true
					return false
				}

				// The learned clause is unit at the backjump level:
				// assert it and resume from the new trail tail.
				s.assign(learnt.literals[0], learnt)
				curr = len(s.trail) - 1
				continue outer
			}
		}
	}

	return true
}

// visit marks the variable of l if it has not been seen yet. A literal from
// the conflict level contributes to the implication-point count; literals
// from earlier levels accumulate in tmpConflicts as candidates for the
// learned clause. Top-level literals are permanently false and ignored.
func (s *Solver) visit(l Literal) int {
	v := &s.vars[l.VarID()]
	if v.mark || v.level == 0 {
		return 0
	}
	v.mark = true
	s.order.Bump(l.VarID())
	if v.level == s.dlevel {
		return 1
	}
	s.tmpConflicts = append(s.tmpConflicts, l)
	return 0
}

// redundant reports whether conflict literal l can be dropped from the
// learned clause because every antecedent in its reason is itself part of
// the conflict (marked) or settled at the top level.
func (s *Solver) redundant(l Literal) bool {
	r := s.vars[l.VarID()].reason
	if r == nil {
		return false
	}
	for _, m := range r.literals[1:] {
		v := &s.vars[m.VarID()]
		if !v.mark && v.level > 0 {
			return false
		}
	}
	return true
}

// analyze derives a first-UIP learned clause from the conflicting clause,
// unwinds the trail to the backjump level, and installs the result. Slot 0
// of the learned clause holds the asserting literal and slot 1 the literal
// at the backjump level. It returns nil when the conflict is at the top
// level and the problem is therefore unsatisfiable.
func (s *Solver) analyze(confl *Clause) *Clause {
	if s.dlevel == 0 {
		return nil
	}

	count := 0
	s.tmpConflicts = s.tmpConflicts[:0]
	for _, l := range confl.literals {
		count += s.visit(l)
	}

	// Walk the trail backward until a single implication point at the
	// conflict level remains, unassigning as we go. Marked literals expand
	// to their reasons; slot 0 of a reason is the literal it assigned and
	// is skipped.
	var uip Literal
	for {
		l := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		v := &s.vars[l.VarID()]
		v.assigned = false
		s.order.Undo(l.VarID())
		if !v.mark {
			continue
		}
		v.mark = false
		count--
		if count == 0 {
			uip = l
			break
		}
		for _, m := range v.reason.literals[1:] {
			count += s.visit(m)
		}
	}

	// Assemble the learned clause. The asserting literal sits in slot 0;
	// slot 1 tracks the literal at the highest remaining level, which
	// becomes the backjump level.
	s.tmpLearnt = s.tmpLearnt[:0]
	s.tmpLearnt = append(s.tmpLearnt, uip.Opposite())
	blevel := 0
	for _, l := range s.tmpConflicts {
		if s.redundant(l) {
			continue
		}
		s.tmpLearnt = append(s.tmpLearnt, l)
		if level := s.vars[l.VarID()].level; level > blevel {
			blevel = level
			last := len(s.tmpLearnt) - 1
			s.tmpLearnt[1], s.tmpLearnt[last] = s.tmpLearnt[last], s.tmpLearnt[1]
		}
	}

	// Backjump: strip the trail above blevel.
	for len(s.trail) > 0 {
		l := s.trail[len(s.trail)-1]
		if s.vars[l.VarID()].level <= blevel {
			break
		}
		s.vars[l.VarID()].assigned = false
		s.order.Undo(l.VarID())
		s.trail = s.trail[:len(s.trail)-1]
	}

	// Retire the scratch marks, including those of dropped literals.
	for _, l := range s.tmpConflicts {
		s.vars[l.VarID()].mark = false
	}

	s.dlevel = blevel
	s.order.Decay()

	return s.record(s.tmpLearnt)
}

// record installs a learned clause. By construction slot 0 is the asserting
// literal and slot 1 a literal false at the backjump level, so watching the
// first two slots is valid as soon as the caller asserts slot 0.
func (s *Solver) record(lits []Literal) *Clause {
	c := newClause(lits, true)
	s.learnts = append(s.learnts, c)
	if len(c.literals) >= 2 {
		s.watch(c, c.literals[0])
		s.watch(c, c.literals[1])
	}
	return c
}

func (s *Solver) shouldStop() bool {
	if !s.hasStopCond {
		return false
	}
	if s.maxConflict >= 0 && s.maxConflict <= s.TotalConflicts {
		return true
	}
	if s.timeout >= 0 && s.timeout <= time.Since(s.startTime) {
		return true
	}

	return false
}

// Solve searches for a model of the clauses added so far. It returns True
// with a model available through Model, False if the problem is proven
// unsatisfiable, or Unknown if a stop condition fired first.
func (s *Solver) Solve() LBool {
	s.started = true
	s.startTime = time.Now()
	if s.activityOrder {
		s.order = newActivityOrder(s)
	}

	if s.verbose {
		s.printSeparator()
		s.printSearchHeader()
		s.printSeparator()
	}

	status := s.search()

	if s.verbose {
		s.printSearchStats()
		s.printSeparator()
	}
	return status
}

func (s *Solver) search() LBool {
	if s.unsat {
		return False
	}

	// Settle the unit facts recorded by AddClause at the top level.
	s.dlevel = 0
	for x := 1; x < len(s.vars); x++ {
		if !s.vars[x].unit {
			continue
		}
		l := Literal(x)
		if s.vars[x].unitSign {
			l = -l
		}
		switch s.LitValue(l) {
		case True:
			continue // implied by an earlier unit
		case False:
			s.unsat = true
			return False
		}
		if !s.propagate(l, nil) {
			return False
		}
	}

	// Each iteration opens a fresh decision level. After a backjump the
	// next level is one above the backjump level, leaving gaps in the
	// numbering; this is harmless since levels are only compared by order.
	for {
		if s.shouldStop() {
			return Unknown
		}
		if s.verbose && s.TotalDecisions%10000 == 0 {
			s.printSearchStats()
		}

		s.dlevel++
		l := s.order.Select(s)
		if l == 0 {
			s.saveModel()
			return True
		}
		s.TotalDecisions++

		if !s.propagate(l, nil) {
			return False
		}
	}
}

func (s *Solver) saveModel() {
	model := make([]bool, len(s.vars))
	for x := 1; x < len(s.vars); x++ {
		if !s.vars[x].assigned {
			panic("not a model")
		}
		model[x] = !s.vars[x].sign
	}
	s.model = model
}

func (s *Solver) printSeparator() {
	fmt.Println("c ---------------------------------------------------------------")
}

func (s *Solver) printSearchHeader() {
	fmt.Println("c            time      decisions      conflicts        learnts")
}

func (s *Solver) printSearchStats() {
	fmt.Printf(
		"c %14.3fs %14d %14d %14d\n",
		time.Since(s.startTime).Seconds(),
		s.TotalDecisions,
		s.TotalConflicts,
		len(s.learnts))
}
