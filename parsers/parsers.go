// Package parsers loads DIMACS CNF instances and model files into a solver.
package parsers

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/rhartert/dimacs"
	"github.com/rhartert/nogood/sat"
)

// SATSolver is the part of the solver that instance loading relies on.
type SATSolver interface {
	AddVariable() int
	AddClause([]sat.Literal) error
}

// LoadDIMACS reads the DIMACS CNF file and adds its variables and clauses to
// the given solver. Set gzipped for files compressed with gzip.
func LoadDIMACS(filename string, gzipped bool, solver SATSolver) error {
	rc, err := open(filename, gzipped)
	if err != nil {
		return fmt.Errorf("open instance %q: %w", filename, err)
	}
	defer rc.Close()

	if err := dimacs.ReadBuilder(rc, &instanceBuilder{solver}); err != nil {
		return fmt.Errorf("parse instance %q: %w", filename, err)
	}
	return nil
}

// ReadModels reads a model file: one model per line, written as the literals
// satisfied by the model and terminated by 0, DIMACS style.
func ReadModels(filename string) ([][]bool, error) {
	rc, err := open(filename, false)
	if err != nil {
		return nil, fmt.Errorf("open models %q: %w", filename, err)
	}
	defer rc.Close()

	b := &modelBuilder{}
	if err := dimacs.ReadBuilder(rc, b); err != nil {
		return nil, fmt.Errorf("parse models %q: %w", filename, err)
	}
	return b.models, nil
}

func open(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !gzipped {
		return file, nil
	}
	zr, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &gzipFile{Reader: zr, file: file}, nil
}

// gzipFile closes the underlying file along with the gzip stream.
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	if err := g.Reader.Close(); err != nil {
		g.file.Close()
		return err
	}
	return g.file.Close()
}

// instanceBuilder feeds the dimacs.ReadBuilder callbacks into the solver.
// DIMACS literals already use the solver's signed encoding, so clauses
// convert element by element.
type instanceBuilder struct {
	solver SATSolver
}

func (b *instanceBuilder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("expected a cnf problem, got %q", problem)
	}
	for i := 0; i < nVars; i++ {
		b.solver.AddVariable()
	}
	return nil
}

func (b *instanceBuilder) Clause(lits []int) error {
	clause := make([]sat.Literal, len(lits))
	for i, l := range lits {
		clause[i] = sat.Literal(l)
	}
	return b.solver.AddClause(clause)
}

func (b *instanceBuilder) Comment(_ string) error {
	return nil
}

// modelBuilder reuses the DIMACS clause syntax to collect models: every
// "clause" line is read as a full assignment.
type modelBuilder struct {
	models [][]bool
}

func (b *modelBuilder) Problem(problem string, nVars int, nClauses int) error {
	return fmt.Errorf("model files should not have a problem line")
}

func (b *modelBuilder) Clause(lits []int) error {
	model := make([]bool, len(lits))
	for i, l := range lits {
		model[i] = l > 0
	}
	b.models = append(b.models, model)
	return nil
}

func (b *modelBuilder) Comment(_ string) error {
	return nil
}
