package solver

import (
	"io"
	"time"

	"github.com/turtacn/mfa-engine/internal/model"
)

// RunOptions carries the "sensible defaults" spec.md requires every backend
// apply on run: bound tightening, integer tolerance, single-thread
// execution, and a wall-clock cap sourced from config.SolverConfig.
type RunOptions struct {
	ZeroTolerance    float64
	IntegerTolerance float64
	OptimalityGap    float64
	TimeCap          time.Duration
	BoundTightening  bool
	SingleThread     bool
}

// Backend is the contract every solver implementation (open-source or
// license-gated commercial) must satisfy. It reproduces, method for method,
// the dispatch surface of SolverInterface.cpp's Global* functions
// (GlobalInitializeSolver, GlobalLoadVariable, GlobalLoadObjective,
// GlobalAddConstraint, GlobalRemoveConstraint, GlobalWriteLPFile,
// GlobalRunSolver, GlobalResetSolver), but as methods on a Go interface
// instead of a switch over a global Solver enum.
type Backend interface {
	// Name identifies the backend for logging and for SolverConfig's
	// DefaultBackend/FallbackBackends name matching.
	Name() string

	// Capabilities reports which ProblemClasses this backend can solve.
	Capabilities() Capability

	// Available reports whether the backend is usable right now (for a
	// license-gated backend, whether a valid license was found).
	Available() bool

	// Init clears any prior model and allocates an empty problem object.
	Init() error

	// LoadVariable registers a column for v, or if v was already loaded in
	// this session, rewrites its bounds only. Returns the solver-assigned
	// column index.
	LoadVariable(v *model.Variable, relaxIntegrality, useTightBounds bool) (int, error)

	// LoadObjective replaces the objective row.
	LoadObjective(obj model.Objective) error

	// AddConstraint inserts eq as a row, or rewrites an existing row of the
	// same name in place. Returns the solver-assigned row index.
	AddConstraint(eq *model.LinEquation) (int, error)

	// RemoveConstraint deletes the row named name.
	RemoveConstraint(name string) error

	// WriteLP emits the current problem in LP text format.
	WriteLP(w io.Writer) error

	// Run solves the current problem as the given class and returns the
	// primal solution. For MIP classes the value vector is indexed by
	// solver column id, per spec.
	Run(class ProblemClass, opts RunOptions) (model.OptSolutionData, error)

	// Reset discards the current problem and clears the index→variable
	// table.
	Reset() error
}
