package solver

import (
	"io"
	"time"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Config carries the subset of config.SolverConfig the facade needs to pick
// a backend and set per-run defaults, kept as a plain struct here so this
// package does not depend on internal/config.
type Config struct {
	DefaultBackend   string
	FallbackBackends []string
	LicenseDir       string
	ZeroTolerance    float64
	IntegerTolerance float64
	OptimalityGap    float64
	DefaultTimeCap   time.Duration
}

// Facade is the single backend-neutral entry point every builder/analysis
// call goes through, reproducing SolverInterface.cpp's Global* dispatch
// surface as method calls instead of a switch over a global Solver enum.
type Facade struct {
	cfg      Config
	backends map[string]Backend
	current  Backend
}

// NewFacade constructs a Facade with no backends registered yet; callers
// wire in simplex/scip/commercial via Register before first use.
func NewFacade(cfg Config) *Facade {
	return &Facade{cfg: cfg, backends: make(map[string]Backend)}
}

// Register adds a backend under its own Name(), overwriting any prior
// registration of the same name.
func (f *Facade) Register(b Backend) {
	f.backends[b.Name()] = b
}

// candidateOrder returns DefaultBackend followed by FallbackBackends, with
// duplicates dropped, mirroring SelectSolver's "try CurrentSolver, then fall
// back" structure.
func (f *Facade) candidateOrder() []string {
	seen := make(map[string]bool)
	order := make([]string, 0, 1+len(f.cfg.FallbackBackends))
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}
	add(f.cfg.DefaultBackend)
	for _, name := range f.cfg.FallbackBackends {
		add(name)
	}
	return order
}

// Select maps a problem class to the first registered backend that is both
// available (licensed) and capable of that class, in DefaultBackend →
// FallbackBackends order. It is exported so callers can pre-flight a class
// before committing to a long-running formulation.
func (f *Facade) Select(class ProblemClass) (Backend, error) {
	for _, name := range f.candidateOrder() {
		b, ok := f.backends[name]
		if !ok || !b.Available() {
			continue
		}
		if b.Capabilities().Has(class.Of()) {
			return b, nil
		}
	}
	return nil, mfaerr.New(mfaerr.CodeSolverUnavailable, "solver: no available backend supports "+class.String())
}

// Init selects and clears a backend for class, making it current for the
// subsequent Load/Add/Run/Reset calls.
func (f *Facade) Init(class ProblemClass) error {
	b, err := f.Select(class)
	if err != nil {
		return err
	}
	if err := b.Init(); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSolverUnavailable, "solver: init backend "+b.Name())
	}
	f.current = b
	return nil
}

func (f *Facade) requireCurrent() (Backend, error) {
	if f.current == nil {
		return nil, mfaerr.New(mfaerr.CodeSolverUnavailable, "solver: no backend initialized; call Init first")
	}
	return f.current, nil
}

// LoadVariable registers or updates v on the current backend.
func (f *Facade) LoadVariable(v *model.Variable, relaxIntegrality, useTightBounds bool) (int, error) {
	b, err := f.requireCurrent()
	if err != nil {
		return 0, err
	}
	return b.LoadVariable(v, relaxIntegrality, useTightBounds)
}

// LoadObjective replaces the current backend's objective.
func (f *Facade) LoadObjective(obj model.Objective) error {
	b, err := f.requireCurrent()
	if err != nil {
		return err
	}
	return b.LoadObjective(obj)
}

// AddConstraint inserts or rewrites eq on the current backend.
func (f *Facade) AddConstraint(eq *model.LinEquation) (int, error) {
	b, err := f.requireCurrent()
	if err != nil {
		return 0, err
	}
	return b.AddConstraint(eq)
}

// RemoveConstraint deletes the row named name from the current backend.
func (f *Facade) RemoveConstraint(name string) error {
	b, err := f.requireCurrent()
	if err != nil {
		return err
	}
	return b.RemoveConstraint(name)
}

// WriteLP emits the current backend's problem as LP text.
func (f *Facade) WriteLP(w io.Writer) error {
	b, err := f.requireCurrent()
	if err != nil {
		return err
	}
	return b.WriteLP(w)
}

// Run solves the current backend's problem as class, applying the facade's
// configured defaults (zero/integer tolerance, optimality gap, time cap).
func (f *Facade) Run(class ProblemClass) (model.OptSolutionData, error) {
	b, err := f.requireCurrent()
	if err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, err
	}
	opts := RunOptions{
		ZeroTolerance:    f.cfg.ZeroTolerance,
		IntegerTolerance: f.cfg.IntegerTolerance,
		OptimalityGap:    f.cfg.OptimalityGap,
		TimeCap:          f.cfg.DefaultTimeCap,
		BoundTightening:  true,
		SingleThread:     true,
	}
	return b.Run(class, opts)
}

// Reset discards the current backend's problem and clears its index table.
// The facade itself forgets which backend was current.
func (f *Facade) Reset() error {
	if f.current == nil {
		return nil
	}
	err := f.current.Reset()
	f.current = nil
	return err
}
