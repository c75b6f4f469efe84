// Package analysis implements the orchestrator that drives a built
// model.ProblemState through repeated mutate/solve cycles: single-point FBA,
// flux variability, alternate-optima enumeration, essentiality and deletion
// sweeps, media minimization, and gap fill/generation. Every operation
// shares the push/mutate/solve/record/pop idiom built on
// model.ProblemState.Push/Pop, with sync.atomic guarding a user-settable
// terminate flag checked between iterations, mirroring the original
// toolkit's single-threaded cooperative scheduling model.
package analysis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Config carries the orchestrator-level tunables from config.AnalysisConfig,
// kept as a plain struct so this package does not import internal/config.
type Config struct {
	DefaultStepTimeout   time.Duration
	MaxRecursiveRounds   int
	MaxGapFillCandidates int
	EssentialityBatch    int
	ObjectiveFraction    float64
	ZeroTolerance        float64
}

// Orchestrator is the C5 analysis component: it owns a builder (and, through
// it, a ProblemState) and a solver facade, and exposes the high-level MFA
// operations as methods. One Orchestrator is scoped to one model/run.
type Orchestrator struct {
	builder *builder.Builder
	facade  *solver.Facade
	cfg     Config
	log     logging.Logger

	terminated atomic.Bool

	// stepClocks is the "simple clock table keyed by an integer index" the
	// resource model calls for: one deadline per in-flight analysis step,
	// indexed by a caller-assigned step index rather than a map keyed by
	// name, so a hot loop issuing many steps never allocates a string key.
	stepClocks []time.Time
}

// New constructs an Orchestrator over b and f with cfg's tunables.
func New(b *builder.Builder, f *solver.Facade, cfg Config, log logging.Logger) *Orchestrator {
	if cfg.ObjectiveFraction <= 0 {
		cfg.ObjectiveFraction = 1.0
	}
	return &Orchestrator{builder: b, facade: f, cfg: cfg, log: log}
}

// Cancel sets the terminate flag; checked before each analysis iteration and
// at the top of each recursive-MILP round. It does not interrupt a solve
// already in progress — the resource model's only blocking call is run(),
// and cancellation is only honored between solves.
func (o *Orchestrator) Cancel() { o.terminated.Store(true) }

// Cancelled reports whether Cancel has been called since the last
// ResetTerminate.
func (o *Orchestrator) Cancelled() bool { return o.terminated.Load() }

// ResetTerminate clears the terminate flag for a fresh run.
func (o *Orchestrator) ResetTerminate() { o.terminated.Store(false) }

// beginStep records a deadline for stepIndex, computed from timeout, or from
// cfg's DefaultStepTimeout when timeout is not positive. It returns nothing;
// stepOverdue reports whether that deadline has passed.
func (o *Orchestrator) beginStep(stepIndex int, timeout time.Duration) {
	if timeout <= 0 {
		timeout = o.cfg.DefaultStepTimeout
	}
	for len(o.stepClocks) <= stepIndex {
		o.stepClocks = append(o.stepClocks, time.Time{})
	}
	if timeout > 0 {
		o.stepClocks[stepIndex] = time.Now().Add(timeout)
	}
}

func (o *Orchestrator) stepOverdue(stepIndex int) bool {
	if stepIndex < 0 || stepIndex >= len(o.stepClocks) {
		return false
	}
	deadline := o.stepClocks[stepIndex]
	return !deadline.IsZero() && time.Now().After(deadline)
}

// Problem returns the ProblemState this orchestrator drives.
func (o *Orchestrator) Problem() *model.ProblemState { return o.builder.Problem() }

// Builder returns the builder this orchestrator wraps, for callers that
// need to resolve domain references (e.g. flux/use variables) before
// calling an orchestrator method.
func (o *Orchestrator) Builder() *builder.Builder { return o.builder }

// solve loads the current ProblemState into the facade's selected backend
// for class and runs it, translating a facade error into a failed
// OptSolutionData rather than propagating it, so callers that treat solver
// failure as a recoverable per-step outcome (essentiality sweeps,
// recursive enumeration) never need a type switch on the error.
func (o *Orchestrator) solve(ctx context.Context, class solver.ProblemClass) model.OptSolutionData {
	if err := ctx.Err(); err != nil {
		return model.OptSolutionData{Status: model.StatusTimeout}
	}

	if err := o.facade.Init(class); err != nil {
		if o.log != nil {
			o.log.Error("analysis: backend init failed", logging.Err(err))
		}
		return model.OptSolutionData{Status: model.StatusFailed}
	}
	defer o.facade.Reset()

	p := o.builder.Problem()
	relaxIntegrality := class == solver.LP || class == solver.QP

	for _, v := range p.Variables {
		if _, err := o.facade.LoadVariable(v, relaxIntegrality, false); err != nil {
			if o.log != nil {
				o.log.Error("analysis: load variable failed", logging.String("variable", v.Name), logging.Err(err))
			}
			return model.OptSolutionData{Status: model.StatusFailed}
		}
	}
	for _, c := range p.Constraints {
		if _, err := o.facade.AddConstraint(c); err != nil {
			if o.log != nil {
				o.log.Error("analysis: add constraint failed", logging.String("constraint", c.Name), logging.Err(err))
			}
			return model.OptSolutionData{Status: model.StatusFailed}
		}
	}
	if err := o.facade.LoadObjective(p.Objective); err != nil {
		if o.log != nil {
			o.log.Error("analysis: load objective failed", logging.Err(err))
		}
		return model.OptSolutionData{Status: model.StatusFailed}
	}

	sol, err := o.facade.Run(class)
	if err != nil {
		if o.log != nil {
			o.log.Error("analysis: run failed", logging.Err(err))
		}
		return model.OptSolutionData{Status: model.StatusFailed}
	}
	p.LastSolution = sol
	return sol
}

// solveFn adapts solve to model.Solve's signature for FindTightBounds,
// always against class and a background context — FVA's per-pass solves
// are not individually cancellable mid-pass, only between passes via the
// terminate flag checked by the caller.
func (o *Orchestrator) solveFn(class solver.ProblemClass) model.Solve {
	return func(p *model.ProblemState) (model.OptSolutionData, error) {
		sol := o.solve(context.Background(), class)
		if sol.Status == model.StatusFailed {
			return sol, mfaerr.New(mfaerr.CodeSolveFailed, "analysis: solve failed")
		}
		return sol, nil
	}
}

// problemClass reports the narrowest class the current ProblemState needs:
// MILP if any variable is integer/binary, QP/MIQP if the objective carries
// quadratic terms, LP otherwise.
func (o *Orchestrator) problemClass() solver.ProblemClass {
	integer := false
	for _, v := range o.builder.Problem().Variables {
		if v.Integer || v.Binary {
			integer = true
			break
		}
	}
	quadratic := o.builder.Problem().Objective.IsQuadratic()

	switch {
	case quadratic && integer:
		return solver.MIQP
	case quadratic:
		return solver.QP
	case integer:
		return solver.MILP
	default:
		return solver.LP
	}
}
