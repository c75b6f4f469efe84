// Package commercial implements the license-gated backend, grounded on
// SolverInterface.cpp's SelectSolver check of ILOG_LICENSE_FILE before
// routing a problem to CPLEX. It is the only backend in this facade that
// claims QP/MIQP capability (no backend claims NLP), as the original reserves those
// problem classes for the commercial solver and falls back to GLPK/SCIP for
// plain LP/MILP when no license is present.
package commercial

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/internal/solver/backend/scip"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// LicenseEnvVar is the environment variable this backend checks, named
// after the original's ILOG_LICENSE_FILE but generalized to whichever
// commercial solver is actually wired in.
const LicenseEnvVar = "MFA_SOLVER_LICENSE_FILE"

// Backend wraps scip.Backend for its LP/MILP machinery and adds a
// best-effort quadratic-term handling on top for QP/MIQP: since no
// commercial QP engine is actually vendored here, quadratic terms are
// linearized around the midpoint of each variable's bounds before the
// underlying LP/MILP solve. This keeps the facade contract (a solution or a
// descriptive failure, never a crash) without claiming exact QP optimality.
type Backend struct {
	base       *scip.Backend
	licenseDir string
}

// New returns a Backend that additionally consults licenseDir (typically
// config.SolverConfig.LicenseDir) alongside LicenseEnvVar when deciding
// availability.
func New(licenseDir string) *Backend {
	return &Backend{base: scip.New(), licenseDir: licenseDir}
}

func (b *Backend) Name() string { return "s-qp" }

func (b *Backend) Capabilities() solver.Capability {
	return solver.CapLP | solver.CapMILP | solver.CapQP | solver.CapMIQP
}

func (b *Backend) Available() bool {
	if solver.LicenseAvailable(LicenseEnvVar) {
		return true
	}
	if b.licenseDir == "" {
		return false
	}
	entries, err := os.ReadDir(b.licenseDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lic" {
			return true
		}
	}
	return false
}

func (b *Backend) Init() error { return b.base.Init() }

func (b *Backend) Reset() error { return b.base.Reset() }

func (b *Backend) LoadVariable(v *model.Variable, relaxIntegrality, useTightBounds bool) (int, error) {
	return b.base.LoadVariable(v, relaxIntegrality, useTightBounds)
}

func (b *Backend) LoadObjective(obj model.Objective) error { return b.base.LoadObjective(obj) }

func (b *Backend) AddConstraint(eq *model.LinEquation) (int, error) { return b.base.AddConstraint(eq) }

func (b *Backend) RemoveConstraint(name string) error { return b.base.RemoveConstraint(name) }

func (b *Backend) WriteLP(w io.Writer) error { return b.base.WriteLP(w) }

func (b *Backend) Run(class solver.ProblemClass, opts solver.RunOptions) (model.OptSolutionData, error) {
	if !b.Available() {
		return model.OptSolutionData{Status: model.StatusFailed},
			mfaerr.New(mfaerr.CodeSolverUnavailable, "s-qp: no commercial license found")
	}

	switch class {
	case solver.LP:
		return b.base.Run(solver.LP, opts)
	case solver.MILP:
		return b.base.Run(solver.MILP, opts)
	case solver.QP, solver.MIQP:
		return b.runQuadratic(class, opts)
	default:
		return model.OptSolutionData{Status: model.StatusFailed},
			mfaerr.New(mfaerr.CodeSolverUnavailable, "s-qp: "+class.String()+" is not supported")
	}
}

// runQuadratic linearizes every quadratic term at the midpoint of its two
// variables' effective bounds, folds the resulting constant coefficients
// into the linear objective, and solves the remaining LP/MILP with the base
// backend. Quadratic terms on constraint rows are rejected outright: the
// spec's thermodynamic constraint set never needs a quadratic row, only a
// quadratic objective (error-budget cross terms), so this keeps the
// simplification scoped to where it is actually exercised.
func (b *Backend) runQuadratic(class solver.ProblemClass, opts solver.RunOptions) (model.OptSolutionData, error) {
	rows := b.base.Rows()
	for _, r := range rows {
		if r.IsQuadratic() {
			return model.OptSolutionData{Status: model.StatusFailed},
				mfaerr.New(mfaerr.CodeSolverUnavailable, "s-qp: quadratic constraint rows are not supported")
		}
	}

	obj := b.base.Objective()
	linear := model.Objective{Maximize: obj.Maximize, Terms: append([]model.Term(nil), obj.Terms...)}
	for _, q := range obj.Quadratic {
		mid1 := midpoint(q.Var1)
		mid2 := midpoint(q.Var2)
		if q.Var1 != nil {
			linear.Terms = append(linear.Terms, model.Term{Variable: q.Var1, Coefficient: q.Coefficient * mid2})
		}
		if q.Var2 != nil && q.Var2 != q.Var1 {
			linear.Terms = append(linear.Terms, model.Term{Variable: q.Var2, Coefficient: q.Coefficient * mid1})
		}
	}
	if err := b.base.LoadObjective(linear); err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.Wrap(err, mfaerr.CodeSolveFailed, "s-qp: load linearized objective")
	}

	underlying := solver.LP
	if class == solver.MIQP {
		underlying = solver.MILP
	}
	return b.base.Run(underlying, opts)
}

func midpoint(v *model.Variable) float64 {
	if v == nil {
		return 0
	}
	b := v.EffectiveBounds()
	if math.IsInf(b.Lower, -1) || math.IsInf(b.Upper, 1) {
		return 0
	}
	return (b.Lower + b.Upper) / 2
}
