package simplex

import (
	"fmt"
	"io"
	"sort"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

type loadedVar struct {
	v                *model.Variable
	relaxIntegrality bool
	useTightBounds   bool
}

// Backend is the always-available open-source LP solver, named "s-simplex";
// it stands in for the GLPK entry of the original toolkit's dispatch table. It
// supports LP only; MILP/QP/NLP requests fail gracefully so the facade can
// fall through to scip or a license-gated backend.
type Backend struct {
	vars []*loadedVar
	rows []*model.LinEquation
	obj  model.Objective
}

// New returns an initialized simplex Backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return "s-simplex" }

func (b *Backend) Capabilities() solver.Capability { return solver.CapLP }

func (b *Backend) Available() bool { return true }

func (b *Backend) Init() error {
	b.vars = nil
	b.rows = nil
	b.obj = model.Objective{}
	return nil
}

func (b *Backend) Reset() error { return b.Init() }

func (b *Backend) LoadVariable(v *model.Variable, relaxIntegrality, useTightBounds bool) (int, error) {
	if v == nil {
		return 0, mfaerr.InvalidParam("simplex: nil variable")
	}
	if v.SolverIndex >= 0 && v.SolverIndex < len(b.vars) && b.vars[v.SolverIndex].v == v {
		b.vars[v.SolverIndex].relaxIntegrality = relaxIntegrality
		b.vars[v.SolverIndex].useTightBounds = useTightBounds
		return v.SolverIndex, nil
	}
	idx := len(b.vars)
	b.vars = append(b.vars, &loadedVar{v: v, relaxIntegrality: relaxIntegrality, useTightBounds: useTightBounds})
	v.SolverIndex = idx
	return idx, nil
}

func (b *Backend) LoadObjective(obj model.Objective) error {
	b.obj = obj
	return nil
}

func (b *Backend) AddConstraint(eq *model.LinEquation) (int, error) {
	if eq == nil {
		return 0, mfaerr.InvalidParam("simplex: nil constraint")
	}
	if eq.IsQuadratic() {
		return 0, mfaerr.New(mfaerr.CodeSolverUnavailable, "simplex: quadratic constraints require the commercial backend")
	}
	for i, r := range b.rows {
		if r.Name == eq.Name {
			b.rows[i] = eq
			eq.RowIndex = i
			return i, nil
		}
	}
	idx := len(b.rows)
	b.rows = append(b.rows, eq)
	eq.RowIndex = idx
	return idx, nil
}

func (b *Backend) RemoveConstraint(name string) error {
	for i, r := range b.rows {
		if r.Name == name {
			b.rows = append(b.rows[:i], b.rows[i+1:]...)
			for j := i; j < len(b.rows); j++ {
				b.rows[j].RowIndex = j
			}
			return nil
		}
	}
	return mfaerr.New(mfaerr.CodeConstraintNotFound, "simplex: no constraint named "+name)
}

func (b *Backend) WriteLP(w io.Writer) error {
	sense := "Minimize"
	if b.obj.Maximize {
		sense = "Maximize"
	}
	if _, err := fmt.Fprintf(w, "%s\n obj: %s\n", sense, formatTerms(b.obj.Terms)); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeLPWriteError, "simplex: write objective")
	}
	if _, err := fmt.Fprintf(w, "Subject To\n"); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeLPWriteError, "simplex: write section header")
	}
	for _, r := range b.rows {
		op := equalitySymbol(r.Equality)
		if _, err := fmt.Fprintf(w, " %s: %s %s %g\n", r.Name, formatTerms(r.Terms), op, r.RHS); err != nil {
			return mfaerr.Wrap(err, mfaerr.CodeLPWriteError, "simplex: write row "+r.Name)
		}
	}
	if _, err := fmt.Fprintf(w, "Bounds\n"); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeLPWriteError, "simplex: write bounds header")
	}
	for _, lv := range b.vars {
		bounds := lv.effectiveBounds()
		if _, err := fmt.Fprintf(w, " %g <= %s <= %g\n", bounds.Min, lv.v.Name, bounds.Max); err != nil {
			return mfaerr.Wrap(err, mfaerr.CodeLPWriteError, "simplex: write bound for "+lv.v.Name)
		}
	}
	_, err := fmt.Fprintf(w, "End\n")
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeLPWriteError, "simplex: write terminator")
	}
	return nil
}

func (lv *loadedVar) effectiveBounds() model.Bounds {
	if lv.useTightBounds {
		return lv.v.EffectiveBounds()
	}
	return lv.v.Hard
}

func formatTerms(terms []model.Term) string {
	names := make([]string, 0, len(terms))
	byName := make(map[string]float64, len(terms))
	for _, t := range terms {
		if t.Variable == nil {
			continue
		}
		if _, ok := byName[t.Variable.Name]; !ok {
			names = append(names, t.Variable.Name)
		}
		byName[t.Variable.Name] += t.Coefficient
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " + "
		}
		out += fmt.Sprintf("%g %s", byName[n], n)
	}
	if out == "" {
		return "0"
	}
	return out
}

func equalitySymbol(e model.EqualityKind) string {
	switch e {
	case model.LessEqual:
		return "<="
	case model.GreaterEqual:
		return ">="
	default:
		return "="
	}
}

// BuildTableau translates the loaded variables/rows/objective into a plain
// Tableau, exported so the scip backend's branch-and-bound can reuse this
// backend's bookkeeping for its LP relaxations.
func (b *Backend) BuildTableau() Tableau {
	n := len(b.vars)
	bounds := make([]Bound, n)
	for i, lv := range b.vars {
		eb := lv.effectiveBounds()
		bounds[i] = Bound{Lower: eb.Min, Upper: eb.Max}
	}

	objective := make([]float64, n)
	for _, t := range b.obj.Terms {
		if t.Variable != nil && t.Variable.SolverIndex >= 0 && t.Variable.SolverIndex < n {
			objective[t.Variable.SolverIndex] += t.Coefficient
		}
	}

	rows := make([]Row, 0, len(b.rows))
	for _, r := range b.rows {
		coeffs := make([]float64, n)
		for _, t := range r.Terms {
			if t.Variable != nil && t.Variable.SolverIndex >= 0 && t.Variable.SolverIndex < n {
				coeffs[t.Variable.SolverIndex] += t.Coefficient
			}
		}
		rows = append(rows, Row{Coeffs: coeffs, RHS: r.RHS, Sense: senseOf(r.Equality)})
	}

	return Tableau{Bounds: bounds, Objective: objective, Maximize: b.obj.Maximize, Rows: rows}
}

func senseOf(e model.EqualityKind) Sense {
	switch e {
	case model.LessEqual:
		return LE
	case model.GreaterEqual:
		return GE
	default:
		return EQ
	}
}

// Variables returns the backend's loaded *model.Variable slice in column
// order, for callers (such as scip) that need to map tableau columns back to
// domain variables.
func (b *Backend) Variables() []*model.Variable {
	out := make([]*model.Variable, len(b.vars))
	for i, lv := range b.vars {
		out[i] = lv.v
	}
	return out
}

// Rows exposes the loaded constraint rows for reuse by scip's
// branch-and-bound, which needs to append temporary integrality-branching
// bounds without disturbing this backend's own row bookkeeping.
func (b *Backend) Rows() []*model.LinEquation { return b.rows }

// Objective exposes the loaded objective, including any quadratic terms, so
// the commercial backend can linearize them without reaching into this
// backend's private fields.
func (b *Backend) Objective() model.Objective { return b.obj }

func (b *Backend) Run(class solver.ProblemClass, opts solver.RunOptions) (model.OptSolutionData, error) {
	if class != solver.LP {
		return model.OptSolutionData{Status: model.StatusFailed},
			mfaerr.New(mfaerr.CodeSolverUnavailable, "simplex: only LP is supported by the s-simplex backend")
	}
	for _, r := range b.rows {
		if r.IsQuadratic() {
			return model.OptSolutionData{Status: model.StatusFailed},
				mfaerr.New(mfaerr.CodeSolverUnavailable, "simplex: quadratic rows require the commercial backend")
		}
	}
	if b.obj.IsQuadratic() {
		return model.OptSolutionData{Status: model.StatusFailed},
			mfaerr.New(mfaerr.CodeSolverUnavailable, "simplex: quadratic objective requires the commercial backend")
	}

	tol := opts.ZeroTolerance
	if tol <= 0 {
		tol = 1e-9
	}
	sol, err := Solve(b.BuildTableau(), tol)
	if err != nil {
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.Wrap(err, mfaerr.CodeSolveFailed, "simplex: solve")
	}

	switch sol.Status {
	case Optimal:
		return model.OptSolutionData{Status: model.StatusOptimal, ObjectiveValue: sol.ObjectiveValue, Values: sol.Values}, nil
	case Infeasible:
		return model.OptSolutionData{Status: model.StatusInfeasible}, nil
	case Unbounded:
		return model.OptSolutionData{Status: model.StatusUnbounded}, nil
	default:
		return model.OptSolutionData{Status: model.StatusFailed}, mfaerr.New(mfaerr.CodeSolveFailed, "simplex: solver returned no recognized status")
	}
}
