package model

// EqualityKind is the relational operator a LinEquation's right-hand side
// is compared against.
type EqualityKind int

const (
	LessEqual EqualityKind = iota
	GreaterEqual
	Equal
)

// String renders an EqualityKind the way LP file emission expects.
func (k EqualityKind) String() string {
	switch k {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return "="
	}
}

// Term is one (variable, coefficient) pair in a linear or quadratic
// expression.
type Term struct {
	Variable    *Variable
	Coefficient float64
}

// QuadraticTerm is one (var, var, coefficient) triple contributing
// coefficient * Var1 * Var2 to an expression; Var1 == Var2 represents a
// squared term.
type QuadraticTerm struct {
	Var1        *Variable
	Var2        *Variable
	Coefficient float64
}

// ConstraintMeaning tags what real-world relationship a LinEquation
// encodes, used for reporting and for the builder's own bookkeeping (e.g.
// recognizing and replacing "the current objective-pin constraint" without
// string-matching names).
type ConstraintMeaning int

const (
	NoMeaning ConstraintMeaning = iota
	MassBalance
	DecompositionCoupling
	UseLinking
	ThermoFeasibility
	GibbsEnergyDefinition
	ChemicalPotential
	ErrorBudget
	GeneReactionMapping
	IntervalGeneExperiment
	ObjectivePin
	IntegerCut
)

// LinEquation is one constraint row (or, with Quadratic set, a QP/MIQP
// row).
type LinEquation struct {
	// Name is the builder-assigned LP row name, unique within one
	// ProblemState.
	Name string

	RHS      float64
	Equality EqualityKind

	Terms      []Term
	Quadratic  []QuadraticTerm
	Meaning    ConstraintMeaning

	// RowIndex is this constraint's row index in the solver it was last
	// loaded into, or -1 if not currently loaded.
	RowIndex int
}

// NewLinEquation constructs an empty LinEquation with RowIndex unset.
func NewLinEquation(name string, rhs float64, equality EqualityKind) *LinEquation {
	return &LinEquation{
		Name:     name,
		RHS:      rhs,
		Equality: equality,
		RowIndex: -1,
	}
}

// AddTerm appends a linear term to the equation.
func (e *LinEquation) AddTerm(v *Variable, coefficient float64) {
	e.Terms = append(e.Terms, Term{Variable: v, Coefficient: coefficient})
}

// AddQuadraticTerm appends a quadratic term to the equation.
func (e *LinEquation) AddQuadraticTerm(v1, v2 *Variable, coefficient float64) {
	e.Quadratic = append(e.Quadratic, QuadraticTerm{Var1: v1, Var2: v2, Coefficient: coefficient})
}

// IsQuadratic reports whether the equation carries any quadratic terms,
// which forces the owning problem's class to QP/MIQP.
func (e *LinEquation) IsQuadratic() bool { return len(e.Quadratic) > 0 }

// IsLoaded reports whether the equation currently has a row in some solver
// session.
func (e *LinEquation) IsLoaded() bool { return e.RowIndex >= 0 }

// ClearRowIndex resets the equation to the unloaded state.
func (e *LinEquation) ClearRowIndex() { e.RowIndex = -1 }

// Evaluate computes Σ(coefficient · value) over the equation's linear terms
// against the supplied values, indexed by each term's Variable.SolverIndex.
// Terms whose variable is nil or has no index inside values are skipped.
func (e *LinEquation) Evaluate(values []float64) float64 {
	var sum float64
	for _, t := range e.Terms {
		if t.Variable == nil || t.Variable.SolverIndex < 0 || t.Variable.SolverIndex >= len(values) {
			continue
		}
		sum += t.Coefficient * values[t.Variable.SolverIndex]
	}
	return sum
}

// Satisfied reports whether the equation's relation holds for the value
// computed by Evaluate, within tol.
func (e *LinEquation) Satisfied(values []float64, tol float64) bool {
	lhs := e.Evaluate(values)
	switch e.Equality {
	case LessEqual:
		return lhs <= e.RHS+tol
	case GreaterEqual:
		return lhs >= e.RHS-tol
	default:
		return lhs >= e.RHS-tol && lhs <= e.RHS+tol
	}
}
