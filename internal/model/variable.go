// Package model holds the tagged-variant decision-variable and constraint
// records the builder emits and the solver facade loads: Variable,
// LinEquation, the ProblemState snapshot they live in, and the
// OptSolutionData a solve produces. None of these types talk to a solver
// directly — internal/builder constructs them, internal/solver consumes
// them by reference.
package model

import "github.com/turtacn/mfa-engine/pkg/ids"

// VariableKind enumerates every decision-variable type the builder can
// emit, the full union required across every problem class (LP, MILP, QP).
type VariableKind int

const (
	Flux VariableKind = iota
	ForwardFlux
	ReverseFlux
	ReactionUse
	ForwardUse
	ReverseUse
	DrainFlux
	ForwardDrainFlux
	ReverseDrainFlux
	DrainUse
	ForwardDrainUse
	ReverseDrainUse
	DeltaG
	ReactionDeltaGError
	ReactionDeltaGErrorPlus
	ReactionDeltaGErrorMinus
	ReactionDeltaGErrorUse
	Potential
	LogConcentration
	Concentration
	DeltaGfError
	DeltaGfErrorPlus
	DeltaGfErrorMinus
	GeneUse
	ComplexUse
	IntervalUse
	LumpUse
	GenomeCuts
)

// String names a VariableKind for logging and LP-file emission.
func (k VariableKind) String() string {
	switch k {
	case Flux:
		return "FLUX"
	case ForwardFlux:
		return "FORWARD_FLUX"
	case ReverseFlux:
		return "REVERSE_FLUX"
	case ReactionUse:
		return "REACTION_USE"
	case ForwardUse:
		return "FORWARD_USE"
	case ReverseUse:
		return "REVERSE_USE"
	case DrainFlux:
		return "DRAIN_FLUX"
	case ForwardDrainFlux:
		return "FORWARD_DRAIN_FLUX"
	case ReverseDrainFlux:
		return "REVERSE_DRAIN_FLUX"
	case DrainUse:
		return "DRAIN_USE"
	case ForwardDrainUse:
		return "FORWARD_DRAIN_USE"
	case ReverseDrainUse:
		return "REVERSE_DRAIN_USE"
	case DeltaG:
		return "DELTAG"
	case ReactionDeltaGError:
		return "REACTION_DELTAG_ERROR"
	case ReactionDeltaGErrorPlus:
		return "REACTION_DELTAG_ERROR_PLUS"
	case ReactionDeltaGErrorMinus:
		return "REACTION_DELTAG_ERROR_MINUS"
	case ReactionDeltaGErrorUse:
		return "REACTION_DELTAG_ERROR_USE"
	case Potential:
		return "POTENTIAL"
	case LogConcentration:
		return "LOG_CONC"
	case Concentration:
		return "CONC"
	case DeltaGfError:
		return "DELTAGF_ERROR"
	case DeltaGfErrorPlus:
		return "DELTAGF_ERROR_PLUS"
	case DeltaGfErrorMinus:
		return "DELTAGF_ERROR_MINUS"
	case GeneUse:
		return "GENE_USE"
	case ComplexUse:
		return "COMPLEX_USE"
	case IntervalUse:
		return "INTERVAL_USE"
	case LumpUse:
		return "LUMP_USE"
	case GenomeCuts:
		return "GENOME_CUTS"
	default:
		return "UNKNOWN"
	}
}

// DomainObjectKind tags which kind of domain aggregate a Variable is
// associated with, so a generic consumer (LP writer, classifier) can find
// its identifier without a type switch on the aggregate itself.
type DomainObjectKind int

const (
	NoDomainObject DomainObjectKind = iota
	CompoundObject
	ReactionObject
	GeneObject
	IntervalObject
)

// Bounds is a closed numeric interval; Min must never exceed Max on a
// well-formed Variable — the builder reports a violation rather than
// constructing one.
type Bounds struct {
	Min float64
	Max float64
}

// Variable is one decision-variable column.
type Variable struct {
	Kind VariableKind

	// Name is the builder-assigned LP column name, unique within one
	// ProblemState.
	Name string

	// DomainKind/DomainID identify the compound/reaction/gene/interval this
	// variable is attached to, if any; NoDomainObject/"" for variables with
	// no single domain owner (e.g. a nested complex-use variable).
	DomainKind DomainObjectKind
	DomainID   string

	// CompartmentID is set for per-compartment variables (POTENTIAL,
	// LOG_CONC, CONC); empty otherwise.
	CompartmentID ids.CompartmentID

	// Hard are the bounds the builder assigned at construction time —
	// never overwritten by a solve.
	Hard Bounds

	// Tight holds the computed min/max from the most recent FVA pass.
	// TightSet is false until FindTightBounds has run for this variable.
	Tight    Bounds
	TightSet bool

	Integer bool
	Binary  bool

	// SolverIndex is this variable's column index in the solver it was
	// last loaded into, or -1 if never loaded. A solver reset leaves it
	// in place, so a solution read after the reset still finds its value; a
	// backend that reloads the variable checks its own table before reusing
	// the index.
	SolverIndex int
}

// NewVariable constructs a Variable with SolverIndex unset.
func NewVariable(kind VariableKind, name string, bounds Bounds) *Variable {
	return &Variable{
		Kind:        kind,
		Name:        name,
		Hard:        bounds,
		SolverIndex: -1,
	}
}

// IsLoaded reports whether the variable currently has a column in some
// solver session.
func (v *Variable) IsLoaded() bool { return v.SolverIndex >= 0 }

// ClearSolverIndex resets the variable to the unloaded state. The solver
// facade's Reset does not call it.
func (v *Variable) ClearSolverIndex() { v.SolverIndex = -1 }

// EffectiveBounds returns Tight if FindTightBounds has computed it,
// otherwise Hard — the bounds a builder should load into the solver when
// "use tight bounds" is requested.
func (v *Variable) EffectiveBounds() Bounds {
	if v.TightSet {
		return v.Tight
	}
	return v.Hard
}
