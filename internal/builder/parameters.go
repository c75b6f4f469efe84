// Package builder constructs a model.ProblemState from the domain model
// (compartments, compounds, reactions, genes, intervals) under a declarative
// Parameters record, the Go analogue of the original toolkit's
// OptimizationParameter bag and its ProblemManager::BuildMFAProblem pass.
package builder

import "github.com/turtacn/mfa-engine/pkg/ids"

// BoundOverride is a hard [min,max] replacement for one variable, used by
// UserBounds.
type BoundOverride struct {
	Min float64
	Max float64
}

// KOSet names a set of reactions or genes to force inactive together, used
// by deletion experiments and combinatorial knockout sweeps.
type KOSet struct {
	Name      ids.RunID
	Reactions []ids.ReactionID
	Genes     []ids.GeneID
}

// RawConstraint is a caller-supplied constraint added verbatim by name,
// expressed directly over builder-known variable references rather than
// domain objects, for callers that need a row the declarative options don't
// cover (AddConstraints/ModConstraints in spec terms).
type RawConstraint struct {
	Name     string
	RHS      float64
	Equality string // "<=", ">=", "="
	Terms    []RawTerm
	Replace  bool // ModConstraints semantics: rewrite an existing row of this name
}

// VariableRef names a variable by (domain kind, domain id, compartment)
// rather than by *model.Variable, so Parameters stays free of the model
// package's decision-variable pointers until Build resolves them.
type VariableRef struct {
	DomainKind    DomainRef
	DomainID      string
	CompartmentID ids.CompartmentID
}

// RawTerm is one (variable reference, coefficient) pair in a RawConstraint.
type RawTerm struct {
	Ref         VariableRef
	Coefficient float64
}

// DomainRef tags which domain aggregate a RawTerm or ExchangeOverride
// refers to.
type DomainRef int

const (
	RefNone DomainRef = iota
	RefCompound
	RefReaction
	RefGene
	RefInterval
)

// ExchangeOverride narrows or widens one compound's drain bounds in one
// compartment, overriding the builder's default exchange bounds.
type ExchangeOverride struct {
	CompoundID    ids.CompoundID
	CompartmentID ids.CompartmentID
	Min           float64
	Max           float64
}

// Parameters is the full set of recognized options from the original
// toolkit's OptimizationParameter record. Rectify enforces the implication
// rules between them before Build consumes them.
type Parameters struct {
	// Constraint-emission toggles.
	MassBalanceConstraints       bool
	DecomposeReversible          bool
	ReactionsUse                 bool
	AllReactionsUse              bool
	DrainUseVar                  bool
	AllDrainUse                  bool
	ThermoConstraints            bool
	SimpleThermoConstraints      bool
	DeltaGError                  bool
	ReactionErrorUseVariables    bool
	GeneConstraints              bool

	// Formulation mode switches.
	IntervalOptimization  bool
	GeneOptimization      bool
	DeletionOptimization  bool
	RelaxIntegerVariables bool

	// Stoichiometry preprocessing flags.
	DecomposeDrain   bool
	AllReversible    bool
	IncludeDeadEnds  bool

	// Numeric defaults, applied to every variable of the matching kind
	// absent a more specific override.
	MaxFlux      float64
	MinFlux      float64
	MaxDrainFlux float64
	MinDrainFlux float64
	MaxError     float64
	ErrorMult    float64
	MaxPotential float64
	MinPotential float64
	Temperature  float64

	// Per-compound drain overrides.
	ExchangeSpecies []ExchangeOverride

	// Forced-zero sets and deletion studies.
	KOReactions []ids.ReactionID
	KOGenes     []ids.GeneID
	KOSets      []KOSet

	// Hard bound overrides, ternary over direction: a Forward mask acts on
	// the forward half (blocking clamps max to 0, always-active reopens max
	// to MaxFlux), a ReverseDir mask on the reverse half (blocking clamps
	// min to 0, always-active reopens min to MinFlux); Both blocks/forces the
	// full reaction.
	BlockedReactions      map[ids.ReactionID]DirectionMask
	AlwaysActiveReactions map[ids.ReactionID]DirectionMask

	// Raw user-supplied additions.
	AddConstraints []RawConstraint
	ModConstraints []RawConstraint
	UserBounds     map[VariableRef]BoundOverride

	// FVA / near-optimum slack.
	OptimalObjectiveFraction float64

	// Recursive MILP enumeration parameters.
	RecursiveMILPTypes         []ids.ReactionID
	RecursiveMILPSolutionLimit int
	SolutionSizeInterval       float64
}

// DirectionMask selects which half of a reversible reaction a blocked/
// always-active override applies to.
type DirectionMask int

const (
	// Forward applies the override to the forward-flux half only.
	Forward DirectionMask = 1 << iota
	// ReverseDir applies the override to the reverse-flux half only.
	ReverseDir
)

// Both is shorthand for Forward|ReverseDir, applying to the whole reaction.
const Both = Forward | ReverseDir

// Default returns the baseline Parameters the original toolkit ships:
// mass balance on, no decomposition, generous flux bounds, no use/thermo/
// gene machinery, full-strength objective pin for FVA.
func Default() Parameters {
	return Parameters{
		MassBalanceConstraints:   true,
		MaxFlux:                  1000,
		MinFlux:                  -1000,
		MaxDrainFlux:             1000,
		MinDrainFlux:             -1000,
		MaxError:                 20,
		ErrorMult:                3,
		MaxPotential:             1000,
		MinPotential:             -1000,
		Temperature:              298.15,
		OptimalObjectiveFraction: 1.0,
		UserBounds:               make(map[VariableRef]BoundOverride),
		BlockedReactions:         make(map[ids.ReactionID]DirectionMask),
		AlwaysActiveReactions:    make(map[ids.ReactionID]DirectionMask),
	}
}
