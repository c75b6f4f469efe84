package builder

import (
	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/gene"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// fluxVarSet is every decision variable a Build pass attaches to one
// reaction. Reverse/Use/ReverseUse/DeltaG are nil unless the controlling
// Parameters option that allocates them was set.
type fluxVarSet struct {
	Forward    *model.Variable // the whole flux when not decomposed, otherwise its forward half
	Reverse    *model.Variable
	Use        *model.Variable // REACTION_USE, or FORWARD_USE when decomposed
	ReverseUse *model.Variable
	DeltaG     *model.Variable
	RootUse    *model.Variable // top-level gene-logic complex-use variable gating this reaction, if GeneConstraints

	// DeltaGErrorPlus/Minus/Use are only allocated when DeltaGError (and,
	// for Use, ReactionErrorUseVariables) is set — see thermo.go.
	DeltaGErrorPlus  *model.Variable
	DeltaGErrorMinus *model.Variable
	DeltaGErrorUse   *model.Variable
}

// compoundVarKey identifies a compound's per-compartment state: its
// concentration/potential variable, or (via drainVars) its exchange flux.
type compoundVarKey struct {
	CompoundID    ids.CompoundID
	CompartmentID ids.CompartmentID
}

// drainVarSet is the exchange (uptake/secretion) flux for one compound in
// one compartment.
type drainVarSet struct {
	Forward *model.Variable
	Reverse *model.Variable
	Use     *model.Variable
}

// Builder constructs a model.ProblemState from the domain model under a
// Parameters record, retaining the variable/constraint bookkeeping needed to
// support additive rebuilds (further Build calls after the initial one)
// without starting over, per spec.md's "building is additive" contract.
type Builder struct {
	compartments *compartment.Registry
	compounds    *compound.Database
	reactions    *reaction.Database
	genes        *gene.Database
	intervals    *gene.IntervalDatabase

	problem *model.ProblemState

	fluxVars        map[ids.ReactionID]*fluxVarSet
	drainVars       map[compoundVarKey]*drainVarSet
	concVars        map[compoundVarKey]*model.Variable // chemical-potential variable, per thermo.go
	logConcVars     map[compoundVarKey]*model.Variable // paired log-concentration variable, per thermo.go
	cpdErrorVars    map[compoundVarKey]*cpdErrorSet
	geneUseVars     map[ids.GeneID]*model.Variable
	intervalUseVars map[ids.IntervalID]*model.Variable
	complexUseVars  map[string]*model.Variable
}

// New constructs a Builder over the given domain databases, writing into
// problem. problem may already hold variables/constraints from a prior
// Build call — New never clears it.
func New(compartments *compartment.Registry, compounds *compound.Database, reactions *reaction.Database, genes *gene.Database, intervals *gene.IntervalDatabase, problem *model.ProblemState) *Builder {
	return &Builder{
		compartments:    compartments,
		compounds:       compounds,
		reactions:       reactions,
		genes:           genes,
		intervals:       intervals,
		problem:         problem,
		fluxVars:        make(map[ids.ReactionID]*fluxVarSet),
		drainVars:       make(map[compoundVarKey]*drainVarSet),
		concVars:        make(map[compoundVarKey]*model.Variable),
		logConcVars:     make(map[compoundVarKey]*model.Variable),
		cpdErrorVars:    make(map[compoundVarKey]*cpdErrorSet),
		geneUseVars:     make(map[ids.GeneID]*model.Variable),
		intervalUseVars: make(map[ids.IntervalID]*model.Variable),
		complexUseVars:  make(map[string]*model.Variable),
	}
}

// Problem returns the ProblemState this builder writes into.
func (b *Builder) Problem() *model.ProblemState { return b.problem }

// FluxVariable returns the forward (or, for a non-decomposed reaction, the
// whole) flux variable for reactionID, or nil if the reaction has not been
// built yet.
func (b *Builder) FluxVariable(reactionID ids.ReactionID) *model.Variable {
	if fv, ok := b.fluxVars[reactionID]; ok {
		return fv.Forward
	}
	return nil
}

// ReverseFluxVariable returns the reverse-flux half for a decomposed
// reaction, or nil.
func (b *Builder) ReverseFluxVariable(reactionID ids.ReactionID) *model.Variable {
	if fv, ok := b.fluxVars[reactionID]; ok {
		return fv.Reverse
	}
	return nil
}

// ReactionUseVariable returns the REACTION_USE (or FORWARD_USE) variable for
// reactionID, or nil if ReactionsUse was not requested.
func (b *Builder) ReactionUseVariable(reactionID ids.ReactionID) *model.Variable {
	if fv, ok := b.fluxVars[reactionID]; ok {
		return fv.Use
	}
	return nil
}

// GeneUseVariable returns the binary gene-active variable for geneID, or nil
// if GeneConstraints was not requested.
func (b *Builder) GeneUseVariable(geneID ids.GeneID) *model.Variable {
	return b.geneUseVars[geneID]
}

// IntervalUseVariable returns the binary interval-active variable for
// intervalID, or nil if none was built. Build allocates no interval-use
// variables, whatever IntervalOptimization is set to, so this returns nil.
func (b *Builder) IntervalUseVariable(intervalID ids.IntervalID) *model.Variable {
	return b.intervalUseVars[intervalID]
}

// DrainVariable returns the forward (or whole, when not decomposed) drain
// flux variable for a compound/compartment pair, or nil if no drain was
// built for it.
func (b *Builder) DrainVariable(compoundID ids.CompoundID, compartmentID ids.CompartmentID) *model.Variable {
	if dv, ok := b.drainVars[compoundVarKey{CompoundID: compoundID, CompartmentID: compartmentID}]; ok {
		return dv.Forward
	}
	return nil
}

// DrainUseVariable returns the binary drain-use variable for a
// compound/compartment pair, or nil if none was built.
func (b *Builder) DrainUseVariable(compoundID ids.CompoundID, compartmentID ids.CompartmentID) *model.Variable {
	if dv, ok := b.drainVars[compoundVarKey{CompoundID: compoundID, CompartmentID: compartmentID}]; ok {
		return dv.Use
	}
	return nil
}

// PotentialVariable returns the chemical-potential variable for a
// compound/compartment pair, or nil if no thermo constraint has referenced
// it yet.
func (b *Builder) PotentialVariable(compoundID ids.CompoundID, compartmentID ids.CompartmentID) *model.Variable {
	return b.concVars[compoundVarKey{CompoundID: compoundID, CompartmentID: compartmentID}]
}

// LogConcentrationVariable returns the log-concentration variable paired
// with a compound/compartment pair's potential, or nil if none was built
// (including for water, whose potential is pinned rather than derived).
func (b *Builder) LogConcentrationVariable(compoundID ids.CompoundID, compartmentID ids.CompartmentID) *model.Variable {
	return b.logConcVars[compoundVarKey{CompoundID: compoundID, CompartmentID: compartmentID}]
}

// ReactionIDs returns the ids of every reaction built so far, in no
// particular order — used by the orchestrator to enumerate default
// candidate sets for essentiality/enumeration sweeps.
func (b *Builder) ReactionIDs() []ids.ReactionID {
	out := make([]ids.ReactionID, 0, len(b.fluxVars))
	for id := range b.fluxVars {
		out = append(out, id)
	}
	return out
}

func newVar(kind model.VariableKind, name string, bounds model.Bounds) *model.Variable {
	return model.NewVariable(kind, name, bounds)
}
