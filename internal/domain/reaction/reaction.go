// Package reaction models the Reaction aggregate: a stoichiometric
// transformation between compounds across one or more compartments, its
// thermodynamic estimate, its gene-protein-reaction association, and the
// reversal/clone/balance operations the builder and analysis layers drive it
// through.
package reaction

import (
	"fmt"
	"math"

	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Directionality classifies which way a reaction is allowed to carry flux.
type Directionality int

const (
	// Reversible reactions may carry flux in either direction.
	Reversible Directionality = iota
	// ForwardOnly reactions may only carry flux left-to-right as declared.
	ForwardOnly
	// ReverseOnly reactions may only carry flux right-to-left; GetReverse
	// assigns this to the reversed half of an originally-reversible pair.
	ReverseOnly
)

// reactantCofactorOffset marks a reactant as a cofactor by storing its
// compartment index shifted by this amount, mirroring the
// ReactCompartments[i] >= 1000 convention used to flag cofactor reactants
// without a separate boolean column per entry.
const reactantCofactorOffset = 1000

// Reactant is one entry in a reaction's combined reactant/product list.
type Reactant struct {
	CompoundID    ids.CompoundID
	Coefficient   float64
	CompartmentID ids.CompartmentID
	// compartmentIndex carries the cofactor flag via reactantCofactorOffset;
	// callers never see it directly, only through IsCofactor.
	compartmentIndex int
	IsCofactor       bool
}

// Reaction is the aggregate root for a stoichiometric transformation.
type Reaction struct {
	id ids.ReactionID

	Name string

	// reactants holds reactants and products in one contiguous list, split
	// at numReactants: entries before the split are consumed, entries at or
	// after it are produced. Mirrors the original toolkit's single
	// Reactants vector with a NumReactants split index, which keeps a
	// reaction's full participant list as one slice instead of two that
	// must be kept in sync.
	reactants    []Reactant
	numReactants int

	Direction Directionality

	EstDeltaG            *float64
	EstDeltaGUncertainty *float64

	Cues []ReactionCueContribution

	GeneLogic *GeneLogicNode

	index int
}

// ReactionCueContribution records that a reaction's ΔG adjustment decomposes
// into Count copies of the structural cue identified by CueID, the
// reaction-level analogue of compound.CueContribution.
type ReactionCueContribution struct {
	CueID ids.CompoundID
	Count int
}

// ID returns the reaction's identifier.
func (r *Reaction) ID() ids.ReactionID { return r.id }

// Index returns this reaction's stable position in the arena it was added
// to, or -1 if it has not been added to one.
func (r *Reaction) Index() int { return r.index }

// SetIndex assigns the reaction's stable arena index. Called once by the
// owning arena on Add.
func (r *Reaction) SetIndex(idx int) { r.index = idx }

// ReactantDeclaration is one reactant or product supplied at construction.
type ReactantDeclaration struct {
	CompoundID    ids.CompoundID
	Coefficient   float64
	CompartmentID ids.CompartmentID
	IsCofactor    bool
}

// Declaration is the static input used to construct a Reaction.
type Declaration struct {
	ID        ids.ReactionID
	Name      string
	Direction Directionality

	// Reactants are consumed (negative net flux contribution); Products are
	// produced. Both are supplied separately here and merged into the
	// combined internal list by New.
	Reactants []ReactantDeclaration
	Products  []ReactantDeclaration

	EstDeltaG            *float64
	EstDeltaGUncertainty *float64

	GeneAssociation string
}

// New validates decl and constructs a Reaction, parsing decl.GeneAssociation
// into a consolidated gene-logic tree if non-empty.
func New(decl Declaration) (*Reaction, error) {
	if decl.ID == "" {
		return nil, mfaerr.InvalidParam("reaction: id cannot be empty")
	}
	if len(decl.Reactants) == 0 && len(decl.Products) == 0 {
		return nil, mfaerr.InvalidParam(fmt.Sprintf("reaction %s: no reactants or products", decl.ID))
	}
	if decl.EstDeltaGUncertainty != nil && *decl.EstDeltaGUncertainty < 0 {
		return nil, mfaerr.InvalidParam(fmt.Sprintf("reaction %s: negative deltaG uncertainty %g", decl.ID, *decl.EstDeltaGUncertainty))
	}

	combined := make([]Reactant, 0, len(decl.Reactants)+len(decl.Products))
	for _, rd := range decl.Reactants {
		combined = append(combined, toReactant(rd))
	}
	for _, pd := range decl.Products {
		combined = append(combined, toReactant(pd))
	}

	var logic *GeneLogicNode
	if decl.GeneAssociation != "" {
		var err error
		logic, err = ParseGeneLogic(decl.GeneAssociation)
		if err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeGeneLogicInvalid, "reaction "+string(decl.ID)+": gene association")
		}
	}

	return &Reaction{
		id:                   decl.ID,
		Name:                 decl.Name,
		reactants:            combined,
		numReactants:         len(decl.Reactants),
		Direction:            decl.Direction,
		EstDeltaG:            decl.EstDeltaG,
		EstDeltaGUncertainty: decl.EstDeltaGUncertainty,
		GeneLogic:            logic,
		index:                -1,
	}, nil
}

func toReactant(rd ReactantDeclaration) Reactant {
	idx := 0
	if rd.IsCofactor {
		idx = reactantCofactorOffset
	}
	return Reactant{
		CompoundID:       rd.CompoundID,
		Coefficient:      rd.Coefficient,
		CompartmentID:    rd.CompartmentID,
		compartmentIndex: idx,
		IsCofactor:       rd.IsCofactor,
	}
}

// Reactants returns the consumed side of the reaction.
func (r *Reaction) Reactants() []Reactant {
	return append([]Reactant(nil), r.reactants[:r.numReactants]...)
}

// Products returns the produced side of the reaction.
func (r *Reaction) Products() []Reactant {
	return append([]Reactant(nil), r.reactants[r.numReactants:]...)
}

// All returns every participant, reactants followed by products.
func (r *Reaction) All() []Reactant {
	return append([]Reactant(nil), r.reactants...)
}

// IsReactantCofactor reports whether the participant at idx (into the
// combined All() list) is flagged as a cofactor.
func (r *Reaction) IsReactantCofactor(idx int) bool {
	if idx < 0 || idx >= len(r.reactants) {
		return false
	}
	return r.reactants[idx].compartmentIndex >= reactantCofactorOffset
}

// AddCue records that the reaction's ΔG decomposes into count copies of the
// structural cue identified by cueID.
func (r *Reaction) AddCue(cueID ids.CompoundID, count int) {
	r.Cues = append(r.Cues, ReactionCueContribution{CueID: cueID, Count: count})
}

// ReactionCueLookup resolves a cue's own ΔGf estimate, the reaction-level
// analogue of compound.CueLookup.
type ReactionCueLookup func(ids.CompoundID) (energy float64, uncertainty float64, err error)

// ComposeGroupEnergy derives (energy, uncertainty) from the reaction's cue
// decomposition using the same quadrature-sum rule as compound.Compound, with
// one addition: per the original toolkit's reaction-level uncertainty
// routine, a reaction whose computed uncertainty comes out to exactly zero
// is assigned an uncertainty of 2 rather than 0, since a reaction touching no
// energy-bearing groups is not truly error-free. If the reaction already
// carries a direct EstDeltaG, that value is returned unchanged and lookup is
// never called.
func (r *Reaction) ComposeGroupEnergy(lookup ReactionCueLookup) (energy, uncertainty float64, err error) {
	if r.EstDeltaG != nil {
		u := 0.0
		if r.EstDeltaGUncertainty != nil {
			u = *r.EstDeltaGUncertainty
		}
		return *r.EstDeltaG, u, nil
	}
	if len(r.Cues) == 0 {
		return 0, 2, nil
	}

	var sumEnergy float64
	var sumVariance float64
	for _, contrib := range r.Cues {
		e, u, err := lookup(contrib.CueID)
		if err != nil {
			return 0, 0, mfaerr.Wrap(err, mfaerr.CodeMissingEnergy, "reaction "+string(r.id)+": cue lookup failed")
		}
		count := float64(contrib.Count)
		sumEnergy += count * e
		sumVariance += count * count * u * u
	}

	uncertainty = math.Sqrt(sumVariance)
	if uncertainty == 0 {
		uncertainty = 2
	}
	return sumEnergy, uncertainty, nil
}

// Reverse returns a new Reaction with every participant's coefficient
// negated and the direction flipped, and sets r's own Direction to
// ForwardOnly. The returned reaction carries id with a "_rev" suffix and
// Direction ReverseOnly; callers add it to the same database as a distinct
// entry rather than mutating r in place.
func (r *Reaction) Reverse() *Reaction {
	reversed := r.Clone()
	reversed.id = ids.ReactionID(string(r.id) + "_rev")
	for i := range reversed.reactants {
		reversed.reactants[i].Coefficient = -reversed.reactants[i].Coefficient
	}
	reversed.Direction = ReverseOnly
	reversed.index = -1
	r.Direction = ForwardOnly
	return reversed
}

// Clone returns a deep copy of r with the same identifier, suitable for
// building an alternate model variant without mutating the original
// database's reaction.
func (r *Reaction) Clone() *Reaction {
	clone := *r
	clone.reactants = append([]Reactant(nil), r.reactants...)
	clone.Cues = append([]ReactionCueContribution(nil), r.Cues...)
	if r.GeneLogic != nil {
		clone.GeneLogic = r.GeneLogic.Clone()
	}
	return &clone
}

// CheckBalance sums, per compound, the net stoichiometric coefficient across
// all participants and reports every compound whose net contribution is not
// within tol of zero. An empty result means the reaction is mass-balanced
// under the supplied coefficients. Only compounds appearing in the same
// compartment are netted together; the same compound in two different
// compartments (a transport reaction) is tracked separately, matching the
// original toolkit's per-compartment balance accounting.
func (r *Reaction) CheckBalance(tol float64) map[string]float64 {
	totals := make(map[string]float64)
	for _, react := range r.reactants {
		key := string(react.CompoundID) + "@" + string(react.CompartmentID)
		totals[key] += react.Coefficient
	}
	violations := make(map[string]float64)
	for key, total := range totals {
		if math.Abs(total) > tol {
			violations[key] = total
		}
	}
	return violations
}

// IsBalanced reports whether CheckBalance finds no violation exceeding tol.
func (r *Reaction) IsBalanced(tol float64) bool {
	return len(r.CheckBalance(tol)) == 0
}

// Combine merges other's reactants and products into r, adding coefficients
// where the same compound appears in the same compartment on the same side
// of both reactions (entries whose net coefficient becomes zero are kept,
// not pruned, leaving that cancellation visible to a subsequent
// CheckBalance). Gene logic is combined with an implicit AND: both genetic
// loci must retain catalytic capability for the combined reaction to
// proceed.
func (r *Reaction) Combine(other *Reaction) {
	type sideKey struct {
		id   ids.CompoundID
		comp ids.CompartmentID
	}

	mergeSide := func(existing []Reactant, incoming []Reactant) []Reactant {
		index := make(map[sideKey]int, len(existing))
		for i, react := range existing {
			index[sideKey{react.CompoundID, react.CompartmentID}] = i
		}
		for _, react := range incoming {
			k := sideKey{react.CompoundID, react.CompartmentID}
			if i, ok := index[k]; ok {
				existing[i].Coefficient += react.Coefficient
				continue
			}
			index[k] = len(existing)
			existing = append(existing, react)
		}
		return existing
	}

	reactants := mergeSide(r.Reactants(), other.Reactants())
	products := mergeSide(r.Products(), other.Products())

	r.reactants = append(reactants, products...)
	r.numReactants = len(reactants)

	if other.GeneLogic != nil {
		if r.GeneLogic == nil {
			r.GeneLogic = other.GeneLogic.Clone()
		} else {
			r.GeneLogic = &GeneLogicNode{
				Logic:    LogicAnd,
				Children: []*GeneLogicNode{r.GeneLogic, other.GeneLogic.Clone()},
			}
			consolidate(r.GeneLogic)
		}
	}
}
