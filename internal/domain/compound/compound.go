// Package compound models the Compound (Species) aggregate: a chemical
// entity with a formula, formal charge, estimated standard Gibbs free
// energy of formation, ordered protonation points, and structural-cue
// (group) decomposition used to derive energy and charge when no direct
// measurement is available.
package compound

import (
	"fmt"
	"math"

	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// ProtonationPoint is one entry in a compound's ordered pKa or pKb list: the
// equilibrium constant paired with the index of the atom it attaches to.
type ProtonationPoint struct {
	Value     float64
	AtomIndex int
}

// CueContribution records that a compound decomposes into Count copies of
// the structural cue identified by CueID, used to derive ΔGf and charge by
// group contribution when the compound has no direct estimate of its own.
type CueContribution struct {
	CueID ids.CompoundID
	Count int
}

// CompartmentState is the per-compartment sub-record attached to a compound:
// a handle to the decision variable (log-concentration or concentration)
// the builder allocates for this compound in that compartment. VariableIndex
// is -1 until the builder has loaded it.
type CompartmentState struct {
	CompartmentID ids.CompartmentID
	VariableIndex int
}

// Compound is the aggregate root for a chemical entity.
type Compound struct {
	id ids.CompoundID

	Name    string
	Formula string

	// Charge is the formal charge at the compound's reference pH.
	Charge int

	// EstDeltaG and EstDeltaGUncertainty are nil when no estimate is
	// available directly on this compound — ComposeGroupEnergy derives them
	// from Cues in that case.
	EstDeltaG            *float64
	EstDeltaGUncertainty *float64

	MolecularWeight float64

	IsCofactor      bool
	IsSmallMolecule bool

	pKa []ProtonationPoint
	pKb []ProtonationPoint

	Cues []CueContribution

	compartments map[ids.CompartmentID]*CompartmentState

	index int
}

// ID returns the compound's identifier.
func (c *Compound) ID() ids.CompoundID { return c.id }

// Index returns this compound's stable position in the arena it was added
// to, or -1 if it has not been added to one.
func (c *Compound) Index() int { return c.index }

// Declaration is the static input used to construct a Compound.
type Declaration struct {
	ID              ids.CompoundID
	Name            string
	Formula         string
	Charge          int
	EstDeltaG       *float64
	EstDeltaGUncertainty *float64
	MolecularWeight float64
	IsCofactor      bool
	IsSmallMolecule bool
}

// New validates decl and constructs a Compound.
func New(decl Declaration) (*Compound, error) {
	if decl.ID == "" {
		return nil, mfaerr.InvalidParam("compound: id cannot be empty")
	}
	if decl.EstDeltaGUncertainty != nil && *decl.EstDeltaGUncertainty < 0 {
		return nil, mfaerr.InvalidParam(fmt.Sprintf("compound %s: negative deltaG uncertainty %g", decl.ID, *decl.EstDeltaGUncertainty))
	}

	return &Compound{
		id:                   decl.ID,
		Name:                 decl.Name,
		Formula:              decl.Formula,
		Charge:               decl.Charge,
		EstDeltaG:            decl.EstDeltaG,
		EstDeltaGUncertainty: decl.EstDeltaGUncertainty,
		MolecularWeight:      decl.MolecularWeight,
		IsCofactor:           decl.IsCofactor,
		IsSmallMolecule:      decl.IsSmallMolecule,
		compartments:         make(map[ids.CompartmentID]*CompartmentState),
		index:                -1,
	}, nil
}

// SetIndex assigns the compound's stable arena index. It is called once by
// the owning arena on Add and must not be called afterwards.
func (c *Compound) SetIndex(idx int) { c.index = idx }

// AddPKa appends a protonation point to the compound's ordered pKa list.
func (c *Compound) AddPKa(value float64, atomIndex int) {
	c.pKa = append(c.pKa, ProtonationPoint{Value: value, AtomIndex: atomIndex})
}

// AddPKb appends a protonation point to the compound's ordered pKb list.
func (c *Compound) AddPKb(value float64, atomIndex int) {
	c.pKb = append(c.pKb, ProtonationPoint{Value: value, AtomIndex: atomIndex})
}

// PKa returns the compound's ordered pKa list.
func (c *Compound) PKa() []ProtonationPoint { return append([]ProtonationPoint(nil), c.pKa...) }

// PKb returns the compound's ordered pKb list.
func (c *Compound) PKb() []ProtonationPoint { return append([]ProtonationPoint(nil), c.pKb...) }

// AddCue records that the compound decomposes into count copies of the
// structural cue identified by cueID.
func (c *Compound) AddCue(cueID ids.CompoundID, count int) {
	c.Cues = append(c.Cues, CueContribution{CueID: cueID, Count: count})
}

// EnsureCompartment returns the compound's sub-record for compartmentID,
// creating an empty one (VariableIndex -1) if this is the first reference to
// the compound in that compartment.
func (c *Compound) EnsureCompartment(compartmentID ids.CompartmentID) *CompartmentState {
	if st, ok := c.compartments[compartmentID]; ok {
		return st
	}
	st := &CompartmentState{CompartmentID: compartmentID, VariableIndex: -1}
	c.compartments[compartmentID] = st
	return st
}

// CompartmentState returns the compound's sub-record for compartmentID, and
// false if the compound has never been referenced in that compartment.
func (c *Compound) CompartmentState(compartmentID ids.CompartmentID) (*CompartmentState, bool) {
	st, ok := c.compartments[compartmentID]
	return st, ok
}

// Compartments returns every compartment the compound currently has a
// sub-record in.
func (c *Compound) Compartments() []ids.CompartmentID {
	out := make([]ids.CompartmentID, 0, len(c.compartments))
	for k := range c.compartments {
		out = append(out, k)
	}
	return out
}

// CueLookup looks a cue up by CueID and returns it, carrying its own ΔGf; cues are
// themselves Compounds that have a direct EstDeltaG rather than a further
// decomposition.
type CueLookup func(ids.CompoundID) (*Compound, error)

// ComposeGroupEnergy derives (energy, uncertainty) from the compound's cue
// decomposition: energy = Σ(count · cue energy), uncertainty =
// sqrt(Σ(count² · cue uncertainty²)). If the compound already carries a
// direct EstDeltaG, that value is returned unchanged and lookup is never
// called. Returns mfaerr.CodeMissingEnergy if a referenced cue has no direct
// EstDeltaG of its own; a cue's own decomposition is not consulted.
func (c *Compound) ComposeGroupEnergy(lookup CueLookup) (energy, uncertainty float64, err error) {
	if c.EstDeltaG != nil {
		u := 0.0
		if c.EstDeltaGUncertainty != nil {
			u = *c.EstDeltaGUncertainty
		}
		return *c.EstDeltaG, u, nil
	}
	if len(c.Cues) == 0 {
		return 0, 0, mfaerr.New(mfaerr.CodeMissingEnergy, "compound "+string(c.id)+": no direct energy estimate and no cue decomposition")
	}

	var sumEnergy float64
	var sumVariance float64
	for _, contrib := range c.Cues {
		cue, err := lookup(contrib.CueID)
		if err != nil {
			return 0, 0, mfaerr.Wrap(err, mfaerr.CodeMissingEnergy, "compound "+string(c.id)+": cue lookup failed")
		}
		if cue.EstDeltaG == nil {
			return 0, 0, mfaerr.New(mfaerr.CodeMissingEnergy, "compound "+string(c.id)+": cue "+string(contrib.CueID)+" has no direct energy estimate")
		}
		count := float64(contrib.Count)
		sumEnergy += count * (*cue.EstDeltaG)
		if cue.EstDeltaGUncertainty != nil {
			sumVariance += count * count * (*cue.EstDeltaGUncertainty) * (*cue.EstDeltaGUncertainty)
		}
	}
	return sumEnergy, math.Sqrt(sumVariance), nil
}

// ComposeGroupCharge derives the compound's formal charge from its cue
// decomposition: charge = Σ(count · cue charge). Used to cross-check a
// directly assigned Charge when the compound also carries a decomposition.
func (c *Compound) ComposeGroupCharge(lookup CueLookup) (int, error) {
	if len(c.Cues) == 0 {
		return c.Charge, nil
	}
	total := 0
	for _, contrib := range c.Cues {
		cue, err := lookup(contrib.CueID)
		if err != nil {
			return 0, mfaerr.Wrap(err, mfaerr.CodeMissingEnergy, "compound "+string(c.id)+": cue lookup failed")
		}
		total += contrib.Count * cue.Charge
	}
	return total, nil
}

// Clone returns a deep copy of c with the same identifier, suitable for
// building an alternate model variant without mutating the original
// database's compound.
func (c *Compound) Clone() *Compound {
	clone := *c
	clone.pKa = append([]ProtonationPoint(nil), c.pKa...)
	clone.pKb = append([]ProtonationPoint(nil), c.pKb...)
	clone.Cues = append([]CueContribution(nil), c.Cues...)
	clone.compartments = make(map[ids.CompartmentID]*CompartmentState, len(c.compartments))
	for k, v := range c.compartments {
		st := *v
		clone.compartments[k] = &st
	}
	return &clone
}
