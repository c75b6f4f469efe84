// Package compartment models the physical cellular regions (cytosol,
// periplasm, extracellular space, and so on) that every Compound subrecord
// and Reaction reactant is placed in. Compartments are declared once from a
// static table at model load and are immutable thereafter; they carry the
// pH, ionic strength, and free-concentration bounds used by the
// thermodynamic feasibility constraints in internal/builder.
package compartment

import (
	"fmt"
	"strings"

	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// DefaultAbbreviation is the abbreviation of the distinguished default
// compartment assigned to a reactant or reaction whose compartment is
// unspecified.
const DefaultAbbreviation = "c"

// ConcRange is a per-metabolite concentration override within a compartment,
// expressed in the same units as Compartment.MaxConc/MinConc (molar).
type ConcRange struct {
	Min float64
	Max float64
}

// Compartment is an immutable value object describing one cellular region.
type Compartment struct {
	id ids.CompartmentID

	// Abbreviation is the short identifier ("c", "e", "p", ...) used to
	// qualify compound and reaction names and to look compartments up by
	// reference. It is unique within a Registry.
	Abbreviation string

	// Name is the human-readable compartment name ("Cytosol", "Extracellular").
	Name string

	// PH is the compartment's resting pH, used to select the dominant
	// protonation state of a compound placed in it.
	PH float64

	// IonicStrength is used by the group-contribution ΔGf correction.
	IonicStrength float64

	// MaxConc and MinConc bound free metabolite concentration in this
	// compartment absent a per-metabolite override.
	MaxConc float64
	MinConc float64

	// DPsiConst and DPsiCoef are the constant and pH-linear terms of this
	// compartment's contribution to the membrane-potential affine model.
	// A transport reaction's total DeltaPsi is the difference of these
	// terms between its destination and source compartments; see
	// PsiConstDelta and PsiCoefDelta.
	DPsiConst float64
	DPsiCoef  float64

	// index is this compartment's position in the Registry it was declared
	// in, used as the stable integer handle on builder/solver hot paths.
	index int

	// overrides maps a compound name to a per-compartment concentration
	// range that takes precedence over MaxConc/MinConc.
	overrides map[string]ConcRange
}

// ID returns the compartment's identifier.
func (c *Compartment) ID() ids.CompartmentID { return c.id }

// Index returns this compartment's stable position within its Registry.
func (c *Compartment) Index() int { return c.index }

// ConcentrationBounds returns the effective [min, max] free-concentration
// range for compoundName in this compartment: the per-metabolite override if
// one was declared, otherwise the compartment default.
func (c *Compartment) ConcentrationBounds(compoundName string) (min, max float64) {
	if r, ok := c.overrides[compoundName]; ok {
		return r.Min, r.Max
	}
	return c.MinConc, c.MaxConc
}

// PsiConstDelta and PsiCoefDelta together give the affine membrane-potential
// difference for a transport reaction moving a reactant from src to c
// (destination): ΔΨ(pH) = PsiConstDelta + PsiCoefDelta·pH.
func (c *Compartment) PsiConstDelta(src *Compartment) float64 {
	return c.DPsiConst - src.DPsiConst
}

func (c *Compartment) PsiCoefDelta(src *Compartment) float64 {
	return c.DPsiCoef - src.DPsiCoef
}

// Declaration is the static input used to construct a Compartment, mirroring
// one row of the compartment declaration table loaded at model startup.
type Declaration struct {
	Abbreviation  string
	Name          string
	PH            float64
	IonicStrength float64
	MaxConc       float64
	MinConc       float64
	DPsiConst     float64
	DPsiCoef      float64
	Overrides     map[string]ConcRange
}

// New validates decl and constructs a standalone Compartment not yet bound
// to a Registry (Index is 0). Registry.Declare is the normal construction
// path; New is exposed for unit tests and for building a single compartment
// outside of a full registry.
func New(decl Declaration) (*Compartment, error) {
	abbr := strings.TrimSpace(decl.Abbreviation)
	if abbr == "" {
		return nil, mfaerr.InvalidParam("compartment: abbreviation cannot be empty")
	}
	if decl.MaxConc < decl.MinConc {
		return nil, mfaerr.InvalidParam(fmt.Sprintf(
			"compartment %q: max concentration %g is below min concentration %g", abbr, decl.MaxConc, decl.MinConc))
	}

	overrides := decl.Overrides
	if overrides == nil {
		overrides = make(map[string]ConcRange)
	}

	return &Compartment{
		id:            ids.CompartmentID(abbr),
		Abbreviation:  abbr,
		Name:          decl.Name,
		PH:            decl.PH,
		IonicStrength: decl.IonicStrength,
		MaxConc:       decl.MaxConc,
		MinConc:       decl.MinConc,
		DPsiConst:     decl.DPsiConst,
		DPsiCoef:      decl.DPsiCoef,
		overrides:     overrides,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Registry — the interned compartment table
// ─────────────────────────────────────────────────────────────────────────────

// Registry is the per-run interned compartment table described in the
// design notes: rather than a process-wide singleton, each analysis context
// owns its own Registry built once at model load and treated as read-only
// thereafter.
type Registry struct {
	byAbbr []*Compartment // indexed by Compartment.index, duplicated in the map below for O(1) lookup
	lookup map[string]*Compartment
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{lookup: make(map[string]*Compartment)}
}

// Declare validates decl, assigns it the next stable index, and adds it to
// the registry. Declaring two compartments with the same abbreviation is a
// conflict, since abbreviations are the registry's lookup key.
func (r *Registry) Declare(decl Declaration) (*Compartment, error) {
	c, err := New(decl)
	if err != nil {
		return nil, err
	}
	if _, exists := r.lookup[c.Abbreviation]; exists {
		return nil, mfaerr.Conflict(fmt.Sprintf("compartment: abbreviation %q already declared", c.Abbreviation))
	}
	c.index = len(r.byAbbr)
	r.byAbbr = append(r.byAbbr, c)
	r.lookup[c.Abbreviation] = c
	return c, nil
}

// Get returns the compartment with the given abbreviation.
func (r *Registry) Get(abbreviation string) (*Compartment, error) {
	c, ok := r.lookup[abbreviation]
	if !ok {
		return nil, mfaerr.New(mfaerr.CodeCompartmentNotFound, "compartment: no compartment with abbreviation "+abbreviation)
	}
	return c, nil
}

// ByIndex returns the compartment at the given stable index.
func (r *Registry) ByIndex(index int) (*Compartment, error) {
	if index < 0 || index >= len(r.byAbbr) {
		return nil, mfaerr.New(mfaerr.CodeCompartmentNotFound, fmt.Sprintf("compartment: index %d out of range", index))
	}
	return r.byAbbr[index], nil
}

// Default returns the registry's distinguished default compartment
// (abbreviation "c"), used when a reactant or reaction omits one.
func (r *Registry) Default() (*Compartment, error) {
	return r.Get(DefaultAbbreviation)
}

// Len returns the number of declared compartments.
func (r *Registry) Len() int { return len(r.byAbbr) }

// All returns every declared compartment, ordered by index.
func (r *Registry) All() []*Compartment {
	out := make([]*Compartment, len(r.byAbbr))
	copy(out, r.byAbbr)
	return out
}
