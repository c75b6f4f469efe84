package builder

import (
	"math"

	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// Thermodynamic constants shared by every constraint this file builds.
// gasConstant is R in whatever energy unit EstDeltaG values are expressed
// in, per mole per Kelvin; debyeHuckelCoef/debyeHuckelB are the extended
// Debye-Huckel ionic-strength correction's standard coefficients, grounded
// on Species.cpp's AdjustedDeltaG. thermoBigM bounds DeltaG symmetrically
// and doubles as the big-M constant for feasibility rows; thermoEpsilon is
// the minimum magnitude a feasible forward or reverse DeltaG must clear.
const (
	gasConstant     = 8.314e-3
	debyeHuckelCoef = 0.6968
	debyeHuckelB    = 1.6
	thermoBigM      = 100000.0
	thermoEpsilon   = 1e-6
	concFloor       = 1e-9
)

// cpdErrorSet is the compound-level formation-energy error split allocated
// per compound/compartment when DeltaGError is set, the Go analogue of
// Species.cpp's DELTAGF_PERROR/DELTAGF_NERROR.
type cpdErrorSet struct {
	Plus  *model.Variable
	Minus *model.Variable
}

// defaultErrorBound picks the symmetric error bound for a DeltaG error
// variable: ErrorMult times the domain object's own uncertainty when one is
// known, otherwise the builder's flat MaxError ceiling.
func defaultErrorBound(uncertainty *float64, params *Parameters) float64 {
	if uncertainty != nil {
		return params.ErrorMult * *uncertainty
	}
	return params.MaxError
}

// adjustedDeltaGf computes a compound's standard Gibbs energy of formation
// corrected for compartment ionic strength: the no-pKa branch of
// Species::AdjustedDeltaG. The pKa-driven protonation-state polynomial
// (AdjustpKa/FBindingPolynomial) and its atom-level proton-count term are
// not modeled — both need per-atom formula data this domain layer doesn't
// carry — so a compound with declared pKa/pKb points gets the same
// formula as one without, understating its pH sensitivity. Used to pin
// water's potential to a fixed value, since water's concentration is
// conventionally not a free variable.
func adjustedDeltaGf(cpd *compound.Compound, comp *compartment.Compartment) float64 {
	deltaGf := 0.0
	if cpd.EstDeltaG != nil {
		deltaGf = *cpd.EstDeltaG
	}
	sqrtI := math.Sqrt(comp.IonicStrength)
	ionicCorrection := debyeHuckelCoef * float64(cpd.Charge*cpd.Charge) * sqrtI / (1 + debyeHuckelB*sqrtI)
	return deltaGf - ionicCorrection
}

// potentialVariable returns the chemical-potential decision variable for a
// compound in a compartment, creating it — and, unless the compound is
// water, a paired log-concentration variable and the ChemicalPotential row
// tying the two together — on first reference. Shared across every
// reaction that touches the same compound/compartment pair, the same
// lazy-allocation pattern buildDrainVariables uses for drains.
func (b *Builder) potentialVariable(cpd *compound.Compound, compartmentID ids.CompartmentID, params *Parameters) (*model.Variable, error) {
	key := compoundVarKey{CompoundID: cpd.ID(), CompartmentID: compartmentID}
	if v, ok := b.concVars[key]; ok {
		return v, nil
	}

	comp, err := b.compartments.Get(string(compartmentID))
	if err != nil {
		return nil, err
	}

	name := "POT_" + string(cpd.ID()) + "@" + string(compartmentID)
	if cpd.Formula == "H2O" {
		fixed := adjustedDeltaGf(cpd, comp)
		v := newVar(model.Potential, name, model.Bounds{Min: fixed, Max: fixed})
		b.problem.AddVariable(v)
		b.concVars[key] = v
		return v, nil
	}

	v := newVar(model.Potential, name, model.Bounds{Min: params.MinPotential, Max: params.MaxPotential})
	b.problem.AddVariable(v)
	b.concVars[key] = v

	minConc, maxConc := comp.ConcentrationBounds(cpd.Name)
	if minConc <= 0 {
		minConc = concFloor
	}
	if maxConc <= 0 {
		maxConc = concFloor
	}
	logV := newVar(model.LogConcentration, "LOGC_"+string(cpd.ID())+"@"+string(compartmentID), model.Bounds{Min: math.Log(minConc), Max: math.Log(maxConc)})
	b.problem.AddVariable(logV)
	b.logConcVars[key] = logV

	b.addChemicalPotentialConstraint(cpd, comp, v, logV, params)
	return v, nil
}

// addChemicalPotentialConstraint emits potential - RT*logConc - errPlus +
// errMinus = deltaGf - ionicCorrection, spec.md's "potential = ΔGf° +
// RT·log_conc + pH/ionic-strength corrections" rearranged so every decision
// variable is on the left. errPlus/errMinus (DeltaGfErrorPlus/Minus) are
// only allocated when DeltaGError is set, mirroring Species.cpp's
// DELTAGF_PERROR/NERROR gating.
func (b *Builder) addChemicalPotentialConstraint(cpd *compound.Compound, comp *compartment.Compartment, potential, logConc *model.Variable, params *Parameters) {
	key := compoundVarKey{CompoundID: cpd.ID(), CompartmentID: comp.ID()}
	name := "CHEMPOT_" + string(cpd.ID()) + "@" + string(comp.ID())

	deltaGf := 0.0
	if cpd.EstDeltaG != nil {
		deltaGf = *cpd.EstDeltaG
	}
	sqrtI := math.Sqrt(comp.IonicStrength)
	ionicCorrection := debyeHuckelCoef * float64(cpd.Charge*cpd.Charge) * sqrtI / (1 + debyeHuckelB*sqrtI)

	row := model.NewLinEquation(name, deltaGf-ionicCorrection, model.Equal)
	row.Meaning = model.ChemicalPotential
	row.AddTerm(potential, 1)
	row.AddTerm(logConc, -gasConstant*params.Temperature)

	if params.DeltaGError {
		bound := defaultErrorBound(cpd.EstDeltaGUncertainty, params)
		plus := newVar(model.DeltaGfErrorPlus, "DGFERR_P_"+string(cpd.ID())+"@"+string(comp.ID()), model.Bounds{Min: 0, Max: bound})
		minus := newVar(model.DeltaGfErrorMinus, "DGFERR_N_"+string(cpd.ID())+"@"+string(comp.ID()), model.Bounds{Min: 0, Max: bound})
		b.problem.AddVariable(plus)
		b.problem.AddVariable(minus)
		b.cpdErrorVars[key] = &cpdErrorSet{Plus: plus, Minus: minus}
		row.AddTerm(plus, -1)
		row.AddTerm(minus, 1)
	}

	b.problem.AddConstraint(row)
}

// addGibbsEnergyDefinitionConstraint ties a reaction's DeltaG variable to
// the stoichiometry-weighted sum of its participants' chemical potentials
// plus a transport term: ΔGr - Σ(stoich·potential) = transport(Δψ,ΔpH).
// The transport term is the destination compartment's membrane-potential
// offset from the source compartment (compartment.PsiConstDelta/
// PsiCoefDelta) evaluated at the destination's pH, taken from the first two
// distinct compartments the reaction's participants span — a reaction
// touching more than two compartments gets only that dominant term, not a
// sum over every pairwise transition.
func (b *Builder) addGibbsEnergyDefinitionConstraint(r *reaction.Reaction, fv *fluxVarSet, params *Parameters) error {
	row := model.NewLinEquation("GIBBS_"+string(r.ID()), 0, model.Equal)
	row.Meaning = model.GibbsEnergyDefinition
	row.AddTerm(fv.DeltaG, 1)

	var srcComp *compartment.Compartment
	var transport float64
	haveDst := false
	for _, participant := range r.All() {
		cpd, err := b.compounds.Get(participant.CompoundID)
		if err != nil {
			return err
		}
		pot, err := b.potentialVariable(cpd, participant.CompartmentID, params)
		if err != nil {
			return err
		}
		row.AddTerm(pot, -participant.Coefficient)

		comp, err := b.compartments.Get(string(participant.CompartmentID))
		if err != nil {
			return err
		}
		switch {
		case srcComp == nil:
			srcComp = comp
		case !haveDst && comp.ID() != srcComp.ID():
			transport = comp.PsiConstDelta(srcComp) + comp.PsiCoefDelta(srcComp)*comp.PH
			haveDst = true
		}
	}
	row.RHS = transport

	b.problem.AddConstraint(row)
	return nil
}

// addReactionErrorBudgetConstraint ties the reaction's DeltaG to its
// directly estimated standard free energy plus a bounded, split error term:
// ΔGr = ΔGr0 + (errPlus - errMinus). When ReactionErrorUseVariables is also
// set, a binary use variable keeps the split one-sided (errPlus capped by
// use, errMinus by its complement), the linearization of
// Reaction.cpp's SMALL_DELTAG_ERROR_USE. Reactions without a direct
// EstDeltaG are skipped: composing one from structural cues would need a
// cue-lookup dependency the Builder does not hold.
func (b *Builder) addReactionErrorBudgetConstraint(r *reaction.Reaction, fv *fluxVarSet, params *Parameters) {
	if r.EstDeltaG == nil {
		return
	}
	bound := defaultErrorBound(r.EstDeltaGUncertainty, params)

	fv.DeltaGErrorPlus = newVar(model.ReactionDeltaGErrorPlus, "DGERR_P_"+string(r.ID()), model.Bounds{Min: 0, Max: bound})
	fv.DeltaGErrorMinus = newVar(model.ReactionDeltaGErrorMinus, "DGERR_N_"+string(r.ID()), model.Bounds{Min: 0, Max: bound})
	b.problem.AddVariable(fv.DeltaGErrorPlus)
	b.problem.AddVariable(fv.DeltaGErrorMinus)

	row := model.NewLinEquation("ERRBUDGET_"+string(r.ID()), *r.EstDeltaG, model.Equal)
	row.Meaning = model.ErrorBudget
	row.AddTerm(fv.DeltaG, 1)
	row.AddTerm(fv.DeltaGErrorPlus, -1)
	row.AddTerm(fv.DeltaGErrorMinus, 1)
	b.problem.AddConstraint(row)

	if !params.ReactionErrorUseVariables {
		return
	}

	fv.DeltaGErrorUse = newVar(model.ReactionDeltaGErrorUse, "DGERR_USE_"+string(r.ID()), model.Bounds{Min: 0, Max: 1})
	fv.DeltaGErrorUse.Binary = true
	b.problem.AddVariable(fv.DeltaGErrorUse)

	plusCap := model.NewLinEquation("DGERR_P_CAP_"+string(r.ID()), 0, model.LessEqual)
	plusCap.Meaning = model.ErrorBudget
	plusCap.AddTerm(fv.DeltaGErrorPlus, 1)
	plusCap.AddTerm(fv.DeltaGErrorUse, -bound)
	b.problem.AddConstraint(plusCap)

	minusCap := model.NewLinEquation("DGERR_N_CAP_"+string(r.ID()), bound, model.LessEqual)
	minusCap.Meaning = model.ErrorBudget
	minusCap.AddTerm(fv.DeltaGErrorMinus, 1)
	minusCap.AddTerm(fv.DeltaGErrorUse, bound)
	b.problem.AddConstraint(minusCap)
}

// addSimpleThermoFeasibilityConstraint emits the crude feasibility row
// coupling flux sign to DeltaG sign without any potential/concentration
// network: FLUX_FWD <= MaxFlux - (MaxFlux/MaxPotential)*DeltaG, the minimum
// contract SimpleThermoConstraints enforces in the original (no RT·ln
// concentration terms, no per-compound potentials).
func (b *Builder) addSimpleThermoFeasibilityConstraint(r *reaction.Reaction, fv *fluxVarSet, params *Parameters) {
	row := model.NewLinEquation("THERMO_"+string(r.ID()), params.MaxFlux, model.LessEqual)
	row.Meaning = model.ThermoFeasibility
	row.AddTerm(fv.Forward, 1)
	row.AddTerm(fv.DeltaG, params.MaxFlux/params.MaxPotential)
	b.problem.AddConstraint(row)
}

// addFullThermoFeasibilityConstraint enforces forward_use=1 ⇒ DeltaG <=
// -thermoEpsilon and reverse_use=1 ⇒ DeltaG >= thermoEpsilon via big-M,
// both relaxed to non-binding when the corresponding use variable is zero.
// This needs a reaction decomposed into distinct forward/reverse use
// variables to avoid gating both directions off the same binary (which
// would force DeltaG to satisfy both inequalities at once whenever that
// binary is 1); reactions without that decomposition fall back to the
// crude flux-sign coupling instead.
func (b *Builder) addFullThermoFeasibilityConstraint(r *reaction.Reaction, fv *fluxVarSet, params *Parameters) {
	if fv.Use == nil || fv.Reverse == nil || fv.ReverseUse == nil {
		b.addSimpleThermoFeasibilityConstraint(r, fv, params)
		return
	}

	fwd := model.NewLinEquation("THERMOFEAS_F_"+string(r.ID()), thermoBigM-thermoEpsilon, model.LessEqual)
	fwd.Meaning = model.ThermoFeasibility
	fwd.AddTerm(fv.DeltaG, 1)
	fwd.AddTerm(fv.Use, thermoBigM)
	b.problem.AddConstraint(fwd)

	bwd := model.NewLinEquation("THERMOFEAS_R_"+string(r.ID()), thermoEpsilon-thermoBigM, model.GreaterEqual)
	bwd.Meaning = model.ThermoFeasibility
	bwd.AddTerm(fv.DeltaG, 1)
	bwd.AddTerm(fv.ReverseUse, -thermoBigM)
	b.problem.AddConstraint(bwd)
}

// addThermoConstraints dispatches between the crude SimpleThermoConstraints
// coupling and the full Gibbs-energy-definition/chemical-potential network,
// then layers the optional error budget on top of either — the per-option
// gating spec.md's ThermoConstraints/SimpleThermoConstraints/DeltaGError/
// ReactionErrorUseVariables table calls for, instead of folding every
// option into one approximation.
func (b *Builder) addThermoConstraints(r *reaction.Reaction, fv *fluxVarSet, params *Parameters) error {
	if params.SimpleThermoConstraints {
		b.addSimpleThermoFeasibilityConstraint(r, fv, params)
	} else {
		if err := b.addGibbsEnergyDefinitionConstraint(r, fv, params); err != nil {
			return err
		}
		b.addFullThermoFeasibilityConstraint(r, fv, params)
	}
	if params.DeltaGError {
		b.addReactionErrorBudgetConstraint(r, fv, params)
	}
	return nil
}
