package builder

import (
	"fmt"

	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Build rectifies params, then emits every variable and constraint its
// recognized options call for: flux (decomposed or not), reaction/drain use
// variables and their linking constraints, mass balance, thermodynamic
// feasibility (the crude flux-sign coupling under SimpleThermoConstraints,
// or the full Gibbs-energy-definition/chemical-potential/error-budget
// network otherwise), gene-protein-reaction gating, and the user-supplied
// raw additions and bound overrides. Build is additive: calling it again after
// mutating params only creates variables/constraints for reactions or
// compounds not already built, and RawConstraint.Replace handles in-place
// revision of existing rows.
func (b *Builder) Build(params Parameters) error {
	Rectify(&params)
	knockedOut := knockedOutGenes(&params)

	for _, r := range b.reactions.All() {
		if _, already := b.fluxVars[r.ID()]; already {
			continue
		}
		if err := b.buildReactionVariables(r, &params, knockedOut); err != nil {
			return err
		}
	}

	if len(params.ExchangeSpecies) > 0 {
		if err := b.buildDrainVariables(&params); err != nil {
			return err
		}
	}

	if params.MassBalanceConstraints {
		if err := b.buildMassBalance(&params); err != nil {
			return err
		}
	}

	if params.DrainUseVar || params.AllDrainUse {
		if err := b.buildDrainUseLinking(&params); err != nil {
			return err
		}
	}

	if err := b.applyUserBounds(&params); err != nil {
		return err
	}
	if err := b.applyRawConstraints(params.ModConstraints, true); err != nil {
		return err
	}
	if err := b.applyRawConstraints(params.AddConstraints, false); err != nil {
		return err
	}

	return b.checkConsistency()
}

// buildReactionVariables allocates r's flux variable(s), optional use
// variables and linking constraint, optional thermo variables, and optional
// gene-logic gate, per params.
func (b *Builder) buildReactionVariables(r *reaction.Reaction, params *Parameters, knockedOut map[ids.GeneID]bool) error {
	bounds := reactionBounds(r, params)
	fv := &fluxVarSet{}

	decompose := params.DecomposeReversible && r.Direction == reaction.Reversible
	if decompose {
		fv.Forward = newVar(model.ForwardFlux, "FFLUX_"+string(r.ID()), model.Bounds{Min: 0, Max: bounds.Max})
		fv.Reverse = newVar(model.ReverseFlux, "RFLUX_"+string(r.ID()), model.Bounds{Min: 0, Max: -bounds.Min})
		b.problem.AddVariable(fv.Forward)
		b.problem.AddVariable(fv.Reverse)
	} else {
		fv.Forward = newVar(model.Flux, "FLUX_"+string(r.ID()), bounds)
		b.problem.AddVariable(fv.Forward)
	}

	if params.ReactionsUse {
		useName := "USE_" + string(r.ID())
		if decompose {
			useName = "FUSE_" + string(r.ID())
		}
		fv.Use = newVar(model.ReactionUse, useName, model.Bounds{Min: 0, Max: 1})
		fv.Use.Binary = true
		b.problem.AddVariable(fv.Use)
		b.addUseLinkingConstraint(fv.Use.Name+"_LINK", fv.Forward, fv.Use, params.MaxFlux)

		if decompose && params.AllReactionsUse {
			fv.ReverseUse = newVar(model.ReverseUse, "RUSE_"+string(r.ID()), model.Bounds{Min: 0, Max: 1})
			fv.ReverseUse.Binary = true
			b.problem.AddVariable(fv.ReverseUse)
			b.addUseLinkingConstraint("RUSE_"+string(r.ID())+"_LINK", fv.Reverse, fv.ReverseUse, params.MaxFlux)
		}
	}

	if params.ThermoConstraints {
		fv.DeltaG = newVar(model.DeltaG, "DELTAG_"+string(r.ID()), model.Bounds{Min: -thermoBigM / 2, Max: thermoBigM / 2})
		b.problem.AddVariable(fv.DeltaG)
		if err := b.addThermoConstraints(r, fv, params); err != nil {
			return err
		}
	}

	if params.GeneConstraints && r.GeneLogic != nil {
		seq := 0
		root := b.buildGeneLogicVar(r.ID(), r.GeneLogic, knockedOut, &seq)
		fv.RootUse = root
		b.addGeneGateConstraint(r, fv, root, params)
	}

	b.fluxVars[r.ID()] = fv
	return nil
}

// addUseLinkingConstraint emits flux - maxFlux*use <= 0, the standard
// big-M coupling that forces flux to zero whenever use is zero, without
// constraining flux at all when use is one.
func (b *Builder) addUseLinkingConstraint(name string, flux, use *model.Variable, maxFlux float64) {
	row := model.NewLinEquation(name, 0, model.LessEqual)
	row.Meaning = model.UseLinking
	row.AddTerm(flux, 1)
	row.AddTerm(use, -maxFlux)
	b.problem.AddConstraint(row)
}

// addGeneGateConstraint couples the reaction's flux (and, if decomposed, its
// reverse flux) to the top-level gene-logic gate variable: each flux cannot
// exceed maxFlux*gate, so a fully knocked-out gene association forces the
// reaction off.
func (b *Builder) addGeneGateConstraint(r *reaction.Reaction, fv *fluxVarSet, gate *model.Variable, params *Parameters) {
	if gate == nil {
		return
	}
	b.addUseLinkingConstraint("GGATE_"+string(r.ID()), fv.Forward, gate, params.MaxFlux)
	if fv.Reverse != nil {
		b.addUseLinkingConstraint("GGATE_REV_"+string(r.ID()), fv.Reverse, gate, params.MaxFlux)
	}
}

// checkConsistency enforces the building contract: no variable has
// upper < lower after every override has been applied.
func (b *Builder) checkConsistency() error {
	for _, v := range b.problem.Variables {
		if v.Hard.Max < v.Hard.Min {
			return mfaerr.New(mfaerr.CodeBoundsInverted, fmt.Sprintf("builder: variable %s has upper bound %g below lower bound %g", v.Name, v.Hard.Max, v.Hard.Min))
		}
	}
	return nil
}
