package builder

import (
	"github.com/turtacn/mfa-engine/internal/model"
)

// buildDrainVariables allocates one exchange flux variable (or decomposed
// forward/reverse pair) per compound/compartment named in ExchangeSpecies,
// the Go analogue of the original toolkit's drain reaction synthesis. A
// compound not named in ExchangeSpecies gets no drain, even when AllDrainUse
// is set: AllDrainUse only controls whether an already-created drain gets a
// use variable, mirroring DecomposeDrain's split of "should this exchange
// exist" from "should it be gated by a binary use variable".
func (b *Builder) buildDrainVariables(params *Parameters) error {
	for _, ov := range params.ExchangeSpecies {
		key := compoundVarKey{CompoundID: ov.CompoundID, CompartmentID: ov.CompartmentID}
		if _, already := b.drainVars[key]; already {
			continue
		}

		bounds, ok := exchangeBounds(key, params)
		if !ok {
			bounds = model.Bounds{Min: params.MinDrainFlux, Max: params.MaxDrainFlux}
		}

		dv := &drainVarSet{}
		if params.DecomposeDrain {
			dv.Forward = newVar(model.ForwardDrainFlux, "FDRAIN_"+string(ov.CompoundID)+"@"+string(ov.CompartmentID), model.Bounds{Min: 0, Max: bounds.Max})
			dv.Reverse = newVar(model.ReverseDrainFlux, "RDRAIN_"+string(ov.CompoundID)+"@"+string(ov.CompartmentID), model.Bounds{Min: 0, Max: -bounds.Min})
			b.problem.AddVariable(dv.Forward)
			b.problem.AddVariable(dv.Reverse)
		} else {
			dv.Forward = newVar(model.DrainFlux, "DRAIN_"+string(ov.CompoundID)+"@"+string(ov.CompartmentID), bounds)
			b.problem.AddVariable(dv.Forward)
		}

		b.drainVars[key] = dv
	}
	return nil
}

// buildDrainUseLinking allocates a binary use variable for every drain that
// needs one — every drain when AllDrainUse is set, otherwise none beyond
// what DrainUseVar requests generically — and links it to the drain's flux
// with the same big-M coupling reaction use variables get.
func (b *Builder) buildDrainUseLinking(params *Parameters) error {
	if !params.DrainUseVar && !params.AllDrainUse {
		return nil
	}

	for key, dv := range b.drainVars {
		if dv.Use != nil {
			continue
		}
		name := "DUSE_" + string(key.CompoundID) + "@" + string(key.CompartmentID)
		dv.Use = newVar(model.DrainUse, name, model.Bounds{Min: 0, Max: 1})
		dv.Use.Binary = true
		b.problem.AddVariable(dv.Use)
		b.addUseLinkingConstraint(name+"_LINK", dv.Forward, dv.Use, params.MaxDrainFlux)
		if dv.Reverse != nil {
			revName := "RDUSE_" + string(key.CompoundID) + "@" + string(key.CompartmentID)
			revUse := newVar(model.ReverseDrainUse, revName, model.Bounds{Min: 0, Max: 1})
			revUse.Binary = true
			b.problem.AddVariable(revUse)
			b.addUseLinkingConstraint(revName+"_LINK", dv.Reverse, revUse, params.MaxDrainFlux)
		}
	}
	return nil
}
