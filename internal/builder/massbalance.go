package builder

import (
	"github.com/turtacn/mfa-engine/internal/model"
)

// buildMassBalance emits one equality row per (compound, compartment) pair
// referenced by any built reaction or drain: Σ(coefficient · forward) -
// Σ(coefficient · reverse) + drain contribution = 0. Coefficients are
// already signed (negative for a reactant, positive for a product) per
// reaction.Reactant, so the reverse half's contribution is the negation of
// the forward half's, matching DecomposeReversible's forward-minus-reverse
// flux convention.
func (b *Builder) buildMassBalance(params *Parameters) error {
	rows := make(map[compoundVarKey]*model.LinEquation)
	isNew := make(map[compoundVarKey]bool)

	rowFor := func(key compoundVarKey) *model.LinEquation {
		if row, ok := rows[key]; ok {
			return row
		}
		name := "MB_" + string(key.CompoundID) + "@" + string(key.CompartmentID)
		if existing := b.problem.FindConstraint(name); existing != nil {
			rows[key] = existing
			return existing
		}
		row := model.NewLinEquation(name, 0, model.Equal)
		row.Meaning = model.MassBalance
		rows[key] = row
		isNew[key] = true
		return row
	}

	for _, r := range b.reactions.All() {
		fv, ok := b.fluxVars[r.ID()]
		if !ok {
			continue
		}
		for _, participant := range r.All() {
			key := compoundVarKey{CompoundID: participant.CompoundID, CompartmentID: participant.CompartmentID}
			row := rowFor(key)
			row.AddTerm(fv.Forward, participant.Coefficient)
			if fv.Reverse != nil {
				row.AddTerm(fv.Reverse, -participant.Coefficient)
			}
		}
	}

	for key, dv := range b.drainVars {
		row := rowFor(key)
		row.AddTerm(dv.Forward, -1)
		if dv.Reverse != nil {
			row.AddTerm(dv.Reverse, 1)
		}
	}

	for key, row := range rows {
		if isNew[key] {
			b.problem.AddConstraint(row)
		}
	}
	return nil
}
