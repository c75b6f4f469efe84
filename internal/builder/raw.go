package builder

import (
	"fmt"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// resolveVariableRef resolves a VariableRef to the *model.Variable it names,
// failing with CodeVariableNotLoaded if the referenced domain object hasn't
// been built yet (e.g. UserBounds naming a reaction Build hasn't reached).
func (b *Builder) resolveVariableRef(ref VariableRef) (*model.Variable, error) {
	switch ref.DomainKind {
	case RefReaction:
		reactionID := ids.ReactionID(ref.DomainID)
		fv, ok := b.fluxVars[reactionID]
		if !ok {
			return nil, mfaerr.New(mfaerr.CodeVariableNotLoaded, "builder: reaction "+ref.DomainID+" has no built variable")
		}
		return fv.Forward, nil
	case RefCompound:
		key := compoundVarKey{CompoundID: ids.CompoundID(ref.DomainID), CompartmentID: ref.CompartmentID}
		if v, ok := b.concVars[key]; ok {
			return v, nil
		}
		if dv, ok := b.drainVars[key]; ok {
			return dv.Forward, nil
		}
		return nil, mfaerr.New(mfaerr.CodeVariableNotLoaded, "builder: compound "+ref.DomainID+"@"+string(ref.CompartmentID)+" has no built variable")
	case RefGene:
		v, ok := b.geneUseVars[ids.GeneID(ref.DomainID)]
		if !ok {
			return nil, mfaerr.New(mfaerr.CodeVariableNotLoaded, "builder: gene "+ref.DomainID+" has no built variable")
		}
		return v, nil
	case RefInterval:
		v, ok := b.intervalUseVars[ids.IntervalID(ref.DomainID)]
		if !ok {
			return nil, mfaerr.New(mfaerr.CodeVariableNotLoaded, "builder: interval "+ref.DomainID+" has no built variable")
		}
		return v, nil
	default:
		return nil, mfaerr.New(mfaerr.CodeVariableNotLoaded, "builder: variable reference names no domain object")
	}
}

// applyUserBounds overrides the Hard bounds of every variable named in
// params.UserBounds, applied after every other Build step so a caller's
// explicit override always wins.
func (b *Builder) applyUserBounds(params *Parameters) error {
	for ref, override := range params.UserBounds {
		v, err := b.resolveVariableRef(ref)
		if err != nil {
			return err
		}
		v.Hard = model.Bounds{Min: override.Min, Max: override.Max}
	}
	return nil
}

// equalityOf maps a RawConstraint.Equality string to its EqualityKind,
// defaulting to Equal for anything unrecognized so a typo'd operator fails
// closed to the tightest relation rather than silently relaxing the row.
func equalityOf(op string) model.EqualityKind {
	switch op {
	case "<=":
		return model.LessEqual
	case ">=":
		return model.GreaterEqual
	default:
		return model.Equal
	}
}

// applyRawConstraints resolves and loads a list of caller-supplied
// constraints. When replace is true (ModConstraints), a row whose name
// already exists is rewritten in place rather than rejected, matching the
// original's distinct AddConstraints/ModConstraints entry points.
func (b *Builder) applyRawConstraints(raw []RawConstraint, replace bool) error {
	for _, rc := range raw {
		row := model.NewLinEquation(rc.Name, rc.RHS, equalityOf(rc.Equality))
		row.Meaning = model.NoMeaning

		for _, term := range rc.Terms {
			v, err := b.resolveVariableRef(term.Ref)
			if err != nil {
				return err
			}
			row.AddTerm(v, term.Coefficient)
		}

		existing := b.problem.FindConstraint(rc.Name)
		if existing != nil {
			if !replace && !rc.Replace {
				return mfaerr.New(mfaerr.CodeParameterContradiction, fmt.Sprintf("builder: constraint %s already exists", rc.Name))
			}
			b.problem.RemoveConstraint(rc.Name)
		}
		b.problem.AddConstraint(row)
	}
	return nil
}
