package builder

import (
	"github.com/turtacn/mfa-engine/internal/model"
)

// ObjectiveTerm names one (domain object, variable kind, coefficient) tuple
// in a declarative objective spec.
type ObjectiveTerm struct {
	Ref         VariableRef
	Coefficient float64
}

// ObjectiveSpec is the builder's declarative replacement for a caller
// constructing a model.Objective by hand: either a single variable
// reference with an implicit coefficient of 1, or a linear combination of
// terms, resolved against the domain model at SetObjective time.
type ObjectiveSpec struct {
	Single   *VariableRef
	Terms    []ObjectiveTerm
	Maximize bool
}

// SetObjective resolves spec's references against the builder's current
// variable registries and replaces the problem's objective. Every
// referenced variable must already be built — SetObjective never
// constructs new variables, matching the original's load_objective
// contract of rewriting the objective row in place.
func (b *Builder) SetObjective(spec ObjectiveSpec) error {
	obj := model.Objective{Maximize: spec.Maximize}

	if spec.Single != nil {
		v, err := b.resolveVariableRef(*spec.Single)
		if err != nil {
			return err
		}
		obj.AddTerm(v, 1)
	}

	for _, term := range spec.Terms {
		v, err := b.resolveVariableRef(term.Ref)
		if err != nil {
			return err
		}
		obj.AddTerm(v, term.Coefficient)
	}

	b.problem.Objective = obj
	return nil
}
