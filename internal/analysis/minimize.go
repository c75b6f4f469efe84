package analysis

import (
	"context"

	"github.com/turtacn/mfa-engine/internal/model"
)

// pinCurrentObjective appends a row fixing the current objective to at
// least (or, when minimizing, at most) fraction·currentObjectiveValue,
// tagged ObjectivePin so a later pass can recognize and drop it. The
// caller is responsible for popping the ProblemState afterward.
func pinCurrentObjective(p *model.ProblemState, targetValue float64, fraction float64) {
	equality := model.GreaterEqual
	if !p.Objective.Maximize {
		equality = model.LessEqual
	}
	pin := model.NewLinEquation("_minimize_objective_pin", fraction*targetValue, equality)
	pin.Meaning = model.ObjectivePin
	pin.Terms = append(pin.Terms, p.Objective.Terms...)
	p.AddConstraint(pin)
}

// MinimizeResult is the outcome of a minimize-flux or minimize-reactions
// pass: the achieved minimal sum, and the solve status.
type MinimizeResult struct {
	Status       model.SolutionStatus
	MinimalValue float64
}

// MinimizeFlux replaces the objective with Σ flux (forward + reverse, for
// decomposed reactions), pins the original objective to
// objectiveFraction·optimum, and solves — spec.md's "minimize flux" pass.
// The ProblemState is restored (objective and the pin constraint) before
// returning, win or lose.
func (o *Orchestrator) MinimizeFlux(ctx context.Context, objectiveFraction float64) (MinimizeResult, error) {
	return o.minimizeSum(ctx, objectiveFraction, func() []*model.Variable {
		var vars []*model.Variable
		for _, id := range o.builder.ReactionIDs() {
			if v := o.builder.FluxVariable(id); v != nil {
				vars = append(vars, v)
			}
			if v := o.builder.ReverseFluxVariable(id); v != nil {
				vars = append(vars, v)
			}
		}
		return vars
	})
}

// MinimizeReactions replaces the objective with Σ reaction_use, the
// parsimonious-enzyme-usage analogue of MinimizeFlux — spec.md's
// "minimize ... reactions" pass. Requires ReactionsUse to have been set
// when the problem was built; reactions with no use variable are skipped.
func (o *Orchestrator) MinimizeReactions(ctx context.Context, objectiveFraction float64) (MinimizeResult, error) {
	return o.minimizeSum(ctx, objectiveFraction, func() []*model.Variable {
		var vars []*model.Variable
		for _, id := range o.builder.ReactionIDs() {
			if v := o.builder.ReactionUseVariable(id); v != nil {
				vars = append(vars, v)
			}
		}
		return vars
	})
}

func (o *Orchestrator) minimizeSum(ctx context.Context, objectiveFraction float64, collect func() []*model.Variable) (MinimizeResult, error) {
	if objectiveFraction <= 0 {
		objectiveFraction = o.cfg.ObjectiveFraction
	}

	p := o.builder.Problem()
	p.Push()
	defer p.Pop()

	baselineClass := o.problemClass()
	baseline := o.solve(ctx, baselineClass)
	if !baseline.IsUsable() {
		return MinimizeResult{Status: baseline.Status}, nil
	}

	pinCurrentObjective(p, baseline.ObjectiveValue, objectiveFraction)

	p.Objective = model.Objective{Maximize: false}
	for _, v := range collect() {
		p.Objective.AddTerm(v, 1)
	}

	sol := o.solve(ctx, o.problemClass())
	if !sol.IsUsable() {
		return MinimizeResult{Status: sol.Status}, nil
	}

	return MinimizeResult{Status: sol.Status, MinimalValue: sol.ObjectiveValue}, nil
}
