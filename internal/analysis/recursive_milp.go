package analysis

import (
	"context"
	"fmt"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// EnumeratedSolution is one round's recorded binary configuration and
// objective value from a recursive MILP enumeration pass.
type EnumeratedSolution struct {
	ObjectiveValue float64
	Active         []ids.ReactionID // reaction_use variables at 1 in this round
}

// RecursiveMILPResult bundles every solution a recursive enumeration
// produced and why it stopped.
type RecursiveMILPResult struct {
	Solutions []EnumeratedSolution
	Cancelled bool
	Timeout   bool
}

// RecursiveMILP enumerates alternate optimal (or graded-suboptimal, via
// solutionSizeInterval) binary configurations over the use variables of
// reactionTypes: each round solves the MILP, records which use variables
// are active, adds an integer-cut constraint excluding that exact
// configuration, and re-solves. Stops when a round is infeasible, the
// solution limit or cfg.MaxRecursiveRounds is reached, the terminate flag
// is set, or the per-round step clock expires — checked at the top of each
// round per the resource model's "checked ... at the start of each
// recursive-MILP round" contract.
func (o *Orchestrator) RecursiveMILP(ctx context.Context, reactionTypes []ids.ReactionID, solutionLimit int, solutionSizeInterval float64) RecursiveMILPResult {
	p := o.builder.Problem()
	p.Push()
	defer p.Pop()

	useVars := make(map[ids.ReactionID]*model.Variable, len(reactionTypes))
	for _, id := range reactionTypes {
		if v := o.builder.ReactionUseVariable(id); v != nil {
			useVars[id] = v
		}
	}

	maxRounds := o.cfg.MaxRecursiveRounds
	if maxRounds <= 0 {
		maxRounds = 1000
	}
	if solutionLimit > 0 && solutionLimit < maxRounds {
		maxRounds = solutionLimit
	}

	class := o.problemClass()
	var solutions []EnumeratedSolution
	var baselineObjective float64

	for round := 0; round < maxRounds; round++ {
		o.beginStep(round, o.cfg.DefaultStepTimeout)
		if o.Cancelled() {
			return RecursiveMILPResult{Solutions: solutions, Cancelled: true}
		}
		if o.stepOverdue(round) {
			return RecursiveMILPResult{Solutions: solutions, Timeout: true}
		}

		if round == 0 && solutionSizeInterval > 0 {
			baseline := o.solve(ctx, class)
			if !baseline.IsUsable() {
				break
			}
			baselineObjective = baseline.ObjectiveValue
		}

		if solutionSizeInterval > 0 && len(solutions) > 0 {
			band := baselineObjective - float64(len(solutions))*solutionSizeInterval
			pin := model.NewLinEquation(fmt.Sprintf("_milp_band_%d", round), band, model.GreaterEqual)
			pin.Meaning = model.ObjectivePin
			pin.Terms = append(pin.Terms, p.Objective.Terms...)
			p.AddConstraint(pin)
		}

		sol := o.solve(ctx, class)
		if !sol.IsUsable() {
			break
		}

		var active []ids.ReactionID
		cut := model.NewLinEquation(fmt.Sprintf("_integer_cut_%d", round), 0, model.LessEqual)
		cut.Meaning = model.IntegerCut
		rhs := -1.0
		for id, v := range useVars {
			val, _ := sol.ValueOf(v)
			if val > 0.5 {
				active = append(active, id)
				cut.AddTerm(v, 1)
				rhs++
			} else {
				cut.AddTerm(v, -1)
			}
		}
		cut.RHS = rhs
		p.AddConstraint(cut)

		solutions = append(solutions, EnumeratedSolution{ObjectiveValue: sol.ObjectiveValue, Active: active})
	}

	return RecursiveMILPResult{Solutions: solutions}
}
