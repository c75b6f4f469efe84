package analysis

import (
	"context"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// evaluateTerms sums coefficient*value across terms against sol, used to
// recover the original objective's achieved value after the objective row
// has been temporarily replaced by a gap-fill/gap-generate pass.
func evaluateTerms(terms []model.Term, sol model.OptSolutionData) float64 {
	total := 0.0
	for _, term := range terms {
		val, _ := sol.ValueOf(term.Variable)
		total += term.Coefficient * val
	}
	return total
}

// GapFillResult is the outcome of a gap-fill pass: the minimal set of
// candidate reactions whose activation restores nonzero growth, and the
// growth actually achieved under the original objective.
type GapFillResult struct {
	Status         model.SolutionStatus
	ObjectiveValue float64
	Added          []ids.ReactionID
}

// GapFill enables every candidate reaction's use variable (candidates not
// already built into the problem are skipped — the caller must have built
// them with ReactionsUse requested), minimizes the count of candidates
// actually used subject to the original objective exceeding minimumGrowth,
// and reports which candidates the minimal solution turned on. This is
// spec.md's gap filling operation: find the fewest additions that let the
// model grow.
func (o *Orchestrator) GapFill(ctx context.Context, candidates []ids.ReactionID, minimumGrowth float64) (GapFillResult, error) {
	if minimumGrowth <= 0 {
		minimumGrowth = growthThreshold
	}
	if max := o.cfg.MaxGapFillCandidates; max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	p := o.builder.Problem()
	p.Push()
	defer p.Pop()

	var useVars []*model.Variable
	var ids_ []ids.ReactionID
	for _, id := range candidates {
		v := o.builder.ReactionUseVariable(id)
		if v == nil {
			continue
		}
		useVars = append(useVars, v)
		ids_ = append(ids_, id)
	}

	origTerms := append([]model.Term(nil), p.Objective.Terms...)

	growthRow := model.NewLinEquation("_gapfill_minimum_growth", minimumGrowth, model.GreaterEqual)
	growthRow.Meaning = model.ObjectivePin
	growthRow.Terms = append(growthRow.Terms, origTerms...)
	p.AddConstraint(growthRow)

	p.Objective = model.Objective{Maximize: false}
	for _, v := range useVars {
		p.Objective.AddTerm(v, 1)
	}

	sol := o.solve(ctx, o.problemClass())
	if !sol.IsUsable() {
		return GapFillResult{Status: sol.Status}, nil
	}

	tol := o.cfg.ZeroTolerance
	if tol <= 0 {
		tol = 1e-7
	}

	var added []ids.ReactionID
	for i, v := range useVars {
		val, _ := sol.ValueOf(v)
		if val > tol {
			added = append(added, ids_[i])
		}
	}

	return GapFillResult{Status: sol.Status, ObjectiveValue: evaluateTerms(origTerms, sol), Added: added}, nil
}

// GapGenerateResult is the outcome of a gap-generation pass: the reactions
// that must be disabled (from targets) so that growth falls to at most
// maximumGrowth,
// preferring to disable as few as possible.
type GapGenerateResult struct {
	Status     model.SolutionStatus
	Disabled   []ids.ReactionID
	StillGrows bool
}

// GapGenerate is GapFill's dual: given a set of target reactions, find the
// minimal subset whose simultaneous knockout drives growth at or below
// maximumGrowth, by pinning the original objective to the ceiling and
// maximizing total flux through the targets — whichever targets the
// solver cannot keep flowing without breaking the ceiling are the
// reactions responsible for the excess growth, and are reported disabled.
// Used to identify reactions whose presence causes an observed (but
// unwanted) growth phenotype.
func (o *Orchestrator) GapGenerate(ctx context.Context, targets []ids.ReactionID, maximumGrowth float64) (GapGenerateResult, error) {
	p := o.builder.Problem()
	p.Push()
	defer p.Pop()

	origTerms := append([]model.Term(nil), p.Objective.Terms...)

	ceilingRow := model.NewLinEquation("_gapgenerate_growth_ceiling", maximumGrowth, model.LessEqual)
	ceilingRow.Meaning = model.ObjectivePin
	ceilingRow.Terms = append(ceilingRow.Terms, origTerms...)
	p.AddConstraint(ceilingRow)

	p.Objective = model.Objective{Maximize: true}
	fluxVars := make(map[ids.ReactionID][]*model.Variable, len(targets))
	for _, id := range targets {
		var vars []*model.Variable
		if v := o.builder.FluxVariable(id); v != nil {
			vars = append(vars, v)
			p.Objective.AddTerm(v, 1)
		}
		if v := o.builder.ReverseFluxVariable(id); v != nil {
			vars = append(vars, v)
			p.Objective.AddTerm(v, 1)
		}
		if len(vars) > 0 {
			fluxVars[id] = vars
		}
	}

	sol := o.solve(ctx, o.problemClass())
	if !sol.IsUsable() {
		return GapGenerateResult{Status: sol.Status}, nil
	}

	tol := o.cfg.ZeroTolerance
	if tol <= 0 {
		tol = 1e-7
	}

	var disabled []ids.ReactionID
	for _, id := range targets {
		vars, ok := fluxVars[id]
		if !ok {
			continue
		}
		total := 0.0
		for _, v := range vars {
			val, _ := sol.ValueOf(v)
			total += val
		}
		if total <= tol {
			disabled = append(disabled, id)
		}
	}

	return GapGenerateResult{Status: sol.Status, Disabled: disabled, StillGrows: evaluateTerms(origTerms, sol) > maximumGrowth}, nil
}
