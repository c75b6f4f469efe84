package analysis

import (
	"context"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// EssentialityResult is the outcome of temporarily disabling one candidate
// (a reaction, gene, or interval) and re-solving. Whether a given
// ObjectiveValue counts as "essential" is left to the caller, since the
// threshold is a modeling choice (often, but not always, "below 1% of wild
// type") rather than a fixed constant.
type EssentialityResult struct {
	Status         model.SolutionStatus
	ObjectiveValue float64
}

// ReactionEssentiality pins each candidate reaction's flux (and reverse
// flux, if decomposed) to zero in turn, solves, records the objective, and
// restores the reaction's original bounds before moving to the next
// candidate — bound mutation is restored explicitly here rather than via
// ProblemState.Push/Pop, since Push/Pop only reverts slice-length changes
// (added/removed rows), not an in-place Hard-bound edit on a variable
// already present in the problem.
func (o *Orchestrator) ReactionEssentiality(ctx context.Context, candidates []ids.ReactionID) map[ids.ReactionID]EssentialityResult {
	results := make(map[ids.ReactionID]EssentialityResult, len(candidates))
	class := o.problemClass()

	for i, id := range candidates {
		o.beginStep(i, o.cfg.DefaultStepTimeout)
		if o.Cancelled() || o.stepOverdue(i) {
			break
		}

		fwd := o.builder.FluxVariable(id)
		rev := o.builder.ReverseFluxVariable(id)
		if fwd == nil {
			continue
		}

		savedFwd := fwd.Hard
		fwd.Hard = model.Bounds{Min: 0, Max: 0}
		var savedRev model.Bounds
		if rev != nil {
			savedRev = rev.Hard
			rev.Hard = model.Bounds{Min: 0, Max: 0}
		}

		sol := o.solve(ctx, class)
		results[id] = EssentialityResult{Status: sol.Status, ObjectiveValue: sol.ObjectiveValue}

		fwd.Hard = savedFwd
		if rev != nil {
			rev.Hard = savedRev
		}
	}
	return results
}

// GeneEssentiality is ReactionEssentiality's analogue over gene_use
// variables: each candidate gene's use variable is pinned to zero rather
// than its flux, letting the gene-reaction mapping constraints propagate
// the knockout to every reaction the gene participates in.
func (o *Orchestrator) GeneEssentiality(ctx context.Context, candidates []ids.GeneID) map[ids.GeneID]EssentialityResult {
	results := make(map[ids.GeneID]EssentialityResult, len(candidates))
	class := o.problemClass()

	for i, id := range candidates {
		o.beginStep(i, o.cfg.DefaultStepTimeout)
		if o.Cancelled() || o.stepOverdue(i) {
			break
		}

		v := o.builder.GeneUseVariable(id)
		if v == nil {
			continue
		}

		saved := v.Hard
		v.Hard = model.Bounds{Min: 0, Max: 0}

		sol := o.solve(ctx, class)
		results[id] = EssentialityResult{Status: sol.Status, ObjectiveValue: sol.ObjectiveValue}

		v.Hard = saved
	}
	return results
}

// IntervalEssentiality is ReactionEssentiality's analogue over
// interval_use variables. Candidates with no built interval-use variable
// are skipped and get no entry in the result.
func (o *Orchestrator) IntervalEssentiality(ctx context.Context, candidates []ids.IntervalID) map[ids.IntervalID]EssentialityResult {
	results := make(map[ids.IntervalID]EssentialityResult, len(candidates))
	class := o.problemClass()

	for i, id := range candidates {
		o.beginStep(i, o.cfg.DefaultStepTimeout)
		if o.Cancelled() || o.stepOverdue(i) {
			break
		}

		v := o.builder.IntervalUseVariable(id)
		if v == nil {
			continue
		}

		saved := v.Hard
		v.Hard = model.Bounds{Min: 0, Max: 0}

		sol := o.solve(ctx, class)
		results[id] = EssentialityResult{Status: sol.Status, ObjectiveValue: sol.ObjectiveValue}

		v.Hard = saved
	}
	return results
}
