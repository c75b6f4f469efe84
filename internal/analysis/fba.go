package analysis

import (
	"context"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// FBAResult is the outcome of a single flux balance analysis solve.
type FBAResult struct {
	Status         model.SolutionStatus
	ObjectiveValue float64
	Fluxes         map[ids.ReactionID]float64
}

// RunFBA builds once with the current parameters (the caller is expected to
// have already called builder.Build), solves, and reports the objective and
// per-reaction net flux (forward minus reverse, for a decomposed reaction).
// An infeasible or failed solve is reported via Status with an empty Fluxes
// map rather than an error, per the orchestrator's failure-semantics
// contract: infeasibility is a recorded outcome, not a fatal condition.
func (o *Orchestrator) RunFBA(ctx context.Context) FBAResult {
	class := o.problemClass()
	sol := o.solve(ctx, class)

	result := FBAResult{Status: sol.Status, ObjectiveValue: sol.ObjectiveValue}
	if !sol.IsUsable() {
		return result
	}

	result.Fluxes = make(map[ids.ReactionID]float64, len(o.builder.ReactionIDs()))
	for _, id := range o.builder.ReactionIDs() {
		result.Fluxes[id] = o.netFlux(sol, id)
	}
	return result
}

// netFlux returns forward minus reverse flux for a reaction, or just the
// single flux value for a non-decomposed one.
func (o *Orchestrator) netFlux(sol model.OptSolutionData, reactionID ids.ReactionID) float64 {
	fwd, _ := sol.ValueOf(o.builder.FluxVariable(reactionID))
	rev, _ := sol.ValueOf(o.builder.ReverseFluxVariable(reactionID))
	return fwd - rev
}
