package analysis

import (
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// ReactionClass pairs a reaction with its computed tight-bound sign
// envelope, the {P,N,V,PV,NV,B} tags spec.md's FVA reporting contract
// calls for.
type ReactionClass struct {
	ReactionID ids.ReactionID
	Min        float64
	Max        float64
	Envelope   model.SignEnvelope
}

// FVAResult is the outcome of one tight-bounds sweep. LastSolve is whatever
// solve the sweep happened to run most recently (the final variable's max
// pass) — useful for diagnostics, not a stable "baseline objective" value;
// read ReactionClass entries for the actual per-variable bounds.
type FVAResult struct {
	LastSolve  model.OptSolutionData
	Classes    []ReactionClass
	Infeasible bool
}

// FindTightBounds runs the flux-variability algorithm over the named
// reactions' flux variables (forward half, for decomposed reactions),
// pinning the objective to objectiveFraction·optimum per spec.md's FVA
// contract, tolerating infeasibility of the pin by relaxing it — all
// handled by model.FindTightBounds, which this method drives with a
// solver-backed Solve callback.
func (o *Orchestrator) FindTightBounds(reactionIDs []ids.ReactionID, objectiveFraction float64) (FVAResult, error) {
	if objectiveFraction <= 0 {
		objectiveFraction = o.cfg.ObjectiveFraction
	}

	class := o.problemClass()
	variables := make([]*model.Variable, 0, len(reactionIDs))
	for _, id := range reactionIDs {
		if v := o.builder.FluxVariable(id); v != nil {
			variables = append(variables, v)
		}
	}

	p := o.builder.Problem()
	err := model.FindTightBounds(p, variables, objectiveFraction, o.solveFn(class))
	if err != nil {
		return FVAResult{Infeasible: true}, err
	}

	tol := o.cfg.ZeroTolerance
	if tol <= 0 {
		tol = 1e-7
	}

	classes := make([]ReactionClass, 0, len(reactionIDs))
	for _, id := range reactionIDs {
		v := o.builder.FluxVariable(id)
		if v == nil || !v.TightSet {
			continue
		}
		classes = append(classes, ReactionClass{
			ReactionID: id,
			Min:        v.Tight.Min,
			Max:        v.Tight.Max,
			Envelope:   v.Classify(tol),
		})
	}

	return FVAResult{LastSolve: p.LastSolution, Classes: classes}, nil
}
