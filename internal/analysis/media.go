package analysis

import (
	"context"

	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// MediaMinimizeResult is the outcome of a media-minimization pass.
type MediaMinimizeResult struct {
	Status         model.SolutionStatus
	MinimalUseSum  float64
	ActiveCompound []ids.CompoundID
}

// MinimizeMedia reuses the already-built drain-use variables of every named
// exchange (it creates none), minimizes their sum subject to a positive-growth
// constraint on the current objective, and reports which compounds remain
// active in the minimal-media solution. candidates naming a compound with
// no built drain are skipped — the builder must have been built with
// ExchangeSpecies covering every compound a caller wants considered.
func (o *Orchestrator) MinimizeMedia(ctx context.Context, candidates []ids.CompoundID, compartmentID ids.CompartmentID, minimumGrowth float64) (MediaMinimizeResult, error) {
	p := o.builder.Problem()
	p.Push()
	defer p.Pop()

	if minimumGrowth <= 0 {
		minimumGrowth = growthThreshold
	}

	growthRow := model.NewLinEquation("_media_minimum_growth", minimumGrowth, model.GreaterEqual)
	growthRow.Meaning = model.ObjectivePin
	growthRow.Terms = append(growthRow.Terms, p.Objective.Terms...)
	p.AddConstraint(growthRow)

	p.Objective = model.Objective{Maximize: false}
	var useVars []*model.Variable
	var compounds []ids.CompoundID
	for _, id := range candidates {
		use := o.builder.DrainUseVariable(id, compartmentID)
		if use == nil {
			continue
		}
		p.Objective.AddTerm(use, 1)
		useVars = append(useVars, use)
		compounds = append(compounds, id)
	}

	sol := o.solve(ctx, o.problemClass())
	if !sol.IsUsable() {
		return MediaMinimizeResult{Status: sol.Status}, nil
	}

	tol := o.cfg.ZeroTolerance
	if tol <= 0 {
		tol = 1e-7
	}

	var active []ids.CompoundID
	for i, v := range useVars {
		val, _ := sol.ValueOf(v)
		if val > tol {
			active = append(active, compounds[i])
		}
	}

	return MediaMinimizeResult{Status: sol.Status, MinimalUseSum: sol.ObjectiveValue, ActiveCompound: active}, nil
}
