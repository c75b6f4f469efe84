package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/analysis"
	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/internal/solver/backend/scip"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// newGapFillOrchestrator extends fixtureModel with a second, optional
// reaction rxnR2: A -> B gated behind a use variable (ReactionsUse), and no
// objective of its own set yet — growth is driven entirely by whichever
// reaction(s) gap filling chooses to switch on.
func newGapFillOrchestrator(t *testing.T) *analysis.Orchestrator {
	t.Helper()

	compartments, compounds, reactions, genes := fixtureModel(t)
	r2, err := reaction.New(reaction.Declaration{
		ID:   "rxnR2",
		Name: "R2",
		Reactants: []reaction.ReactantDeclaration{
			{CompoundID: "cpdA", Coefficient: -1, CompartmentID: "c"},
		},
		Products: []reaction.ReactantDeclaration{
			{CompoundID: "cpdB", Coefficient: 1, CompartmentID: "c"},
		},
	})
	require.NoError(t, err)
	r2.Direction = reaction.ForwardOnly
	_, err = reactions.Add(r2)
	require.NoError(t, err)

	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.MaxFlux = 100
	params.ReactionsUse = true
	params.ExchangeSpecies = []builder.ExchangeOverride{
		{CompoundID: "cpdA", CompartmentID: "c", Min: -10, Max: 0},
		{CompoundID: "cpdB", CompartmentID: "c", Min: 0, Max: 100},
	}
	require.NoError(t, b.Build(params))

	ref := builder.VariableRef{DomainKind: builder.RefReaction, DomainID: "rxnR1"}
	require.NoError(t, b.SetObjective(builder.ObjectiveSpec{Single: &ref, Maximize: true}))

	facade := solver.NewFacade(solver.Config{DefaultBackend: "s-mip"})
	facade.Register(scip.New())

	return analysis.New(b, facade, analysis.Config{ObjectiveFraction: 1.0, ZeroTolerance: 1e-7}, nil)
}

func TestGapFill_FindsMinimalAdditionWhenGrowthAlreadyPossible(t *testing.T) {
	t.Parallel()

	o := newGapFillOrchestrator(t)
	result, err := o.GapFill(context.Background(), []ids.ReactionID{"rxnR1", "rxnR2"}, 1.0)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOptimal, result.Status)
	assert.NotEmpty(t, result.Added)
}

func TestGapGenerate_DisablingAllCandidatesDropsGrowthToZero(t *testing.T) {
	t.Parallel()

	o := newGapFillOrchestrator(t)
	result, err := o.GapGenerate(context.Background(), []ids.ReactionID{"rxnR1", "rxnR2"}, 0)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOptimal, result.Status)
	assert.False(t, result.StillGrows)
}
