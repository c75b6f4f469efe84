package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/gene"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// fixtureModel builds the network used throughout spec scenario S1:
// compounds cpdA and cpdB in compartment "c", and one reaction R1: A -> B
// (forward-only).
func fixtureModel(t *testing.T) (*compartment.Registry, *compound.Database, *reaction.Database, *gene.Database) {
	t.Helper()

	compartments := compartment.NewRegistry()
	_, err := compartments.Declare(compartment.Declaration{Abbreviation: "c", Name: "Cytosol"})
	require.NoError(t, err)

	compounds := compound.NewDatabase()
	for _, id := range []ids.CompoundID{"cpdA", "cpdB"} {
		c, err := compound.New(compound.Declaration{ID: id, Name: string(id)})
		require.NoError(t, err)
		_, err = compounds.Add(c)
		require.NoError(t, err)
	}

	reactions := reaction.NewDatabase()
	r1, err := reaction.New(reaction.Declaration{
		ID:   "rxnR1",
		Name: "R1",
		Reactants: []reaction.ReactantDeclaration{
			{CompoundID: "cpdA", Coefficient: -1, CompartmentID: "c"},
		},
		Products: []reaction.ReactantDeclaration{
			{CompoundID: "cpdB", Coefficient: 1, CompartmentID: "c"},
		},
	})
	require.NoError(t, err)
	r1.Direction = reaction.ForwardOnly
	_, err = reactions.Add(r1)
	require.NoError(t, err)

	return compartments, compounds, reactions, gene.NewDatabase()
}

func TestBuild_CreatesFluxVariableWithinDirectionalBounds(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.MaxFlux = 100

	require.NoError(t, b.Build(params))

	fv := b.FluxVariable("rxnR1")
	require.NotNil(t, fv)
	assert.Equal(t, model.Bounds{Min: 0, Max: 100}, fv.Hard)
}

func TestBuild_MassBalanceCoversBothReactantAndProduct(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	require.NoError(t, b.Build(builder.Default()))

	names := make(map[string]bool)
	for _, c := range problem.Constraints {
		names[c.Name] = true
	}
	assert.True(t, names["MB_cpdA@c"])
	assert.True(t, names["MB_cpdB@c"])
}

func TestBuild_IsAdditiveAcrossRepeatedCalls(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	require.NoError(t, b.Build(builder.Default()))
	firstVarCount := len(problem.Variables)
	firstConstraintCount := len(problem.Constraints)

	require.NoError(t, b.Build(builder.Default()))

	assert.Equal(t, firstVarCount, len(problem.Variables))
	assert.Equal(t, firstConstraintCount, len(problem.Constraints))
}

func TestBuild_KOReactionForcesZeroBounds(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.KOReactions = []ids.ReactionID{"rxnR1"}

	require.NoError(t, b.Build(params))

	fv := b.FluxVariable("rxnR1")
	require.NotNil(t, fv)
	assert.Equal(t, model.Bounds{Min: 0, Max: 0}, fv.Hard)
}

func TestBuild_ReactionsUseAddsLinkingConstraint(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.ReactionsUse = true

	require.NoError(t, b.Build(params))

	use := b.ReactionUseVariable("rxnR1")
	require.NotNil(t, use)
	assert.True(t, use.Binary)
	assert.NotNil(t, problem.FindConstraint("USE_rxnR1_LINK"))
}

func TestBuild_GeneConstraintsBuildsAndOrGates(t *testing.T) {
	t.Parallel()

	compartments, compounds, _, genes := fixtureModel(t)
	reactions := reaction.NewDatabase()
	r, err := reaction.New(reaction.Declaration{
		ID:   "rxnR2",
		Name: "R2",
		Reactants: []reaction.ReactantDeclaration{
			{CompoundID: "cpdA", Coefficient: -1, CompartmentID: "c"},
		},
		Products: []reaction.ReactantDeclaration{
			{CompoundID: "cpdB", Coefficient: 1, CompartmentID: "c"},
		},
		GeneAssociation: "gene1 and gene2",
	})
	require.NoError(t, err)
	_, err = reactions.Add(r)
	require.NoError(t, err)

	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.GeneConstraints = true

	require.NoError(t, b.Build(params))

	assert.NotNil(t, b.GeneUseVariable("gene1"))
	assert.NotNil(t, b.GeneUseVariable("gene2"))

	found := false
	for _, c := range problem.Constraints {
		if c.Meaning == model.GeneReactionMapping {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuild_UserBoundsOverridesBuiltVariable(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.UserBounds = map[builder.VariableRef]builder.BoundOverride{
		{DomainKind: builder.RefReaction, DomainID: "rxnR1"}: {Min: 5, Max: 20},
	}

	require.NoError(t, b.Build(params))

	fv := b.FluxVariable("rxnR1")
	require.NotNil(t, fv)
	assert.Equal(t, model.Bounds{Min: 5, Max: 20}, fv.Hard)
}

func TestBuild_AddConstraintsAppendsRawRow(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.AddConstraints = []builder.RawConstraint{
		{
			Name:     "CUSTOM_CAP",
			RHS:      50,
			Equality: "<=",
			Terms: []builder.RawTerm{
				{Ref: builder.VariableRef{DomainKind: builder.RefReaction, DomainID: "rxnR1"}, Coefficient: 1},
			},
		},
	}

	require.NoError(t, b.Build(params))

	row := problem.FindConstraint("CUSTOM_CAP")
	require.NotNil(t, row)
	assert.Equal(t, 50.0, row.RHS)
}

func TestBuild_ExchangeSpeciesAllocatesDrainVariable(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.ExchangeSpecies = []builder.ExchangeOverride{
		{CompoundID: "cpdA", CompartmentID: "c", Min: -10, Max: 0},
		{CompoundID: "cpdB", CompartmentID: "c", Min: 0, Max: 100},
	}

	require.NoError(t, b.Build(params))

	assert.NotNil(t, b.DrainVariable("cpdA", "c"))
	assert.NotNil(t, b.DrainVariable("cpdB", "c"))
	assert.NotNil(t, problem.FindConstraint("MB_cpdA@c"))
	assert.NotNil(t, problem.FindConstraint("MB_cpdB@c"))
}

func TestBuild_SetObjectiveResolvesSingleReference(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	require.NoError(t, b.Build(builder.Default()))

	ref := builder.VariableRef{DomainKind: builder.RefReaction, DomainID: "rxnR1"}
	require.NoError(t, b.SetObjective(builder.ObjectiveSpec{Single: &ref, Maximize: true}))

	assert.True(t, problem.Objective.Maximize)
	require.Len(t, problem.Objective.Terms, 1)
	assert.Equal(t, "FLUX_rxnR1", problem.Objective.Terms[0].Variable.Name)
}

func TestBuild_ReportsInvertedBounds(t *testing.T) {
	t.Parallel()

	compartments, compounds, reactions, genes := fixtureModel(t)
	problem := model.NewProblemState()
	b := builder.New(compartments, compounds, reactions, genes, nil, problem)

	params := builder.Default()
	params.UserBounds = map[builder.VariableRef]builder.BoundOverride{
		{DomainKind: builder.RefReaction, DomainID: "rxnR1"}: {Min: 50, Max: 10},
	}

	err := b.Build(params)
	assert.Error(t, err)
}
