package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/graph"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
)

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()

	compounds := compound.NewDatabase()
	reactions := reaction.NewDatabase()

	// A -> B via rxn1, B -> C via rxn2.
	r1, err := reaction.New(reaction.Declaration{
		ID: "rxn1",
		Reactants: []reaction.ReactantDeclaration{
			{CompoundID: "A", Coefficient: -1, CompartmentID: "c"},
		},
		Products: []reaction.ReactantDeclaration{
			{CompoundID: "B", Coefficient: 1, CompartmentID: "c"},
		},
	})
	require.NoError(t, err)
	_, err = reactions.Add(r1)
	require.NoError(t, err)

	r2, err := reaction.New(reaction.Declaration{
		ID: "rxn2",
		Reactants: []reaction.ReactantDeclaration{
			{CompoundID: "B", Coefficient: -1, CompartmentID: "c"},
		},
		Products: []reaction.ReactantDeclaration{
			{CompoundID: "C", Coefficient: 1, CompartmentID: "c"},
		},
	})
	require.NoError(t, err)
	_, err = reactions.Add(r2)
	require.NoError(t, err)

	return graph.Build(compounds, reactions)
}

func TestBuild_CreatesCompoundAndReactionNodes(t *testing.T) {
	t.Parallel()

	g := buildSampleGraph(t)

	assert.True(t, g.HasNode(graph.CompoundNodeID("A", "c")))
	assert.True(t, g.HasNode(graph.CompoundNodeID("B", "c")))
	assert.True(t, g.HasNode(graph.CompoundNodeID("C", "c")))
	assert.True(t, g.HasNode(graph.ReactionNodeID("rxn1")))
	assert.True(t, g.HasNode(graph.ReactionNodeID("rxn2")))
}

func TestNeighbors_CompoundReachesItsReactions(t *testing.T) {
	t.Parallel()

	g := buildSampleGraph(t)

	neighbors := g.Neighbors(graph.CompoundNodeID("B", "c"))
	require.Len(t, neighbors, 2)

	var kinds []graph.NodeID
	for _, n := range neighbors {
		kinds = append(kinds, n.ID)
	}
	assert.Contains(t, kinds, graph.ReactionNodeID("rxn1"))
	assert.Contains(t, kinds, graph.ReactionNodeID("rxn2"))
}

func TestBFS_VisitsReachableNodes(t *testing.T) {
	t.Parallel()

	g := buildSampleGraph(t)
	res, err := g.BFS(context.Background(), graph.CompoundNodeID("A", "c"))
	require.NoError(t, err)

	assert.True(t, res.Visited[graph.CompoundNodeID("C", "c")])
	assert.Equal(t, 4, res.Depth[graph.CompoundNodeID("C", "c")])
}

func TestShortestPath_FindsPathAcrossReactions(t *testing.T) {
	t.Parallel()

	g := buildSampleGraph(t)
	path, ok, err := g.ShortestPath(context.Background(), graph.CompoundNodeID("A", "c"), graph.CompoundNodeID("C", "c"))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []graph.NodeID{
		graph.CompoundNodeID("A", "c"),
		graph.ReactionNodeID("rxn1"),
		graph.CompoundNodeID("B", "c"),
		graph.ReactionNodeID("rxn2"),
		graph.CompoundNodeID("C", "c"),
	}, path.Nodes)
}

func TestShortestPath_NoPathReturnsFalse(t *testing.T) {
	t.Parallel()

	compounds := compound.NewDatabase()
	reactions := reaction.NewDatabase()
	r, err := reaction.New(reaction.Declaration{
		ID: "rxn1",
		Reactants: []reaction.ReactantDeclaration{
			{CompoundID: "A", Coefficient: -1, CompartmentID: "c"},
		},
		Products: []reaction.ReactantDeclaration{
			{CompoundID: "B", Coefficient: 1, CompartmentID: "c"},
		},
	})
	require.NoError(t, err)
	_, err = reactions.Add(r)
	require.NoError(t, err)

	r2, err := reaction.New(reaction.Declaration{
		ID: "rxn2",
		Reactants: []reaction.ReactantDeclaration{
			{CompoundID: "X", Coefficient: -1, CompartmentID: "c"},
		},
		Products: []reaction.ReactantDeclaration{
			{CompoundID: "Y", Coefficient: 1, CompartmentID: "c"},
		},
	})
	require.NoError(t, err)
	_, err = reactions.Add(r2)
	require.NoError(t, err)

	g := graph.Build(compounds, reactions)
	_, ok, err := g.ShortestPath(context.Background(), graph.CompoundNodeID("A", "c"), graph.CompoundNodeID("Y", "c"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShortestPath_UnknownNodeErrors(t *testing.T) {
	t.Parallel()

	g := buildSampleGraph(t)
	_, _, err := g.ShortestPath(context.Background(), graph.CompoundNodeID("Z", "c"), graph.CompoundNodeID("A", "c"))
	assert.Error(t, err)
}
