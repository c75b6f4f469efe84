package gene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/domain/gene"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func TestNew_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	_, err := gene.New(gene.Declaration{StartCoord: 0, EndCoord: 10})
	assert.Error(t, err)
}

func TestNew_RejectsInvertedCoords(t *testing.T) {
	t.Parallel()

	_, err := gene.New(gene.Declaration{ID: "b0001", StartCoord: 10, EndCoord: 5})
	assert.Error(t, err)
}

func TestAddReaction_DeduplicatesAndSortsInNoSpecialOrder(t *testing.T) {
	t.Parallel()

	g, err := gene.New(gene.Declaration{ID: "b0001", StartCoord: 0, EndCoord: 100})
	require.NoError(t, err)

	g.AddReaction("rxn00001")
	g.AddReaction("rxn00002")
	g.AddReaction("rxn00001")

	assert.Equal(t, []ids.ReactionID{"rxn00001", "rxn00002"}, g.Reactions)
}

func TestOverlapsCoordAndInterval(t *testing.T) {
	t.Parallel()

	g, err := gene.New(gene.Declaration{ID: "b0001", StartCoord: 100, EndCoord: 200})
	require.NoError(t, err)

	assert.True(t, g.OverlapsCoord(150))
	assert.False(t, g.OverlapsCoord(200))
	assert.False(t, g.OverlapsCoord(50))

	assert.True(t, g.OverlapsInterval(150, 250))
	assert.True(t, g.OverlapsInterval(50, 150))
	assert.False(t, g.OverlapsInterval(200, 300))
	assert.False(t, g.OverlapsInterval(0, 100))
}

func TestInterval_CollectAssignsOverlappingGenes(t *testing.T) {
	t.Parallel()

	gA, err := gene.New(gene.Declaration{ID: "b0001", StartCoord: 0, EndCoord: 100})
	require.NoError(t, err)
	gB, err := gene.New(gene.Declaration{ID: "b0002", StartCoord: 90, EndCoord: 150})
	require.NoError(t, err)
	gC, err := gene.New(gene.Declaration{ID: "b0003", StartCoord: 500, EndCoord: 600})
	require.NoError(t, err)

	iv, err := gene.NewInterval(gene.IntervalDeclaration{
		ID:                 "interval1",
		StartCoord:         0,
		EndCoord:           150,
		TotalGenes:         3,
		ExperimentalGrowth: 0.2,
	})
	require.NoError(t, err)

	iv.Collect([]*gene.Gene{gA, gB, gC})

	assert.ElementsMatch(t, []ids.GeneID{"b0001", "b0002"}, iv.Genes)
	assert.Equal(t, 2, iv.NumLoadedGenes())
	assert.Equal(t, 3, iv.TotalGenes)
}

func TestInterval_ForcedInactiveWhenNoObservedGrowth(t *testing.T) {
	t.Parallel()

	iv, err := gene.NewInterval(gene.IntervalDeclaration{ID: "interval1", StartCoord: 0, EndCoord: 10, ExperimentalGrowth: 0})
	require.NoError(t, err)
	assert.True(t, iv.IsForcedInactive())

	iv2, err := gene.NewInterval(gene.IntervalDeclaration{ID: "interval2", StartCoord: 0, EndCoord: 10, ExperimentalGrowth: 0.5})
	require.NoError(t, err)
	assert.False(t, iv2.IsForcedInactive())
}

func TestIntervalDatabase_AddGet(t *testing.T) {
	t.Parallel()

	db := gene.NewIntervalDatabase()
	iv, err := gene.NewInterval(gene.IntervalDeclaration{ID: "interval1", StartCoord: 0, EndCoord: 10})
	require.NoError(t, err)

	idx, err := db.Add(iv)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, idx, iv.Index())

	got, err := db.Get("interval1")
	require.NoError(t, err)
	assert.Same(t, iv, got)
}

func TestDatabase_AddGetRemove(t *testing.T) {
	t.Parallel()

	db := gene.NewDatabase()
	g, err := gene.New(gene.Declaration{ID: "b0001", StartCoord: 0, EndCoord: 10})
	require.NoError(t, err)

	idx, err := db.Add(g)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, idx, g.Index())

	got, err := db.Get("b0001")
	require.NoError(t, err)
	assert.Same(t, g, got)

	assert.True(t, db.Remove("b0001"))
	_, err = db.Get("b0001")
	assert.Error(t, err)
}
