//go:build integration

package repositories_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func newModelRepoTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("INTEGRATION_TEST_DB_URL")
	if dbURL == "" {
		t.Skip("INTEGRATION_TEST_DB_URL not set; skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ctx := context.Background()
	ddl := `
	CREATE TABLE IF NOT EXISTS model_compartments (
		model_id TEXT NOT NULL, abbreviation TEXT NOT NULL, name TEXT NOT NULL, data JSONB NOT NULL,
		PRIMARY KEY (model_id, abbreviation)
	);
	CREATE TABLE IF NOT EXISTS model_compounds (
		model_id TEXT NOT NULL, compound_id TEXT NOT NULL, name TEXT NOT NULL, formula TEXT NOT NULL DEFAULT '', data JSONB NOT NULL,
		PRIMARY KEY (model_id, compound_id)
	);
	CREATE TABLE IF NOT EXISTS model_reactions (
		model_id TEXT NOT NULL, reaction_id TEXT NOT NULL, name TEXT NOT NULL, data JSONB NOT NULL,
		PRIMARY KEY (model_id, reaction_id)
	);
	CREATE TABLE IF NOT EXISTS model_genes (
		model_id TEXT NOT NULL, gene_id TEXT NOT NULL, name TEXT NOT NULL, data JSONB NOT NULL,
		PRIMARY KEY (model_id, gene_id)
	);
	CREATE TABLE IF NOT EXISTS run_history (
		run_id TEXT PRIMARY KEY, model_id TEXT NOT NULL, kind TEXT NOT NULL, status SMALLINT NOT NULL,
		objective_value DOUBLE PRECISION NOT NULL, solution_values JSONB NOT NULL, annotations JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err = pool.Exec(ctx, ddl)
	require.NoError(t, err)

	return pool
}

func TestPostgresModelRepo_CompoundsRoundTrip(t *testing.T) {
	pool := newModelRepoTestPool(t)
	repo := repositories.NewPostgresModelRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	dg := 10.5
	decls := []compound.Declaration{
		{ID: ids.CompoundID("cpdA"), Name: "Compound A", Formula: "C6H12O6", EstDeltaG: &dg},
	}

	require.NoError(t, repo.SaveCompounds(ctx, "model-1", decls))

	loaded, err := repo.LoadCompounds(ctx, "model-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, ids.CompoundID("cpdA"), loaded[0].ID)
	assert.Equal(t, "C6H12O6", loaded[0].Formula)
	require.NotNil(t, loaded[0].EstDeltaG)
	assert.InDelta(t, 10.5, *loaded[0].EstDeltaG, 1e-9)
}

func TestPostgresModelRepo_ReactionsAndCompartmentsRoundTrip(t *testing.T) {
	pool := newModelRepoTestPool(t)
	repo := repositories.NewPostgresModelRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	compartments := []compartment.Declaration{
		{Abbreviation: "c", Name: "Cytosol", MaxConc: 0.02, MinConc: 1e-6},
	}
	require.NoError(t, repo.SaveCompartments(ctx, "model-2", compartments))

	loadedCompartments, err := repo.LoadCompartments(ctx, "model-2")
	require.NoError(t, err)
	require.Len(t, loadedCompartments, 1)
	assert.Equal(t, "Cytosol", loadedCompartments[0].Name)

	reactions := []reaction.Declaration{
		{
			ID:   ids.ReactionID("rxnR1"),
			Name: "R1",
			Reactants: []reaction.ReactantDeclaration{
				{CompoundID: ids.CompoundID("cpdA"), Coefficient: 1, CompartmentID: ids.CompartmentID("c")},
			},
			Products: []reaction.ReactantDeclaration{
				{CompoundID: ids.CompoundID("cpdB"), Coefficient: 1, CompartmentID: ids.CompartmentID("c")},
			},
		},
	}
	require.NoError(t, repo.SaveReactions(ctx, "model-2", reactions))

	loadedReactions, err := repo.LoadReactions(ctx, "model-2")
	require.NoError(t, err)
	require.Len(t, loadedReactions, 1)
	assert.Equal(t, ids.ReactionID("rxnR1"), loadedReactions[0].ID)
	require.Len(t, loadedReactions[0].Reactants, 1)
	assert.Equal(t, ids.CompoundID("cpdA"), loadedReactions[0].Reactants[0].CompoundID)
}

func TestPostgresModelRepo_RunHistoryRoundTrip(t *testing.T) {
	pool := newModelRepoTestPool(t)
	repo := repositories.NewPostgresModelRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	runID := ids.NewRunID()
	sol := model.OptSolutionData{
		Status:         model.StatusOptimal,
		ObjectiveValue: 9.75,
		Values:         []float64{1, 2, 3},
	}

	require.NoError(t, repo.SaveRun(ctx, "model-3", runID, "fba", sol))

	got, err := repo.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOptimal, got.Status)
	assert.InDelta(t, 9.75, got.ObjectiveValue, 1e-9)
	assert.Equal(t, []float64{1, 2, 3}, got.Values)

	summaries, err := repo.ListRuns(ctx, "model-3", 10)
	require.NoError(t, err)
	require.NotEmpty(t, summaries)
	assert.Equal(t, runID, summaries[0].RunID)
}

func TestPostgresModelRepo_GetRunReturnsNotFoundForUnknownID(t *testing.T) {
	pool := newModelRepoTestPool(t)
	repo := repositories.NewPostgresModelRepo(pool, logging.NewNopLogger())

	_, err := repo.GetRun(context.Background(), ids.RunID("does-not-exist"))
	assert.Error(t, err)
}
