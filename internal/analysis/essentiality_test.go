package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func TestReactionEssentiality_KnockingOutSoleReactionZerosObjective(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	results := o.ReactionEssentiality(context.Background(), []ids.ReactionID{"rxnR1"})

	require.Contains(t, results, ids.ReactionID("rxnR1"))
	res := results["rxnR1"]
	assert.Equal(t, model.StatusOptimal, res.Status)
	assert.InDelta(t, 0, res.ObjectiveValue, 1e-9)
}

func TestReactionEssentiality_RestoresBoundsAfterEachCandidate(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	o.ReactionEssentiality(context.Background(), []ids.ReactionID{"rxnR1"})

	fv := o.Builder().FluxVariable("rxnR1")
	require.NotNil(t, fv)
	assert.Equal(t, model.Bounds{Min: 0, Max: 100}, fv.Hard)

	post := o.RunFBA(context.Background())
	assert.InDelta(t, 10.0, post.ObjectiveValue, 1e-6)
}

func TestReactionEssentiality_SkipsUnbuiltCandidateWithoutPanicking(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	results := o.ReactionEssentiality(context.Background(), []ids.ReactionID{"rxnGhost"})
	assert.NotContains(t, results, ids.ReactionID("rxnGhost"))
}
