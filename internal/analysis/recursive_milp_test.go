package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func TestRecursiveMILP_FindsAtLeastTheOptimalConfiguration(t *testing.T) {
	t.Parallel()

	o := newGapFillOrchestrator(t)
	result := o.RecursiveMILP(context.Background(), []ids.ReactionID{"rxnR1", "rxnR2"}, 3, 0)

	require.NotEmpty(t, result.Solutions)
	assert.InDelta(t, 10.0, result.Solutions[0].ObjectiveValue, 1e-6)
	assert.Contains(t, result.Solutions[0].Active, ids.ReactionID("rxnR1"))
}

func TestRecursiveMILP_EachRoundExcludesThePreviousConfiguration(t *testing.T) {
	t.Parallel()

	o := newGapFillOrchestrator(t)
	result := o.RecursiveMILP(context.Background(), []ids.ReactionID{"rxnR1", "rxnR2"}, 5, 0)

	seen := make(map[string]bool)
	for _, sol := range result.Solutions {
		key := ""
		for _, id := range sol.Active {
			key += string(id) + ","
		}
		assert.False(t, seen[key], "duplicate configuration %q returned across rounds", key)
		seen[key] = true
	}
}

func TestRecursiveMILP_CancelledBeforeStartReturnsNoSolutions(t *testing.T) {
	t.Parallel()

	o := newGapFillOrchestrator(t)
	o.Cancel()
	result := o.RecursiveMILP(context.Background(), []ids.ReactionID{"rxnR1"}, 3, 0)

	assert.True(t, result.Cancelled)
	assert.Empty(t, result.Solutions)
}
