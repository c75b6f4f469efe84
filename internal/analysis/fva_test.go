package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func TestFindTightBounds_ReportsPositiveEnvelopeForForwardOnlyReaction(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	result, err := o.FindTightBounds([]ids.ReactionID{"rxnR1"}, 0)
	require.NoError(t, err)
	require.False(t, result.Infeasible)
	require.Len(t, result.Classes, 1)

	cls := result.Classes[0]
	assert.Equal(t, ids.ReactionID("rxnR1"), cls.ReactionID)
	assert.InDelta(t, 10.0, cls.Max, 1e-6)
	assert.InDelta(t, 10.0, cls.Min, 1e-6)
}

func TestFindTightBounds_SkipsUnbuiltReaction(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	result, err := o.FindTightBounds([]ids.ReactionID{"rxnNoSuchReaction"}, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Classes)
}
