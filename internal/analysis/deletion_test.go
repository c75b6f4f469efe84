package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/analysis"
)

func TestRunDeletionExperiments_CuttingOffUptakePredictsNoGrowth(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	experiments := []analysis.DeletionExperiment{
		{
			Name: "starved",
			Media: []analysis.MediaBound{
				{CompoundID: "cpdA", CompartmentID: "c", Min: 0, Max: 0},
			},
			ObservedGrowth: false,
		},
		{
			Name:           "fed",
			ObservedGrowth: true,
		},
	}

	results := o.RunDeletionExperiments(context.Background(), experiments)
	require.Len(t, results, 2)

	assert.False(t, results[0].PredictedGrowth)
	assert.True(t, results[0].Match)

	assert.True(t, results[1].PredictedGrowth)
	assert.True(t, results[1].Match)
}

func TestRunDeletionExperiments_RestoresMediaBetweenExperiments(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t)
	experiments := []analysis.DeletionExperiment{
		{
			Name: "starved",
			Media: []analysis.MediaBound{
				{CompoundID: "cpdA", CompartmentID: "c", Min: 0, Max: 0},
			},
			ObservedGrowth: false,
		},
	}
	o.RunDeletionExperiments(context.Background(), experiments)

	dv := o.Builder().DrainVariable("cpdA", "c")
	require.NotNil(t, dv)
	assert.Equal(t, -10.0, dv.Hard.Min)
	assert.Equal(t, 0.0, dv.Hard.Max)
}
