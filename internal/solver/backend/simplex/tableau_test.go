package simplex_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/solver/backend/simplex"
)

func TestSolve_SimpleBoundedMaximize(t *testing.T) {
	t.Parallel()

	tab := simplex.Tableau{
		Bounds:    []simplex.Bound{{Lower: 0, Upper: 6}, {Lower: 0, Upper: 8}},
		Objective: []float64{1, 1},
		Maximize:  true,
		Rows: []simplex.Row{
			{Coeffs: []float64{1, 1}, RHS: 10, Sense: simplex.LE},
		},
	}

	sol, err := simplex.Solve(tab, 1e-9)
	require.NoError(t, err)
	require.Equal(t, simplex.Optimal, sol.Status)
	assert.InDelta(t, 10.0, sol.ObjectiveValue, 1e-6)
	assert.InDelta(t, 10.0, sol.Values[0]+sol.Values[1], 1e-6)
}

func TestSolve_UnboundedWhenNoUpperLimit(t *testing.T) {
	t.Parallel()

	tab := simplex.Tableau{
		Bounds:    []simplex.Bound{{Lower: 0, Upper: math.Inf(1)}},
		Objective: []float64{1},
		Maximize:  true,
	}

	sol, err := simplex.Solve(tab, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, simplex.Unbounded, sol.Status)
}

func TestSolve_InfeasibleWhenBoundsInverted(t *testing.T) {
	t.Parallel()

	tab := simplex.Tableau{
		Bounds:    []simplex.Bound{{Lower: 5, Upper: 3}},
		Objective: []float64{1},
		Maximize:  true,
	}

	sol, err := simplex.Solve(tab, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, simplex.Infeasible, sol.Status)
}

func TestSolve_MinimizeWithEqualityConstraint(t *testing.T) {
	t.Parallel()

	// minimize x + 2y s.t. x + y = 5, x,y in [0, 10]
	tab := simplex.Tableau{
		Bounds:    []simplex.Bound{{Lower: 0, Upper: 10}, {Lower: 0, Upper: 10}},
		Objective: []float64{1, 2},
		Maximize:  false,
		Rows: []simplex.Row{
			{Coeffs: []float64{1, 1}, RHS: 5, Sense: simplex.EQ},
		},
	}

	sol, err := simplex.Solve(tab, 1e-9)
	require.NoError(t, err)
	require.Equal(t, simplex.Optimal, sol.Status)
	// Optimal pushes all weight onto x (cheaper coefficient): x=5, y=0.
	assert.InDelta(t, 5.0, sol.ObjectiveValue, 1e-6)
	assert.InDelta(t, 5.0, sol.Values[0], 1e-6)
	assert.InDelta(t, 0.0, sol.Values[1], 1e-6)
}
