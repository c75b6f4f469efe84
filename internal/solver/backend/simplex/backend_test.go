package simplex_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/internal/solver/backend/simplex"
)

func TestBackend_LoadAndRunSimpleLP(t *testing.T) {
	t.Parallel()

	b := simplex.New()
	require.NoError(t, b.Init())

	x := model.NewVariable(model.Flux, "x", model.Bounds{Min: 0, Max: 6})
	y := model.NewVariable(model.Flux, "y", model.Bounds{Min: 0, Max: 8})

	_, err := b.LoadVariable(x, false, false)
	require.NoError(t, err)
	_, err = b.LoadVariable(y, false, false)
	require.NoError(t, err)

	obj := model.Objective{Maximize: true}
	obj.AddTerm(x, 1)
	obj.AddTerm(y, 1)
	require.NoError(t, b.LoadObjective(obj))

	row := model.NewLinEquation("cap", 10, model.LessEqual)
	row.AddTerm(x, 1)
	row.AddTerm(y, 1)
	_, err = b.AddConstraint(row)
	require.NoError(t, err)

	sol, err := b.Run(solver.LP, solver.RunOptions{ZeroTolerance: 1e-9})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOptimal, sol.Status)
	assert.InDelta(t, 10.0, sol.ObjectiveValue, 1e-6)
}

func TestBackend_LoadVariableTwiceUpdatesInPlace(t *testing.T) {
	t.Parallel()

	b := simplex.New()
	require.NoError(t, b.Init())
	v := model.NewVariable(model.Flux, "v", model.Bounds{Min: 0, Max: 5})

	idx1, err := b.LoadVariable(v, false, false)
	require.NoError(t, err)
	idx2, err := b.LoadVariable(v, true, true)
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2)
	assert.Len(t, b.Variables(), 1)
}

func TestBackend_AddConstraintSameNameRewrites(t *testing.T) {
	t.Parallel()

	b := simplex.New()
	require.NoError(t, b.Init())
	row1 := model.NewLinEquation("row", 1, model.Equal)
	row2 := model.NewLinEquation("row", 2, model.Equal)

	idx1, err := b.AddConstraint(row1)
	require.NoError(t, err)
	idx2, err := b.AddConstraint(row2)
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2)
	assert.Len(t, b.Rows(), 1)
	assert.Equal(t, 2.0, b.Rows()[0].RHS)
}

func TestBackend_RemoveConstraintReindexes(t *testing.T) {
	t.Parallel()

	b := simplex.New()
	require.NoError(t, b.Init())
	a := model.NewLinEquation("a", 0, model.Equal)
	c := model.NewLinEquation("b", 0, model.Equal)
	_, _ = b.AddConstraint(a)
	_, _ = b.AddConstraint(c)

	require.NoError(t, b.RemoveConstraint("a"))
	assert.Len(t, b.Rows(), 1)
	assert.Equal(t, 0, b.Rows()[0].RowIndex)

	err := b.RemoveConstraint("missing")
	assert.Error(t, err)
}

func TestBackend_RunRejectsNonLPClass(t *testing.T) {
	t.Parallel()

	b := simplex.New()
	require.NoError(t, b.Init())
	_, err := b.Run(solver.MILP, solver.RunOptions{})
	assert.Error(t, err)
}

func TestBackend_WriteLPEmitsSections(t *testing.T) {
	t.Parallel()

	b := simplex.New()
	require.NoError(t, b.Init())
	x := model.NewVariable(model.Flux, "x", model.Bounds{Min: 0, Max: 6})
	_, _ = b.LoadVariable(x, false, false)
	obj := model.Objective{Maximize: true}
	obj.AddTerm(x, 1)
	_ = b.LoadObjective(obj)
	row := model.NewLinEquation("cap", 10, model.LessEqual)
	row.AddTerm(x, 1)
	_, _ = b.AddConstraint(row)

	var sb strings.Builder
	require.NoError(t, b.WriteLP(&sb))
	out := sb.String()
	assert.Contains(t, out, "Maximize")
	assert.Contains(t, out, "cap:")
	assert.Contains(t, out, "Bounds")
	assert.Contains(t, out, "End")
}
