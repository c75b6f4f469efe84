package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/model"
)

func TestVariable_EffectiveBoundsFallsBackToHard(t *testing.T) {
	t.Parallel()

	v := model.NewVariable(model.Flux, "rxn1", model.Bounds{Min: -10, Max: 10})
	assert.Equal(t, model.Bounds{Min: -10, Max: 10}, v.EffectiveBounds())

	v.Tight = model.Bounds{Min: -2, Max: 5}
	v.TightSet = true
	assert.Equal(t, model.Bounds{Min: -2, Max: 5}, v.EffectiveBounds())
}

func TestVariable_IsLoadedAndClear(t *testing.T) {
	t.Parallel()

	v := model.NewVariable(model.Flux, "rxn1", model.Bounds{})
	assert.False(t, v.IsLoaded())
	v.SolverIndex = 3
	assert.True(t, v.IsLoaded())
	v.ClearSolverIndex()
	assert.False(t, v.IsLoaded())
}

func TestLinEquation_EvaluateAndSatisfied(t *testing.T) {
	t.Parallel()

	a := model.NewVariable(model.Flux, "a", model.Bounds{})
	a.SolverIndex = 0
	b := model.NewVariable(model.Flux, "b", model.Bounds{})
	b.SolverIndex = 1

	eq := model.NewLinEquation("balance", 0, model.Equal)
	eq.AddTerm(a, 1)
	eq.AddTerm(b, -1)

	values := []float64{5, 5}
	assert.Equal(t, 0.0, eq.Evaluate(values))
	assert.True(t, eq.Satisfied(values, 1e-9))

	values2 := []float64{5, 3}
	assert.False(t, eq.Satisfied(values2, 1e-9))
}

func TestProblemState_PushPopRestoresPriorState(t *testing.T) {
	t.Parallel()

	p := model.NewProblemState()
	v1 := model.NewVariable(model.Flux, "v1", model.Bounds{})
	p.AddVariable(v1)

	p.Push()
	v2 := model.NewVariable(model.Flux, "v2", model.Bounds{})
	p.AddVariable(v2)
	assert.Len(t, p.Variables, 2)

	ok := p.Pop()
	require.True(t, ok)
	assert.Len(t, p.Variables, 1)
	assert.Equal(t, "v1", p.Variables[0].Name)
}

func TestProblemState_PopEmptyStackReturnsFalse(t *testing.T) {
	t.Parallel()

	p := model.NewProblemState()
	assert.False(t, p.Pop())
}

func TestProblemState_RemoveConstraint(t *testing.T) {
	t.Parallel()

	p := model.NewProblemState()
	eq := model.NewLinEquation("row1", 0, model.Equal)
	p.AddConstraint(eq)

	assert.NotNil(t, p.FindConstraint("row1"))
	assert.True(t, p.RemoveConstraint("row1"))
	assert.Nil(t, p.FindConstraint("row1"))
	assert.False(t, p.RemoveConstraint("row1"))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tol := 1e-7
	cases := []struct {
		name   string
		bounds model.Bounds
		want   model.SignEnvelope
	}{
		{"blocked", model.Bounds{Min: 0, Max: 0}, model.Blocked},
		{"positive", model.Bounds{Min: 1, Max: 10}, model.Positive},
		{"negative", model.Bounds{Min: -10, Max: -1}, model.Negative},
		{"variable", model.Bounds{Min: -5, Max: 5}, model.Variable},
		{"positive-variable", model.Bounds{Min: 0, Max: 5}, model.PositiveVariable},
		{"negative-variable", model.Bounds{Min: -5, Max: 0}, model.NegativeVariable},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, model.Classify(tc.bounds, tol))
		})
	}
}

func TestSignEnvelope_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "P", model.Positive.String())
	assert.Equal(t, "N", model.Negative.String())
	assert.Equal(t, "V", model.Variable.String())
	assert.Equal(t, "PV", model.PositiveVariable.String())
	assert.Equal(t, "NV", model.NegativeVariable.String())
	assert.Equal(t, "B", model.Blocked.String())
}

func TestFindTightBounds_SimpleFlux(t *testing.T) {
	t.Parallel()

	p := model.NewProblemState()
	flux := model.NewVariable(model.Flux, "flux1", model.Bounds{Min: -10, Max: 10})
	flux.SolverIndex = 0
	p.AddVariable(flux)
	p.Objective.AddTerm(flux, 1)
	p.Objective.Maximize = true

	solve := func(ps *model.ProblemState) (model.OptSolutionData, error) {
		// Every objective in this fixture is a single-term reference to
		// flux, possibly sign-flipped by Maximize; just clamp to bounds.
		var val float64
		if ps.Objective.Maximize {
			val = flux.Hard.Max
		} else {
			val = flux.Hard.Min
		}
		return model.OptSolutionData{
			Status:         model.StatusOptimal,
			ObjectiveValue: val,
			Values:         []float64{val},
		}, nil
	}

	err := model.FindTightBounds(p, []*model.Variable{flux}, 1.0, solve)
	require.NoError(t, err)
	assert.True(t, flux.TightSet)
	assert.Equal(t, -10.0, flux.Tight.Min)
	assert.Equal(t, 10.0, flux.Tight.Max)
}

func TestFindTightBounds_BaselineInfeasibleReturnsError(t *testing.T) {
	t.Parallel()

	p := model.NewProblemState()
	flux := model.NewVariable(model.Flux, "flux1", model.Bounds{Min: -10, Max: 10})
	p.AddVariable(flux)

	solve := func(ps *model.ProblemState) (model.OptSolutionData, error) {
		return model.OptSolutionData{Status: model.StatusInfeasible}, nil
	}

	err := model.FindTightBounds(p, []*model.Variable{flux}, 1.0, solve)
	assert.Error(t, err)
}
