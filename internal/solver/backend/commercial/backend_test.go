package commercial_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/internal/solver/backend/commercial"
)

func TestAvailable_FalseWithNoLicense(t *testing.T) {
	os.Unsetenv(commercial.LicenseEnvVar)
	b := commercial.New("")
	assert.False(t, b.Available())
}

func TestAvailable_TrueWithEnvVarLicenseFile(t *testing.T) {
	dir := t.TempDir()
	licensePath := filepath.Join(dir, "solver.lic")
	require.NoError(t, os.WriteFile(licensePath, []byte("ok"), 0o644))

	require.NoError(t, os.Setenv(commercial.LicenseEnvVar, licensePath))
	defer os.Unsetenv(commercial.LicenseEnvVar)

	b := commercial.New("")
	assert.True(t, b.Available())
}

func TestAvailable_TrueWithLicenseDir(t *testing.T) {
	os.Unsetenv(commercial.LicenseEnvVar)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solver.lic"), []byte("ok"), 0o644))

	b := commercial.New(dir)
	assert.True(t, b.Available())
}

func TestRun_RejectsWhenUnavailable(t *testing.T) {
	os.Unsetenv(commercial.LicenseEnvVar)
	b := commercial.New("")
	require.NoError(t, b.Init())
	_, err := b.Run(solver.QP, solver.RunOptions{})
	assert.Error(t, err)
}

func TestRun_QPLinearizesAroundBoundMidpoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solver.lic"), []byte("ok"), 0o644))

	b := commercial.New(dir)
	require.NoError(t, b.Init())

	x := model.NewVariable(model.Flux, "x", model.Bounds{Min: 0, Max: 10})
	y := model.NewVariable(model.Flux, "y", model.Bounds{Min: 0, Max: 4})
	_, err := b.LoadVariable(x, false, false)
	require.NoError(t, err)
	_, err = b.LoadVariable(y, false, false)
	require.NoError(t, err)

	obj := model.Objective{Maximize: true}
	obj.AddQuadraticTerm(x, y, 1)
	require.NoError(t, b.LoadObjective(obj))

	sol, err := b.Run(solver.QP, solver.RunOptions{ZeroTolerance: 1e-9})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOptimal, sol.Status)
	// Linearized: coefficient*x*mid(y) + coefficient*y*mid(x), mid(y)=2,
	// mid(x)=5 -> maximize 2x + 5y over x in [0,10], y in [0,4]: x=10,y=4.
	assert.InDelta(t, 2*10+5*4, sol.ObjectiveValue, 1e-6)
}
