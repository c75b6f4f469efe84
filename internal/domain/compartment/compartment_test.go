package compartment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/domain/compartment"
)

func cytosolDecl() compartment.Declaration {
	return compartment.Declaration{
		Abbreviation:  "c",
		Name:          "Cytosol",
		PH:            7.0,
		IonicStrength: 0.15,
		MaxConc:       0.02,
		MinConc:       1e-5,
		DPsiConst:     0,
		DPsiCoef:      0,
	}
}

func extracellularDecl() compartment.Declaration {
	return compartment.Declaration{
		Abbreviation:  "e",
		Name:          "Extracellular",
		PH:            7.0,
		IonicStrength: 0.15,
		MaxConc:       100,
		MinConc:       0,
		DPsiConst:     0.15,
		DPsiCoef:      0.02,
	}
}

func TestNew_ValidDeclaration(t *testing.T) {
	t.Parallel()

	c, err := compartment.New(cytosolDecl())
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "c", c.Abbreviation)
	assert.Equal(t, "Cytosol", c.Name)
	assert.Equal(t, 7.0, c.PH)
}

func TestNew_RejectsEmptyAbbreviation(t *testing.T) {
	t.Parallel()

	decl := cytosolDecl()
	decl.Abbreviation = "   "
	_, err := compartment.New(decl)
	assert.Error(t, err)
}

func TestNew_RejectsInvertedConcentrationBounds(t *testing.T) {
	t.Parallel()

	decl := cytosolDecl()
	decl.MaxConc = 1e-5
	decl.MinConc = 0.02
	_, err := compartment.New(decl)
	assert.Error(t, err)
}

func TestConcentrationBounds_FallsBackToCompartmentDefault(t *testing.T) {
	t.Parallel()

	c, err := compartment.New(cytosolDecl())
	require.NoError(t, err)

	min, max := c.ConcentrationBounds("glucose")
	assert.Equal(t, c.MinConc, min)
	assert.Equal(t, c.MaxConc, max)
}

func TestConcentrationBounds_UsesOverride(t *testing.T) {
	t.Parallel()

	decl := cytosolDecl()
	decl.Overrides = map[string]compartment.ConcRange{
		"atp": {Min: 1e-3, Max: 5e-3},
	}
	c, err := compartment.New(decl)
	require.NoError(t, err)

	min, max := c.ConcentrationBounds("atp")
	assert.Equal(t, 1e-3, min)
	assert.Equal(t, 5e-3, max)

	min, max = c.ConcentrationBounds("glucose")
	assert.Equal(t, c.MinConc, min)
	assert.Equal(t, c.MaxConc, max)
}

func TestPsiDeltas(t *testing.T) {
	t.Parallel()

	cyt, err := compartment.New(cytosolDecl())
	require.NoError(t, err)
	ext, err := compartment.New(extracellularDecl())
	require.NoError(t, err)

	assert.Equal(t, ext.DPsiConst-cyt.DPsiConst, ext.PsiConstDelta(cyt))
	assert.Equal(t, ext.DPsiCoef-cyt.DPsiCoef, ext.PsiCoefDelta(cyt))
}

func TestRegistry_DeclareAndLookup(t *testing.T) {
	t.Parallel()

	r := compartment.NewRegistry()

	c, err := r.Declare(cytosolDecl())
	require.NoError(t, err)
	assert.Equal(t, 0, c.Index())

	e, err := r.Declare(extracellularDecl())
	require.NoError(t, err)
	assert.Equal(t, 1, e.Index())

	assert.Equal(t, 2, r.Len())

	got, err := r.Get("e")
	require.NoError(t, err)
	assert.Same(t, e, got)

	byIdx, err := r.ByIndex(0)
	require.NoError(t, err)
	assert.Same(t, c, byIdx)

	def, err := r.Default()
	require.NoError(t, err)
	assert.Same(t, c, def)
}

func TestRegistry_DeclareDuplicateAbbreviation(t *testing.T) {
	t.Parallel()

	r := compartment.NewRegistry()
	_, err := r.Declare(cytosolDecl())
	require.NoError(t, err)

	_, err = r.Declare(cytosolDecl())
	assert.Error(t, err)
}

func TestRegistry_UnknownAbbreviation(t *testing.T) {
	t.Parallel()

	r := compartment.NewRegistry()
	_, err := r.Get("z")
	assert.Error(t, err)
}

func TestRegistry_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	r := compartment.NewRegistry()
	_, err := r.Declare(cytosolDecl())
	require.NoError(t, err)

	_, err = r.ByIndex(5)
	assert.Error(t, err)
}
