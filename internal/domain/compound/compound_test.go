package compound_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func ptr(f float64) *float64 { return &f }

func TestNew_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	_, err := compound.New(compound.Declaration{Name: "glucose"})
	assert.Error(t, err)
}

func TestNew_RejectsNegativeUncertainty(t *testing.T) {
	t.Parallel()

	_, err := compound.New(compound.Declaration{
		ID:                   "cpd00001",
		EstDeltaG:            ptr(-100),
		EstDeltaGUncertainty: ptr(-1),
	})
	assert.Error(t, err)
}

func TestComposeGroupEnergy_DirectEstimate(t *testing.T) {
	t.Parallel()

	c, err := compound.New(compound.Declaration{
		ID:                   "cpd00001",
		EstDeltaG:            ptr(-150.0),
		EstDeltaGUncertainty: ptr(2.0),
	})
	require.NoError(t, err)

	energy, uncertainty, err := c.ComposeGroupEnergy(nil)
	require.NoError(t, err)
	assert.Equal(t, -150.0, energy)
	assert.Equal(t, 2.0, uncertainty)
}

func TestComposeGroupEnergy_FromCues(t *testing.T) {
	t.Parallel()

	cueA, err := compound.New(compound.Declaration{ID: "cue1", EstDeltaG: ptr(-10), EstDeltaGUncertainty: ptr(1), Charge: 1})
	require.NoError(t, err)
	cueB, err := compound.New(compound.Declaration{ID: "cue2", EstDeltaG: ptr(-20), EstDeltaGUncertainty: ptr(2), Charge: -1})
	require.NoError(t, err)

	byID := map[ids.CompoundID]*compound.Compound{cueA.ID(): cueA, cueB.ID(): cueB}
	lookup := func(id ids.CompoundID) (*compound.Compound, error) { return byID[id], nil }

	c, err := compound.New(compound.Declaration{ID: "cpd00010"})
	require.NoError(t, err)
	c.AddCue(cueA.ID(), 2)
	c.AddCue(cueB.ID(), 1)

	energy, uncertainty, err := c.ComposeGroupEnergy(lookup)
	require.NoError(t, err)
	assert.InDelta(t, 2*-10+1*-20, energy, 1e-9)
	// sqrt(2^2*1^2 + 1^2*2^2) = sqrt(4+4) = sqrt(8)
	assert.InDelta(t, 2.8284271247, uncertainty, 1e-6)

	charge, err := c.ComposeGroupCharge(lookup)
	require.NoError(t, err)
	assert.Equal(t, 2*1+1*-1, charge)
}

func TestComposeGroupEnergy_MissingEnergyErrors(t *testing.T) {
	t.Parallel()

	c, err := compound.New(compound.Declaration{ID: "cpd00099"})
	require.NoError(t, err)

	_, _, err = c.ComposeGroupEnergy(func(ids.CompoundID) (*compound.Compound, error) { return nil, nil })
	assert.Error(t, err)
}

func TestCompartmentState_EnsureAndLookup(t *testing.T) {
	t.Parallel()

	c, err := compound.New(compound.Declaration{ID: "cpd00001"})
	require.NoError(t, err)

	_, ok := c.CompartmentState("c")
	assert.False(t, ok)

	st := c.EnsureCompartment("c")
	assert.Equal(t, -1, st.VariableIndex)

	st.VariableIndex = 7
	again := c.EnsureCompartment("c")
	assert.Equal(t, 7, again.VariableIndex)
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	c, err := compound.New(compound.Declaration{ID: "cpd00001"})
	require.NoError(t, err)
	c.AddPKa(4.2, 3)
	c.EnsureCompartment("c")

	clone := c.Clone()
	clone.AddPKa(9.9, 1)
	clone.EnsureCompartment("e").VariableIndex = 3

	assert.Len(t, c.PKa(), 1)
	assert.Len(t, clone.PKa(), 2)

	_, ok := c.CompartmentState("e")
	assert.False(t, ok)
}

func TestDatabase_AddGetRemove(t *testing.T) {
	t.Parallel()

	db := compound.NewDatabase()

	glucose, err := compound.New(compound.Declaration{ID: "cpd00027", Name: "D-Glucose"})
	require.NoError(t, err)

	idx, err := db.Add(glucose)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, idx, glucose.Index())

	got, err := db.Get("cpd00027")
	require.NoError(t, err)
	assert.Same(t, glucose, got)

	byIdx, err := db.ByIndex(0)
	require.NoError(t, err)
	assert.Same(t, glucose, byIdx)

	assert.True(t, db.Remove("cpd00027"))
	_, err = db.Get("cpd00027")
	assert.Error(t, err)
}

func TestDatabase_DuplicateAddConflicts(t *testing.T) {
	t.Parallel()

	db := compound.NewDatabase()
	a, err := compound.New(compound.Declaration{ID: "cpd00001"})
	require.NoError(t, err)
	b, err := compound.New(compound.Declaration{ID: "cpd00001"})
	require.NoError(t, err)

	_, err = db.Add(a)
	require.NoError(t, err)

	_, err = db.Add(b)
	assert.Error(t, err)
}
