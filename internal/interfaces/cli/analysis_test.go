package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/internal/runtime"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func writeJSONFile(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, json.NewEncoder(f).Encode(v))
	return path
}

func minimalDocument() runtime.Document {
	g1 := -1.0
	return runtime.Document{
		Compartments: []compartment.Declaration{
			{Abbreviation: "c", Name: "cytosol", PH: 7.2, IonicStrength: 0.25, MaxConc: 0.02, MinConc: 1e-5},
			{Abbreviation: "e", Name: "extracellular", PH: 7.0, IonicStrength: 0.25, MaxConc: 0.02, MinConc: 1e-5},
		},
		Compounds: []compound.Declaration{
			{ID: ids.CompoundID("A"), Name: "A", Formula: "C1", EstDeltaG: &g1},
			{ID: ids.CompoundID("B"), Name: "B", Formula: "C1", EstDeltaG: &g1},
		},
	}
}

func TestParseReactionIDs(t *testing.T) {
	assert.Equal(t, []ids.ReactionID{"R1", "R2"}, parseReactionIDs("R1, R2"))
	assert.Nil(t, parseReactionIDs(""))
	assert.Nil(t, parseReactionIDs("   "))
}

func TestParseCompoundIDs(t *testing.T) {
	assert.Equal(t, []ids.CompoundID{"A", "B"}, parseCompoundIDs("A,B"))
	assert.Nil(t, parseCompoundIDs(""))
}

func TestDecodeJSONFile_MissingFile(t *testing.T) {
	var p builder.Parameters
	err := decodeJSONFile("/no/such/file.json", &p)
	assert.Error(t, err)
}

func TestDecodeJSONFile_Success(t *testing.T) {
	dir := t.TempDir()
	path := writeJSONFile(t, dir, "params.json", builder.Parameters{MaxFlux: 1000})

	var p builder.Parameters
	require.NoError(t, decodeJSONFile(path, &p))
	assert.Equal(t, 1000.0, p.MaxFlux)
}

func TestNewLoadCentralSystemCmd_FlagsRegistered(t *testing.T) {
	cmd := NewLoadCentralSystemCmd()
	assert.NotNil(t, cmd.Flags().Lookup("central-system"))
	assert.NotNil(t, cmd.Flags().Lookup("params"))
}

func TestNewRunFBACmd_RequiresCentralSystem(t *testing.T) {
	cmd := NewRunFBACmd()
	flag := cmd.Flags().Lookup("central-system")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestNewFindTightBoundsCmd_DefaultObjectiveFraction(t *testing.T) {
	cmd := NewFindTightBoundsCmd()
	v, err := cmd.Flags().GetFloat64("objective-fraction")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestNewMILPRecursiveCmd_DefaultSolutionLimit(t *testing.T) {
	cmd := NewMILPRecursiveCmd()
	v, err := cmd.Flags().GetInt("solution-limit")
	require.NoError(t, err)
	assert.Equal(t, 50, v)
}

func TestMinimalDocument_LoadsIntoSession(t *testing.T) {
	dir := t.TempDir()
	path := writeJSONFile(t, dir, "central.json", minimalDocument())

	var doc runtime.Document
	require.NoError(t, decodeJSONFile(path, &doc))
	assert.Len(t, doc.Compartments, 2)
	assert.Len(t, doc.Compounds, 2)

	sess, err := runtime.New(*config.NewDefaultConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, sess.LoadCentralSystemFile(path))
	assert.Equal(t, 2, sess.Compartments.Len())
	assert.Len(t, sess.Compounds.All(), 2)
}
