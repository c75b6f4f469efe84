package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/internal/runtime"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

func testHandler(t *testing.T) *AnalysisHandler {
	t.Helper()
	cfg := config.NewDefaultConfig()
	return NewAnalysisHandler(*cfg, logging.NewNopLogger())
}

func minimalHandlerDocument() runtime.Document {
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

func TestLoadCentralSystem_CountsComponents(t *testing.T) {
	h := testHandler(t)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]interface{}{
		"central_system": minimalHandlerDocument(),
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/load-central-system", &buf)
	rec := httptest.NewRecorder()
	h.LoadCentralSystem(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(2), resp["compartments"])
	assert.Equal(t, float64(2), resp["compounds"])
	assert.Equal(t, false, resp["built"])
}

func TestLoadCentralSystem_InvalidBody(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/load-central-system", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.LoadCentralSystem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunFBA_InvalidBody(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run-fba", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.RunFBA(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindTightBounds_InvalidBody(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/find-tight-bounds", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.FindTightBounds(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestDecodeRequest_PopulatesEmbeddedAndSiblingFields is a regression test
// for the bug where decoding into a pointer to just the embedded
// centralSystemRequest left sibling fields on the outer struct unpopulated.
func TestDecodeRequest_PopulatesEmbeddedAndSiblingFields(t *testing.T) {
	h := testHandler(t)

	var body struct {
		centralSystemRequest
		Candidates    []ids.ReactionID `json:"candidates"`
		MinimumGrowth float64          `json:"minimum_growth"`
	}

	payload := `{
		"central_system": {"Compartments": [{"Abbreviation": "c", "Name": "cytosol"}]},
		"candidates": ["R1", "R2"],
		"minimum_growth": 0.5
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/gap-fill", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	ok := h.decodeRequest(rec, req, &body)
	require.True(t, ok)

	assert.Equal(t, []ids.ReactionID{"R1", "R2"}, body.Candidates)
	assert.Equal(t, 0.5, body.MinimumGrowth)
	require.Len(t, body.CentralSystem.Compartments, 1)
	assert.Equal(t, "c", body.CentralSystem.Compartments[0].Abbreviation)
}

func TestDecodeRequest_InvalidJSON(t *testing.T) {
	h := testHandler(t)

	var body centralSystemRequest
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run-fba", bytes.NewBufferString("not json at all"))
	rec := httptest.NewRecorder()

	ok := h.decodeRequest(rec, req, &body)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunFBA_AlwaysReturnsResultForEmptySystem(t *testing.T) {
	h := testHandler(t)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(centralSystemRequest{}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run-fba", &buf)
	rec := httptest.NewRecorder()
	h.RunFBA(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
