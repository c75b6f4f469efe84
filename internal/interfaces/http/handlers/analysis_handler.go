package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/mfa-engine/internal/analysis"
	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/internal/runtime"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// AnalysisHandler exposes the orchestrator's operations as one-shot HTTP
// endpoints: every request carries its own central system and builder
// parameters, builds a fresh internal/runtime.Session, and returns that
// session's result. There is no run-scoped state kept between requests.
type AnalysisHandler struct {
	cfg    config.Config
	logger logging.Logger
}

// NewAnalysisHandler creates an AnalysisHandler bound to cfg's solver and
// analysis settings.
func NewAnalysisHandler(cfg config.Config, logger logging.Logger) *AnalysisHandler {
	return &AnalysisHandler{cfg: cfg, logger: logger}
}

// centralSystemRequest is the envelope every analysis endpoint but
// LoadCentralSystem shares: a central system, the build parameters to
// formulate it with, and an optional objective override.
type centralSystemRequest struct {
	CentralSystem runtime.Document      `json:"central_system"`
	Params        builder.Parameters    `json:"params"`
	Objective     builder.ObjectiveSpec `json:"objective"`
}

func (h *AnalysisHandler) newSession() (*runtime.Session, error) {
	return runtime.New(h.cfg, h.logger)
}

// decodeRequest decodes r's JSON body into req (a pointer to a struct that
// embeds centralSystemRequest plus whatever operation-specific fields the
// caller needs), writing a 400 on failure.
func (h *AnalysisHandler) decodeRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "invalid request body"))
		return false
	}
	return true
}

// buildSession constructs a fresh session from an already-decoded
// centralSystemRequest, writing an error response and returning false on
// any failure in the load-then-build sequence.
func (h *AnalysisHandler) buildSession(w http.ResponseWriter, req centralSystemRequest) (*runtime.Session, bool) {
	sess, err := h.newSession()
	if err != nil {
		writeAppError(w, err)
		return nil, false
	}
	if err := sess.LoadCentralSystem(req.CentralSystem); err != nil {
		writeAppError(w, err)
		return nil, false
	}
	if err := sess.BuildProblem(req.Params, req.Objective); err != nil {
		writeAppError(w, err)
		return nil, false
	}
	return sess, true
}

// LoadCentralSystem handles POST /api/v1/analysis/load-central-system,
// validating that a central system document parses and declares cleanly.
func (h *AnalysisHandler) LoadCentralSystem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CentralSystem runtime.Document    `json:"central_system"`
		Params        *builder.Parameters `json:"params,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "invalid request body"))
		return
	}

	sess, err := h.newSession()
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := sess.LoadCentralSystem(req.CentralSystem); err != nil {
		writeAppError(w, err)
		return
	}

	built := false
	if req.Params != nil {
		if err := sess.Builder.Build(*req.Params); err != nil {
			writeAppError(w, err)
			return
		}
		built = true
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"compartments": sess.Compartments.Len(),
		"compounds":    len(sess.Compounds.All()),
		"reactions":    len(sess.Reactions.All()),
		"genes":        len(sess.Genes.All()),
		"built":        built,
	})
}

// RunFBA handles POST /api/v1/analysis/run-fba.
func (h *AnalysisHandler) RunFBA(w http.ResponseWriter, r *http.Request) {
	var req centralSystemRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	sess, ok := h.buildSession(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Orchestrator.RunFBA(r.Context()))
}

// FindTightBounds handles POST /api/v1/analysis/find-tight-bounds.
func (h *AnalysisHandler) FindTightBounds(w http.ResponseWriter, r *http.Request) {
	var req struct {
		centralSystemRequest
		Reactions         []ids.ReactionID `json:"reactions"`
		ObjectiveFraction float64          `json:"objective_fraction"`
	}
	if !h.decodeRequest(w, r, &req) {
		return
	}
	sess, ok := h.buildSession(w, req.centralSystemRequest)
	if !ok {
		return
	}

	reactionIDs := req.Reactions
	if len(reactionIDs) == 0 {
		all := sess.Reactions.All()
		reactionIDs = make([]ids.ReactionID, len(all))
		for i, rx := range all {
			reactionIDs[i] = rx.ID()
		}
	}

	result, err := sess.Orchestrator.FindTightBounds(reactionIDs, req.ObjectiveFraction)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RunMediaExperiments handles POST /api/v1/analysis/run-media-experiments.
func (h *AnalysisHandler) RunMediaExperiments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		centralSystemRequest
		Candidates    []ids.CompoundID  `json:"candidates"`
		Compartment   ids.CompartmentID `json:"compartment"`
		MinimumGrowth float64           `json:"minimum_growth"`
	}
	if !h.decodeRequest(w, r, &req) {
		return
	}
	sess, ok := h.buildSession(w, req.centralSystemRequest)
	if !ok {
		return
	}

	result, err := sess.Orchestrator.MinimizeMedia(r.Context(), req.Candidates, req.Compartment, req.MinimumGrowth)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RunDeletionExperiments handles POST /api/v1/analysis/run-deletion-experiments.
func (h *AnalysisHandler) RunDeletionExperiments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		centralSystemRequest
		Experiments []analysis.DeletionExperiment `json:"experiments"`
	}
	if !h.decodeRequest(w, r, &req) {
		return
	}
	sess, ok := h.buildSession(w, req.centralSystemRequest)
	if !ok {
		return
	}

	results := sess.Orchestrator.RunDeletionExperiments(r.Context(), req.Experiments)
	writeJSON(w, http.StatusOK, results)
}

// GapFill handles POST /api/v1/analysis/gap-fill.
func (h *AnalysisHandler) GapFill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		centralSystemRequest
		Candidates    []ids.ReactionID `json:"candidates"`
		MinimumGrowth float64          `json:"minimum_growth"`
	}
	if !h.decodeRequest(w, r, &req) {
		return
	}
	sess, ok := h.buildSession(w, req.centralSystemRequest)
	if !ok {
		return
	}

	result, err := sess.Orchestrator.GapFill(r.Context(), req.Candidates, req.MinimumGrowth)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GapGenerate handles POST /api/v1/analysis/gap-generate.
func (h *AnalysisHandler) GapGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		centralSystemRequest
		Targets       []ids.ReactionID `json:"targets"`
		MaximumGrowth float64          `json:"maximum_growth"`
	}
	if !h.decodeRequest(w, r, &req) {
		return
	}
	sess, ok := h.buildSession(w, req.centralSystemRequest)
	if !ok {
		return
	}

	result, err := sess.Orchestrator.GapGenerate(r.Context(), req.Targets, req.MaximumGrowth)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MILPRecursive handles POST /api/v1/analysis/milp-recursive.
func (h *AnalysisHandler) MILPRecursive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		centralSystemRequest
		ReactionTypes        []ids.ReactionID `json:"reaction_types"`
		SolutionLimit        int              `json:"solution_limit"`
		SolutionSizeInterval float64          `json:"solution_size_interval"`
	}
	if !h.decodeRequest(w, r, &req) {
		return
	}
	sess, ok := h.buildSession(w, req.centralSystemRequest)
	if !ok {
		return
	}

	result := sess.Orchestrator.RecursiveMILP(r.Context(), req.ReactionTypes, req.SolutionLimit, req.SolutionSizeInterval)
	writeJSON(w, http.StatusOK, result)
}
