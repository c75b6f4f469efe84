// Package services implements the gRPC service layer: one service per
// transport, each a thin adapter from a generated server interface to
// internal/runtime.Session and internal/analysis.Orchestrator.
package services

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/turtacn/mfa-engine/internal/analysis"
	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/internal/runtime"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// UnimplementedAnalysisServiceServer stands in for the embed generated
// protobuf servers carry, so AnalysisServiceServer satisfies forward
// compatibility with an eventual grpc.ServiceRegistrar registration the same
// way a protoc-generated server would.
type UnimplementedAnalysisServiceServer struct{}

// AnalysisServiceServer exposes the orchestrator's operations over gRPC.
// Every RPC is one-shot: the request carries its own central system and
// build parameters, the handler assembles a fresh internal/runtime.Session,
// and no state is kept between calls.
type AnalysisServiceServer struct {
	UnimplementedAnalysisServiceServer
	cfg    config.Config
	logger logging.Logger
}

// NewAnalysisServiceServer creates an AnalysisServiceServer bound to cfg's
// solver and analysis settings.
func NewAnalysisServiceServer(cfg config.Config, logger logging.Logger) *AnalysisServiceServer {
	return &AnalysisServiceServer{cfg: cfg, logger: logger}
}

// CentralSystemRequest is the envelope every RPC but LoadCentralSystem
// shares: a central system, the build parameters to formulate it with, and
// an optional objective override.
type CentralSystemRequest struct {
	CentralSystem runtime.Document
	Params        builder.Parameters
	Objective     builder.ObjectiveSpec
}

func (s *AnalysisServiceServer) newSession() (*runtime.Session, error) {
	return runtime.New(s.cfg, s.logger)
}

// buildSession constructs a fresh session from req, returning a gRPC status
// error on any failure in the load-then-build sequence.
func (s *AnalysisServiceServer) buildSession(req CentralSystemRequest) (*runtime.Session, error) {
	sess, err := s.newSession()
	if err != nil {
		return nil, mapAppError(err)
	}
	if err := sess.LoadCentralSystem(req.CentralSystem); err != nil {
		return nil, mapAppError(err)
	}
	if err := sess.BuildProblem(req.Params, req.Objective); err != nil {
		return nil, mapAppError(err)
	}
	return sess, nil
}

// LoadCentralSystemRequest carries a central system declaration and
// optionally the parameters to build it with immediately.
type LoadCentralSystemRequest struct {
	CentralSystem runtime.Document
	Params        *builder.Parameters
}

// LoadCentralSystemResponse reports how many components of each kind the
// central system declared, and whether Params caused an immediate build.
type LoadCentralSystemResponse struct {
	Compartments int32
	Compounds    int32
	Reactions    int32
	Genes        int32
	Built        bool
}

// LoadCentralSystem validates that a central system document parses and
// declares cleanly, optionally building the LP/MILP formulation immediately.
func (s *AnalysisServiceServer) LoadCentralSystem(ctx context.Context, req *LoadCentralSystemRequest) (*LoadCentralSystemResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("LoadCentralSystem called")

	sess, err := s.newSession()
	if err != nil {
		return nil, mapAppError(err)
	}
	if err := sess.LoadCentralSystem(req.CentralSystem); err != nil {
		return nil, mapAppError(err)
	}

	built := false
	if req.Params != nil {
		if err := sess.Builder.Build(*req.Params); err != nil {
			return nil, mapAppError(err)
		}
		built = true
	}

	return &LoadCentralSystemResponse{
		Compartments: int32(sess.Compartments.Len()),
		Compounds:    int32(len(sess.Compounds.All())),
		Reactions:    int32(len(sess.Reactions.All())),
		Genes:        int32(len(sess.Genes.All())),
		Built:        built,
	}, nil
}

// RunFBARequest carries the central system to solve a flux balance analysis
// against.
type RunFBARequest struct {
	CentralSystemRequest
}

// RunFBAResponse wraps the orchestrator's FBAResult.
type RunFBAResponse struct {
	Result analysis.FBAResult
}

// RunFBA runs a single flux balance analysis solve.
func (s *AnalysisServiceServer) RunFBA(ctx context.Context, req *RunFBARequest) (*RunFBAResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("RunFBA called")

	sess, err := s.buildSession(req.CentralSystemRequest)
	if err != nil {
		return nil, err
	}

	return &RunFBAResponse{Result: sess.Orchestrator.RunFBA(ctx)}, nil
}

// FindTightBoundsRequest carries the reaction subset (or none, for all
// reactions) to tighten flux bounds for.
type FindTightBoundsRequest struct {
	CentralSystemRequest
	Reactions         []ids.ReactionID
	ObjectiveFraction float64
}

// FindTightBoundsResponse wraps the orchestrator's FVAResult.
type FindTightBoundsResponse struct {
	Result analysis.FVAResult
}

// FindTightBounds runs flux variability analysis over req.Reactions,
// defaulting to every declared reaction when none are given.
func (s *AnalysisServiceServer) FindTightBounds(ctx context.Context, req *FindTightBoundsRequest) (*FindTightBoundsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("FindTightBounds called")

	sess, err := s.buildSession(req.CentralSystemRequest)
	if err != nil {
		return nil, err
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
		return nil, mapAppError(err)
	}
	return &FindTightBoundsResponse{Result: result}, nil
}

// RunMediaExperimentsRequest carries the candidate compounds to drop from
// the medium while still reaching MinimumGrowth.
type RunMediaExperimentsRequest struct {
	CentralSystemRequest
	Candidates    []ids.CompoundID
	Compartment   ids.CompartmentID
	MinimumGrowth float64
}

// RunMediaExperimentsResponse wraps the orchestrator's MediaMinimizeResult.
type RunMediaExperimentsResponse struct {
	Result analysis.MediaMinimizeResult
}

// RunMediaExperiments finds the smallest subset of Candidates that still
// sustains MinimumGrowth.
func (s *AnalysisServiceServer) RunMediaExperiments(ctx context.Context, req *RunMediaExperimentsRequest) (*RunMediaExperimentsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("RunMediaExperiments called")

	sess, err := s.buildSession(req.CentralSystemRequest)
	if err != nil {
		return nil, err
	}

	result, err := sess.Orchestrator.MinimizeMedia(ctx, req.Candidates, req.Compartment, req.MinimumGrowth)
	if err != nil {
		return nil, mapAppError(err)
	}
	return &RunMediaExperimentsResponse{Result: result}, nil
}

// RunDeletionExperimentsRequest carries the batch of single/double deletion
// experiments to run.
type RunDeletionExperimentsRequest struct {
	CentralSystemRequest
	Experiments []analysis.DeletionExperiment
}

// RunDeletionExperimentsResponse wraps the orchestrator's per-experiment
// results.
type RunDeletionExperimentsResponse struct {
	Results []analysis.DeletionResult
}

// RunDeletionExperiments runs req.Experiments against the built model.
func (s *AnalysisServiceServer) RunDeletionExperiments(ctx context.Context, req *RunDeletionExperimentsRequest) (*RunDeletionExperimentsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("RunDeletionExperiments called")

	sess, err := s.buildSession(req.CentralSystemRequest)
	if err != nil {
		return nil, err
	}

	results := sess.Orchestrator.RunDeletionExperiments(ctx, req.Experiments)
	return &RunDeletionExperimentsResponse{Results: results}, nil
}

// GapFillRequest carries the candidate reactions to add back and the growth
// threshold the filled model must meet.
type GapFillRequest struct {
	CentralSystemRequest
	Candidates    []ids.ReactionID
	MinimumGrowth float64
}

// GapFillResponse wraps the orchestrator's GapFillResult.
type GapFillResponse struct {
	Result analysis.GapFillResult
}

// GapFill searches req.Candidates for the smallest reaction set that
// restores growth to MinimumGrowth.
func (s *AnalysisServiceServer) GapFill(ctx context.Context, req *GapFillRequest) (*GapFillResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("GapFill called")

	sess, err := s.buildSession(req.CentralSystemRequest)
	if err != nil {
		return nil, err
	}

	result, err := sess.Orchestrator.GapFill(ctx, req.Candidates, req.MinimumGrowth)
	if err != nil {
		return nil, mapAppError(err)
	}
	return &GapFillResponse{Result: result}, nil
}

// GapGenerateRequest carries the target reactions to block and the growth
// ceiling the resulting model must stay under.
type GapGenerateRequest struct {
	CentralSystemRequest
	Targets       []ids.ReactionID
	MaximumGrowth float64
}

// GapGenerateResponse wraps the orchestrator's GapGenerateResult.
type GapGenerateResponse struct {
	Result analysis.GapGenerateResult
}

// GapGenerate searches req.Targets for a minimal subset whose simultaneous
// knockout holds growth at or below req.MaximumGrowth.
func (s *AnalysisServiceServer) GapGenerate(ctx context.Context, req *GapGenerateRequest) (*GapGenerateResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("GapGenerate called")

	sess, err := s.buildSession(req.CentralSystemRequest)
	if err != nil {
		return nil, err
	}

	result, err := sess.Orchestrator.GapGenerate(ctx, req.Targets, req.MaximumGrowth)
	if err != nil {
		return nil, mapAppError(err)
	}
	return &GapGenerateResponse{Result: result}, nil
}

// MILPRecursiveRequest carries the reaction types to enumerate alternate
// optimal solutions over.
type MILPRecursiveRequest struct {
	CentralSystemRequest
	ReactionTypes        []ids.ReactionID
	SolutionLimit        int32
	SolutionSizeInterval float64
}

// MILPRecursiveResponse wraps the orchestrator's RecursiveMILPResult.
type MILPRecursiveResponse struct {
	Result analysis.RecursiveMILPResult
}

// MILPRecursive enumerates up to SolutionLimit alternate optimal solutions
// over req.ReactionTypes.
func (s *AnalysisServiceServer) MILPRecursive(ctx context.Context, req *MILPRecursiveRequest) (*MILPRecursiveResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	ctx = s.extractContext(ctx)
	s.logger.Debug("MILPRecursive called")

	sess, err := s.buildSession(req.CentralSystemRequest)
	if err != nil {
		return nil, err
	}

	result := sess.Orchestrator.RecursiveMILP(ctx, req.ReactionTypes, int(req.SolutionLimit), req.SolutionSizeInterval)
	return &MILPRecursiveResponse{Result: result}, nil
}

// extractContext copies the first "x-user-id" value carried in gRPC metadata
// onto ctx under this package's own contextKeyUserID key. No other metadata
// is read.
func (s *AnalysisServiceServer) extractContext(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	if userIDs := md.Get("x-user-id"); len(userIDs) > 0 {
		ctx = context.WithValue(ctx, contextKeyUserID{}, userIDs[0])
	}
	return ctx
}

type contextKeyUserID struct{}

// mapAppError maps an mfaerr.Code to its gRPC status code.
func mapAppError(err error) error {
	if err == nil {
		return nil
	}
	switch mfaerr.GetCode(err) {
	case mfaerr.CodeCompoundNotFound, mfaerr.CodeReactionNotFound, mfaerr.CodeGeneNotFound,
		mfaerr.CodeCompartmentNotFound, mfaerr.CodeNotFound:
		return status.Error(codes.NotFound, err.Error())
	case mfaerr.CodeInvalidParam, mfaerr.CodeParameterContradiction, mfaerr.CodeBoundsInverted,
		mfaerr.CodeBalanceViolation, mfaerr.CodeMissingEnergy, mfaerr.CodeGeneLogicInvalid:
		return status.Error(codes.InvalidArgument, err.Error())
	case mfaerr.CodeConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case mfaerr.CodeUnauthorized:
		return status.Error(codes.Unauthenticated, err.Error())
	case mfaerr.CodeForbidden:
		return status.Error(codes.PermissionDenied, err.Error())
	case mfaerr.CodeTimeout, mfaerr.CodeSolveTimeout:
		return status.Error(codes.DeadlineExceeded, err.Error())
	case mfaerr.CodeNotImplemented:
		return status.Error(codes.Unimplemented, err.Error())
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
