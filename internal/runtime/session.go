// Package runtime assembles a single MFA engine session: the populated
// domain registries, the problem builder, the solver facade with its
// backends registered, and the analysis orchestrator driving them. It is
// the one piece of wiring shared verbatim by the CLI, the gRPC service, and
// the HTTP handlers, so the three transports can never drift into
// constructing the solve pipeline differently.
package runtime

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/turtacn/mfa-engine/internal/analysis"
	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/gene"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/internal/solver"
	"github.com/turtacn/mfa-engine/internal/solver/backend/commercial"
	"github.com/turtacn/mfa-engine/internal/solver/backend/scip"
	"github.com/turtacn/mfa-engine/internal/solver/backend/simplex"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Session bundles one run's domain registries, builder, solver facade, and
// orchestrator. A Session is scoped to a single central system load; callers
// that need to analyze a second, unrelated model construct a new Session
// rather than resetting this one.
type Session struct {
	Compartments *compartment.Registry
	Compounds    *compound.Database
	Reactions    *reaction.Database
	Genes        *gene.Database
	Intervals    *gene.IntervalDatabase

	Builder      *builder.Builder
	Facade       *solver.Facade
	Orchestrator *analysis.Orchestrator

	log logging.Logger
}

// New constructs an empty Session: registries with nothing declared yet, a
// Builder over them, a Facade with backends registered per cfg.Solver, and
// an Orchestrator over both. LoadCentralSystem populates the registries
// afterwards.
func New(cfg config.Config, log logging.Logger) (*Session, error) {
	compartments := compartment.NewRegistry()
	compounds := compound.NewDatabase()
	reactions := reaction.NewDatabase()
	genes := gene.NewDatabase()
	intervals := gene.NewIntervalDatabase()
	problem := model.NewProblemState()

	b := builder.New(compartments, compounds, reactions, genes, intervals, problem)

	facade := solver.NewFacade(solver.Config{
		DefaultBackend:   cfg.Solver.DefaultBackend,
		FallbackBackends: cfg.Solver.FallbackBackends,
		LicenseDir:       cfg.Solver.LicenseDir,
		ZeroTolerance:    cfg.Solver.ZeroTolerance,
		IntegerTolerance: cfg.Solver.IntegerTolerance,
		OptimalityGap:    cfg.Solver.OptimalityGap,
		DefaultTimeCap:   cfg.Solver.DefaultTimeCap,
	})
	facade.Register(simplex.New())
	facade.Register(scip.New())
	facade.Register(commercial.New(cfg.Solver.LicenseDir))

	orch := analysis.New(b, facade, analysis.Config{
		DefaultStepTimeout:   cfg.Analysis.DefaultStepTimeout,
		MaxRecursiveRounds:   cfg.Analysis.MaxRecursiveRounds,
		MaxGapFillCandidates: cfg.Analysis.MaxGapFillCandidates,
		EssentialityBatch:    cfg.Analysis.EssentialityBatch,
	}, log)

	return &Session{
		Compartments: compartments,
		Compounds:    compounds,
		Reactions:    reactions,
		Genes:        genes,
		Intervals:    intervals,
		Builder:      b,
		Facade:       facade,
		Orchestrator: orch,
		log:          log,
	}, nil
}

// Document is the on-disk shape LoadCentralSystem reads: a fully populated
// domain model, the shape external loaders (chemical structure parsing,
// reaction-network generation, string-DB ingestion) are expected to hand
// the engine once their own, out-of-scope work is done.
type Document struct {
	Compartments []compartment.Declaration `json:"compartments"`
	Compounds    []compound.Declaration    `json:"compounds"`
	Reactions    []reaction.Declaration    `json:"reactions"`
	Genes        []gene.Declaration        `json:"genes"`
	Intervals    []gene.IntervalDeclaration `json:"intervals"`
}

// LoadCentralSystemFile reads path as JSON and populates the session's
// registries via LoadCentralSystem. One central system is expected per
// Session; calling this twice on the same Session compounds rather than
// replaces, matching the registries' own Add-only append semantics.
func (s *Session) LoadCentralSystemFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "runtime: failed to open central system file "+path)
	}
	defer f.Close()

	var doc Document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "runtime: failed to parse central system file "+path)
	}
	return s.LoadCentralSystem(doc)
}

// LoadCentralSystem declares every compartment, then adds every compound,
// reaction, gene, and interval from doc, in that order — compounds and
// reactions both reference compartment IDs, and reactions reference
// compound and gene IDs, so declaration order must track the dependency
// order C3 describes.
func (s *Session) LoadCentralSystem(doc Document) error {
	for _, decl := range doc.Compartments {
		if _, err := s.Compartments.Declare(decl); err != nil {
			return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "runtime: compartment "+decl.Abbreviation)
		}
	}
	for _, decl := range doc.Compounds {
		c, err := compound.New(decl)
		if err != nil {
			return err
		}
		if _, err := s.Compounds.Add(c); err != nil {
			return err
		}
	}
	for _, decl := range doc.Reactions {
		r, err := reaction.New(decl)
		if err != nil {
			return err
		}
		if _, err := s.Reactions.Add(r); err != nil {
			return err
		}
	}
	for _, decl := range doc.Genes {
		g, err := gene.New(decl)
		if err != nil {
			return err
		}
		if _, err := s.Genes.Add(g); err != nil {
			return err
		}
	}
	for _, decl := range doc.Intervals {
		iv, err := gene.NewInterval(decl)
		if err != nil {
			return err
		}
		if _, err := s.Intervals.Add(iv); err != nil {
			return err
		}
	}

	if s.log != nil {
		s.log.Info("runtime: central system loaded",
			logging.Int("compartments", len(doc.Compartments)),
			logging.Int("compounds", len(doc.Compounds)),
			logging.Int("reactions", len(doc.Reactions)),
			logging.Int("genes", len(doc.Genes)),
			logging.Int("intervals", len(doc.Intervals)),
		)
	}
	return nil
}

// BuildProblem runs the builder over the loaded central system with params
// and, when obj.Single or obj.Terms is non-empty, sets the objective.
// Callers invoke this once per Session after LoadCentralSystem and before
// any Orchestrator operation.
func (s *Session) BuildProblem(params builder.Parameters, obj builder.ObjectiveSpec) error {
	if err := s.Builder.Build(params); err != nil {
		return fmt.Errorf("runtime: build problem: %w", err)
	}
	if obj.Single != nil || len(obj.Terms) > 0 {
		if err := s.Builder.SetObjective(obj); err != nil {
			return fmt.Errorf("runtime: set objective: %w", err)
		}
	}
	return nil
}
