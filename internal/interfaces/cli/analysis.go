package cli

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/mfa-engine/internal/analysis"
	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/runtime"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// sessionFlags are the flags shared by every subcommand that needs a
// populated runtime.Session: the central system document and the optional
// builder parameters / objective overrides.
type sessionFlags struct {
	centralSystem string
	params        string
	objective     string
}

func addSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().StringVar(&f.centralSystem, "central-system", "", "path to a central system JSON document (required)")
	cmd.Flags().StringVar(&f.params, "params", "", "path to a builder.Parameters JSON file (optional, defaults to zero value)")
	cmd.Flags().StringVar(&f.objective, "objective", "", "path to a builder.ObjectiveSpec JSON file (optional)")
	cmd.MarkFlagRequired("central-system")
}

// buildSession loads the central system named by f.centralSystem, builds the
// problem with f.params (or a zero Parameters if unset), and sets the
// objective from f.objective when given. Every analysis subcommand starts
// from this same sequence.
func buildSession(cmd *cobra.Command, f *sessionFlags) (*runtime.Session, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}

	sess, err := runtime.New(*cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return nil, err
	}

	if err := sess.LoadCentralSystemFile(f.centralSystem); err != nil {
		return nil, err
	}

	var params builder.Parameters
	if f.params != "" {
		if err := decodeJSONFile(f.params, &params); err != nil {
			return nil, err
		}
	}

	var obj builder.ObjectiveSpec
	if f.objective != "" {
		if err := decodeJSONFile(f.objective, &obj); err != nil {
			return nil, err
		}
	}

	if err := sess.BuildProblem(params, obj); err != nil {
		return nil, err
	}

	return sess, nil
}

func decodeJSONFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "failed to open "+path)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "failed to parse "+path)
	}
	return nil
}

func parseReactionIDs(csv string) []ids.ReactionID {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]ids.ReactionID, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, ids.ReactionID(p))
		}
	}
	return out
}

func parseCompoundIDs(csv string) []ids.CompoundID {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]ids.CompoundID, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, ids.CompoundID(p))
		}
	}
	return out
}

// NewLoadCentralSystemCmd validates that a central system document parses
// and builds cleanly, reporting how many of each entity it declared, without
// running any solve. It is the engine's equivalent of a dry-run/lint pass
// over a data file before committing it to a long analysis command.
func NewLoadCentralSystemCmd() *cobra.Command {
	var file string
	var params string

	cmd := &cobra.Command{
		Use:   "load-central-system",
		Short: "Validate a central system document and report its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			sess, err := runtime.New(*cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			if err := sess.LoadCentralSystemFile(file); err != nil {
				return err
			}

			var p builder.Parameters
			built := false
			if params != "" {
				if err := decodeJSONFile(params, &p); err != nil {
					return err
				}
				if err := sess.Builder.Build(p); err != nil {
					return err
				}
				built = true
			}

			return PrintResult(cmd, map[string]interface{}{
				"compartments": sess.Compartments.Len(),
				"compounds":    len(sess.Compounds.All()),
				"reactions":    len(sess.Reactions.All()),
				"genes":        len(sess.Genes.All()),
				"built":        built,
			})
		},
	}
	cmd.Flags().StringVar(&file, "central-system", "", "path to a central system JSON document (required)")
	cmd.Flags().StringVar(&params, "params", "", "optional builder.Parameters JSON file to also validate a build pass")
	cmd.MarkFlagRequired("central-system")
	return cmd
}

// NewRunFBACmd runs a single flux balance analysis pass.
func NewRunFBACmd() *cobra.Command {
	f := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "run-fba",
		Short: "Run a single flux balance analysis pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := buildSession(cmd, f)
			if err != nil {
				return err
			}
			result := sess.Orchestrator.RunFBA(cmd.Context())
			return PrintResult(cmd, result)
		},
	}
	addSessionFlags(cmd, f)
	return cmd
}

// NewFindTightBoundsCmd runs flux variability analysis over a named set of
// reactions (all reactions, if --reactions is omitted).
func NewFindTightBoundsCmd() *cobra.Command {
	f := &sessionFlags{}
	var reactions string
	var objectiveFraction float64

	cmd := &cobra.Command{
		Use:   "find-tight-bounds",
		Short: "Compute flux variability (min/max) bounds for reactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := buildSession(cmd, f)
			if err != nil {
				return err
			}
			reactionIDs := parseReactionIDs(reactions)
			if len(reactionIDs) == 0 {
				all := sess.Reactions.All()
				reactionIDs = make([]ids.ReactionID, len(all))
				for i, r := range all {
					reactionIDs[i] = r.ID()
				}
			}
			result, err := sess.Orchestrator.FindTightBounds(reactionIDs, objectiveFraction)
			if err != nil {
				return err
			}
			return PrintResult(cmd, result)
		},
	}
	addSessionFlags(cmd, f)
	cmd.Flags().StringVar(&reactions, "reactions", "", "comma-separated reaction IDs (default: all loaded reactions)")
	cmd.Flags().Float64Var(&objectiveFraction, "objective-fraction", 1.0, "fraction of the FBA optimum to pin the objective to")
	return cmd
}

// NewRunMediaExperimentsCmd minimizes active exchange compounds subject to a
// growth floor.
func NewRunMediaExperimentsCmd() *cobra.Command {
	f := &sessionFlags{}
	var candidates string
	var compartment string
	var minimumGrowth float64

	cmd := &cobra.Command{
		Use:   "run-media-experiments",
		Short: "Minimize the active media (exchange compounds) subject to a growth floor",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := buildSession(cmd, f)
			if err != nil {
				return err
			}
			result, err := sess.Orchestrator.MinimizeMedia(cmd.Context(), parseCompoundIDs(candidates), ids.CompartmentID(compartment), minimumGrowth)
			if err != nil {
				return err
			}
			return PrintResult(cmd, result)
		},
	}
	addSessionFlags(cmd, f)
	cmd.Flags().StringVar(&candidates, "candidates", "", "comma-separated compound IDs eligible to be part of the media (required)")
	cmd.Flags().StringVar(&compartment, "compartment", "", "compartment ID the candidate exchanges occur in (required)")
	cmd.Flags().Float64Var(&minimumGrowth, "min-growth", 0, "minimum objective value the minimal media must sustain")
	cmd.MarkFlagRequired("candidates")
	cmd.MarkFlagRequired("compartment")
	return cmd
}

// NewRunDeletionExperimentsCmd replays a batch of labeled (media, gene
// knockout, observed growth) experiments and reports predicted-vs-observed
// agreement.
func NewRunDeletionExperimentsCmd() *cobra.Command {
	f := &sessionFlags{}
	var experimentsFile string

	cmd := &cobra.Command{
		Use:   "run-deletion-experiments",
		Short: "Replay a batch of gene deletion experiments and compare predicted vs observed growth",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := buildSession(cmd, f)
			if err != nil {
				return err
			}
			var experiments []analysis.DeletionExperiment
			if err := decodeJSONFile(experimentsFile, &experiments); err != nil {
				return err
			}
			results := sess.Orchestrator.RunDeletionExperiments(cmd.Context(), experiments)
			return PrintResult(cmd, results)
		},
	}
	addSessionFlags(cmd, f)
	cmd.Flags().StringVar(&experimentsFile, "experiments", "", "path to a JSON array of deletion experiments (required)")
	cmd.MarkFlagRequired("experiments")
	return cmd
}

// NewGapFillCmd finds the minimal set of candidate reactions whose addition
// restores growth above a floor.
func NewGapFillCmd() *cobra.Command {
	f := &sessionFlags{}
	var candidates string
	var minimumGrowth float64

	cmd := &cobra.Command{
		Use:   "gap-fill",
		Short: "Find the minimal set of candidate reactions that restores growth",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := buildSession(cmd, f)
			if err != nil {
				return err
			}
			result, err := sess.Orchestrator.GapFill(cmd.Context(), parseReactionIDs(candidates), minimumGrowth)
			if err != nil {
				return err
			}
			return PrintResult(cmd, result)
		},
	}
	addSessionFlags(cmd, f)
	cmd.Flags().StringVar(&candidates, "candidates", "", "comma-separated candidate reaction IDs, built with ReactionsUse (required)")
	cmd.Flags().Float64Var(&minimumGrowth, "min-growth", 0, "minimum growth the filled network must sustain")
	cmd.MarkFlagRequired("candidates")
	return cmd
}

// NewGapGenerateCmd finds the minimal set of target reactions whose
// simultaneous knockout drives growth at or below a ceiling.
func NewGapGenerateCmd() *cobra.Command {
	f := &sessionFlags{}
	var targets string
	var maximumGrowth float64

	cmd := &cobra.Command{
		Use:   "gap-generate",
		Short: "Find the minimal set of target reactions whose knockout caps growth",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := buildSession(cmd, f)
			if err != nil {
				return err
			}
			result, err := sess.Orchestrator.GapGenerate(cmd.Context(), parseReactionIDs(targets), maximumGrowth)
			if err != nil {
				return err
			}
			return PrintResult(cmd, result)
		},
	}
	addSessionFlags(cmd, f)
	cmd.Flags().StringVar(&targets, "targets", "", "comma-separated target reaction IDs (required)")
	cmd.Flags().Float64Var(&maximumGrowth, "max-growth", 0, "growth ceiling the knockout set must enforce")
	cmd.MarkFlagRequired("targets")
	return cmd
}

// NewMILPRecursiveCmd enumerates alternate optimal (or graded-suboptimal)
// use-variable configurations.
func NewMILPRecursiveCmd() *cobra.Command {
	f := &sessionFlags{}
	var reactionTypes string
	var solutionLimit int
	var solutionSizeInterval float64

	cmd := &cobra.Command{
		Use:   "milp-recursive",
		Short: "Enumerate alternate optimal configurations by recursive MILP",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := buildSession(cmd, f)
			if err != nil {
				return err
			}
			result := sess.Orchestrator.RecursiveMILP(cmd.Context(), parseReactionIDs(reactionTypes), solutionLimit, solutionSizeInterval)
			return PrintResult(cmd, result)
		},
	}
	addSessionFlags(cmd, f)
	cmd.Flags().StringVar(&reactionTypes, "reaction-types", "", "comma-separated reaction IDs whose use variables are enumerated (required)")
	cmd.Flags().IntVar(&solutionLimit, "solution-limit", 50, "maximum number of alternate solutions to enumerate")
	cmd.Flags().Float64Var(&solutionSizeInterval, "solution-size-interval", 0, "graded-suboptimal step size (0 = alternate optima only)")
	cmd.MarkFlagRequired("reaction-types")
	return cmd
}
