// Command mfa is the CLI entry point for the metabolic flux analysis
// engine: load a central system, run FBA/FVA, gap-fill/generate, sweep
// deletions, minimize media, and enumerate alternate optima, all from the
// command line.
package main

import (
	"os"

	"github.com/turtacn/mfa-engine/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
