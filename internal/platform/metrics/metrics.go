package metrics

// EngineMetrics holds every metric emitted by the MFA engine's solver,
// builder, and analysis orchestrator layers, plus the interfaces that front
// them (HTTP, gRPC, CLI).
type EngineMetrics struct {
	// Solver layer
	SolveRequestsTotal   CounterVec // labels: backend, problem_class, status
	SolveDuration        HistogramVec // labels: backend, problem_class
	SolveVariableCount   HistogramVec // labels: problem_class
	SolveConstraintCount HistogramVec // labels: problem_class

	// Builder layer
	BuildDuration        HistogramVec // labels: outcome
	ParameterRectifications CounterVec // labels: rule

	// Analysis orchestrator layer
	AnalysisStepsTotal    CounterVec   // labels: operation, status
	AnalysisStepDuration  HistogramVec // labels: operation
	TightBoundVariables   GaugeVec     // labels: run_id
	RecursiveMILPRounds   HistogramVec // labels: run_id
	EssentialityChecked   CounterVec   // labels: kind (reaction|gene|interval)

	// Cross-cutting
	ErrorsTotal CounterVec // labels: code
}

// Default buckets tuned to MFA solve-time scales: interactive FBA solves
// finish in milliseconds, recursive MILP enumeration rounds can run minutes.
var (
	DefaultSolveDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 300}
	DefaultStepDurationBuckets  = []float64{.01, .1, .5, 1, 5, 10, 30, 60, 120, 600}
	DefaultCountBuckets         = []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000}
)

// NewEngineMetrics registers every metric against collector and returns the
// populated struct. Registration failures degrade to no-op metrics (see
// prometheusCollector.register in collector.go) rather than aborting startup.
func NewEngineMetrics(collector MetricsCollector) *EngineMetrics {
	m := &EngineMetrics{}

	m.SolveRequestsTotal = collector.RegisterCounter("solve_requests_total", "Total solver invocations", "backend", "problem_class", "status")
	m.SolveDuration = collector.RegisterHistogram("solve_duration_seconds", "Solver wall-clock duration", DefaultSolveDurationBuckets, "backend", "problem_class")
	m.SolveVariableCount = collector.RegisterHistogram("solve_variable_count", "Decision variables loaded per solve", DefaultCountBuckets, "problem_class")
	m.SolveConstraintCount = collector.RegisterHistogram("solve_constraint_count", "Constraint rows loaded per solve", DefaultCountBuckets, "problem_class")

	m.BuildDuration = collector.RegisterHistogram("build_duration_seconds", "Problem builder wall-clock duration", DefaultStepDurationBuckets, "outcome")
	m.ParameterRectifications = collector.RegisterCounter("parameter_rectifications_total", "Rectification rule firings", "rule")

	m.AnalysisStepsTotal = collector.RegisterCounter("analysis_steps_total", "Completed orchestrator steps", "operation", "status")
	m.AnalysisStepDuration = collector.RegisterHistogram("analysis_step_duration_seconds", "Orchestrator step wall-clock duration", DefaultStepDurationBuckets, "operation")
	m.TightBoundVariables = collector.RegisterGauge("tight_bound_variables", "Variables with a freshly computed tight bound", "run_id")
	m.RecursiveMILPRounds = collector.RegisterHistogram("recursive_milp_rounds", "Rounds executed per recursive MILP enumeration", DefaultCountBuckets, "run_id")
	m.EssentialityChecked = collector.RegisterCounter("essentiality_checked_total", "Essentiality checks performed", "kind")

	m.ErrorsTotal = collector.RegisterCounter("mfa_errors_total", "Errors surfaced by code", "code")

	return m
}
