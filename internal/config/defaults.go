// Package config provides configuration loading, defaults, and validation for
// the MFA engine.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"
	DefaultGRPCPort   = 9090

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "mfa"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "mfa-analysis-group"
	DefaultJobTopic     = "mfa.analysis.jobs"

	DefaultMilvusAddr = "localhost:19530"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "mfa-artifacts"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 10

	DefaultSolverBackend  = "s-simplex"
	DefaultZeroTolerance  = 1e-7
	DefaultIntTolerance   = 1e-6
	DefaultOptimalityGap  = 1e-9
	DefaultTimeCapSeconds = 300

	DefaultMaxRecursiveRounds   = 1000
	DefaultMaxGapFillCandidates = 200
	DefaultEssentialityBatch    = 50
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the engine default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Host == "" {
		cfg.GRPC.Host = "0.0.0.0"
	}
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0".  We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.JobTopic == "" {
		cfg.Kafka.JobTopic = DefaultJobTopic
	}

	// ── Milvus ────────────────────────────────────────────────────────────────
	if cfg.Milvus.Addr == "" {
		cfg.Milvus.Addr = DefaultMilvusAddr
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.Mode == "" {
		cfg.Worker.Mode = "local"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Solver ────────────────────────────────────────────────────────────────
	if cfg.Solver.DefaultBackend == "" {
		cfg.Solver.DefaultBackend = DefaultSolverBackend
	}
	if len(cfg.Solver.FallbackBackends) == 0 {
		cfg.Solver.FallbackBackends = []string{"s-mip", "s-qp"}
	}
	if cfg.Solver.ZeroTolerance == 0 {
		cfg.Solver.ZeroTolerance = DefaultZeroTolerance
	}
	if cfg.Solver.IntegerTolerance == 0 {
		cfg.Solver.IntegerTolerance = DefaultIntTolerance
	}
	if cfg.Solver.OptimalityGap == 0 {
		cfg.Solver.OptimalityGap = DefaultOptimalityGap
	}
	if cfg.Solver.DefaultTimeCap == 0 {
		cfg.Solver.DefaultTimeCap = DefaultTimeCapSeconds * time.Second
	}
	if cfg.Solver.LPDumpDir == "" {
		cfg.Solver.LPDumpDir = "/tmp/mfa-lp"
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	if cfg.Analysis.DefaultStepTimeout == 0 {
		cfg.Analysis.DefaultStepTimeout = DefaultTimeCapSeconds * time.Second
	}
	if cfg.Analysis.MaxRecursiveRounds == 0 {
		cfg.Analysis.MaxRecursiveRounds = DefaultMaxRecursiveRounds
	}
	if cfg.Analysis.MaxGapFillCandidates == 0 {
		cfg.Analysis.MaxGapFillCandidates = DefaultMaxGapFillCandidates
	}
	if cfg.Analysis.EssentialityBatch == 0 {
		cfg.Analysis.EssentialityBatch = DefaultEssentialityBatch
	}

	// ── Auth gate ─────────────────────────────────────────────────────────────
	if cfg.AuthGate.PollInterval == 0 {
		cfg.AuthGate.PollInterval = 2 * time.Second
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults. It is
// the config used by tests and by any entry point that runs without a config
// file or environment overrides.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
