// Package config defines all configuration structures for the MFA engine.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP interface tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds gRPC interface tunables.
type GRPCConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	MaxRecvMsgSize    int           `mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize    int           `mapstructure:"max_send_msg_size"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	EnableReflection  bool          `mapstructure:"enable_reflection"`
}

// DatabaseConfig holds PostgreSQL connection parameters. The database is the
// system of record for compound/reaction/gene/compartment declarations and
// OptSolutionData run history.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds Neo4j connection parameters for the derived
// StoichiometricGraph store used by pathway search.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	Database              string        `mapstructure:"database"`
}

// RedisConfig holds Redis connection parameters, used to cache FVA tight
// bounds and per-run solver state across orchestrator steps.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters for
// AnalysisJob dispatch to background workers.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	GroupID           string   `mapstructure:"group_id"`
	AutoOffsetReset   string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	TimeoutMS         int      `mapstructure:"timeout_ms"`
	ProducerRetries   int      `mapstructure:"producer_retries"`
	BatchSize         int      `mapstructure:"batch_size"`
	AutoCreateTopics  bool     `mapstructure:"auto_create_topics"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
	NumPartitions     int      `mapstructure:"num_partitions"`
	JobTopic          string   `mapstructure:"job_topic"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters, used for
// free-text lookup over compound/reaction names and annotations.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	ScrollSize         int      `mapstructure:"scroll_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// MilvusConfig holds Milvus vector-store connection parameters, used to rank
// gap-fill candidate reactions by structural/embedding similarity.
type MilvusConfig struct {
	Addr               string `mapstructure:"addr"`
	DBName             string `mapstructure:"db_name"`
	EmbeddingDim       int    `mapstructure:"embedding_dim"`
	IndexType          string `mapstructure:"index_type"`
	HNSWM              int    `mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `mapstructure:"hnsw_ef_construction"`
	DefaultTopK        int    `mapstructure:"default_top_k"`
	CollectionPrefix   string `mapstructure:"collection_prefix"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters, used to
// persist LP text dumps and raw backend solution files.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// AuthGateConfig holds parameters for the Keycloak-backed long-running-job
// cancellation gate. Every recursive MILP enumeration and essentiality sweep
// registers a cancellation token here; the orchestrator polls it between
// rounds instead of running unbounded. Token introspection reuses Keycloak's
// OIDC endpoints, but no per-request authentication is performed — this is
// not an authorization layer.
type AuthGateConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Realm        string        `mapstructure:"realm"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// WorkerConfig holds background-worker execution parameters for the job
// consumer that runs queued AnalysisJob messages.
type WorkerConfig struct {
	Mode              string        `mapstructure:"mode"` // "local" | "distributed"
	Concurrency       int           `mapstructure:"concurrency"`
	QueueDepth        int           `mapstructure:"queue_depth"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoffMS    time.Duration `mapstructure:"retry_backoff_ms"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
	SamplingRate     int    `mapstructure:"sampling_rate"`
}

// SolverConfig holds parameters shared by every LP/MILP/QP backend: numeric
// tolerances, wall-clock caps, and the license search path used to decide
// whether a commercial backend is eligible before falling back to an
// open-source one.
type SolverConfig struct {
	// DefaultBackend is tried first for every problem class. Names match a
	// registered backend's Name(): "s-simplex", "s-mip", or "s-qp".
	DefaultBackend string `mapstructure:"default_backend"`

	// FallbackBackends are tried in order when DefaultBackend is unlicensed
	// or lacks the requested problem class's capability.
	FallbackBackends []string `mapstructure:"fallback_backends"`

	// LicenseDir is scanned for backend license files at startup.
	LicenseDir string `mapstructure:"license_dir"`

	ZeroTolerance    float64       `mapstructure:"zero_tolerance"`
	IntegerTolerance float64       `mapstructure:"integer_tolerance"`
	OptimalityGap    float64       `mapstructure:"optimality_gap"`
	DefaultTimeCap   time.Duration `mapstructure:"default_time_cap"`

	// LPDumpDir is the local scratch directory FileDispatchBackend writes LP
	// text files to before handing them to the MinIO uploader.
	LPDumpDir string `mapstructure:"lp_dump_dir"`
}

// AnalysisConfig holds parameters for the orchestrator layer: per-operation
// timeouts and round caps that bound otherwise-unbounded iterative
// algorithms (recursive MILP enumeration, gap-fill, media minimization).
type AnalysisConfig struct {
	DefaultStepTimeout   time.Duration `mapstructure:"default_step_timeout"`
	MaxRecursiveRounds   int           `mapstructure:"max_recursive_rounds"`
	MaxGapFillCandidates int           `mapstructure:"max_gap_fill_candidates"`
	EssentialityBatch    int           `mapstructure:"essentiality_batch"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the MFA engine. Every
// infrastructure adapter and application service reads its settings from the
// relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Milvus     MilvusConfig     `mapstructure:"milvus"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	AuthGate   AuthGateConfig   `mapstructure:"auth_gate"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
	Solver     SolverConfig     `mapstructure:"solver"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// gRPC
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Milvus
	if c.Milvus.Addr == "" {
		return fmt.Errorf("config: milvus.addr is required")
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Solver
	if c.Solver.DefaultBackend == "" {
		return fmt.Errorf("config: solver.default_backend is required")
	}
	if c.Solver.ZeroTolerance <= 0 {
		return fmt.Errorf("config: solver.zero_tolerance must be > 0, got %g", c.Solver.ZeroTolerance)
	}
	if c.Solver.IntegerTolerance <= 0 {
		return fmt.Errorf("config: solver.integer_tolerance must be > 0, got %g", c.Solver.IntegerTolerance)
	}
	if c.Solver.DefaultTimeCap <= 0 {
		return fmt.Errorf("config: solver.default_time_cap must be > 0, got %s", c.Solver.DefaultTimeCap)
	}

	// Analysis
	if c.Analysis.MaxRecursiveRounds < 1 {
		return fmt.Errorf("config: analysis.max_recursive_rounds must be ≥ 1, got %d", c.Analysis.MaxRecursiveRounds)
	}
	if c.Analysis.DefaultStepTimeout <= 0 {
		return fmt.Errorf("config: analysis.default_step_timeout must be > 0, got %s", c.Analysis.DefaultStepTimeout)
	}

	return nil
}
