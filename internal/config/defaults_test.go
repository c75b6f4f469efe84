package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_NilConfig(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)

	assert.Equal(t, DefaultGRPCPort, cfg.GRPC.Port)

	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, DefaultDBName, cfg.Database.DBName)
	assert.Equal(t, DefaultDBMaxConns, cfg.Database.MaxConns)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)

	require.Len(t, cfg.Kafka.Brokers, 1)
	assert.Equal(t, DefaultKafkaBroker, cfg.Kafka.Brokers[0])
	assert.Equal(t, DefaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, "earliest", cfg.Kafka.AutoOffsetReset)
	assert.Equal(t, DefaultJobTopic, cfg.Kafka.JobTopic)

	assert.Equal(t, DefaultMilvusAddr, cfg.Milvus.Addr)

	assert.Equal(t, DefaultMinIOEndpoint, cfg.MinIO.Endpoint)
	assert.Equal(t, DefaultMinIOBucket, cfg.MinIO.Bucket)

	assert.Equal(t, DefaultWorkerConcurrency, cfg.Worker.Concurrency)
	assert.Equal(t, "local", cfg.Worker.Mode)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)

	assert.Equal(t, DefaultSolverBackend, cfg.Solver.DefaultBackend)
	assert.Equal(t, []string{"s-mip", "s-qp"}, cfg.Solver.FallbackBackends)
	assert.Equal(t, DefaultZeroTolerance, cfg.Solver.ZeroTolerance)
	assert.Equal(t, DefaultIntTolerance, cfg.Solver.IntegerTolerance)
	assert.Equal(t, DefaultOptimalityGap, cfg.Solver.OptimalityGap)
	assert.Equal(t, time.Duration(DefaultTimeCapSeconds)*time.Second, cfg.Solver.DefaultTimeCap)
	assert.Equal(t, "/tmp/mfa-lp", cfg.Solver.LPDumpDir)

	assert.Equal(t, time.Duration(DefaultTimeCapSeconds)*time.Second, cfg.Analysis.DefaultStepTimeout)
	assert.Equal(t, DefaultMaxRecursiveRounds, cfg.Analysis.MaxRecursiveRounds)
	assert.Equal(t, DefaultMaxGapFillCandidates, cfg.Analysis.MaxGapFillCandidates)
	assert.Equal(t, DefaultEssentialityBatch, cfg.Analysis.EssentialityBatch)

	assert.Equal(t, 2*time.Second, cfg.AuthGate.PollInterval)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Server.Mode = "release"
	cfg.Database.Host = "db.example.com"
	cfg.Kafka.Brokers = []string{"broker-a:9092", "broker-b:9092"}
	cfg.Solver.DefaultBackend = "gurobi"
	cfg.Log.Level = "warn"

	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "gurobi", cfg.Solver.DefaultBackend)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Untouched fields still pick up defaults.
	assert.Equal(t, DefaultGRPCPort, cfg.GRPC.Port)
	assert.Equal(t, DefaultMilvusAddr, cfg.Milvus.Addr)
}

func TestApplyDefaults_RedisDBZeroIsIndistinguishableFromUnset(t *testing.T) {
	cfg := &Config{}
	cfg.Redis.DB = 0
	ApplyDefaults(cfg)
	assert.Equal(t, DefaultRedisDB, cfg.Redis.DB)
}

func TestNewDefaultConfig_IsFullyPopulated(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultGRPCPort, cfg.GRPC.Port)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultSolverBackend, cfg.Solver.DefaultBackend)
}

func TestNewDefaultConfig_PassesValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Database.User = "mfa"
	cfg.Database.DBName = "mfa"

	assert.NoError(t, cfg.Validate())
}

func TestNewDefaultConfig_ReturnsDistinctInstances(t *testing.T) {
	a := NewDefaultConfig()
	b := NewDefaultConfig()

	a.Server.Port = 1234
	assert.NotEqual(t, a.Server.Port, b.Server.Port)
}
