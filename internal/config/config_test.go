package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newValidConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Database.User = "mfa"
	cfg.Database.DBName = "mfa"
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := newValidConfig()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := newValidConfig()
	cfg.Database.Host = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_MissingDatabaseUser(t *testing.T) {
	cfg := newValidConfig()
	cfg.Database.User = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_MissingDatabaseName(t *testing.T) {
	cfg := newValidConfig()
	cfg.Database.DBName = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	cfg := newValidConfig()
	cfg.Log.Level = "invalid"
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidLogFormat(t *testing.T) {
	cfg := newValidConfig()
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	cfg := newValidConfig()
	cfg.Server.Port = 70000
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidServerMode(t *testing.T) {
	cfg := newValidConfig()
	cfg.Server.Mode = "staging"
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidGRPCPort(t *testing.T) {
	cfg := newValidConfig()
	cfg.GRPC.Port = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_EmptyKafkaBrokers(t *testing.T) {
	cfg := newValidConfig()
	cfg.Kafka.Brokers = []string{}
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_MissingKafkaGroupID(t *testing.T) {
	cfg := newValidConfig()
	cfg.Kafka.GroupID = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_MissingMilvusAddr(t *testing.T) {
	cfg := newValidConfig()
	cfg.Milvus.Addr = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidWorkerConcurrency(t *testing.T) {
	cfg := newValidConfig()
	cfg.Worker.Concurrency = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_MissingSolverBackend(t *testing.T) {
	cfg := newValidConfig()
	cfg.Solver.DefaultBackend = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_NonPositiveZeroTolerance(t *testing.T) {
	cfg := newValidConfig()
	cfg.Solver.ZeroTolerance = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_NonPositiveTimeCap(t *testing.T) {
	cfg := newValidConfig()
	cfg.Solver.DefaultTimeCap = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_InvalidMaxRecursiveRounds(t *testing.T) {
	cfg := newValidConfig()
	cfg.Analysis.MaxRecursiveRounds = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Validate_NonPositiveStepTimeout(t *testing.T) {
	cfg := newValidConfig()
	cfg.Analysis.DefaultStepTimeout = 0
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfig_Neo4jURI(t *testing.T) {
	cfg := newValidConfig()
	cfg.Neo4j.URI = "bolt://localhost:7687"
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
}

func TestConfig_AuthGatePollInterval(t *testing.T) {
	cfg := newValidConfig()
	assert.Equal(t, 2*time.Second, cfg.AuthGate.PollInterval)
}
