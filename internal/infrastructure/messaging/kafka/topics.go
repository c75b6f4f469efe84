package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Topic constants for the AnalysisJob dispatch pipeline. TopicAnalysisJob
// Dispatch is the default backing internal/config.KafkaConfig.JobTopic;
// operators may override the configured topic name without changing these
// symbols, which only name the default TopicConfig entries EnsureDefaultTopics
// creates.
const (
	TopicAnalysisJobDispatch  = "analysis.job.dispatch"
	TopicAnalysisJobCompleted = "analysis.job.completed"
	TopicAnalysisJobFailed    = "analysis.job.failed"
	TopicDeadLetterDefault    = "analysis.dead_letter"
)

// EventEnvelope standardizes every message this package publishes: a
// typed, sourced, timestamped wrapper around a JSON payload specific to
// EventType.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AnalysisJobDispatchedPayload is published to TopicAnalysisJobDispatch when
// analysis.EnqueueJob hands a job to the producer.
type AnalysisJobDispatchedPayload struct {
	JobID        string    `json:"job_id"`
	ModelID      string    `json:"model_id"`
	Kind         string    `json:"kind"`
	ReplyTo      string    `json:"reply_to,omitempty"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

// AnalysisJobCompletedPayload is published to TopicAnalysisJobCompleted by a
// worker once it has run a job to completion. ResultRef points at where the
// full result was persisted (e.g. an object store key) rather than carrying
// the result inline.
type AnalysisJobCompletedPayload struct {
	JobID       string    `json:"job_id"`
	ModelID     string    `json:"model_id"`
	Kind        string    `json:"kind"`
	ResultRef   string    `json:"result_ref"`
	CompletedAt time.Time `json:"completed_at"`
}

// AnalysisJobFailedPayload is published to TopicAnalysisJobFailed when a
// worker cannot complete a job. ErrorCode carries the mfaerr.Code the
// failure was classified under.
type AnalysisJobFailedPayload struct {
	JobID        string    `json:"job_id"`
	ModelID      string    `json:"model_id"`
	Kind         string    `json:"kind"`
	ErrorCode    int       `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
	FailedAt     time.Time `json:"failed_at"`
}

// NewEventEnvelope marshals payload and wraps it in a fresh EventEnvelope
// stamped with a new event id and the current time.
func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope's payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "failed to decode payload")
	}
	return nil
}

// ToMessage marshals the envelope itself and wraps it in a ProducerMessage
// ready for Producer.Publish, carrying event metadata as headers.
func (e *EventEnvelope) ToMessage(topic string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	return &ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

// MessageToEventEnvelope unmarshals a consumed Message's value back into an
// EventEnvelope.
func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, mfaerr.New(mfaerr.CodeInvalidParam, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeInvalidParam, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates and inspects Kafka topics at startup, via
// EnsureDefaultTopics or an operator-supplied topic list.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker in brokers and returns a
// TopicManager bound to that connection.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, mfaerr.New(mfaerr.CodeInvalidParam, "brokers required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeMessageQueueError, "failed to dial kafka")
	}
	return &TopicManager{
		conn:   conn,
		logger: logger,
	}, nil
}

// CreateTopic creates one topic from cfg, treating "already exists" as
// success rather than an error.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return mfaerr.New(mfaerr.CodeInvalidParam, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return mfaerr.New(mfaerr.CodeInvalidParam, "num partitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return mfaerr.New(mfaerr.CodeInvalidParam, "replication factor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		ConfigEntries:     make([]kafka.ConfigEntry, 0),
	}

	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	if cfg.MaxMessageBytes > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "max.message.bytes", ConfigValue: fmt.Sprintf("%d", cfg.MaxMessageBytes)})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	err := m.conn.CreateTopics(kCfg)
	if err != nil {
		if err.Error() == "topic already exists" {
			return nil
		}
		exists, _ := m.TopicExists(ctx, cfg.Name)
		if exists {
			return nil
		}
		return mfaerr.Wrap(err, mfaerr.CodeMessageQueueError, "failed to create topic")
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name))
	return nil
}

// DeleteTopic deletes a topic by name.
func (m *TopicManager) DeleteTopic(ctx context.Context, name string) error {
	if err := m.conn.DeleteTopics(name); err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeMessageQueueError, "failed to delete topic")
	}
	m.logger.Warn("topic deleted", logging.String("topic", name))
	return nil
}

// TopicExists reports whether name currently has any partitions.
func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// ListTopics returns the distinct topic names visible to the connection.
func (m *TopicManager) ListTopics(ctx context.Context) ([]string, error) {
	partitions, err := m.conn.ReadPartitions()
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeMessageQueueError, "failed to read partitions")
	}

	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

// EnsureTopics creates every topic in topics that does not already exist.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaultTopics creates the topics returned by DefaultTopics.
func (m *TopicManager) EnsureDefaultTopics(ctx context.Context) error {
	return m.EnsureTopics(ctx, DefaultTopics())
}

// Close closes the underlying connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// DefaultTopics returns the TopicConfig set EnsureDefaultTopics creates at
// startup: one topic per stage of the AnalysisJob dispatch pipeline, plus a
// shared dead-letter topic for handlers that exhaust their retries.
func DefaultTopics() []TopicConfig {
	return []TopicConfig{
		{Name: TopicAnalysisJobDispatch, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: TopicAnalysisJobCompleted, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: TopicAnalysisJobFailed, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: TopicDeadLetterDefault, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
	}
}
