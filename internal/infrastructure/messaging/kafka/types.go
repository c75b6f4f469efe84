package kafka

import (
	"context"
	"time"
)

// Message is the consumer-side view of a fetched record: everything a
// MessageHandler needs to process one delivery and, on failure, everything
// processMessage needs to build a dead-letter ProducerMessage from it.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// ProducerMessage is the producer-side view of one record to publish.
// Partition is left at its zero value unless the caller needs to pin a
// message to a specific partition; the configured Balancer chooses one
// otherwise.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
	Partition int
}

// BatchPublishResult summarizes the outcome of PublishBatch: how many of the
// submitted messages were written, and which ones failed and why.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// BatchItemError identifies one failed message within a PublishBatch call by
// its position in the submitted slice. Index is -1 when the writer returned
// a single error for the whole batch rather than one per message.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// MessageHandler processes one consumed Message. A non-nil return triggers
// the Consumer's retry-then-dead-letter path; a nil return commits the
// message's offset.
type MessageHandler func(ctx context.Context, msg *Message) error

// TopicConfig describes the partitioning and retention a topic should be
// created with. RetentionMs of zero leaves the broker default in place.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}
