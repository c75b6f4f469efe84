package kafka

import "context"

// JobPublisher adapts a Producer to analysis.Publisher's narrow three-string
// signature, so internal/analysis never imports this package (or kafka-go)
// directly. Construct with NewJobPublisher and pass to analysis.EnqueueJob.
type JobPublisher struct {
	producer *Producer
}

// NewJobPublisher wraps producer for use as an analysis.Publisher.
func NewJobPublisher(producer *Producer) *JobPublisher {
	return &JobPublisher{producer: producer}
}

// Publish satisfies analysis.Publisher by wrapping the raw bytes in a
// ProducerMessage and delegating to the underlying Producer.
func (j *JobPublisher) Publish(ctx context.Context, topic string, key string, value []byte) error {
	return j.producer.Publish(ctx, &ProducerMessage{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}
