package queue

import (
	"context"
	"time"
)

// MessageInterface abstracts a delivered message so job processors can be
// tested without a live broker.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the producer/consumer surface of the job queue
type JobQueue interface {
	// Enqueue publishes a job for processing
	Enqueue(ctx context.Context, job *Job) error

	// Consume starts asynchronous delivery. Each message must be acked or
	// nacked by the caller; both channels close on ctx cancellation.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close releases the broker connection
	Close() error

	// HealthCheck reports whether the broker connection is usable
	HealthCheck(ctx context.Context) error
}

// DLQPurger purges dead-lettered messages older than a retention window
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
