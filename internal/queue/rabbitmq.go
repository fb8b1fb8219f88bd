package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultQueueName is the main scan job queue
	DefaultQueueName = "breach_scan_jobs"
	// DefaultDLQName receives jobs that exhausted their retries
	DefaultDLQName = "breach_scan_jobs_dlq"
	// DefaultExchangeName is the direct exchange for immediate delivery
	DefaultExchangeName = "breachlens_jobs"
	// DefaultDelayedExchangeName delivers NotBefore jobs late. Requires the
	// rabbitmq_delayed_message_exchange plugin.
	DefaultDelayedExchangeName = "breachlens_jobs_delayed"
)

const (
	routingKeyJobs = "jobs"
	routingKeyDLQ  = "dlq"
)

// RabbitMQQueue implements JobQueue on a RabbitMQ broker
type RabbitMQQueue struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queueName       string
	dlqName         string
	exchangeName    string
	delayedExchange string
}

// NewRabbitMQQueue dials the broker and declares the exchange and queue
// topology.
func NewRabbitMQQueue(amqpURL string) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &RabbitMQQueue{
		conn:            conn,
		channel:         ch,
		queueName:       DefaultQueueName,
		dlqName:         DefaultDLQName,
		exchangeName:    DefaultExchangeName,
		delayedExchange: DefaultDelayedExchangeName,
	}

	if err := q.declareTopology(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}

	return q, nil
}

func (q *RabbitMQQueue) declareTopology() error {
	// Without the delayed-message plugin this declaration fails and delayed
	// jobs degrade to immediate delivery through the direct exchange.
	delayedErr := q.channel.ExchangeDeclare(q.delayedExchange, "x-delayed-message",
		true, false, false, false, amqp.Table{"x-delayed-type": "direct"})
	if delayedErr != nil {
		if q.channel.IsClosed() {
			ch, err := q.conn.Channel()
			if err != nil {
				return fmt.Errorf("failed to reopen channel after delayed exchange error: %w", err)
			}
			q.channel = ch
		}
		fmt.Printf("Warning: delayed message exchange not available: %v\n", delayedErr)
	}

	if err := q.channel.ExchangeDeclare(q.exchangeName, "direct",
		true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := q.channel.QueueDeclare(q.dlqName,
		true, false, false, false, amqp.Table{}); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}
	if err := q.channel.QueueBind(q.dlqName, routingKeyDLQ, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	mainArgs := amqp.Table{
		"x-dead-letter-exchange":    q.exchangeName,
		"x-dead-letter-routing-key": routingKeyDLQ,
	}
	if _, err := q.channel.QueueDeclare(q.queueName,
		true, false, false, false, mainArgs); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := q.channel.QueueBind(q.queueName, routingKeyJobs, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to exchange: %w", err)
	}

	if delayedErr == nil {
		if err := q.channel.QueueBind(q.queueName, routingKeyJobs, q.delayedExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to delayed exchange: %w", err)
		}
	}

	return nil
}

// Enqueue publishes a job. A future NotBefore routes it through the delayed
// exchange; NotAfter becomes a per-message TTL so expired jobs dead-letter
// instead of being processed late.
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Timestamp:    job.CreatedAt,
	}

	if job.NotAfter != nil {
		if ttl := time.Until(*job.NotAfter); ttl > 0 {
			publishing.Expiration = fmt.Sprintf("%d", ttl.Milliseconds())
		}
	}

	exchange := q.exchangeName
	if job.NotBefore != nil {
		if delay := time.Until(*job.NotBefore); delay > 0 {
			exchange = q.delayedExchange
			publishing.Headers = amqp.Table{"x-delay": delay.Milliseconds()}
		}
	}

	if err := q.channel.PublishWithContext(ctx, exchange, routingKeyJobs, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

// Consume starts push-based delivery on a dedicated channel and returns the
// message and error streams. Both close when ctx is cancelled.
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	consumeCh, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	// prefetch 1 means fair dispatch across worker replicas
	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(q.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() {
			_ = consumeCh.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- fmt.Errorf("delivery channel closed")
					return
				}

				var job Job
				if err := json.Unmarshal(delivery.Body, &job); err != nil {
					_ = delivery.Nack(false, false) // malformed, dead-letter it
					errChan <- fmt.Errorf("failed to unmarshal job: %w", err)
					continue
				}

				if job.IsExpired() {
					_ = delivery.Nack(false, false)
					continue
				}
				if !job.ShouldProcess() {
					_ = delivery.Nack(false, true)
					continue
				}

				msg := &Message{
					Job:         &job,
					DeliveryTag: delivery.DeliveryTag,
					Channel:     consumeCh,
				}

				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// PurgeOlderThan drains DLQ messages older than retention. The first message
// still inside the window is requeued and the scan stops, since deliveries
// arrive oldest first. Returns the number of messages removed.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	purged := 0

	for {
		select {
		case <-ctx.Done():
			return purged, ctx.Err()
		default:
		}

		msg, ok, err := q.channel.Get(q.dlqName, false)
		if err != nil {
			return purged, fmt.Errorf("failed to read DLQ: %w", err)
		}
		if !ok {
			return purged, nil
		}

		if msg.Timestamp.Before(cutoff) {
			if err := msg.Ack(false); err != nil {
				return purged, fmt.Errorf("failed to purge DLQ message: %w", err)
			}
			purged++
			continue
		}

		_ = msg.Nack(false, true)
		return purged, nil
	}
}

// HealthCheck reports whether the connection and channel are open
func (q *RabbitMQQueue) HealthCheck(_ context.Context) error {
	if q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection closed")
	}
	if q.channel == nil || q.channel.IsClosed() {
		return fmt.Errorf("rabbitmq channel closed")
	}
	return nil
}

// Close closes the publishing channel and the connection
func (q *RabbitMQQueue) Close() error {
	var err error
	if q.channel != nil {
		err = q.channel.Close()
	}
	if q.conn != nil {
		if closeErr := q.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
