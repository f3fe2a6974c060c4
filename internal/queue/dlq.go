package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vidscribe/transcript/pkg/models"
)

const (
	DeadLetterExchange  = "transcript_dlx"
	DeadLetterQueueName = "transcript_jobs_dlq"
	RetryQueueName      = "transcript_jobs_retry"

	// MaxRetries is the maximum number of retry attempts before a job
	// is moved to the dead letter queue
	MaxRetries = 5
)

// SetupDeadLetterQueue configures the dead letter exchange and queues.
// Jobs published to the retry queue expire after a backoff delay and
// are routed back to the main job queue for another attempt.
func (q *Queue) SetupDeadLetterQueue() error {
	err := q.channel.ExchangeDeclare(
		DeadLetterExchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		DeadLetterQueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}

	err = q.channel.QueueBind(DeadLetterQueueName, DeadLetterQueueName, DeadLetterExchange, false, nil)
	if err != nil {
		return fmt.Errorf("failed to bind dead letter queue: %w", err)
	}

	// Expired messages dead-letter back onto the main job queue
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": JobQueueName,
	}
	_, err = q.channel.QueueDeclare(
		RetryQueueName,
		true,
		false,
		false,
		false,
		retryArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	err = q.channel.QueueBind(RetryQueueName, RetryQueueName, DeadLetterExchange, false, nil)
	if err != nil {
		return fmt.Errorf("failed to bind retry queue: %w", err)
	}

	return nil
}

// PublishToRetryQueue publishes a job to the retry queue with an
// exponential backoff delay based on the retry count
func (q *Queue) PublishToRetryQueue(ctx context.Context, job *models.TranscriptJob) error {
	job.RetryCount++

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job for retry: %w", err)
	}

	delay := calculateBackoffDelay(job.RetryCount)

	err = q.channel.PublishWithContext(ctx,
		DeadLetterExchange,
		RetryQueueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			Expiration:   fmt.Sprintf("%d", delay.Milliseconds()),
			Headers: amqp.Table{
				"x-retry-count": job.RetryCount,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	return nil
}

// PublishToDeadLetterQueue publishes a job that has exhausted its
// retries so it can be inspected or replayed manually
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, job *models.TranscriptJob, reason string) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job for DLQ: %w", err)
	}

	err = q.channel.PublishWithContext(ctx,
		DeadLetterExchange,
		DeadLetterQueueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			Headers: amqp.Table{
				"x-retry-count":    job.RetryCount,
				"x-failure-reason": reason,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to dead letter queue: %w", err)
	}

	return nil
}

// calculateBackoffDelay returns the delay before a retried job becomes
// visible on the main queue again: 1min, 2min, 4min, 8min, 16min
func calculateBackoffDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > 5 {
		retryCount = 5
	}

	return time.Duration(1<<(retryCount-1)) * time.Minute
}
