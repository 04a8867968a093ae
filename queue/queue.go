package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

const DispatchQueueName = "campaign_dispatch"

const retryCountHeader = "x-retry-count"

// DispatchJob is the wire payload for one dispatch request.
type DispatchJob struct {
	CampaignID uint `json:"campaign_id"`
}

// Queue decouples dispatch triggering (launch, resume, scheduler) from
// dispatch execution in the worker.
type Queue interface {
	PublishDispatch(campaignID uint) error
}

// AMQPQueue publishes dispatch jobs to a durable RabbitMQ queue.
type AMQPQueue struct {
	channel *amqp.Channel
	logger  *log.Logger

	// republish re-enqueues a failed job carrying its bumped retry count.
	republish func(job DispatchJob, retryCount int32) error
}

func NewAMQPQueue(conn *amqp.Connection, logger *log.Logger) (*AMQPQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		DispatchQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	q := &AMQPQueue{channel: ch, logger: logger}
	q.republish = q.publishJob
	return q, nil
}

func (q *AMQPQueue) publishJob(job DispatchJob, retryCount int32) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return q.channel.Publish(
		"",
		DispatchQueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{retryCountHeader: retryCount},
			Body:         body,
		},
	)
}

func (q *AMQPQueue) PublishDispatch(campaignID uint) error {
	if err := q.publishJob(DispatchJob{CampaignID: campaignID}, 0); err != nil {
		return fmt.Errorf("failed to publish dispatch job: %w", err)
	}

	q.logger.Printf("Queued dispatch for campaign %d", campaignID)
	return nil
}

// Consume delivers dispatch jobs to the handler with manual acks. A failing
// job is re-enqueued as a fresh message carrying an incremented retry count,
// so after maxRetries re-enqueues it is dropped instead of looping forever.
func (q *AMQPQueue) Consume(handler func(DispatchJob) error, maxRetries int) error {
	msgs, err := q.channel.Consume(
		DispatchQueueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for d := range msgs {
		q.handleDelivery(d, handler, maxRetries)
	}
	return nil
}

func (q *AMQPQueue) handleDelivery(d amqp.Delivery, handler func(DispatchJob) error, maxRetries int) {
	var job DispatchJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		q.logger.Printf("Dropping invalid dispatch job: %v", err)
		d.Ack(false)
		return
	}

	if err := handler(job); err != nil {
		q.logger.Printf("Dispatch job for campaign %d failed: %v", job.CampaignID, err)

		var retryCount int32
		if v, ok := d.Headers[retryCountHeader].(int32); ok {
			retryCount = v
		}
		if int(retryCount) < maxRetries {
			// A plain Nack would redeliver the original message with its
			// headers unchanged, keeping the counter at zero forever.
			if pubErr := q.republish(job, retryCount+1); pubErr != nil {
				q.logger.Printf("Failed to re-enqueue dispatch job for campaign %d: %v", job.CampaignID, pubErr)
				d.Nack(false, true)
				return
			}
		} else {
			q.logger.Printf("Dispatch job for campaign %d dropped after %d retries", job.CampaignID, maxRetries)
		}
	}

	d.Ack(false)
}

var _ Queue = (*AMQPQueue)(nil)

// InMemoryQueue runs dispatch jobs on goroutines without a broker; used in
// tests and single-node development runs.
type InMemoryQueue struct {
	mu      sync.Mutex
	handler func(DispatchJob) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{}
}

func (q *InMemoryQueue) Subscribe(handler func(DispatchJob) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
}

func (q *InMemoryQueue) PublishDispatch(campaignID uint) error {
	q.mu.Lock()
	handler := q.handler
	q.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("no subscriber for dispatch queue")
	}

	go func() {
		if err := handler(DispatchJob{CampaignID: campaignID}); err != nil {
			log.Printf("Dispatch job for campaign %d failed: %v", campaignID, err)
		}
	}()
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
