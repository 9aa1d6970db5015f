package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EmbedJob asks the worker to compute the embedding for one statute. The
// job id exists only for log correlation across publisher and worker.
type EmbedJob struct {
	JobID     string `json:"job_id"`
	StatuteID uint   `json:"statute_id"`
}

type EmbedJobPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewEmbedJobPublisher(conn *amqp.Connection, queueName string) *EmbedJobPublisher {
	return &EmbedJobPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *EmbedJobPublisher) Publish(ctx context.Context, statuteID uint) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	job := EmbedJob{
		JobID:     uuid.NewString(),
		StatuteID: statuteID,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal embed job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish embed job failed: %w", err)
	}
	return nil
}
