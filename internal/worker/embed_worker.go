package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"legalrag/internal/app"
	"legalrag/internal/platform/rabbitmq"
)

// EmbedWorker consumes embed jobs and runs statute encoding off the
// ingestion request path. A job that fails to encode (provider down,
// dimension mismatch) is nacked without requeue; the offline reindex tool
// picks the statute up later.
type EmbedWorker struct {
	conn      *amqp.Connection
	ingest    *app.IngestService
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEmbedWorker(conn *amqp.Connection, ingest *app.IngestService, queueName string) *EmbedWorker {
	return &EmbedWorker{
		conn:      conn,
		ingest:    ingest,
		queueName: queueName,
	}
}

func (w *EmbedWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job rabbitmq.EmbedJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("worker: decode embed job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.ingest.EncodeStatute(workerCtx, job.StatuteID); err != nil {
					log.Printf("worker: job %s encode statute %d failed: %v", job.JobID, job.StatuteID, err)
					_ = d.Nack(false, false)
					continue
				}

				log.Printf("worker: job %s indexed statute %d", job.JobID, job.StatuteID)
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *EmbedWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
