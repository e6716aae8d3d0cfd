// Package ingest bridges upstream ticket-change events into the
// notification service when the sync job runs out of process. Each Kafka
// message is one JSON-encoded event; the consumer is the producer side of
// the emit contract and nothing more.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"notify-center/internal/models"
	"notify-center/internal/services"
	"notify-center/pkg/validator"
)

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads change events from Kafka and feeds them to Emit. Malformed
// or invalid messages are logged and skipped; a storage failure is logged
// and the message is not replayed.
type Consumer struct {
	reader  messageReader
	topic   string
	service *services.NotificationService
	backoff time.Duration
}

func NewConsumer(cfg Config, service *services.NotificationService) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
			MaxWait:  time.Second,
		}),
		topic:   cfg.Topic,
		service: service,
		backoff: time.Second,
	}
}

// Start blocks consuming until ctx is cancelled, then closes the reader.
// Read errors are retried after a backoff so an unreachable broker does not
// spin the loop.
func (c *Consumer) Start(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Printf("closing kafka reader: %v", err)
		}
	}()

	log.Printf("kafka ingest started on topic %q", c.topic)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			log.Printf("kafka read error: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}

		var ev models.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Printf("skipping undecodable message at offset %d: %v", msg.Offset, err)
			continue
		}
		if err := validator.Struct(&ev); err != nil {
			log.Printf("skipping invalid event at offset %d: %v", msg.Offset, err)
			continue
		}

		if _, err := c.service.Emit(ctx, &ev); err != nil {
			log.Printf("emit failed for event on %q: %v", ev.IssueKey, err)
		}
	}
}
