// Package kafka publishes exchange events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/logger"
)

const (
	defaultBatchTimeout = 50 * time.Millisecond
	defaultWriteTimeout = 10 * time.Second

	headerEventType = "event_type"
	headerSchema    = "schema_version"
)

// MessageWriter is the subset of *kafkago.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string

	// Writer overrides the kafka-go writer built from Brokers and Topic.
	Writer MessageWriter

	// Logger is optional, defaults to a no-op logger
	Logger *slog.Logger
}

// Publisher writes each event as a JSON message keyed by session ID, so all
// exchanges of one session land on the same partition.
type Publisher struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	writer := cfg.Writer
	if writer == nil {
		if len(cfg.Brokers) == 0 {
			return nil, errors.New("kafka publisher requires at least one broker")
		}
		if cfg.Topic == "" {
			return nil, errors.New("kafka publisher requires a topic")
		}

		log := cfg.Logger
		writer = &kafkago.Writer{
			Addr:                   kafkago.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			BatchTimeout:           defaultBatchTimeout,
			WriteTimeout:           defaultWriteTimeout,
			AllowAutoTopicCreation: true,
			ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...any) {
				log.Warn("kafka writer", "message", fmt.Sprintf(msg, args...))
			}),
		}
	}

	return &Publisher{
		writer: writer,
		topic:  cfg.Topic,
		logger: cfg.Logger,
	}, nil
}

// Publish writes a single event.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.ExchangeEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	msg := kafkago.Message{
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
			{Key: headerSchema, Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	}

	// Session-less exchanges stay unkeyed so the balancer spreads them.
	if event.SessionID != "" {
		msg.Key = []byte(event.SessionID)
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing event to %s: %w", p.topic, err)
	}

	p.logger.Debug("published exchange event", "topic", p.topic, "event_id", event.EventID)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
