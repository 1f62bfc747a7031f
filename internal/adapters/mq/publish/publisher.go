// Package publish forwards archived snapshots to Kafka for downstream
// analytics consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/voralis/envrisk/internal/adapters/repository"
	"github.com/voralis/envrisk/pkg/logger"
)

// Snapshot is the payload published per generated report.
type Snapshot = repository.Snapshot

// ReportEvent is the wire format written to the topic.
type ReportEvent struct {
	ReportID    string             `json:"report_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	RiskScore   float64            `json:"risk_score"`
	RiskLevel   string             `json:"risk_level"`
	Features    map[string]float64 `json:"features"`
	Sources     map[string]string  `json:"sources"`
}

// kafkaWriter is the slice of kafkago.Writer the publisher uses.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes one message per snapshot, keyed by report id so
// a report's events land in one partition.
type KafkaPublisher struct {
	writer kafkaWriter
	topic  string
	log    logger.Logger
}

// Option applies a configuration option to the KafkaPublisher.
type Option func(*KafkaPublisher)

// WithLogger sets a custom logger for the publisher.
func WithLogger(l logger.Logger) Option {
	return func(p *KafkaPublisher) {
		if l != nil {
			p.log = l
		}
	}
}

// withWriter swaps the writer. Tests use it to capture messages.
func withWriter(w kafkaWriter) Option {
	return func(p *KafkaPublisher) {
		p.writer = w
	}
}

// NewKafkaPublisher builds a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, opts ...Option) *KafkaPublisher {
	p := &KafkaPublisher{
		topic: topic,
		log:   logger.Get().Named("publish"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.writer == nil {
		p.writer = &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireAll,
		}
	}
	return p
}

// Publish writes one message for the snapshot.
func (p *KafkaPublisher) Publish(ctx context.Context, s Snapshot) error {
	const op = "publish.Publish"

	msg, err := serialize(s)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: write message for report %s: %w", op, s.ReportID, err)
	}

	p.log.Debug(ctx, "snapshot published",
		logger.String("reportID", s.ReportID),
		logger.String("riskLevel", string(s.RiskLevel)),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serialize converts a snapshot into a keyed Kafka message with
// routing headers consumers can filter on without decoding the body.
func serialize(s Snapshot) (kafkago.Message, error) {
	ev := ReportEvent{
		ReportID:    s.ReportID,
		GeneratedAt: s.CreatedAt,
		RiskScore:   s.RiskScore,
		RiskLevel:   string(s.RiskLevel),
		Features:    s.Features,
		Sources:     make(map[string]string, len(s.Sources)),
	}
	for d, src := range s.Sources {
		ev.Sources[string(d)] = string(src)
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal report event: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(s.ReportID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(s.RiskLevel)},
			{Key: "generated_at", Value: []byte(s.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
