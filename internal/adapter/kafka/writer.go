package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/config"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes every ensemble row of a report to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaSinkTopic, logger: logger.With("component", "kafka_writer")}
}

func (w *Writer) Name() string { return "kafka" }

// Write serializes the report rows and publishes them in a single
// WriteMessages call. Rows are keyed by location|date|daypart so every
// update of one row lands on the same partition.
func (w *Writer) Write(ctx context.Context, report domain.Report) error {
	if len(report.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Rows))
	for i := range report.Rows {
		msg, err := serializeToMessage(report.Rows[i], report.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", w.topic, err)
	}
	w.logger.Info("rows published", "topic", w.topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EnsembleSummary into a Kafka message.
func serializeToMessage(row domain.EnsembleSummary, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ensemble row %s: %w", row.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(row.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(row.Location)},
			{Key: "generated_at", Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
