package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes analyses to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes a and writes it as a single message keyed by the analysis ID.
func (w *Writer) Load(ctx context.Context, a domain.Analysis) error {
	msg, err := toMessage(a)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish analysis: %w", err)
	}
	w.logger.Info("analysis published", "topic", w.writer.Topic, "id", a.ID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// toMessage maps an analysis onto a Kafka message with headers in key order.
func toMessage(a domain.Analysis) (kafkago.Message, error) {
	out, err := domain.SerializeAnalysis(a)
	if err != nil {
		return kafkago.Message{}, err
	}
	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := make([]kafkago.Header, len(keys))
	for i, k := range keys {
		headers[i] = kafkago.Header{Key: k, Value: []byte(out.Headers[k])}
	}
	return kafkago.Message{Key: out.Key, Value: out.Value, Headers: headers}, nil
}
