// Package kafka publishes normalized measurements to a Kafka topic for
// downstream consumers that want the stream rather than the store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/airqtools/airq/internal/domain"
)

// Writer produces measurement messages to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the measurement topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes measurements in a single
// WriteMessages call. Messages are keyed by measurement id so replays of
// the same batch land on the same partitions.
func (w *Writer) PublishBatch(ctx context.Context, measurements []domain.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(measurements))
	for i := range measurements {
		msg, err := serializeToMessage(measurements[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish measurements: %w", err)
	}
	w.logger.Debug("published measurements", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a measurement into a Kafka message.
func serializeToMessage(m domain.Measurement) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize measurement: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.MeasurementID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "parameter", Value: []byte(m.Parameter)},
			{Key: "utc", Value: []byte(m.Date.UTC)},
		},
	}, nil
}
