package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/wildfire-climate-etl/internal/config"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes enriched fires to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured feature topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return &Writer{writer: w, clock: clock, logger: logger}
}

// LoadBatch serializes and publishes multiple enriched fires in a single
// WriteMessages call. Fires are keyed by ID so a re-run lands on the same
// partition.
func (w *Writer) LoadBatch(ctx context.Context, fires []domain.EnrichedFire) error {
	if len(fires) == 0 {
		return nil
	}
	processedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(fires))
	for i := range fires {
		msg, err := serializeToMessage(fires[i], processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("batch published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EnrichedFire into a Kafka message.
func serializeToMessage(fire domain.EnrichedFire, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(fire)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fire %s: %w", fire.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(fire.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(fire.Fire.State)},
			{Key: "fire_year", Value: []byte(strconv.Itoa(fire.Fire.FireYear))},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
