package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/cat-sightings-service/internal/config"
	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

// Writer publishes loaded sightings to the sighting feed topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured feed topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSightingsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

// feedMessage is the JSON value of one feed record.
type feedMessage struct {
	domain.Sighting
	LoadID    string    `json:"load_id"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Publish writes every sighting of ds in a single WriteMessages call. Messages
// are keyed by sighting id so a sighting always lands on the same partition.
func (w *Writer) Publish(ctx context.Context, ds *domain.Dataset) error {
	if len(ds.Sightings) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(ds.Sightings))
	for i := range ds.Sightings {
		msg, err := serializeToMessage(ds, ds.Sightings[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write sighting feed: %w", err)
	}
	w.logger.Debug("sighting feed published", "load_id", ds.LoadID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one sighting into a Kafka message.
func serializeToMessage(ds *domain.Dataset, s domain.Sighting) (kafkago.Message, error) {
	data, err := json.Marshal(feedMessage{Sighting: s, LoadID: ds.LoadID, FetchedAt: ds.FetchedAt})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sighting %s: %w", s.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(s.ID),
		Value: data,
		Time:  ds.FetchedAt,
		Headers: []kafkago.Header{
			{Key: "load_id", Value: []byte(ds.LoadID)},
			{Key: "fetched_at", Value: []byte(ds.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
