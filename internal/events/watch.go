package events

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Event is one record read back from a training topic.
type Event struct {
	Topic     string
	Key       string
	EventType string
	Payload   []byte
	Time      time.Time
}

// messageReader is the subset of *kafka.Reader used by Watch.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewReader opens a partition reader on partition 0 of topic, positioned at
// since. No consumer group is used, so watchers never commit offsets.
func NewReader(ctx context.Context, brokers []string, topic string, since time.Time) (*kafka.Reader, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	if err := reader.SetOffsetAt(ctx, since); err != nil {
		reader.Close()
		return nil, err
	}
	return reader, nil
}

// Watch reads events from reader and passes those matching sessionID to fn
// until ctx is done. An empty sessionID matches every event. Transient read
// errors are logged and retried after retryDelay.
func Watch(ctx context.Context, reader messageReader, sessionID string, retryDelay time.Duration, fn func(Event)) error {
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// io.EOF means the reader was closed.
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Warn().Err(err).Msg("Kafka read failed, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		if sessionID != "" && string(msg.Key) != sessionID {
			continue
		}
		fn(Event{
			Topic:     msg.Topic,
			Key:       string(msg.Key),
			EventType: header(msg, "eventType"),
			Payload:   msg.Value,
			Time:      msg.Time,
		})
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
