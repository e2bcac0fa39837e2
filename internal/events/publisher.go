// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"speech-training-service/internal/models"
	"speech-training-service/internal/observability/metrics"
	"speech-training-service/internal/schema"
)

// Event types carried in the eventType header.
const (
	EventMessage     = "message"
	EventCycleResult = "cycle_result"
	EventSummary     = "session_summary"
)

// CycleResultEvent is published when a cycle is scored.
type CycleResultEvent struct {
	SessionID    string              `json:"sessionId"`
	ClientID     string              `json:"clientId"`
	SpecialistID string              `json:"specialistId"`
	Difficulty   string              `json:"difficulty"`
	Result       *models.CycleResult `json:"result"`
	Timestamp    int64               `json:"timestamp"`
}

// SummaryEvent is published when a session finishes.
type SummaryEvent struct {
	SessionID    string          `json:"sessionId"`
	ClientID     string          `json:"clientId"`
	SpecialistID string          `json:"specialistId"`
	Difficulty   string          `json:"difficulty"`
	Summary      *models.Summary `json:"summary"`
	Timestamp    int64           `json:"timestamp"`
}

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes session messages and results to separate Kafka topics.
type Publisher struct {
	writerMessages messageWriter
	writerResults  messageWriter
	principal      string
	topicMessages  string
	topicResults   string
	enabled        bool
	metrics        *metrics.Metrics
	validator      *schema.Validator
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers       []string
	TopicMessages string
	TopicResults  string
	Principal     string
	Enabled       bool
}

// New creates a new Kafka event publisher with separate topics for
// conversational messages and scoring results.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled:   false,
			metrics:   m,
			validator: schema.New(),
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:     cfg.Principal,
			topicMessages: cfg.TopicMessages,
			topicResults:  cfg.TopicResults,
			enabled:       false,
			metrics:       m,
			validator:     schema.New(),
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicMessages", cfg.TopicMessages).
		Str("topicResults", cfg.TopicResults).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerMessages: newWriter(cfg.TopicMessages),
		writerResults:  newWriter(cfg.TopicResults),
		principal:      cfg.Principal,
		topicMessages:  cfg.TopicMessages,
		topicResults:   cfg.TopicResults,
		enabled:        true,
		metrics:        m,
		validator:      schema.New(),
	}
}

// PublishMessages publishes each message to the messages topic, keyed by
// session id so one session's messages stay ordered within a partition.
// Messages that break the message contract are logged and skipped.
func (p *Publisher) PublishMessages(ctx context.Context, msgs []models.Message) error {
	var firstErr error
	for _, msg := range msgs {
		if err := p.validator.Validate(msg); err != nil {
			log.Error().Err(err).Str("topic", p.topicMessages).Msg("Refusing to publish invalid message")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := p.publish(ctx, p.writerMessages, p.topicMessages, EventMessage, msg.SessionID, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishCycleResult publishes a scored cycle to the results topic.
func (p *Publisher) PublishCycleResult(ctx context.Context, event CycleResultEvent) error {
	return p.publish(ctx, p.writerResults, p.topicResults, EventCycleResult, event.SessionID, event)
}

// PublishSummary publishes a final session summary to the results topic.
func (p *Publisher) PublishSummary(ctx context.Context, event SummaryEvent) error {
	return p.publish(ctx, p.writerResults, p.topicResults, EventSummary, event.SessionID, event)
}

// publish writes one event to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		Str("eventType", eventType).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerMessages != nil {
		if e := p.writerMessages.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing messages writer")
			err = e
		}
	}
	if p.writerResults != nil {
		if e := p.writerResults.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing results writer")
			err = e
		}
	}
	return err
}
