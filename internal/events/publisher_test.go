package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"speech-training-service/internal/models"
	"speech-training-service/internal/schema"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func greeting(sessionID string) models.Message {
	return models.Message{Type: models.MessageGreeting, SessionID: sessionID, TotalCycles: 3, Text: "Olá", Timestamp: 1}
}

func newEnabled(messages, results *fakeWriter) *Publisher {
	p := New(&Config{Enabled: false, TopicMessages: "training.messages", TopicResults: "training.results", Principal: "svc"})
	p.enabled = true
	p.writerMessages = messages
	p.writerResults = results
	return p
}

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerMessages != nil || p.writerResults != nil {
				t.Error("expected nil writers when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:       false,
		Brokers:       []string{"localhost:9092"},
		TopicMessages: "test.messages",
		TopicResults:  "test.results",
		Principal:     "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicMessages != "test.messages" {
		t.Errorf("expected topic messages 'test.messages', got %s", p.topicMessages)
	}
	if p.topicResults != "test.results" {
		t.Errorf("expected topic results 'test.results', got %s", p.topicResults)
	}
}

func TestNew_EnabledCreatesWriters(t *testing.T) {
	p := New(&Config{Enabled: true, Brokers: []string{"localhost:9092"}, TopicMessages: "m", TopicResults: "r"})
	defer p.Close()

	if !p.enabled || p.writerMessages == nil || p.writerResults == nil {
		t.Error("expected enabled publisher with both writers")
	}
}

func TestPublisher_Disabled_NoError(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.PublishMessages(context.Background(), []models.Message{greeting("s-1")}); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if err := p.PublishCycleResult(context.Background(), CycleResultEvent{SessionID: "s-1"}); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
	if err := p.PublishSummary(context.Background(), SummaryEvent{SessionID: "s-1"}); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishMessages_KeysAndHeaders(t *testing.T) {
	msgs, results := &fakeWriter{}, &fakeWriter{}
	p := newEnabled(msgs, results)

	err := p.PublishMessages(context.Background(), []models.Message{
		greeting("s-1"),
		{Type: models.MessageWords, SessionID: "s-1", CurrentCycle: 1, TotalCycles: 3, Words: []string{"rato"}, Timestamp: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(msgs.msgs) != 2 || len(results.msgs) != 0 {
		t.Fatalf("expected 2 messages on messages topic only, got %d/%d", len(msgs.msgs), len(results.msgs))
	}
	first := msgs.msgs[0]
	if string(first.Key) != "s-1" {
		t.Errorf("expected key s-1, got %s", first.Key)
	}
	var decoded models.Message
	if err := json.Unmarshal(first.Value, &decoded); err != nil || decoded.Type != models.MessageGreeting {
		t.Errorf("unexpected payload %s (%v)", first.Value, err)
	}
	headers := map[string]string{}
	for _, h := range first.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["eventType"] != EventMessage || headers["principal"] != "svc" {
		t.Errorf("unexpected headers %v", headers)
	}
}

func TestPublisher_PublishResults(t *testing.T) {
	msgs, results := &fakeWriter{}, &fakeWriter{}
	p := newEnabled(msgs, results)

	_ = p.PublishCycleResult(context.Background(), CycleResultEvent{SessionID: "s-1", Result: &models.CycleResult{Cycle: 1}})
	_ = p.PublishSummary(context.Background(), SummaryEvent{SessionID: "s-1", Summary: &models.Summary{OverallScore: 80}})

	if len(results.msgs) != 2 {
		t.Fatalf("expected 2 result events, got %d", len(results.msgs))
	}
	if string(results.msgs[1].Headers[0].Value) != EventSummary {
		t.Errorf("expected summary event type, got %s", results.msgs[1].Headers[0].Value)
	}
}

func TestPublisher_WriteErrorReturned(t *testing.T) {
	boom := errors.New("broker down")
	p := newEnabled(&fakeWriter{err: boom}, &fakeWriter{})

	err := p.PublishMessages(context.Background(), []models.Message{greeting("s-1"), greeting("s-1")})
	if !errors.Is(err, boom) {
		t.Errorf("expected broker error, got %v", err)
	}
}

func TestPublisher_InvalidMessageSkipped(t *testing.T) {
	msgs := &fakeWriter{}
	p := newEnabled(msgs, &fakeWriter{})

	err := p.PublishMessages(context.Background(), []models.Message{
		{Type: models.MessageWords, SessionID: "s-1", TotalCycles: 3, Timestamp: 1},
		greeting("s-1"),
	})
	if !errors.Is(err, schema.ErrInvalid) {
		t.Errorf("expected schema.ErrInvalid, got %v", err)
	}
	if len(msgs.msgs) != 1 {
		t.Errorf("expected only the valid message to be written, got %d", len(msgs.msgs))
	}
}

func TestPublisher_Close(t *testing.T) {
	msgs, results := &fakeWriter{}, &fakeWriter{}
	p := newEnabled(msgs, results)

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msgs.closed || !results.closed {
		t.Error("expected both writers closed")
	}
}

func TestPublisher_Close_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
