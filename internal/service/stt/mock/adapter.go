// Package mock provides a mock STT adapter for running without cloud credentials.
//
// With no scripted transcripts it echoes the hint words back, which makes
// every submission a perfect read. Scripted transcripts are returned in order
// and then repeat from the start.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"speech-training-service/internal/service/stt"
)

// Name is the provider name reported by the mock adapter.
const Name = "mock"

// Adapter implements stt.Adapter with canned responses.
type Adapter struct {
	mu      sync.Mutex
	script  []string
	next    int
	latency time.Duration
	err     error
	calls   int
}

// Option configures the mock adapter.
type Option func(*Adapter)

// WithTranscripts scripts the transcripts returned by successive calls.
func WithTranscripts(transcripts ...string) Option {
	return func(a *Adapter) {
		a.script = append([]string(nil), transcripts...)
	}
}

// WithLatency simulates provider processing time. The context deadline is
// honoured while waiting.
func WithLatency(d time.Duration) Option {
	return func(a *Adapter) {
		a.latency = d
	}
}

// WithError makes every call fail with err.
func WithError(err error) Option {
	return func(a *Adapter) {
		a.err = err
	}
}

// New creates a new mock STT adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Name returns "mock".
func (a *Adapter) Name() string { return Name }

// Calls returns how many times Transcribe was invoked.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Transcribe returns the next scripted transcript, or the hints joined by
// spaces when nothing is scripted.
func (a *Adapter) Transcribe(ctx context.Context, audio []byte, hints []string) (string, error) {
	a.mu.Lock()
	a.calls++
	latency, failure := a.latency, a.err
	a.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", stt.Wrap(Name, ctx.Err())
		case <-timer.C:
		}
	}
	if failure != nil {
		return "", stt.Wrap(Name, failure)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.script) == 0 {
		return strings.Join(hints, " "), nil
	}
	text := a.script[a.next%len(a.script)]
	a.next++
	return text, nil
}
