// Package deepgram provides a Deepgram prerecorded-audio STT adapter.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"speech-training-service/internal/service/stt"
)

// Name is the provider name reported by the Deepgram adapter.
const Name = "deepgram"

// DefaultBaseURL is the Deepgram listen endpoint.
const DefaultBaseURL = "https://api.deepgram.com/v1/listen"

// Config holds Deepgram request settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Language     string
	KeywordBoost float64
	ContentType  string
	Timeout      time.Duration
}

// DefaultConfig returns nova-2 pt-BR settings with keyword boost 2.0.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Model:        "nova-2",
		Language:     "pt-BR",
		KeywordBoost: 2.0,
		ContentType:  "audio/wav",
		Timeout:      30 * time.Second,
	}
}

// Adapter implements stt.Adapter against the Deepgram REST API.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// New creates a new Deepgram adapter.
func New(cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepgram: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "audio/wav"
	}
	return &Adapter{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Name returns "deepgram".
func (a *Adapter) Name() string { return Name }

type listenResponse struct {
	Results *struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe posts the audio and returns the first alternative of the first
// channel. A response without results yields "".
func (a *Adapter) Transcribe(ctx context.Context, audio []byte, hints []string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.listenURL(hints), bytes.NewReader(audio))
	if err != nil {
		return "", stt.Wrap(Name, err)
	}
	req.Header.Set("Authorization", "Token "+a.cfg.APIKey)
	req.Header.Set("Content-Type", a.cfg.ContentType)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", stt.Wrap(Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", stt.Wrap(Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", stt.Wrap(Name, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	var parsed listenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", stt.Wrap(Name, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Results == nil ||
		len(parsed.Results.Channels) == 0 ||
		len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}

func (a *Adapter) listenURL(hints []string) string {
	q := url.Values{}
	q.Set("model", a.cfg.Model)
	q.Set("language", a.cfg.Language)
	q.Set("smart_format", "true")
	q.Set("punctuate", "false")
	q.Set("diarize", "false")
	boost := strconv.FormatFloat(a.cfg.KeywordBoost, 'f', 1, 64)
	for _, h := range hints {
		if h == "" {
			continue
		}
		q.Add("keywords", h+":"+boost)
	}
	return a.cfg.BaseURL + "?" + q.Encode()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
