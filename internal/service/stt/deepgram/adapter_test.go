package deepgram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"speech-training-service/internal/models"
)

func newTestAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "secret"
	cfg.BaseURL = srv.URL
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(DefaultConfig()); err == nil {
		t.Error("expected error without api key")
	}
}

func TestTranscribe_Success(t *testing.T) {
	var gotAuth, gotBody string
	var gotQuery map[string][]string

	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results":{"channels":[{"alternatives":[{"transcript":"rato casa","confidence":0.9}]}]}}`)
	})

	got, err := a.Transcribe(context.Background(), []byte("wav"), []string{"rato", "casa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "rato casa" {
		t.Errorf("expected 'rato casa', got %q", got)
	}
	if gotAuth != "Token secret" {
		t.Errorf("expected token auth header, got %q", gotAuth)
	}
	if gotBody != "wav" {
		t.Errorf("expected audio body, got %q", gotBody)
	}

	if q := gotQuery["model"]; len(q) != 1 || q[0] != "nova-2" {
		t.Errorf("expected model nova-2, got %v", q)
	}
	if q := gotQuery["language"]; len(q) != 1 || q[0] != "pt-BR" {
		t.Errorf("expected language pt-BR, got %v", q)
	}
	if q := gotQuery["punctuate"]; len(q) != 1 || q[0] != "false" {
		t.Errorf("expected punctuate=false, got %v", q)
	}
	kw := gotQuery["keywords"]
	if len(kw) != 2 || kw[0] != "rato:2.0" || kw[1] != "casa:2.0" {
		t.Errorf("expected boosted keywords, got %v", kw)
	}
}

func TestTranscribe_MissingResultsIsEmpty(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"metadata":{}}`)
	})

	got, err := a.Transcribe(context.Background(), []byte("wav"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty transcript, got %q", got)
	}
}

func TestTranscribe_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non 2xx", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"results":`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, tt.handler)
			_, err := a.Transcribe(context.Background(), []byte("wav"), nil)
			if !errors.Is(err, models.ErrExternalService) {
				t.Errorf("expected ErrExternalService, got %v", err)
			}
		})
	}
}

func TestTranscribe_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultConfig()
	cfg.APIKey = "secret"
	cfg.BaseURL = url
	a, _ := New(cfg)

	_, err := a.Transcribe(context.Background(), []byte("wav"), nil)
	if !errors.Is(err, models.ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
}
