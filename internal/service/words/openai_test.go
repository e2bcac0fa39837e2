package words

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewOpenAISupplier_Validation(t *testing.T) {
	if _, err := NewOpenAISupplier("", "gpt-4o-mini"); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := NewOpenAISupplier("key", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestParseWordList(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []string
		wantErr bool
	}{
		{"plain", `["rato","casa"]`, []string{"rato", "casa"}, false},
		{"fenced", "```json\n[\"Rato\", \" lua \"]\n```", []string{"rato", "lua"}, false},
		{"dedup and blanks", `["sol","","SOL","mar"]`, []string{"sol", "mar"}, false},
		{"no array", "rato, casa", nil, true},
		{"not strings", `[1,2]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWordList(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestOpenAISupplier_Generate_WrongCount(t *testing.T) {
	s := &OpenAISupplier{complete: func(ctx context.Context, system, user string) (string, error) {
		return `["a","b"]`, nil
	}}

	if _, err := s.Generate(context.Background(), 8, "R", 3); err == nil {
		t.Error("expected error for wrong word count")
	}
}

func TestOpenAISupplier_Generate_PromptMentionsTag(t *testing.T) {
	var prompt string
	s := &OpenAISupplier{complete: func(ctx context.Context, system, user string) (string, error) {
		prompt = user
		return `["rato","rua","rio"]`, nil
	}}

	got, err := s.Generate(context.Background(), 8, "r", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 words, got %v", got)
	}
	if !strings.Contains(prompt, "som R") || !strings.Contains(prompt, "8 anos") {
		t.Errorf("prompt missing tag or age: %q", prompt)
	}
}

func TestOpenAISupplier_Generate_AgainstHTTPServer(t *testing.T) {
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "[\"chuva\",\"chave\",\"chá\"]"}
			}]
		}`)
	}))
	defer srv.Close()

	s, err := NewOpenAISupplier("test-key", "gpt-4o-mini", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewOpenAISupplier: %v", err)
	}

	got, err := s.Generate(context.Background(), 5, "CH", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "chuva,chave,chá" {
		t.Errorf("unexpected words %v", got)
	}
	if !strings.HasSuffix(path, "/chat/completions") {
		t.Errorf("unexpected request path %q", path)
	}
	if auth != "Bearer test-key" {
		t.Errorf("unexpected auth header %q", auth)
	}
}

type stubSupplier struct {
	words []string
	err   error
	calls int
}

func (s *stubSupplier) Generate(ctx context.Context, age int, tag string, count int) ([]string, error) {
	s.calls++
	return s.words, s.err
}

func TestFallbackSupplier(t *testing.T) {
	primaryErr := errors.New("rate limited")

	t.Run("primary ok", func(t *testing.T) {
		p := &stubSupplier{words: []string{"a"}}
		sec := &stubSupplier{words: []string{"b"}}
		got, err := NewFallbackSupplier("openai", p, sec).Generate(context.Background(), 5, "R", 1)
		if err != nil || got[0] != "a" || sec.calls != 0 {
			t.Errorf("expected primary result, got %v %v (secondary calls %d)", got, err, sec.calls)
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		p := &stubSupplier{err: primaryErr}
		sec := &stubSupplier{words: []string{"b"}}
		got, err := NewFallbackSupplier("openai", p, sec).Generate(context.Background(), 5, "R", 1)
		if err != nil || got[0] != "b" {
			t.Errorf("expected fallback result, got %v %v", got, err)
		}
	})

	t.Run("validation not masked", func(t *testing.T) {
		p := &OpenAISupplier{complete: func(ctx context.Context, system, user string) (string, error) {
			return "", nil
		}}
		sec := &stubSupplier{words: []string{"b"}}
		_, err := NewFallbackSupplier("openai", p, sec).Generate(context.Background(), 5, "ZZ", 1)
		if err == nil || sec.calls != 0 {
			t.Errorf("expected validation error without fallback, got %v (secondary calls %d)", err, sec.calls)
		}
	})
}
