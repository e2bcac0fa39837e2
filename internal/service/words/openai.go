package words

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

const systemPrompt = "Você é um fonoaudiólogo que cria listas de palavras em português do Brasil " +
	"para treino de pronúncia. Responda apenas com um array JSON de strings, sem texto adicional."

// completer runs one chat completion and returns the assistant text.
type completer func(ctx context.Context, system, user string) (string, error)

// OpenAISupplier asks a chat model for words and validates the reply.
type OpenAISupplier struct {
	complete completer
	model    string
}

// OpenAIOption configures an OpenAISupplier.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL string
	timeout time.Duration
}

// WithBaseURL overrides the OpenAI API base URL.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *openAIConfig) {
		c.timeout = d
	}
}

// NewOpenAISupplier constructs a supplier backed by the OpenAI chat API.
func NewOpenAISupplier(apiKey, model string, opts ...OpenAIOption) (*OpenAISupplier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &openAIConfig{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	client := oai.NewClient(reqOpts...)

	return &OpenAISupplier{
		model: model,
		complete: func(ctx context.Context, system, user string) (string, error) {
			resp, err := client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
				Model: shared.ChatModel(model),
				Messages: []oai.ChatCompletionMessageParamUnion{
					oai.SystemMessage(system),
					oai.UserMessage(user),
				},
				Temperature: param.NewOpt(0.7),
			})
			if err != nil {
				return "", fmt.Errorf("openai: chat completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("openai: empty choices in response")
			}
			return resp.Choices[0].Message.Content, nil
		},
	}, nil
}

// Generate asks the model for count words and fails unless it gets exactly
// that many non-empty, distinct words.
func (s *OpenAISupplier) Generate(ctx context.Context, age int, tag string, count int) ([]string, error) {
	t, err := ParseDifficulty(tag)
	if err != nil {
		return nil, err
	}

	reply, err := s.complete(ctx, systemPrompt, buildPrompt(age, t, count))
	if err != nil {
		return nil, err
	}
	words, err := parseWordList(reply)
	if err != nil {
		return nil, err
	}
	if len(words) != count {
		return nil, fmt.Errorf("openai: expected %d words, got %d", count, len(words))
	}
	return words, nil
}

func buildPrompt(age int, tag string, count int) string {
	focus := fmt.Sprintf("que treinem o som %s", tag)
	if tag == TagGeral {
		focus = "de vocabulário geral"
	}
	return fmt.Sprintf("Gere exatamente %d palavras diferentes %s, adequadas para uma pessoa de %d anos (faixa %s).",
		count, focus, age, Band(age))
}

// parseWordList extracts a JSON string array from the reply, tolerating
// surrounding prose or code fences.
func parseWordList(reply string) ([]string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("openai: no JSON array in reply")
	}

	var raw []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("openai: decode word list: %w", err)
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, w := range raw {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out, nil
}
