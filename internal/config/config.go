// Package config loads service configuration from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it. Unparseable values fall back to
// their defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	Training      TrainingConfig
	Store         StoreConfig
	Directory     DirectoryConfig
	Words         WordsConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	GRPCPort    string
	MetricsAddr string
	Env         string
}

// STTConfig selects and configures the transcription provider.
type STTConfig struct {
	Provider        string // mock, google, deepgram
	LanguageCode    string
	SampleRateHz    int
	AudioEncoding   string
	Model           string
	HintBoost       float64
	CredentialsFile string
	Timeout         time.Duration

	DeepgramAPIKey       string
	DeepgramBaseURL      string
	DeepgramModel        string
	DeepgramKeywordBoost float64
}

// TrainingConfig bounds session work and recovery.
type TrainingConfig struct {
	MaxAudioBytes     int64
	MatchThreshold    float64       // minimum similarity for a correct word, in (0, 1]
	StaleProcessing   time.Duration // PROCESSING sessions older than this are recovered
	ReconcileInterval time.Duration // 0 disables the periodic sweep
}

// StoreConfig selects the session store.
type StoreConfig struct {
	Driver string // memory, badger
	Path   string
}

// DirectoryConfig selects where clients and specialists are looked up.
type DirectoryConfig struct {
	Driver      string // static, postgres
	File        string
	DatabaseURL string
}

// WordsConfig selects the word supplier.
type WordsConfig struct {
	Provider      string // static, openai
	BankFile      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout time.Duration
}

// KafkaConfig configures event publication.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicMessages string
	TopicResults  string
	Principal     string
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment.
func Load() *Config {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-speech-training")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:    envOrDefault("GRPC_PORT", "50051"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
			Env:         envOrDefault("ENV", "prod"),
		},
		STT: STTConfig{
			Provider:        envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:    envOrDefault("STT_LANGUAGE_CODE", "pt-BR"),
			SampleRateHz:    envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			AudioEncoding:   envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
			Model:           envOrDefault("STT_MODEL", ""),
			HintBoost:       envOrDefaultFloat("STT_HINT_BOOST", 10),
			CredentialsFile: envOrDefault("GOOGLE_APPLICATION_CREDENTIALS", ""),
			Timeout:         envOrDefaultDuration("STT_TIMEOUT", 30*time.Second),

			DeepgramAPIKey:       envOrDefault("DEEPGRAM_API_KEY", ""),
			DeepgramBaseURL:      envOrDefault("DEEPGRAM_BASE_URL", "https://api.deepgram.com/v1/listen"),
			DeepgramModel:        envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			DeepgramKeywordBoost: envOrDefaultFloat("DEEPGRAM_KEYWORD_BOOST", 2.0),
		},
		Training: TrainingConfig{
			MaxAudioBytes:     int64(envOrDefaultInt("TRAINING_MAX_AUDIO_BYTES", 10*1024*1024)),
			MatchThreshold:    envOrDefaultRatio("TRAINING_MATCH_THRESHOLD", 0.6),
			StaleProcessing:   envOrDefaultDuration("TRAINING_STALE_PROCESSING", 5*time.Minute),
			ReconcileInterval: envOrDefaultDuration("TRAINING_RECONCILE_INTERVAL", time.Minute),
		},
		Store: StoreConfig{
			Driver: envOrDefault("STORE_DRIVER", "memory"),
			Path:   envOrDefault("STORE_PATH", "data/sessions"),
		},
		Directory: DirectoryConfig{
			Driver:      envOrDefault("DIRECTORY_DRIVER", "static"),
			File:        envOrDefault("DIRECTORY_FILE", "config/directory.yaml"),
			DatabaseURL: envOrDefault("DATABASE_URL", ""),
		},
		Words: WordsConfig{
			Provider:      envOrDefault("WORDS_PROVIDER", "static"),
			BankFile:      envOrDefault("WORDS_BANK_FILE", ""),
			OpenAIAPIKey:  envOrDefault("OPENAI_API_KEY", ""),
			OpenAIModel:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", ""),
			OpenAITimeout: envOrDefaultDuration("OPENAI_TIMEOUT", 20*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicMessages: envOrDefault("KAFKA_TOPIC_MESSAGES", "speech.training.messages"),
			TopicResults:  envOrDefault("KAFKA_TOPIC_RESULTS", "speech.training.results"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// envOrDefaultRatio is envOrDefaultFloat restricted to (0, 1].
func envOrDefaultRatio(key string, def float64) float64 {
	if f := envOrDefaultFloat(key, def); f > 0 && f <= 1 {
		return f
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envOrDefaultList splits a comma-separated value, dropping empty items.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
