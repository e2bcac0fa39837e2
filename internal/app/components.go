package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"speech-training-service/internal/config"
	"speech-training-service/internal/directory"
	"speech-training-service/internal/service/scoring"
	"speech-training-service/internal/service/stt"
	"speech-training-service/internal/service/stt/deepgram"
	"speech-training-service/internal/service/stt/google"
	"speech-training-service/internal/service/stt/mock"
	"speech-training-service/internal/service/words"
	"speech-training-service/internal/store"
)

func newStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "badger":
		return store.NewBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// newDirectory returns the directory and, for database-backed ones, the
// function that releases its pool.
func newDirectory(ctx context.Context, cfg config.DirectoryConfig) (directory.Directory, func() error, error) {
	switch cfg.Driver {
	case "", "static":
		d, err := directory.LoadStaticDirectory(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return d, nil, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("postgres directory: DATABASE_URL is required")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres directory: %w", err)
		}
		d := directory.NewPostgresDirectory(pool)
		if err := d.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return d, func() error { pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown directory driver %q", cfg.Driver)
	}
}

// newSupplier builds the word supplier. The generative supplier always
// falls back to the static bank.
func newSupplier(cfg config.WordsConfig) (words.Supplier, error) {
	var static *words.StaticSupplier
	var err error
	if cfg.BankFile != "" {
		static, err = words.LoadStaticSupplier(cfg.BankFile)
	} else {
		static, err = words.NewStaticSupplier()
	}
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "", "static":
		return static, nil
	case "openai":
		gen, err := words.NewOpenAISupplier(cfg.OpenAIAPIKey, cfg.OpenAIModel,
			words.WithBaseURL(cfg.OpenAIBaseURL),
			words.WithTimeout(cfg.OpenAITimeout),
		)
		if err != nil {
			return nil, err
		}
		return words.NewFallbackSupplier("openai", gen, static), nil
	default:
		return nil, fmt.Errorf("unknown words provider %q", cfg.Provider)
	}
}

// newSTT builds the transcription adapter and, when it holds a connection,
// its close function.
func newSTT(ctx context.Context, cfg config.STTConfig) (stt.Adapter, func() error, error) {
	switch cfg.Provider {
	case "", mock.Name:
		return mock.New(), nil, nil
	case google.Name:
		gcfg := google.DefaultConfig()
		gcfg.LanguageCode = cfg.LanguageCode
		gcfg.SampleRateHz = int32(cfg.SampleRateHz)
		gcfg.AudioEncoding = cfg.AudioEncoding
		gcfg.Model = cfg.Model
		gcfg.HintBoost = float32(cfg.HintBoost)
		gcfg.CredentialsFile = cfg.CredentialsFile
		a, err := google.New(ctx, gcfg)
		if err != nil {
			return nil, nil, err
		}
		return a, a.Close, nil
	case deepgram.Name:
		dcfg := deepgram.DefaultConfig()
		dcfg.APIKey = cfg.DeepgramAPIKey
		dcfg.BaseURL = cfg.DeepgramBaseURL
		dcfg.Model = cfg.DeepgramModel
		dcfg.Language = cfg.LanguageCode
		dcfg.KeywordBoost = cfg.DeepgramKeywordBoost
		dcfg.Timeout = cfg.Timeout
		a, err := deepgram.New(dcfg)
		if err != nil {
			return nil, nil, err
		}
		return a, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}

// newAligner applies the configured match threshold; zero keeps the default.
func newAligner(cfg config.TrainingConfig) *scoring.Aligner {
	if cfg.MatchThreshold <= 0 {
		return scoring.NewAligner()
	}
	return scoring.NewAligner(scoring.WithThreshold(cfg.MatchThreshold))
}
