package words

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"speech-training-service/internal/models"
)

//go:embed bank.yaml
var defaultBank []byte

// ErrNotEnoughWords is returned when the bank cannot satisfy a request.
var ErrNotEnoughWords = errors.New("not enough words in bank")

type bandWords struct {
	Generic []string            `yaml:"generic"`
	Tags    map[string][]string `yaml:"tags"`
}

type bank struct {
	Bands map[string]bandWords `yaml:"bands"`
}

// StaticSupplier draws shuffled words from a YAML bank.
type StaticSupplier struct {
	bank bank

	mu  sync.Mutex
	rng *rand.Rand
}

// StaticOption configures a StaticSupplier.
type StaticOption func(*StaticSupplier)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) StaticOption {
	return func(s *StaticSupplier) {
		s.rng = r
	}
}

// NewStaticSupplier loads the embedded bank.
func NewStaticSupplier(opts ...StaticOption) (*StaticSupplier, error) {
	return newStatic(defaultBank, opts...)
}

// LoadStaticSupplier loads the bank from a YAML file.
func LoadStaticSupplier(path string, opts ...StaticOption) (*StaticSupplier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word bank: %w", err)
	}
	return newStatic(data, opts...)
}

func newStatic(data []byte, opts ...StaticOption) (*StaticSupplier, error) {
	var b bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse word bank: %w", err)
	}
	if len(b.Bands) == 0 {
		return nil, fmt.Errorf("parse word bank: no bands defined")
	}

	s := &StaticSupplier{
		bank: b,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Generate returns count distinct words for the age band and tag. The tag
// list is shuffled first; generic band words top it up when it is short.
func (s *StaticSupplier) Generate(ctx context.Context, age int, tag string, count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", models.ErrValidation, count)
	}
	t, err := ParseDifficulty(tag)
	if err != nil {
		return nil, err
	}

	band, ok := s.bank.Bands[Band(age)]
	if !ok {
		band = s.bank.Bands["infantil"]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, count)
	seen := make(map[string]bool, count)
	take := func(list []string) {
		shuffled := append([]string(nil), list...)
		s.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, w := range shuffled {
			if len(out) == count {
				return
			}
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}

	take(band.Tags[t])
	take(band.Generic)

	if len(out) < count {
		return nil, fmt.Errorf("%w: band %s tag %s has %d words, need %d",
			ErrNotEnoughWords, Band(age), t, len(out), count)
	}
	return out, nil
}
