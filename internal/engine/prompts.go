/*
PURPOSE:
  Prompt sources for the load generator.
  Two variants: uniform-random choice from a fixed list, and synthetic
  prompts of approximately normal token length.

REQUIREMENTS:
  User-specified:
  - Fixed-set sampling with replacement from a non-empty list.
  - Synthetic length ~ N(mean, stddev), clamped to at least one token,
    filled with placeholder vocabulary-index tokens.

  Implementation-discovered:
  - Workers sample concurrently; the rand source needs a lock.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Uses: math/rand

ERROR HANDLING:
  - Constructors reject invalid parameters (fail fast, before any worker
    starts).

IMPLEMENTATION RULES:
  - Next() must never return an empty prompt.

USAGE:
  src, err := engine.NewSyntheticSource(128, 32, 32000)
  prompt := src.Next()

RELATED FILES:
  - internal/engine/runner.go

MAINTENANCE:
  - Update if a corpus-backed source (e.g. ShareGPT) is added.
*/

package engine

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// PromptSource yields one prompt per call. Implementations are safe for
// concurrent use by multiple workers.
type PromptSource interface {
	Next() string
}

// FixedSource samples uniformly, with replacement, from a fixed prompt list.
type FixedSource struct {
	prompts []string
	mu      sync.Mutex
	rng     *rand.Rand
}

// NewFixedSource creates a fixed-set prompt source.
func NewFixedSource(prompts []string) (*FixedSource, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompts list cannot be empty")
	}
	return &FixedSource{
		prompts: prompts,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Next returns a uniformly chosen prompt.
func (s *FixedSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[s.rng.Intn(len(s.prompts))]
}

// SyntheticSource generates placeholder prompts of controlled approximate
// token length, for runs without a real prompt corpus.
type SyntheticSource struct {
	meanTokens   float64
	stddevTokens float64
	vocabSize    int
	mu           sync.Mutex
	rng          *rand.Rand
}

// NewSyntheticSource creates a synthetic prompt source. The generated
// length is drawn from N(mean, stddev) and clamped to at least one token.
func NewSyntheticSource(meanTokens, stddevTokens float64, vocabSize int) (*SyntheticSource, error) {
	if meanTokens <= 0 {
		return nil, fmt.Errorf("mean tokens must be positive, got %g", meanTokens)
	}
	if stddevTokens < 0 {
		return nil, fmt.Errorf("stddev tokens must be non-negative, got %g", stddevTokens)
	}
	if vocabSize <= 0 {
		return nil, fmt.Errorf("vocab size must be positive, got %d", vocabSize)
	}
	return &SyntheticSource{
		meanTokens:   meanTokens,
		stddevTokens: stddevTokens,
		vocabSize:    vocabSize,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Next returns a generated prompt of vocabulary-index placeholder tokens
// joined by spaces. Always at least one token, no matter how negative the
// sampled length came out.
func (s *SyntheticSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int(math.Round(s.rng.NormFloat64()*s.stddevTokens + s.meanTokens))
	if n < 1 {
		n = 1
	}

	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token%d", s.rng.Intn(s.vocabSize))
	}
	return strings.Join(tokens, " ")
}
