package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFixedSource_Validation(t *testing.T) {
	_, err := NewFixedSource(nil)
	require.Error(t, err)

	_, err = NewFixedSource([]string{})
	require.Error(t, err)
}

func TestFixedSource_Membership(t *testing.T) {
	prompts := []string{"alpha", "beta", "gamma"}
	src, err := NewFixedSource(prompts)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		p := src.Next()
		assert.Contains(t, prompts, p)
		seen[p] = true
	}
	// Sampling with replacement over 200 draws should hit all three.
	assert.Len(t, seen, 3)
}

func TestNewSyntheticSource_Validation(t *testing.T) {
	tests := []struct {
		name         string
		mean, stddev float64
		vocab        int
	}{
		{"zero mean", 0, 1, 100},
		{"negative mean", -10, 1, 100},
		{"negative stddev", 10, -1, 100},
		{"zero vocab", 10, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSyntheticSource(tt.mean, tt.stddev, tt.vocab)
			require.Error(t, err)
		})
	}
}

func TestSyntheticSource_AlwaysAtLeastOneToken(t *testing.T) {
	// A tiny mean with a huge stddev samples deeply negative lengths;
	// clamping must still yield at least one token.
	src, err := NewSyntheticSource(1, 1000, 50)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		prompt := src.Next()
		require.NotEmpty(t, prompt)
		tokens := strings.Fields(prompt)
		assert.GreaterOrEqual(t, len(tokens), 1)
		for _, tok := range tokens {
			assert.True(t, strings.HasPrefix(tok, "token"), "unexpected token %q", tok)
		}
	}
}

func TestSyntheticSource_LengthAroundMean(t *testing.T) {
	src, err := NewSyntheticSource(100, 0, 1000)
	require.NoError(t, err)

	// With zero stddev every prompt has exactly the mean length.
	for i := 0; i < 20; i++ {
		assert.Len(t, strings.Fields(src.Next()), 100)
	}
}
