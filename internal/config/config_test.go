package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:8000", cfg.Endpoint)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 256, cfg.MaxNewTokens)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.SampleInterval)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: http://vllm:8000
model: meta-llama/Llama-3.1-8B-Instruct
duration: 2m
concurrency: 16
prompts:
  - "What is the capital of France?"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://vllm:8000", cfg.Endpoint)
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", cfg.Model)
	assert.Equal(t, 2*time.Minute, cfg.Duration)
	assert.Equal(t, 16, cfg.Concurrency)
	assert.Len(t, cfg.Prompts, 1)
	// Untouched fields keep their defaults.
	assert.Equal(t, 256, cfg.MaxNewTokens)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: [broken"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INFERENCE_ENERGY_ENDPOINT", "http://env:9000")
	t.Setenv("INFERENCE_ENERGY_MODEL", "env-model")
	t.Setenv("INFERENCE_ENERGY_CONCURRENCY", "12")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://env:9000", cfg.Endpoint)
	assert.Equal(t, "env-model", cfg.Model)
	assert.Equal(t, 12, cfg.Concurrency)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Model = "m"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint"},
		{"empty model", func(c *Config) { c.Model = "" }, "model"},
		{"zero duration", func(c *Config) { c.Duration = 0 }, "duration"},
		{"negative duration", func(c *Config) { c.Duration = -time.Second }, "duration"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"zero max tokens", func(c *Config) { c.MaxNewTokens = 0 }, "max_new_tokens"},
		{"zero prompt mean", func(c *Config) { c.PromptMeanTokens = 0 }, "prompt_mean_tokens"},
		{"negative prompt stddev", func(c *Config) { c.PromptStddevTokens = -1 }, "prompt_stddev_tokens"},
		{"zero vocab", func(c *Config) { c.PromptVocabSize = 0 }, "prompt_vocab_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	// A fixed prompt list makes the synthetic parameters irrelevant.
	cfg := valid()
	cfg.Prompts = []string{"hello"}
	cfg.PromptMeanTokens = 0
	require.NoError(t, cfg.Validate())
}
