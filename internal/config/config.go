/*
PURPOSE:
  Defines the configuration structure and loading logic for inference-energy.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the endpoint, model, load shape, sampling
    cadence, and measurement phase durations.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support environment variable overrides (INFERENCE_ENERGY_...),
    including a local .env file.
  - Load-test parameters must be validated before any worker starts.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/power
  - Dependencies: gopkg.in/yaml.v3, github.com/joho/godotenv

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Validate() fails fast on any parameter that would make a load run
    meaningless (fatal to the run, reported synchronously).

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (30s request timeout, concurrency 4).

USAGE:
  cfg, err := config.Load("inference_energy.yaml")

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for inference-energy.
type Config struct {
	// Target endpoint (vLLM OpenAI-compatible) and model name.
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`

	// Load shape.
	Duration       time.Duration `yaml:"duration"`
	Concurrency    int           `yaml:"concurrency"`
	MaxNewTokens   int           `yaml:"max_new_tokens"`
	Temperature    float64       `yaml:"temperature"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Prompt source. A non-empty Prompts list selects fixed-set sampling;
	// otherwise synthetic prompts are generated from the parameters below.
	Prompts            []string `yaml:"prompts"`
	PromptMeanTokens   float64  `yaml:"prompt_mean_tokens"`
	PromptStddevTokens float64  `yaml:"prompt_stddev_tokens"`
	PromptVocabSize    int      `yaml:"prompt_vocab_size"`

	// Power sampling.
	DeviceIndex    int           `yaml:"device_index"`
	SampleInterval time.Duration `yaml:"sample_interval"`

	// Measurement workflow phases.
	IdleDuration    time.Duration `yaml:"idle_duration"`
	WarmupDuration  time.Duration `yaml:"warmup_duration"`
	ActiveDuration  time.Duration `yaml:"active_duration"`
	PowerBuffer     time.Duration `yaml:"power_buffer"`
	WarmupWorkers   int           `yaml:"warmup_workers"`

	// Output.
	OutputDir string `yaml:"output_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:           "http://localhost:8000",
		Duration:           60 * time.Second,
		Concurrency:        4,
		MaxNewTokens:       256,
		Temperature:        0.0,
		RequestTimeout:     30 * time.Second,
		PromptMeanTokens:   128,
		PromptStddevTokens: 32,
		PromptVocabSize:    32000,
		DeviceIndex:        0,
		SampleInterval:     100 * time.Millisecond,
		IdleDuration:       5 * time.Minute,
		WarmupDuration:     3 * time.Minute,
		ActiveDuration:     10 * time.Minute,
		PowerBuffer:        30 * time.Second,
		WarmupWorkers:      4,
		OutputDir:          "results",
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config. Environment overrides
// (INFERENCE_ENERGY_*) are applied last, with .env support.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		// Search for defaults
		defaults := []string{"inference_energy.yaml", "inference_energy.yml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name // record which file we loaded
				found = true
				break
			}
		}
		if !found {
			applyEnv(cfg)
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides loaded values from the environment. A .env file in the
// working directory is merged first; missing files are fine.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("INFERENCE_ENERGY_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("INFERENCE_ENERGY_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("INFERENCE_ENERGY_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("INFERENCE_ENERGY_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("INFERENCE_ENERGY_DEVICE_INDEX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DeviceIndex = n
		}
	}
}

// Validate checks the load-test parameters. It is called before any worker
// starts; a failure here is fatal to the run.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must be set")
	}
	if c.Model == "" {
		return fmt.Errorf("model must be set")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", c.Duration)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxNewTokens <= 0 {
		return fmt.Errorf("max_new_tokens must be positive, got %d", c.MaxNewTokens)
	}
	if len(c.Prompts) == 0 {
		// Synthetic generation parameters must form a valid distribution.
		if c.PromptMeanTokens <= 0 {
			return fmt.Errorf("prompt_mean_tokens must be positive, got %g", c.PromptMeanTokens)
		}
		if c.PromptStddevTokens < 0 {
			return fmt.Errorf("prompt_stddev_tokens must be non-negative, got %g", c.PromptStddevTokens)
		}
		if c.PromptVocabSize <= 0 {
			return fmt.Errorf("prompt_vocab_size must be positive, got %d", c.PromptVocabSize)
		}
	}
	return nil
}
