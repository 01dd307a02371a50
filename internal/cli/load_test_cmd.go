/*
PURPOSE:
  Defines the 'load-test' subcommand.
  Runs the timed concurrent load against the inference endpoint and
  writes one CSV record per issued request.

REQUIREMENTS:
  User-specified:
  - Flags for endpoint, model, duration, concurrency, token/temperature
    parameters, timeout, prompt source, output path.

  Implementation-discovered:
  - Prompt file lines are stripped; blank-only files are a config error.
  - --random-prompts selects synthetic generation when no corpus exists.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.RunLoadTest()
  - Uses: internal/config, internal/output

ERROR HANDLING:
  - Config errors surface before any worker starts; exit 1 via main.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Build source -> Run.

USAGE:
  inference-energy load-test --endpoint http://localhost:8000 --model m --duration 10m --output requests.csv

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chuyishang/inference-energy/internal/config"
	"github.com/chuyishang/inference-energy/internal/engine"
	"github.com/chuyishang/inference-energy/internal/output"
)

var (
	ltEndpoint      string
	ltModel         string
	ltPromptFile    string
	ltRandomPrompts bool
	ltDuration      time.Duration
	ltConcurrency   int
	ltMaxNewTokens  int
	ltTemperature   float64
	ltTimeout       time.Duration
	ltOutput        string
)

var loadTestCmd = &cobra.Command{
	Use:   "load-test",
	Short: "Send timed concurrent load to the inference endpoint",
	Long: `Runs exactly --concurrency workers against a shared deadline. Each worker
loops: sample a prompt, issue one chat-completion request, record one
outcome. The deadline is checked only between iterations, so in-flight
requests always complete and the total run time can exceed --duration by up
to one request latency per worker.`,
	Example: `  # Fixed prompt corpus, one prompt per line
  inference-energy load-test --endpoint http://localhost:8000 --model meta-llama/Llama-3.1-8B-Instruct \
    --prompts prompts.txt --duration 10m --concurrency 8 --output requests.csv

  # Synthetic prompts (no corpus needed)
  inference-energy load-test --endpoint http://localhost:8000 --model meta-llama/Llama-3.1-8B-Instruct \
    --random-prompts --duration 3m --output warmup_requests.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		applyLoadTestOverrides(cmd, cfg)

		source, err := buildPromptSource(cfg)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if dir := filepath.Dir(ltOutput); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory %s: %w", dir, err)
			}
		}
		sink, err := output.NewRequestLogWriter(ltOutput)
		if err != nil {
			return fmt.Errorf("failed to init request log at %s: %w", ltOutput, err)
		}
		defer sink.Close()

		return engine.RunLoadTest(cmd.Context(), cfg, source, sink)
	},
}

func applyLoadTestOverrides(cmd *cobra.Command, cfg *config.Config) {
	if ltEndpoint != "" {
		cfg.Endpoint = ltEndpoint
	}
	if ltModel != "" {
		cfg.Model = ltModel
	}
	if cmd.Flags().Changed("duration") {
		cfg.Duration = ltDuration
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = ltConcurrency
	}
	if cmd.Flags().Changed("max-new-tokens") {
		cfg.MaxNewTokens = ltMaxNewTokens
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = ltTemperature
	}
	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeout = ltTimeout
	}
}

// buildPromptSource selects fixed-set or synthetic sampling. A prompt file
// wins over --random-prompts; with neither, synthetic generation is used.
func buildPromptSource(cfg *config.Config) (engine.PromptSource, error) {
	if ltPromptFile != "" {
		prompts, err := readPrompts(ltPromptFile)
		if err != nil {
			return nil, err
		}
		cfg.Prompts = prompts
		return engine.NewFixedSource(prompts)
	}
	if len(cfg.Prompts) > 0 && !ltRandomPrompts {
		return engine.NewFixedSource(cfg.Prompts)
	}
	cfg.Prompts = nil
	return engine.NewSyntheticSource(cfg.PromptMeanTokens, cfg.PromptStddevTokens, cfg.PromptVocabSize)
}

// readPrompts loads one prompt per line, skipping blank lines.
func readPrompts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	var prompts []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			prompts = append(prompts, line)
		}
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt file %s is empty after stripping blank lines", path)
	}
	return prompts, nil
}

func init() {
	rootCmd.AddCommand(loadTestCmd)

	loadTestCmd.Flags().StringVar(&ltEndpoint, "endpoint", "", "Base URL for the inference server")
	loadTestCmd.Flags().StringVar(&ltModel, "model", "", "Model name to request")
	loadTestCmd.Flags().StringVarP(&ltPromptFile, "prompts", "p", "", "Path to prompts file (one prompt per line)")
	loadTestCmd.Flags().BoolVar(&ltRandomPrompts, "random-prompts", false, "Generate synthetic prompts instead of using a corpus")
	loadTestCmd.Flags().DurationVar(&ltDuration, "duration", 60*time.Second, "Load test duration")
	loadTestCmd.Flags().IntVar(&ltConcurrency, "concurrency", 4, "Number of concurrent workers")
	loadTestCmd.Flags().IntVar(&ltMaxNewTokens, "max-new-tokens", 256, "max_tokens value per request")
	loadTestCmd.Flags().Float64Var(&ltTemperature, "temperature", 0.0, "Generation temperature")
	loadTestCmd.Flags().DurationVar(&ltTimeout, "timeout", 30*time.Second, "Per-request timeout")
	loadTestCmd.Flags().StringVarP(&ltOutput, "output", "o", "requests.csv", "CSV output path for request outcomes")

	_ = loadTestCmd.MarkFlagRequired("model")
}
