/*
PURPOSE:
  Defines the 'measure' subcommand: the full automated measurement
  workflow (idle baseline -> warmup -> active measurement -> analysis).

REQUIREMENTS:
  User-specified:
  - One command that produces idle.csv, warmup_requests.csv, active.csv,
    requests.csv, and summary.json under a per-run output directory.
  - Idle measurement skippable with an explicitly supplied --idle-power.

  Implementation-discovered:
  - Power recording and load generation run as fully independent
    concurrent tasks sharing no memory; they are correlated afterward via
    timestamps. The power window gets a buffer past the load deadline to
    cover in-flight requests.
  - The operator must confirm endpoint state between phases (server down
    for idle, up for load), so the phases pause for Enter.

ARCHITECTURE INTEGRATION:
  - Calls: internal/power, internal/engine, internal/analysis
  - Uses: internal/config, internal/output

ERROR HANDLING:
  - Any phase failure aborts the workflow; partial logs stay on disk.

IMPLEMENTATION RULES:
  - --skip-idle requires --idle-power.
  - Output dir defaults to results/<sanitized-model>_<timestamp>.

USAGE:
  inference-energy measure --endpoint http://localhost:8000 --model meta-llama/Llama-3.1-8B-Instruct

RELATED FILES:
  - internal/cli/analyze_cmd.go

MAINTENANCE:
  - Update when phases or artifact names change.
*/

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chuyishang/inference-energy/internal/analysis"
	"github.com/chuyishang/inference-energy/internal/config"
	"github.com/chuyishang/inference-energy/internal/engine"
	"github.com/chuyishang/inference-energy/internal/model"
	"github.com/chuyishang/inference-energy/internal/output"
	"github.com/chuyishang/inference-energy/internal/power"
)

var (
	msEndpoint    string
	msModel       string
	msDeviceIndex int
	msIdleDur     time.Duration
	msWarmupDur   time.Duration
	msActiveDur   time.Duration
	msConcurrency int
	msOutputDir   string
	msSkipIdle    bool
	msIdlePower   float64
	msModelSizeGB float64
	msMemBWGBs    float64
	msFLOPs       float64
	msYes         bool
)

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Run the full idle/warmup/active/analyze measurement workflow",
	Long: `Runs the complete measurement protocol:
1. Idle baseline: record device power with the server idle.
2. Warmup: drive load until the server reaches steady state.
3. Active: record power and drive the measured load concurrently.
4. Analyze: integrate, derive metrics, and write summary.json.`,
	Example: `  inference-energy measure --endpoint http://localhost:8000 --model meta-llama/Llama-3.1-8B-Instruct

  # Reuse a known idle baseline
  inference-energy measure --endpoint http://localhost:8000 --model m --skip-idle --idle-power 52.3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if msSkipIdle && !cmd.Flags().Changed("idle-power") {
			return fmt.Errorf("--skip-idle requires --idle-power to be specified")
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg.Endpoint = msEndpoint
		cfg.Model = msModel
		if cmd.Flags().Changed("gpu") {
			cfg.DeviceIndex = msDeviceIndex
		}
		if cmd.Flags().Changed("idle-duration") {
			cfg.IdleDuration = msIdleDur
		}
		if cmd.Flags().Changed("warmup-duration") {
			cfg.WarmupDuration = msWarmupDur
		}
		if cmd.Flags().Changed("duration") {
			cfg.ActiveDuration = msActiveDur
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Concurrency = msConcurrency
		}

		outDir := msOutputDir
		if outDir == "" {
			stamp := time.Now().Format("20060102_150405")
			outDir = filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s", sanitizeModelName(cfg.Model), stamp))
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
		}

		return runMeasurement(cmd, cfg, outDir)
	},
}

func runMeasurement(cmd *cobra.Command, cfg *config.Config, outDir string) error {
	ctx := cmd.Context()

	// Step 1: idle baseline.
	idlePowerW := msIdlePower
	if !msSkipIdle {
		output.Logger.Info("STEP 1: Measuring idle baseline power",
			"device", cfg.DeviceIndex, "duration", cfg.IdleDuration)
		if err := waitForOperator(fmt.Sprintf(
			"Ensure the inference server is NOT running on GPU %d, then press Enter...", cfg.DeviceIndex)); err != nil {
			return err
		}

		samples, err := recordPower(ctx, cfg.DeviceIndex, cfg.IdleDuration, cfg.SampleInterval,
			filepath.Join(outDir, "idle.csv"))
		if err != nil {
			return fmt.Errorf("idle measurement: %w", err)
		}
		stats, err := analysis.AggregatePower(samples)
		if err != nil {
			return fmt.Errorf("idle measurement: %w", err)
		}
		idlePowerW = stats.AvgPowerW
		output.Logger.Info("Idle baseline measured", "idle_power_w", fmt.Sprintf("%.2f", idlePowerW))
	}

	// Step 2: warmup.
	output.Logger.Info("STEP 2: Warmup phase", "duration", cfg.WarmupDuration)
	if err := waitForOperator(fmt.Sprintf(
		"Ensure the inference server is running at %s, then press Enter...", cfg.Endpoint)); err != nil {
		return err
	}

	warmupCfg := *cfg
	warmupCfg.Duration = cfg.WarmupDuration
	warmupCfg.Concurrency = cfg.WarmupWorkers
	warmupCfg.Prompts = nil // warmup always uses synthetic prompts
	if err := runPhaseLoad(ctx, &warmupCfg, filepath.Join(outDir, "warmup_requests.csv")); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}

	output.Logger.Info("Warmup complete. Starting measurement in 5 seconds...")
	time.Sleep(5 * time.Second)

	// Step 3: active measurement. Power recording and the load test run as
	// independent concurrent tasks; the power window extends past the load
	// deadline so in-flight requests stay covered.
	output.Logger.Info("STEP 3: Active measurement",
		"duration", cfg.ActiveDuration, "concurrency", cfg.Concurrency)

	var (
		wg       sync.WaitGroup
		powerErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, powerErr = recordPower(ctx, cfg.DeviceIndex, cfg.ActiveDuration+cfg.PowerBuffer,
			cfg.SampleInterval, filepath.Join(outDir, "active.csv"))
	}()

	// Let power logging settle before the load starts.
	time.Sleep(2 * time.Second)

	activeCfg := *cfg
	activeCfg.Duration = cfg.ActiveDuration
	loadErr := runPhaseLoad(ctx, &activeCfg, filepath.Join(outDir, "requests.csv"))

	output.Logger.Info("Load test complete. Waiting for power recording to finish...")
	wg.Wait()

	if loadErr != nil {
		return fmt.Errorf("active load: %w", loadErr)
	}
	if powerErr != nil {
		return fmt.Errorf("active power recording: %w", powerErr)
	}

	// Step 4: analysis.
	output.Logger.Info("STEP 4: Analysis")

	opts := analysis.Options{}
	if cmd.Flags().Changed("model-size-gb") {
		v := msModelSizeGB * 1e9
		opts.ModelSizeBytes = &v
	}
	if cmd.Flags().Changed("gpu-memory-bw-gbs") {
		v := msMemBWGBs * 1e9
		opts.GPUMemoryBWBytesPerS = &v
	}
	if cmd.Flags().Changed("flops") {
		v := msFLOPs
		opts.FLOPsMeasured = &v
	}

	metrics, err := analysis.Analyze(
		filepath.Join(outDir, "active.csv"),
		filepath.Join(outDir, "requests.csv"),
		idlePowerW, opts)
	if err != nil {
		return err
	}
	metrics.RunID = uuid.NewString()

	summaryPath := filepath.Join(outDir, "summary.json")
	if err := output.WriteSummary(summaryPath, metrics); err != nil {
		return err
	}

	printReport(metrics)
	output.Logger.Info("Measurement complete", "run_id", metrics.RunID, "results", outDir)
	return nil
}

// recordPower acquires the device for the duration of one recording phase
// and releases it on every exit path.
func recordPower(ctx context.Context, deviceIndex int, duration, interval time.Duration, path string) ([]model.PowerSample, error) {
	dev, err := power.Open(deviceIndex)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	sink, err := output.NewPowerLogWriter(path)
	if err != nil {
		return nil, err
	}
	defer sink.Close()

	return power.NewRecorder(dev, interval).Record(ctx, duration, sink)
}

// runPhaseLoad runs one load phase with synthetic or configured prompts.
func runPhaseLoad(ctx context.Context, cfg *config.Config, path string) error {
	var (
		source engine.PromptSource
		err    error
	)
	if len(cfg.Prompts) > 0 {
		source, err = engine.NewFixedSource(cfg.Prompts)
	} else {
		source, err = engine.NewSyntheticSource(cfg.PromptMeanTokens, cfg.PromptStddevTokens, cfg.PromptVocabSize)
	}
	if err != nil {
		return err
	}

	sink, err := output.NewRequestLogWriter(path)
	if err != nil {
		return err
	}
	defer sink.Close()

	return engine.RunLoadTest(ctx, cfg, source, sink)
}

// waitForOperator pauses the workflow until the operator confirms the
// endpoint state for the next phase. --yes skips the pauses.
func waitForOperator(prompt string) error {
	if msYes {
		return nil
	}
	fmt.Println(prompt)
	_, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return err
}

var unsafePathChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// sanitizeModelName converts a model name to a filesystem-safe string.
func sanitizeModelName(name string) string {
	return strings.Trim(unsafePathChars.ReplaceAllString(name, "_"), "._")
}

func init() {
	rootCmd.AddCommand(measureCmd)

	measureCmd.Flags().StringVar(&msEndpoint, "endpoint", "", "Inference endpoint URL")
	measureCmd.Flags().StringVar(&msModel, "model", "", "Model name")
	measureCmd.Flags().IntVar(&msDeviceIndex, "gpu", 0, "GPU device index")
	measureCmd.Flags().DurationVar(&msIdleDur, "idle-duration", 5*time.Minute, "Idle baseline duration")
	measureCmd.Flags().DurationVar(&msWarmupDur, "warmup-duration", 3*time.Minute, "Warmup duration")
	measureCmd.Flags().DurationVar(&msActiveDur, "duration", 10*time.Minute, "Active measurement duration")
	measureCmd.Flags().IntVar(&msConcurrency, "concurrency", 8, "Number of concurrent workers")
	measureCmd.Flags().StringVarP(&msOutputDir, "output-dir", "o", "", "Output directory (default results/<model>_<timestamp>)")
	measureCmd.Flags().BoolVar(&msSkipIdle, "skip-idle", false, "Skip idle measurement (requires --idle-power)")
	measureCmd.Flags().Float64Var(&msIdlePower, "idle-power", 0, "Manually specified idle power in W")
	measureCmd.Flags().Float64Var(&msModelSizeGB, "model-size-gb", 0, "Model size in GB (for D4)")
	measureCmd.Flags().Float64Var(&msMemBWGBs, "gpu-memory-bw-gbs", 0, "Theoretical GPU memory bandwidth in GB/s (for D4)")
	measureCmd.Flags().Float64Var(&msFLOPs, "flops", 0, "Measured FLOPs from profiler (for M10/D3)")
	measureCmd.Flags().BoolVarP(&msYes, "yes", "y", false, "Skip interactive confirmations between phases")

	_ = measureCmd.MarkFlagRequired("endpoint")
	_ = measureCmd.MarkFlagRequired("model")
}
