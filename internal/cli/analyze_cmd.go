/*
PURPOSE:
  Defines the 'analyze' subcommand.
  Reconciles a power log and a request log into the full metric set.

REQUIREMENTS:
  User-specified:
  - Flags for the two logs, idle power baseline, and the optional
    external inputs (model size, memory bandwidth, measured FLOPs).

  Implementation-discovered:
  - Optional inputs map to nil Options fields unless their flag was set;
    absent metrics print as N/A and serialize as null.

ARCHITECTURE INTEGRATION:
  - Calls: internal/analysis.Analyze()
  - Uses: internal/output

ERROR HANDLING:
  - Input errors (missing logs, < 2 samples, empty request log) are fatal
    to this invocation; exit 1 via main.

IMPLEMENTATION RULES:
  - Keep unit conversions (GB, GB/s) at this boundary; analysis works in
    bytes and bytes/s.

USAGE:
  inference-energy analyze --power-log active.csv --requests-log requests.csv --idle-power 52.3

RELATED FILES:
  - internal/analysis/load.go
  - internal/analysis/metrics.go

MAINTENANCE:
  - Update when new optional inputs are added.
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/chuyishang/inference-energy/internal/analysis"
	"github.com/chuyishang/inference-energy/internal/output"
)

var (
	anPowerLog        string
	anRequestsLog     string
	anIdlePower       float64
	anModelSizeGB     float64
	anMemBWGBs        float64
	anFLOPs           float64
	anPrefillFraction float64
	anOutput          string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute energy and efficiency metrics from recorded logs",
	Long: `Integrates the power log (trapezoidal rule), aggregates the request log,
and derives the full M1-M10 / D1-D4 metric set. D3 requires --flops; D4
requires --model-size-gb and --gpu-memory-bw-gbs. Metrics whose inputs were
not supplied are reported as N/A, not zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := analysis.Options{PrefillFraction: anPrefillFraction}
		if cmd.Flags().Changed("model-size-gb") {
			v := anModelSizeGB * 1e9
			opts.ModelSizeBytes = &v
		}
		if cmd.Flags().Changed("gpu-memory-bw-gbs") {
			v := anMemBWGBs * 1e9
			opts.GPUMemoryBWBytesPerS = &v
		}
		if cmd.Flags().Changed("flops") {
			v := anFLOPs
			opts.FLOPsMeasured = &v
		}

		metrics, err := analysis.Analyze(anPowerLog, anRequestsLog, anIdlePower, opts)
		if err != nil {
			return err
		}

		printReport(metrics)

		if anOutput != "" {
			if err := output.WriteSummary(anOutput, metrics); err != nil {
				return err
			}
			output.Logger.Info("Summary written", "path", anOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&anPowerLog, "power-log", "", "Path to power CSV log")
	analyzeCmd.Flags().StringVar(&anRequestsLog, "requests-log", "", "Path to requests CSV log")
	analyzeCmd.Flags().Float64Var(&anIdlePower, "idle-power", 0, "Idle baseline power in Watts")
	analyzeCmd.Flags().Float64Var(&anModelSizeGB, "model-size-gb", 0, "Model size in GB (for D4)")
	analyzeCmd.Flags().Float64Var(&anMemBWGBs, "gpu-memory-bw-gbs", 0, "Theoretical GPU memory bandwidth in GB/s (for D4)")
	analyzeCmd.Flags().Float64Var(&anFLOPs, "flops", 0, "Measured FLOPs from profiler (for M10/D3)")
	analyzeCmd.Flags().Float64Var(&anPrefillFraction, "prefill-fraction", 0, "Assumed prefill share of latency (default 0.2)")
	analyzeCmd.Flags().StringVarP(&anOutput, "output", "o", "", "Write summary JSON to this path")

	_ = analyzeCmd.MarkFlagRequired("power-log")
	_ = analyzeCmd.MarkFlagRequired("requests-log")
}
