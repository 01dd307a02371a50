/*
PURPOSE:
  Defines the root Cobra command for the inference-energy CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface with load-test, log-power, analyze, and
    measure subcommands.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/inference-energy/main.go
  - Calls: Child commands (load-test, log-power, analyze, measure)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

RELATED FILES:
  - cmd/inference-energy/main.go

MAINTENANCE:
  - Update when adding new global configuration options.
*/

package cli

import (
	"github.com/spf13/cobra"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "inference-energy",
		Short: "Energy measurement tools for model-serving endpoints",
		Long: `Measures the energy cost of serving inference requests: drives a timed
concurrent load against a vLLM OpenAI-compatible endpoint, samples GPU power
via NVML, and reconciles the two time series into energy and efficiency
metrics (M1-M10, D1-D4).`,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./inference_energy.yaml)")
}
