/*
PURPOSE:
  Defines the 'log-power' subcommand.
  Records NVML power/utilization samples at a fixed interval to CSV.

REQUIREMENTS:
  User-specified:
  - Flags for duration, sampling interval, device index, output path.

  Implementation-discovered:
  - The device handle is a scoped acquisition: released on every exit
    path, including sampling failures mid-run.

ARCHITECTURE INTEGRATION:
  - Calls: internal/power
  - Uses: internal/output

ERROR HANDLING:
  - NVML init / device resolution failures are fatal; exit 1 via main.

IMPLEMENTATION RULES:
  - The recorder runs independently of any load test; correlation happens
    later via timestamps.

USAGE:
  inference-energy log-power --duration 5m --interval 100ms --device-index 0 --output idle.csv

RELATED FILES:
  - internal/power/device.go
  - internal/power/recorder.go

MAINTENANCE:
  - None specific.
*/

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chuyishang/inference-energy/internal/output"
	"github.com/chuyishang/inference-energy/internal/power"
)

var (
	lpDuration    time.Duration
	lpInterval    time.Duration
	lpDeviceIndex int
	lpOutput      string
)

var logPowerCmd = &cobra.Command{
	Use:   "log-power",
	Short: "Record GPU power via NVML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if lpDuration <= 0 {
			return fmt.Errorf("duration must be positive, got %s", lpDuration)
		}
		if lpInterval <= 0 {
			return fmt.Errorf("interval must be positive, got %s", lpInterval)
		}

		dev, err := power.Open(lpDeviceIndex)
		if err != nil {
			return err
		}
		defer dev.Close()

		if dir := filepath.Dir(lpOutput); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory %s: %w", dir, err)
			}
		}
		sink, err := output.NewPowerLogWriter(lpOutput)
		if err != nil {
			return fmt.Errorf("failed to init power log at %s: %w", lpOutput, err)
		}
		defer sink.Close()

		output.Logger.Info("Recording power",
			"device", lpDeviceIndex,
			"duration", lpDuration,
			"interval", lpInterval,
			"output", lpOutput,
		)

		samples, err := power.NewRecorder(dev, lpInterval).Record(cmd.Context(), lpDuration, sink)
		if err != nil {
			return err
		}
		output.Logger.Info("Power recording complete", "samples", len(samples))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logPowerCmd)

	logPowerCmd.Flags().DurationVar(&lpDuration, "duration", 0, "Recording duration")
	logPowerCmd.Flags().DurationVar(&lpInterval, "interval", 100*time.Millisecond, "Sampling interval")
	logPowerCmd.Flags().IntVar(&lpDeviceIndex, "device-index", 0, "GPU index to log")
	logPowerCmd.Flags().StringVarP(&lpOutput, "output", "o", "power.csv", "CSV output path")

	_ = logPowerCmd.MarkFlagRequired("duration")
}
