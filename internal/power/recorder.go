/*
PURPOSE:
  Periodic power sample recorder: polls a Sampler at a fixed cadence for a
  fixed duration and appends each reading to a sink.

REQUIREMENTS:
  User-specified:
  - Fixed polling interval, fixed recording duration.
  - Samples stream to disk as they are captured.

  Implementation-discovered:
  - Runs as a fully independent process/goroutine from the load test;
    correlation happens after the fact via timestamps.
  - Individual failed readings are logged and skipped; the recording
    continues.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/power/device.go, internal/output

ERROR HANDLING:
  - Sink write errors abort the recording (the log is the whole product).
  - Context cancellation stops the recording early without error.

IMPLEMENTATION RULES:
  - One reading per tick; no catch-up bursts.

USAGE:
  rec := power.NewRecorder(dev, 100*time.Millisecond)
  samples, err := rec.Record(ctx, duration, sink)

RELATED FILES:
  - internal/power/device.go
  - internal/output/csv.go

MAINTENANCE:
  - None specific.
*/

package power

import (
	"context"
	"time"

	"github.com/chuyishang/inference-energy/internal/model"
	"github.com/chuyishang/inference-energy/internal/output"
)

// SampleSink receives each captured sample.
type SampleSink interface {
	Write(model.PowerSample) error
}

// Recorder polls a Sampler at a fixed interval.
type Recorder struct {
	sampler  Sampler
	interval time.Duration
}

// NewRecorder creates a Recorder.
func NewRecorder(s Sampler, interval time.Duration) *Recorder {
	return &Recorder{sampler: s, interval: interval}
}

// Record polls for the given duration, writing each sample to the sink.
// It returns the captured samples. Cancelling the context ends the
// recording early with whatever was captured so far.
func (r *Recorder) Record(ctx context.Context, duration time.Duration, sink SampleSink) ([]model.PowerSample, error) {
	var samples []model.PowerSample

	end := time.Now().Add(duration)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for time.Now().Before(end) {
		select {
		case <-ctx.Done():
			return samples, nil
		case <-ticker.C:
			sample, err := r.sampler.Sample()
			if err != nil {
				output.Logger.Warn("Power sample failed", "error", err)
				continue
			}
			if err := sink.Write(sample); err != nil {
				return samples, err
			}
			samples = append(samples, sample)
		}
	}

	return samples, nil
}
