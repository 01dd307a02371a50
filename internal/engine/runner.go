/*
PURPOSE:
  High-level runner that drives the timed, concurrent load test.
  N workers share one deadline and one outcome sink.

REQUIREMENTS:
  User-specified:
  - Exactly `concurrency` workers from start until start+duration.
  - Every issued request yields exactly one recorded outcome, including
    the one in flight when the deadline is crossed.

  Implementation-discovered:
  - The deadline check happens only between iterations; there is no
    mid-request abort. Total run time can exceed the duration by up to
    one request latency per worker.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/engine/client.go, internal/engine/prompts.go,
    internal/output

ERROR HANDLING:
  - Config validation errors abort before any worker starts.
  - Per-request failures are recorded in the sink, never surfaced here.
  - Sink write failures are logged and counted; the run continues.

IMPLEMENTATION RULES:
  - Workers are joined with a WaitGroup barrier, not fired and forgotten.
  - Workers share no mutable state beyond the sink and the deadline.

USAGE:
  err := engine.RunLoadTest(ctx, cfg, source, sink)

RELATED FILES:
  - internal/engine/client.go

MAINTENANCE:
  - Update if per-worker pacing (think time) is introduced.
*/

package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chuyishang/inference-energy/internal/config"
	"github.com/chuyishang/inference-energy/internal/model"
	"github.com/chuyishang/inference-energy/internal/output"
)

// OutcomeSink receives one record per issued request. Implementations must
// serialize concurrent writes.
type OutcomeSink interface {
	Write(model.RequestOutcome) error
}

// RunLoadTest runs the timed load test: `cfg.Concurrency` workers each loop
// sample-prompt / issue-request / record-outcome until the shared deadline
// passes. It returns once every worker has finished its in-flight request.
func RunLoadTest(ctx context.Context, cfg *config.Config, source PromptSource, sink OutcomeSink) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := NewClient(cfg)
	deadline := time.Now().Add(cfg.Duration)

	var issued, failed atomic.Int64
	var wg sync.WaitGroup

	output.Logger.Info("Starting load test",
		"endpoint", cfg.Endpoint,
		"model", cfg.Model,
		"duration", cfg.Duration,
		"concurrency", cfg.Concurrency,
	)

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for time.Now().Before(deadline) {
				out := client.Issue(ctx, source.Next())
				issued.Add(1)
				if !out.Success() {
					failed.Add(1)
				}
				if err := sink.Write(out); err != nil {
					output.Logger.Error("Failed to record outcome", "worker", worker, "error", err)
				}
			}
		}(i)
	}

	// Barrier: the run completes only when all in-flight requests have.
	wg.Wait()

	output.Logger.Info("Load test complete",
		"requests", issued.Load(),
		"failed", failed.Load(),
	)
	return nil
}
