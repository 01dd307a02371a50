/*
PURPOSE:
  Energy integrator: turns an ordered power sample series into total and
  active (idle-subtracted) energy via trapezoidal integration.

REQUIREMENTS:
  User-specified:
  - Trapezoidal rule over consecutive sample pairs.
  - Active energy = total - idle_power * duration, floored at zero.

  Implementation-discovered:
  - Samples may arrive out of order from the source; sort before
    integrating. Pairs with non-positive time delta contribute zero.
  - Fewer than two samples is an input error; integration is undefined
    with a single point.

ARCHITECTURE INTEGRATION:
  - Called by: internal/analysis/metrics.go, internal/cli
  - Uses: internal/model

ERROR HANDLING:
  - Input errors fail the analysis call only, surfaced to the caller.

IMPLEMENTATION RULES:
  - Pure: no I/O, input slice is not mutated.

USAGE:
  energy, err := analysis.IntegrateEnergy(samples, idlePowerW)

RELATED FILES:
  - internal/analysis/metrics.go

MAINTENANCE:
  - None specific.
*/

package analysis

import (
	"fmt"
	"sort"

	"github.com/chuyishang/inference-energy/internal/model"
)

// IntegrateEnergy computes total and active energy for a power recording.
// The input may be unsorted; it is copied and sorted by timestamp first.
func IntegrateEnergy(samples []model.PowerSample, idlePowerW float64) (model.EnergyBreakdown, error) {
	if len(samples) < 2 {
		return model.EnergyBreakdown{}, fmt.Errorf("need at least two power samples to integrate energy, got %d", len(samples))
	}

	sorted := make([]model.PowerSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var totalJ float64
	for i := 1; i < len(sorted); i++ {
		dt := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Seconds()
		if dt <= 0 {
			// Duplicate timestamps after sorting; tolerated, contributes nothing.
			continue
		}
		totalJ += 0.5 * (sorted[i-1].PowerW + sorted[i].PowerW) * dt
	}

	durationS := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp).Seconds()

	activeJ := totalJ - idlePowerW*durationS
	if activeJ < 0 {
		activeJ = 0
	}

	return model.EnergyBreakdown{
		TotalEnergyJ:  totalJ,
		ActiveEnergyJ: activeJ,
		DurationS:     durationS,
		IdlePowerW:    idlePowerW,
	}, nil
}
