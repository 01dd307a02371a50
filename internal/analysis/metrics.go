/*
PURPOSE:
  Metric derivation engine: pure computation of the M1-M10 primary
  measurements and D1-D4 derived metrics from power stats, request stats,
  and integrated energy.

REQUIREMENTS:
  User-specified:
  - Full metric set including optional D3/D4/M10 that require external
    inputs (measured FLOPs, model size, theoretical memory bandwidth).
  - Prefill/decode timing is a documented coarse approximation, not an
    exact per-phase model.

  Implementation-discovered:
  - Every degenerate state (zero tokens, zero span, no successes) maps to
    zero or an absent optional; no division by zero anywhere.
  - The prefill fraction is a heuristic with no empirical justification
    upstream; it stays a named, overridable constant.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/analysis/energy.go, internal/analysis/stats.go

ERROR HANDLING:
  - None: Derive is total over its inputs. Input errors are caught
    earlier by the loaders/aggregators.

IMPLEMENTATION RULES:
  - Pure function, no I/O, single immutable result.
  - Absent optionals are nil pointers, never sentinel numbers.

USAGE:
  m := analysis.Derive(powerStats, reqStats, energy, analysis.Options{})

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Revisit the prefill fraction if the endpoint ever exposes real
    per-phase timings.
*/

package analysis

import (
	"github.com/chuyishang/inference-energy/internal/model"
)

// DefaultPrefillFraction is the assumed share of per-request latency spent
// in prefill. Heuristic: typical workloads spend roughly 10-30% of latency
// on prompt processing; the endpoint does not expose the real split.
const DefaultPrefillFraction = 0.20

// Options carries the optional external inputs for the derived metrics.
// Nil means "not supplied", which propagates to an absent metric rather
// than an error.
type Options struct {
	// ModelSizeBytes and GPUMemoryBWBytesPerS enable D4.
	ModelSizeBytes       *float64
	GPUMemoryBWBytesPerS *float64
	// FLOPsMeasured enables M10 and D3.
	FLOPsMeasured *float64
	// PrefillFraction overrides DefaultPrefillFraction when positive.
	PrefillFraction float64
}

func (o Options) prefillFraction() float64 {
	if o.PrefillFraction > 0 {
		return o.PrefillFraction
	}
	return DefaultPrefillFraction
}

// Derive computes the complete metric set. It is pure: no I/O, and the
// result is never mutated afterward.
func Derive(power model.PowerStats, req model.RequestStats, energy model.EnergyBreakdown, opts Options) model.ComprehensiveMetrics {
	m := model.ComprehensiveMetrics{
		TotalEnergyJ:      energy.TotalEnergyJ,
		TotalTokens:       req.TotalCompletionTokens,
		TotalTimeS:        energy.DurationS,
		AvgPowerW:         power.AvgPowerW,
		PeakPowerW:        power.PeakPowerW,
		AvgGPUUtilPercent: power.AvgGPUUtilPercent,
		AvgMemUtilPercent: power.AvgMemUtilPercent,
		FLOPsMeasured:     opts.FLOPsMeasured,

		IdlePowerW:         energy.IdlePowerW,
		ActiveEnergyJ:      energy.ActiveEnergyJ,
		TotalRequests:      req.TotalRequests,
		SuccessfulRequests: req.SuccessfulRequests,
		AvgLatencyS:        req.AvgLatencyS,
		MemTotalGB:         power.MemTotalBytes.GB(),
	}

	// M4/M5: coarse prefill/decode split from mean latency. Both zero when
	// there are no successful requests or no completion tokens.
	var avgCompletionTokens float64
	if req.SuccessfulRequests > 0 {
		avgCompletionTokens = float64(req.TotalCompletionTokens) / float64(req.SuccessfulRequests)
	}
	if req.AvgLatencyS > 0 {
		m.AvgPrefillTimeS = req.AvgLatencyS * opts.prefillFraction()
	}
	if avgCompletionTokens > 0 {
		m.AvgDecodeTimePerTokS = (req.AvgLatencyS - m.AvgPrefillTimeS) / avgCompletionTokens
	}

	// D1/D2: zero when the denominator is degenerate.
	if m.TotalTokens > 0 {
		m.EnergyPerTokenJ = m.TotalEnergyJ / float64(m.TotalTokens)
	}
	if m.TotalTimeS > 0 {
		m.ThroughputTokensPerS = float64(m.TotalTokens) / m.TotalTimeS
	}

	// D3: present only with a FLOPs measurement and positive mean power.
	if opts.FLOPsMeasured != nil && m.AvgPowerW > 0 {
		d3 := *opts.FLOPsMeasured / m.AvgPowerW
		m.PowerEfficiencyFLOPsW = &d3
	}

	// D4: each generated token streams the full model through memory once,
	// so required bandwidth is model_size / decode_time_per_token.
	if opts.ModelSizeBytes != nil && *opts.ModelSizeBytes > 0 &&
		opts.GPUMemoryBWBytesPerS != nil && *opts.GPUMemoryBWBytesPerS > 0 &&
		m.AvgDecodeTimePerTokS > 0 {
		required := *opts.ModelSizeBytes / m.AvgDecodeTimePerTokS
		d4 := 100.0 * required / *opts.GPUMemoryBWBytesPerS
		m.MemBandwidthUtilPct = &d4
	}

	return m
}
