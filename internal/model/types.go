/*
PURPOSE:
  Defines the core data structures used throughout inference-energy.
  These models represent request outcomes, power samples, and the
  measured/derived metric set.

REQUIREMENTS:
  User-specified:
  - Record per-request timing, token counts, status, error.
  - Record per-tick power/utilization/memory samples.
  - Expose the full M1-M10 / D1-D4 metric set.

  Implementation-discovered:
  - Optional metrics (M10, D3, D4) must serialize as JSON null when the
    preconditions are unmet, never as a sentinel number. Pointers do this.
  - Summary JSON keys must match the legacy column names exactly.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/power, internal/analysis, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Records are handed by value between stages; nothing mutates a record
    after it has been produced.

USAGE:
  out := model.RequestOutcome{...}

RELATED FILES:
  - internal/output/csv.go
  - internal/analysis/metrics.go

MAINTENANCE:
  - Update CSV/JSON writers when adding fields here.
*/

package model

import (
	"time"
)

// RequestOutcome is the result of one issued inference request.
//
// Exactly one outcome exists per issued request. StatusCode 0 means a
// transport-level failure (timeout, connection error, malformed response);
// any other value is the HTTP status of the response. A non-200 status
// implies zero token counts and a populated Error.
type RequestOutcome struct {
	Timestamp        time.Time     `json:"timestamp"`
	Latency          time.Duration `json:"latency"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	StatusCode       int           `json:"status_code"`
	Error            string        `json:"error,omitempty"`
}

// Success reports whether the request completed with HTTP 200.
func (r RequestOutcome) Success() bool {
	return r.StatusCode == 200
}

// PowerSample is a single timestamped device reading.
//
// MemTotalBytes is constant within one recording run. Samples are ordered
// by timestamp ascending once sorted; the source may deliver them out of
// order.
type PowerSample struct {
	Timestamp      time.Time `json:"timestamp"`
	PowerW         float64   `json:"power_w"`
	GPUUtilPercent float64   `json:"gpu_util_percent"`
	MemUsedBytes   Bytes     `json:"mem_used_bytes"`
	MemTotalBytes  Bytes     `json:"mem_total_bytes"`
}

// EnergyBreakdown is the integrated energy for one power recording.
type EnergyBreakdown struct {
	TotalEnergyJ  float64 `json:"total_energy_J"`
	ActiveEnergyJ float64 `json:"active_energy_J"`
	DurationS     float64 `json:"duration_s"`
	IdlePowerW    float64 `json:"idle_power_W"`
}

// PowerStats are order-independent aggregates over a power sample series.
type PowerStats struct {
	AvgPowerW         float64
	PeakPowerW        float64
	AvgGPUUtilPercent float64
	AvgMemUtilPercent float64
	MemTotalBytes     Bytes
}

// RequestStats are order-independent aggregates over a request log.
// Latency and token aggregates cover successful requests only; the
// timestamp span covers every issued request.
type RequestStats struct {
	TotalRequests         int
	SuccessfulRequests    int
	TotalPromptTokens     int
	TotalCompletionTokens int
	AvgLatencyS           float64
	FirstTimestamp        time.Time
	LastTimestamp         time.Time
}

// TokenAttribution allocates active energy to requests proportional to
// their completion token counts.
type TokenAttribution struct {
	TotalCompletionTokens int       `json:"total_completion_tokens"`
	EnergyPerTokenJ       float64   `json:"energy_per_completion_token_J"`
	EnergyPerRequestJ     []float64 `json:"energy_per_request_J"`
}

// ComprehensiveMetrics is the full measured and derived metric set for one
// analysis run. Pointer fields are optional: nil means the required external
// input or precondition was not supplied, which is a first-class state and
// serializes as JSON null.
type ComprehensiveMetrics struct {
	RunID string `json:"run_id,omitempty"`

	// Primary measurements (M1-M10)
	TotalEnergyJ         float64  `json:"M1_total_energy_J"`
	TotalTokens          int      `json:"M2_total_tokens"`
	TotalTimeS           float64  `json:"M3_total_time_s"`
	AvgPrefillTimeS      float64  `json:"M4_avg_prefill_time_s"`
	AvgDecodeTimePerTokS float64  `json:"M5_avg_decode_time_per_token_s"`
	AvgPowerW            float64  `json:"M6_avg_power_W"`
	PeakPowerW           float64  `json:"M7_peak_power_W"`
	AvgGPUUtilPercent    float64  `json:"M8_avg_gpu_util_percent"`
	AvgMemUtilPercent    float64  `json:"M9_avg_mem_util_percent"`
	FLOPsMeasured        *float64 `json:"M10_flops_measured"`

	// Derived metrics (D1-D4)
	EnergyPerTokenJ       float64  `json:"D1_energy_per_token_J"`
	ThroughputTokensPerS  float64  `json:"D2_throughput_tokens_per_s"`
	PowerEfficiencyFLOPsW *float64 `json:"D3_power_efficiency_flops_per_W"`
	MemBandwidthUtilPct   *float64 `json:"D4_memory_bandwidth_util_percent"`

	// Additional context
	IdlePowerW         float64 `json:"idle_power_W"`
	ActiveEnergyJ      float64 `json:"active_energy_J"`
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	AvgLatencyS        float64 `json:"avg_latency_s"`
	MemTotalGB         float64 `json:"mem_total_GB"`
}
