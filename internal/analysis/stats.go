package analysis

import (
	"fmt"

	"github.com/chuyishang/inference-energy/internal/model"
)

// AggregatePower computes order-independent statistics over a power sample
// series.
func AggregatePower(samples []model.PowerSample) (model.PowerStats, error) {
	if len(samples) == 0 {
		return model.PowerStats{}, fmt.Errorf("power log is empty")
	}

	var (
		sumPower, peak float64
		sumUtil        float64
		sumMemUsed     float64
		memTotal       model.Bytes
	)
	for _, s := range samples {
		sumPower += s.PowerW
		if s.PowerW > peak {
			peak = s.PowerW
		}
		sumUtil += s.GPUUtilPercent
		sumMemUsed += float64(s.MemUsedBytes)
		if memTotal == 0 {
			memTotal = s.MemTotalBytes
		}
	}

	n := float64(len(samples))
	stats := model.PowerStats{
		AvgPowerW:         sumPower / n,
		PeakPowerW:        peak,
		AvgGPUUtilPercent: sumUtil / n,
		MemTotalBytes:     memTotal,
	}
	if memTotal > 0 {
		stats.AvgMemUtilPercent = 100.0 * (sumMemUsed / n) / float64(memTotal)
	}
	return stats, nil
}

// AggregateRequests computes order-independent statistics over a request
// log. Latency and token aggregates cover successful requests only; the
// timestamp span covers every issued request.
func AggregateRequests(outcomes []model.RequestOutcome) (model.RequestStats, error) {
	if len(outcomes) == 0 {
		return model.RequestStats{}, fmt.Errorf("request log is empty")
	}

	stats := model.RequestStats{
		TotalRequests:  len(outcomes),
		FirstTimestamp: outcomes[0].Timestamp,
		LastTimestamp:  outcomes[0].Timestamp,
	}

	var sumLatency float64
	for _, r := range outcomes {
		if r.Timestamp.Before(stats.FirstTimestamp) {
			stats.FirstTimestamp = r.Timestamp
		}
		if r.Timestamp.After(stats.LastTimestamp) {
			stats.LastTimestamp = r.Timestamp
		}
		if !r.Success() {
			continue
		}
		stats.SuccessfulRequests++
		stats.TotalPromptTokens += r.PromptTokens
		stats.TotalCompletionTokens += r.CompletionTokens
		sumLatency += r.Latency.Seconds()
	}

	if stats.SuccessfulRequests > 0 {
		stats.AvgLatencyS = sumLatency / float64(stats.SuccessfulRequests)
	}
	return stats, nil
}
