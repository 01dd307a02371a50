package cli

import (
	"fmt"

	"github.com/chuyishang/inference-energy/internal/model"
)

const reportRule = "============================================================"

// printReport renders the metric set the same way the summary JSON lays it
// out: primary measurements, derived metrics, then context.
func printReport(m model.ComprehensiveMetrics) {
	fmt.Println()
	fmt.Println(reportRule)
	fmt.Println("PRIMARY MEASUREMENTS (M1-M10)")
	fmt.Println(reportRule)
	fmt.Printf("M1  Total energy:              %.2f J (%.6f kWh)\n", m.TotalEnergyJ, m.TotalEnergyJ/3600000)
	fmt.Printf("M2  Total tokens:              %d\n", m.TotalTokens)
	fmt.Printf("M3  Total time:                %.2f s (%.2f min)\n", m.TotalTimeS, m.TotalTimeS/60)
	fmt.Printf("M4  Avg prefill time:          %.4f s (estimated)\n", m.AvgPrefillTimeS)
	fmt.Printf("M5  Avg decode time/token:     %.4f s (estimated)\n", m.AvgDecodeTimePerTokS)
	fmt.Printf("M6  Average power:             %.2f W\n", m.AvgPowerW)
	fmt.Printf("M7  Peak power:                %.2f W\n", m.PeakPowerW)
	fmt.Printf("M8  Avg GPU utilization:       %.1f%%\n", m.AvgGPUUtilPercent)
	fmt.Printf("M9  Avg memory utilization:    %.1f%%\n", m.AvgMemUtilPercent)
	if m.FLOPsMeasured != nil {
		fmt.Printf("M10 FLOPs measured:            %.2e\n", *m.FLOPsMeasured)
	} else {
		fmt.Printf("M10 FLOPs measured:            N/A\n")
	}

	fmt.Println()
	fmt.Println(reportRule)
	fmt.Println("DERIVED METRICS (D1-D4)")
	fmt.Println(reportRule)
	fmt.Printf("D1  Energy per token:          %.4f J/token (%.2f J/1K tokens)\n", m.EnergyPerTokenJ, m.EnergyPerTokenJ*1000)
	fmt.Printf("D2  Throughput:                %.2f tokens/s\n", m.ThroughputTokensPerS)
	if m.PowerEfficiencyFLOPsW != nil {
		fmt.Printf("D3  Power efficiency:          %.2e FLOPs/W\n", *m.PowerEfficiencyFLOPsW)
	} else {
		fmt.Printf("D3  Power efficiency:          N/A (need --flops)\n")
	}
	if m.MemBandwidthUtilPct != nil {
		fmt.Printf("D4  Memory bandwidth util:     %.1f%%\n", *m.MemBandwidthUtilPct)
	} else {
		fmt.Printf("D4  Memory bandwidth util:     N/A (need --model-size-gb and --gpu-memory-bw-gbs)\n")
	}

	fmt.Println()
	fmt.Println(reportRule)
	fmt.Println("ADDITIONAL CONTEXT")
	fmt.Println(reportRule)
	fmt.Printf("Idle power:                    %.2f W\n", m.IdlePowerW)
	fmt.Printf("Active energy:                 %.2f J (%.6f kWh)\n", m.ActiveEnergyJ, m.ActiveEnergyJ/3600000)
	fmt.Printf("Total requests:                %d\n", m.TotalRequests)
	fmt.Printf("Successful requests:           %d\n", m.SuccessfulRequests)
	fmt.Printf("Average latency:               %.3f s\n", m.AvgLatencyS)
	fmt.Printf("GPU memory total:              %.2f GB\n", m.MemTotalGB)
	fmt.Println(reportRule)
}
