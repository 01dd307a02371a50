/*
PURPOSE:
  CSV log loaders: parse the request and power logs produced by a
  measurement run back into model records, plus the one-call Analyze
  entry point used by the CLI.

REQUIREMENTS:
  User-specified:
  - Consume the exact column layouts written by internal/output.

  Implementation-discovered:
  - Columns are resolved by header name, not position, so logs survive
    column reordering.
  - A malformed row fails the load; partial analyses over silently
    dropped rows would be worse than an error.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/analysis (aggregation, integration, derivation)

ERROR HANDLING:
  - Missing files, missing columns, and unparsable values are input
    errors, fatal to the analysis invocation only.

IMPLEMENTATION RULES:
  - Keep Derive itself pure; all file I/O lives here.

USAGE:
  metrics, err := analysis.Analyze("active.csv", "requests.csv", idleW, opts)

RELATED FILES:
  - internal/output/csv.go

MAINTENANCE:
  - Update column names together with the writers.
*/

package analysis

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/chuyishang/inference-energy/internal/model"
)

// LoadPowerLog reads a power log CSV into samples.
func LoadPowerLog(path string) ([]model.PowerSample, error) {
	rows, cols, err := readCSV(path, "timestamp_s", "power_W", "gpu_util_percent", "mem_used_bytes", "mem_total_bytes")
	if err != nil {
		return nil, err
	}

	samples := make([]model.PowerSample, 0, len(rows))
	for i, row := range rows {
		ts, err1 := strconv.ParseFloat(row[cols["timestamp_s"]], 64)
		pw, err2 := strconv.ParseFloat(row[cols["power_W"]], 64)
		util, err3 := strconv.ParseFloat(row[cols["gpu_util_percent"]], 64)
		used, err4 := strconv.ParseUint(row[cols["mem_used_bytes"]], 10, 64)
		total, err5 := strconv.ParseUint(row[cols["mem_total_bytes"]], 10, 64)
		for _, err := range []error{err1, err2, err3, err4, err5} {
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
			}
		}
		samples = append(samples, model.PowerSample{
			Timestamp:      unixTime(ts),
			PowerW:         pw,
			GPUUtilPercent: util,
			MemUsedBytes:   model.Bytes(used),
			MemTotalBytes:  model.Bytes(total),
		})
	}
	return samples, nil
}

// LoadRequestLog reads a request log CSV into outcomes.
func LoadRequestLog(path string) ([]model.RequestOutcome, error) {
	rows, cols, err := readCSV(path, "timestamp_s", "latency_s", "prompt_tokens", "completion_tokens", "status_code", "error")
	if err != nil {
		return nil, err
	}

	outcomes := make([]model.RequestOutcome, 0, len(rows))
	for i, row := range rows {
		ts, err1 := strconv.ParseFloat(row[cols["timestamp_s"]], 64)
		lat, err2 := strconv.ParseFloat(row[cols["latency_s"]], 64)
		pt, err3 := strconv.Atoi(row[cols["prompt_tokens"]])
		ct, err4 := strconv.Atoi(row[cols["completion_tokens"]])
		status, err5 := strconv.Atoi(row[cols["status_code"]])
		for _, err := range []error{err1, err2, err3, err4, err5} {
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
			}
		}
		outcomes = append(outcomes, model.RequestOutcome{
			Timestamp:        unixTime(ts),
			Latency:          time.Duration(lat * float64(time.Second)),
			PromptTokens:     pt,
			CompletionTokens: ct,
			StatusCode:       status,
			Error:            row[cols["error"]],
		})
	}
	return outcomes, nil
}

// Analyze loads both logs and computes the full metric set.
func Analyze(powerLog, requestsLog string, idlePowerW float64, opts Options) (model.ComprehensiveMetrics, error) {
	samples, err := LoadPowerLog(powerLog)
	if err != nil {
		return model.ComprehensiveMetrics{}, err
	}
	outcomes, err := LoadRequestLog(requestsLog)
	if err != nil {
		return model.ComprehensiveMetrics{}, err
	}

	energy, err := IntegrateEnergy(samples, idlePowerW)
	if err != nil {
		return model.ComprehensiveMetrics{}, err
	}
	powerStats, err := AggregatePower(samples)
	if err != nil {
		return model.ComprehensiveMetrics{}, err
	}
	reqStats, err := AggregateRequests(outcomes)
	if err != nil {
		return model.ComprehensiveMetrics{}, err
	}

	return Derive(powerStats, reqStats, energy, opts), nil
}

// readCSV reads all data rows and resolves the required columns by header
// name.
func readCSV(path string, required ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: missing header row", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}
	return records[1:], cols, nil
}

// unixTime converts fractional unix seconds to time.Time.
func unixTime(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(frac*1e9))
}
