/*
PURPOSE:
  Writes request outcomes and power samples to CSV files.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - One CSV record per issued request; one per power sample.
  - Keep file handle open for flushing (crash resilience).

  Implementation-discovered:
  - The request log is the only resource mutated by multiple workers
    concurrently; each append must be an atomic unit.
  - Column layout is a stable contract consumed by internal/analysis.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (request log), internal/power (power log)
  - Consumes: internal/model types

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Use Mutex around each record append; workers write concurrently.

USAGE:
  w, err := output.NewRequestLogWriter("requests.csv")
  w.Write(outcome)
  w.Close()

RELATED FILES:
  - internal/model/types.go
  - internal/analysis/load.go

MAINTENANCE:
  - Update Write() mapping when the record structs change.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/chuyishang/inference-energy/internal/model"
)

// RequestLogHeader is the column layout of the request log.
var RequestLogHeader = []string{
	"timestamp_s", "latency_s", "prompt_tokens", "completion_tokens", "status_code", "error",
}

// PowerLogHeader is the column layout of the power log.
var PowerLogHeader = []string{
	"timestamp_s", "power_W", "gpu_util_percent", "mem_used_bytes", "mem_total_bytes",
}

// RequestLogWriter appends request outcomes to a CSV file.
// It is safe for concurrent use by multiple workers.
type RequestLogWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewRequestLogWriter creates a new RequestLogWriter.
// It overwrites the file if it exists.
func NewRequestLogWriter(path string) (*RequestLogWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(RequestLogHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &RequestLogWriter{file: f, writer: w}, nil
}

// Write appends a single outcome. It is thread-safe; interleaved writes
// from concurrent workers never corrupt a record.
func (rw *RequestLogWriter) Write(r model.RequestOutcome) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	record := []string{
		formatUnix(r.Timestamp),
		fmt.Sprintf("%.6f", r.Latency.Seconds()),
		strconv.Itoa(r.PromptTokens),
		strconv.Itoa(r.CompletionTokens),
		strconv.Itoa(r.StatusCode),
		r.Error,
	}

	if err := rw.writer.Write(record); err != nil {
		return err
	}
	rw.writer.Flush()
	return rw.writer.Error()
}

// Close closes the underlying file.
func (rw *RequestLogWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.writer.Flush()
	return rw.file.Close()
}

// PowerLogWriter appends power samples to a CSV file. The power recorder is
// single-threaded, but the mutex keeps the writer safe if that changes.
type PowerLogWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewPowerLogWriter creates a new PowerLogWriter.
// It overwrites the file if it exists.
func NewPowerLogWriter(path string) (*PowerLogWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(PowerLogHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &PowerLogWriter{file: f, writer: w}, nil
}

// Write appends a single sample.
func (pw *PowerLogWriter) Write(s model.PowerSample) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	record := []string{
		formatUnix(s.Timestamp),
		fmt.Sprintf("%.3f", s.PowerW),
		fmt.Sprintf("%.1f", s.GPUUtilPercent),
		strconv.FormatUint(uint64(s.MemUsedBytes), 10),
		strconv.FormatUint(uint64(s.MemTotalBytes), 10),
	}

	if err := pw.writer.Write(record); err != nil {
		return err
	}
	pw.writer.Flush()
	return pw.writer.Error()
}

// Close closes the underlying file.
func (pw *PowerLogWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.writer.Flush()
	return pw.file.Close()
}

// formatUnix renders a timestamp as fractional unix seconds, the shared
// time base used to correlate the two logs after the fact.
func formatUnix(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}
