package analysis

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuyishang/inference-energy/internal/model"
	"github.com/chuyishang/inference-energy/internal/output"
)

func writeLogs(t *testing.T) (powerLog, requestsLog string) {
	t.Helper()
	dir := t.TempDir()
	powerLog = filepath.Join(dir, "active.csv")
	requestsLog = filepath.Join(dir, "requests.csv")

	base := time.Unix(1700000000, 0)

	pw, err := output.NewPowerLogWriter(powerLog)
	require.NoError(t, err)
	for i, watts := range []float64{100, 200, 200, 100} {
		require.NoError(t, pw.Write(model.PowerSample{
			Timestamp:      base.Add(time.Duration(i) * time.Second),
			PowerW:         watts,
			GPUUtilPercent: 75,
			MemUsedBytes:   8 << 30,
			MemTotalBytes:  16 << 30,
		}))
	}
	require.NoError(t, pw.Close())

	rw, err := output.NewRequestLogWriter(requestsLog)
	require.NoError(t, err)
	outcomes := []model.RequestOutcome{
		{Timestamp: base, Latency: 1500 * time.Millisecond, PromptTokens: 12, CompletionTokens: 40, StatusCode: 200},
		{Timestamp: base.Add(time.Second), Latency: 2500 * time.Millisecond, PromptTokens: 20, CompletionTokens: 60, StatusCode: 200},
		{Timestamp: base.Add(2 * time.Second), Latency: time.Second, StatusCode: 500, Error: "model overloaded"},
	}
	for _, o := range outcomes {
		require.NoError(t, rw.Write(o))
	}
	require.NoError(t, rw.Close())

	return powerLog, requestsLog
}

func TestLoadPowerLog_RoundTrip(t *testing.T) {
	powerLog, _ := writeLogs(t)

	samples, err := LoadPowerLog(powerLog)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, 100.0, samples[0].PowerW)
	assert.Equal(t, model.Bytes(16<<30), samples[0].MemTotalBytes)
	assert.InDelta(t, 1.0, samples[1].Timestamp.Sub(samples[0].Timestamp).Seconds(), 1e-6)
}

func TestLoadRequestLog_RoundTrip(t *testing.T) {
	_, requestsLog := writeLogs(t)

	outcomes, err := LoadRequestLog(requestsLog)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, 200, outcomes[0].StatusCode)
	assert.Equal(t, 40, outcomes[0].CompletionTokens)
	assert.InDelta(t, 1.5, outcomes[0].Latency.Seconds(), 1e-6)
	assert.Equal(t, "model overloaded", outcomes[2].Error)
	assert.Equal(t, 0, outcomes[2].CompletionTokens)
}

func TestAnalyze_EndToEnd(t *testing.T) {
	powerLog, requestsLog := writeLogs(t)

	m, err := Analyze(powerLog, requestsLog, 50, Options{})
	require.NoError(t, err)

	// Trapezoids: 150 + 200 + 150 = 500 J over 3 s; active = 500 - 150.
	assert.InDelta(t, 500.0, m.TotalEnergyJ, 1e-6)
	assert.InDelta(t, 3.0, m.TotalTimeS, 1e-6)
	assert.InDelta(t, 350.0, m.ActiveEnergyJ, 1e-6)
	assert.Equal(t, 100, m.TotalTokens)
	assert.Equal(t, 3, m.TotalRequests)
	assert.Equal(t, 2, m.SuccessfulRequests)
	assert.InDelta(t, 2.0, m.AvgLatencyS, 1e-6)
	assert.Nil(t, m.PowerEfficiencyFLOPsW)
	assert.Nil(t, m.MemBandwidthUtilPct)
}

func TestAnalyze_MissingInputs(t *testing.T) {
	powerLog, requestsLog := writeLogs(t)

	_, err := Analyze(filepath.Join(t.TempDir(), "nope.csv"), requestsLog, 0, Options{})
	require.Error(t, err)

	_, err = Analyze(powerLog, filepath.Join(t.TempDir(), "nope.csv"), 0, Options{})
	require.Error(t, err)
}

func TestLoadPowerLog_BadInput(t *testing.T) {
	dir := t.TempDir()

	missingCol := filepath.Join(dir, "missing.csv")
	require.NoError(t, os.WriteFile(missingCol, []byte("timestamp_s,power_W\n1,2\n"), 0644))
	_, err := LoadPowerLog(missingCol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")

	badRow := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(badRow,
		[]byte("timestamp_s,power_W,gpu_util_percent,mem_used_bytes,mem_total_bytes\n1,abc,0,0,0\n"), 0644))
	_, err = LoadPowerLog(badRow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
