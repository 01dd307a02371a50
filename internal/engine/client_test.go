package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuyishang/inference-energy/internal/config"
)

func testConfig(endpoint string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Model = "test-model"
	cfg.RequestTimeout = 2 * time.Second
	return cfg
}

func TestClient_Issue_Success(t *testing.T) {
	var gotPayload chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"usage":{"prompt_tokens":12,"completion_tokens":34}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	out := c.Issue(context.Background(), "hello world")

	assert.Equal(t, 200, out.StatusCode)
	assert.True(t, out.Success())
	assert.Equal(t, 12, out.PromptTokens)
	assert.Equal(t, 34, out.CompletionTokens)
	assert.Empty(t, out.Error)
	assert.Greater(t, out.Latency, time.Duration(0))

	// Request contract: single user turn, stream disabled.
	assert.Equal(t, "test-model", gotPayload.Model)
	require.Len(t, gotPayload.Messages, 1)
	assert.Equal(t, "user", gotPayload.Messages[0].Role)
	assert.Equal(t, "hello world", gotPayload.Messages[0].Content)
	assert.False(t, gotPayload.Stream)
	assert.Equal(t, 256, gotPayload.MaxTokens)
}

func TestClient_Issue_MissingUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	out := NewClient(testConfig(srv.URL)).Issue(context.Background(), "p")

	// Missing usage fields count as zero tokens on a successful response.
	assert.Equal(t, 200, out.StatusCode)
	assert.Equal(t, 0, out.PromptTokens)
	assert.Equal(t, 0, out.CompletionTokens)
	assert.Empty(t, out.Error)
}

func TestClient_Issue_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"engine overloaded","usage":{"completion_tokens":99}}`))
	}))
	defer srv.Close()

	out := NewClient(testConfig(srv.URL)).Issue(context.Background(), "p")

	assert.Equal(t, http.StatusServiceUnavailable, out.StatusCode)
	assert.False(t, out.Success())
	// The raw body is the error text; token counts stay zero regardless of
	// any usage metadata present.
	assert.Contains(t, out.Error, "engine overloaded")
	assert.Equal(t, 0, out.PromptTokens)
	assert.Equal(t, 0, out.CompletionTokens)
}

func TestClient_Issue_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	out := NewClient(testConfig(srv.URL)).Issue(context.Background(), "p")

	// Malformed response counts as a transport-level fault.
	assert.Equal(t, 0, out.StatusCode)
	assert.NotEmpty(t, out.Error)
}

func TestClient_Issue_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	out := NewClient(testConfig(srv.URL)).Issue(context.Background(), "p")

	assert.Equal(t, 0, out.StatusCode)
	assert.NotEmpty(t, out.Error)
	assert.Equal(t, 0, out.CompletionTokens)
}

func TestClient_Issue_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RequestTimeout = 50 * time.Millisecond

	started := time.Now()
	out := NewClient(cfg).Issue(context.Background(), "p")

	assert.Equal(t, 0, out.StatusCode)
	assert.NotEmpty(t, out.Error)
	// Latency is measured up to the fault.
	assert.GreaterOrEqual(t, out.Latency, 50*time.Millisecond)
	assert.Less(t, time.Since(started), 400*time.Millisecond)
}
