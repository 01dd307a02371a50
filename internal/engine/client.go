/*
PURPOSE:
  HTTP client for issuing chat-completion requests against a vLLM
  OpenAI-compatible endpoint and turning each round-trip into exactly one
  RequestOutcome.

REQUIREMENTS:
  User-specified:
  - Single-turn chat completion: model, prompt, max_tokens, temperature,
    stream=false.
  - Extract usage.prompt_tokens / usage.completion_tokens; missing fields
    count as zero.
  - Never lose an outcome: transport faults become status 0 records.

  Implementation-discovered:
  - Needs http.Client with a per-request timeout.
  - Non-200 responses carry the raw body as the error text and zero token
    counts regardless of any usage metadata present.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go
  - Uses: internal/config, internal/model

ERROR HANDLING:
  - Issue never returns an error; every failure mode is encoded in the
    outcome record. Per-request failures must not abort the run.

IMPLEMENTATION RULES:
  - Use net/http.
  - Latency is wall-clock elapsed time, measured up to the fault on
    failures.

USAGE:
  c := engine.NewClient(cfg)
  outcome := c.Issue(ctx, prompt)

RELATED FILES:
  - internal/config/config.go
  - internal/model/types.go

MAINTENANCE:
  - Update if the endpoint grows streaming support.
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chuyishang/inference-energy/internal/config"
	"github.com/chuyishang/inference-energy/internal/model"
)

// chatRequest is the OpenAI-compatible chat completion payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse captures only the usage metadata we account for. Missing
// fields decode to zero, which is the required treatment.
type chatResponse struct {
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Client issues chat-completion requests against one endpoint/model pair.
type Client struct {
	http     *http.Client
	endpoint string
	model    string

	maxTokens   int
	temperature float64
}

// NewClient creates a Client from the load configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxNewTokens,
		temperature: cfg.Temperature,
	}
}

// Issue sends one request and returns its outcome. It never returns an
// error: transport faults yield a status 0 outcome with the fault text,
// non-200 responses yield the status with the raw body as the error text.
func (c *Client) Issue(ctx context.Context, prompt string) model.RequestOutcome {
	payload := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      false,
	}
	body, _ := json.Marshal(payload)

	started := time.Now()

	fail := func(err error) model.RequestOutcome {
		return model.RequestOutcome{
			Timestamp:  started,
			Latency:    time.Since(started),
			StatusCode: 0,
			Error:      err.Error(),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	latency := time.Since(started)
	if err != nil {
		return fail(err)
	}

	if resp.StatusCode != http.StatusOK {
		// Token counts stay zero regardless of any usage metadata present.
		return model.RequestOutcome{
			Timestamp:  started,
			Latency:    latency,
			StatusCode: resp.StatusCode,
			Error:      string(respBody),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// Malformed response body counts as a transport-level fault.
		return fail(err)
	}

	return model.RequestOutcome{
		Timestamp:        started,
		Latency:          latency,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		StatusCode:       resp.StatusCode,
	}
}
