// Package reasoning provides the abstract medical-reasoning capability
// consumed by the non-deterministic validation checks. The concrete
// provider sits behind an HTTP endpoint; checks only see the Assessor
// interface and a structured-JSON request/response contract.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrUnavailable marks a reasoning call that could not be completed
// after the bounded retry. Checks degrade to an unavailable verdict on
// it instead of failing the run.
var ErrUnavailable = errors.New("reasoning service unavailable")

// Request is one structured assessment task.
type Request struct {
	// Task names the assessment, e.g. "medical_necessity".
	Task string `json:"task"`
	// Instructions describe the expected output fields.
	Instructions string `json:"instructions"`
	// Input carries the structured claim context.
	Input map[string]interface{} `json:"input"`
}

// Assessor is the reasoning capability a check depends on. Responses
// are structured JSON; a response that does not parse is a failure,
// not a crash.
type Assessor interface {
	Assess(ctx context.Context, req Request) (json.RawMessage, error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout bounds each individual attempt.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.timeout = d }
}

// WithLogger attaches a logger for attempt-level diagnostics.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// Client calls a reasoning endpoint over HTTP with one retry on
// transient failure.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewClient creates a Client with sensible defaults.
func NewClient(baseURL, apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		timeout:    30 * time.Second,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type assessPayload struct {
	Model        string                 `json:"model"`
	Task         string                 `json:"task"`
	Instructions string                 `json:"instructions"`
	Input        map[string]interface{} `json:"input"`
}

type assessResponse struct {
	Output json.RawMessage `json:"output"`
}

// Assess posts the request and returns the structured output. On
// timeout or transient error it retries once with exponential backoff;
// a second failure, or an unparseable response, returns a result
// wrapping ErrUnavailable.
func (c *Client) Assess(ctx context.Context, req Request) (json.RawMessage, error) {
	payload, err := json.Marshal(assessPayload{
		Model:        c.model,
		Task:         req.Task,
		Instructions: req.Instructions,
		Input:        req.Input,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	var output json.RawMessage
	operation := func() error {
		out, err := c.attempt(ctx, payload)
		if err != nil {
			return err
		}
		output = out
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Warn().Err(err).Str("task", req.Task).Msg("reasoning call failed after retry")
		return nil, fmt.Errorf("%w: task %s: %v", ErrUnavailable, req.Task, err)
	}
	return output, nil
}

func (c *Client) attempt(ctx context.Context, payload []byte) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assess", bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("reasoning endpoint returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("reasoning endpoint returned %d", resp.StatusCode))
	}

	var parsed assessResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unparseable response: %w", err)
	}
	out := ExtractJSON(parsed.Output)
	if len(out) == 0 {
		return nil, fmt.Errorf("empty response output")
	}
	return out, nil
}

// ExtractJSON strips markdown code fences some providers wrap around
// JSON output and returns the inner document.
func ExtractJSON(raw json.RawMessage) json.RawMessage {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, `"`) {
		// Output arrived as a JSON string rather than an object.
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			s = strings.TrimSpace(inner)
		}
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return json.RawMessage(s)
}
