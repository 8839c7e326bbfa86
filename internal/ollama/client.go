// Package ollama is the local model invocation transport.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vthunder/daybook/internal/logging"
)

// Failure classes surfaced to callers. These are the only errors that
// propagate as hard failures: a timed-out or unreachable model prevents
// fulfilling the operation entirely, and nothing partial is persisted.
var (
	ErrTimeout     = errors.New("model invocation timed out")
	ErrUnavailable = errors.New("model unavailable")
)

// Options configure one generation call
type Options struct {
	Temperature float64
	NumPredict  int // max output tokens, 0 = model default
	Timeout     time.Duration
}

// Client talks to a local Ollama server
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates an Ollama client
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:latest"
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		// Per-call deadlines come from the context; this is a backstop
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate runs one synchronous completion under the configured timeout.
// On expiry it returns ErrTimeout rather than hanging; transport failures
// map to ErrUnavailable.
func (c *Client) Generate(ctx context.Context, prompt, system string, opts Options) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: generateOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.NumPredict,
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logging.Warn("ollama", "generation timed out after %s", time.Since(start).Round(time.Millisecond))
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, logging.Truncate(string(body), 200))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	logging.Debug("ollama", "generated %d chars in %s", len(result.Response), time.Since(start).Round(time.Millisecond))
	return result.Response, nil
}
