// Package llm is the gateway to an OpenAI-compatible chat-completion API.
// It classifies the emotional tone of a message and generates replies,
// surfacing failures as *TransportError, *UpstreamError or *AuthError.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults applied by NewClient.
const (
	DefaultBaseURL             = "https://api.groq.com/openai/v1"
	DefaultModel               = "meta-llama/llama-4-maverick-17b-128e-instruct"
	DefaultTemperature         = 0.8
	DefaultClassifyTemperature = 0.1
	DefaultTimeout             = 30 * time.Second
	DefaultRetryDelay          = 250 * time.Millisecond
	DefaultContextTurns        = 4

	completionsPath  = "/chat/completions"
	maxResponseBytes = 1 << 20
	maxErrorMessage  = 512
)

// Config configures the gateway client.
type Config struct {
	BaseURL             string        `yaml:"base_url"`
	APIKey              string        `yaml:"api_key"` // #nosec G117 -- loaded from env expansion
	Model               string        `yaml:"model"`
	Temperature         *float64      `yaml:"temperature"`
	ClassifyTemperature *float64      `yaml:"classify_temperature"`
	MaxTokens           int           `yaml:"max_tokens"`
	Timeout             time.Duration `yaml:"timeout"`
	RetryDelay          time.Duration `yaml:"retry_delay"`
	ContextTurns        int           `yaml:"context_turns"`
	SystemPrompt        string        `yaml:"system_prompt"`
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client talks to the chat-completion endpoint. It holds no per-call state
// and is safe for concurrent use.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	model    string
	labels   []string

	temperature         float64
	classifyTemperature float64
	maxTokens           int
	retryDelay          time.Duration
	contextTurns        int
	systemPrompt        string

	rejected atomic.Bool
}

// NewClient creates a gateway client. labels is the closed set of emotion
// labels offered to the classifier. A missing API key yields *AuthError.
func NewClient(cfg Config, labels []string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &AuthError{Message: "api key is not configured"}
	}
	if len(labels) == 0 {
		return nil, errors.New("llm: at least one emotion label is required")
	}

	c := &Client{
		endpoint:            strings.TrimRight(valueOr(cfg.BaseURL, DefaultBaseURL), "/") + completionsPath,
		apiKey:              cfg.APIKey,
		model:               valueOr(cfg.Model, DefaultModel),
		labels:              append([]string(nil), labels...),
		temperature:         floatOr(cfg.Temperature, DefaultTemperature),
		classifyTemperature: floatOr(cfg.ClassifyTemperature, DefaultClassifyTemperature),
		maxTokens:           cfg.MaxTokens,
		retryDelay:          cfg.RetryDelay,
		contextTurns:        cfg.ContextTurns,
		systemPrompt:        valueOr(cfg.SystemPrompt, DefaultSystemPrompt),
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.contextTurns <= 0 {
		c.contextTurns = DefaultContextTurns
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.http = &http.Client{Timeout: timeout}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the model name sent with every request.
func (c *Client) Model() string { return c.model }

// CredentialRejected reports whether the most recent call was refused with
// 401 or 403. It clears after the next successful call.
func (c *Client) CredentialRejected() bool { return c.rejected.Load() }

// ClassifyEmotion asks the model for the primary emotional tone of text and
// returns its raw answer, trimmed and lower-cased. Mapping the answer onto a
// known category is left to the caller.
func (c *Client) ClassifyEmotion(ctx context.Context, text string) (string, error) {
	out, err := c.Complete(ctx, classifyMessages(c.labels, text), c.classifyTemperature)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

// GenerateReply asks the model for an empathetic reply to req.Text, using
// the detected emotion and the most recent history turns as context.
func (c *Client) GenerateReply(ctx context.Context, req ReplyRequest) (string, error) {
	out, err := c.Complete(ctx, replyMessages(c.systemPrompt, c.contextTurns, req), c.temperature)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &UpstreamError{Message: "empty completion"}
	}
	return out, nil
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat completion request and returns the first choice's
// content. A transient transport failure is retried once; API errors are
// never retried.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	var content string
	op := func() error {
		out, err := c.post(ctx, body)
		if err != nil {
			var te *TransportError
			if errors.As(err, &te) && te.Transient() {
				return err
			}
			return backoff.Permanent(err)
		}
		content = out
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), 1), ctx)
	notify := func(err error, wait time.Duration) {
		slog.Warn("retrying llm request", "model", c.model, "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if IsTransport(err) || IsUpstream(err) || IsAuth(err) {
			return "", err
		}
		return "", &TransportError{Op: "POST " + completionsPath, Err: err}
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Op: "POST " + completionsPath, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Op: "reading completion response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.rejected.Store(true)
		return "", &AuthError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	c.rejected.Store(false)

	var parsed completionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: "response has no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// errorMessage extracts the API error message from a response body, falling
// back to the truncated raw body.
func errorMessage(data []byte) string {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	if msg == "" {
		msg = "no response body"
	}
	return msg
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
