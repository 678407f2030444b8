// Package assistant talks to an OpenAI compatible chat completions endpoint
// to help a speaker refine an idea.
package assistant

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 1000
	DefaultTimeout   = 60 * time.Second
	// DefaultRequestsPerSecond paces outgoing calls.
	DefaultRequestsPerSecond = 10.0

	maxRetries = 3
)

// ErrNoAPIKey is returned when the client has no credentials.
var ErrNoAPIKey = errors.New("assistant: OPENAI_API_KEY is not set")

// MissingKeyMessage is what the interfaces show instead of a reply when the
// assistant is not configured.
const MissingKeyMessage = "Please set OPENAI_API_KEY environment variable to use the AI assistant."

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Config holds client settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerSecond float64
	// RetryBackoff is the first retry delay; it doubles per attempt.
	RetryBackoff time.Duration
}

func (c *Config) applyDefaults() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
}

// Chatter is what the rest of the module needs from an assistant.
type Chatter interface {
	Chat(ctx context.Context, system string, history []Message) (string, error)
}

// Client implements Chatter over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client. A missing API key is not an error here; Chat
// reports ErrNoAPIKey so the interfaces can explain what to do.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.applyDefaults()
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the model the client asks for.
func (c *Client) Model() string {
	return c.cfg.Model
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// StatusError carries a non-retryable HTTP failure from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assistant: API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Chat sends the system prompt followed by history and returns the reply.
func (c *Client) Chat(ctx context.Context, system string, history []Message) (string, error) {
	if !c.Configured() {
		return "", ErrNoAPIKey
	}
	messages := make([]Message, 0, len(history)+1)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	messages = append(messages, history...)
	payload, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: messages, MaxTokens: c.cfg.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("assistant: marshal request: %w", err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("assistant: wait for rate limiter: %w", err)
		}
		reply, retry, err := c.do(ctx, payload)
		if err == nil {
			c.logger.Debug("assistant reply",
				zap.String("model", c.cfg.Model),
				zap.Int("messages", len(messages)),
				zap.Int("reply_len", len(reply)),
				zap.Duration("elapsed", time.Since(start)))
			return reply, nil
		}
		lastErr = err
		if !retry {
			return "", err
		}
		c.logger.Warn("assistant request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return "", fmt.Errorf("assistant: max retries exceeded: %w", lastErr)
}

func (c *Client) do(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("assistant: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("assistant: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("assistant: read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, fmt.Errorf("assistant: rate limit exceeded (429)")
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", true, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	case resp.StatusCode != http.StatusOK:
		return "", false, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("assistant: parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("assistant: API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("assistant: no completion returned")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}
