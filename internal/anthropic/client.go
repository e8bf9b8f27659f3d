// Package anthropic adapts the Anthropic Messages API to the advisor's
// LanguageModel port.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"fintrack/internal/core"
)

const (
	DefaultModel      = "claude-3-5-sonnet-20241022"
	DefaultMaxTokens  = 1024
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2
)

var (
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("anthropic: unauthorized (API key invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("anthropic: rate limited")
)

// Options configures a Client. Zero values fall back to the defaults, except
// MaxRetries where zero disables retries.
type Options struct {
	APIKey     string
	Model      string
	MaxTokens  int
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Client sends conversations to the Messages API.
type Client struct {
	api       sdk.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClient creates a client for the given options.
// Returns nil if the API key is empty.
func NewClient(opts Options) *Client {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil
	}
	c := &Client{
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithRequestTimeout(c.timeout),
		option.WithMaxRetries(max(opts.MaxRetries, 0)),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	c.api = sdk.NewClient(reqOpts...)
	return c
}

// Model returns the model name requests are sent with.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the system prompt and turns and returns the first content
// block. A first block that is not text yields a Completion with IsText false.
func (c *Client) Complete(ctx context.Context, system string, turns []core.ChatTurn) (core.Completion, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  make([]sdk.MessageParam, 0, len(turns)),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	for _, t := range turns {
		block := sdk.NewTextBlock(t.Content)
		if t.Role == core.RoleAssistant {
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, sdk.NewUserMessage(block))
		}
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return core.Completion{}, mapError(err)
	}
	slog.DebugContext(ctx, "Model reply received",
		"model", msg.Model,
		"stop_reason", msg.StopReason,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens)

	if len(msg.Content) == 0 || msg.Content[0].Type != "text" {
		return core.Completion{}, nil
	}
	return core.Completion{Text: msg.Content[0].Text, IsText: true}, nil
}

// mapError turns API status codes into the package's sentinel errors.
func mapError(err error) error {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic: request failed: %w", err)
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return fmt.Errorf("anthropic: status %d: %w", apiErr.StatusCode, err)
}
