// Package llm wraps the hosted chat-completion provider behind a small
// client that the pipeline services consume. Every invocation carries the
// configured inference timeout and a bounded retry policy for transient
// provider failures; callers layer their own extraction-level retries on
// top of this independently.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	openai "github.com/sashabaranov/go-openai"
)

// ErrUnavailable is returned when the provider integration is not configured.
var ErrUnavailable = errors.New("language model integration is not configured")

const (
	defaultTimeout   = 30 * time.Second
	maxRetryAttempts = 3
	completionTokens = 4096
	chatTemperature  = 0.3
)

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client     *openai.Client
	model      string
	imageModel string
	timeout    time.Duration
}

// NewClient builds a provider client. An empty API key yields a disabled
// client whose calls fail with ErrUnavailable; the process keeps running
// and the failure surfaces per-operation.
func NewClient(apiKey, endpoint, model, imageModel string, timeoutSeconds int) *Client {
	c := &Client{
		model:      model,
		imageModel: imageModel,
		timeout:    defaultTimeout,
	}
	if timeoutSeconds > 0 {
		c.timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if apiKey == "" {
		return c
	}

	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	c.client = openai.NewClientWithConfig(cfg)
	return c
}

func (c *Client) disabled() bool {
	return c.client == nil || c.model == ""
}

// Complete sends a system+user prompt pair and returns the raw assistant
// text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.disabled() {
		return "", ErrUnavailable
	}
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: chatTemperature,
		MaxTokens:   completionTokens,
	}
	return c.complete(ctx, req)
}

// CompleteWithImage sends a prompt that references an image URL, using the
// vision-capable model.
func (c *Client) CompleteWithImage(ctx context.Context, system, user, imageURL string) (string, error) {
	if c.disabled() {
		return "", ErrUnavailable
	}
	model := c.imageModel
	if model == "" {
		model = c.model
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: user},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		Temperature: chatTemperature,
		MaxTokens:   completionTokens,
	}
	return c.complete(ctx, req)
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var content string
	err := retry.Do(
		func() error {
			text, err := c.completeOnce(ctx, req)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				slog.Warn("retrying chat completion", "model", req.Model, "error", err)
				return err
			}
			content = text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxRetryAttempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) completeOnce(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("provider returned empty content")
	}
	return content, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	// Timeouts and transport failures are worth another attempt.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "no such host")
}
