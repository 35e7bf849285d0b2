// Package search talks to a SerpAPI-compatible search provider and to a
// reader proxy that renders web pages as plain text. Both are best-effort
// collaborators: callers degrade or skip on failure rather than abort.
package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"
)

const (
	defaultBaseURL    = "https://serpapi.com"
	defaultNumResults = 5
	defaultTimeout    = 30
	maxSearchRetries  = 2
)

// client implements Provider against SerpAPI.
type client struct {
	config Config
	http   *resty.Client
}

// NewClient creates a search provider client with the given configuration.
func NewClient(config Config) Provider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.NumResults == 0 {
		config.NumResults = defaultNumResults
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	http := resty.New()
	http.SetBaseURL(config.BaseURL)
	http.SetTimeout(time.Duration(config.Timeout) * time.Second)

	return &client{config: config, http: http}
}

type webSearchResponse struct {
	OrganicResults []WebResult `json:"organic_results"`
	Error          string      `json:"error,omitempty"`
}

type imageSearchResponse struct {
	ImagesResults []ImageResult `json:"images_results"`
	Error         string        `json:"error,omitempty"`
}

// SearchWeb implements Provider.
func (c *client) SearchWeb(ctx context.Context, query string) ([]WebResult, error) {
	var out webSearchResponse
	err := c.search(ctx, query, map[string]string{"engine": "google"}, &out)
	if err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, &SearchError{Code: "provider_error", Message: out.Error}
	}
	return out.OrganicResults, nil
}

// SearchImages implements Provider.
func (c *client) SearchImages(ctx context.Context, query string) ([]ImageResult, error) {
	var out imageSearchResponse
	err := c.search(ctx, query, map[string]string{"engine": "google_images"}, &out)
	if err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, &SearchError{Code: "provider_error", Message: out.Error}
	}
	return out.ImagesResults, nil
}

func (c *client) search(ctx context.Context, query string, params map[string]string, result any) error {
	if c.config.APIKey == "" {
		return &SearchError{
			Code:    "missing_api_key",
			Message: "search provider API key is required",
		}
	}

	return retry.Do(
		func() error {
			resp, err := c.http.R().
				SetContext(ctx).
				SetQueryParams(params).
				SetQueryParam("q", query).
				SetQueryParam("num", strconv.Itoa(c.config.NumResults)).
				SetQueryParam("api_key", c.config.APIKey).
				SetResult(result).
				Get("/search")
			if err != nil {
				return &SearchError{
					Code:    "network_error",
					Message: "search request failed",
					Details: err.Error(),
				}
			}
			if resp.IsError() {
				searchErr := c.statusError(resp.StatusCode(), resp.String())
				// Client errors will not improve with another attempt.
				if resp.StatusCode() < 500 {
					return retry.Unrecoverable(searchErr)
				}
				return searchErr
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxSearchRetries),
		retry.LastErrorOnly(true),
	)
}

func (c *client) statusError(statusCode int, body string) *SearchError {
	message := "search request failed"
	switch statusCode {
	case 400:
		message = "bad request - invalid parameters"
	case 401:
		message = "unauthorized - invalid API key"
	case 429:
		message = "rate limit exceeded"
	case 500:
		message = "internal server error"
	case 503:
		message = "service unavailable"
	}
	return &SearchError{
		Code:    fmt.Sprintf("http_%d", statusCode),
		Message: message,
		Details: body,
	}
}
