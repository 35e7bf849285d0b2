package search

import (
	"context"
	"strings"
	"time"

	"resty.dev/v3"
)

// ReaderConfig configures the page reader proxy client.
type ReaderConfig struct {
	BaseURL string
	APIKey  string

	// HTTP client timeout in seconds (default: 30)
	Timeout int
}

// reader fetches page text through a Jina-style reader proxy, which
// renders a target page as plain markdown at <base>/<url>.
type reader struct {
	config ReaderConfig
	http   *resty.Client
}

// NewReader creates a PageReader backed by a reader proxy.
func NewReader(config ReaderConfig) PageReader {
	if config.BaseURL == "" {
		config.BaseURL = "https://r.jina.ai"
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	http := resty.New()
	http.SetTimeout(time.Duration(config.Timeout) * time.Second)
	http.SetHeader("X-Retain-Images", "none")
	if config.APIKey != "" {
		http.SetHeader("Authorization", "Bearer "+config.APIKey)
	}

	return &reader{config: config, http: http}
}

// Read implements PageReader.
func (r *reader) Read(ctx context.Context, url string) (string, error) {
	resp, err := r.http.R().
		SetContext(ctx).
		Get(strings.TrimSuffix(r.config.BaseURL, "/") + "/" + url)
	if err != nil {
		return "", &SearchError{
			Code:    "network_error",
			Message: "page fetch failed",
			Details: err.Error(),
		}
	}
	if resp.IsError() {
		return "", &SearchError{
			Code:    "page_fetch_failed",
			Message: "reader proxy returned an error",
			Details: resp.Status(),
		}
	}

	body := strings.TrimSpace(resp.String())
	if body == "" {
		return "", &SearchError{
			Code:    "empty_page",
			Message: "reader proxy returned no content",
		}
	}
	return body, nil
}
