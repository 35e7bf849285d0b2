package search

import "context"

// Provider is the search surface the content fetcher consumes: organic web
// results and image results.
type Provider interface {
	// SearchWeb returns organic web results for the query.
	SearchWeb(ctx context.Context, query string) ([]WebResult, error)

	// SearchImages returns image results for the query.
	SearchImages(ctx context.Context, query string) ([]ImageResult, error)
}

// PageReader resolves a URL to readable page text.
type PageReader interface {
	Read(ctx context.Context, url string) (string, error)
}

// WebResult is a single organic search result.
type WebResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	Source        string `json:"source,omitempty"`
	DisplayedLink string `json:"displayed_link,omitempty"`
}

// ImageResult is a single image search result. Original is the direct
// image URL.
type ImageResult struct {
	Title     string `json:"title"`
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Link      string `json:"link,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Config holds configuration for the search client.
type Config struct {
	APIKey  string
	BaseURL string

	// Number of results to request per search (default: 5)
	NumResults int

	// HTTP client timeout in seconds (default: 30)
	Timeout int
}

// SearchError represents an error that occurred during a search call.
type SearchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *SearchError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
