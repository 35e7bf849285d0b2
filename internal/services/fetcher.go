package services

import (
	"context"
	"log/slog"

	"studygen/internal/models"
	"studygen/internal/search"
)

// Fetcher resolves planned queries to content records. A Fetcher is built
// per planner run: its URL cache lives for exactly that run and is never
// invalidated or shared.
type Fetcher struct {
	provider search.Provider
	reader   search.PageReader
	cache    map[string]string
}

func NewFetcher(provider search.Provider, reader search.PageReader) *Fetcher {
	return &Fetcher{
		provider: provider,
		reader:   reader,
		cache:    make(map[string]string),
	}
}

// Fetch returns a content record for the query, or nil when the provider
// has nothing; the caller skips nil records without aborting the batch.
// Only the first search result is considered: this pipeline trades ranking
// for latency and treats each query as cheap and best-effort.
func (f *Fetcher) Fetch(ctx context.Context, query models.Query) *models.ContentRecord {
	switch query.Type {
	case models.ContentImage:
		return f.fetchImage(ctx, query.Query)
	default:
		return f.fetchText(ctx, query.Query)
	}
}

func (f *Fetcher) fetchText(ctx context.Context, query string) *models.ContentRecord {
	results, err := f.provider.SearchWeb(ctx, query)
	if err != nil {
		slog.Warn("web search failed", "query", query, "error", err)
		return nil
	}
	if len(results) == 0 {
		slog.Info("web search returned no results", "query", query)
		return nil
	}

	first := results[0]
	body := f.pageText(ctx, first.Link)
	if body == "" {
		// Snippet degradation beats dropping the query entirely.
		body = first.Snippet
	}
	if body == "" {
		return nil
	}

	return &models.ContentRecord{
		Title:  first.Title,
		Body:   body,
		Link:   first.Link,
		Origin: models.ContentText,
	}
}

func (f *Fetcher) fetchImage(ctx context.Context, query string) *models.ContentRecord {
	results, err := f.provider.SearchImages(ctx, query)
	if err != nil {
		slog.Warn("image search failed", "query", query, "error", err)
		return nil
	}
	if len(results) == 0 {
		slog.Info("image search returned no results", "query", query)
		return nil
	}

	first := results[0]
	if first.Original == "" {
		return nil
	}
	return &models.ContentRecord{
		Title:  first.Title,
		Body:   first.Original,
		Link:   first.Original,
		Origin: models.ContentImage,
	}
}

// pageText loads the page body through the reader proxy, consulting the
// per-run cache first. Failed fetches are cached as empty so a URL is
// tried at most once per run.
func (f *Fetcher) pageText(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}
	if cached, ok := f.cache[url]; ok {
		return cached
	}

	text, err := f.reader.Read(ctx, url)
	if err != nil {
		slog.Warn("page fetch failed, falling back to snippet", "url", url, "error", err)
		text = ""
	}
	f.cache[url] = text
	return text
}
