package services_test

import (
	"context"
	"errors"

	"studygen/internal/search"
)

// stubModel scripts chat responses. Text and image calls consume separate
// queues; when a queue is exhausted the last entry repeats.
type stubModel struct {
	responses      []string
	imageResponses []string
	err            error
	imageErr       error

	calls      int
	imageCalls int
	prompts    []string
}

func (m *stubModel) Complete(_ context.Context, _, user string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, user)
	if m.err != nil {
		return "", m.err
	}
	return pick(m.responses, m.calls), nil
}

func (m *stubModel) CompleteWithImage(_ context.Context, _, user, _ string) (string, error) {
	m.imageCalls++
	m.prompts = append(m.prompts, user)
	if m.imageErr != nil {
		return "", m.imageErr
	}
	return pick(m.imageResponses, m.imageCalls), nil
}

func pick(queue []string, call int) string {
	if len(queue) == 0 {
		return ""
	}
	if call > len(queue) {
		return queue[len(queue)-1]
	}
	return queue[call-1]
}

// stubProvider serves canned search results, optionally failing for
// configured queries.
type stubProvider struct {
	webResults   map[string][]search.WebResult
	imageResults map[string][]search.ImageResult
	failFor      map[string]bool

	webCalls   []string
	imageCalls []string
}

var errProviderDown = errors.New("provider unavailable")

func (p *stubProvider) SearchWeb(_ context.Context, query string) ([]search.WebResult, error) {
	p.webCalls = append(p.webCalls, query)
	if p.failFor[query] {
		return nil, errProviderDown
	}
	return p.webResults[query], nil
}

func (p *stubProvider) SearchImages(_ context.Context, query string) ([]search.ImageResult, error) {
	p.imageCalls = append(p.imageCalls, query)
	if p.failFor[query] {
		return nil, errProviderDown
	}
	return p.imageResults[query], nil
}

// stubReader returns a fixed page body, or an error when failing is set.
type stubReader struct {
	body    string
	failing bool
	calls   int
}

func (r *stubReader) Read(_ context.Context, url string) (string, error) {
	r.calls++
	if r.failing {
		return "", errors.New("fetch failed")
	}
	return r.body, nil
}
