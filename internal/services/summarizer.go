package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	// Inputs at or below this length are summarized in one call.
	directSummaryThreshold = 4000
	// Chunked path: target chunk size and overlap between chunks.
	summaryChunkSize    = 3000
	summaryChunkOverlap = 200
	// Concatenated chunk summaries above this length get one more pass.
	recombineThreshold = 6000
)

// Summarizer reduces fetched text into a bounded educational digest. It
// never fails: any model error degrades to a hard truncation of the
// original content so flashcard generation can proceed.
type Summarizer struct {
	model ChatModel
}

func NewSummarizer(model ChatModel) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize returns a digest of text preserving key terms, definitions,
// and relationships. Inputs longer than the direct threshold are split
// into overlapping chunks, summarized independently, and recombined.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if len(text) <= directSummaryThreshold {
		summary, err := s.summarizeOnce(ctx, text)
		if err != nil {
			slog.Warn("summarization failed, truncating instead", "error", err)
			return truncate(text, directSummaryThreshold)
		}
		return summary
	}

	chunks := splitText(text, summaryChunkSize, summaryChunkOverlap)
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := s.summarizeOnce(ctx, chunk)
		if err != nil {
			slog.Warn("chunk summarization failed, truncating original", "chunk", i, "error", err)
			return truncate(text, directSummaryThreshold)
		}
		summaries = append(summaries, summary)
	}

	combined := strings.Join(summaries, "\n\n")
	if len(combined) <= recombineThreshold {
		return combined
	}

	summary, err := s.summarizeOnce(ctx, truncate(combined, recombineThreshold))
	if err != nil {
		slog.Warn("recombination pass failed, truncating original", "error", err)
		return truncate(text, directSummaryThreshold)
	}
	return summary
}

func (s *Summarizer) summarizeOnce(ctx context.Context, text string) (string, error) {
	response, err := s.model.Complete(ctx, summarizerSystemPrompt, fmt.Sprintf(summarizerUserPromptFmt, text))
	if err != nil {
		return "", err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("empty summary")
	}
	return response, nil
}

// splitText greedily splits text into chunks of roughly size bytes with
// the given overlap, preferring paragraph, line, and sentence boundaries
// before falling back to word breaks and finally hard cuts.
func splitText(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	separators := []string{"\n\n", "\n", ". ", " "}
	var chunks []string
	start := 0
	for start < len(text) {
		if len(text)-start <= size {
			chunks = append(chunks, text[start:])
			break
		}

		end := start + size
		cut := end
		for _, sep := range separators {
			if idx := strings.LastIndex(text[start:end], sep); idx > size/2 {
				cut = start + idx + len(sep)
				break
			}
		}
		if cut == end {
			// Hard cut: back off to a rune boundary.
			for cut > start && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}

		chunks = append(chunks, text[start:cut])

		next := cut - overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// truncate cuts s to at most limit bytes at a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
