package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygen/internal/services"
)

func TestSummarizer_ShortInputSingleCall(t *testing.T) {
	model := &stubModel{responses: []string{"A concise digest."}}
	summarizer := services.NewSummarizer(model)

	out := summarizer.Summarize(context.Background(), "Photosynthesis converts light into chemical energy.")

	assert.Equal(t, "A concise digest.", out)
	assert.Equal(t, 1, model.calls)
}

func TestSummarizer_ModelFailureFallsBackToTruncation(t *testing.T) {
	model := &stubModel{err: assert.AnError}
	summarizer := services.NewSummarizer(model)

	input := strings.Repeat("Important fact. ", 300) // ~4800 chars
	out := summarizer.Summarize(context.Background(), input)

	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), 4000)
	assert.True(t, strings.HasPrefix(input, out))
}

func TestSummarizer_LongInputTakesChunkedPath(t *testing.T) {
	model := &stubModel{responses: []string{"chunk digest"}}
	summarizer := services.NewSummarizer(model)

	paragraphs := make([]string, 40)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("Cells contain organelles that divide labor. ", 6)
	}
	input := strings.Join(paragraphs, "\n\n") // well above the direct threshold

	out := summarizer.Summarize(context.Background(), input)

	require.NotEmpty(t, out)
	assert.Greater(t, model.calls, 1, "above-threshold input must use the chunked path")
	assert.Contains(t, out, "chunk digest")
}

func TestSummarizer_RecombinesLongChunkSummaries(t *testing.T) {
	longSummary := strings.Repeat("dense summary sentence. ", 150) // ~3600 chars per chunk
	model := &stubModel{responses: []string{longSummary}}
	summarizer := services.NewSummarizer(model)

	input := strings.Repeat("Mitochondria produce ATP through oxidative phosphorylation. ", 200)
	require.Greater(t, len(input), 4000)

	out := summarizer.Summarize(context.Background(), input)

	require.NotEmpty(t, out)
	// Chunk summaries exceed the recombination threshold, so one extra
	// pass runs over the concatenation.
	chunkCalls := model.calls - 1
	assert.GreaterOrEqual(t, chunkCalls, 2)
}

func TestSummarizer_EmptyInput(t *testing.T) {
	model := &stubModel{}
	summarizer := services.NewSummarizer(model)

	out := summarizer.Summarize(context.Background(), "   ")

	assert.Empty(t, out)
	assert.Zero(t, model.calls)
}
