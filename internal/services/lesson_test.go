package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygen/internal/models"
	"studygen/internal/search"
	"studygen/internal/services"
)

func newLessonService(model *stubModel, provider *stubProvider, reader *stubReader) *services.LessonService {
	return services.NewLessonService(
		services.NewPlanner(model),
		provider,
		reader,
		services.NewSummarizer(model),
		services.NewCardGenerator(model),
		services.NewQuizGenerator(model),
	)
}

func TestLessonService_PhotosynthesisScenario(t *testing.T) {
	const imageURL = "https://img.example.org/light-reaction.png"

	model := &stubModel{
		responses: []string{
			// Planner.
			`{"queries": [
				{"query": "What is photosynthesis?", "type": "text"},
				{"query": "Light reaction diagram", "type": "image"}
			]}`,
			// Summarizer: identity-shaped digest.
			"Photosynthesis converts light into chemical energy.",
			// Web flashcards.
			`{"flashcards": [{"question": "What is photosynthesis?", "answer": "Conversion of light into chemical energy.", "type": "text"}]}`,
		},
		imageResponses: []string{
			`{"flashcards": [{"question": "What does the diagram show?", "answer": "The light reactions.", "type": "image"}]}`,
		},
	}
	provider := &stubProvider{
		webResults: map[string][]search.WebResult{
			"What is photosynthesis?": {{
				Title:   "Photosynthesis - Wikipedia",
				Link:    "https://en.wikipedia.org/wiki/Photosynthesis",
				Snippet: "Photosynthesis is a process...",
			}},
		},
		imageResults: map[string][]search.ImageResult{
			"Light reaction diagram": {{
				Title:    "Light reaction diagram",
				Original: imageURL,
			}},
		},
	}
	reader := &stubReader{body: "Full page text about photosynthesis."}

	lesson := newLessonService(model, provider, reader)
	result, err := lesson.GenerateLesson(context.Background(), "Photosynthesis", 2)

	require.NoError(t, err)
	require.Len(t, result.Flashcards, 2)
	// Cards arrive in query order.
	assert.Equal(t, models.ContentText, result.Flashcards[0].Type)
	assert.Equal(t, models.ContentImage, result.Flashcards[1].Type)
	assert.Equal(t, imageURL, result.Flashcards[1].Source)
	assert.Empty(t, result.Skipped)
}

func TestLessonService_BatchResilience(t *testing.T) {
	model := &stubModel{
		responses: []string{
			`{"queries": [
				{"query": "alpha", "type": "text"},
				{"query": "beta", "type": "text"},
				{"query": "gamma", "type": "text"}
			]}`,
			// Both surviving queries are summarized before any card call.
			"digest",
			"digest",
			`{"flashcards": [{"question": "Alpha?", "answer": "A.", "type": "text"}]}`,
			`{"flashcards": [{"question": "Gamma?", "answer": "G.", "type": "text"}]}`,
		},
	}
	provider := &stubProvider{
		webResults: map[string][]search.WebResult{
			"alpha": {{Title: "Alpha", Link: "https://example.org/a", Snippet: "a"}},
			"gamma": {{Title: "Gamma", Link: "https://example.org/g", Snippet: "g"}},
		},
		failFor: map[string]bool{"beta": true},
	}
	reader := &stubReader{body: "page body"}

	lesson := newLessonService(model, provider, reader)
	result, err := lesson.GenerateLesson(context.Background(), "Greek letters", 3)

	require.NoError(t, err)
	require.Len(t, result.Flashcards, 2)
	assert.Equal(t, "Alpha?", result.Flashcards[0].Question)
	assert.Equal(t, "Gamma?", result.Flashcards[1].Question)
	assert.Equal(t, []string{"beta"}, result.Skipped)
}

func TestLessonService_SnippetFallbackWhenPageFetchFails(t *testing.T) {
	model := &stubModel{
		responses: []string{
			`{"queries": [{"query": "alpha", "type": "text"}]}`,
			"digest",
			`{"flashcards": [{"question": "Alpha?", "answer": "A.", "type": "text"}]}`,
		},
	}
	provider := &stubProvider{
		webResults: map[string][]search.WebResult{
			"alpha": {{Title: "Alpha", Link: "https://example.org/a", Snippet: "the snippet text"}},
		},
	}
	reader := &stubReader{failing: true}

	lesson := newLessonService(model, provider, reader)
	result, err := lesson.GenerateLesson(context.Background(), "Alpha", 1)

	require.NoError(t, err)
	require.Len(t, result.Flashcards, 1)
	// Summarizer received the snippet, not a failed page body.
	assert.Contains(t, model.prompts[1], "the snippet text")
}

func TestLessonService_EmptyPlanIsNoContent(t *testing.T) {
	model := &stubModel{responses: []string{"no JSON"}}
	lesson := newLessonService(model, &stubProvider{}, &stubReader{})

	_, err := lesson.GenerateLesson(context.Background(), "Anything", 2)

	assert.ErrorIs(t, err, services.ErrNoContent)
}

func TestLessonService_GenerateFromFile(t *testing.T) {
	model := &stubModel{
		responses: []string{
			"digest of the document",
			`{"flashcards": [{"question": "From the file?", "answer": "Yes.", "type": "text"}]}`,
		},
	}
	lesson := newLessonService(model, &stubProvider{}, &stubReader{})

	result, err := lesson.GenerateFromFile(context.Background(), models.FileContent{
		Content:  "The uploaded document text.",
		Metadata: models.FileMetadata{FileName: "notes.pdf", FileType: "pdf"},
	})

	require.NoError(t, err)
	require.Len(t, result.Flashcards, 1)
	assert.Equal(t, "notes.pdf", result.Topic)
}
