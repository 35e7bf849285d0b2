package llmjson_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygen/internal/llmjson"
	"studygen/internal/models"
)

func TestObject_FindsEmbeddedJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
		want string
	}{
		{
			name: "bare object",
			text: `{"queries": [{"query": "What is photosynthesis?", "type": "text"}]}`,
			key:  "queries",
			want: `{"queries": [{"query": "What is photosynthesis?", "type": "text"}]}`,
		},
		{
			name: "leading and trailing prose",
			text: "Sure! Here are your queries:\n{\"queries\": []}\nLet me know if you need more.",
			key:  "queries",
			want: `{"queries": []}`,
		},
		{
			name: "markdown fence",
			text: "```json\n{\"flashcards\": [{\"question\": \"Q\", \"answer\": \"A\"}]}\n```",
			key:  "flashcards",
			want: `{"flashcards": [{"question": "Q", "answer": "A"}]}`,
		},
		{
			name: "earlier object lacking the key is skipped",
			text: `{"note": "context"} and then {"quiz": []}`,
			key:  "quiz",
			want: `{"quiz": []}`,
		},
		{
			name: "braces inside string literals",
			text: `{"flashcards": [{"question": "What does {x} mean?", "answer": "a \"brace\" placeholder"}]}`,
			key:  "flashcards",
			want: `{"flashcards": [{"question": "What does {x} mean?", "answer": "a \"brace\" placeholder"}]}`,
		},
		{
			name: "deeply nested payload",
			text: `answer: {"quiz": [{"meta": {"tags": {"level": {"value": 3}}}}]}`,
			key:  "quiz",
			want: `{"quiz": [{"meta": {"tags": {"level": {"value": 3}}}}]}`,
		},
		{
			name: "invalid outer object with valid inner candidate",
			text: `{broken {"queries": [{"query": "q", "type": "image"}]} }`,
			key:  "queries",
			want: `{"queries": [{"query": "q", "type": "image"}]}`,
		},
		{
			name: "object wrapped in an array",
			text: `[{"queries": []}]`,
			key:  "queries",
			want: `{"queries": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := llmjson.Object(tt.text, tt.key)
			require.True(t, ok)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestObject_NotFound(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
	}{
		{name: "no JSON at all", text: "I could not produce any output, sorry.", key: "queries"},
		{name: "empty input", text: "", key: "queries"},
		{name: "truncated object", text: `{"queries": [{"query": "unfinished`, key: "queries"},
		{name: "valid JSON lacking the key", text: `{"results": [1, 2, 3]}`, key: "queries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := llmjson.Object(tt.text, tt.key)
			assert.False(t, ok)
			assert.Nil(t, raw)
		})
	}
}

// Serializing a well-formed entity under its key and extracting it back must
// reproduce the entity, regardless of surrounding noise.
func TestUnmarshal_RoundTrip(t *testing.T) {
	cards := []models.Flashcard{
		{Question: "What is photosynthesis?", Answer: "Conversion of light into chemical energy.", Source: "https://example.org/photo", Type: models.ContentText},
		{Question: "What does the diagram show?", Answer: "The light reactions.", Source: "https://example.org/diagram.png", Type: models.ContentImage},
	}
	payload, err := json.Marshal(map[string][]models.Flashcard{"flashcards": cards})
	require.NoError(t, err)

	wrappers := []string{
		"%s",
		"Here you go:\n%s\nHope that helps!",
		"```json\n%s\n```",
		"```\n%s\n```\nAnything else?",
	}
	for _, w := range wrappers {
		t.Run(w, func(t *testing.T) {
			var got struct {
				Flashcards []models.Flashcard `json:"flashcards"`
			}
			ok := llmjson.Unmarshal(fmt.Sprintf(w, string(payload)), "flashcards", &got)
			require.True(t, ok)
			assert.Equal(t, cards, got.Flashcards)
		})
	}
}

func TestUnmarshal_ShapeMismatch(t *testing.T) {
	var got struct {
		Quiz []models.QuizQuestion `json:"quiz"`
	}
	ok := llmjson.Unmarshal(`{"quiz": "not a list"}`, "quiz", &got)
	assert.False(t, ok)
}
