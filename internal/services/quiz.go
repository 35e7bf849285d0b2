package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"studygen/internal/llmjson"
	"studygen/internal/models"
)

// quizOptionCount is the required number of options per question.
const quizOptionCount = 4

// QuizGenerator derives a fixed-size multiple-choice quiz from the full
// flashcard set.
type QuizGenerator struct {
	model ChatModel
}

func NewQuizGenerator(model ChatModel) *QuizGenerator {
	return &QuizGenerator{model: model}
}

// CreateQuiz serializes the flashcards into one prompt and parses the
// resulting quiz. An empty flashcard list short-circuits to an empty quiz
// without invoking the model. Questions that fail validation are logged
// and filtered out of the returned list.
func (g *QuizGenerator) CreateQuiz(ctx context.Context, cards []models.Flashcard) []models.QuizQuestion {
	if len(cards) == 0 {
		return nil
	}

	user := fmt.Sprintf(quizUserPromptFmt, serializeCards(cards))
	response, err := g.model.Complete(ctx, quizSystemPrompt, user)
	if err != nil {
		slog.Error("quiz generation failed", "cards", len(cards), "error", err)
		return nil
	}

	var parsed struct {
		Quiz []models.QuizQuestion `json:"quiz"`
	}
	if !llmjson.Unmarshal(response, "quiz", &parsed) {
		slog.Warn("no quiz object in model response")
		return nil
	}

	out := make([]models.QuizQuestion, 0, len(parsed.Quiz))
	for i, question := range parsed.Quiz {
		if reason := validateQuestion(question); reason != "" {
			slog.Warn("dropping invalid quiz question", "index", i, "reason", reason)
			continue
		}
		out = append(out, question)
	}
	return out
}

func validateQuestion(q models.QuizQuestion) string {
	if strings.TrimSpace(q.Question) == "" {
		return "empty question"
	}
	if len(q.Options) != quizOptionCount {
		return fmt.Sprintf("expected %d options, got %d", quizOptionCount, len(q.Options))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= quizOptionCount {
		return fmt.Sprintf("correct_answer %d out of range", q.CorrectAnswer)
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return "empty explanation"
	}
	return ""
}
