package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"studygen/internal/llmjson"
	"studygen/internal/models"
)

// imageCardCap bounds the image path to a single card regardless of what
// the model returns; extras are discarded, not treated as an error.
const imageCardCap = 1

// CardGenerator turns content records into flashcards, threading the
// running list of previously generated cards into each text-path call so
// the model avoids repeating concepts.
type CardGenerator struct {
	model ChatModel
}

func NewCardGenerator(model ChatModel) *CardGenerator {
	return &CardGenerator{model: model}
}

// Process folds over records in order, dispatching each by origin type and
// feeding the accumulated flashcards into every subsequent text-path call
// as de-duplication context. A record that produces nothing contributes
// zero cards; the batch never aborts early.
//
// The image path deliberately receives no de-duplication context,
// matching the source behavior this pipeline reproduces.
func (g *CardGenerator) Process(ctx context.Context, records []*models.ContentRecord) []models.Flashcard {
	var all []models.Flashcard
	for _, record := range records {
		if record == nil {
			continue
		}
		switch record.Origin {
		case models.ContentImage:
			all = append(all, g.FromImage(ctx, *record, nil)...)
		default:
			all = append(all, g.FromWebContent(ctx, *record, all)...)
		}
	}
	return all
}

// FromWebContent generates 3-5 flashcards from text content. Failures of
// any kind yield an empty list, never an error.
func (g *CardGenerator) FromWebContent(ctx context.Context, record models.ContentRecord, previous []models.Flashcard) []models.Flashcard {
	user := fmt.Sprintf(webFlashcardUserPromptFmt,
		record.Title, record.Link, serializeCards(previous), record.Body)

	response, err := g.model.Complete(ctx, webFlashcardSystemPrompt, user)
	if err != nil {
		slog.Error("web flashcard generation failed", "title", record.Title, "error", err)
		return nil
	}

	cards := g.parseCards(response, record, models.ContentText)
	if len(cards) == 0 {
		slog.Warn("no flashcards parsed from web content response", "title", record.Title)
	}
	return cards
}

// FromImage generates exactly one flashcard from an image record. If the
// model emits more than one, only the first is kept.
func (g *CardGenerator) FromImage(ctx context.Context, record models.ContentRecord, previous []models.Flashcard) []models.Flashcard {
	imageURL := record.Link
	if imageURL == "" {
		return nil
	}
	user := fmt.Sprintf(imageFlashcardUserPromptFmt,
		serializeCards(previous), record.Title, imageURL)

	response, err := g.model.CompleteWithImage(ctx, imageFlashcardSystemPrompt, user, imageURL)
	if err != nil {
		slog.Error("image flashcard generation failed", "image", imageURL, "error", err)
		return nil
	}

	cards := g.parseCards(response, record, models.ContentImage)
	if len(cards) > imageCardCap {
		slog.Warn("model returned multiple flashcards for image, keeping the first",
			"image", imageURL, "count", len(cards))
		cards = cards[:imageCardCap]
	}
	return cards
}

// parseCards extracts the flashcards array from model output, drops cards
// with empty question or answer, and fills in missing source/type from the
// record.
func (g *CardGenerator) parseCards(response string, record models.ContentRecord, cardType models.ContentType) []models.Flashcard {
	var parsed struct {
		Flashcards []models.Flashcard `json:"flashcards"`
	}
	if !llmjson.Unmarshal(response, "flashcards", &parsed) {
		return nil
	}

	out := make([]models.Flashcard, 0, len(parsed.Flashcards))
	for _, card := range parsed.Flashcards {
		card.Question = strings.TrimSpace(card.Question)
		card.Answer = strings.TrimSpace(card.Answer)
		if card.Question == "" || card.Answer == "" {
			continue
		}
		card.Type = cardType
		if card.Source == "" || cardType == models.ContentImage {
			card.Source = record.Link
		}
		out = append(out, card)
	}
	return out
}

// serializeCards renders the de-duplication context for a prompt.
func serializeCards(cards []models.Flashcard) string {
	if len(cards) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(cards)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
