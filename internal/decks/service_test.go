package decks_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygen/internal/db"
	"studygen/internal/decks"
	"studygen/internal/models"
)

func newTestService(t *testing.T) *decks.Service {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return decks.NewService(database)
}

func sampleCards() []models.Flashcard {
	return []models.Flashcard{
		{Question: "What is photosynthesis?", Answer: "Conversion of light into chemical energy.", Source: "https://example.org/photo", Type: models.ContentText},
		{Question: "Where does it happen?", Answer: "In the chloroplasts.", Source: "https://example.org/photo", Type: models.ContentText},
		{Question: "What does this diagram show?", Answer: "The light-dependent reactions.", Source: "https://img.example.org/diagram.png", Type: models.ContentImage},
	}
}

func TestSaveDeckAndListCards(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	deck, err := svc.SaveDeck(ctx, "session-1", "Photosynthesis", models.ContentText, sampleCards())
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis", deck.Topic)
	assert.Equal(t, "session-1", deck.SessionID)

	cards, err := svc.ListCards(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "What is photosynthesis?", cards[0].Question)
	assert.Equal(t, models.ContentImage, cards[2].Type)
	assert.False(t, cards[0].Due.Valid, "unseen cards carry no due date")
}

func TestSaveDeckRejectsEmpty(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SaveDeck(context.Background(), "session-1", "Empty", models.ContentText, nil)
	require.Error(t, err)
}

func TestListDecksScopedToSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveDeck(ctx, "session-a", "Topic A", models.ContentText, sampleCards())
	require.NoError(t, err)
	_, err = svc.SaveDeck(ctx, "session-b", "Topic B", models.ContentFile, sampleCards())
	require.NoError(t, err)

	got, err := svc.ListDecks(ctx, "session-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Topic A", got[0].Topic)
}

func TestGetDeckNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetDeck(context.Background(), 999)
	assert.ErrorIs(t, err, decks.ErrNotFound)
}

func TestQuizRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	deck, err := svc.SaveDeck(ctx, "session-1", "Photosynthesis", models.ContentText, sampleCards())
	require.NoError(t, err)

	before, err := svc.GetQuiz(ctx, deck.ID)
	require.NoError(t, err)
	assert.Nil(t, before)

	quiz := []models.QuizQuestion{
		{
			Question:      "Which organelle hosts photosynthesis?",
			Options:       []string{"Mitochondrion", "Chloroplast", "Nucleus", "Ribosome"},
			CorrectAnswer: 1,
			Explanation:   "Chloroplasts contain the photosynthetic machinery.",
		},
	}
	require.NoError(t, svc.SaveQuiz(ctx, deck.ID, quiz))

	after, err := svc.GetQuiz(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, 1, after[0].CorrectAnswer)
	assert.Len(t, after[0].Options, 4)
}

func TestSaveQuizMissingDeck(t *testing.T) {
	svc := newTestService(t)

	err := svc.SaveQuiz(context.Background(), 42, []models.QuizQuestion{})
	assert.ErrorIs(t, err, decks.ErrNotFound)
}

func TestNextCardWalksUnseenCards(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	deck, err := svc.SaveDeck(ctx, "session-1", "Photosynthesis", models.ContentText, sampleCards())
	require.NoError(t, err)

	first, err := svc.NextCard(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is photosynthesis?", first.Question)

	// Rating the first card gives it a future due date, so the next pick
	// moves on to the second unseen card.
	_, _, err = svc.ReviewCard(ctx, first.ID, fsrs.Good)
	require.NoError(t, err)

	second, err := svc.NextCard(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Where does it happen?", second.Question)
}

func TestNextCardNoDue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	deck, err := svc.SaveDeck(ctx, "session-1", "Photosynthesis", models.ContentText, sampleCards())
	require.NoError(t, err)

	cards, err := svc.ListCards(ctx, deck.ID)
	require.NoError(t, err)
	for _, card := range cards {
		_, _, err = svc.ReviewCard(ctx, card.ID, fsrs.Easy)
		require.NoError(t, err)
	}

	_, err = svc.NextCard(ctx, deck.ID)
	assert.ErrorIs(t, err, decks.ErrNoDueCards)
}

func TestReviewCardUpdatesSchedule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	deck, err := svc.SaveDeck(ctx, "session-1", "Photosynthesis", models.ContentText, sampleCards())
	require.NoError(t, err)
	card, err := svc.NextCard(ctx, deck.ID)
	require.NoError(t, err)

	updated, log, err := svc.ReviewCard(ctx, card.ID, fsrs.Good)
	require.NoError(t, err)
	assert.True(t, updated.Due.Valid)
	assert.True(t, updated.Due.Time.After(time.Now().Add(-time.Minute)))
	assert.Equal(t, 1, updated.Reps)
	assert.Equal(t, int(fsrs.Good), log.Rating)
	assert.Equal(t, card.ID, log.CardID)
}

func TestReviewCardNotFound(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.ReviewCard(context.Background(), 123, fsrs.Again)
	assert.ErrorIs(t, err, decks.ErrNotFound)
}
