// Package decks persists generated flashcard decks and schedules their
// review with FSRS. The pipeline itself stays session-transient; saving a
// lesson into a deck is what makes its cards reviewable later.
package decks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"studygen/internal/models"
)

var (
	// ErrNoDueCards indicates that there are no cards ready to review.
	ErrNoDueCards = errors.New("no due cards")
	// ErrNotFound indicates the requested deck or card does not exist.
	ErrNotFound = errors.New("not found")
)

// Service owns deck persistence and FSRS card scheduling.
type Service struct {
	db     *sql.DB
	params fsrs.Parameters
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, params: fsrs.DefaultParam()}
}

// SaveDeck stores a generated flashcard set as a new deck with fresh FSRS
// state on every card.
func (s *Service) SaveDeck(ctx context.Context, sessionID, topic string, origin models.ContentType, cards []models.Flashcard) (*models.Deck, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("cannot save an empty deck")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO decks (session_id, topic, origin, created_at)
		VALUES (?, ?, ?, ?);
	`, sessionID, topic, string(origin), now)
	if err != nil {
		return nil, fmt.Errorf("insert deck: %w", err)
	}
	deckID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("deck id: %w", err)
	}

	for _, card := range cards {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cards (deck_id, question, answer, source, card_type, state, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?);
		`, deckID, card.Question, card.Answer, nullString(card.Source), string(card.Type), int(fsrs.New), now, now); err != nil {
			return nil, fmt.Errorf("insert card: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &models.Deck{
		ID:        deckID,
		SessionID: sessionID,
		Topic:     topic,
		Origin:    origin,
		CreatedAt: now,
	}, nil
}

// ListDecks returns the decks belonging to a session, newest first.
func (s *Service) ListDecks(ctx context.Context, sessionID string) ([]models.Deck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, topic, origin, created_at
		FROM decks
		WHERE session_id = ?
		ORDER BY created_at DESC;
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []models.Deck
	for rows.Next() {
		var deck models.Deck
		var origin string
		if err := rows.Scan(&deck.ID, &deck.SessionID, &deck.Topic, &origin, &deck.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		deck.Origin = models.ContentType(origin)
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

// GetDeck loads one deck by ID.
func (s *Service) GetDeck(ctx context.Context, deckID int64) (*models.Deck, error) {
	var deck models.Deck
	var origin string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, topic, origin, created_at
		FROM decks
		WHERE id = ?;
	`, deckID).Scan(&deck.ID, &deck.SessionID, &deck.Topic, &origin, &deck.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load deck %d: %w", deckID, err)
	}
	deck.Origin = models.ContentType(origin)
	return &deck, nil
}

// ListCards returns a deck's cards in creation order.
func (s *Service) ListCards(ctx context.Context, deckID int64) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deck_id, question, answer, source, card_type, due, stability, difficulty,
		       elapsed_days, scheduled_days, reps, lapses, state, last_review, created_at, updated_at
		FROM cards
		WHERE deck_id = ?
		ORDER BY id ASC;
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// SaveQuiz caches the generated quiz on its deck, replacing any previous
// quiz wholesale.
func (s *Service) SaveQuiz(ctx context.Context, deckID int64, quiz []models.QuizQuestion) error {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE decks SET quiz_json = ? WHERE id = ?;`, string(raw), deckID)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetQuiz returns the cached quiz for a deck, or nil when none has been
// generated yet.
func (s *Service) GetQuiz(ctx context.Context, deckID int64) ([]models.QuizQuestion, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT quiz_json FROM decks WHERE id = ?;`, deckID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var quiz []models.QuizQuestion
	if err := json.Unmarshal([]byte(raw.String), &quiz); err != nil {
		return nil, fmt.Errorf("unmarshal cached quiz: %w", err)
	}
	return quiz, nil
}

// NextCard returns the next card due for review in a deck: due cards
// first, then the oldest unseen card.
func (s *Service) NextCard(ctx context.Context, deckID int64) (*models.Card, error) {
	now := time.Now().UTC()

	card, err := s.fetchCard(ctx, `
		SELECT id, deck_id, question, answer, source, card_type, due, stability, difficulty,
		       elapsed_days, scheduled_days, reps, lapses, state, last_review, created_at, updated_at
		FROM cards
		WHERE deck_id = ? AND due IS NOT NULL AND due <= ?
		ORDER BY due ASC
		LIMIT 1;
	`, deckID, now)
	if err == nil {
		return card, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	card, err = s.fetchCard(ctx, `
		SELECT id, deck_id, question, answer, source, card_type, due, stability, difficulty,
		       elapsed_days, scheduled_days, reps, lapses, state, last_review, created_at, updated_at
		FROM cards
		WHERE deck_id = ? AND due IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT 1;
	`, deckID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDueCards
		}
		return nil, err
	}
	return card, nil
}

// ReviewCard applies an FSRS rating to a card and records the review.
func (s *Service) ReviewCard(ctx context.Context, cardID int64, rating fsrs.Rating) (*models.Card, *models.ReviewLog, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	card, err := s.fetchCardTx(ctx, tx, cardID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	scheduling := s.params.Repeat(card.ToFSRSCard(), now)
	info, ok := scheduling[rating]
	if !ok {
		return nil, nil, fmt.Errorf("rating %d not supported", rating)
	}
	card.ApplyFSRSCard(info.Card)
	card.UpdatedAt = now

	if _, err = tx.ExecContext(ctx, `
		UPDATE cards
		SET due = ?, stability = ?, difficulty = ?, elapsed_days = ?, scheduled_days = ?,
		    reps = ?, lapses = ?, state = ?, last_review = ?, updated_at = ?
		WHERE id = ?;
	`, card.Due, card.Stability, card.Difficulty, card.ElapsedDays, card.ScheduledDays,
		card.Reps, card.Lapses, card.State, card.LastReview, card.UpdatedAt, card.ID); err != nil {
		return nil, nil, fmt.Errorf("update card %d: %w", card.ID, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO review_logs (card_id, rating, scheduled_days, elapsed_days, state, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`, card.ID, int(info.ReviewLog.Rating), int(info.ReviewLog.ScheduledDays), int(info.ReviewLog.ElapsedDays), int(info.ReviewLog.State), now)
	if err != nil {
		return nil, nil, fmt.Errorf("insert review log: %w", err)
	}
	logID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("review log id: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	log := &models.ReviewLog{
		ID:            logID,
		CardID:        card.ID,
		Rating:        int(info.ReviewLog.Rating),
		ScheduledDays: int(info.ReviewLog.ScheduledDays),
		ElapsedDays:   int(info.ReviewLog.ElapsedDays),
		State:         int(info.ReviewLog.State),
		ReviewedAt:    now,
	}
	return card, log, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	var cardType string
	if err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.Question,
		&card.Answer,
		&card.Source,
		&cardType,
		&card.Due,
		&card.Stability,
		&card.Difficulty,
		&card.ElapsedDays,
		&card.ScheduledDays,
		&card.Reps,
		&card.Lapses,
		&card.State,
		&card.LastReview,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}
	card.Type = models.ContentType(cardType)
	return card, nil
}

func (s *Service) fetchCard(ctx context.Context, query string, args ...any) (*models.Card, error) {
	return scanCard(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Service) fetchCardTx(ctx context.Context, tx *sql.Tx, cardID int64) (*models.Card, error) {
	card, err := scanCard(tx.QueryRowContext(ctx, `
		SELECT id, deck_id, question, answer, source, card_type, due, stability, difficulty,
		       elapsed_days, scheduled_days, reps, lapses, state, last_review, created_at, updated_at
		FROM cards
		WHERE id = ?;
	`, cardID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load card %d: %w", cardID, err)
	}
	return card, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
