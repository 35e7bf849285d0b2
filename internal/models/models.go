package models

import (
	"database/sql"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
)

// ContentType tags queries, content records, and flashcards with the kind
// of material they carry.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentFile  ContentType = "file"
)

// Query is a single planned search request with an associated content type.
// Ordering is significant: the planner emits queries in a pedagogical
// progression and the fetcher consumes them in that order.
type Query struct {
	Query string      `json:"query"`
	Type  ContentType `json:"type"`
}

// ContentRecord is normalized fetched content ready for summarization and
// flashcard generation. For image content, Body and Link both hold the
// direct image URL. Records are transient and never persisted.
type ContentRecord struct {
	Title  string      `json:"title"`
	Body   string      `json:"body"`
	Link   string      `json:"link,omitempty"`
	Origin ContentType `json:"origin"`
}

// Flashcard is a question/answer pair with its provenance link. Image-typed
// cards carry the image URL as Source.
type Flashcard struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Source   string      `json:"source,omitempty"`
	Type     ContentType `json:"type"`
}

// QuizQuestion is a 4-option multiple-choice question derived from the
// flashcard set. ImageURL is set only when the question derives from an
// image flashcard.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	ImageURL      string   `json:"image_url,omitempty"`
}

// FileContent is a decoded uploaded document as supplied by the extraction
// collaborator.
type FileContent struct {
	Content  string       `json:"content"`
	Metadata FileMetadata `json:"metadata"`
}

type FileMetadata struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

// Deck is a persisted set of generated flashcards for one topic or upload.
// The quiz, once generated, is cached on the deck and only replaced
// wholesale by regeneration.
type Deck struct {
	ID        int64
	SessionID string
	Topic     string
	Origin    ContentType
	CreatedAt time.Time
}

// Card is a persisted flashcard together with its FSRS scheduling state.
type Card struct {
	ID            int64
	DeckID        int64
	Question      string
	Answer        string
	Source        sql.NullString
	Type          ContentType
	Due           sql.NullTime
	Stability     float64
	Difficulty    float64
	ElapsedDays   int
	ScheduledDays int
	Reps          int
	Lapses        int
	State         int
	LastReview    sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Flashcard strips the scheduling state back down to the pipeline shape.
func (c *Card) Flashcard() Flashcard {
	return Flashcard{
		Question: c.Question,
		Answer:   c.Answer,
		Source:   c.Source.String,
		Type:     c.Type,
	}
}

func (c *Card) ToFSRSCard() fsrs.Card {
	card := fsrs.Card{
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(max(c.ElapsedDays, 0)),
		ScheduledDays: uint64(max(c.ScheduledDays, 0)),
		Reps:          uint64(max(c.Reps, 0)),
		Lapses:        uint64(max(c.Lapses, 0)),
		State:         fsrs.State(max(c.State, 0)),
	}
	if c.Due.Valid {
		card.Due = c.Due.Time
	}
	if c.LastReview.Valid {
		card.LastReview = c.LastReview.Time
	}
	return card
}

func (c *Card) ApplyFSRSCard(f fsrs.Card) {
	c.Due = sql.NullTime{Time: f.Due, Valid: !f.Due.IsZero()}
	c.Stability = f.Stability
	c.Difficulty = f.Difficulty
	c.ElapsedDays = int(f.ElapsedDays)
	c.ScheduledDays = int(f.ScheduledDays)
	c.Reps = int(f.Reps)
	c.Lapses = int(f.Lapses)
	c.State = int(f.State)
	c.LastReview = sql.NullTime{Time: f.LastReview, Valid: !f.LastReview.IsZero()}
}

// ReviewLog records a single review rating for a card.
type ReviewLog struct {
	ID            int64
	CardID        int64
	Rating        int
	ScheduledDays int
	ElapsedDays   int
	State         int
	ReviewedAt    time.Time
}
