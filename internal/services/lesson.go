package services

import (
	"context"
	"errors"
	"log/slog"

	"studygen/internal/models"
	"studygen/internal/search"
)

// ErrNoContent indicates that a lesson produced no flashcards; the caller
// surfaces this as a recoverable, user-visible condition.
var ErrNoContent = errors.New("no content could be generated for this topic")

// defaultQueryCount is how many sub-queries a topic expands into when the
// caller does not say otherwise.
const defaultQueryCount = 5

// LessonService runs the full pipeline: plan queries, fetch and summarize
// content, and generate flashcards as one sequential fold. Query order is
// a contract: each step's output feeds the next step's de-duplication
// context, so queries are never processed concurrently.
type LessonService struct {
	planner    *Planner
	provider   search.Provider
	reader     search.PageReader
	summarizer *Summarizer
	cards      *CardGenerator
	quiz       *QuizGenerator
}

func NewLessonService(
	planner *Planner,
	provider search.Provider,
	reader search.PageReader,
	summarizer *Summarizer,
	cards *CardGenerator,
	quiz *QuizGenerator,
) *LessonService {
	return &LessonService{
		planner:    planner,
		provider:   provider,
		reader:     reader,
		summarizer: summarizer,
		cards:      cards,
		quiz:       quiz,
	}
}

// LessonResult is the outcome of one pipeline run.
type LessonResult struct {
	Topic      string             `json:"topic"`
	Queries    []models.Query     `json:"queries"`
	Flashcards []models.Flashcard `json:"flashcards"`
	// Skipped lists queries that yielded no content, for observability.
	Skipped []string `json:"skipped,omitempty"`
}

// GenerateLesson expands topic into queries and folds them into a
// flashcard list. Individual query failures are skipped; the run only
// fails entirely when nothing at all could be produced.
func (s *LessonService) GenerateLesson(ctx context.Context, topic string, numQueries int) (*LessonResult, error) {
	if numQueries <= 0 {
		numQueries = defaultQueryCount
	}

	queries := s.planner.Plan(ctx, topic, numQueries)
	if len(queries) == 0 {
		return nil, ErrNoContent
	}

	result := &LessonResult{Topic: topic, Queries: queries}

	// The fetcher and its URL cache live for exactly this run.
	fetcher := NewFetcher(s.provider, s.reader)
	records := make([]*models.ContentRecord, 0, len(queries))
	for _, query := range queries {
		record := fetcher.Fetch(ctx, query)
		if record == nil {
			result.Skipped = append(result.Skipped, query.Query)
			continue
		}
		if record.Origin == models.ContentText {
			record.Body = s.summarizer.Summarize(ctx, record.Body)
		}
		records = append(records, record)
	}

	result.Flashcards = s.cards.Process(ctx, records)
	if len(result.Flashcards) == 0 {
		return nil, ErrNoContent
	}

	slog.Info("lesson generated",
		"topic", topic,
		"queries", len(queries),
		"skipped", len(result.Skipped),
		"flashcards", len(result.Flashcards))
	return result, nil
}

// GenerateFromFile runs the tail of the pipeline over an already decoded
// uploaded document, bypassing the planner and fetcher.
func (s *LessonService) GenerateFromFile(ctx context.Context, file models.FileContent) (*LessonResult, error) {
	record := models.ContentRecord{
		Title:  file.Metadata.FileName,
		Body:   s.summarizer.Summarize(ctx, file.Content),
		Origin: models.ContentFile,
	}
	if record.Body == "" {
		return nil, ErrNoContent
	}

	cards := s.cards.FromWebContent(ctx, record, nil)
	if len(cards) == 0 {
		return nil, ErrNoContent
	}

	slog.Info("lesson generated from file", "file", file.Metadata.FileName, "flashcards", len(cards))
	return &LessonResult{Topic: file.Metadata.FileName, Flashcards: cards}, nil
}

// CreateQuiz derives the multiple-choice quiz for a flashcard set.
func (s *LessonService) CreateQuiz(ctx context.Context, cards []models.Flashcard) []models.QuizQuestion {
	return s.quiz.CreateQuiz(ctx, cards)
}
