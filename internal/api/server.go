package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"studygen/internal/decks"
	"studygen/internal/extract"
	"studygen/internal/models"
	"studygen/internal/services"
)

const maxMultipartMemory = 8 << 20 // 8 MB

type Server struct {
	mux     *http.ServeMux
	lessons *services.LessonService
	decks   *decks.Service
	extract *extract.Service
	jobs    *JobManager
}

func NewServer(
	lessons *services.LessonService,
	deckService *decks.Service,
	extractService *extract.Service,
) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		lessons: lessons,
		decks:   deckService,
		extract: extractService,
		jobs:    NewJobManager(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/lessons", s.handleCreateLesson)
	s.mux.HandleFunc("/api/lessons/jobs/", s.handleJobStatus)
	s.mux.HandleFunc("/api/documents", s.handleUploadDocument)
	s.mux.HandleFunc("/api/decks", s.handleListDecks)
	s.mux.HandleFunc("/api/decks/", s.handleDeckActions)
	s.mux.HandleFunc("/api/cards/", s.handleCardActions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createLessonRequest struct {
	Topic      string `json:"topic"`
	SessionID  string `json:"session_id"`
	NumQueries int    `json:"num_queries"`
}

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload createLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	payload.Topic = strings.TrimSpace(payload.Topic)
	if payload.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	if payload.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	jobID, snapshot := s.jobs.CreateJob(payload.Topic)
	go s.runLessonJob(context.Background(), jobID, payload)

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) runLessonJob(ctx context.Context, jobID string, req createLessonRequest) {
	s.jobs.MarkProcessing(jobID, "generating")

	result, err := s.lessons.GenerateLesson(ctx, req.Topic, req.NumQueries)
	if err != nil {
		s.jobs.MarkFailed(jobID, friendlyError(err))
		return
	}

	s.jobs.MarkProcessing(jobID, "saving")
	deck, err := s.decks.SaveDeck(ctx, req.SessionID, req.Topic, models.ContentText, result.Flashcards)
	if err != nil {
		slog.Error("failed to save generated deck", "topic", req.Topic, "error", err)
		s.jobs.MarkFailed(jobID, "the lesson was generated but could not be saved")
		return
	}

	queries := make([]string, 0, len(result.Queries))
	for _, q := range result.Queries {
		queries = append(queries, q.Query)
	}
	s.jobs.MarkCompleted(jobID, LessonResult{
		DeckID:     deck.ID,
		Flashcards: len(result.Flashcards),
		Queries:    queries,
		Skipped:    result.Skipped,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/lessons/jobs/")
	jobID = strings.Trim(jobID, "/")
	if jobID == "" {
		http.NotFound(w, r)
		return
	}

	job, ok := s.jobs.GetJob(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	header := files[0]

	src, err := header.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer src.Close()

	// Decoding is fast and validates the upload up front; the model
	// pipeline runs as a job like topic lessons do.
	content, err := s.extract.Decode(header.Filename, src)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	jobID, snapshot := s.jobs.CreateJob(header.Filename)
	go s.runFileJob(context.Background(), jobID, sessionID, *content)

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) runFileJob(ctx context.Context, jobID, sessionID string, content models.FileContent) {
	s.jobs.MarkProcessing(jobID, "generating")

	result, err := s.lessons.GenerateFromFile(ctx, content)
	if err != nil {
		s.jobs.MarkFailed(jobID, friendlyError(err))
		return
	}

	s.jobs.MarkProcessing(jobID, "saving")
	deck, err := s.decks.SaveDeck(ctx, sessionID, result.Topic, models.ContentFile, result.Flashcards)
	if err != nil {
		slog.Error("failed to save document deck", "file", result.Topic, "error", err)
		s.jobs.MarkFailed(jobID, "the lesson was generated but could not be saved")
		return
	}

	s.jobs.MarkCompleted(jobID, LessonResult{
		DeckID:     deck.ID,
		Flashcards: len(result.Flashcards),
	})
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	list, err := s.decks.ListDecks(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(list))
	for _, deck := range list {
		out = append(out, deckJSON(deck))
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": out})
}

func (s *Server) handleDeckActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/decks/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")

	deckID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	switch {
	case len(parts) == 1:
		s.handleGetDeck(w, r, deckID)
	case len(parts) == 2 && parts[1] == "quiz":
		s.handleQuiz(w, r, deckID)
	case len(parts) == 3 && parts[1] == "review" && parts[2] == "next":
		s.handleNextCard(w, r, deckID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request, deckID int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	deck, err := s.decks.GetDeck(r.Context(), deckID)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	cards, err := s.decks.ListCards(r.Context(), deckID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(cards))
	for _, card := range cards {
		out = append(out, cardJSON(card))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deck":  deckJSON(*deck),
		"cards": out,
	})
}

// handleQuiz serves the cached quiz on GET and regenerates it wholesale on
// POST.
func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request, deckID int64) {
	switch r.Method {
	case http.MethodGet:
		quiz, err := s.decks.GetQuiz(r.Context(), deckID)
		if err != nil {
			writeDeckError(w, err)
			return
		}
		if quiz == nil {
			writeError(w, http.StatusNotFound, "no quiz generated for this deck yet")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quiz": quiz})

	case http.MethodPost:
		cards, err := s.decks.ListCards(r.Context(), deckID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		flashcards := make([]models.Flashcard, 0, len(cards))
		for _, card := range cards {
			flashcards = append(flashcards, card.Flashcard())
		}

		quiz := s.lessons.CreateQuiz(r.Context(), flashcards)
		if len(quiz) == 0 {
			writeError(w, http.StatusBadGateway, "quiz generation produced no questions")
			return
		}
		if err := s.decks.SaveQuiz(r.Context(), deckID, quiz); err != nil {
			writeDeckError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quiz": quiz})

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleNextCard(w http.ResponseWriter, r *http.Request, deckID int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	card, err := s.decks.NextCard(r.Context(), deckID)
	if err != nil {
		if errors.Is(err, decks.ErrNoDueCards) {
			writeJSON(w, http.StatusOK, map[string]any{
				"card":    nil,
				"message": "No cards due. Come back later!",
			})
			return
		}
		writeDeckError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"card": cardJSON(*card)})
}

type reviewRequest struct {
	Rating string `json:"rating"`
}

func (s *Server) handleCardActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/cards/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "review" {
		http.NotFound(w, r)
		return
	}

	cardID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	var payload reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	rating, err := parseRating(payload.Rating)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, logEntry, err := s.decks.ReviewCard(r.Context(), cardID, rating)
	if err != nil {
		writeDeckError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"card": map[string]any{
			"id":    card.ID,
			"due":   nullTimeToString(card.Due),
			"state": card.State,
		},
		"log": map[string]any{
			"rating":  logEntry.Rating,
			"due_in":  logEntry.ScheduledDays,
			"updated": logEntry.ReviewedAt.Format(timeLayout),
		},
	})
}

const timeLayout = time.RFC3339

func deckJSON(deck models.Deck) map[string]any {
	return map[string]any{
		"id":         deck.ID,
		"topic":      deck.Topic,
		"origin":     deck.Origin,
		"created_at": deck.CreatedAt.Format(timeLayout),
	}
}

func cardJSON(card models.Card) map[string]any {
	return map[string]any{
		"id":       card.ID,
		"question": card.Question,
		"answer":   card.Answer,
		"source":   nullString(card.Source),
		"type":     card.Type,
		"due":      nullTimeToString(card.Due),
		"state":    card.State,
		"reps":     card.Reps,
	}
}

// friendlyError turns pipeline failures into user-facing job messages.
func friendlyError(err error) string {
	if errors.Is(err, services.ErrNoContent) {
		return "no content could be found for this topic, try rephrasing it"
	}
	return err.Error()
}

func writeDeckError(w http.ResponseWriter, err error) {
	if errors.Is(err, decks.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func parseRating(raw string) (fsrs.Rating, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "again":
		return fsrs.Again, nil
	case "hard":
		return fsrs.Hard, nil
	case "good":
		return fsrs.Good, nil
	case "easy":
		return fsrs.Easy, nil
	default:
		return 0, fmt.Errorf("unknown rating %q", raw)
	}
}

func nullTimeToString(t sql.NullTime) *string {
	if t.Valid {
		str := t.Time.Format(timeLayout)
		return &str
	}
	return nil
}

func nullString(v sql.NullString) *string {
	if v.Valid {
		str := v.String
		return &str
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
