package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"studygen/internal/api"
	"studygen/internal/config"
	"studygen/internal/db"
	"studygen/internal/decks"
	"studygen/internal/extract"
	"studygen/internal/llm"
	"studygen/internal/search"
	"studygen/internal/services"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := config.Load()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	model := llm.NewClient(cfg.OpenAIKey, cfg.OpenAIEndpoint, cfg.OpenAIModel, cfg.OpenAIImageModel, cfg.InferenceTimeout)
	provider := search.NewClient(search.Config{
		APIKey:  cfg.SerpAPIKey,
		BaseURL: cfg.SerpAPIBaseURL,
		Timeout: cfg.InferenceTimeout,
	})
	reader := search.NewReader(search.ReaderConfig{
		BaseURL: cfg.ReaderBaseURL,
		APIKey:  cfg.ReaderKey,
		Timeout: cfg.InferenceTimeout,
	})

	lessons := services.NewLessonService(
		services.NewPlanner(model),
		provider,
		reader,
		services.NewSummarizer(model),
		services.NewCardGenerator(model),
		services.NewQuizGenerator(model),
	)
	deckService := decks.NewService(conn)
	extractService := extract.NewService(cfg.UploadDir)

	server := api.NewServer(lessons, deckService, extractService)
	mux := http.NewServeMux()

	staticFS := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static/", staticFS))

	mux.Handle("/api", server.Handler())
	mux.Handle("/api/", server.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("listening", "port", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
