package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	OpenAIKey        string
	OpenAIEndpoint   string
	OpenAIModel      string
	OpenAIImageModel string
	SerpAPIKey       string
	SerpAPIBaseURL   string
	ReaderBaseURL    string
	ReaderKey        string
	InferenceTimeout int // seconds
	Database         string
	UploadDir        string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIEndpoint:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "Meta-Llama-3.1-8B-Instruct"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "Llama-3.2-11B-Vision-Instruct"),
		SerpAPIKey:       os.Getenv("SERPAPI_API_KEY"),
		SerpAPIBaseURL:   getEnv("SERPAPI_BASE_URL", "https://serpapi.com"),
		ReaderBaseURL:    getEnv("READER_BASE_URL", "https://r.jina.ai"),
		ReaderKey:        os.Getenv("JINA_API_KEY"),
		InferenceTimeout: getEnvInt("INFERENCE_TIMEOUT", 30),
		Database:         getEnv("DATABASE_PATH", "./data/studygen.db"),
		UploadDir:        getEnv("UPLOAD_DIR", "./static/uploads"),
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		slog.Error("failed to ensure upload dir", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		slog.Error("failed to ensure database dir", "dir", cfg.Database, "error", err)
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
