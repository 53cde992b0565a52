package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	OpenAIAPIKey        string
	OpenAIAPIURL        string
	OpenAIModel         string
	OpenAIFallbackModel string

	WhisperAPIURL string
	WhisperAPIKey string
	WhisperModel  string

	YouTubeAPIKey string
	CookiesPath   string

	RelayEndpoints   []string
	RelayMaxAttempts int
	RelayBackoffBase time.Duration
	RelayBackoffMax  time.Duration

	ChunkSize        int
	ChunkOverlap     int
	ChunkConcurrency int
}

// Load reads .env when present, then assembles the config from the
// environment. Missing optional keys fall back to defaults; the two keys the
// pipelines cannot run without are validated here.
func Load() (*Config, error) {
	// A missing .env just means pure-env configuration.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIAPIURL:        getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIFallbackModel: os.Getenv("OPENAI_FALLBACK_MODEL"),

		WhisperAPIURL: getEnv("WHISPER_API_URL", "https://api.openai.com/v1/audio/transcriptions"),
		WhisperAPIKey: os.Getenv("WHISPER_API_KEY"),
		WhisperModel:  getEnv("WHISPER_MODEL", "whisper-1"),

		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
		CookiesPath:   os.Getenv("YTDLP_COOKIES"),

		RelayEndpoints:   splitList(os.Getenv("RELAY_ENDPOINTS")),
		RelayMaxAttempts: GetEnvInt("VERIFY_UPLOAD_MAX_ATTEMPTS", 4),
		RelayBackoffBase: getEnvSeconds("VERIFY_UPLOAD_BACKOFF_BASE", 0.5),
		RelayBackoffMax:  getEnvSeconds("VERIFY_UPLOAD_BACKOFF_MAX", 6.0),

		ChunkSize:        GetEnvInt("STEP_CHUNK_SIZE", 150),
		ChunkOverlap:     GetEnvInt("STEP_CHUNK_OVERLAP", 15),
		ChunkConcurrency: GetEnvInt("STEP_CONCURRENCY", 2),
	}
	if cfg.WhisperAPIKey == "" {
		cfg.WhisperAPIKey = cfg.OpenAIAPIKey
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if cfg.YouTubeAPIKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by
// key, or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvSeconds reads a duration expressed as fractional seconds
// ("0.5" => 500ms), or fallback if unset or unparsable.
func getEnvSeconds(key string, fallback float64) time.Duration {
	seconds := fallback
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			seconds = f
		}
	}
	return time.Duration(seconds * float64(time.Second))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
