// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Review   ReviewConfig
	Speech   SpeechConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds the local database settings
type DatabaseConfig struct {
	Path string
}

// ReviewConfig holds limits for wordbooks and imports
type ReviewConfig struct {
	MaxWordbooks    int
	MaxWordsPerBook int
}

// SpeechConfig holds the text-to-speech command template
type SpeechConfig struct {
	Command string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables. A .env file in
// the working directory is loaded first when present; a missing file is
// fine since everything has a default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	dbPath := os.Getenv("KIOKU_DB_PATH")
	if dbPath == "" {
		dbPath = "kioku.db"
	}
	cfg.Database.Path = dbPath

	maxBooks, err := intEnv("KIOKU_MAX_WORDBOOKS", 20)
	if err != nil {
		return nil, err
	}
	cfg.Review.MaxWordbooks = maxBooks

	maxWords, err := intEnv("KIOKU_MAX_WORDS_PER_BOOK", 5000)
	if err != nil {
		return nil, err
	}
	cfg.Review.MaxWordsPerBook = maxWords

	cfg.Speech.Command = os.Getenv("KIOKU_SPEECH_CMD")

	logLevel := os.Getenv("KIOKU_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}
