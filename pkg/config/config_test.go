package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KIOKU_DB_PATH", "")
	t.Setenv("KIOKU_LOG_LEVEL", "")
	t.Setenv("KIOKU_MAX_WORDBOOKS", "")
	t.Setenv("KIOKU_MAX_WORDS_PER_BOOK", "")
	t.Setenv("KIOKU_SPEECH_CMD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "kioku.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Review.MaxWordbooks)
	assert.Equal(t, 5000, cfg.Review.MaxWordsPerBook)
	assert.Empty(t, cfg.Speech.Command)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KIOKU_DB_PATH", "/tmp/words.db")
	t.Setenv("KIOKU_LOG_LEVEL", "debug")
	t.Setenv("KIOKU_MAX_WORDBOOKS", "5")
	t.Setenv("KIOKU_MAX_WORDS_PER_BOOK", "100")
	t.Setenv("KIOKU_SPEECH_CMD", "espeak-ng -v {lang} {text}")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/words.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Review.MaxWordbooks)
	assert.Equal(t, 100, cfg.Review.MaxWordsPerBook)
	assert.Equal(t, "espeak-ng -v {lang} {text}", cfg.Speech.Command)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("KIOKU_MAX_WORDBOOKS", "many")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("KIOKU_MAX_WORDBOOKS", "-1")
	_, err = Load()
	assert.Error(t, err)
}
