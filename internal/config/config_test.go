package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("STORAGE_BACKEND", BackendSQLite)
	t.Setenv("SHEET_ID", "")
	t.Setenv("GOOGLE_CREDS_JSON", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.TelegramBotToken)
	assert.Equal(t, "bot.db", cfg.DatabasePath)
	assert.Equal(t, "5000", cfg.Port)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SheetsRequiresCreds(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("STORAGE_BACKEND", BackendSheets)
	t.Setenv("SHEET_ID", "")
	t.Setenv("GOOGLE_CREDS_JSON", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("STORAGE_BACKEND", "redis")

	_, err := Load()
	assert.Error(t, err)
}
