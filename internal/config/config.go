package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Бэкенды хранилища
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

type Config struct {
	TelegramBotToken string
	StorageBackend   string
	SheetID          string
	GoogleCredsJSON  string
	DatabasePath     string
	WebhookSecret    string
	PublicBaseURL    string
	Port             string
}

// Load читает конфигурацию из окружения (.env подхватывается, если есть).
// Отсутствие обязательных переменных — фатальная ошибка старта, а не
// ленивый отказ при первом использовании.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("BOT_TOKEN"),
		StorageBackend:   getEnv("STORAGE_BACKEND", BackendSheets),
		SheetID:          os.Getenv("SHEET_ID"),
		GoogleCredsJSON:  os.Getenv("GOOGLE_CREDS_JSON"),
		DatabasePath:     getEnv("DATABASE_PATH", "bot.db"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		PublicBaseURL:    os.Getenv("PUBLIC_BASE_URL"),
		Port:             getEnv("PORT", "5000"),
	}

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("не задан BOT_TOKEN")
	}

	switch cfg.StorageBackend {
	case BackendSheets:
		if cfg.SheetID == "" || cfg.GoogleCredsJSON == "" {
			return nil, fmt.Errorf("для бэкенда sheets нужны SHEET_ID и GOOGLE_CREDS_JSON")
		}
	case BackendSQLite:
		// DATABASE_PATH имеет значение по умолчанию
	default:
		return nil, fmt.Errorf("неизвестный STORAGE_BACKEND: %s", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
