// Команда reminder запускается внешним планировщиком:
//
//	reminder checkin  — утреннее напоминание взвеситься
//	reminder checkout — вечерний отчёт за день
package main

import (
	"context"
	"log"
	"os"

	"github.com/Maxim19822003/bot-hudey/internal/config"
	"github.com/Maxim19822003/bot-hudey/internal/ledger"
	"github.com/Maxim19822003/bot-hudey/internal/profile"
	"github.com/Maxim19822003/bot-hudey/internal/reminder"
	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
	"github.com/Maxim19822003/bot-hudey/internal/telegram"
)

func main() {
	if len(os.Args) < 2 {
		log.Println("Использование: reminder [checkin|checkout]")
		os.Exit(1)
	}
	mode := os.Args[1]
	if mode != reminder.ModeCheckin && mode != reminder.ModeCheckout {
		log.Printf("Неизвестный режим: %s", mode)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Не удалось открыть хранилище: %v", err)
	}
	defer store.Close()

	if err := schema.Ensure(ctx, store); err != nil {
		log.Fatalf("Не удалось подготовить таблицы: %v", err)
	}

	tg, err := telegram.New(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Не удалось создать клиент Telegram: %v", err)
	}

	scanner := reminder.New(profile.New(store), ledger.New(store), tg, cfg.PublicBaseURL)
	if err := scanner.Run(ctx, mode); err != nil {
		log.Fatalf("Ошибка обхода напоминаний: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.BackendSQLite {
		return storage.NewSQLite(cfg.DatabasePath)
	}
	return storage.NewSheets(ctx, cfg.SheetID, []byte(cfg.GoogleCredsJSON))
}
