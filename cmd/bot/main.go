package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Maxim19822003/bot-hudey/internal/bot"
	"github.com/Maxim19822003/bot-hudey/internal/config"
	"github.com/Maxim19822003/bot-hudey/internal/estimator"
	"github.com/Maxim19822003/bot-hudey/internal/ledger"
	"github.com/Maxim19822003/bot-hudey/internal/profile"
	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/server"
	"github.com/Maxim19822003/bot-hudey/internal/session"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
	"github.com/Maxim19822003/bot-hudey/internal/telegram"
)

func main() {
	log.Println("Загрузка конфигурации...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Открытие хранилища...")
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

	profiles := profile.New(store)
	sessions := session.New(store)
	meals := ledger.New(store)

	dispatcher := bot.New(tg, profiles, sessions, meals, estimator.NewStub(), cfg.PublicBaseURL)
	srv := server.New(dispatcher, profiles, meals, cfg.WebhookSecret, "./web")

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("Сервер слушает порт %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка HTTP-сервера: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.BackendSQLite {
		return storage.NewSQLite(cfg.DatabasePath)
	}
	return storage.NewSheets(ctx, cfg.SheetID, []byte(cfg.GoogleCredsJSON))
}
