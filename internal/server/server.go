// Package server собирает HTTP-поверхность: вебхук Telegram, JSON API
// мини-приложения, статику и health-check.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/Maxim19822003/bot-hudey/internal/bot"
	"github.com/Maxim19822003/bot-hudey/internal/ledger"
	"github.com/Maxim19822003/bot-hudey/internal/profile"
)

// Server связывает маршруты с компонентами
type Server struct {
	bot           *bot.Bot
	profiles      *profile.Registry
	meals         *ledger.Ledger
	webhookSecret string
	webDir        string
}

// New создаёт сервер; webDir — каталог статики мини-приложения
func New(b *bot.Bot, profiles *profile.Registry, meals *ledger.Ledger, webhookSecret, webDir string) *Server {
	return &Server{
		bot:           b,
		profiles:      profiles,
		meals:         meals,
		webhookSecret: webhookSecret,
		webDir:        webDir,
	}
}

// Router настраивает все маршруты
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", s.health)
	r.POST("/webhook", s.webhook)

	api := r.Group("/api")
	{
		api.GET("/today", s.today)
		api.POST("/profile_save", s.profileSave)
		api.GET("/weight_history", s.weightHistory)
	}

	if s.webDir != "" {
		r.Static("/web", s.webDir)
	}
	return r
}
