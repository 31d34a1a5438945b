// Package telegram — тонкая обёртка над Bot API: отправка сообщений,
// ответы на callback и разрешение ссылок на файлы. За интерфейсом Sender,
// чтобы диспетчер и напоминания могли получить фальшивку в тестах.
package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender — исходящая сторона чат-транспорта
type Sender interface {
	SendText(chatID int64, text string, keyboard *InlineKeyboard) error
	SendPhoto(chatID int64, photoURL, caption string) error
	AnswerCallback(callbackID string) error
	ResolveFileURL(fileID string) (string, error)
}

// Client — боевой клиент поверх tgbotapi
type Client struct {
	api *tgbotapi.BotAPI
}

// New авторизуется по токену бота
func New(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	log.Printf("Авторизован как @%s", api.Self.UserName)
	return &Client{api: api}, nil
}

// API отдаёт низкоуровневый клиент (нужен серверу для установки вебхука)
func (c *Client) API() *tgbotapi.BotAPI {
	return c.api
}

func (c *Client) SendText(chatID int64, text string, keyboard *InlineKeyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		// ReplyMarkup — interface{}, уедет в reply_markup как есть
		msg.ReplyMarkup = keyboard
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("ошибка отправки сообщения: %w", err)
	}
	return nil
}

func (c *Client) SendPhoto(chatID int64, photoURL, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	if _, err := c.api.Send(photo); err != nil {
		return fmt.Errorf("ошибка отправки фото: %w", err)
	}
	return nil
}

// AnswerCallback убирает "часики" на нажатой кнопке
func (c *Client) AnswerCallback(callbackID string) error {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("ошибка ответа на callback: %w", err)
	}
	return nil
}

func (c *Client) ResolveFileURL(fileID string) (string, error) {
	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("не удалось получить ссылку на файл: %w", err)
	}
	return url, nil
}
