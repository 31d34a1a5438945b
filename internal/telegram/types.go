package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Типы мини-приложений появились в Bot API 6.0, позже последнего релиза
// tgbotapi, поэтому объявлены здесь: входящий апдейт со своим полем
// web_app_data и клавиатура, сериализуемая напрямую в reply_markup.

// WebAppData — данные, присланные мини-приложением через sendData
type WebAppData struct {
	Data       string `json:"data"`
	ButtonText string `json:"button_text"`
}

// Message расширяет сообщение tgbotapi полем web_app_data
type Message struct {
	tgbotapi.Message
	WebAppData *WebAppData `json:"web_app_data,omitempty"`
}

// Update — входящее обновление вебхука
type Update struct {
	UpdateID      int                     `json:"update_id"`
	Message       *Message                `json:"message,omitempty"`
	CallbackQuery *tgbotapi.CallbackQuery `json:"callback_query,omitempty"`
}

// WebAppInfo — ссылка на мини-приложение для кнопки
type WebAppInfo struct {
	URL string `json:"url"`
}

// InlineButton — одна inline-кнопка: либо callback_data, либо web_app
type InlineButton struct {
	Text         string      `json:"text"`
	CallbackData string      `json:"callback_data,omitempty"`
	WebApp       *WebAppInfo `json:"web_app,omitempty"`
}

// InlineKeyboard — inline-клавиатура в формате reply_markup
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// NewInlineKeyboard собирает клавиатуру из рядов кнопок
func NewInlineKeyboard(rows ...[]InlineButton) *InlineKeyboard {
	return &InlineKeyboard{InlineKeyboard: rows}
}
