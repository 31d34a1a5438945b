package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Maxim19822003/bot-hudey/internal/estimator"
	"github.com/Maxim19822003/bot-hudey/internal/ledger"
	"github.com/Maxim19822003/bot-hudey/internal/profile"
	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/session"
	"github.com/Maxim19822003/bot-hudey/internal/telegram"
	"github.com/Maxim19822003/bot-hudey/pkg/locales"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

// Часовой пояс, записываемый при первой регистрации через /start
const signupTimezone = "Europe/Amsterdam"

// Bot — диспетчер входящих событий: разрешает текущее ожидаемое действие
// и передаёт событие журналу еды, реестру профилей либо отвечает напрямую.
type Bot struct {
	tg        telegram.Sender
	profiles  *profile.Registry
	sessions  *session.Machine
	meals     *ledger.Ledger
	estimate  estimator.Estimator
	webAppURL string
}

// New создаёт диспетчер; все зависимости передаются явно
func New(tg telegram.Sender, profiles *profile.Registry, sessions *session.Machine,
	meals *ledger.Ledger, est estimator.Estimator, publicBaseURL string) *Bot {

	webAppURL := ""
	if publicBaseURL != "" {
		webAppURL = strings.TrimRight(publicBaseURL, "/") + "/web/index.html"
	}
	return &Bot{
		tg:        tg,
		profiles:  profiles,
		sessions:  sessions,
		meals:     meals,
		estimate:  est,
		webAppURL: webAppURL,
	}
}

// HandleUpdate обрабатывает одно обновление вебхука. Ошибки транспорта
// глотаются с логом — ответ даётся по возможности; наружу выходят только
// ошибки хранилища (на них вебхук отвечает 500).
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) error {
	ev := toEvent(update)
	if ev == nil {
		return nil // нераспознанное событие игнорируем, апстриму всегда 200
	}

	switch e := ev.(type) {
	case models.CallbackEvent:
		return b.handleCallback(ctx, e)
	case models.TextMessageEvent:
		return b.handleText(ctx, e)
	case models.PhotoMessageEvent:
		return b.handlePhoto(ctx, e)
	case models.MiniAppEvent:
		return b.handleMiniApp(ctx, e)
	}
	return nil
}

// toEvent переводит сырой Update в закрытое объединение событий
func toEvent(update telegram.Update) models.Event {
	if cb := update.CallbackQuery; cb != nil && cb.From != nil {
		chatID := cb.From.ID
		if cb.Message != nil && cb.Message.Chat != nil {
			chatID = cb.Message.Chat.ID
		}
		return models.CallbackEvent{
			ID:        cb.ID,
			ChatID:    chatID,
			UserID:    strconv.FormatInt(cb.From.ID, 10),
			FirstName: cb.From.FirstName,
			Data:      cb.Data,
		}
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	if msg.WebAppData != nil {
		return models.MiniAppEvent{
			ChatID:    msg.Chat.ID,
			UserID:    userID,
			FirstName: msg.From.FirstName,
			Payload:   msg.WebAppData.Data,
		}
	}
	if len(msg.Photo) > 0 {
		best := msg.Photo[len(msg.Photo)-1]
		return models.PhotoMessageEvent{
			ChatID:    msg.Chat.ID,
			UserID:    userID,
			FirstName: msg.From.FirstName,
			FileID:    best.FileID,
			Caption:   msg.Caption,
		}
	}
	return models.TextMessageEvent{
		ChatID:    msg.Chat.ID,
		UserID:    userID,
		FirstName: msg.From.FirstName,
		Text:      msg.Text,
	}
}

func (b *Bot) handleCallback(ctx context.Context, ev models.CallbackEvent) error {
	l := locales.Get()

	// убираем "часики" на кнопке
	if err := b.tg.AnswerCallback(ev.ID); err != nil {
		log.Printf("Ошибка ответа на callback: %v", err)
	}

	switch ev.Data {
	case "begin":
		b.reply(ev.ChatID, l.Prompts.Begin, nil)
	case "weight":
		b.reply(ev.ChatID, l.Prompts.Weight, nil)
	case "steps":
		b.reply(ev.ChatID, l.Prompts.Steps, nil)
	case "meal":
		if err := b.sessions.Set(ctx, ev.UserID, models.ActionAwaitingMeal, l.Prompts.Meal); err != nil {
			return err
		}
		b.reply(ev.ChatID, l.Prompts.Meal, nil)
	case "summary":
		return b.sendSummary(ctx, ev.ChatID, ev.UserID)
	}
	return nil
}

func (b *Bot) handleText(ctx context.Context, ev models.TextMessageEvent) error {
	l := locales.Get()

	if ev.Text == "/start" {
		return b.handleStart(ctx, ev)
	}

	action, err := b.sessions.Get(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if action == models.ActionAwaitingMeal {
		return b.recordMeal(ctx, ev.ChatID, ev.UserID, models.MealEntry{
			UserID:   ev.UserID,
			MealType: models.MealSourceText,
			Text:     ev.Text,
		})
	}

	// голое число вне состояния — это утренний вес, как и раньше
	if isPlainNumber(ev.Text) {
		return b.recordWeight(ctx, ev.ChatID, ev.UserID, ev.Text)
	}

	kb := b.mainMenu()
	b.reply(ev.ChatID, l.Replies.Fallback, kb)
	return nil
}

func (b *Bot) handlePhoto(ctx context.Context, ev models.PhotoMessageEvent) error {
	l := locales.Get()

	action, err := b.sessions.Get(ctx, ev.UserID)
	if err != nil {
		return err
	}
	// фото вне ожидания еды — не еда, молча записывать нельзя
	if action != models.ActionAwaitingMeal {
		kb := b.mainMenu()
		b.reply(ev.ChatID, l.Replies.Fallback, kb)
		return nil
	}

	photoURL, err := b.tg.ResolveFileURL(ev.FileID)
	if err != nil {
		log.Printf("Не удалось получить ссылку на фото: %v", err)
		photoURL = ""
	}

	return b.recordMeal(ctx, ev.ChatID, ev.UserID, models.MealEntry{
		UserID:      ev.UserID,
		MealType:    models.MealSourcePhoto,
		Text:        ev.Caption,
		PhotoFileID: ev.FileID,
		PhotoURL:    photoURL,
	})
}

// miniAppPayload — то, что присылает фронтенд мини-приложения.
// Все значения приходят строками из полей формы.
type miniAppPayload struct {
	Action          string `json:"action"`
	Timezone        string `json:"timezone"`
	FirstName       string `json:"first_name"`
	HeightCm        string `json:"height_cm"`
	Age             string `json:"age"`
	StartWeightKg   string `json:"start_weight_kg"`
	GoalWeightKg    string `json:"goal_weight_kg"`
	GoalWeeks       string `json:"goal_weeks"`
	ActivityLevel   string `json:"activity_level"`
	CheckinTime     string `json:"checkin_time"`
	CheckoutTime    string `json:"checkout_time"`
	WeightMorningKg string `json:"weight_morning_kg"`
	Steps           string `json:"steps"`
}

func (b *Bot) handleMiniApp(ctx context.Context, ev models.MiniAppEvent) error {
	l := locales.Get()

	var p miniAppPayload
	if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
		log.Printf("Битый payload мини-приложения: %v", err)
		kb := b.mainMenu()
		b.reply(ev.ChatID, l.Replies.DontUnderstand, kb)
		return nil
	}

	switch p.Action {
	case "profile_save":
		_, kcal, steps := profile.ComputeTargets(p.StartWeightKg, p.HeightCm, p.Age, p.ActivityLevel, p.GoalWeeks)
		err := b.profiles.Upsert(ctx, &models.UserProfile{
			UserID:        ev.UserID,
			FirstName:     firstNonEmpty(p.FirstName, ev.FirstName),
			Timezone:      p.Timezone,
			HeightCm:      p.HeightCm,
			Age:           p.Age,
			StartWeightKg: p.StartWeightKg,
			GoalWeightKg:  p.GoalWeightKg,
			GoalWeeks:     p.GoalWeeks,
			ActivityLevel: p.ActivityLevel,
			KcalTarget:    strconv.Itoa(kcal),
			CheckinTime:   p.CheckinTime,
			CheckoutTime:  p.CheckoutTime,
			StepsTarget:   strconv.Itoa(steps),
		})
		if err != nil {
			return err
		}
		b.reply(ev.ChatID, fmt.Sprintf(l.Replies.ProfileSaved, kcal, steps), nil)

	case "meal_request":
		if err := b.sessions.Set(ctx, ev.UserID, models.ActionAwaitingMeal, l.Prompts.Meal); err != nil {
			return err
		}
		b.reply(ev.ChatID, l.Prompts.Meal, nil)

	case "weight_morning":
		return b.recordWeight(ctx, ev.ChatID, ev.UserID, p.WeightMorningKg)

	case "steps":
		rowIndex, err := b.meals.FindOrCreateDaily(ctx, ev.UserID, today())
		if err != nil {
			return err
		}
		if err := b.meals.SetDailyField(ctx, rowIndex, schema.DailyColSteps, p.Steps); err != nil {
			return err
		}
		kb := b.mainMenu()
		b.reply(ev.ChatID, fmt.Sprintf(l.Replies.StepsSaved, p.Steps), kb)

	default:
		kb := b.mainMenu()
		b.reply(ev.ChatID, l.Replies.DontUnderstand, kb)
	}
	return nil
}

func (b *Bot) handleStart(ctx context.Context, ev models.TextMessageEvent) error {
	l := locales.Get()

	// /start обрывает начатый диалог, зависшее ожидание еды гасим
	if err := b.sessions.Clear(ctx, ev.UserID); err != nil {
		return err
	}

	existing, _, err := b.profiles.Find(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		err := b.profiles.Upsert(ctx, &models.UserProfile{
			UserID:    ev.UserID,
			FirstName: ev.FirstName,
			Timezone:  signupTimezone,
		})
		if err != nil {
			return err
		}
	}

	kb := b.mainMenu()
	b.reply(ev.ChatID, l.Start.Greeting, kb)
	return nil
}

// recordMeal закрывает ожидание еды: ровно одна запись в журнале на одно
// действие пользователя, затем пересчёт дневного итога по журналу.
func (b *Bot) recordMeal(ctx context.Context, chatID int64, userID string, entry models.MealEntry) error {
	l := locales.Get()

	var est estimator.Estimate
	if entry.MealType == models.MealSourcePhoto {
		est = b.estimate.EstimatePhoto(entry.PhotoURL)
	} else {
		est = b.estimate.EstimateText(entry.Text)
	}
	entry.KcalAvg = est.Kcal
	entry.Confidence = est.Confidence
	entry.Notes = est.Notes

	if err := b.meals.AppendMeal(ctx, entry); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, userID); err != nil {
		return err
	}

	target := b.kcalTarget(ctx, userID)
	eaten, left, err := b.meals.RecalcToday(ctx, userID, today(), target)
	if err != nil {
		return err
	}

	format := l.Replies.MealTextSaved
	if entry.MealType == models.MealSourcePhoto {
		format = l.Replies.MealPhotoSaved
	}
	kb := b.mainMenu()
	b.reply(chatID, fmt.Sprintf(format, est.Kcal, eaten, target, left), kb)
	return nil
}

func (b *Bot) recordWeight(ctx context.Context, chatID int64, userID, weight string) error {
	l := locales.Get()

	rowIndex, err := b.meals.FindOrCreateDaily(ctx, userID, today())
	if err != nil {
		return err
	}
	if err := b.meals.SetDailyField(ctx, rowIndex, schema.DailyColWeightMorning, weight); err != nil {
		return err
	}

	kb := b.mainMenu()
	b.reply(chatID, fmt.Sprintf(l.Replies.WeightSaved, weight), kb)
	return nil
}

func (b *Bot) sendSummary(ctx context.Context, chatID int64, userID string) error {
	l := locales.Get()

	daily, err := b.meals.DailyFor(ctx, userID, today())
	if err != nil {
		return err
	}

	morning, evening, steps, eaten := "?", "?", "0", "0"
	if daily != nil {
		morning = orPlaceholder(daily.WeightMorning, "?")
		evening = orPlaceholder(daily.WeightEvening, "?")
		steps = orPlaceholder(daily.Steps, "0")
		eaten = orPlaceholder(daily.KcalEaten, "0")
	}
	target := b.kcalTarget(ctx, userID)
	left := strconv.Itoa(kcalLeft(target, eaten))

	kb := b.mainMenu()
	b.reply(chatID, fmt.Sprintf(l.Summary.Today, morning, evening, steps, eaten, target, left), kb)
	return nil
}

// kcalTarget достаёт цель пользователя, при любых проблемах — умолчание
func (b *Bot) kcalTarget(ctx context.Context, userID string) string {
	p, _, err := b.profiles.Find(ctx, userID)
	if err != nil || p == nil || p.KcalTarget == "" {
		return profile.DefaultKcalTarget
	}
	return p.KcalTarget
}

// reply шлёт ответ по возможности; неудача — лог, не ошибка обработки
func (b *Bot) reply(chatID int64, text string, keyboard *telegram.InlineKeyboard) {
	if err := b.tg.SendText(chatID, text, keyboard); err != nil {
		log.Printf("Ошибка отправки сообщения: %v", err)
	}
}

// mainMenu собирает главную клавиатуру (как в исходном меню бота)
func (b *Bot) mainMenu() *telegram.InlineKeyboard {
	l := locales.Get()

	rows := [][]telegram.InlineButton{
		{
			{Text: l.Start.Buttons.Begin, CallbackData: "begin"},
		},
		{
			{Text: l.Start.Buttons.Weight, CallbackData: "weight"},
			{Text: l.Start.Buttons.Meal, CallbackData: "meal"},
		},
		{
			{Text: l.Start.Buttons.Steps, CallbackData: "steps"},
			{Text: l.Start.Buttons.Summary, CallbackData: "summary"},
		},
	}
	if b.webAppURL != "" {
		rows = append(rows, []telegram.InlineButton{{
			Text:   l.Start.Buttons.OpenApp,
			WebApp: &telegram.WebAppInfo{URL: b.webAppURL},
		}})
	}
	return telegram.NewInlineKeyboard(rows...)
}

// isPlainNumber повторяет старую проверку "это вес": цифры и не больше
// одной точки.
func isPlainNumber(s string) bool {
	if s == "" || strings.Count(s, ".") > 1 {
		return false
	}
	digits := 0
	for _, r := range s {
		if r == '.' {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
		digits++
	}
	return digits > 0
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func kcalLeft(target, eaten string) int {
	t, err := strconv.Atoi(target)
	if err != nil {
		t = 0
	}
	e, err := strconv.Atoi(eaten)
	if err != nil {
		e = 0
	}
	if left := t - e; left > 0 {
		return left
	}
	return 0
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
