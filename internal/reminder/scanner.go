// Package reminder — периодический обход пользователей: сверяет местное
// время каждого с его настроенным временем чек-ина/чек-аута и шлёт
// напоминание не чаще раза в день.
package reminder

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Maxim19822003/bot-hudey/internal/ledger"
	"github.com/Maxim19822003/bot-hudey/internal/profile"
	"github.com/Maxim19822003/bot-hudey/internal/telegram"
	"github.com/Maxim19822003/bot-hudey/pkg/locales"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

// Режимы обхода
const (
	ModeCheckin  = "checkin"
	ModeCheckout = "checkout"
)

// DefaultTolerance — окно совпадения местного времени с настроенным
const DefaultTolerance = 5 * time.Minute

// Scanner — один проход по всем пользователям в заданном режиме.
// Вызывается внешним планировщиком чаще, чем ширина окна.
type Scanner struct {
	profiles  *profile.Registry
	meals     *ledger.Ledger
	tg        telegram.Sender
	webAppURL string
	tolerance time.Duration
	now       func() time.Time // подменяется в тестах
}

// New создаёт обходчик напоминаний
func New(profiles *profile.Registry, meals *ledger.Ledger, tg telegram.Sender, publicBaseURL string) *Scanner {
	webAppURL := ""
	if publicBaseURL != "" {
		webAppURL = strings.TrimRight(publicBaseURL, "/") + "/web/index.html"
	}
	return &Scanner{
		profiles:  profiles,
		meals:     meals,
		tg:        tg,
		webAppURL: webAppURL,
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
}

// Run выполняет один проход. Неизвестный режим — ошибка.
func (s *Scanner) Run(ctx context.Context, mode string) error {
	if mode != ModeCheckin && mode != ModeCheckout {
		return fmt.Errorf("неизвестный режим: %s", mode)
	}
	log.Printf("Обход напоминаний: %s", mode)

	users, err := s.profiles.All(ctx)
	if err != nil {
		return err
	}

	for _, u := range users {
		if err := s.visit(ctx, mode, u); err != nil {
			// одна сломанная строка не валит весь обход
			log.Printf("Ошибка напоминания для %s: %v", u.UserID, err)
		}
	}
	return nil
}

func (s *Scanner) visit(ctx context.Context, mode string, u models.UserProfile) error {
	now := s.localNow(u.Timezone)

	checkTime := u.CheckinTime
	lastSent := u.LastCheckinSent
	if mode == ModeCheckout {
		checkTime = u.CheckoutTime
		lastSent = u.LastCheckoutSent
	}
	if checkTime == "" {
		if mode == ModeCheckout {
			checkTime = profile.DefaultCheckoutTime
		} else {
			checkTime = profile.DefaultCheckinTime
		}
	}

	if !timeMatches(checkTime, now, s.tolerance) {
		return nil
	}

	// уже напоминали сегодня — обход идёт чаще окна, дубль не шлём
	localDate := now.Format("2006-01-02")
	if lastSent == localDate {
		return nil
	}

	chatID, err := strconv.ParseInt(u.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("некорректный user_id %q: %w", u.UserID, err)
	}

	text := locales.Get().Reminder.Checkin
	if mode == ModeCheckout {
		text, err = s.checkoutText(ctx, u)
		if err != nil {
			return err
		}
	}

	kb := s.openAppKeyboard()
	if err := s.tg.SendText(chatID, text, kb); err != nil {
		return err
	}
	return s.profiles.SetLastNotified(ctx, u.UserID, mode, localDate)
}

// checkoutText собирает вечерний отчёт из daily_log; отсутствие строки —
// прочерки, а не ошибка.
func (s *Scanner) checkoutText(ctx context.Context, u models.UserProfile) (string, error) {
	// ключ дня — дата сервера, как её видит агрегатор
	serverDate := s.now().Format("2006-01-02")

	daily, err := s.meals.DailyFor(ctx, u.UserID, serverDate)
	if err != nil {
		return "", err
	}

	morning, evening, steps, eaten := "?", "?", "0", "0"
	if daily != nil {
		morning = orPlaceholder(daily.WeightMorning, "?")
		evening = orPlaceholder(daily.WeightEvening, "?")
		steps = orPlaceholder(daily.Steps, "0")
		eaten = orPlaceholder(daily.KcalEaten, "0")
	}

	target := u.KcalTarget
	if target == "" {
		target = profile.DefaultKcalTarget
	}
	left := atoiOrZero(target) - atoiOrZero(eaten)

	return fmt.Sprintf(locales.Get().Reminder.Checkout,
		u.FirstName, morning, evening, steps, eaten, target, left), nil
}

// localNow возвращает текущее время в поясе пользователя; нераспознанный
// пояс — умолчание, затем UTC.
func (s *Scanner) localNow(tz string) time.Time {
	if tz == "" {
		tz = profile.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, err = time.LoadLocation(profile.DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	return s.now().In(loc)
}

// timeMatches проверяет попадание now в окно вокруг checkTime ("HH:MM").
// Мусор в checkTime — просто не совпало.
func timeMatches(checkTime string, now time.Time, tolerance time.Duration) bool {
	parts := strings.SplitN(checkTime, ":", 2)
	if len(parts) != 2 {
		return false
	}
	hour, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	minute, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return false
	}

	scheduled := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	diff := now.Sub(scheduled)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func (s *Scanner) openAppKeyboard() *telegram.InlineKeyboard {
	if s.webAppURL == "" {
		return nil
	}
	return telegram.NewInlineKeyboard(
		[]telegram.InlineButton{{
			Text:   locales.Get().Start.Buttons.OpenApp,
			WebApp: &telegram.WebAppInfo{URL: s.webAppURL},
		}},
	)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}
