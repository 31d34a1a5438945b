// Package profile реализует реестр пользователей поверх таблицы users:
// поиск по user_id, upsert всей строки и расчёт дневных целей.
package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

// Значения по умолчанию для незаполненных полей профиля
const (
	DefaultTimezone     = "Europe/Moscow"
	DefaultCheckinTime  = "08:05"
	DefaultCheckoutTime = "22:30"
	DefaultKcalTarget   = "2100"
)

// Registry — реестр профилей. Запись сериализована мьютексом, чтобы
// find-then-append не породил две строки на одного пользователя.
type Registry struct {
	store storage.Store
	mu    sync.Mutex
}

// New создаёт реестр поверх переданного хранилища
func New(store storage.Store) *Registry {
	return &Registry{store: store}
}

// Find возвращает профиль и номер его строки (с 1). Линейный скан по первой
// колонке, побеждает первое совпадение — дубликаты, если вдруг завелись,
// терпим на чтении. Если пользователя нет — (nil, 0, nil).
func (r *Registry) Find(ctx context.Context, userID string) (*models.UserProfile, int, error) {
	tbl, err := schema.EnsureTable(ctx, r.store, schema.TableUsers)
	if err != nil {
		return nil, 0, err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i := 1; i < len(rows); i++ {
		if cell(rows[i], schema.UsersColID) == userID {
			p := rowToProfile(rows[i])
			return &p, i + 1, nil
		}
	}
	return nil, 0, nil
}

// All возвращает все профили (для обхода напоминаний)
func (r *Registry) All(ctx context.Context) ([]models.UserProfile, error) {
	tbl, err := schema.EnsureTable(ctx, r.store, schema.TableUsers)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserProfile, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		if cell(rows[i], schema.UsersColID) == "" {
			continue
		}
		out = append(out, rowToProfile(rows[i]))
	}
	return out, nil
}

// Upsert перезаписывает строку пользователя целиком: незаполненные поля
// берутся из сохранённой строки либо из констант по умолчанию. Если строки
// нет — добавляет новую. Двух строк на один user_id не оставляет.
func (r *Registry) Upsert(ctx context.Context, p *models.UserProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("пустой user_id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tbl, err := schema.EnsureTable(ctx, r.store, schema.TableUsers)
	if err != nil {
		return err
	}

	stored, rowIndex, err := r.Find(ctx, p.UserID)
	if err != nil {
		return err
	}

	merged := merge(p, stored)
	row := profileToRow(merged)

	if rowIndex == 0 {
		if err := tbl.AppendRow(ctx, row); err != nil {
			return fmt.Errorf("не удалось добавить пользователя %s: %w", p.UserID, err)
		}
		return nil
	}
	if err := tbl.ReplaceRow(ctx, rowIndex, row); err != nil {
		return fmt.Errorf("не удалось обновить пользователя %s: %w", p.UserID, err)
	}
	return nil
}

// SetLastNotified отмечает дату отправленного напоминания (mode: checkin|checkout)
func (r *Registry) SetLastNotified(ctx context.Context, userID, mode, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tbl, err := schema.EnsureTable(ctx, r.store, schema.TableUsers)
	if err != nil {
		return err
	}
	_, rowIndex, err := r.Find(ctx, userID)
	if err != nil {
		return err
	}
	if rowIndex == 0 {
		return fmt.Errorf("пользователь %s не найден", userID)
	}

	col := schema.UsersColLastCheckin
	if mode == "checkout" {
		col = schema.UsersColLastCheckout
	}
	return tbl.UpdateCells(ctx, rowIndex, map[int]string{col + 1: date})
}

func merge(p, stored *models.UserProfile) *models.UserProfile {
	out := *p
	pick := func(dst *string, strField func(*models.UserProfile) string, fallback string) {
		if *dst != "" {
			return
		}
		if stored != nil && strField(stored) != "" {
			*dst = strField(stored)
			return
		}
		*dst = fallback
	}

	pick(&out.FirstName, func(s *models.UserProfile) string { return s.FirstName }, "")
	pick(&out.Timezone, func(s *models.UserProfile) string { return s.Timezone }, DefaultTimezone)
	pick(&out.CreatedAt, func(s *models.UserProfile) string { return s.CreatedAt },
		time.Now().UTC().Format(time.RFC3339))
	pick(&out.HeightCm, func(s *models.UserProfile) string { return s.HeightCm }, "")
	pick(&out.Age, func(s *models.UserProfile) string { return s.Age }, "")
	pick(&out.StartWeightKg, func(s *models.UserProfile) string { return s.StartWeightKg }, "")
	pick(&out.GoalWeightKg, func(s *models.UserProfile) string { return s.GoalWeightKg }, "")
	pick(&out.GoalWeeks, func(s *models.UserProfile) string { return s.GoalWeeks }, "")
	pick(&out.ActivityLevel, func(s *models.UserProfile) string { return s.ActivityLevel }, "")
	pick(&out.KcalTarget, func(s *models.UserProfile) string { return s.KcalTarget }, "")
	pick(&out.CheckinTime, func(s *models.UserProfile) string { return s.CheckinTime }, DefaultCheckinTime)
	pick(&out.CheckoutTime, func(s *models.UserProfile) string { return s.CheckoutTime }, DefaultCheckoutTime)
	pick(&out.StepsTarget, func(s *models.UserProfile) string { return s.StepsTarget }, "")
	pick(&out.LastCheckinSent, func(s *models.UserProfile) string { return s.LastCheckinSent }, "")
	pick(&out.LastCheckoutSent, func(s *models.UserProfile) string { return s.LastCheckoutSent }, "")
	return &out
}

func profileToRow(p *models.UserProfile) []string {
	row := make([]string, len(schema.Headers[schema.TableUsers]))
	row[schema.UsersColID] = p.UserID
	row[schema.UsersColFirstName] = p.FirstName
	row[schema.UsersColTimezone] = p.Timezone
	row[schema.UsersColCreatedAt] = p.CreatedAt
	row[schema.UsersColHeight] = p.HeightCm
	row[schema.UsersColAge] = p.Age
	row[schema.UsersColStartWeight] = p.StartWeightKg
	row[schema.UsersColGoalWeight] = p.GoalWeightKg
	row[schema.UsersColGoalWeeks] = p.GoalWeeks
	row[schema.UsersColActivity] = p.ActivityLevel
	row[schema.UsersColKcalTarget] = p.KcalTarget
	row[schema.UsersColCheckin] = p.CheckinTime
	row[schema.UsersColCheckout] = p.CheckoutTime
	row[schema.UsersColStepsTarget] = p.StepsTarget
	row[schema.UsersColLastCheckin] = p.LastCheckinSent
	row[schema.UsersColLastCheckout] = p.LastCheckoutSent
	return row
}

func rowToProfile(row []string) models.UserProfile {
	return models.UserProfile{
		UserID:           cell(row, schema.UsersColID),
		FirstName:        cell(row, schema.UsersColFirstName),
		Timezone:         cell(row, schema.UsersColTimezone),
		CreatedAt:        cell(row, schema.UsersColCreatedAt),
		HeightCm:         cell(row, schema.UsersColHeight),
		Age:              cell(row, schema.UsersColAge),
		StartWeightKg:    cell(row, schema.UsersColStartWeight),
		GoalWeightKg:     cell(row, schema.UsersColGoalWeight),
		GoalWeeks:        cell(row, schema.UsersColGoalWeeks),
		ActivityLevel:    cell(row, schema.UsersColActivity),
		KcalTarget:       cell(row, schema.UsersColKcalTarget),
		CheckinTime:      cell(row, schema.UsersColCheckin),
		CheckoutTime:     cell(row, schema.UsersColCheckout),
		StepsTarget:      cell(row, schema.UsersColStepsTarget),
		LastCheckinSent:  cell(row, schema.UsersColLastCheckin),
		LastCheckoutSent: cell(row, schema.UsersColLastCheckout),
	}
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
