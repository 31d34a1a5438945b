// Package ledger ведёт append-only журнал еды и дневные итоги.
// Итоги не накапливаются инкрементально: kcal_eaten и kcal_left каждый раз
// пересчитываются по журналу, чтобы они не разъезжались с ним.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

// Ledger — журнал еды и агрегатор daily_log
type Ledger struct {
	store storage.Store
	locks *userLocks
}

// New создаёт журнал поверх хранилища
func New(store storage.Store) *Ledger {
	return &Ledger{store: store, locks: newUserLocks()}
}

// AppendMeal дописывает одну неизменяемую запись. Дедупликации нет —
// каждый вызов даёт новую строку, "не чаще раза на действие" обеспечивает
// диспетчер. Пустая метка времени заменяется текущим UTC.
func (l *Ledger) AppendMeal(ctx context.Context, e models.MealEntry) error {
	if e.UserID == "" {
		return fmt.Errorf("пустой user_id")
	}
	if e.TS == "" {
		e.TS = time.Now().UTC().Format(time.RFC3339)
	}

	tbl, err := schema.EnsureTable(ctx, l.store, schema.TableMeals)
	if err != nil {
		return err
	}
	row := []string{
		e.TS,
		e.UserID,
		e.MealType,
		e.Text,
		e.PhotoFileID,
		e.PhotoURL,
		strconv.Itoa(e.KcalAvg),
		strconv.FormatFloat(e.Confidence, 'f', 2, 64),
		e.Notes,
	}
	if err := tbl.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("не удалось записать приём пищи: %w", err)
	}
	return nil
}

// SumToday суммирует ккал пользователя за дату (префикс метки времени,
// YYYY-MM-DD). Полный проход по журналу; строки с нечисловой калорийностью
// пропускаются, скан не прерывается.
func (l *Ledger) SumToday(ctx context.Context, userID, date string) (int, error) {
	tbl, err := schema.EnsureTable(ctx, l.store, schema.TableMeals)
	if err != nil {
		return 0, err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if cell(row, schema.MealsColUserID) != userID {
			continue
		}
		ts := cell(row, schema.MealsColTS)
		if len(ts) < 10 || ts[:10] != date {
			continue
		}
		kcal, err := strconv.Atoi(cell(row, schema.MealsColKcal))
		if err != nil {
			continue
		}
		total += kcal
	}
	return total, nil
}

// FindOrCreateDaily возвращает номер строки daily_log для пары (date, user).
// Вызовы для одного пользователя сериализованы мьютексом: параллельный
// find-or-create не создаст вторую строку.
func (l *Ledger) FindOrCreateDaily(ctx context.Context, userID, date string) (int, error) {
	mu := l.locks.forUser(userID)
	mu.Lock()
	defer mu.Unlock()

	tbl, err := schema.EnsureTable(ctx, l.store, schema.TableDailyLog)
	if err != nil {
		return 0, err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(rows); i++ {
		if cell(rows[i], schema.DailyColDate) == date && cell(rows[i], schema.DailyColUserID) == userID {
			return i + 1, nil
		}
	}

	row := make([]string, len(schema.Headers[schema.TableDailyLog]))
	row[schema.DailyColDate] = date
	row[schema.DailyColUserID] = userID
	row[schema.DailyColUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	if err := tbl.AppendRow(ctx, row); err != nil {
		return 0, fmt.Errorf("не удалось завести дневную строку: %w", err)
	}
	return len(rows) + 1, nil
}

// SetDailyField пишет одно поле дневной строки; updated_at уезжает тем же
// обращением к хранилищу, отдельной гонки между двумя записями нет.
func (l *Ledger) SetDailyField(ctx context.Context, rowIndex, col int, value string) error {
	tbl, err := schema.EnsureTable(ctx, l.store, schema.TableDailyLog)
	if err != nil {
		return err
	}
	return tbl.UpdateCells(ctx, rowIndex, map[int]string{
		col + 1:                      value,
		schema.DailyColUpdatedAt + 1: time.Now().UTC().Format(time.RFC3339),
	})
}

// RecalcToday пересчитывает kcal_eaten и kcal_left по журналу и пишет их
// в дневную строку. kcal_left = max(0, цель − съедено).
func (l *Ledger) RecalcToday(ctx context.Context, userID, date, kcalTarget string) (eaten, left int, err error) {
	eaten, err = l.SumToday(ctx, userID, date)
	if err != nil {
		return 0, 0, err
	}

	target, terr := strconv.Atoi(kcalTarget)
	if terr != nil {
		target = 0
	}
	left = target - eaten
	if left < 0 {
		left = 0
	}

	rowIndex, err := l.FindOrCreateDaily(ctx, userID, date)
	if err != nil {
		return 0, 0, err
	}

	tbl, err := schema.EnsureTable(ctx, l.store, schema.TableDailyLog)
	if err != nil {
		return 0, 0, err
	}
	err = tbl.UpdateCells(ctx, rowIndex, map[int]string{
		schema.DailyColKcalEaten + 1: strconv.Itoa(eaten),
		schema.DailyColKcalLeft + 1:  strconv.Itoa(left),
		schema.DailyColUpdatedAt + 1: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, 0, err
	}
	return eaten, left, nil
}

// DailyFor возвращает дневную строку пользователя за дату, nil если её нет
func (l *Ledger) DailyFor(ctx context.Context, userID, date string) (*models.DailySummary, error) {
	tbl, err := schema.EnsureTable(ctx, l.store, schema.TableDailyLog)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if cell(row, schema.DailyColDate) != date || cell(row, schema.DailyColUserID) != userID {
			continue
		}
		return &models.DailySummary{
			Date:          cell(row, schema.DailyColDate),
			UserID:        cell(row, schema.DailyColUserID),
			WeightMorning: cell(row, schema.DailyColWeightMorning),
			WeightEvening: cell(row, schema.DailyColWeightEvening),
			Steps:         cell(row, schema.DailyColSteps),
			Workout:       cell(row, schema.DailyColWorkout),
			WaterMl:       cell(row, schema.DailyColWaterMl),
			SleepH:        cell(row, schema.DailyColSleepH),
			KcalEaten:     cell(row, schema.DailyColKcalEaten),
			KcalLeft:      cell(row, schema.DailyColKcalLeft),
			Comment:       cell(row, schema.DailyColComment),
			UpdatedAt:     cell(row, schema.DailyColUpdatedAt),
		}, nil
	}
	return nil, nil
}

// WeightHistory отдаёт историю веса пользователя: свежие даты первыми,
// не больше days записей.
func (l *Ledger) WeightHistory(ctx context.Context, userID string, days int) ([]models.WeightDay, error) {
	tbl, err := schema.EnsureTable(ctx, l.store, schema.TableDailyLog)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Rows(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.WeightDay
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if cell(row, schema.DailyColUserID) != userID {
			continue
		}
		out = append(out, models.WeightDay{
			Date:    cell(row, schema.DailyColDate),
			Morning: cell(row, schema.DailyColWeightMorning),
			Evening: cell(row, schema.DailyColWeightEvening),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if days > 0 && len(out) > days {
		out = out[:days]
	}
	return out, nil
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
