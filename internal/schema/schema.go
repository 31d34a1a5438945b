// Package schema объявляет четыре логические таблицы бота и следит,
// чтобы у каждой была каноническая строка заголовка.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/Maxim19822003/bot-hudey/internal/storage"
)

// Имена таблиц
const (
	TableUsers    = "users"
	TableMeals    = "meals"
	TableDailyLog = "daily_log"
	TableState    = "state"
)

// Индексы колонок users (с нуля, порядок заголовка)
const (
	UsersColID = iota
	UsersColFirstName
	UsersColTimezone
	UsersColCreatedAt
	UsersColHeight
	UsersColAge
	UsersColStartWeight
	UsersColGoalWeight
	UsersColGoalWeeks
	UsersColActivity
	UsersColKcalTarget
	UsersColCheckin
	UsersColCheckout
	UsersColStepsTarget
	UsersColLastCheckin
	UsersColLastCheckout
)

// Индексы колонок meals
const (
	MealsColTS = iota
	MealsColUserID
	MealsColType
	MealsColText
	MealsColPhotoFileID
	MealsColPhotoURL
	MealsColKcal
	MealsColConfidence
	MealsColNotes
)

// Индексы колонок daily_log
const (
	DailyColDate = iota
	DailyColUserID
	DailyColWeightMorning
	DailyColWeightEvening
	DailyColSteps
	DailyColWorkout
	DailyColWaterMl
	DailyColSleepH
	DailyColKcalEaten
	DailyColKcalLeft
	DailyColComment
	DailyColUpdatedAt
)

// Индексы колонок state
const (
	StateColUserID = iota
	StateColAction
	StateColSince
	StateColPrompt
)

// Headers — канонические заголовки всех таблиц
var Headers = map[string][]string{
	TableUsers: {
		"user_id", "first_name", "timezone", "created_at",
		"height_cm", "age", "start_weight_kg", "goal_weight_kg",
		"goal_weeks", "activity_level", "kcal_target",
		"checkin_time", "checkout_time", "steps_target",
		"last_checkin_sent", "last_checkout_sent",
	},
	TableMeals: {
		"ts", "user_id", "meal_type", "text", "photo_file_id",
		"photo_url", "kcal_avg", "confidence", "notes",
	},
	TableDailyLog: {
		"date", "user_id", "weight_morning", "weight_evening",
		"steps", "workout", "water_ml", "sleep_h",
		"kcal_eaten", "kcal_left", "comment", "updated_at",
	},
	TableState: {
		"user_id", "pending_action", "since", "prompt",
	},
}

// EnsureTable открывает таблицу name, создавая её при отсутствии и выправляя
// заголовок при расхождении. Идемпотентна: безопасно звать на каждый холодный
// доступ, бизнес-данные не трогает.
func EnsureTable(ctx context.Context, st storage.Store, name string) (storage.Table, error) {
	header, ok := Headers[name]
	if !ok {
		return nil, fmt.Errorf("неизвестная таблица: %s", name)
	}

	tbl, err := st.Table(ctx, name)
	if errors.Is(err, storage.ErrTableNotFound) {
		tbl, err = st.CreateTable(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть таблицу %s: %w", name, err)
	}

	rows, err := tbl.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать таблицу %s: %w", name, err)
	}

	if len(rows) == 0 {
		if err := tbl.AppendRow(ctx, header); err != nil {
			return nil, fmt.Errorf("не удалось записать заголовок %s: %w", name, err)
		}
		return tbl, nil
	}

	if !equalHeader(rows[0], header) {
		if err := tbl.ReplaceRow(ctx, 1, header); err != nil {
			return nil, fmt.Errorf("не удалось выправить заголовок %s: %w", name, err)
		}
	}
	return tbl, nil
}

// Ensure приводит в порядок все таблицы разом (вызывается на старте)
func Ensure(ctx context.Context, st storage.Store) error {
	for _, name := range []string{TableUsers, TableMeals, TableDailyLog, TableState} {
		if _, err := EnsureTable(ctx, st, name); err != nil {
			return err
		}
	}
	return nil
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
