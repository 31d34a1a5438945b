package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

func TestLedger_AppendMealStampsTS(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	l := New(st)

	require.NoError(t, l.AppendMeal(ctx, models.MealEntry{
		UserID:   "42",
		MealType: models.MealSourceText,
		Text:     "яйца и хлеб",
		KcalAvg:  280,
	}))

	tbl, err := st.Table(ctx, schema.TableMeals)
	require.NoError(t, err)
	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[1][schema.MealsColTS])
	assert.Equal(t, "280", rows[1][schema.MealsColKcal])
}

func TestLedger_AppendMealNoUser(t *testing.T) {
	err := New(storage.NewMemory()).AppendMeal(context.Background(), models.MealEntry{})
	assert.Error(t, err)
}

func TestLedger_SumToday(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())

	meals := []models.MealEntry{
		{UserID: "42", TS: "2025-06-01T09:00:00Z", KcalAvg: 280},
		{UserID: "42", TS: "2025-06-01T13:00:00Z", KcalAvg: 450},
		{UserID: "42", TS: "2025-05-31T20:00:00Z", KcalAvg: 999}, // вчера
		{UserID: "7", TS: "2025-06-01T10:00:00Z", KcalAvg: 500},  // чужая
	}
	for _, m := range meals {
		require.NoError(t, l.AppendMeal(ctx, m))
	}

	total, err := l.SumToday(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 730, total)
}

func TestLedger_SumTodayToleratesMalformedRows(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	l := New(st)

	tbl, err := schema.EnsureTable(ctx, st, schema.TableMeals)
	require.NoError(t, err)
	// битая строка посреди журнала не срывает подсчёт
	require.NoError(t, tbl.AppendRow(ctx, []string{"2025-06-01T09:00:00Z", "42", "text", "", "", "", "мусор"}))
	require.NoError(t, tbl.AppendRow(ctx, []string{"2025-06-01"}))
	require.NoError(t, l.AppendMeal(ctx, models.MealEntry{UserID: "42", TS: "2025-06-01T13:00:00Z", KcalAvg: 300}))

	total, err := l.SumToday(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 300, total)
}

func TestLedger_FindOrCreateDaily(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	l := New(st)

	first, err := l.FindOrCreateDaily(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 2, first)

	again, err := l.FindOrCreateDaily(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := l.FindOrCreateDaily(ctx, "42", "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 3, other)
}

func TestLedger_FindOrCreateDailyConcurrent(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	l := New(st)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.FindOrCreateDaily(ctx, "42", "2025-06-01")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tbl, err := st.Table(ctx, schema.TableDailyLog)
	require.NoError(t, err)
	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2) // заголовок и одна строка
}

func TestLedger_SetDailyFieldTouchesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	l := New(st)

	row, err := l.FindOrCreateDaily(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	require.NoError(t, l.SetDailyField(ctx, row, schema.DailyColSteps, "8200"))

	day, err := l.DailyFor(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Equal(t, "8200", day.Steps)
	assert.NotEmpty(t, day.UpdatedAt)
}

func TestLedger_RecalcToday(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())

	require.NoError(t, l.AppendMeal(ctx, models.MealEntry{UserID: "42", TS: "2025-06-01T09:00:00Z", KcalAvg: 280}))
	require.NoError(t, l.AppendMeal(ctx, models.MealEntry{UserID: "42", TS: "2025-06-01T13:00:00Z", KcalAvg: 450}))

	eaten, left, err := l.RecalcToday(ctx, "42", "2025-06-01", "1958")
	require.NoError(t, err)
	assert.Equal(t, 730, eaten)
	assert.Equal(t, 1228, left)

	day, err := l.DailyFor(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Equal(t, "730", day.KcalEaten)
	assert.Equal(t, "1228", day.KcalLeft)
}

func TestLedger_RecalcTodayOvershootClampsToZero(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())

	require.NoError(t, l.AppendMeal(ctx, models.MealEntry{UserID: "42", TS: "2025-06-01T09:00:00Z", KcalAvg: 2500}))

	_, left, err := l.RecalcToday(ctx, "42", "2025-06-01", "1958")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestLedger_DailyForAbsent(t *testing.T) {
	day, err := New(storage.NewMemory()).DailyFor(context.Background(), "42", "2025-06-01")
	require.NoError(t, err)
	assert.Nil(t, day)
}

func TestLedger_WeightHistory(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemory())

	for _, d := range []struct{ date, weight string }{
		{"2025-06-01", "90.0"},
		{"2025-06-03", "89.2"},
		{"2025-06-02", "89.6"},
	} {
		row, err := l.FindOrCreateDaily(ctx, "42", d.date)
		require.NoError(t, err)
		require.NoError(t, l.SetDailyField(ctx, row, schema.DailyColWeightMorning, d.weight))
	}

	hist, err := l.WeightHistory(ctx, "42", 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "2025-06-03", hist[0].Date)
	assert.Equal(t, "89.2", hist[0].Morning)
	assert.Equal(t, "2025-06-02", hist[1].Date)
}
