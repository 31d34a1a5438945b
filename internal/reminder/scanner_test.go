package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxim19822003/bot-hudey/internal/ledger"
	"github.com/Maxim19822003/bot-hudey/internal/profile"
	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
	"github.com/Maxim19822003/bot-hudey/internal/telegram"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) SendText(chatID int64, text string, _ *telegram.InlineKeyboard) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) SendPhoto(int64, string, string) error { return nil }

func (f *fakeSender) AnswerCallback(string) error { return nil }

func (f *fakeSender) ResolveFileURL(string) (string, error) { return "", nil }

func newTestScanner(t *testing.T, now time.Time) (*Scanner, *profile.Registry, *ledger.Ledger, *fakeSender) {
	t.Helper()
	st := storage.NewMemory()
	profiles := profile.New(st)
	meals := ledger.New(st)
	tg := &fakeSender{}
	s := New(profiles, meals, tg, "")
	s.now = func() time.Time { return now }
	return s, profiles, meals, tg
}

func TestTimeMatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 3, 0, 0, time.UTC)

	assert.True(t, timeMatches("08:05", now, DefaultTolerance))
	assert.True(t, timeMatches("08:00", now, DefaultTolerance))
	assert.False(t, timeMatches("08:12", time.Date(2025, 6, 1, 8, 3, 0, 0, time.UTC), DefaultTolerance))
	assert.False(t, timeMatches("22:30", now, DefaultTolerance))
	assert.False(t, timeMatches("мусор", now, DefaultTolerance))
	assert.False(t, timeMatches("25:00", now, DefaultTolerance))
}

func TestScanner_UnknownMode(t *testing.T) {
	s, _, _, _ := newTestScanner(t, time.Now())
	assert.Error(t, s.Run(context.Background(), "lunch"))
}

func TestScanner_CheckinFiresInsideWindow(t *testing.T) {
	ctx := context.Background()
	s, profiles, _, tg := newTestScanner(t, time.Date(2025, 6, 1, 8, 3, 0, 0, time.UTC))

	require.NoError(t, profiles.Upsert(ctx, &models.UserProfile{
		UserID:      "42",
		Timezone:    "UTC",
		CheckinTime: "08:05",
	}))

	require.NoError(t, s.Run(ctx, ModeCheckin))
	require.Len(t, tg.sent, 1)
	assert.Equal(t, int64(42), tg.sent[0].chatID)
	assert.NotEmpty(t, tg.sent[0].text)

	// отметка дедупликации проставлена
	p, _, err := profiles.Find(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", p.LastCheckinSent)
}

func TestScanner_CheckinSilentOutsideWindow(t *testing.T) {
	ctx := context.Background()
	s, profiles, _, tg := newTestScanner(t, time.Date(2025, 6, 1, 8, 20, 0, 0, time.UTC))

	require.NoError(t, profiles.Upsert(ctx, &models.UserProfile{
		UserID:      "42",
		Timezone:    "UTC",
		CheckinTime: "08:05",
	}))

	require.NoError(t, s.Run(ctx, ModeCheckin))
	assert.Empty(t, tg.sent)
}

func TestScanner_DedupWithinDay(t *testing.T) {
	ctx := context.Background()
	s, profiles, _, tg := newTestScanner(t, time.Date(2025, 6, 1, 8, 3, 0, 0, time.UTC))

	require.NoError(t, profiles.Upsert(ctx, &models.UserProfile{
		UserID:      "42",
		Timezone:    "UTC",
		CheckinTime: "08:05",
	}))

	require.NoError(t, s.Run(ctx, ModeCheckin))
	require.NoError(t, s.Run(ctx, ModeCheckin))
	assert.Len(t, tg.sent, 1)
}

func TestScanner_CheckoutRecap(t *testing.T) {
	ctx := context.Background()
	s, profiles, meals, tg := newTestScanner(t, time.Date(2025, 6, 1, 22, 32, 0, 0, time.UTC))

	require.NoError(t, profiles.Upsert(ctx, &models.UserProfile{
		UserID:       "42",
		FirstName:    "Макс",
		Timezone:     "UTC",
		CheckoutTime: "22:30",
		KcalTarget:   "1958",
	}))

	row, err := meals.FindOrCreateDaily(ctx, "42", "2025-06-01")
	require.NoError(t, err)
	require.NoError(t, meals.SetDailyField(ctx, row, schema.DailyColWeightMorning, "89.5"))
	require.NoError(t, meals.SetDailyField(ctx, row, schema.DailyColSteps, "8200"))
	require.NoError(t, meals.AppendMeal(ctx, models.MealEntry{UserID: "42", TS: "2025-06-01T13:00:00Z", KcalAvg: 730}))
	_, _, err = meals.RecalcToday(ctx, "42", "2025-06-01", "1958")
	require.NoError(t, err)

	require.NoError(t, s.Run(ctx, ModeCheckout))
	require.Len(t, tg.sent, 1)

	text := tg.sent[0].text
	assert.Contains(t, text, "Макс")
	assert.Contains(t, text, "89.5")
	assert.Contains(t, text, "8200")
	assert.Contains(t, text, "730")
	assert.Contains(t, text, "1958")
}

func TestScanner_CheckoutWithoutDailyRow(t *testing.T) {
	ctx := context.Background()
	s, profiles, _, tg := newTestScanner(t, time.Date(2025, 6, 1, 22, 32, 0, 0, time.UTC))

	require.NoError(t, profiles.Upsert(ctx, &models.UserProfile{
		UserID:       "42",
		FirstName:    "Макс",
		Timezone:     "UTC",
		CheckoutTime: "22:30",
	}))

	require.NoError(t, s.Run(ctx, ModeCheckout))
	require.Len(t, tg.sent, 1)
	assert.Contains(t, tg.sent[0].text, "?")
}

func TestScanner_BadUserIDDoesNotStopRun(t *testing.T) {
	ctx := context.Background()
	s, profiles, _, tg := newTestScanner(t, time.Date(2025, 6, 1, 8, 3, 0, 0, time.UTC))

	require.NoError(t, profiles.Upsert(ctx, &models.UserProfile{
		UserID:      "не-число",
		Timezone:    "UTC",
		CheckinTime: "08:05",
	}))
	require.NoError(t, profiles.Upsert(ctx, &models.UserProfile{
		UserID:      "42",
		Timezone:    "UTC",
		CheckinTime: "08:05",
	}))

	require.NoError(t, s.Run(ctx, ModeCheckin))
	require.Len(t, tg.sent, 1)
	assert.Equal(t, int64(42), tg.sent[0].chatID)
}
