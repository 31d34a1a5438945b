package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxim19822003/bot-hudey/internal/bot"
	"github.com/Maxim19822003/bot-hudey/internal/estimator"
	"github.com/Maxim19822003/bot-hudey/internal/ledger"
	"github.com/Maxim19822003/bot-hudey/internal/profile"
	"github.com/Maxim19822003/bot-hudey/internal/schema"
	"github.com/Maxim19822003/bot-hudey/internal/session"
	"github.com/Maxim19822003/bot-hudey/internal/storage"
	"github.com/Maxim19822003/bot-hudey/internal/telegram"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

type fakeSender struct {
	texts []string
}

func (f *fakeSender) SendText(_ int64, text string, _ *telegram.InlineKeyboard) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) SendPhoto(int64, string, string) error { return nil }

func (f *fakeSender) AnswerCallback(string) error { return nil }

func (f *fakeSender) ResolveFileURL(string) (string, error) { return "", nil }

func newTestServer(t *testing.T, secret string) (*gin.Engine, *profile.Registry, *ledger.Ledger, *fakeSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := storage.NewMemory()
	tg := &fakeSender{}
	profiles := profile.New(st)
	sessions := session.New(st)
	meals := ledger.New(st)
	b := bot.New(tg, profiles, sessions, meals, estimator.NewStub(), "")

	srv := New(b, profiles, meals, secret, "")
	return srv.Router(), profiles, meals, tg
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _, _, _ := newTestServer(t, "")

	w := doJSON(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestWebhook_BadSecret(t *testing.T) {
	r, _, _, _ := newTestServer(t, "s3cret")

	w := doJSON(r, http.MethodPost, "/webhook?secret=wrong", "{}")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/webhook", "{}")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhook_InertBodyIs200(t *testing.T) {
	r, _, _, _ := newTestServer(t, "s3cret")

	// мусорное тело — 200, ретраить нечего
	w := doJSON(r, http.MethodPost, "/webhook?secret=s3cret", "не json")
	assert.Equal(t, http.StatusOK, w.Code)

	// пустое обновление тоже инертно
	w = doJSON(r, http.MethodPost, "/webhook?secret=s3cret", "{}")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_DispatchesUpdate(t *testing.T) {
	r, profiles, _, tg := newTestServer(t, "s3cret")

	body := `{"message":{"message_id":1,"from":{"id":42,"first_name":"Макс"},"chat":{"id":42},"text":"/start"}}`
	w := doJSON(r, http.MethodPost, "/webhook?secret=s3cret", body)
	require.Equal(t, http.StatusOK, w.Code)

	p, _, err := profiles.Find(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NotEmpty(t, tg.texts)
}

func TestWebhook_WebAppData(t *testing.T) {
	r, _, _, _ := newTestServer(t, "")

	// сырой апдейт с web_app_data, как его присылает Telegram
	body := `{"update_id":7,"message":{"message_id":2,` +
		`"from":{"id":42,"first_name":"Макс"},"chat":{"id":42},` +
		`"web_app_data":{"data":"{\"action\":\"steps\",\"steps\":\"8200\"}","button_text":"открыть"}}}`
	w := doJSON(r, http.MethodPost, "/webhook", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/today?user_id=42", "")
	require.Equal(t, http.StatusOK, w.Code)

	var today map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	assert.Equal(t, float64(8200), today["steps"])
}

func TestToday_RequiresUserID(t *testing.T) {
	r, _, _, _ := newTestServer(t, "")

	w := doJSON(r, http.MethodGet, "/api/today", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["ok"])
}

func TestProfileSaveThenToday(t *testing.T) {
	r, _, meals, _ := newTestServer(t, "")

	w := doJSON(r, http.MethodPost, "/api/profile_save", `{
		"user_id": "42",
		"first_name": "Макс",
		"start_weight_kg": "80",
		"height_cm": "180",
		"age": "30",
		"activity_level": "medium"
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	var saved map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, true, saved["ok"])
	assert.Equal(t, float64(1958), saved["kcal_target"])
	assert.Equal(t, float64(9000), saved["steps_target"])

	require.NoError(t, meals.AppendMeal(context.Background(), models.MealEntry{UserID: "42", KcalAvg: 280}))

	w = doJSON(r, http.MethodGet, "/api/today?user_id=42", "")
	require.Equal(t, http.StatusOK, w.Code)

	var today map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	assert.Equal(t, true, today["ok"])
	assert.Equal(t, float64(1958), today["kcal_target"])
	assert.Equal(t, float64(280), today["kcal_eaten"])
	assert.Equal(t, float64(1678), today["kcal_left"])
}

func TestProfileSave_MissingUserID(t *testing.T) {
	r, _, _, _ := newTestServer(t, "")

	w := doJSON(r, http.MethodPost, "/api/profile_save", `{"first_name":"Макс"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWeightHistory(t *testing.T) {
	r, _, meals, _ := newTestServer(t, "")

	w := doJSON(r, http.MethodGet, "/api/weight_history?user_id=42", "")
	require.Equal(t, http.StatusOK, w.Code)

	var empty struct {
		OK   bool               `json:"ok"`
		Days []models.WeightDay `json:"days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &empty))
	assert.True(t, empty.OK)
	assert.Empty(t, empty.Days)

	for _, d := range []string{"2025-06-01", "2025-06-02", "2025-06-03"} {
		row, err := meals.FindOrCreateDaily(context.Background(), "42", d)
		require.NoError(t, err)
		require.NoError(t, meals.SetDailyField(context.Background(), row, schema.DailyColWeightMorning, "89.5"))
	}

	w = doJSON(r, http.MethodGet, "/api/weight_history?user_id=42&days=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK   bool               `json:"ok"`
		Days []models.WeightDay `json:"days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, "2025-06-03", resp.Days[0].Date)
}
