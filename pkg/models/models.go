package models

// Все значения храним строками — так они лежат в ячейках таблицы.
// Числовой разбор делается в месте использования и терпим к мусору.

// UserProfile представляет строку таблицы users
type UserProfile struct {
	UserID           string
	FirstName        string
	Timezone         string
	CreatedAt        string
	HeightCm         string
	Age              string
	StartWeightKg    string
	GoalWeightKg     string
	GoalWeeks        string
	ActivityLevel    string // low, medium, high
	KcalTarget       string
	CheckinTime      string // "HH:MM" по местному времени
	CheckoutTime     string
	StepsTarget      string
	LastCheckinSent  string // дата последнего утреннего напоминания
	LastCheckoutSent string
}

// SessionState представляет текущее ожидаемое действие пользователя
type SessionState struct {
	UserID        string
	PendingAction string
	Since         string
	Prompt        string // что именно спросили у пользователя
}

// MealEntry — одна запись в журнале еды, после записи не меняется
type MealEntry struct {
	TS          string // ISO-8601, UTC
	UserID      string
	MealType    string // "photo" или "text"
	Text        string
	PhotoFileID string
	PhotoURL    string
	KcalAvg     int
	Confidence  float64
	Notes       string
}

// DailySummary — строка дневного итога, одна на пару (date, user_id)
type DailySummary struct {
	Date          string
	UserID        string
	WeightMorning string
	WeightEvening string
	Steps         string
	Workout       string
	WaterMl       string
	SleepH        string
	KcalEaten     string
	KcalLeft      string
	Comment       string
	UpdatedAt     string
}

// WeightDay — точка истории веса для мини-приложения
type WeightDay struct {
	Date    string `json:"date"`
	Morning string `json:"morning"`
	Evening string `json:"evening"`
}

// Константы ожидаемых действий (FSM)
const (
	ActionNone         = ""
	ActionAwaitingMeal = "awaiting_meal"
)

// Уровни активности
const (
	ActivityLow    = "low"
	ActivityMedium = "medium"
	ActivityHigh   = "high"
)

// Источники записи о еде
const (
	MealSourcePhoto = "photo"
	MealSourceText  = "text"
)

// Event — закрытое объединение входящих событий.
// Диспетчер разбирает его исчерпывающим switch, без проверок наличия ключей.
type Event interface {
	isEvent()
}

// CallbackEvent — нажатие inline-кнопки
type CallbackEvent struct {
	ID        string
	ChatID    int64
	UserID    string
	FirstName string
	Data      string
}

// TextMessageEvent — обычное текстовое сообщение
type TextMessageEvent struct {
	ChatID    int64
	UserID    string
	FirstName string
	Text      string
}

// PhotoMessageEvent — сообщение с фотографией (берётся самая крупная)
type PhotoMessageEvent struct {
	ChatID    int64
	UserID    string
	FirstName string
	FileID    string
	Caption   string
}

// MiniAppEvent — данные из мини-приложения (web_app_data)
type MiniAppEvent struct {
	ChatID    int64
	UserID    string
	FirstName string
	Payload   string // сырой JSON от фронтенда
}

func (CallbackEvent) isEvent()     {}
func (TextMessageEvent) isEvent()  {}
func (PhotoMessageEvent) isEvent() {}
func (MiniAppEvent) isEvent()      {}
