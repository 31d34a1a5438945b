package locales

import (
	_ "embed"
	"encoding/json"
	"log"
)

//go:embed locales.json
var localesJSON []byte

// Locales содержит все текстовые строки из locales.json
type Locales struct {
	Start    Start    `json:"start"`
	Prompts  Prompts  `json:"prompts"`
	Replies  Replies  `json:"replies"`
	Summary  Summary  `json:"summary"`
	Reminder Reminder `json:"reminder"`
}

type Start struct {
	Greeting string `json:"greeting"`
	Buttons  struct {
		Begin   string `json:"begin"`
		Weight  string `json:"weight"`
		Meal    string `json:"meal"`
		Steps   string `json:"steps"`
		Summary string `json:"summary"`
		OpenApp string `json:"open_app"`
	} `json:"buttons"`
}

type Prompts struct {
	Begin  string `json:"begin"`
	Weight string `json:"weight"`
	Meal   string `json:"meal"`
	Steps  string `json:"steps"`
}

type Replies struct {
	MealPhotoSaved string `json:"meal_photo_saved"`
	MealTextSaved  string `json:"meal_text_saved"`
	WeightSaved    string `json:"weight_saved"`
	StepsSaved     string `json:"steps_saved"`
	ProfileSaved   string `json:"profile_saved"`
	Fallback       string `json:"fallback"`
	DontUnderstand string `json:"dont_understand"`
}

type Summary struct {
	Today string `json:"today"`
}

type Reminder struct {
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
}

var L *Locales

func init() {
	L = &Locales{}
	if err := json.Unmarshal(localesJSON, L); err != nil {
		log.Fatalf("Не удалось распарсить locales.json: %v", err)
	}
}

// Get возвращает указатель на локали
func Get() *Locales {
	return L
}
