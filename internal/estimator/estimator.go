// Package estimator оценивает калорийность еды. Оценка — подключаемая
// функция с фиксированной сигнатурой; сейчас вместо распознавания заглушка.
package estimator

import "strings"

// Estimate — результат оценки одного приёма пищи
type Estimate struct {
	Kcal       int
	Confidence float64
	Notes      string
}

// Estimator — подключаемая оценка калорийности
type Estimator interface {
	EstimatePhoto(photoURL string) Estimate
	EstimateText(text string) Estimate
}

// Stub — текущая эвристика: фиксированная оценка по фото и таблица
// ключевых слов для текста.
type Stub struct{}

// NewStub возвращает заглушечный оценщик
func NewStub() *Stub { return &Stub{} }

// EstimatePhoto всегда даёт среднюю оценку — распознавания пока нет
func (s *Stub) EstimatePhoto(photoURL string) Estimate {
	return Estimate{Kcal: 600, Confidence: 0.35, Notes: "MVP: без распознавания (заглушка)"}
}

// keyword — опорное слово и его вклад в ккал. Порядок фиксирован,
// каждое слово учитывается один раз.
type keyword struct {
	stem string
	kcal int
}

var keywords = []keyword{
	{"яйц", 160},
	{"хлеб", 120},
	{"куриц", 250},
	{"греч", 180},
	{"рис", 200},
	{"овсян", 180},
	{"макарон", 250},
	{"карто", 200},
	{"рыб", 220},
	{"мяс", 300},
	{"говядин", 300},
	{"сыр", 150},
	{"творог", 150},
	{"салат", 100},
	{"суп", 150},
	{"йогурт", 120},
	{"банан", 100},
	{"яблок", 70},
}

// EstimateText складывает вклады найденных в описании опорных слов.
// Ничего не нашли — средняя оценка с низкой уверенностью.
func (s *Stub) EstimateText(text string) Estimate {
	lower := strings.ToLower(text)

	var total int
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(lower, kw.stem) {
			total += kw.kcal
			matched = append(matched, kw.stem)
		}
	}

	if total == 0 {
		return Estimate{Kcal: 250, Confidence: 0.2, Notes: "не распознал блюдо, средняя оценка"}
	}
	return Estimate{
		Kcal:       total,
		Confidence: 0.4,
		Notes:      "по ключевым словам: " + strings.Join(matched, ", "),
	}
}
