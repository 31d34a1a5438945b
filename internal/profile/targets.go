package profile

import (
	"math"
	"strconv"

	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

// Запасные значения на случай мусора во входных данных: цель кормит только
// напоминания, поэтому падать из-за неё нельзя.
const (
	FallbackTDEE       = 2500
	FallbackKcalTarget = 2100
	FallbackSteps      = 9000
)

// Нижняя граница дневной цели
const minKcalTarget = 1500

var activityFactors = map[string]float64{
	models.ActivityLow:    1.20,
	models.ActivityMedium: 1.375,
	models.ActivityHigh:   1.55,
}

// ComputeTargets считает дневные цели: формула Миффлина-Сан Жеора (мужской
// базовый коэффициент), множитель активности, дефицит 20% (25% при цели
// goal_weeks ≤ 10), пол не ниже 1500 ккал. Шаги: 11000 при высокой
// активности, иначе 9000. Мусор на входе — запасные константы, не ошибка.
func ComputeTargets(weightKg, heightCm, age, activity, goalWeeks string) (tdee, kcalTarget, stepsTarget int) {
	w, errW := strconv.ParseFloat(weightKg, 64)
	h, errH := strconv.ParseFloat(heightCm, 64)
	a, errA := strconv.ParseFloat(age, 64)
	if errW != nil || errH != nil || errA != nil || w <= 0 || h <= 0 || a <= 0 {
		return FallbackTDEE, FallbackKcalTarget, FallbackSteps
	}

	bmr := 10*w + 6.25*h - 5*a + 5

	factor, ok := activityFactors[activity]
	if !ok {
		factor = activityFactors[models.ActivityMedium]
	}
	tdeeF := bmr * factor

	// короткий срок — агрессивный дефицит; граница включительно на стороне ≤10
	deficit := 0.80
	if weeks, err := strconv.ParseFloat(goalWeeks, 64); err == nil && weeks > 0 && weeks <= 10 {
		deficit = 0.75
	}

	kcal := int(math.Round(tdeeF * deficit))
	if kcal < minKcalTarget {
		kcal = minKcalTarget
	}

	steps := 9000
	if activity == models.ActivityHigh {
		steps = 11000
	}

	return int(math.Round(tdeeF)), kcal, steps
}
