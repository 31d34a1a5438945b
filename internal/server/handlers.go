package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Maxim19822003/bot-hudey/internal/profile"
	"github.com/Maxim19822003/bot-hudey/internal/telegram"
	"github.com/Maxim19822003/bot-hudey/pkg/models"
)

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// webhook принимает обновления Telegram. Распознанные, но пустые события
// получают 200, чтобы апстрим не ретраил; 500 — только на внутреннюю ошибку.
func (s *Server) webhook(c *gin.Context) {
	if s.webhookSecret != "" && c.Query("secret") != s.webhookSecret {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		// не наш формат — инертное событие, ретраить нечего
		c.String(http.StatusOK, "OK")
		return
	}

	if err := s.bot.HandleUpdate(c.Request.Context(), update); err != nil {
		log.Printf("Ошибка обработки обновления: %v", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.String(http.StatusOK, "OK")
}

func (s *Server) today(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "user_id required"})
		return
	}

	date := time.Now().Format("2006-01-02")

	target := profile.DefaultKcalTarget
	if p, _, err := s.profiles.Find(c.Request.Context(), userID); err == nil && p != nil && p.KcalTarget != "" {
		target = p.KcalTarget
	}

	eaten, err := s.meals.SumToday(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "storage error"})
		return
	}

	steps := 0
	if daily, err := s.meals.DailyFor(c.Request.Context(), userID, date); err == nil && daily != nil {
		steps, _ = strconv.Atoi(daily.Steps)
	}

	targetN, _ := strconv.Atoi(target)
	left := targetN - eaten
	if left < 0 {
		left = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"date":        date,
		"kcal_target": targetN,
		"kcal_eaten":  eaten,
		"kcal_left":   left,
		"steps":       steps,
	})
}

type profileSaveRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	FirstName     string `json:"first_name"`
	HeightCm      string `json:"height_cm"`
	Age           string `json:"age"`
	StartWeightKg string `json:"start_weight_kg"`
	GoalWeightKg  string `json:"goal_weight_kg"`
	GoalWeeks     string `json:"goal_weeks"`
	ActivityLevel string `json:"activity_level"`
	Timezone      string `json:"timezone"`
	CheckinTime   string `json:"checkin_time"`
	CheckoutTime  string `json:"checkout_time"`
}

func (s *Server) profileSave(c *gin.Context) {
	var req profileSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "user_id required"})
		return
	}

	_, kcal, steps := profile.ComputeTargets(req.StartWeightKg, req.HeightCm, req.Age, req.ActivityLevel, req.GoalWeeks)

	err := s.profiles.Upsert(c.Request.Context(), &models.UserProfile{
		UserID:        req.UserID,
		FirstName:     req.FirstName,
		Timezone:      req.Timezone,
		HeightCm:      req.HeightCm,
		Age:           req.Age,
		StartWeightKg: req.StartWeightKg,
		GoalWeightKg:  req.GoalWeightKg,
		GoalWeeks:     req.GoalWeeks,
		ActivityLevel: req.ActivityLevel,
		KcalTarget:    strconv.Itoa(kcal),
		CheckinTime:   req.CheckinTime,
		CheckoutTime:  req.CheckoutTime,
		StepsTarget:   strconv.Itoa(steps),
	})
	if err != nil {
		log.Printf("Ошибка сохранения профиля: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "storage error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"kcal_target":  kcal,
		"steps_target": steps,
	})
}

func (s *Server) weightHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "user_id required"})
		return
	}

	days := 7
	if d, err := strconv.Atoi(c.Query("days")); err == nil && d > 0 {
		days = d
	}

	history, err := s.meals.WeightHistory(c.Request.Context(), userID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "storage error"})
		return
	}
	if history == nil {
		history = []models.WeightDay{}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "days": history})
}
