package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStub_EstimatePhoto(t *testing.T) {
	est := NewStub().EstimatePhoto("https://example.com/photo.jpg")
	assert.Equal(t, 600, est.Kcal)
	assert.InDelta(t, 0.35, est.Confidence, 0.001)
	assert.NotEmpty(t, est.Notes)
}

func TestStub_EstimateText_Keywords(t *testing.T) {
	est := NewStub().EstimateText("яйца и хлеб")
	assert.Equal(t, 280, est.Kcal)
	assert.InDelta(t, 0.4, est.Confidence, 0.001)
	assert.Contains(t, est.Notes, "яйц")
	assert.Contains(t, est.Notes, "хлеб")
}

func TestStub_EstimateText_CaseInsensitive(t *testing.T) {
	est := NewStub().EstimateText("КУРИЦА С РИСОМ")
	assert.Equal(t, 450, est.Kcal)
}

func TestStub_EstimateText_KeywordCountedOnce(t *testing.T) {
	est := NewStub().EstimateText("банан, ещё банан и третий банан")
	assert.Equal(t, 100, est.Kcal)
}

func TestStub_EstimateText_Unknown(t *testing.T) {
	est := NewStub().EstimateText("что-то невнятное")
	assert.Equal(t, 250, est.Kcal)
	assert.InDelta(t, 0.2, est.Confidence, 0.001)
}
