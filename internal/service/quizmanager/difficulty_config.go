package quizmanager

import (
	"fmt"
	"math"
	"strings"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
)

// DifficultyConfig содержит границы адаптивной сложности
type DifficultyConfig struct {
	// MinDifficulty - минимальная сложность сессии
	MinDifficulty float64

	// MaxDifficulty - максимальная сложность сессии
	MaxDifficulty float64

	// EasyUpperBound - сложность, до которой (включительно) выбираются лёгкие вопросы
	EasyUpperBound float64

	// MediumUpperBound - сложность, до которой (включительно) выбираются средние вопросы
	MediumUpperBound float64
}

// DefaultDifficultyConfig возвращает настройки по умолчанию
func DefaultDifficultyConfig() *DifficultyConfig {
	return &DifficultyConfig{
		MinDifficulty:    0.1,
		MaxDifficulty:    0.9,
		EasyUpperBound:   0.3,
		MediumUpperBound: 0.6,
	}
}

// Clamp ограничивает сложность диапазоном [MinDifficulty, MaxDifficulty]
func (c *DifficultyConfig) Clamp(d float64) float64 {
	if math.IsNaN(d) {
		return c.MinDifficulty
	}
	return math.Max(c.MinDifficulty, math.Min(c.MaxDifficulty, d))
}

// TierFor возвращает уровень вопросов для текущей сложности
func (c *DifficultyConfig) TierFor(d float64) entity.Tier {
	switch {
	case d <= c.EasyUpperBound:
		return entity.TierEasy
	case d <= c.MediumUpperBound:
		return entity.TierMedium
	default:
		return entity.TierHard
	}
}

// DifficultyLabel возвращает человекочитаемое название сложности
func DifficultyLabel(d float64) string {
	switch {
	case d <= 0.2:
		return "Very Easy"
	case d <= 0.4:
		return "Easy"
	case d <= 0.6:
		return "Medium"
	case d <= 0.8:
		return "Hard"
	default:
		return "Very Hard"
	}
}

// DifficultyChange описывает направление изменения сложности
func DifficultyChange(oldD, newD float64) string {
	const eps = 1e-9
	switch {
	case newD > oldD+eps:
		return "increase"
	case newD < oldD-eps:
		return "decrease"
	default:
		return "unchanged"
	}
}

// ProgressBar рисует ASCII-шкалу сложности, например "[██████████░░░░░░░░░░] 50.0%"
func ProgressBar(value float64, width int) string {
	if width <= 0 {
		width = 20
	}
	value = math.Max(0, math.Min(1, value))
	filled := int(value * float64(width))
	return fmt.Sprintf("[%s%s] %.1f%%",
		strings.Repeat("█", filled), strings.Repeat("░", width-filled), value*100)
}
