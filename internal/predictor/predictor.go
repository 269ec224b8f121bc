// Package predictor пересчитывает сложность игры по агрегированным показателям игрока.
package predictor

import (
	"math"
)

// Стратегии пересчёта сложности
const (
	StrategyAuto    = "auto"
	StrategyLearned = "learned"
	StrategyRule    = "rule"
)

// Границы выходной сложности
const (
	MinDifficulty = 0.1
	MaxDifficulty = 0.9
)

// Параметры нормализации входов
const (
	maxReactionTimeSec = 20.0
	maxAttempts        = 3.0
)

// Predictor отображает (точность, время реакции, попытки) в сложность [0.1, 0.9]
type Predictor interface {
	Predict(accuracy, reactionTime, attempts float64) float64
	Strategy() string
}

// normalize приводит входы к [0,1]: время делится на 20 с, попытки на 3, оба ограничены единицей
func normalize(accuracy, reactionTime, attempts float64) [3]float64 {
	return [3]float64{
		clamp(accuracy, 0, 1),
		clamp(reactionTime, 0, maxReactionTimeSec) / maxReactionTimeSec,
		clamp(attempts, 0, maxAttempts) / maxAttempts,
	}
}

// targetDifficulty - формула, на которой обучается модель
func targetDifficulty(accuracy, reactionNorm, attemptsNorm float64) float64 {
	return clip(0.7*accuracy - 0.2*reactionNorm - 0.1*attemptsNorm)
}

// clip ограничивает сложность диапазоном [MinDifficulty, MaxDifficulty]
func clip(v float64) float64 {
	if math.IsNaN(v) {
		return MinDifficulty
	}
	return clamp(v, MinDifficulty, MaxDifficulty)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
