package quizmanager

import (
	"math"
	"strconv"
	"strings"
)

// Параметры начисления очков
const (
	basePoints        = 100
	maxBonusTimeSec   = 20.0
	bonusFactor       = 0.5
	minAnswerLimitSec = 5
)

// ParseAnswer разбирает ответ игрока в индекс варианта (с нуля).
// Принимаются номер варианта с единицы ("2") или буква a-d в любом регистре.
// ok=false для любого другого ввода.
func ParseAnswer(raw string, optionsCount int) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	idx := -1
	if n, err := strconv.Atoi(s); err == nil {
		idx = n - 1
	} else if len(s) == 1 {
		c := strings.ToLower(s)[0]
		if c >= 'a' && c <= 'd' {
			idx = int(c - 'a')
		}
	}

	if idx < 0 || idx >= optionsCount {
		return 0, false
	}
	return idx, true
}

// CalculatePoints считает очки за правильный ответ на вопрос сложности difficulty.
// База 100 + 100*сложность, бонус за скорость до 50% базы при ответе быстрее 20 секунд.
func CalculatePoints(difficulty, reactionTime float64) int {
	base := basePoints + int(math.Round(difficulty*100))
	timeFactor := math.Max(0, 1-reactionTime/maxBonusTimeSec)
	bonus := int(math.Round(float64(base) * timeFactor * bonusFactor))
	return base + bonus
}

// AnswerTimeLimit возвращает лимит времени на ответ в секундах для сложности вопроса
func AnswerTimeLimit(difficulty float64) int {
	limit := int(maxBonusTimeSec - difficulty*10)
	if limit < minAnswerLimitSec {
		return minAnswerLimitSec
	}
	return limit
}
