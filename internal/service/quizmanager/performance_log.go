package quizmanager

import (
	"fmt"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

// Значения агрегата для пустого окна
const (
	defaultAggregateAccuracy     = 0.5
	defaultAggregateReactionTime = 10.0
	defaultAggregateAttempts     = 1.0
)

// PerformanceLog - журнал раундов сессии, только добавление
type PerformanceLog struct {
	records []entity.PerformanceRecord
}

// NewPerformanceLog создает журнал из уже существующих записей (например, при восстановлении сессии)
func NewPerformanceLog(records []entity.PerformanceRecord) (*PerformanceLog, error) {
	l := &PerformanceLog{}
	for _, r := range records {
		if err := l.Append(r); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append добавляет запись. Номер раунда не может уменьшаться
func (l *PerformanceLog) Append(record entity.PerformanceRecord) error {
	if record.Accuracy < 0 || record.Accuracy > 1 {
		return fmt.Errorf("%w: accuracy %.2f out of [0,1]", apperrors.ErrValidation, record.Accuracy)
	}
	if record.ReactionTime < 0 {
		return fmt.Errorf("%w: negative reaction time %.2f", apperrors.ErrValidation, record.ReactionTime)
	}
	if record.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be >= 1, got %d", apperrors.ErrValidation, record.Attempts)
	}
	if n := len(l.records); n > 0 && record.Round < l.records[n-1].Round {
		return fmt.Errorf("%w: round %d after round %d", apperrors.ErrValidation, record.Round, l.records[n-1].Round)
	}
	l.records = append(l.records, record)
	return nil
}

// Len возвращает количество записей
func (l *PerformanceLog) Len() int {
	return len(l.records)
}

// Records возвращает копию всех записей
func (l *PerformanceLog) Records() []entity.PerformanceRecord {
	out := make([]entity.PerformanceRecord, len(l.records))
	copy(out, l.records)
	return out
}

// RecentWindow возвращает последние n записей (или все, если их меньше)
func (l *PerformanceLog) RecentWindow(n int) []entity.PerformanceRecord {
	if n <= 0 {
		return nil
	}
	start := len(l.records) - n
	if start < 0 {
		start = 0
	}
	out := make([]entity.PerformanceRecord, len(l.records)-start)
	copy(out, l.records[start:])
	return out
}

// Aggregate возвращает средние точность, время реакции и число попыток по окну.
// Для пустого окна возвращаются нейтральные значения (0.5, 10, 1).
func Aggregate(window []entity.PerformanceRecord) (accuracy, reactionTime, attempts float64) {
	if len(window) == 0 {
		return defaultAggregateAccuracy, defaultAggregateReactionTime, defaultAggregateAttempts
	}
	for _, r := range window {
		accuracy += r.Accuracy
		reactionTime += r.ReactionTime
		attempts += float64(r.Attempts)
	}
	n := float64(len(window))
	return accuracy / n, reactionTime / n, attempts / n
}

// FullSummary считает сводку по всему журналу. ok=false, если данных нет
func (l *PerformanceLog) FullSummary() (Summary, bool) {
	if len(l.records) == 0 {
		return Summary{}, false
	}
	acc, rt, att := Aggregate(l.records)
	correct := 0
	for i := range l.records {
		if l.records[i].IsCorrect() {
			correct++
		}
	}
	return Summary{
		TotalRounds:        len(l.records),
		CorrectAnswers:     correct,
		AvgAccuracyPercent: acc * 100,
		AvgReactionTime:    rt,
		AvgAttempts:        att,
	}, true
}
