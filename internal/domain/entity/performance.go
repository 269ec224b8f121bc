package entity

import (
	"time"
)

// PerformanceRecord фиксирует результат одного раунда игры.
// Difficulty - сложность сессии на момент раунда (до пересчёта).
type PerformanceRecord struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	SessionID    string    `gorm:"size:36;not null;index:idx_perf_session_round" json:"-"`
	PlayerName   string    `gorm:"size:50;not null" json:"-"`
	Round        int       `gorm:"not null;index:idx_perf_session_round" json:"round"`
	Difficulty   float64   `gorm:"not null" json:"difficulty"`
	Accuracy     float64   `gorm:"not null" json:"accuracy"`
	ReactionTime float64   `gorm:"not null" json:"reaction_time"`
	Attempts     int       `gorm:"not null;default:1" json:"attempts"`
	Timestamp    time.Time `gorm:"not null" json:"timestamp"`
}

// TableName определяет имя таблицы для GORM
func (PerformanceRecord) TableName() string {
	return "performance_records"
}

// IsCorrect возвращает true, если раунд засчитан как правильный
func (r *PerformanceRecord) IsCorrect() bool {
	return r.Accuracy >= 1
}
