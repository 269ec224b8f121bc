package repository

import (
	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
)

// PerformanceRepository определяет методы для сохранения журнала раундов и итогов игр
type PerformanceRepository interface {
	// SaveGame атомарно сохраняет итог игры и все раунды сессии.
	// Повторное сохранение той же сессии возвращает ErrConflict.
	SaveGame(result *entity.GameResult, records []entity.PerformanceRecord) error
	GetSessionRecords(sessionID string) ([]entity.PerformanceRecord, error)
	GetResultBySession(sessionID string) (*entity.GameResult, error)
	GetLeaderboard(limit int) ([]entity.GameResult, error)
}
