package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

const maxLeaderboardLimit = 100

// PerformanceRepo реализует repository.PerformanceRepository
type PerformanceRepo struct {
	db *gorm.DB
}

// NewPerformanceRepo создает новый репозиторий результатов
func NewPerformanceRepo(db *gorm.DB) *PerformanceRepo {
	return &PerformanceRepo{db: db}
}

// SaveGame атомарно сохраняет итог игры и журнал раундов.
// Повторное сохранение сессии возвращает ErrConflict (уникальный индекс по session_id).
func (r *PerformanceRepo) SaveGame(result *entity.GameResult, records []entity.PerformanceRecord) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		rows := make([]entity.PerformanceRecord, len(records))
		for i, rec := range records {
			rec.ID = 0
			rec.SessionID = result.SessionID
			rec.PlayerName = result.PlayerName
			rows[i] = rec
		}
		return tx.CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: game %s already saved", apperrors.ErrConflict, result.SessionID)
		}
		return fmt.Errorf("save game %s failed: %w", result.SessionID, err)
	}
	return nil
}

// GetSessionRecords возвращает журнал раундов сессии по порядку
func (r *PerformanceRepo) GetSessionRecords(sessionID string) ([]entity.PerformanceRecord, error) {
	var records []entity.PerformanceRecord
	err := r.db.Where("session_id = ?", sessionID).Order("round, id").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetResultBySession возвращает итог игры по ID сессии
func (r *PerformanceRepo) GetResultBySession(sessionID string) (*entity.GameResult, error) {
	var result entity.GameResult
	err := r.db.Where("session_id = ?", sessionID).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// GetLeaderboard возвращает лучшие результаты
func (r *PerformanceRepo) GetLeaderboard(limit int) ([]entity.GameResult, error) {
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	var results []entity.GameResult
	err := r.db.Order("score DESC").Order("completed_at ASC").Limit(limit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// isUniqueViolation проверяет нарушение уникальности для pgx, lib/pq и TranslateError gorm
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
