package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// CreateBatch создает пакет вопросов в одной транзакции
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&questions, 100).Error
	})
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: duplicate question id in batch", apperrors.ErrConflict)
	}
	return err
}

// ListAll возвращает все вопросы банка
func (r *QuestionRepo) ListAll() ([]entity.Question, error) {
	var questions []entity.Question
	if err := r.db.Order("id").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// CountByTier возвращает количество вопросов уровня
func (r *QuestionRepo) CountByTier(tier entity.Tier) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).Where("tier = ?", tier).Count(&count).Error
	return count, err
}

// Count возвращает общее количество вопросов
func (r *QuestionRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).Count(&count).Error
	return count, err
}
