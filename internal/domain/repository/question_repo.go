package repository

import (
	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов в БД
type QuestionRepository interface {
	CreateBatch(questions []entity.Question) error
	ListAll() ([]entity.Question, error)
	CountByTier(tier entity.Tier) (int64, error)
	Count() (int64, error)
}
