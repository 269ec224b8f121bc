package repository

import (
	"context"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
)

// SessionStore хранит снимки игровых сессий между запросами.
// Load возвращает apperrors.ErrNotFound, если снимка нет.
type SessionStore interface {
	Save(ctx context.Context, snapshot *entity.SessionSnapshot) error
	Load(ctx context.Context, sessionID string) (*entity.SessionSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}
