package service

import (
	"context"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

// NoopSessionStore используется, когда Redis отключён: сессии живут только в памяти процесса
type NoopSessionStore struct{}

func (NoopSessionStore) Save(ctx context.Context, snapshot *entity.SessionSnapshot) error {
	return nil
}

func (NoopSessionStore) Load(ctx context.Context, sessionID string) (*entity.SessionSnapshot, error) {
	return nil, apperrors.ErrNotFound
}

func (NoopSessionStore) Delete(ctx context.Context, sessionID string) error {
	return nil
}
