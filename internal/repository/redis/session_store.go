package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	"github.com/yourusername/adaptive-trivia/internal/domain/repository"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

const sessionKeyPrefix = "game:session:"

// SessionStore хранит снимки игровых сессий в Redis через CacheRepository
type SessionStore struct {
	cache repository.CacheRepository
	ttl   time.Duration
}

// NewSessionStore создает хранилище снимков сессий
func NewSessionStore(cache repository.CacheRepository, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionStore{cache: cache, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Save сохраняет снимок, продлевая TTL
func (s *SessionStore) Save(ctx context.Context, snapshot *entity.SessionSnapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return fmt.Errorf("%w: empty session snapshot", apperrors.ErrValidation)
	}
	if err := s.cache.SetJSON(ctx, sessionKey(snapshot.ID), snapshot, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", snapshot.ID, err)
	}
	return nil
}

// Load читает снимок. Возвращает ErrNotFound, если сессия истекла или не существовала
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*entity.SessionSnapshot, error) {
	var snapshot entity.SessionSnapshot
	if err := s.cache.GetJSON(ctx, sessionKey(sessionID), &snapshot); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return &snapshot, nil
}

// Delete удаляет снимок
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, sessionKey(sessionID)); err != nil {
		log.Printf("[SessionStore] Ошибка удаления сессии %s: %v", sessionID, err)
		return err
	}
	return nil
}
