package quizmanager

import (
	"fmt"
	"sync"

	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

// Registry хранит активные сессии процесса. Удаление только явное
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*TriviaSession
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*TriviaSession)}
}

// Add регистрирует сессию. Повторная регистрация того же ID возвращает ErrConflict
func (r *Registry) Add(s *TriviaSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ID()]; exists {
		return fmt.Errorf("%w: session %s already registered", apperrors.ErrConflict, s.ID())
	}
	r.sessions[s.ID()] = s
	return nil
}

// Put регистрирует сессию, если ID свободен, иначе возвращает уже зарегистрированную.
// Используется при восстановлении сессии из хранилища.
func (r *Registry) Put(s *TriviaSession) *TriviaSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[s.ID()]; ok {
		return existing
	}
	r.sessions[s.ID()] = s
	return s
}

// Get возвращает сессию по ID
func (r *Registry) Get(id string) (*TriviaSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete удаляет сессию. Возвращает false, если её не было
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len возвращает количество активных сессий
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
