package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/yourusername/adaptive-trivia/internal/metrics"
)

// Hub хранит подключения, сгруппированные по игровым сессиям.
// Одну сессию могут открыть несколько вкладок, сообщения получают все.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
}

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*Client]struct{})}
}

// Register добавляет клиента в хаб
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	clients, ok := h.sessions[c.SessionID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.sessions[c.SessionID] = clients
	}
	clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.WSConnected()
	log.Printf("[Hub] Клиент %s подключён к сессии %s", c.ConnectionID, c.SessionID)
}

// Unregister удаляет клиента и закрывает его канал отправки. Повторный вызов безопасен
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	clients, ok := h.sessions[c.SessionID]
	removed := false
	if ok {
		if _, exists := clients[c]; exists {
			delete(clients, c)
			removed = true
		}
		if len(clients) == 0 {
			delete(h.sessions, c.SessionID)
		}
	}
	h.mu.Unlock()

	if removed {
		c.CloseSend()
		metrics.WSDisconnected()
		log.Printf("[Hub] Клиент %s отключён от сессии %s", c.ConnectionID, c.SessionID)
	}
}

// SendToSession отправляет байтовое сообщение всем клиентам сессии.
// Возвращает количество клиентов, получивших сообщение.
func (h *Hub) SendToSession(sessionID string, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.sessions[sessionID] {
		if c.Send(message) {
			sent++
		}
	}
	return sent
}

// SendJSONToSession отправляет структуру JSON всем клиентам сессии
func (h *Hub) SendJSONToSession(sessionID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message for session %s: %w", sessionID, err)
	}
	h.SendToSession(sessionID, data)
	return nil
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.sessions {
		n += len(clients)
	}
	return n
}

// SessionClientCount возвращает количество подключений сессии
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
