package websocket

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/yourusername/adaptive-trivia/internal/metrics"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// incomingEvent - входящее сообщение, data разбирается обработчиком
type incomingEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandlerFunc обрабатывает сообщение одного типа.
// Возвращенная ошибка закрывает соединение.
type HandlerFunc func(data json.RawMessage, client *Client) error

// Manager обрабатывает WebSocket сообщения
type Manager struct {
	hub            *Hub
	messageHandler map[string]HandlerFunc
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub *Hub) *Manager {
	return &Manager{
		hub:            hub,
		messageHandler: make(map[string]HandlerFunc),
	}
}

// Hub возвращает хаб менеджера
func (m *Manager) Hub() *Hub {
	return m.hub
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler HandlerFunc) {
	m.messageHandler[eventType] = handler
	log.Printf("[WebSocketManager] Зарегистрирован обработчик для сообщений типа: %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если обработка не удалась и соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event incomingEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[WebSocketManager] Failed to unmarshal message from session %s: %v", client.SessionID, err)
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		metrics.ObserveWSMessage("in", "invalid")
		return err // Ошибка парсинга - закрываем соединение
	}
	metrics.ObserveWSMessage("in", event.Type)

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		log.Printf("[WebSocketManager] No handler registered for message type '%s' from session %s", event.Type, client.SessionID)
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil // Неизвестный тип - не закрываем соединение
	}

	if err := handler(event.Data, client); err != nil {
		log.Printf("[WebSocketManager] Handler for type '%s' returned error for session %s: %v", event.Type, client.SessionID, err)
		return err
	}
	return nil
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке клиенту.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	if err := m.SendEventToClient(client, SERVER_ERROR, map[string]string{
		"code":    code,
		"message": message,
	}); err != nil {
		log.Printf("[WebSocketManager] ERROR sending error to session %s: %v", client.SessionID, err)
	}
}

// SendEventToClient отправляет событие одному подключению
func (m *Manager) SendEventToClient(client *Client, eventType string, data interface{}) error {
	metrics.ObserveWSMessage("out", eventType)
	return client.SendJSON(Event{Type: eventType, Data: data})
}

// SendEventToSession отправляет событие всем подключениям сессии
func (m *Manager) SendEventToSession(sessionID string, eventType string, data interface{}) error {
	metrics.ObserveWSMessage("out", eventType)
	return m.hub.SendJSONToSession(sessionID, Event{Type: eventType, Data: data})
}
