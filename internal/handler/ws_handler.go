package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/adaptive-trivia/internal/handler/dto"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
	"github.com/yourusername/adaptive-trivia/internal/service"
	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
	"github.com/yourusername/adaptive-trivia/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения игрового канала
type WSHandler struct {
	wsManager   *websocket.Manager
	gameService *service.GameService
	upgrader    gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с CORS; пустой Origin (не браузер) разрешен всегда.
func NewWSHandler(wsManager *websocket.Manager, gameService *service.GameService, allowedOrigins []string) *WSHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	handler := &WSHandler{
		wsManager:   wsManager,
		gameService: gameService,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || origins["*"] || origins[origin] {
					return true
				}
				log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
				return false
			},
		},
	}

	// Регистрируем обработчики сообщений один раз при создании обработчика
	handler.registerMessageHandlers()

	return handler
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Тикет и ID сессии уже проверены middleware.
// GET /ws/games/:id?ticket=...
func (h *WSHandler) HandleConnection(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	game, err := h.gameService.GetGame(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[WSHandler] Ошибка при проверке сессии %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if game.Phase == string(quizmanager.PhaseFinished) {
		c.JSON(http.StatusConflict, gin.H{"error": apperrors.ErrSessionFinished.Error(), "error_type": "game_finished"})
		return
	}
	if open := h.wsManager.Hub().SessionClientCount(sessionID); open >= maxSessionConnections {
		log.Printf("[WSHandler] Сессия %s: превышен лимит подключений (%d)", sessionID, open)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many connections for this game", "error_type": "too_many_connections"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		log.Printf("[WSHandler] Error upgrading connection for session %s: %v", sessionID, err)
		return
	}

	client := websocket.NewClient(h.wsManager.Hub(), conn, sessionID)
	client.StartPumps(h.wsManager.HandleMessage)
}

// maxSessionConnections - сколько вкладок может одновременно держать одну игру
const maxSessionConnections = 4

// wsEventTimeout ограничивает время обработки одного события (запись в Redis/БД)
const wsEventTimeout = 10 * time.Second

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), wsEventTimeout)
}

// answerEvent - данные сообщения game:answer
type answerEvent struct {
	QuestionID   uint     `json:"question_id"`
	Answer       string   `json:"answer"`
	ReactionTime *float64 `json:"reaction_time,omitempty"`
}

// timeoutEvent - данные сообщения game:timeout
type timeoutEvent struct {
	ReactionTime *float64 `json:"reaction_time,omitempty"`
}

// registerMessageHandlers регистрирует обработчики для различных типов сообщений.
// Ошибки игры отправляются клиенту как server:error и не закрывают соединение.
func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler(websocket.GAME_NEXT, func(data json.RawMessage, client *websocket.Client) error {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		question, err := h.gameService.NextQuestion(ctx, client.SessionID)
		if err != nil {
			h.sendGameError(client, err)
			return nil
		}
		return h.sendToSession(client, websocket.SERVER_QUESTION, dto.NewQuestionResponse(question))
	})

	h.wsManager.RegisterHandler(websocket.GAME_ANSWER, func(data json.RawMessage, client *websocket.Client) error {
		var event answerEvent
		// Ошибка парсинга - фатальна
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("[WSHandler] Ошибка парсинга game:answer: %v, Data: %s", err, string(data))
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse game:answer event")
			return fmt.Errorf("failed to parse game:answer event: %w", err)
		}
		if event.ReactionTime != nil && *event.ReactionTime < 0 {
			event.ReactionTime = nil
		}

		ctx, cancel := contextWithTimeout()
		defer cancel()
		result, err := h.gameService.SubmitAnswer(ctx, client.SessionID, event.QuestionID, event.Answer, event.ReactionTime)
		if err != nil {
			h.sendGameError(client, err)
			return nil
		}
		return h.sendToSession(client, websocket.SERVER_RESULT, result)
	})

	h.wsManager.RegisterHandler(websocket.GAME_TIMEOUT, func(data json.RawMessage, client *websocket.Client) error {
		var event timeoutEvent
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, &event); err != nil {
				h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse game:timeout event")
				return fmt.Errorf("failed to parse game:timeout event: %w", err)
			}
		}

		ctx, cancel := contextWithTimeout()
		defer cancel()
		result, err := h.gameService.Timeout(ctx, client.SessionID, event.ReactionTime)
		if err != nil {
			h.sendGameError(client, err)
			return nil
		}
		return h.sendToSession(client, websocket.SERVER_RESULT, result)
	})

	h.wsManager.RegisterHandler(websocket.GAME_SUMMARY, func(data json.RawMessage, client *websocket.Client) error {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		summary, err := h.gameService.Summary(ctx, client.SessionID)
		if err != nil {
			h.sendGameError(client, err)
			return nil
		}
		return h.wsManager.SendEventToClient(client, websocket.SERVER_SUMMARY, summary)
	})

	h.wsManager.RegisterHandler(websocket.GAME_FINISH, func(data json.RawMessage, client *websocket.Client) error {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		report, err := h.gameService.FinishGame(ctx, client.SessionID)
		if err != nil {
			h.sendGameError(client, err)
			return nil
		}
		return h.sendToSession(client, websocket.SERVER_FINISHED, report)
	})

	// Обработчик для проверки соединения
	h.wsManager.RegisterHandler(websocket.USER_HEARTBEAT, func(data json.RawMessage, client *websocket.Client) error {
		heartbeat := map[string]interface{}{
			"timestamp": time.Now().UnixMilli(),
		}
		if err := h.wsManager.SendEventToClient(client, websocket.SERVER_HEARTBEAT, heartbeat); err != nil {
			log.Printf("[WSHandler] WARNING: Ошибка при отправке server:heartbeat сессии %s: %v", client.SessionID, err)
		}
		return nil // Никогда не закрываем соединение из-за heartbeat
	})
}

// sendToSession рассылает событие всем вкладкам сессии. Ошибка сериализации не закрывает соединение
func (h *WSHandler) sendToSession(client *websocket.Client, eventType string, data interface{}) error {
	if err := h.wsManager.SendEventToSession(client.SessionID, eventType, data); err != nil {
		log.Printf("[WSHandler] WARNING: Не удалось отправить %s сессии %s: %v", eventType, client.SessionID, err)
	}
	return nil
}

// sendGameError переводит ошибку сервиса в server:error
func (h *WSHandler) sendGameError(client *websocket.Client, err error) {
	code := "internal_error"
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = "not_found"
	case errors.Is(err, apperrors.ErrSessionFinished):
		code = "game_finished"
	case errors.Is(err, apperrors.ErrValidation):
		code = "validation"
	case errors.Is(err, apperrors.ErrConflict):
		code = "conflict"
	default:
		log.Printf("[WSHandler] ERROR: сессия %s: %v", client.SessionID, err)
		h.wsManager.SendErrorToClient(client, code, "Internal server error")
		return
	}
	h.wsManager.SendErrorToClient(client, code, err.Error())
}
