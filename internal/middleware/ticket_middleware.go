package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
	"github.com/yourusername/adaptive-trivia/pkg/auth"
)

const (
	// SessionTicketHeader - заголовок с тикетом игровой сессии
	SessionTicketHeader = "X-Session-Ticket"
	// ContextKeyPlayerName - ключ имени игрока в контексте Gin
	ContextKeyPlayerName = "player_name"
)

// TicketVerifier проверяет тикет для конкретной сессии
type TicketVerifier interface {
	VerifySessionTicket(ticket, sessionID string) (*auth.SessionClaims, error)
}

// TicketMiddleware проверяет доступ к игровой сессии
type TicketMiddleware struct {
	verifier TicketVerifier
}

// NewTicketMiddleware создает middleware проверки тикетов
func NewTicketMiddleware(verifier TicketVerifier) *TicketMiddleware {
	return &TicketMiddleware{verifier: verifier}
}

// RequireSessionTicket проверяет, что тикет выдан для сессии из контекста (sessionKey).
// Тикет берется из заголовка X-Session-Ticket, Authorization: Bearer или query-параметра ticket.
func (m *TicketMiddleware) RequireSessionTicket(sessionKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(sessionKey)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Session id is required", "error_type": "invalid_session_id"})
			return
		}

		ticket := ticketFromRequest(c)
		if ticket == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session ticket is required", "error_type": "ticket_missing"})
			return
		}

		claims, err := m.verifier.VerifySessionTicket(ticket, sessionID)
		if err != nil {
			errorType := "ticket_invalid"
			if errors.Is(err, apperrors.ErrExpiredToken) {
				errorType = "ticket_expired"
			}
			log.Printf("[TicketMiddleware] Отклонён тикет для сессии %s: %v", sessionID, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session ticket", "error_type": errorType})
			return
		}

		c.Set(ContextKeyPlayerName, claims.PlayerName)
		c.Next()
	}
}

func ticketFromRequest(c *gin.Context) string {
	if ticket := strings.TrimSpace(c.GetHeader(SessionTicketHeader)); ticket != "" {
		return ticket
	}
	// Проверяем формат заголовка Bearer {token}
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	// Браузерный WebSocket не умеет слать заголовки
	return c.Query("ticket")
}
