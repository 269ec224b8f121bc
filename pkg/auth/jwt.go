package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

const (
	ticketIssuer   = "adaptive-trivia"
	ticketAudience = "trivia-player"
	ticketUsage    = "game_session"

	minSecretLength = 16
)

// SessionClaims содержит поля тикета игровой сессии
type SessionClaims struct {
	SessionID  string `json:"sid"`
	PlayerName string `json:"player"`
	Usage      string `json:"usage"`
	jwt.RegisteredClaims
}

// TicketService выдает и проверяет тикеты игровых сессий (JWT HS256)
type TicketService struct {
	secret []byte
	keyID  string
	expiry time.Duration
	now    func() time.Time
}

// NewTicketService создает сервис тикетов. Секрет обязателен и должен быть не короче 16 байт
func NewTicketService(secret, keyID string, expiry time.Duration) (*TicketService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("session ticket secret must be at least %d bytes", minSecretLength)
	}
	if keyID == "" {
		keyID = "primary"
	}
	// Default expiry if not set or invalid
	if expiry <= 0 {
		expiry = 2 * time.Hour
	}
	return &TicketService{
		secret: []byte(secret),
		keyID:  keyID,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// IssueSessionTicket создает тикет доступа к сессии и возвращает время его истечения
func (s *TicketService) IssueSessionTicket(sessionID, playerName string) (string, time.Time, error) {
	if sessionID == "" {
		return "", time.Time{}, fmt.Errorf("%w: session id is required", apperrors.ErrValidation)
	}
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.expiry)

	claims := &SessionClaims{
		SessionID:  sessionID,
		PlayerName: playerName,
		Usage:      ticketUsage,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    ticketIssuer,
			Subject:   sessionID,
			Audience:  jwt.ClaimStrings{ticketAudience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = s.keyID

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		log.Printf("[JWT] Ошибка генерации тикета для сессии %s: %v", sessionID, err)
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseSessionTicket проверяет подпись, срок действия и назначение тикета
func (s *TicketService) ParseSessionTicket(ticket string) (*SessionClaims, error) {
	if ticket == "" {
		return nil, fmt.Errorf("%w: session ticket is missing", apperrors.ErrUnauthorized)
	}
	claims := &SessionClaims{}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if kid, _ := token.Header["kid"].(string); kid != s.keyID {
			return nil, fmt.Errorf("validation key with id '%s' not found", kid)
		}
		return s.secret, nil
	}

	token, err := jwt.ParseWithClaims(ticket, claims, keyFunc)
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, fmt.Errorf("%w: ticket is malformed", apperrors.ErrUnauthorized)
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, apperrors.ErrExpiredToken
			case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				log.Printf("[JWT] Неверная подпись тикета сессии %s", claims.SessionID)
				return nil, fmt.Errorf("%w: signature is invalid", apperrors.ErrUnauthorized)
			}
		}
		return nil, fmt.Errorf("%w: invalid ticket: %v", apperrors.ErrUnauthorized, err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid ticket", apperrors.ErrUnauthorized)
	}
	if claims.Usage != ticketUsage {
		return nil, fmt.Errorf("%w: invalid ticket usage", apperrors.ErrUnauthorized)
	}
	if !claims.VerifyAudience(ticketAudience, true) {
		return nil, fmt.Errorf("%w: invalid ticket audience", apperrors.ErrUnauthorized)
	}
	if claims.SessionID == "" || claims.SessionID != claims.Subject {
		return nil, fmt.Errorf("%w: ticket has no session", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

// VerifySessionTicket проверяет, что тикет выдан именно для sessionID
func (s *TicketService) VerifySessionTicket(ticket, sessionID string) (*SessionClaims, error) {
	claims, err := s.ParseSessionTicket(ticket)
	if err != nil {
		return nil, err
	}
	if claims.SessionID != sessionID {
		log.Printf("[JWT] Тикет сессии %s предъявлен для сессии %s", claims.SessionID, sessionID)
		return nil, fmt.Errorf("%w: ticket belongs to another session", apperrors.ErrUnauthorized)
	}
	return claims, nil
}
