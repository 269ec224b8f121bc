package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/adaptive-trivia/internal/export"
	"github.com/yourusername/adaptive-trivia/internal/handler/dto"
	"github.com/yourusername/adaptive-trivia/internal/middleware"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
	"github.com/yourusername/adaptive-trivia/internal/service"
)

// ContextKeySessionID - ключ ID сессии в контексте Gin (заполняется middleware.ExtractSessionID)
const ContextKeySessionID = "sessionID"

const maxLeaderboardLimit = 100

// GameHandler обрабатывает запросы, связанные с играми
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler создает новый обработчик игр
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// StartGame создает новую игру
// POST /api/games
func (h *GameHandler) StartGame(c *gin.Context) {
	var req dto.StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	game, ticket, err := h.gameService.StartGame(c.Request.Context(), req.PlayerName)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.StartGameResponse{Game: game, Ticket: ticket})
}

// GetGame возвращает состояние игры
// GET /api/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	game, err := h.gameService.GetGame(c.Request.Context(), sessionID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// GetQuestion возвращает текущий вопрос игры
// GET /api/games/:id/question
func (h *GameHandler) GetQuestion(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	question, err := h.gameService.NextQuestion(c.Request.Context(), sessionID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionResponse(question))
}

// SubmitAnswer принимает ответ на текущий вопрос
// POST /api/games/:id/answer
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	var (
		result *service.AnswerView
		err    error
	)
	if req.TimedOut {
		result, err = h.gameService.Timeout(c.Request.Context(), sessionID, req.ReactionTime)
	} else {
		result, err = h.gameService.SubmitAnswer(c.Request.Context(), sessionID, req.QuestionID, req.Answer, req.ReactionTime)
	}
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	// Accepted=false: вопрос не был показан или игра уже завершена
	c.JSON(http.StatusOK, result)
}

// GetSummary возвращает сводку по сыгранным раундам
// GET /api/games/:id/summary
func (h *GameHandler) GetSummary(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	summary, err := h.gameService.Summary(c.Request.Context(), sessionID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetQuestionStats возвращает количество показанных вопросов
// GET /api/games/:id/stats
func (h *GameHandler) GetQuestionStats(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	stats, err := h.gameService.QuestionStats(c.Request.Context(), sessionID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// FinishGame завершает игру и возвращает итоговый отчёт
// POST /api/games/:id/finish
func (h *GameHandler) FinishGame(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	report, err := h.gameService.FinishGame(c.Request.Context(), sessionID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RestartGame отбрасывает игру без сохранения
// DELETE /api/games/:id
func (h *GameHandler) RestartGame(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)

	if err := h.gameService.RestartGame(c.Request.Context(), sessionID); err != nil {
		h.handleGameError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportLog выгружает журнал раундов в CSV или Excel
// GET /api/games/:id/export?format=csv|xlsx
func (h *GameHandler) ExportLog(c *gin.Context) {
	sessionID := c.MustGet(ContextKeySessionID).(string)
	format := c.DefaultQuery("format", export.FormatCSV)

	// Буферизуем, чтобы при ошибке вернуть JSON, а не обрезанный файл
	var buf bytes.Buffer
	if err := h.gameService.ExportLog(c.Request.Context(), sessionID, format, &buf); err != nil {
		h.handleGameError(c, err)
		return
	}

	player := c.GetString(middleware.ContextKeyPlayerName)
	filename := export.FileName(player, sessionID, time.Now(), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}

// GetLeaderboard возвращает лучшие результаты
// GET /api/leaderboard?limit=10&format=json|csv
func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > maxLeaderboardLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxLeaderboardLimit)})
		return
	}

	if c.Query("format") == export.FormatCSV {
		var buf bytes.Buffer
		if err := h.gameService.LeaderboardCSV(c.Request.Context(), limit, &buf); err != nil {
			h.handleGameError(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=\"leaderboard.csv\"")
		c.Data(http.StatusOK, export.ContentType(export.FormatCSV), buf.Bytes())
		return
	}

	results, err := h.gameService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.handleGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": dto.NewLeaderboardResponse(results)})
}

// handleGameError обрабатывает ошибки игрового сервиса и отправляет соответствующий HTTP ответ
func (h *GameHandler) handleGameError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	} else if errors.Is(err, apperrors.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "no_data"})
	} else if errors.Is(err, apperrors.ErrSessionFinished) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "game_finished"})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation"})
	} else if errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrExpiredToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "unauthorized"})
	} else {
		log.Printf("[GameHandler] ERROR: Internal server error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
