package dto

import (
	"time"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	"github.com/yourusername/adaptive-trivia/internal/handler/helper"
	"github.com/yourusername/adaptive-trivia/internal/service"
	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
)

// StartGameRequest - запрос на создание игры
type StartGameRequest struct {
	PlayerName string `json:"player_name" binding:"required,max=50"`
}

// StartGameResponse - созданная игра и тикет доступа к ней
type StartGameResponse struct {
	Game   *service.GameView `json:"game"`
	Ticket string            `json:"ticket"`
}

// SubmitAnswerRequest - ответ игрока. Answer: номер варианта (1-4) или буква (a-d).
// ReactionTime не указывается, если время считает сервер. При TimedOut question_id не обязателен.
type SubmitAnswerRequest struct {
	QuestionID   uint     `json:"question_id" binding:"required_unless=TimedOut true"`
	Answer       string   `json:"answer" binding:"max=16"`
	ReactionTime *float64 `json:"reaction_time,omitempty" binding:"omitempty,gte=0,lte=3600"`
	TimedOut     bool     `json:"timed_out,omitempty"`
}

// QuestionResponse представляет вопрос в формате для ответа клиенту
type QuestionResponse struct {
	ID           uint                    `json:"id"`
	Text         string                  `json:"text"`
	Options      []helper.QuestionOption `json:"options"`
	Tier         string                  `json:"tier"`
	Difficulty   float64                 `json:"difficulty"`
	Relaxed      bool                    `json:"relaxed"`
	Round        int                     `json:"round"`
	TimeLimitSec int                     `json:"time_limit_sec"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *quizmanager.QuestionView) *QuestionResponse {
	return &QuestionResponse{
		ID:           q.ID,
		Text:         q.Text,
		Options:      helper.ConvertOptionsToObjects(q.Options),
		Tier:         q.Tier,
		Difficulty:   q.TierValue,
		Relaxed:      q.Relaxed,
		Round:        q.Round,
		TimeLimitSec: q.TimeLimit,
	}
}

// LeaderboardEntry - строка таблицы лидеров
type LeaderboardEntry struct {
	Rank               int       `json:"rank"`
	PlayerName         string    `json:"player_name"`
	Score              int       `json:"score"`
	CorrectAnswers     int       `json:"correct_answers"`
	TotalRounds        int       `json:"total_rounds"`
	AvgAccuracyPercent float64   `json:"avg_accuracy_percent"`
	FinalDifficulty    float64   `json:"final_difficulty"`
	CompletedAt        time.Time `json:"completed_at"`
}

// NewLeaderboardResponse создает DTO таблицы лидеров
func NewLeaderboardResponse(results []entity.GameResult) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(results))
	for i, r := range results {
		entries[i] = LeaderboardEntry{
			Rank:               i + 1,
			PlayerName:         r.PlayerName,
			Score:              r.Score,
			CorrectAnswers:     r.CorrectAnswers,
			TotalRounds:        r.TotalRounds,
			AvgAccuracyPercent: r.AvgAccuracyPercent,
			FinalDifficulty:    r.FinalDifficulty,
			CompletedAt:        r.CompletedAt,
		}
	}
	return entries
}
