package quizmanager

import (
	"time"
)

// Constants for default values
const (
	DefaultMaxRounds       = 10
	DefaultWindowSize      = 3
	DefaultStartDifficulty = 0.5
)

// Config содержит настройки игровой сессии
type Config struct {
	MaxRounds       int     // Количество раундов в игре
	WindowSize      int     // Сколько последних раундов учитывается при пересчёте сложности
	StartDifficulty float64 // Начальная сложность сессии
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		MaxRounds:       DefaultMaxRounds,
		WindowSize:      DefaultWindowSize,
		StartDifficulty: DefaultStartDifficulty,
	}
}

// DifficultyPredictor отображает агрегированные показатели игрока в новую сложность [0.1, 0.9]
type DifficultyPredictor interface {
	Predict(accuracy, reactionTime, attempts float64) float64
	Strategy() string
}

// Phase - фаза игровой сессии
type Phase string

const (
	PhaseAwaitingQuestion Phase = "awaiting_question"
	PhaseAwaitingAnswer   Phase = "awaiting_answer"
	PhaseScored           Phase = "scored"
	PhaseFinished         Phase = "finished"
)

// Outcome - итог раунда
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeTimeout   Outcome = "timeout"
)

// QuestionView - вопрос в том виде, в котором он показывается игроку (без правильного ответа)
type QuestionView struct {
	ID        uint     `json:"id"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	Tier      string   `json:"tier"`
	TierValue float64  `json:"difficulty"`
	Relaxed   bool     `json:"relaxed"`
	Round     int      `json:"round"`
	TimeLimit int      `json:"time_limit_sec"`
}

// RoundResult - результат обработки ответа
type RoundResult struct {
	Accepted           bool    `json:"accepted"`
	Correct            bool    `json:"correct"`
	Outcome            Outcome `json:"outcome,omitempty"`
	Points             int     `json:"points"`
	Score              int     `json:"score"`
	Round              int     `json:"round"`
	CorrectOption      int     `json:"correct_option"`
	OldDifficulty      float64 `json:"old_difficulty"`
	NewDifficulty      float64 `json:"new_difficulty"`
	OldDifficultyLabel string  `json:"old_difficulty_label"`
	NewDifficultyLabel string  `json:"new_difficulty_label"`
	DifficultyChange   string  `json:"difficulty_change"`
	Finished           bool    `json:"finished"`
}

// Summary - сводка по журналу раундов
type Summary struct {
	TotalRounds        int     `json:"total_rounds"`
	CorrectAnswers     int     `json:"correct_answers"`
	AvgAccuracyPercent float64 `json:"avg_accuracy_percent"`
	AvgReactionTime    float64 `json:"avg_reaction_time"`
	AvgAttempts        float64 `json:"avg_attempts"`
}

// Clock возвращает текущее время; подменяется в тестах
type Clock func() time.Time
