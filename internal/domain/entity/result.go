package entity

import (
	"time"
)

// GameResult представляет итог завершённой игровой сессии
type GameResult struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SessionID          string    `gorm:"size:36;not null;uniqueIndex" json:"session_id"`
	PlayerName         string    `gorm:"size:50;not null;index" json:"player_name"`
	Score              int       `gorm:"not null;default:0;index:idx_results_score" json:"score"`
	TotalRounds        int       `gorm:"not null;default:0" json:"total_rounds"`
	CorrectAnswers     int       `gorm:"not null;default:0" json:"correct_answers"`
	AvgAccuracyPercent float64   `gorm:"not null;default:0" json:"avg_accuracy_percent"`
	AvgReactionTime    float64   `gorm:"not null;default:0" json:"avg_reaction_time"`
	FinalDifficulty    float64   `gorm:"not null;default:0.5" json:"final_difficulty"`
	PredictorStrategy  string    `gorm:"size:20;not null" json:"predictor_strategy"`
	CompletedAt        time.Time `gorm:"not null" json:"completed_at"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (GameResult) TableName() string {
	return "game_results"
}
