package entity

import "time"

// SessionSnapshot - сериализуемое состояние игровой сессии (хранится в Redis)
type SessionSnapshot struct {
	ID         string              `json:"id"`
	PlayerName string              `json:"player_name"`
	Phase      string              `json:"phase"`
	Score      int                 `json:"score"`
	Round      int                 `json:"round"`
	MaxRounds  int                 `json:"max_rounds"`
	Difficulty float64             `json:"difficulty"`
	AskedIDs   []uint              `json:"asked_ids"`
	Records    []PerformanceRecord `json:"records"`
	Pending    *PendingQuestion    `json:"pending,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// PendingQuestion - вопрос, ожидающий ответа, вместе с правильным вариантом.
// Отдельная структура нужна, так как Question скрывает CorrectOption в JSON.
type PendingQuestion struct {
	ID            uint      `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
	Tier          Tier      `json:"tier"`
	Relaxed       bool      `json:"relaxed"`
	PresentedAt   time.Time `json:"presented_at"`
}

// ToQuestion восстанавливает вопрос из снимка
func (p *PendingQuestion) ToQuestion() *Question {
	return &Question{
		ID:            p.ID,
		Text:          p.Text,
		Options:       StringArray(p.Options),
		CorrectOption: p.CorrectOption,
		Tier:          p.Tier,
	}
}
