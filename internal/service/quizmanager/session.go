package quizmanager

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

// SessionOptions - необязательные зависимости сессии
type SessionOptions struct {
	Rand             *rand.Rand
	Clock            Clock
	DifficultyConfig *DifficultyConfig
}

// TriviaSession - игровая сессия одного игрока.
// Методы безопасны для конкурентного вызова, но рассчитаны на одного игрока.
type TriviaSession struct {
	mu sync.Mutex

	// storeMu упорядочивает запись и удаление снимка во внешнем хранилище
	storeMu   sync.Mutex
	discarded bool

	id         string
	playerName string

	config    *Config
	diffCfg   *DifficultyConfig
	catalog   *Catalog
	predictor DifficultyPredictor
	rng       *rand.Rand
	now       Clock

	phase      Phase
	score      int
	round      int // количество завершённых раундов
	difficulty float64
	asked      *AskedSet
	perfLog    *PerformanceLog
	pending    *entity.PendingQuestion
	startedAt  time.Time
}

// NewSession создает новую сессию с начальной сложностью из конфигурации
func NewSession(id, playerName string, config *Config, catalog *Catalog, predictor DifficultyPredictor, opts SessionOptions) *TriviaSession {
	s := newSessionShell(id, playerName, config, catalog, predictor, opts)
	s.difficulty = s.diffCfg.Clamp(s.config.StartDifficulty)
	s.startedAt = s.now()
	return s
}

func newSessionShell(id, playerName string, config *Config, catalog *Catalog, predictor DifficultyPredictor, opts SessionOptions) *TriviaSession {
	if config == nil {
		config = DefaultConfig()
	}
	if opts.DifficultyConfig == nil {
		opts.DifficultyConfig = DefaultDifficultyConfig()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TriviaSession{
		id:         id,
		playerName: playerName,
		config:     config,
		diffCfg:    opts.DifficultyConfig,
		catalog:    catalog,
		predictor:  predictor,
		rng:        opts.Rand,
		now:        opts.Clock,
		phase:      PhaseAwaitingQuestion,
		asked:      NewAskedSet(),
		perfLog:    &PerformanceLog{},
	}
}

// RestoreSession восстанавливает сессию из снимка
func RestoreSession(snapshot *entity.SessionSnapshot, config *Config, catalog *Catalog, predictor DifficultyPredictor, opts SessionOptions) (*TriviaSession, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", apperrors.ErrValidation)
	}
	// SessionID и PlayerName не сериализуются в записях снимка
	records := make([]entity.PerformanceRecord, len(snapshot.Records))
	for i, r := range snapshot.Records {
		r.SessionID = snapshot.ID
		r.PlayerName = snapshot.PlayerName
		records[i] = r
	}
	perfLog, err := NewPerformanceLog(records)
	if err != nil {
		return nil, fmt.Errorf("failed to restore performance log of session %s: %w", snapshot.ID, err)
	}

	if snapshot.MaxRounds > 0 && (config == nil || config.MaxRounds != snapshot.MaxRounds) {
		restored := *DefaultConfig()
		if config != nil {
			restored = *config
		}
		restored.MaxRounds = snapshot.MaxRounds
		config = &restored
	}

	s := newSessionShell(snapshot.ID, snapshot.PlayerName, config, catalog, predictor, opts)
	s.phase = Phase(snapshot.Phase)
	s.score = snapshot.Score
	s.round = snapshot.Round
	s.difficulty = s.diffCfg.Clamp(snapshot.Difficulty)
	s.asked = NewAskedSet(snapshot.AskedIDs...)
	s.perfLog = perfLog
	s.startedAt = snapshot.StartedAt
	if snapshot.Pending != nil {
		p := *snapshot.Pending
		s.pending = &p
	}

	switch s.phase {
	case PhaseAwaitingQuestion, PhaseScored, PhaseFinished:
	case PhaseAwaitingAnswer:
		if s.pending == nil {
			s.phase = PhaseAwaitingQuestion
		}
	default:
		return nil, fmt.Errorf("%w: unknown phase %q", apperrors.ErrValidation, snapshot.Phase)
	}
	return s, nil
}

// Snapshot возвращает сериализуемое состояние сессии
func (s *TriviaSession) Snapshot() *entity.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &entity.SessionSnapshot{
		ID:         s.id,
		PlayerName: s.playerName,
		Phase:      string(s.phase),
		Score:      s.score,
		Round:      s.round,
		MaxRounds:  s.config.MaxRounds,
		Difficulty: s.difficulty,
		AskedIDs:   s.asked.IDs(),
		Records:    s.perfLog.Records(),
		StartedAt:  s.startedAt,
		UpdatedAt:  s.now(),
	}
	if s.pending != nil {
		p := *s.pending
		p.Options = append([]string(nil), s.pending.Options...)
		snap.Pending = &p
	}
	return snap
}

// NextQuestion выбирает следующий вопрос под текущую сложность.
// Повторный вызов до ответа возвращает тот же вопрос.
func (s *TriviaSession) NextQuestion() (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished {
		return QuestionView{}, apperrors.ErrSessionFinished
	}
	if s.pending != nil {
		return s.viewOf(s.pending), nil
	}

	tier := s.diffCfg.TierFor(s.difficulty)
	q, relaxed := s.catalog.Select(tier, s.asked, s.rng)

	s.pending = &entity.PendingQuestion{
		ID:            q.ID,
		Text:          q.Text,
		Options:       append([]string(nil), q.Options...),
		CorrectOption: q.CorrectOption,
		Tier:          q.Tier,
		Relaxed:       relaxed,
		PresentedAt:   s.now(),
	}
	s.phase = PhaseAwaitingAnswer

	log.Printf("[Session] %s: раунд %d, сложность %.2f (%s), вопрос #%d, relaxed=%v",
		s.id, s.round+1, s.difficulty, tier, q.ID, relaxed)

	return s.viewOf(s.pending), nil
}

func (s *TriviaSession) viewOf(p *entity.PendingQuestion) QuestionView {
	return QuestionView{
		ID:        p.ID,
		Text:      p.Text,
		Options:   append([]string(nil), p.Options...),
		Tier:      string(p.Tier),
		TierValue: p.Tier.Value(),
		Relaxed:   p.Relaxed,
		Round:     s.round + 1,
		TimeLimit: AnswerTimeLimit(p.Tier.Value()),
	}
}

// SubmitAnswer обрабатывает ответ игрока на текущий вопрос.
// reactionTime=nil означает, что время измеряется с момента показа вопроса.
// Некорректный ввод и чужой ID вопроса засчитываются как неверный ответ.
func (s *TriviaSession) SubmitAnswer(questionID uint, raw string, reactionTime *float64) (RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished {
		return s.idleResult(), nil
	}
	if s.pending == nil {
		return s.idleResult(), nil
	}

	rt := s.reactionTime(reactionTime)
	q := s.pending.ToQuestion()

	outcome := OutcomeIncorrect
	correct := false
	if questionID != q.ID {
		log.Printf("[Session] %s: ответ на вопрос #%d, ожидался #%d, засчитан как неверный", s.id, questionID, q.ID)
		outcome = OutcomeInvalid
	} else if idx, ok := ParseAnswer(raw, q.OptionsCount()); !ok {
		outcome = OutcomeInvalid
	} else if q.IsCorrect(idx) {
		outcome = OutcomeCorrect
		correct = true
	}

	points := 0
	if correct {
		points = CalculatePoints(q.DifficultyValue(), rt)
	}
	return s.completeRound(outcome, correct, points, rt)
}

// Timeout засчитывает текущий вопрос как неотвеченный (неверно, 0 очков, 1 попытка)
func (s *TriviaSession) Timeout(reactionTime *float64) (RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFinished || s.pending == nil {
		return s.idleResult(), nil
	}
	return s.completeRound(OutcomeTimeout, false, 0, s.reactionTime(reactionTime))
}

func (s *TriviaSession) reactionTime(given *float64) float64 {
	var rt float64
	if given != nil {
		rt = *given
	} else if s.pending != nil {
		rt = s.now().Sub(s.pending.PresentedAt).Seconds()
	}
	if rt < 0 {
		rt = 0
	}
	return rt
}

func (s *TriviaSession) idleResult() RoundResult {
	label := DifficultyLabel(s.difficulty)
	return RoundResult{
		Accepted:           false,
		Score:              s.score,
		Round:              s.round,
		OldDifficulty:      s.difficulty,
		NewDifficulty:      s.difficulty,
		OldDifficultyLabel: label,
		NewDifficultyLabel: label,
		DifficultyChange:   "unchanged",
		Finished:           s.phase == PhaseFinished,
	}
}

// completeRound фиксирует раунд в журнале и пересчитывает сложность
func (s *TriviaSession) completeRound(outcome Outcome, correct bool, points int, rt float64) (RoundResult, error) {
	oldDifficulty := s.difficulty
	accuracy := 0.0
	if correct {
		accuracy = 1.0
	}

	record := entity.PerformanceRecord{
		SessionID:    s.id,
		PlayerName:   s.playerName,
		Round:        s.round + 1,
		Difficulty:   oldDifficulty,
		Accuracy:     accuracy,
		ReactionTime: rt,
		Attempts:     1,
		Timestamp:    s.now(),
	}
	if err := s.perfLog.Append(record); err != nil {
		return RoundResult{}, fmt.Errorf("failed to log round %d of session %s: %w", record.Round, s.id, err)
	}

	correctOption := s.pending.CorrectOption
	s.score += points
	s.round++
	s.pending = nil

	acc, avgRT, att := Aggregate(s.perfLog.RecentWindow(s.config.WindowSize))
	s.difficulty = s.diffCfg.Clamp(s.predictor.Predict(acc, avgRT, att))

	s.phase = PhaseScored
	if s.round >= s.config.MaxRounds {
		s.phase = PhaseFinished
	}

	return RoundResult{
		Accepted:           true,
		Correct:            correct,
		Outcome:            outcome,
		Points:             points,
		Score:              s.score,
		Round:              s.round,
		CorrectOption:      correctOption,
		OldDifficulty:      oldDifficulty,
		NewDifficulty:      s.difficulty,
		OldDifficultyLabel: DifficultyLabel(oldDifficulty),
		NewDifficultyLabel: DifficultyLabel(s.difficulty),
		DifficultyChange:   DifficultyChange(oldDifficulty, s.difficulty),
		Finished:           s.phase == PhaseFinished,
	}, nil
}

// Finish досрочно завершает сессию
func (s *TriviaSession) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseFinished
	s.pending = nil
}

// SaveSnapshot передает снимок сессии в save, если сессия ещё не отброшена.
// Возвращает false, если сессия уже отброшена и запись пропущена
func (s *TriviaSession) SaveSnapshot(save func(*entity.SessionSnapshot) error) (bool, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if s.discarded {
		return false, nil
	}
	return true, save(s.Snapshot())
}

// Discard помечает сессию отброшенной и вызывает remove.
// После Discard SaveSnapshot больше не пишет снимок
func (s *TriviaSession) Discard(remove func() error) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	s.discarded = true
	return remove()
}

// Summary возвращает сводку по сыгранным раундам. ok=false, если раундов ещё не было
func (s *TriviaSession) Summary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perfLog.FullSummary()
}

// Records возвращает копию журнала раундов
func (s *TriviaSession) Records() []entity.PerformanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perfLog.Records()
}

// ID возвращает идентификатор сессии
func (s *TriviaSession) ID() string { return s.id }

// PlayerName возвращает имя игрока
func (s *TriviaSession) PlayerName() string { return s.playerName }

// StartedAt возвращает время начала игры
func (s *TriviaSession) StartedAt() time.Time { return s.startedAt }

// MaxRounds возвращает количество раундов в игре
func (s *TriviaSession) MaxRounds() int { return s.config.MaxRounds }

// PredictorStrategy возвращает имя стратегии пересчёта сложности
func (s *TriviaSession) PredictorStrategy() string { return s.predictor.Strategy() }

// Score возвращает текущий счёт
func (s *TriviaSession) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Round возвращает количество завершённых раундов
func (s *TriviaSession) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Difficulty возвращает текущую сложность
func (s *TriviaSession) Difficulty() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.difficulty
}

// Phase возвращает текущую фазу
func (s *TriviaSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// QuestionsAsked возвращает количество вопросов, показанных в текущем круге
func (s *TriviaSession) QuestionsAsked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asked.Len()
}
