package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	"github.com/yourusername/adaptive-trivia/internal/domain/repository"
	"github.com/yourusername/adaptive-trivia/internal/export"
	"github.com/yourusername/adaptive-trivia/internal/metrics"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
)

const (
	maxPlayerNameLength     = 50
	defaultLeaderboardLimit = 10
	progressBarWidth        = 20
)

// TicketIssuer выдает тикет доступа к игровой сессии
type TicketIssuer interface {
	IssueSessionTicket(sessionID, playerName string) (string, time.Time, error)
}

// GameServiceConfig содержит настройки GameService
type GameServiceConfig struct {
	Game      *quizmanager.Config
	ExportDir string // пустая строка отключает выгрузку CSV при завершении игры
}

// GameView описывает состояние игры для клиента
type GameView struct {
	SessionID         string    `json:"session_id"`
	PlayerName        string    `json:"player_name"`
	Phase             string    `json:"phase"`
	Score             int       `json:"score"`
	Round             int       `json:"round"`
	MaxRounds         int       `json:"max_rounds"`
	Difficulty        float64   `json:"difficulty"`
	DifficultyLabel   string    `json:"difficulty_label"`
	DifficultyBar     string    `json:"difficulty_bar"`
	PredictorStrategy string    `json:"predictor_strategy"`
	StartedAt         time.Time `json:"started_at"`
}

// AnswerView - результат раунда вместе с полосой новой сложности
type AnswerView struct {
	quizmanager.RoundResult
	DifficultyBar string `json:"difficulty_bar"`
}

// SummaryView - сводка по сыгранным раундам
type SummaryView struct {
	quizmanager.Summary
	HasData    bool    `json:"has_data"`
	Score      int     `json:"score"`
	Difficulty float64 `json:"difficulty"`
	Label      string  `json:"difficulty_label"`
}

// QuestionStats - количество показанных вопросов
type QuestionStats struct {
	QuestionsAsked int `json:"questions_asked"`
	MaxQuestions   int `json:"max_questions"`
	Round          int `json:"round"`
}

// FinishReport - итог завершённой игры. Ошибки выгрузки и сохранения не прерывают завершение
type FinishReport struct {
	SessionID       string              `json:"session_id"`
	PlayerName      string              `json:"player_name"`
	Score           int                 `json:"score"`
	FinalDifficulty float64             `json:"final_difficulty"`
	Summary         quizmanager.Summary `json:"summary"`
	HasData         bool                `json:"has_data"`
	ExportPath      string              `json:"export_path,omitempty"`
	ExportError     string              `json:"export_error,omitempty"`
	Persisted       bool                `json:"persisted"`
	PersistError    string              `json:"persist_error,omitempty"`
	TotalSeconds    float64             `json:"total_seconds"`
	TotalTime       string              `json:"total_time"`
}

// GameService управляет игровыми сессиями: создание, вопросы, ответы, завершение
type GameService struct {
	registry  *quizmanager.Registry
	catalog   *quizmanager.Catalog
	predictor quizmanager.DifficultyPredictor
	config    *quizmanager.Config
	exportDir string

	store    repository.SessionStore
	perfRepo repository.PerformanceRepository // nil, если БД отключена
	tickets  TicketIssuer                     // nil, если тикеты не нужны (терминал)

	now         quizmanager.Clock
	sessionOpts func() quizmanager.SessionOptions
}

// NewGameService создает новый сервис игр
func NewGameService(
	cfg GameServiceConfig,
	catalog *quizmanager.Catalog,
	predictor quizmanager.DifficultyPredictor,
	store repository.SessionStore,
	perfRepo repository.PerformanceRepository,
	tickets TicketIssuer,
) *GameService {
	if cfg.Game == nil {
		cfg.Game = quizmanager.DefaultConfig()
	}
	if store == nil {
		store = NoopSessionStore{}
	}
	return &GameService{
		registry:    quizmanager.NewRegistry(),
		catalog:     catalog,
		predictor:   predictor,
		config:      cfg.Game,
		exportDir:   cfg.ExportDir,
		store:       store,
		perfRepo:    perfRepo,
		tickets:     tickets,
		now:         time.Now,
		sessionOpts: func() quizmanager.SessionOptions { return quizmanager.SessionOptions{} },
	}
}

// StartGame создает новую сессию и возвращает её состояние и тикет доступа
func (s *GameService) StartGame(ctx context.Context, playerName string) (*GameView, string, error) {
	name, err := normalizePlayerName(playerName)
	if err != nil {
		return nil, "", err
	}

	sessionID := uuid.NewString()
	opts := s.sessionOpts()
	opts.Clock = s.now
	session := quizmanager.NewSession(sessionID, name, s.config, s.catalog, s.predictor, opts)

	var ticket string
	if s.tickets != nil {
		ticket, _, err = s.tickets.IssueSessionTicket(sessionID, name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to issue session ticket: %w", err)
		}
	}

	if err := s.registry.Add(session); err != nil {
		return nil, "", err
	}
	metrics.SetActiveSessions(s.registry.Len())
	s.persist(ctx, session)

	log.Printf("[GameService] Игрок %s начал игру %s (стратегия %s)", name, sessionID, session.PredictorStrategy())
	return s.viewOf(session), ticket, nil
}

// GetGame возвращает текущее состояние игры. Завершённая игра читается из БД
func (s *GameService) GetGame(ctx context.Context, sessionID string) (*GameView, error) {
	session, err := s.session(ctx, sessionID)
	if err == nil {
		return s.viewOf(session), nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) || s.perfRepo == nil {
		return nil, err
	}
	result, repoErr := s.perfRepo.GetResultBySession(sessionID)
	if repoErr != nil {
		if !errors.Is(repoErr, apperrors.ErrNotFound) {
			log.Printf("[GameService] WARNING: Не удалось прочитать результат игры %s: %v", sessionID, repoErr)
		}
		return nil, err
	}
	return finishedView(result), nil
}

func finishedView(result *entity.GameResult) *GameView {
	return &GameView{
		SessionID:         result.SessionID,
		PlayerName:        result.PlayerName,
		Phase:             string(quizmanager.PhaseFinished),
		Score:             result.Score,
		Round:             result.TotalRounds,
		MaxRounds:         result.TotalRounds,
		Difficulty:        result.FinalDifficulty,
		DifficultyLabel:   quizmanager.DifficultyLabel(result.FinalDifficulty),
		DifficultyBar:     quizmanager.ProgressBar(result.FinalDifficulty, progressBarWidth),
		PredictorStrategy: result.PredictorStrategy,
	}
}

// NextQuestion возвращает текущий или новый вопрос игры
func (s *GameService) NextQuestion(ctx context.Context, sessionID string) (*quizmanager.QuestionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	repeated := session.Phase() == quizmanager.PhaseAwaitingAnswer
	view, err := session.NextQuestion()
	if err != nil {
		return nil, err
	}
	if !repeated {
		metrics.ObserveSelection(view.Tier, view.Relaxed)
		s.persist(ctx, session)
	}
	return &view, nil
}

// SubmitAnswer принимает ответ игрока. reactionTime=nil - время считается на сервере
func (s *GameService) SubmitAnswer(ctx context.Context, sessionID string, questionID uint, answer string, reactionTime *float64) (*AnswerView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := session.SubmitAnswer(questionID, answer, reactionTime)
	if err != nil {
		return nil, err
	}
	return s.afterRound(ctx, session, result), nil
}

// Timeout засчитывает текущий вопрос как неотвеченный по истечении времени
func (s *GameService) Timeout(ctx context.Context, sessionID string, reactionTime *float64) (*AnswerView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := session.Timeout(reactionTime)
	if err != nil {
		return nil, err
	}
	return s.afterRound(ctx, session, result), nil
}

func (s *GameService) afterRound(ctx context.Context, session *quizmanager.TriviaSession, result quizmanager.RoundResult) *AnswerView {
	if result.Accepted {
		metrics.ObserveRound(string(result.Outcome), result.NewDifficulty)
		s.persist(ctx, session)
	}
	return &AnswerView{
		RoundResult:   result,
		DifficultyBar: quizmanager.ProgressBar(result.NewDifficulty, progressBarWidth),
	}
}

// Summary возвращает сводку по сыгранным раундам
func (s *GameService) Summary(ctx context.Context, sessionID string) (*SummaryView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary, ok := session.Summary()
	difficulty := session.Difficulty()
	return &SummaryView{
		Summary:    summary,
		HasData:    ok,
		Score:      session.Score(),
		Difficulty: difficulty,
		Label:      quizmanager.DifficultyLabel(difficulty),
	}, nil
}

// QuestionStats возвращает количество показанных вопросов и лимит раундов
func (s *GameService) QuestionStats(ctx context.Context, sessionID string) (*QuestionStats, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &QuestionStats{
		QuestionsAsked: session.QuestionsAsked(),
		MaxQuestions:   session.MaxRounds(),
		Round:          session.Round(),
	}, nil
}

// FinishGame завершает игру: выгружает журнал в CSV, сохраняет итог в БД и удаляет сессию.
// Сбои выгрузки и сохранения возвращаются полями отчёта, а не ошибкой.
func (s *GameService) FinishGame(ctx context.Context, sessionID string) (*FinishReport, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Finish()
	finishedAt := s.now()
	records := session.Records()
	summary, hasData := session.Summary()
	total := finishedAt.Sub(session.StartedAt()).Seconds()
	if total < 0 {
		total = 0
	}

	report := &FinishReport{
		SessionID:       session.ID(),
		PlayerName:      session.PlayerName(),
		Score:           session.Score(),
		FinalDifficulty: session.Difficulty(),
		Summary:         summary,
		HasData:         hasData,
		TotalSeconds:    total,
		TotalTime:       FormatTotalTime(total),
	}

	if hasData && s.exportDir != "" {
		path, err := export.SaveCSV(s.exportDir, session.PlayerName(), session.ID(), finishedAt, records)
		if err != nil {
			log.Printf("[GameService] WARNING: Не удалось выгрузить журнал игры %s: %v", sessionID, err)
			report.ExportError = err.Error()
		} else {
			report.ExportPath = path
		}
	}

	if hasData && s.perfRepo != nil {
		result := &entity.GameResult{
			SessionID:          session.ID(),
			PlayerName:         session.PlayerName(),
			Score:              report.Score,
			TotalRounds:        summary.TotalRounds,
			CorrectAnswers:     summary.CorrectAnswers,
			AvgAccuracyPercent: summary.AvgAccuracyPercent,
			AvgReactionTime:    summary.AvgReactionTime,
			FinalDifficulty:    report.FinalDifficulty,
			PredictorStrategy:  session.PredictorStrategy(),
			CompletedAt:        finishedAt,
		}
		if err := s.perfRepo.SaveGame(result, records); err != nil {
			log.Printf("[GameService] WARNING: Не удалось сохранить результат игры %s: %v", sessionID, err)
			report.PersistError = err.Error()
		} else {
			report.Persisted = true
		}
	}

	s.drop(ctx, session)
	metrics.ObserveGameFinished(report.Persisted)

	log.Printf("[GameService] Игра %s завершена: игрок %s, счёт %d, раундов %d, время %s",
		sessionID, report.PlayerName, report.Score, summary.TotalRounds, report.TotalTime)
	return report, nil
}

// RestartGame отбрасывает сессию без сохранения результата
func (s *GameService) RestartGame(ctx context.Context, sessionID string) error {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}
	s.drop(ctx, session)
	log.Printf("[GameService] Игра %s сброшена", sessionID)
	return nil
}

// ExportLog пишет журнал раундов игры в w. Для завершённой игры журнал читается из БД
func (s *GameService) ExportLog(ctx context.Context, sessionID, format string, w io.Writer) error {
	if format != "" && format != export.FormatCSV && format != export.FormatXLSX {
		return fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}

	records, err := s.sessionRecords(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return apperrors.ErrNoData
	}
	return export.Write(w, format, records)
}

func (s *GameService) sessionRecords(ctx context.Context, sessionID string) ([]entity.PerformanceRecord, error) {
	session, err := s.session(ctx, sessionID)
	if err == nil {
		return session.Records(), nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) || s.perfRepo == nil {
		return nil, err
	}
	records, repoErr := s.perfRepo.GetSessionRecords(sessionID)
	if repoErr != nil {
		return nil, repoErr
	}
	if len(records) == 0 {
		return nil, err
	}
	return records, nil
}

// Leaderboard возвращает лучшие сохранённые результаты
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]entity.GameResult, error) {
	if s.perfRepo == nil {
		return []entity.GameResult{}, nil
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	results, err := s.perfRepo.GetLeaderboard(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return results, nil
}

// LeaderboardCSV пишет таблицу лидеров в CSV
func (s *GameService) LeaderboardCSV(ctx context.Context, limit int, w io.Writer) error {
	results, err := s.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}
	return export.WriteLeaderboardCSV(w, results)
}

// ActiveSessions возвращает количество сессий в памяти процесса
func (s *GameService) ActiveSessions() int {
	return s.registry.Len()
}

// session ищет сессию в реестре, а при промахе восстанавливает её из хранилища снимков
func (s *GameService) session(ctx context.Context, sessionID string) (*quizmanager.TriviaSession, error) {
	if session, ok := s.registry.Get(sessionID); ok {
		return session, nil
	}

	snapshot, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[GameService] WARNING: Не удалось прочитать снимок сессии %s: %v", sessionID, err)
		}
		return nil, fmt.Errorf("%w: game session %s", apperrors.ErrNotFound, sessionID)
	}

	opts := s.sessionOpts()
	opts.Clock = s.now
	restored, err := quizmanager.RestoreSession(snapshot, s.config, s.catalog, s.predictor, opts)
	if err != nil {
		log.Printf("[GameService] WARNING: Снимок сессии %s повреждён: %v", sessionID, err)
		return nil, fmt.Errorf("%w: game session %s", apperrors.ErrNotFound, sessionID)
	}

	session := s.registry.Put(restored)
	metrics.SetActiveSessions(s.registry.Len())
	log.Printf("[GameService] Сессия %s восстановлена из хранилища (раунд %d)", sessionID, session.Round())
	return session, nil
}

func (s *GameService) persist(ctx context.Context, session *quizmanager.TriviaSession) {
	saved, err := session.SaveSnapshot(func(snapshot *entity.SessionSnapshot) error {
		return s.store.Save(ctx, snapshot)
	})
	if err != nil {
		log.Printf("[GameService] WARNING: Не удалось сохранить снимок сессии %s: %v", session.ID(), err)
	}
	if !saved {
		log.Printf("[GameService] Сессия %s уже закрыта, снимок не сохраняется", session.ID())
	}
}

// drop удаляет снимок из хранилища, затем сессию из реестра,
// чтобы параллельный запрос не восстановил её из снимка
func (s *GameService) drop(ctx context.Context, session *quizmanager.TriviaSession) {
	err := session.Discard(func() error {
		return s.store.Delete(ctx, session.ID())
	})
	if err != nil {
		log.Printf("[GameService] WARNING: Не удалось удалить снимок сессии %s: %v", session.ID(), err)
	}
	s.registry.Delete(session.ID())
	metrics.SetActiveSessions(s.registry.Len())
}

func (s *GameService) viewOf(session *quizmanager.TriviaSession) *GameView {
	difficulty := session.Difficulty()
	return &GameView{
		SessionID:         session.ID(),
		PlayerName:        session.PlayerName(),
		Phase:             string(session.Phase()),
		Score:             session.Score(),
		Round:             session.Round(),
		MaxRounds:         session.MaxRounds(),
		Difficulty:        difficulty,
		DifficultyLabel:   quizmanager.DifficultyLabel(difficulty),
		DifficultyBar:     quizmanager.ProgressBar(difficulty, progressBarWidth),
		PredictorStrategy: session.PredictorStrategy(),
		StartedAt:         session.StartedAt(),
	}
}

func normalizePlayerName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: player name is required", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxPlayerNameLength {
		return "", fmt.Errorf("%w: player name must be at most %d characters", apperrors.ErrValidation, maxPlayerNameLength)
	}
	return name, nil
}

// FormatTotalTime форматирует длительность игры как "M minutes and S seconds"
func FormatTotalTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d minutes and %d seconds", total/60, total%60)
}
