package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
)

// ============================================================================
// Моки для GameService
// ============================================================================

type MockPerformanceRepo struct {
	mock.Mock
}

func (m *MockPerformanceRepo) SaveGame(result *entity.GameResult, records []entity.PerformanceRecord) error {
	args := m.Called(result, records)
	return args.Error(0)
}

func (m *MockPerformanceRepo) GetSessionRecords(sessionID string) ([]entity.PerformanceRecord, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PerformanceRecord), args.Error(1)
}

func (m *MockPerformanceRepo) GetResultBySession(sessionID string) (*entity.GameResult, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameResult), args.Error(1)
}

func (m *MockPerformanceRepo) GetLeaderboard(limit int) ([]entity.GameResult, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GameResult), args.Error(1)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, snapshot *entity.SessionSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSessionStore) Load(ctx context.Context, sessionID string) (*entity.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SessionSnapshot), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockTicketIssuer struct {
	mock.Mock
}

func (m *MockTicketIssuer) IssueSessionTicket(sessionID, playerName string) (string, time.Time, error) {
	args := m.Called(sessionID, playerName)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// constantPredictor всегда возвращает одну и ту же сложность
type constantPredictor struct{ value float64 }

func (p constantPredictor) Predict(accuracy, reactionTime, attempts float64) float64 { return p.value }
func (p constantPredictor) Strategy() string                                         { return "rule" }

// ============================================================================
// Вспомогательные функции
// ============================================================================

func testCatalog(t *testing.T) *quizmanager.Catalog {
	t.Helper()
	tiers := []entity.Tier{entity.TierEasy, entity.TierEasy, entity.TierMedium, entity.TierMedium, entity.TierHard, entity.TierHard}
	questions := make([]entity.Question, len(tiers))
	for i, tier := range tiers {
		questions[i] = entity.Question{
			ID:            uint(i + 1),
			Text:          "Question",
			Options:       entity.StringArray{"right", "wrong", "wrong", "wrong"},
			CorrectOption: 0,
			Tier:          tier,
		}
	}
	catalog, err := quizmanager.NewCatalog(questions)
	require.NoError(t, err)
	return catalog
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func floatPtr(v float64) *float64 { return &v }

func newTestService(t *testing.T, store *MockSessionStore, repo *MockPerformanceRepo, exportDir string) (*GameService, *testClock) {
	t.Helper()
	cfg := GameServiceConfig{
		Game:      &quizmanager.Config{MaxRounds: 3, WindowSize: 3, StartDifficulty: 0.5},
		ExportDir: exportDir,
	}
	var svc *GameService
	switch {
	case store != nil && repo != nil:
		svc = NewGameService(cfg, testCatalog(t), constantPredictor{value: 0.5}, store, repo, nil)
	case store != nil:
		svc = NewGameService(cfg, testCatalog(t), constantPredictor{value: 0.5}, store, nil, nil)
	case repo != nil:
		svc = NewGameService(cfg, testCatalog(t), constantPredictor{value: 0.5}, nil, repo, nil)
	default:
		svc = NewGameService(cfg, testCatalog(t), constantPredictor{value: 0.5}, nil, nil, nil)
	}
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, clock
}

// playRounds отвечает правильно на n вопросов подряд за 2 секунды
func playRounds(t *testing.T, svc *GameService, sessionID string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		q, err := svc.NextQuestion(ctx, sessionID)
		require.NoError(t, err)
		res, err := svc.SubmitAnswer(ctx, sessionID, q.ID, "a", floatPtr(2))
		require.NoError(t, err)
		require.True(t, res.Accepted)
		require.True(t, res.Correct)
	}
}

// ============================================================================
// StartGame
// ============================================================================

func TestGameService_StartGame_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")

	_, _, err := svc.StartGame(context.Background(), "   ")
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Пустое имя должно отклоняться")

	_, _, err = svc.StartGame(context.Background(), strings.Repeat("x", 51))
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Слишком длинное имя должно отклоняться")

	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestGameService_StartGame_IssuesTicketAndSavesSnapshot(t *testing.T) {
	store := new(MockSessionStore)
	store.On("Save", mock.Anything, mock.AnythingOfType("*entity.SessionSnapshot")).Return(nil)
	issuer := new(MockTicketIssuer)
	issuer.On("IssueSessionTicket", mock.AnythingOfType("string"), "Alice").Return("ticket-123", time.Now().Add(time.Hour), nil)

	svc := NewGameService(GameServiceConfig{}, testCatalog(t), constantPredictor{value: 0.5}, store, nil, issuer)

	view, ticket, err := svc.StartGame(context.Background(), "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "ticket-123", ticket)
	assert.Equal(t, "Alice", view.PlayerName)
	assert.Equal(t, 0.5, view.Difficulty)
	assert.Equal(t, "Medium", view.DifficultyLabel)
	assert.Equal(t, quizmanager.DefaultMaxRounds, view.MaxRounds)
	assert.Equal(t, 1, svc.ActiveSessions())

	issuer.AssertCalled(t, "IssueSessionTicket", view.SessionID, "Alice")
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestGameService_StartGame_TicketError(t *testing.T) {
	issuer := new(MockTicketIssuer)
	issuer.On("IssueSessionTicket", mock.Anything, mock.Anything).Return("", time.Time{}, errors.New("no key"))

	svc := NewGameService(GameServiceConfig{}, testCatalog(t), constantPredictor{value: 0.5}, nil, nil, issuer)

	_, _, err := svc.StartGame(context.Background(), "Bob")
	assert.Error(t, err)
	assert.Equal(t, 0, svc.ActiveSessions(), "Сессия без тикета не должна регистрироваться")
}

// ============================================================================
// Игровой цикл
// ============================================================================

func TestGameService_NextQuestion_RepeatsPending(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	first, err := svc.NextQuestion(ctx, view.SessionID)
	require.NoError(t, err)
	second, err := svc.NextQuestion(ctx, view.SessionID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "До ответа должен возвращаться тот же вопрос")
	assert.Equal(t, "medium", first.Tier)
	assert.Equal(t, 1, first.Round)

	stats, err := svc.QuestionStats(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.QuestionsAsked)
	assert.Equal(t, 3, stats.MaxQuestions)
}

func TestGameService_SubmitAnswer_ScoresAndInvalidInput(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	q, err := svc.NextQuestion(ctx, view.SessionID)
	require.NoError(t, err)
	res, err := svc.SubmitAnswer(ctx, view.SessionID, q.ID, "1", floatPtr(10))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 200, res.Points, "Вопрос medium (0.6) за 10 секунд: 160 + 40")
	assert.Equal(t, "[██████████░░░░░░░░░░] 50.0%", res.DifficultyBar)

	q, err = svc.NextQuestion(ctx, view.SessionID)
	require.NoError(t, err)
	res, err = svc.SubmitAnswer(ctx, view.SessionID, q.ID, "z", floatPtr(1))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.False(t, res.Correct)
	assert.Equal(t, quizmanager.OutcomeInvalid, res.Outcome)
	assert.Equal(t, 200, res.Score, "Некорректный ввод не должен менять счёт")
}

func TestGameService_SubmitAnswer_WithoutQuestion(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	res, err := svc.SubmitAnswer(ctx, view.SessionID, 1, "a", nil)
	require.NoError(t, err)
	assert.False(t, res.Accepted, "Ответ без показанного вопроса не принимается")
	assert.Equal(t, 0, res.Round)
}

func TestGameService_Timeout(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	_, err = svc.NextQuestion(ctx, view.SessionID)
	require.NoError(t, err)
	res, err := svc.Timeout(ctx, view.SessionID, floatPtr(15))
	require.NoError(t, err)
	assert.Equal(t, quizmanager.OutcomeTimeout, res.Outcome)
	assert.Equal(t, 0, res.Points)
}

func TestGameService_ServerMeasuredReactionTime(t *testing.T) {
	svc, clock := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	q, err := svc.NextQuestion(ctx, view.SessionID)
	require.NoError(t, err)
	clock.Advance(4 * time.Second)
	_, err = svc.SubmitAnswer(ctx, view.SessionID, q.ID, "a", nil)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, view.SessionID)
	require.NoError(t, err)
	require.True(t, summary.HasData)
	assert.InDelta(t, 4.0, summary.AvgReactionTime, 1e-9)
}

func TestGameService_UnknownSession(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")

	_, err := svc.NextQuestion(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.True(t, errors.Is(svc.RestartGame(context.Background(), "missing"), apperrors.ErrNotFound))
}

func TestGameService_Summary_NoData(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, view.SessionID)
	require.NoError(t, err)
	assert.False(t, summary.HasData)
	assert.Equal(t, 0, summary.TotalRounds)
}

func TestGameService_FinishedSessionRejectsQuestions(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	playRounds(t, svc, view.SessionID, 3)

	_, err = svc.NextQuestion(ctx, view.SessionID)
	assert.True(t, errors.Is(err, apperrors.ErrSessionFinished))
}

// ============================================================================
// Завершение игры
// ============================================================================

func TestGameService_FinishGame_ExportsAndPersists(t *testing.T) {
	repo := new(MockPerformanceRepo)
	repo.On("SaveGame", mock.AnythingOfType("*entity.GameResult"), mock.AnythingOfType("[]entity.PerformanceRecord")).Return(nil)
	dir := t.TempDir()

	svc, clock := newTestService(t, nil, repo, dir)
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	playRounds(t, svc, view.SessionID, 3)
	clock.Advance(125 * time.Second)

	report, err := svc.FinishGame(ctx, view.SessionID)
	require.NoError(t, err)

	assert.True(t, report.Persisted)
	assert.Empty(t, report.PersistError)
	assert.Equal(t, 3, report.Summary.TotalRounds)
	assert.Equal(t, 3, report.Summary.CorrectAnswers)
	assert.Equal(t, 100.0, report.Summary.AvgAccuracyPercent)
	assert.Equal(t, "2 minutes and 5 seconds", report.TotalTime)
	assert.FileExists(t, report.ExportPath)
	assert.Contains(t, report.ExportPath, "Alice_performance_20240501_120205_"+view.SessionID[:8]+".csv")

	data, err := os.ReadFile(report.ExportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "round,difficulty,accuracy,reaction_time,attempts,timestamp\n"))

	repo.AssertCalled(t, "SaveGame", mock.MatchedBy(func(r *entity.GameResult) bool {
		return r.SessionID == view.SessionID && r.PlayerName == "Alice" && r.Score == report.Score && r.PredictorStrategy == "rule"
	}), mock.MatchedBy(func(records []entity.PerformanceRecord) bool {
		return len(records) == 3 && records[0].SessionID == view.SessionID
	}))

	assert.Equal(t, 0, svc.ActiveSessions(), "Завершённая сессия удаляется из реестра")
	_, err = svc.Summary(ctx, view.SessionID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGameService_FinishGame_SameNameSameSecondKeepsBothExports(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, nil, nil, dir)
	ctx := context.Background()

	first, _, err := svc.StartGame(ctx, "Player")
	require.NoError(t, err)
	second, _, err := svc.StartGame(ctx, "Player")
	require.NoError(t, err)

	playRounds(t, svc, first.SessionID, 1)
	playRounds(t, svc, second.SessionID, 1)

	// Часы не двигаются: обе игры завершаются в одну и ту же секунду
	firstReport, err := svc.FinishGame(ctx, first.SessionID)
	require.NoError(t, err)
	secondReport, err := svc.FinishGame(ctx, second.SessionID)
	require.NoError(t, err)

	require.NotEmpty(t, firstReport.ExportPath)
	require.NotEmpty(t, secondReport.ExportPath)
	assert.NotEqual(t, firstReport.ExportPath, secondReport.ExportPath, "Одноимённые игроки не должны делить файл выгрузки")

	for _, path := range []string{firstReport.ExportPath, secondReport.ExportPath} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Len(t, lines, 2, "Файл %s должен содержать заголовок и один раунд", path)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGameService_FinishGame_PersistFailureIsNotFatal(t *testing.T) {
	repo := new(MockPerformanceRepo)
	repo.On("SaveGame", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc, _ := newTestService(t, nil, repo, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)
	playRounds(t, svc, view.SessionID, 1)

	report, err := svc.FinishGame(ctx, view.SessionID)
	require.NoError(t, err, "Ошибка сохранения не должна прерывать завершение игры")
	assert.False(t, report.Persisted)
	assert.Equal(t, "db down", report.PersistError)
	assert.Empty(t, report.ExportPath, "Выгрузка отключена пустым каталогом")
}

func TestGameService_FinishGame_NoRoundsSkipsPersistence(t *testing.T) {
	repo := new(MockPerformanceRepo)
	svc, _ := newTestService(t, nil, repo, t.TempDir())
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	report, err := svc.FinishGame(ctx, view.SessionID)
	require.NoError(t, err)
	assert.False(t, report.HasData)
	assert.False(t, report.Persisted)
	assert.Empty(t, report.ExportPath)
	repo.AssertNotCalled(t, "SaveGame", mock.Anything, mock.Anything)
}

// ============================================================================
// Хранилище снимков
// ============================================================================

func TestGameService_RestoresSessionFromStore(t *testing.T) {
	store := new(MockSessionStore)
	snapshot := &entity.SessionSnapshot{
		ID:         "restored-id",
		PlayerName: "Carol",
		Phase:      string(quizmanager.PhaseScored),
		Score:      150,
		Round:      1,
		MaxRounds:  3,
		Difficulty: 0.2,
		AskedIDs:   []uint{1},
		Records: []entity.PerformanceRecord{
			{Round: 1, Difficulty: 0.5, Accuracy: 1, ReactionTime: 3, Attempts: 1, Timestamp: time.Now()},
		},
		StartedAt: time.Now().Add(-time.Minute),
	}
	store.On("Load", mock.Anything, "restored-id").Return(snapshot, nil).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newTestService(t, store, nil, "")
	ctx := context.Background()

	game, err := svc.GetGame(ctx, "restored-id")
	require.NoError(t, err)
	assert.Equal(t, "Carol", game.PlayerName)
	assert.Equal(t, 150, game.Score)
	assert.Equal(t, 1, game.Round)

	q, err := svc.NextQuestion(ctx, "restored-id")
	require.NoError(t, err)
	assert.Equal(t, "easy", q.Tier)
	assert.NotEqual(t, uint(1), q.ID, "Уже заданный вопрос не должен повторяться")

	store.AssertNumberOfCalls(t, "Load", 1)
}

func TestGameService_LateSaveAfterFinishDoesNotResurrectSnapshot(t *testing.T) {
	store := new(MockSessionStore)
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	store.On("Delete", mock.Anything, mock.Anything).Return(nil)
	store.On("Load", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)

	svc, _ := newTestService(t, store, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)
	playRounds(t, svc, view.SessionID, 1)

	// Сессия, которую держит запрос, начатый до завершения игры
	held, ok := svc.registry.Get(view.SessionID)
	require.True(t, ok)

	_, err = svc.FinishGame(ctx, view.SessionID)
	require.NoError(t, err)
	store.AssertCalled(t, "Delete", mock.Anything, view.SessionID)
	callsBefore := len(store.Calls)

	svc.persist(ctx, held)
	assert.Len(t, store.Calls, callsBefore, "Снимок завершённой игры не должен записываться повторно")

	_, err = svc.SubmitAnswer(ctx, view.SessionID, 1, "a", floatPtr(1))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "Игра не восстанавливается после завершения")
}

func TestGameService_RestartDeletesSnapshotBeforeRegistry(t *testing.T) {
	store := new(MockSessionStore)
	store.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newTestService(t, store, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	store.On("Delete", mock.Anything, view.SessionID).Run(func(mock.Arguments) {
		_, stillRegistered := svc.registry.Get(view.SessionID)
		assert.True(t, stillRegistered, "Снимок удаляется, пока сессия ещё в реестре")
	}).Return(nil)

	require.NoError(t, svc.RestartGame(ctx, view.SessionID))
	assert.Equal(t, 0, svc.ActiveSessions())
	store.AssertNumberOfCalls(t, "Delete", 1)
}

func TestGameService_StoreFailuresAreNotFatal(t *testing.T) {
	store := new(MockSessionStore)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	store.On("Load", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	svc, _ := newTestService(t, store, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)
	playRounds(t, svc, view.SessionID, 2)

	require.NoError(t, svc.RestartGame(ctx, view.SessionID))
	_, err = svc.GetGame(ctx, view.SessionID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// ============================================================================
// Выгрузка и таблица лидеров
// ============================================================================

func TestGameService_ExportLog(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	ctx := context.Background()
	view, _, err := svc.StartGame(ctx, "Alice")
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.True(t, errors.Is(svc.ExportLog(ctx, view.SessionID, "csv", &buf), apperrors.ErrNoData))
	assert.True(t, errors.Is(svc.ExportLog(ctx, view.SessionID, "pdf", &buf), apperrors.ErrValidation))

	playRounds(t, svc, view.SessionID, 2)
	require.NoError(t, svc.ExportLog(ctx, view.SessionID, "csv", &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3, "Заголовок и две строки раундов")
}

func TestGameService_ExportLog_FinishedGameFromRepo(t *testing.T) {
	repo := new(MockPerformanceRepo)
	records := []entity.PerformanceRecord{
		{Round: 1, Difficulty: 0.5, Accuracy: 1, ReactionTime: 2, Attempts: 1, Timestamp: time.Now()},
	}
	repo.On("GetSessionRecords", "finished-id").Return(records, nil)

	svc, _ := newTestService(t, nil, repo, "")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportLog(context.Background(), "finished-id", "xlsx", &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")), "XLSX - это zip-архив")
}

func TestGameService_GetGame_FinishedFromRepo(t *testing.T) {
	repo := new(MockPerformanceRepo)
	repo.On("GetResultBySession", "finished-id").Return(&entity.GameResult{
		SessionID: "finished-id", PlayerName: "Alice", Score: 450, TotalRounds: 3,
		FinalDifficulty: 0.85, PredictorStrategy: "rule",
	}, nil)
	repo.On("GetResultBySession", "unknown-id").Return(nil, apperrors.ErrNotFound)

	svc, _ := newTestService(t, nil, repo, "")
	ctx := context.Background()

	game, err := svc.GetGame(ctx, "finished-id")
	require.NoError(t, err)
	assert.Equal(t, string(quizmanager.PhaseFinished), game.Phase)
	assert.Equal(t, 450, game.Score)
	assert.Equal(t, "Very Hard", game.DifficultyLabel)

	_, err = svc.GetGame(ctx, "unknown-id")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "Неизвестная игра - 404")
}

func TestGameService_Leaderboard(t *testing.T) {
	svc, _ := newTestService(t, nil, nil, "")
	results, err := svc.Leaderboard(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, results, "Без БД таблица лидеров пуста")

	repo := new(MockPerformanceRepo)
	repo.On("GetLeaderboard", 10).Return([]entity.GameResult{
		{PlayerName: "=cmd", Score: 900, TotalRounds: 10, CorrectAnswers: 9, AvgAccuracyPercent: 90, CompletedAt: time.Now()},
	}, nil)
	svc, _ = newTestService(t, nil, repo, "")

	var buf bytes.Buffer
	require.NoError(t, svc.LeaderboardCSV(context.Background(), 0, &buf))
	assert.Contains(t, buf.String(), "1,'=cmd,900,9,10,90.0,")
}

func TestFormatTotalTime(t *testing.T) {
	assert.Equal(t, "0 minutes and 45 seconds", FormatTotalTime(45.7))
	assert.Equal(t, "2 minutes and 5 seconds", FormatTotalTime(125))
	assert.Equal(t, "0 minutes and 0 seconds", FormatTotalTime(-3))
}
