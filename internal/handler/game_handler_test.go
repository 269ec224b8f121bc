package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	"github.com/yourusername/adaptive-trivia/internal/handler/dto"
	"github.com/yourusername/adaptive-trivia/internal/middleware"
	"github.com/yourusername/adaptive-trivia/internal/predictor"
	"github.com/yourusername/adaptive-trivia/internal/service"
	"github.com/yourusername/adaptive-trivia/internal/service/quizmanager"
	"github.com/yourusername/adaptive-trivia/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	tickets, err := auth.NewTicketService("handler-test-secret-123", "k1", time.Hour)
	require.NoError(t, err)

	cfg := service.GameServiceConfig{
		Game: &quizmanager.Config{MaxRounds: 2, WindowSize: 3, StartDifficulty: 0.5},
	}
	svc := service.NewGameService(cfg, testCatalog(t), predictor.NewRule(), nil, nil, tickets)
	h := NewGameHandler(svc)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/games", h.StartGame)
	api.GET("/leaderboard", h.GetLeaderboard)

	games := api.Group("/games/:id",
		middleware.ExtractSessionID("id", ContextKeySessionID),
		middleware.NewTicketMiddleware(tickets).RequireSessionTicket(ContextKeySessionID),
	)
	games.GET("", h.GetGame)
	games.GET("/question", h.GetQuestion)
	games.POST("/answer", h.SubmitAnswer)
	games.GET("/summary", h.GetSummary)
	games.GET("/stats", h.GetQuestionStats)
	games.POST("/finish", h.FinishGame)
	games.DELETE("", h.RestartGame)
	games.GET("/export", h.ExportLog)
	return router
}

func doRequest(router *gin.Engine, method, url, ticket, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if ticket != "" {
		req.Header.Set(middleware.SessionTicketHeader, ticket)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type startedGame struct {
	ID     string
	Ticket string
}

func startGame(t *testing.T, router *gin.Engine, name string) startedGame {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/games", "", `{"player_name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Game   service.GameView `json:"game"`
		Ticket string           `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Ticket)
	return startedGame{ID: resp.Game.SessionID, Ticket: resp.Ticket}
}

func nextQuestion(t *testing.T, router *gin.Engine, g startedGame) dto.QuestionResponse {
	t.Helper()
	w := doRequest(router, http.MethodGet, "/api/games/"+g.ID+"/question", g.Ticket, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var q dto.QuestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	return q
}

// ============================================================================
// Создание игры
// ============================================================================

func TestStartGame(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")

	w := doRequest(router, http.MethodGet, "/api/games/"+g.ID, g.Ticket, "")
	require.Equal(t, http.StatusOK, w.Code)

	var view service.GameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Alice", view.PlayerName)
	assert.Equal(t, 0, view.Score)
	assert.Equal(t, 2, view.MaxRounds)
	assert.Equal(t, "rule", view.PredictorStrategy)
}

func TestStartGame_InvalidBody(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/games", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "Имя игрока обязательно")

	w = doRequest(router, http.MethodPost, "/api/games", "", `{"player_name":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "Имя из пробелов должно отклоняться сервисом")
}

func TestGameRoutes_RequireTicket(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")
	other := startGame(t, router, "Bob")

	w := doRequest(router, http.MethodGet, "/api/games/"+g.ID, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "Без тикета доступ запрещён")

	w = doRequest(router, http.MethodGet, "/api/games/"+g.ID, other.Ticket, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "Тикет другой сессии не подходит")
}

// ============================================================================
// Раунды
// ============================================================================

func TestPlayRoundAndFinish(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")

	q := nextQuestion(t, router, g)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, "a", q.Options[0].Key)

	body := `{"question_id":` + jsonUint(q.ID) + `,"answer":"1","reaction_time":5}`
	w := doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/answer", g.Ticket, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.AnswerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Accepted)
	assert.True(t, result.Correct, "Первый вариант всегда верный")
	assert.Greater(t, result.Points, 0)
	assert.NotEmpty(t, result.DifficultyBar)

	w = doRequest(router, http.MethodGet, "/api/games/"+g.ID+"/stats", g.Ticket, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"questions_asked":1`)

	w = doRequest(router, http.MethodGet, "/api/games/"+g.ID+"/summary", g.Ticket, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_data":true`)

	w = doRequest(router, http.MethodGet, "/api/games/"+g.ID+"/export?format=csv", g.Ticket, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Alice_performance_")
	assert.Contains(t, w.Body.String(), "accuracy")

	w = doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/finish", g.Ticket, "")
	require.Equal(t, http.StatusOK, w.Code)
	var report service.FinishReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, result.Score, report.Score)
	assert.False(t, report.Persisted, "Без БД результат не сохраняется")

	w = doRequest(router, http.MethodGet, "/api/games/"+g.ID+"/question", g.Ticket, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "Завершённая сессия удаляется")
}

func TestSubmitAnswer_TimedOut(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")
	q := nextQuestion(t, router, g)

	body := `{"question_id":` + jsonUint(q.ID) + `,"timed_out":true,"reaction_time":30}`
	w := doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/answer", g.Ticket, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.AnswerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Accepted)
	assert.False(t, result.Correct)
	assert.Equal(t, quizmanager.OutcomeTimeout, result.Outcome)
}

func TestSubmitAnswer_TimedOutWithoutQuestionID(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")
	nextQuestion(t, router, g)

	w := doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/answer", g.Ticket, `{"timed_out":true}`)
	require.Equal(t, http.StatusOK, w.Code, "При истечении времени question_id не обязателен: %s", w.Body.String())

	var result service.AnswerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Accepted)
	assert.Equal(t, quizmanager.OutcomeTimeout, result.Outcome)
}

func TestSubmitAnswer_NoPendingQuestion(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")

	w := doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/answer", g.Ticket, `{"question_id":1,"answer":"a"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":false`)
}

func TestSubmitAnswer_InvalidBody(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")

	w := doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/answer", g.Ticket, `{"answer":"a"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "question_id обязателен для обычного ответа")

	w = doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/answer", g.Ticket, `{"answer":"a","timed_out":false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "timed_out=false не отменяет question_id")

	w = doRequest(router, http.MethodPost, "/api/games/"+g.ID+"/answer", g.Ticket, `{"question_id":1,"answer":"a","reaction_time":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "Отрицательное время реакции отклоняется")
}

func TestExportLog_NoData(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")

	w := doRequest(router, http.MethodGet, "/api/games/"+g.ID+"/export", g.Ticket, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no_data")

	w = doRequest(router, http.MethodGet, "/api/games/"+g.ID+"/export?format=pdf", g.Ticket, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRestartGame(t *testing.T) {
	router := newTestRouter(t)
	g := startGame(t, router, "Alice")

	w := doRequest(router, http.MethodDelete, "/api/games/"+g.ID, g.Ticket, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodGet, "/api/games/"+g.ID, g.Ticket, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============================================================================
// Таблица лидеров
// ============================================================================

func TestGetLeaderboard(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/leaderboard?limit=0", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/leaderboard", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String(), "Без БД таблица пуста")

	w = doRequest(router, http.MethodGet, "/api/leaderboard?format=csv", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leaderboard.csv")
}

func jsonUint(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
