// Package metrics содержит Prometheus-метрики игрового сервиса.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// roundsTotal считает сыгранные раунды по исходу
	roundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_rounds_total",
		Help: "Total scored rounds by outcome",
	}, []string{"outcome"})

	// selectionsTotal считает выбор вопросов, relaxed=true - с ослаблением ограничений
	selectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_question_selections_total",
		Help: "Total question selections by tier and relaxation",
	}, []string{"tier", "relaxed"})

	// difficultyHistogram распределение новой сложности после пересчёта
	difficultyHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trivia_difficulty",
		Help:    "Session difficulty after each round",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
	})

	// predictDuration время вызова предсказателя
	predictDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trivia_predict_duration_seconds",
		Help:    "Difficulty predictor latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{"strategy"})

	// activeSessions количество сессий в реестре
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trivia_active_sessions",
		Help: "Number of sessions held in the registry",
	})

	// gamesFinished завершённые игры по статусу сохранения
	gamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_games_finished_total",
		Help: "Total finished games by persistence status",
	}, []string{"persisted"})

	// wsConnections активные WebSocket-подключения
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trivia_ws_connections",
		Help: "Active WebSocket play connections",
	})

	// wsMessages сообщения WebSocket по направлению и типу
	wsMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_ws_messages_total",
		Help: "WebSocket messages by direction and event type",
	}, []string{"direction", "type"})
)

// ObserveRound фиксирует исход раунда и новую сложность
func ObserveRound(outcome string, newDifficulty float64) {
	roundsTotal.WithLabelValues(outcome).Inc()
	difficultyHistogram.Observe(newDifficulty)
}

// ObserveSelection фиксирует выбор вопроса
func ObserveSelection(tier string, relaxed bool) {
	label := "false"
	if relaxed {
		label = "true"
	}
	selectionsTotal.WithLabelValues(tier, label).Inc()
}

// SetActiveSessions обновляет количество активных сессий
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// ObserveGameFinished фиксирует завершение игры
func ObserveGameFinished(persisted bool) {
	label := "false"
	if persisted {
		label = "true"
	}
	gamesFinished.WithLabelValues(label).Inc()
}

// WSConnected / WSDisconnected отслеживают WebSocket-подключения
func WSConnected()    { wsConnections.Inc() }
func WSDisconnected() { wsConnections.Dec() }

// ObserveWSMessage фиксирует входящее (in) или исходящее (out) сообщение
func ObserveWSMessage(direction, eventType string) {
	wsMessages.WithLabelValues(direction, eventType).Inc()
}

// predictor - минимальный интерфейс предсказателя сложности
type predictor interface {
	Predict(accuracy, reactionTime, attempts float64) float64
	Strategy() string
}

// InstrumentedPredictor измеряет время каждого вызова Predict
type InstrumentedPredictor struct {
	next predictor
}

// InstrumentPredictor оборачивает предсказатель метриками
func InstrumentPredictor(p predictor) *InstrumentedPredictor {
	return &InstrumentedPredictor{next: p}
}

// Predict вызывает обёрнутый предсказатель
func (p *InstrumentedPredictor) Predict(accuracy, reactionTime, attempts float64) float64 {
	started := time.Now()
	d := p.next.Predict(accuracy, reactionTime, attempts)
	predictDuration.WithLabelValues(p.next.Strategy()).Observe(time.Since(started).Seconds())
	return d
}

// Strategy возвращает стратегию обёрнутого предсказателя
func (p *InstrumentedPredictor) Strategy() string {
	return p.next.Strategy()
}
