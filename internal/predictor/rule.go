package predictor

// Rule - детерминированная линейная стратегия без обучения
type Rule struct {
	AccuracyWeight float64 `json:"accuracy_weight"`
	ReactionWeight float64 `json:"reaction_weight"`
	AttemptsWeight float64 `json:"attempts_weight"`
}

// NewRule создает правило с коэффициентами по умолчанию
func NewRule() *Rule {
	return &Rule{
		AccuracyWeight: 1.2,
		ReactionWeight: 0.3,
		AttemptsWeight: 0.1,
	}
}

// Predict реализует Predictor
func (r *Rule) Predict(accuracy, reactionTime, attempts float64) float64 {
	x := normalize(accuracy, reactionTime, attempts)
	return clip(r.AccuracyWeight*x[0] - r.ReactionWeight*x[1] - r.AttemptsWeight*x[2])
}

// Strategy реализует Predictor
func (r *Rule) Strategy() string {
	return StrategyRule
}
