package quizmanager

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

func q(id uint, tier entity.Tier) entity.Question {
	return entity.Question{
		ID:            id,
		Text:          "Question",
		Options:       entity.StringArray{"A", "B", "C", "D"},
		CorrectOption: 0,
		Tier:          tier,
	}
}

func newTestCatalog(t *testing.T, questions ...entity.Question) *Catalog {
	t.Helper()
	c, err := NewCatalog(questions)
	require.NoError(t, err)
	return c
}

// ============================================================================
// Тесты NewCatalog
// ============================================================================

func TestNewCatalog_RejectsDuplicateIDs(t *testing.T) {
	_, err := NewCatalog([]entity.Question{q(1, entity.TierEasy), q(1, entity.TierHard)})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Дубликат ID должен отклоняться")
}

func TestNewCatalog_RejectsCorrectOptionOutOfRange(t *testing.T) {
	bad := q(5, entity.TierMedium)
	bad.CorrectOption = 4

	_, err := NewCatalog([]entity.Question{bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "question 5")
}

func TestNewCatalog_RejectsUnknownTier(t *testing.T) {
	_, err := NewCatalog([]entity.Question{q(1, entity.Tier("legendary"))})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// ============================================================================
// Тесты Select
// ============================================================================

func TestSelect_PrefersTierMatch(t *testing.T) {
	catalog := newTestCatalog(t, q(1, entity.TierEasy), q(2, entity.TierMedium), q(3, entity.TierHard))
	asked := NewAskedSet()

	question, relaxed := catalog.Select(entity.TierMedium, asked, rand.New(rand.NewSource(1)))

	assert.Equal(t, uint(2), question.ID)
	assert.False(t, relaxed, "Точное совпадение уровня не должно считаться ослаблением")
	assert.True(t, asked.Contains(2), "Выбранный ID должен попасть в asked")
}

func TestSelect_RelaxesTierWhenExhausted(t *testing.T) {
	catalog := newTestCatalog(t, q(1, entity.TierEasy), q(2, entity.TierHard))
	asked := NewAskedSet(1)

	question, relaxed := catalog.Select(entity.TierEasy, asked, rand.New(rand.NewSource(1)))

	assert.Equal(t, uint(2), question.ID)
	assert.True(t, relaxed)
}

func TestSelect_NeverRepeatsUntilExhausted(t *testing.T) {
	var questions []entity.Question
	for i := uint(1); i <= 12; i++ {
		tier := []entity.Tier{entity.TierEasy, entity.TierMedium, entity.TierHard}[i%3]
		questions = append(questions, q(i, tier))
	}
	catalog := newTestCatalog(t, questions...)
	asked := NewAskedSet()
	rng := rand.New(rand.NewSource(42))

	seen := map[uint]bool{}
	for i := 0; i < 12; i++ {
		question, _ := catalog.Select(entity.TierHard, asked, rng)
		assert.False(t, seen[question.ID], "Вопрос %d выдан повторно до исчерпания каталога", question.ID)
		seen[question.ID] = true
	}
	assert.Len(t, seen, 12)
	assert.Equal(t, 12, asked.Len())
}

func TestSelect_ExhaustionResetsAsked(t *testing.T) {
	catalog := newTestCatalog(t, q(1, entity.TierEasy), q(2, entity.TierMedium), q(3, entity.TierHard))
	asked := NewAskedSet(1, 2, 3)

	question, relaxed := catalog.Select(entity.TierEasy, asked, rand.New(rand.NewSource(7)))

	require.NotNil(t, question)
	assert.True(t, relaxed, "Исчерпание каталога должно помечаться как ослабление")
	assert.Less(t, asked.Len(), 3, "После сброса asked должен содержать меньше 3 ID")
	assert.True(t, asked.Contains(question.ID))
}

func TestSelect_EmptyCatalogReturnsEmergencyQuestion(t *testing.T) {
	catalog := newTestCatalog(t)
	asked := NewAskedSet()

	question, relaxed := catalog.Select(entity.TierHard, asked, nil)

	assert.Equal(t, EmergencyQuestionID, question.ID)
	assert.Equal(t, uint(999), question.ID)
	assert.Equal(t, "4", question.Options[question.CorrectOption])
	assert.True(t, relaxed)
	assert.Equal(t, 0, asked.Len(), "Аварийный вопрос не отслеживается в asked")
}

func TestSelect_SeededRandomIsDeterministic(t *testing.T) {
	var questions []entity.Question
	for i := uint(1); i <= 10; i++ {
		questions = append(questions, q(i, entity.TierMedium))
	}
	catalog := newTestCatalog(t, questions...)

	pick := func() []uint {
		asked := NewAskedSet()
		rng := rand.New(rand.NewSource(99))
		var ids []uint
		for i := 0; i < 5; i++ {
			question, _ := catalog.Select(entity.TierMedium, asked, rng)
			ids = append(ids, question.ID)
		}
		return ids
	}

	assert.Equal(t, pick(), pick(), "Одинаковый seed должен давать одинаковую последовательность")
}

func TestSelect_ReturnsCopy(t *testing.T) {
	catalog := newTestCatalog(t, q(1, entity.TierEasy))

	question, _ := catalog.Select(entity.TierEasy, NewAskedSet(), nil)
	question.Options[0] = "mutated"

	stored, ok := catalog.Get(1)
	require.True(t, ok)
	assert.Equal(t, "A", stored.Options[0], "Каталог должен быть неизменяемым")
}

// ============================================================================
// Тесты DifficultyConfig
// ============================================================================

func TestDifficultyConfig_TierFor(t *testing.T) {
	cfg := DefaultDifficultyConfig()

	tests := []struct {
		difficulty float64
		expected   entity.Tier
	}{
		{0.1, entity.TierEasy},
		{0.3, entity.TierEasy},
		{0.31, entity.TierMedium},
		{0.6, entity.TierMedium},
		{0.61, entity.TierHard},
		{0.9, entity.TierHard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, cfg.TierFor(tt.difficulty), "difficulty=%.2f", tt.difficulty)
	}
}

func TestDifficultyConfig_Clamp(t *testing.T) {
	cfg := DefaultDifficultyConfig()

	assert.Equal(t, 0.1, cfg.Clamp(-3))
	assert.Equal(t, 0.9, cfg.Clamp(1.5))
	assert.Equal(t, 0.45, cfg.Clamp(0.45))
}

func TestDifficultyLabel(t *testing.T) {
	assert.Equal(t, "Medium", DifficultyLabel(0.45))
	assert.Equal(t, "Very Hard", DifficultyLabel(0.85))
	assert.Equal(t, "Very Easy", DifficultyLabel(0.2))
	assert.Equal(t, "Easy", DifficultyLabel(0.4))
	assert.Equal(t, "Hard", DifficultyLabel(0.8))
}

func TestDifficultyChange(t *testing.T) {
	assert.Equal(t, "increase", DifficultyChange(0.5, 0.7))
	assert.Equal(t, "decrease", DifficultyChange(0.5, 0.3))
	assert.Equal(t, "unchanged", DifficultyChange(0.5, 0.5))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[██████████░░░░░░░░░░] 50.0%", ProgressBar(0.5, 20))
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0.0%", ProgressBar(-1, 20))
	assert.Equal(t, "[████] 100.0%", ProgressBar(1, 4))
}
