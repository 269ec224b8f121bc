package quizmanager

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

// EmergencyQuestionID - ID синтетического вопроса, который выдаётся при пустом каталоге
const EmergencyQuestionID uint = 999

// emergencyQuestion создает синтетический вопрос нужного уровня
func emergencyQuestion(tier entity.Tier) *entity.Question {
	return &entity.Question{
		ID:            EmergencyQuestionID,
		Text:          "Emergency fallback question: What is 2+2?",
		Options:       entity.StringArray{"3", "4", "5", "6"},
		CorrectOption: 1,
		Tier:          tier,
	}
}

// Catalog - неизменяемый набор вопросов, из которого сессии выбирают вопросы
type Catalog struct {
	questions []entity.Question
	byID      map[uint]int
	byTier    map[entity.Tier][]int
}

// NewCatalog создает каталог и проверяет вопросы.
// Дубликаты ID и неверный индекс правильного ответа возвращают ErrValidation.
func NewCatalog(questions []entity.Question) (*Catalog, error) {
	c := &Catalog{
		questions: make([]entity.Question, 0, len(questions)),
		byID:      make(map[uint]int, len(questions)),
		byTier:    make(map[entity.Tier][]int),
	}
	for _, q := range questions {
		if err := validateQuestion(&q); err != nil {
			return nil, err
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", apperrors.ErrValidation, q.ID)
		}
		q.Options = append(entity.StringArray(nil), q.Options...)
		c.byID[q.ID] = len(c.questions)
		c.byTier[q.Tier] = append(c.byTier[q.Tier], len(c.questions))
		c.questions = append(c.questions, q)
	}
	return c, nil
}

func validateQuestion(q *entity.Question) error {
	if !q.Tier.IsValid() {
		return fmt.Errorf("%w: question %d has unknown tier %q", apperrors.ErrValidation, q.ID, q.Tier)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question %d has no options", apperrors.ErrValidation, q.ID)
	}
	if !q.IsValidOption(q.CorrectOption) {
		return fmt.Errorf("%w: question %d correct option %d out of range [0,%d)",
			apperrors.ErrValidation, q.ID, q.CorrectOption, len(q.Options))
	}
	return nil
}

// Len возвращает количество вопросов в каталоге
func (c *Catalog) Len() int {
	return len(c.questions)
}

// CountByTier возвращает количество вопросов каждого уровня
func (c *Catalog) CountByTier() map[entity.Tier]int {
	out := make(map[entity.Tier]int, len(c.byTier))
	for tier, idx := range c.byTier {
		out[tier] = len(idx)
	}
	return out
}

// Get возвращает копию вопроса по ID
func (c *Catalog) Get(id uint) (*entity.Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	q := c.questions[i]
	return &q, true
}

// Select выбирает вопрос уровня tier, который ещё не задавался.
// Если условие невыполнимо, ограничения ослабляются по шагам:
//  1. уровень совпадает и вопрос не задавался;
//  2. любой не заданный вопрос;
//  3. все вопросы заданы: asked очищается, поиск повторяется по уровню, затем по всему каталогу;
//  4. каталог пуст: синтетический вопрос EmergencyQuestionID.
//
// relaxed=true на шагах 2-4. Выбранный ID добавляется в asked (кроме синтетического).
func (c *Catalog) Select(tier entity.Tier, asked *AskedSet, rng *rand.Rand) (q *entity.Question, relaxed bool) {
	if len(c.questions) == 0 {
		log.Printf("[Catalog] Каталог пуст, выдаю аварийный вопрос #%d", EmergencyQuestionID)
		return emergencyQuestion(tier), true
	}

	// 1. Уровень совпадает, вопрос не задавался
	if idx := c.pick(c.byTier[tier], asked, rng); idx >= 0 {
		return c.take(idx, asked), false
	}

	// 2. Любой не заданный вопрос
	if idx := c.pick(c.allIndexes(), asked, rng); idx >= 0 {
		log.Printf("[Catalog] Нет вопросов уровня %s, ограничение по уровню снято", tier)
		return c.take(idx, asked), true
	}

	// 3. Все вопросы заданы: начинаем круг заново
	if c.exhaustedBy(asked) {
		log.Printf("[Catalog] Все %d вопросов заданы, сбрасываю список заданных", len(c.questions))
		asked.Clear()
	}
	if idx := c.pick(c.byTier[tier], asked, rng); idx >= 0 {
		return c.take(idx, asked), true
	}
	if idx := c.pick(c.byTier[tier], nil, rng); idx >= 0 {
		return c.take(idx, asked), true
	}
	idx := c.pick(c.allIndexes(), nil, rng)
	return c.take(idx, asked), true
}

// pick выбирает случайный индекс из candidates, пропуская заданные. -1, если выбрать нечего
func (c *Catalog) pick(candidates []int, asked *AskedSet, rng *rand.Rand) int {
	available := make([]int, 0, len(candidates))
	for _, i := range candidates {
		if asked != nil && asked.Contains(c.questions[i].ID) {
			continue
		}
		available = append(available, i)
	}
	if len(available) == 0 {
		return -1
	}
	return available[randIntn(rng, len(available))]
}

func (c *Catalog) take(idx int, asked *AskedSet) *entity.Question {
	q := c.questions[idx]
	q.Options = append(entity.StringArray(nil), q.Options...)
	if asked != nil {
		asked.Add(q.ID)
	}
	return &q
}

func (c *Catalog) allIndexes() []int {
	out := make([]int, len(c.questions))
	for i := range out {
		out[i] = i
	}
	return out
}

// exhaustedBy проверяет, что asked покрывает все ID каталога
func (c *Catalog) exhaustedBy(asked *AskedSet) bool {
	if asked == nil {
		return false
	}
	for i := range c.questions {
		if !asked.Contains(c.questions[i].ID) {
			return false
		}
	}
	return true
}

func randIntn(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.Intn(n)
	}
	return rng.Intn(n)
}
