package quizmanager

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	"github.com/yourusername/adaptive-trivia/internal/domain/repository"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

//go:embed bank/default_questions.json
var defaultBankFS embed.FS

const defaultBankPath = "bank/default_questions.json"

var bankValidate = validator.New()

// BankEntry - формат вопроса в JSON-файле банка вопросов
type BankEntry struct {
	ID         uint     `json:"id" validate:"required"`
	Text       string   `json:"text" validate:"required,max=500"`
	Options    []string `json:"options" validate:"required,min=2,max=4,dive,required"`
	Answer     int      `json:"answer" validate:"gte=0"`
	Difficulty string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// ToQuestion преобразует запись банка в вопрос
func (e *BankEntry) ToQuestion() entity.Question {
	return entity.Question{
		ID:            e.ID,
		Text:          e.Text,
		Options:       entity.StringArray(e.Options),
		CorrectOption: e.Answer,
		Tier:          entity.Tier(e.Difficulty),
	}
}

// ParseQuestionBank разбирает и проверяет JSON-банк вопросов
func ParseQuestionBank(data []byte) ([]entity.Question, error) {
	var entries []BankEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: invalid question bank json: %v", apperrors.ErrValidation, err)
	}

	questions := make([]entity.Question, 0, len(entries))
	for i := range entries {
		if err := bankValidate.Struct(&entries[i]); err != nil {
			return nil, fmt.Errorf("%w: question #%d (id=%d): %v", apperrors.ErrValidation, i, entries[i].ID, err)
		}
		if entries[i].Answer >= len(entries[i].Options) {
			return nil, fmt.Errorf("%w: question id=%d answer %d out of range", apperrors.ErrValidation,
				entries[i].ID, entries[i].Answer)
		}
		questions = append(questions, entries[i].ToQuestion())
	}
	return questions, nil
}

// DefaultQuestions возвращает встроенный банк вопросов
func DefaultQuestions() []entity.Question {
	data, err := defaultBankFS.ReadFile(defaultBankPath)
	if err != nil {
		panic(fmt.Sprintf("embedded question bank missing: %v", err))
	}
	questions, err := ParseQuestionBank(data)
	if err != nil {
		panic(fmt.Sprintf("embedded question bank invalid: %v", err))
	}
	return questions
}

// LoadCatalogFromFile загружает каталог из JSON-файла.
// При отсутствии или ошибке файла используется встроенный банк, ошибка только логируется.
func LoadCatalogFromFile(path string) *Catalog {
	if path != "" {
		catalog, err := loadCatalogFile(path)
		if err == nil {
			logCatalog(catalog, path)
			return catalog
		}
		log.Printf("[Catalog] WARNING: Не удалось загрузить банк вопросов %s: %v. Использую встроенный банк", path, err)
	}

	catalog, err := NewCatalog(DefaultQuestions())
	if err != nil {
		panic(fmt.Sprintf("embedded question bank rejected: %v", err))
	}
	logCatalog(catalog, "встроенного банка")
	return catalog
}

// logCatalog пишет размер каталога по уровням
func logCatalog(catalog *Catalog, source string) {
	counts := catalog.CountByTier()
	log.Printf("[Catalog] Загружено %d вопросов из %s: easy=%d medium=%d hard=%d",
		catalog.Len(), source, counts[entity.TierEasy], counts[entity.TierMedium], counts[entity.TierHard])
}

func loadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	questions, err := ParseQuestionBank(data)
	if err != nil {
		return nil, err
	}
	return NewCatalog(questions)
}

// LoadCatalogFromRepo загружает каталог из БД. Если таблица пуста, она заполняется встроенным банком
func LoadCatalogFromRepo(repo repository.QuestionRepository) (*Catalog, error) {
	count, err := repo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if count == 0 {
		log.Printf("[Catalog] Таблица вопросов пуста, заполняю встроенным банком")
		if err := repo.CreateBatch(DefaultQuestions()); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("failed to seed questions: %w", err)
		}
	}

	for _, tier := range []entity.Tier{entity.TierEasy, entity.TierMedium, entity.TierHard} {
		n, err := repo.CountByTier(tier)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s questions: %w", tier, err)
		}
		if n == 0 {
			log.Printf("[Catalog] WARNING: В БД нет вопросов уровня %s, выбор будет снимать ограничение по уровню", tier)
		}
	}

	questions, err := repo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	catalog, err := NewCatalog(questions)
	if err != nil {
		return nil, err
	}
	logCatalog(catalog, "БД")
	return catalog, nil
}
