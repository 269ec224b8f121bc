package quizmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/adaptive-trivia/internal/domain/entity"
	apperrors "github.com/yourusername/adaptive-trivia/internal/pkg/errors"
)

func TestDefaultQuestions_Valid(t *testing.T) {
	questions := DefaultQuestions()
	require.Len(t, questions, 20)

	catalog, err := NewCatalog(questions)
	require.NoError(t, err)

	counts := catalog.CountByTier()
	assert.Positive(t, counts[entity.TierEasy])
	assert.Positive(t, counts[entity.TierMedium])
	assert.Positive(t, counts[entity.TierHard])
}

func TestParseQuestionBank(t *testing.T) {
	data := []byte(`[
		{"id": 1, "text": "2+2?", "options": ["3","4"], "answer": 1, "difficulty": "easy"},
		{"id": 2, "text": "Capital of Peru?", "options": ["Lima","Quito","Bogota"], "answer": 0, "difficulty": "hard"}
	]`)

	questions, err := ParseQuestionBank(data)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, entity.TierHard, questions[1].Tier)
	assert.Equal(t, 1, questions[0].CorrectOption)
}

func TestParseQuestionBank_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"битый json", `[{"id": 1,`},
		{"неизвестный уровень", `[{"id": 1, "text": "t", "options": ["a","b"], "answer": 0, "difficulty": "insane"}]`},
		{"ответ вне диапазона", `[{"id": 1, "text": "t", "options": ["a","b"], "answer": 2, "difficulty": "easy"}]`},
		{"нет текста", `[{"id": 1, "options": ["a","b"], "answer": 0, "difficulty": "easy"}]`},
		{"один вариант", `[{"id": 1, "text": "t", "options": ["a"], "answer": 0, "difficulty": "easy"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestionBank([]byte(tt.data))
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": 10, "text": "t", "options": ["a","b"], "answer": 0, "difficulty": "medium"}
	]`), 0o644))

	catalog := LoadCatalogFromFile(path)
	assert.Equal(t, 1, catalog.Len())
	_, ok := catalog.Get(10)
	assert.True(t, ok)
}

func TestLoadCatalogFromFile_FallsBackToDefaultBank(t *testing.T) {
	catalog := LoadCatalogFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 20, catalog.Len(), "При отсутствии файла используется встроенный банк")

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	assert.Equal(t, 20, LoadCatalogFromFile(path).Len())
}

// ============================================================================
// Загрузка из БД
// ============================================================================

type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

func (m *MockQuestionRepo) ListAll() ([]entity.Question, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) CountByTier(tier entity.Tier) (int64, error) {
	args := m.Called(tier)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepo) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func TestLoadCatalogFromRepo_SeedsEmptyTable(t *testing.T) {
	defaults := DefaultQuestions()
	repo := new(MockQuestionRepo)
	repo.On("Count").Return(int64(0), nil)
	repo.On("CreateBatch", mock.AnythingOfType("[]entity.Question")).Return(nil)
	repo.On("CountByTier", mock.Anything).Return(int64(5), nil)
	repo.On("ListAll").Return(defaults, nil)

	catalog, err := LoadCatalogFromRepo(repo)
	require.NoError(t, err)
	assert.Equal(t, len(defaults), catalog.Len())
	repo.AssertCalled(t, "CreateBatch", mock.Anything)
	repo.AssertNumberOfCalls(t, "CountByTier", 3)
}

func TestLoadCatalogFromRepo_ExistingQuestions(t *testing.T) {
	repo := new(MockQuestionRepo)
	repo.On("Count").Return(int64(1), nil)
	repo.On("CountByTier", entity.TierEasy).Return(int64(1), nil)
	repo.On("CountByTier", mock.Anything).Return(int64(0), nil)
	repo.On("ListAll").Return([]entity.Question{
		{ID: 7, Text: "q", Options: entity.StringArray{"a", "b"}, CorrectOption: 1, Tier: entity.TierEasy},
	}, nil)

	catalog, err := LoadCatalogFromRepo(repo)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())
	repo.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestLoadCatalogFromRepo_InvalidRow(t *testing.T) {
	repo := new(MockQuestionRepo)
	repo.On("Count").Return(int64(1), nil)
	repo.On("CountByTier", mock.Anything).Return(int64(1), nil)
	repo.On("ListAll").Return([]entity.Question{
		{ID: 7, Text: "q", Options: entity.StringArray{"a", "b"}, CorrectOption: 5, Tier: entity.TierEasy},
	}, nil)

	_, err := LoadCatalogFromRepo(repo)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "Неверный индекс ответа в БД должен отклоняться")
}
