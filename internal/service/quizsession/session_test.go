package quizsession

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

func radioQuestion(points int) *entity.Question {
	return &entity.Question{
		ID:             10,
		Type:           entity.QuestionTypeMultipleChoice,
		Options:        entity.StringArray{"A", "B", "C"},
		CorrectAnswers: entity.IntArray{1},
		Points:         points,
	}
}

func checkboxQuestion(points int) *entity.Question {
	return &entity.Question{
		ID:             20,
		Type:           entity.QuestionTypeSelectAll,
		Options:        entity.StringArray{"A", "B", "C", "D"},
		CorrectAnswers: entity.IntArray{0, 2},
		Points:         points,
	}
}

func TestNew_EmptyQuestionSetIsComplete(t *testing.T) {
	s := New(1, 2, nil, nil, 0)

	assert.Equal(t, StateComplete, s.State)
	_, ok := s.CurrentQuestionID()
	assert.False(t, ok, "у завершенной сессии нет текущего вопроса")
}

func TestSession_Select_RadioReplacesSelection(t *testing.T) {
	s := New(1, 2, []uint{10}, nil, 0)
	q := radioQuestion(5)

	require.NoError(t, s.Select(q, 0))
	require.NoError(t, s.Select(q, 2))

	assert.Equal(t, []int{2}, s.Selected, "radio-выбор должен замещать предыдущий")
	assert.Equal(t, StateAwaitingSubmission, s.State)
}

func TestSession_Select_CheckboxTogglesMembership(t *testing.T) {
	s := New(1, 2, []uint{20}, nil, 0)
	q := checkboxQuestion(5)

	require.NoError(t, s.Select(q, 0))
	require.NoError(t, s.Select(q, 2))
	assert.ElementsMatch(t, []int{0, 2}, s.Selected)

	// Повторный выбор снимает отметку
	require.NoError(t, s.Select(q, 0))
	assert.Equal(t, []int{2}, s.Selected)

	// Снятие последней отметки возвращает ожидание выбора
	require.NoError(t, s.Select(q, 2))
	assert.Empty(t, s.Selected)
	assert.Equal(t, StateAwaitingSelection, s.State)
}

func TestSession_Select_InvalidOption(t *testing.T) {
	s := New(1, 2, []uint{10}, nil, 0)
	q := radioQuestion(5)

	err := s.Select(q, 3)
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Empty(t, s.Selected)
}

func TestSession_Grade_EmptySelection(t *testing.T) {
	s := New(1, 2, []uint{10}, nil, 0)

	_, _, err := s.Grade(radioQuestion(5))
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestSession_CorrectAnswerAdvances(t *testing.T) {
	s := New(1, 2, []uint{10, 20}, nil, 7)
	q := radioQuestion(5)

	require.NoError(t, s.Select(q, 1))
	isCorrect, attempt, err := s.Grade(q)
	require.NoError(t, err)
	assert.True(t, isCorrect)
	assert.Equal(t, 1, attempt)

	outcome := s.Resolve(q, isCorrect, DefaultMaxAttempts)
	assert.True(t, outcome.Advanced)
	assert.False(t, outcome.WillRetry)
	assert.False(t, outcome.SessionComplete)
	assert.Equal(t, 5, outcome.PointsEarned)

	assert.Equal(t, 12, s.TotalScore, "очки добавляются к счету из журнала")
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, StateAwaitingSelection, s.State)
	assert.Empty(t, s.Selected)
	assert.Zero(t, s.Attempts, "счетчик попыток сбрасывается на новом вопросе")
}

func TestSession_IncorrectFirstAttemptRetries(t *testing.T) {
	s := New(1, 2, []uint{10}, nil, 0)
	q := radioQuestion(5)

	require.NoError(t, s.Select(q, 0))
	isCorrect, attempt, err := s.Grade(q)
	require.NoError(t, err)
	assert.False(t, isCorrect)
	assert.Equal(t, 1, attempt)

	outcome := s.Resolve(q, isCorrect, DefaultMaxAttempts)
	assert.True(t, outcome.WillRetry, "первая неудача дает повтор")
	assert.False(t, outcome.Advanced)
	assert.Zero(t, outcome.PointsEarned)

	// Выбор сброшен, вопрос остался текущим
	assert.Empty(t, s.Selected)
	assert.Equal(t, StateAwaitingSelection, s.State)
	qid, ok := s.CurrentQuestionID()
	require.True(t, ok)
	assert.Equal(t, uint(10), qid)
}

func TestSession_SecondFailureClosesQuestion(t *testing.T) {
	s := New(1, 2, []uint{10, 20}, nil, 0)
	q := radioQuestion(5)

	require.NoError(t, s.Select(q, 0))
	s.Resolve(q, false, DefaultMaxAttempts)

	require.NoError(t, s.Select(q, 2))
	isCorrect, attempt, err := s.Grade(q)
	require.NoError(t, err)
	assert.False(t, isCorrect)
	assert.Equal(t, 2, attempt)

	outcome := s.Resolve(q, isCorrect, DefaultMaxAttempts)
	assert.False(t, outcome.WillRetry, "повтор был единственным")
	assert.True(t, outcome.Advanced)
	assert.Zero(t, s.TotalScore)
	assert.Contains(t, s.AnsweredQuestions, uint(10))
}

func TestSession_LastQuestionCompletesSession(t *testing.T) {
	s := New(1, 2, []uint{10}, nil, 0)
	q := radioQuestion(5)

	require.NoError(t, s.Select(q, 1))
	outcome := s.Resolve(q, true, DefaultMaxAttempts)

	assert.True(t, outcome.SessionComplete)
	assert.Equal(t, StateComplete, s.State)

	// Завершенная сессия отвергает дальнейшие действия
	assert.ErrorIs(t, s.Select(q, 0), ErrSessionComplete)
	_, _, err := s.Grade(q)
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestSession_SelectionLockedAfterGrade(t *testing.T) {
	s := New(1, 2, []uint{10, 20}, nil, 0)
	q := radioQuestion(5)

	require.NoError(t, s.Select(q, 1))
	// Оцениваем вручную, не применяя Resolve: состояние graded_*
	s.State = StateGradedCorrect

	assert.ErrorIs(t, s.Select(q, 0), ErrSelectionLocked)
	_, _, err := s.Grade(q)
	assert.ErrorIs(t, err, ErrSelectionLocked)
}
