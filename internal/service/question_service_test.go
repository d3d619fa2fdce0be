package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

func newQuestionServiceForTest(t *testing.T) (*QuestionService, *MockQuestionRepository, *MockCampaignRepository) {
	t.Helper()
	questions := new(MockQuestionRepository)
	campaigns := new(MockCampaignRepository)

	svc, err := NewQuestionService(questions, campaigns)
	require.NoError(t, err)
	return svc, questions, campaigns
}

func validQuestion(campaignID uint) *entity.Question {
	return &entity.Question{
		CampaignID:     campaignID,
		Type:           entity.QuestionTypeMultipleChoice,
		Text:           "Какой протокол используется?",
		Options:        entity.StringArray{"HTTP", "FTP", "SMTP"},
		CorrectAnswers: entity.IntArray{0},
		Points:         5,
	}
}

func TestQuestionService_CreateQuestion_FirstQuestionSetsFlag(t *testing.T) {
	svc, questions, campaigns := newQuestionServiceForTest(t)

	campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	questions.On("Create", mock.AnythingOfType("*entity.Question")).Return(nil)
	campaigns.On("SetHasQuestions", uint(1), true).Return(nil)

	_, err := svc.CreateQuestion(validQuestion(1))

	require.NoError(t, err)
	campaigns.AssertCalled(t, "SetHasQuestions", uint(1), true)
}

func TestQuestionService_CreateQuestion_TestCampaignRequiresDay(t *testing.T) {
	svc, questions, campaigns := newQuestionServiceForTest(t)

	campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 0, 7), nil)

	_, err := svc.CreateQuestion(validQuestion(1))

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	questions.AssertNotCalled(t, "Create")
}

func TestQuestionService_CreateQuestion_DayOutOfBounds(t *testing.T) {
	svc, questions, campaigns := newQuestionServiceForTest(t)

	campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 0, 7), nil)

	day := 7
	q := validQuestion(1)
	q.DayNumber = &day

	_, err := svc.CreateQuestion(q)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	questions.AssertNotCalled(t, "Create")
}

func TestQuestionService_CreateQuestion_RegularCampaignDropsDay(t *testing.T) {
	svc, questions, campaigns := newQuestionServiceForTest(t)

	existing := activeCampaign(1)
	existing.HasQuestions = true
	campaigns.On("GetByID", uint(1)).Return(existing, nil)
	questions.On("Create", mock.AnythingOfType("*entity.Question")).Return(nil)

	day := 3
	q := validQuestion(1)
	q.DayNumber = &day

	created, err := svc.CreateQuestion(q)

	require.NoError(t, err)
	assert.Nil(t, created.DayNumber, "день имеет смысл только в тестовой кампании")
	campaigns.AssertNotCalled(t, "SetHasQuestions")
}

func TestQuestionService_ListQuestions_TestCampaignScopedToCurrentDay(t *testing.T) {
	svc, questions, campaigns := newQuestionServiceForTest(t)

	day := 2
	campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 2, 7), nil)
	questions.On("GetByCampaignID", uint(1), &day).Return([]entity.Question{}, nil)

	_, err := svc.ListQuestions(1, false)

	require.NoError(t, err)
	questions.AssertCalled(t, "GetByCampaignID", uint(1), &day)
}

func TestQuestionService_ListQuestions_AdminSeesAllDays(t *testing.T) {
	svc, questions, campaigns := newQuestionServiceForTest(t)

	campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 2, 7), nil)
	questions.On("GetByCampaignID", uint(1), (*int)(nil)).Return([]entity.Question{}, nil)

	_, err := svc.ListQuestions(1, true)

	require.NoError(t, err)
	questions.AssertCalled(t, "GetByCampaignID", uint(1), (*int)(nil))
}

func TestQuestionService_UpdateQuestion_ValidatesPreview(t *testing.T) {
	svc, questions, _ := newQuestionServiceForTest(t)

	questions.On("GetByID", uint(10)).Return(validQuestion(1), nil)

	// Патч делает вопрос невалидным: индекс ответа вне вариантов
	bad := entity.IntArray{5}
	_, err := svc.UpdateQuestion(10, &repository.QuestionPatch{CorrectAnswers: &bad})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	questions.AssertNotCalled(t, "ApplyPatch")
}

func TestQuestionService_DeleteQuestion_LastQuestionClearsFlag(t *testing.T) {
	svc, questions, campaigns := newQuestionServiceForTest(t)

	q := validQuestion(1)
	q.ID = 10
	questions.On("GetByID", uint(10)).Return(q, nil)
	questions.On("Delete", uint(10)).Return(nil)
	questions.On("CountByCampaignID", uint(1), (*int)(nil)).Return(int64(0), nil)
	campaigns.On("SetHasQuestions", uint(1), false).Return(nil)

	err := svc.DeleteQuestion(10)

	require.NoError(t, err)
	campaigns.AssertCalled(t, "SetHasQuestions", uint(1), false)
}
