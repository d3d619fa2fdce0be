package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
	"github.com/yourusername/learnquest-api/internal/service/quizsession"
)

type quizServiceFixture struct {
	svc          *QuizService
	campaigns    *MockCampaignRepository
	questions    *MockQuestionRepository
	participants *MockParticipantRepository
	responses    *MockResponseRepository
	users        *MockUserRepository
	cache        *fakeCache
}

func newQuizServiceFixture(t *testing.T) *quizServiceFixture {
	t.Helper()
	f := &quizServiceFixture{
		campaigns:    new(MockCampaignRepository),
		questions:    new(MockQuestionRepository),
		participants: new(MockParticipantRepository),
		responses:    new(MockResponseRepository),
		users:        new(MockUserRepository),
		cache:        newFakeCache(),
	}

	svc, err := NewQuizService(f.campaigns, f.questions, f.participants, f.responses, f.users, f.cache, 2, time.Hour)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func activeCampaign(id uint) *entity.Campaign {
	return &entity.Campaign{ID: id, Title: "Онбординг", IsActive: true}
}

func testCampaign(id uint, day, total int) *entity.Campaign {
	return &entity.Campaign{
		ID:             id,
		Title:          "Пилот",
		IsActive:       true,
		IsTestCampaign: true,
		CurrentTestDay: &day,
		TotalTestDays:  &total,
	}
}

func quizQuestion(id uint, points int) *entity.Question {
	return &entity.Question{
		ID:             id,
		CampaignID:     1,
		Type:           entity.QuestionTypeMultipleChoice,
		Text:           "Вопрос",
		Options:        entity.StringArray{"A", "B", "C"},
		CorrectAnswers: entity.IntArray{1},
		Points:         points,
	}
}

func TestQuizService_StartSession_TestCampaignExcludesClosedQuestions(t *testing.T) {
	f := newQuizServiceFixture(t)

	day := 0
	f.campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 0, 7), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByCampaignID", uint(1), &day).Return([]entity.Question{
		*quizQuestion(10, 5), *quizQuestion(11, 5), *quizQuestion(12, 5),
	}, nil)
	// 10 закрыт верным ответом, 11 - двумя неудачными попытками, 12 открыт
	f.responses.On("GetByUserAndCampaign", uint(5), uint(1)).Return([]entity.UserResponse{
		{QuestionID: 10, IsCorrect: true, PointsEarned: 5, AttemptNumber: 1},
		{QuestionID: 11, IsCorrect: false, AttemptNumber: 1},
		{QuestionID: 11, IsCorrect: false, AttemptNumber: 2},
		{QuestionID: 12, IsCorrect: false, AttemptNumber: 1},
	}, nil)
	f.responses.On("SumPoints", uint(5), uint(1)).Return(5, nil)
	f.questions.On("GetByID", uint(12)).Return(quizQuestion(12, 5), nil)

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.Equal(t, []uint{12}, result.Session.QuestionIDs, "закрытые вопросы дня не попадают в сессию")
	assert.Equal(t, 5, result.Session.TotalScore, "счет собирается из журнала")
	require.NotNil(t, result.Question)
	assert.Equal(t, uint(12), result.Question.ID)
	assert.False(t, result.CompletedToday)
}

func TestQuizService_StartSession_RegularCampaignReopensNextCalendarDay(t *testing.T) {
	f := newQuizServiceFixture(t)

	now := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByCampaignID", uint(1), (*int)(nil)).Return([]entity.Question{*quizQuestion(10, 5)}, nil)
	// Единственный вопрос решен вчера: со сменой даты он открывается заново
	f.responses.On("GetByUserAndCampaign", uint(5), uint(1)).Return([]entity.UserResponse{
		{QuestionID: 10, IsCorrect: true, PointsEarned: 5, AttemptNumber: 1, CreatedAt: now.Add(-20 * time.Hour)},
	}, nil)
	f.responses.On("SumPoints", uint(5), uint(1)).Return(5, nil)
	f.questions.On("GetByID", uint(10)).Return(quizQuestion(10, 5), nil)

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.Equal(t, []uint{10}, result.Session.QuestionIDs, "вчерашний ответ не закрывает вопрос навсегда")
	assert.False(t, result.CompletedToday)
	assert.Equal(t, 5, result.Session.TotalScore, "вчерашние очки остаются в счете")
}

func TestQuizService_StartSession_RegularCampaignCompletedToday(t *testing.T) {
	f := newQuizServiceFixture(t)

	now := time.Date(2025, 6, 16, 18, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByCampaignID", uint(1), (*int)(nil)).Return([]entity.Question{*quizQuestion(10, 5)}, nil)
	f.responses.On("GetByUserAndCampaign", uint(5), uint(1)).Return([]entity.UserResponse{
		{QuestionID: 10, IsCorrect: true, PointsEarned: 5, AttemptNumber: 1, CreatedAt: now.Add(-2 * time.Hour)},
	}, nil)
	f.responses.On("SumPoints", uint(5), uint(1)).Return(5, nil)

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.True(t, result.CompletedToday, "число сегодняшних ответов достигло числа вопросов")
	assert.Equal(t, quizsession.StateComplete, result.Session.State)
	assert.Nil(t, result.Question)
}

func TestQuizService_StartSession_RegularCampaignKeepsSameDayProgress(t *testing.T) {
	f := newQuizServiceFixture(t)

	now := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByCampaignID", uint(1), (*int)(nil)).Return([]entity.Question{
		*quizQuestion(10, 5), *quizQuestion(11, 5), *quizQuestion(12, 5),
	}, nil)
	// Сегодня закрыт только вопрос 10; ответов меньше, чем вопросов
	f.responses.On("GetByUserAndCampaign", uint(5), uint(1)).Return([]entity.UserResponse{
		{QuestionID: 10, IsCorrect: true, PointsEarned: 5, AttemptNumber: 1, CreatedAt: now.Add(-time.Hour)},
		{QuestionID: 12, IsCorrect: false, AttemptNumber: 1, CreatedAt: now.Add(-time.Hour)},
	}, nil)
	f.responses.On("SumPoints", uint(5), uint(1)).Return(5, nil)
	f.questions.On("GetByID", uint(11)).Return(quizQuestion(11, 5), nil)

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.Equal(t, []uint{11, 12}, result.Session.QuestionIDs, "сегодняшний прогресс сохраняется при пересборке")
	assert.False(t, result.CompletedToday)
}

func TestQuizService_StartSession_NotParticipant(t *testing.T) {
	f := newQuizServiceFixture(t)

	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(false, nil)

	_, err := f.svc.StartSession(5, 1)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestQuizService_StartSession_InactiveCampaign(t *testing.T) {
	f := newQuizServiceFixture(t)

	campaign := activeCampaign(1)
	campaign.IsActive = false
	f.campaigns.On("GetByID", uint(1)).Return(campaign, nil)

	_, err := f.svc.StartSession(5, 1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuizService_StartSession_CompletedToday(t *testing.T) {
	f := newQuizServiceFixture(t)

	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	day := 0
	f.campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 0, 7), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByCampaignID", uint(1), &day).Return([]entity.Question{*quizQuestion(10, 5)}, nil)
	f.responses.On("GetByUserAndCampaign", uint(5), uint(1)).Return([]entity.UserResponse{
		{QuestionID: 10, IsCorrect: true, PointsEarned: 5, AttemptNumber: 1, CreatedAt: now.Add(-2 * time.Hour)},
	}, nil)
	f.responses.On("SumPoints", uint(5), uint(1)).Return(5, nil)

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.True(t, result.CompletedToday, "день закрыт сегодня - повторного набора нет")
	assert.Equal(t, quizsession.StateComplete, result.Session.State)
	assert.Nil(t, result.Question)
}

func TestQuizService_StartSession_ClosedYesterdayIsNotCompletedToday(t *testing.T) {
	f := newQuizServiceFixture(t)

	now := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	day := 0
	f.campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 0, 7), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByCampaignID", uint(1), &day).Return([]entity.Question{*quizQuestion(10, 5)}, nil)
	f.responses.On("GetByUserAndCampaign", uint(5), uint(1)).Return([]entity.UserResponse{
		{QuestionID: 10, IsCorrect: true, PointsEarned: 5, AttemptNumber: 1, CreatedAt: now.Add(-20 * time.Hour)},
	}, nil)
	f.responses.On("SumPoints", uint(5), uint(1)).Return(5, nil)

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.False(t, result.CompletedToday, "вчерашнее закрытие не блокирует сегодняшний заход")
}

func TestQuizService_StartSession_ResumesLiveSession(t *testing.T) {
	f := newQuizServiceFixture(t)

	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByID", uint(10)).Return(quizQuestion(10, 5), nil)

	live := quizsession.New(5, 1, []uint{10, 11}, nil, 3)
	require.NoError(t, f.svc.saveSession(live))

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.Equal(t, live.ID, result.Session.ID, "живая сессия возобновляется, а не пересобирается")
	f.responses.AssertNotCalled(t, "GetByUserAndCampaign")
}

func TestQuizService_StartSession_RebuildsWhenTestDayShifted(t *testing.T) {
	f := newQuizServiceFixture(t)

	day := 2
	f.campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 2, 7), nil)
	f.participants.On("IsParticipant", uint(5), uint(1)).Return(true, nil)
	f.questions.On("GetByCampaignID", uint(1), &day).Return([]entity.Question{*quizQuestion(30, 5)}, nil)
	f.responses.On("GetByUserAndCampaign", uint(5), uint(1)).Return([]entity.UserResponse{}, nil)
	f.responses.On("SumPoints", uint(5), uint(1)).Return(0, nil)
	f.questions.On("GetByID", uint(30)).Return(quizQuestion(30, 5), nil)

	// Сессия собрана под день 1; глобальный день уже 2
	staleDay := 1
	stale := quizsession.New(5, 1, []uint{20}, &staleDay, 0)
	require.NoError(t, f.svc.saveSession(stale))

	result, err := f.svc.StartSession(5, 1)

	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, result.Session.ID, "смещение дня пересобирает сессию")
	assert.Equal(t, []uint{30}, result.Session.QuestionIDs)
}

func TestQuizService_Submit_LedgerFailureLeavesSessionUntouched(t *testing.T) {
	f := newQuizServiceFixture(t)

	question := quizQuestion(10, 5)
	f.questions.On("GetByID", uint(10)).Return(question, nil)
	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	f.responses.On("Create", mock.AnythingOfType("*entity.UserResponse")).Return(errors.New("ledger unavailable"))

	session := quizsession.New(5, 1, []uint{10}, nil, 0)
	require.NoError(t, session.Select(question, 1))
	require.NoError(t, f.svc.saveSession(session))

	_, err := f.svc.Submit(5, 1)
	require.Error(t, err)

	// Сессия в кеше не изменилась: отправку можно повторить
	saved := f.svc.loadSession(5, 1)
	require.NotNil(t, saved)
	assert.Equal(t, quizsession.StateAwaitingSubmission, saved.State)
	assert.Equal(t, []int{1}, saved.Selected)
	assert.Zero(t, saved.Attempts)
}

func TestQuizService_Submit_CorrectAnswerRecordsPoints(t *testing.T) {
	f := newQuizServiceFixture(t)

	question := quizQuestion(10, 5)
	f.questions.On("GetByID", uint(10)).Return(question, nil)
	f.questions.On("GetByID", uint(11)).Return(quizQuestion(11, 3), nil)
	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)

	var recorded *entity.UserResponse
	f.responses.On("Create", mock.AnythingOfType("*entity.UserResponse")).Run(func(args mock.Arguments) {
		recorded = args.Get(0).(*entity.UserResponse)
	}).Return(nil)
	f.participants.On("UpdateProgress", uint(5), uint(1), 5, mock.Anything, (*int)(nil)).Return(nil)

	session := quizsession.New(5, 1, []uint{10, 11}, nil, 0)
	require.NoError(t, session.Select(question, 1))
	require.NoError(t, f.svc.saveSession(session))

	result, err := f.svc.Submit(5, 1)

	require.NoError(t, err)
	assert.True(t, result.Outcome.IsCorrect)
	assert.Equal(t, 5, result.Outcome.PointsEarned)
	require.NotNil(t, result.NextQuestion)
	assert.Equal(t, uint(11), result.NextQuestion.ID)

	require.NotNil(t, recorded)
	assert.Equal(t, entity.IntArray{1}, recorded.SelectedAnswers)
	assert.True(t, recorded.IsCorrect)
	assert.Equal(t, 5, recorded.PointsEarned)
	assert.Equal(t, 1, recorded.AttemptNumber)
}

func TestQuizService_Submit_RetryThenQuestionLocked(t *testing.T) {
	f := newQuizServiceFixture(t)

	question := quizQuestion(10, 5)
	f.questions.On("GetByID", uint(10)).Return(question, nil)
	f.campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	f.responses.On("Create", mock.AnythingOfType("*entity.UserResponse")).Return(nil)
	f.participants.On("UpdateProgress", uint(5), uint(1), 0, mock.Anything, (*int)(nil)).Return(nil)
	f.users.On("GetByID", uint(5)).Return(&entity.User{ID: 5, Role: entity.RoleLearner}, nil)

	session := quizsession.New(5, 1, []uint{10}, nil, 0)
	require.NoError(t, session.Select(question, 0))
	require.NoError(t, f.svc.saveSession(session))

	// Первая неудача дает повтор
	result, err := f.svc.Submit(5, 1)
	require.NoError(t, err)
	assert.True(t, result.Outcome.WillRetry)
	assert.Equal(t, 1, result.Outcome.AttemptNumber)

	// Вторая неудача закрывает вопрос и сессию без очков
	_, err = f.svc.Select(5, 1, 2)
	require.NoError(t, err)
	result, err = f.svc.Submit(5, 1)
	require.NoError(t, err)
	assert.False(t, result.Outcome.WillRetry)
	assert.Equal(t, 2, result.Outcome.AttemptNumber)
	assert.True(t, result.Outcome.SessionComplete)
	assert.Zero(t, result.Session.TotalScore)

	// Дальнейшая отправка отвергается
	_, err = f.svc.Submit(5, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	f.responses.AssertNumberOfCalls(t, "Create", 2)
}

func TestQuizService_Submit_EmptySelection(t *testing.T) {
	f := newQuizServiceFixture(t)

	f.questions.On("GetByID", uint(10)).Return(quizQuestion(10, 5), nil)

	session := quizsession.New(5, 1, []uint{10}, nil, 0)
	require.NoError(t, f.svc.saveSession(session))

	_, err := f.svc.Submit(5, 1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	f.responses.AssertNotCalled(t, "Create")
}

func TestQuizService_Submit_AdminCompletionAdvancesTestDay(t *testing.T) {
	f := newQuizServiceFixture(t)

	question := quizQuestion(10, 5)
	day := 2
	f.questions.On("GetByID", uint(10)).Return(question, nil)
	f.campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 2, 7), nil)
	f.responses.On("Create", mock.AnythingOfType("*entity.UserResponse")).Return(nil)
	f.participants.On("UpdateProgress", uint(5), uint(1), 5, mock.Anything, &day).Return(nil)
	f.users.On("GetByID", uint(5)).Return(&entity.User{ID: 5, Role: entity.RoleAdmin}, nil)
	f.campaigns.On("AdvanceTestDay", uint(1)).Return(testCampaign(1, 3, 7), nil)

	sessionDay := 2
	session := quizsession.New(5, 1, []uint{10}, &sessionDay, 0)
	require.NoError(t, session.Select(question, 1))
	require.NoError(t, f.svc.saveSession(session))

	result, err := f.svc.Submit(5, 1)

	require.NoError(t, err)
	assert.True(t, result.Outcome.SessionComplete)
	assert.True(t, result.DayAdvanced)
	assert.False(t, result.FinalDayReached)
	f.campaigns.AssertCalled(t, "AdvanceTestDay", uint(1))
}

func TestQuizService_Submit_FinalDayBlocksAdvance(t *testing.T) {
	f := newQuizServiceFixture(t)

	question := quizQuestion(10, 5)
	day := 6
	f.questions.On("GetByID", uint(10)).Return(question, nil)
	f.campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 6, 7), nil)
	f.responses.On("Create", mock.AnythingOfType("*entity.UserResponse")).Return(nil)
	f.participants.On("UpdateProgress", uint(5), uint(1), 5, mock.Anything, &day).Return(nil)
	f.users.On("GetByID", uint(5)).Return(&entity.User{ID: 5, Role: entity.RoleAdmin}, nil)
	f.campaigns.On("AdvanceTestDay", uint(1)).Return(nil, apperrors.ErrConflict)

	sessionDay := 6
	session := quizsession.New(5, 1, []uint{10}, &sessionDay, 0)
	require.NoError(t, session.Select(question, 1))
	require.NoError(t, f.svc.saveSession(session))

	result, err := f.svc.Submit(5, 1)

	require.NoError(t, err, "упор в последний день - не ошибка отправки")
	assert.False(t, result.DayAdvanced)
	assert.True(t, result.FinalDayReached)
}

func TestQuizService_Submit_LearnerCompletionDoesNotAdvanceDay(t *testing.T) {
	f := newQuizServiceFixture(t)

	question := quizQuestion(10, 5)
	day := 2
	f.questions.On("GetByID", uint(10)).Return(question, nil)
	f.campaigns.On("GetByID", uint(1)).Return(testCampaign(1, 2, 7), nil)
	f.responses.On("Create", mock.AnythingOfType("*entity.UserResponse")).Return(nil)
	f.participants.On("UpdateProgress", uint(5), uint(1), 5, mock.Anything, &day).Return(nil)
	f.users.On("GetByID", uint(5)).Return(&entity.User{ID: 5, Role: entity.RoleLearner}, nil)

	sessionDay := 2
	session := quizsession.New(5, 1, []uint{10}, &sessionDay, 0)
	require.NoError(t, session.Select(question, 1))
	require.NoError(t, f.svc.saveSession(session))

	result, err := f.svc.Submit(5, 1)

	require.NoError(t, err)
	assert.False(t, result.DayAdvanced)
	assert.False(t, result.FinalDayReached)
	f.campaigns.AssertNotCalled(t, "AdvanceTestDay")
}

func TestQuizService_Select_PersistsSession(t *testing.T) {
	f := newQuizServiceFixture(t)

	f.questions.On("GetByID", uint(10)).Return(quizQuestion(10, 5), nil)

	session := quizsession.New(5, 1, []uint{10}, nil, 0)
	require.NoError(t, f.svc.saveSession(session))

	updated, err := f.svc.Select(5, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, updated.Selected)

	saved := f.svc.loadSession(5, 1)
	require.NotNil(t, saved)
	assert.Equal(t, []int{1}, saved.Selected, "выбор должен пережить перезагрузку из кеша")
}

func TestQuizService_Select_NoSession(t *testing.T) {
	f := newQuizServiceFixture(t)

	_, err := f.svc.Select(5, 1, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuizService_AbandonSession(t *testing.T) {
	f := newQuizServiceFixture(t)

	session := quizsession.New(5, 1, []uint{10}, nil, 0)
	require.NoError(t, f.svc.saveSession(session))

	require.NoError(t, f.svc.AbandonSession(5, 1))
	assert.Nil(t, f.svc.loadSession(5, 1))
}
