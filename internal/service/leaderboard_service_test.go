package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

func newLeaderboardServiceForTest(t *testing.T) (*LeaderboardService, *MockResponseRepository, *MockUserRepository, *fakeCache) {
	t.Helper()
	responses := new(MockResponseRepository)
	users := new(MockUserRepository)
	cache := newFakeCache()

	svc, err := NewLeaderboardService(responses, users, cache)
	require.NoError(t, err)
	return svc, responses, users, cache
}

func TestLeaderboardService_RankingAndTies(t *testing.T) {
	svc, responses, users, _ := newLeaderboardServiceForTest(t)

	users.On("GetAll").Return([]entity.User{
		{ID: 1, FirstName: "Анна", LastName: "Смирнова", Department: "Culture Team"},
		{ID: 2, FirstName: "Иван", LastName: "Петров", Department: "Right2Drive"},
		{ID: 3, FirstName: "Мария", LastName: "Козлова", Department: "Culture Team"},
	}, nil)
	// Пользователь 2 появляется в журнале раньше пользователя 3 и при
	// равном счете должен стоять выше
	responses.On("GetAll").Return([]entity.UserResponse{
		{UserID: 2, PointsEarned: 5},
		{UserID: 1, PointsEarned: 5},
		{UserID: 3, PointsEarned: 5},
		{UserID: 1, PointsEarned: 5},
		{UserID: 2, PointsEarned: 0},
	}, nil)

	entries, err := svc.GetLeaderboard()

	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, uint(1), entries[0].UserID)
	assert.Equal(t, 10, entries[0].TotalScore)
	assert.Equal(t, "Анна Смирнова", entries[0].Name)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, uint(2), entries[1].UserID, "при равном счете порядок первого появления в журнале")
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, uint(3), entries[2].UserID)
}

func TestLeaderboardService_DropsUnknownUsers(t *testing.T) {
	svc, responses, users, _ := newLeaderboardServiceForTest(t)

	users.On("GetAll").Return([]entity.User{
		{ID: 1, FirstName: "Анна", LastName: "Смирнова"},
	}, nil)
	// Профиль пользователя 77 удален; его записи журнала отбрасываются
	responses.On("GetAll").Return([]entity.UserResponse{
		{UserID: 77, PointsEarned: 100},
		{UserID: 1, PointsEarned: 5},
	}, nil)

	entries, err := svc.GetLeaderboard()

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(1), entries[0].UserID)
	assert.Equal(t, 5, entries[0].TotalScore)
}

func TestLeaderboardService_CacheHitSkipsFold(t *testing.T) {
	svc, responses, users, _ := newLeaderboardServiceForTest(t)

	users.On("GetAll").Return([]entity.User{
		{ID: 1, FirstName: "Анна", LastName: "Смирнова"},
	}, nil).Once()
	responses.On("GetAll").Return([]entity.UserResponse{
		{UserID: 1, PointsEarned: 5},
	}, nil).Once()

	first, err := svc.GetLeaderboard()
	require.NoError(t, err)

	// Второй вызов обслуживается из кеша
	second, err := svc.GetLeaderboard()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	responses.AssertNumberOfCalls(t, "GetAll", 1)
}

func TestLeaderboardService_InvalidateForcesRebuild(t *testing.T) {
	svc, responses, users, _ := newLeaderboardServiceForTest(t)

	users.On("GetAll").Return([]entity.User{
		{ID: 1, FirstName: "Анна", LastName: "Смирнова"},
	}, nil)
	responses.On("GetAll").Return([]entity.UserResponse{
		{UserID: 1, PointsEarned: 5},
	}, nil)

	_, err := svc.GetLeaderboard()
	require.NoError(t, err)

	svc.Invalidate()

	_, err = svc.GetLeaderboard()
	require.NoError(t, err)
	responses.AssertNumberOfCalls(t, "GetAll", 2)
}

func TestLeaderboardService_EmptyLedger(t *testing.T) {
	svc, responses, users, _ := newLeaderboardServiceForTest(t)

	users.On("GetAll").Return([]entity.User{}, nil)
	responses.On("GetAll").Return([]entity.UserResponse{}, nil)

	entries, err := svc.GetLeaderboard()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
