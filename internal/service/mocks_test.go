package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// ============================================================================
// Общие моки для тестов сервисов
// ============================================================================

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetAll() ([]entity.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) ApplyPatch(id uint, patch *repository.UserPatch) error {
	args := m.Called(id, patch)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockIdentityProvider реализует repository.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) CreateIdentity(email, password, displayName string) (uint, error) {
	args := m.Called(email, password, displayName)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockIdentityProvider) UpdateIdentity(id uint, update repository.IdentityUpdate) error {
	args := m.Called(id, update)
	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteIdentity(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockIdentityProvider) SetRole(id uint, role string) error {
	args := m.Called(id, role)
	return args.Error(0)
}

func (m *MockIdentityProvider) GetIdentity(id uint) (*entity.UserIdentity, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserIdentity), args.Error(1)
}

func (m *MockIdentityProvider) Authenticate(email, password string) (*entity.UserIdentity, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserIdentity), args.Error(1)
}

// MockCampaignRepository реализует repository.CampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(campaign *entity.Campaign) error {
	args := m.Called(campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetByID(id uint) (*entity.Campaign, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) List() ([]entity.Campaign, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) ApplyPatch(id uint, patch *repository.CampaignPatch) error {
	args := m.Called(id, patch)
	return args.Error(0)
}

func (m *MockCampaignRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCampaignRepository) SetHasQuestions(id uint, has bool) error {
	args := m.Called(id, has)
	return args.Error(0)
}

func (m *MockCampaignRepository) AdvanceTestDay(id uint) (*entity.Campaign, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) SetTestDay(id uint, day int) (*entity.Campaign, error) {
	args := m.Called(id, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) TouchMaterialsVerified(id uint, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByCampaignID(campaignID uint, dayNumber *int) ([]entity.Question, error) {
	args := m.Called(campaignID, dayNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) CountByCampaignID(campaignID uint, dayNumber *int) (int64, error) {
	args := m.Called(campaignID, dayNumber)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) ApplyPatch(id uint, patch *repository.QuestionPatch) error {
	args := m.Called(id, patch)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockParticipantRepository реализует repository.ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Join(participant *entity.CampaignParticipant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) IsParticipant(userID, campaignID uint) (bool, error) {
	args := m.Called(userID, campaignID)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepository) GetByUserAndCampaign(userID, campaignID uint) (*entity.CampaignParticipant, error) {
	args := m.Called(userID, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CampaignParticipant), args.Error(1)
}

func (m *MockParticipantRepository) CountByCampaign(campaignID uint) (int64, error) {
	args := m.Called(campaignID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepository) UpdateProgress(userID, campaignID uint, score int, completedQuestions entity.IntArray, currentTestDay *int) error {
	args := m.Called(userID, campaignID, score, completedQuestions, currentTestDay)
	return args.Error(0)
}

// MockResponseRepository реализует repository.ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Create(response *entity.UserResponse) error {
	args := m.Called(response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetByUserAndCampaign(userID, campaignID uint) ([]entity.UserResponse, error) {
	args := m.Called(userID, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserResponse), args.Error(1)
}

func (m *MockResponseRepository) GetByCampaign(campaignID uint) ([]entity.UserResponse, error) {
	args := m.Called(campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserResponse), args.Error(1)
}

func (m *MockResponseRepository) GetAll() ([]entity.UserResponse, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserResponse), args.Error(1)
}

func (m *MockResponseRepository) SumPoints(userID, campaignID uint) (int, error) {
	args := m.Called(userID, campaignID)
	return args.Int(0), args.Error(1)
}

func (m *MockResponseRepository) CountAttempts(userID, questionID uint) (int64, error) {
	args := m.Called(userID, questionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMaterialsLogRepository реализует repository.MaterialsLogRepository
type MockMaterialsLogRepository struct {
	mock.Mock
}

func (m *MockMaterialsLogRepository) Create(entry *entity.MaterialsLog) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *MockMaterialsLogRepository) GetByCampaign(campaignID uint) ([]entity.MaterialsLog, error) {
	args := m.Called(campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MaterialsLog), args.Error(1)
}

// fakeCache - потокобезопасный кеш в памяти для тестов квиз-сессий.
// Реализует repository.CacheRepository без Redis.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Set(key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.(string)
	return nil
}

func (c *fakeCache) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (c *fakeCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Increment(key string) (int64, error) {
	return 1, nil
}

func (c *fakeCache) Expire(key string, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) SetJSON(key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = string(b)
	return nil
}

func (c *fakeCache) GetJSON(key string, dest interface{}) error {
	c.mu.Lock()
	v, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal([]byte(v), dest)
}

// mockBroadcaster фиксирует разосланные события
type mockBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *mockBroadcaster) Broadcast(eventType string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func (b *mockBroadcaster) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

// mockEmailService фиксирует отправленные уведомления
type mockEmailService struct {
	mu             sync.Mutex
	accountCreated []string
	passwordsReset []string
}

func (s *mockEmailService) SendAccountCreated(ctx context.Context, toEmail, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountCreated = append(s.accountCreated, toEmail)
	return nil
}

func (s *mockEmailService) SendPasswordReset(ctx context.Context, toEmail, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordsReset = append(s.passwordsReset, toEmail)
	return nil
}
