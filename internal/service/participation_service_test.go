package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

func newParticipationServiceForTest(t *testing.T) (*ParticipationService, *MockParticipantRepository, *MockCampaignRepository) {
	t.Helper()
	participants := new(MockParticipantRepository)
	campaigns := new(MockCampaignRepository)

	svc, err := NewParticipationService(participants, campaigns)
	require.NoError(t, err)
	return svc, participants, campaigns
}

func TestParticipationService_Join_Success(t *testing.T) {
	svc, participants, campaigns := newParticipationServiceForTest(t)

	campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	participants.On("Join", mock.AnythingOfType("*entity.CampaignParticipant")).Return(nil)

	p, err := svc.Join(5, 1)

	require.NoError(t, err)
	assert.Equal(t, uint(5), p.UserID)
	assert.Equal(t, uint(1), p.CampaignID)
	assert.False(t, p.JoinedAt.IsZero())
}

func TestParticipationService_Join_InactiveCampaign(t *testing.T) {
	svc, participants, campaigns := newParticipationServiceForTest(t)

	ended := activeCampaign(1)
	past := time.Now().Add(-24 * time.Hour)
	ended.EndDate = &past
	campaigns.On("GetByID", uint(1)).Return(ended, nil)

	_, err := svc.Join(5, 1)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	participants.AssertNotCalled(t, "Join")
}

func TestParticipationService_Join_LimitReached(t *testing.T) {
	svc, participants, campaigns := newParticipationServiceForTest(t)

	limit := 50
	limited := activeCampaign(1)
	limited.ParticipantLimit = &limit
	campaigns.On("GetByID", uint(1)).Return(limited, nil)
	participants.On("CountByCampaign", uint(1)).Return(int64(50), nil)

	_, err := svc.Join(5, 1)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	participants.AssertNotCalled(t, "Join")
}

func TestParticipationService_Join_Duplicate(t *testing.T) {
	svc, participants, campaigns := newParticipationServiceForTest(t)

	campaigns.On("GetByID", uint(1)).Return(activeCampaign(1), nil)
	// Уникальный индекс (user, campaign) отсекает повторную вставку
	participants.On("Join", mock.AnythingOfType("*entity.CampaignParticipant")).Return(apperrors.ErrAlreadyExists)

	_, err := svc.Join(5, 1)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestParticipationService_Join_CampaignNotFound(t *testing.T) {
	svc, _, campaigns := newParticipationServiceForTest(t)

	campaigns.On("GetByID", uint(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.Join(5, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
