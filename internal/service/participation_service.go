package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// ParticipationService управляет журналом участия в кампаниях
type ParticipationService struct {
	participantRepo repository.ParticipantRepository
	campaignRepo    repository.CampaignRepository
}

// NewParticipationService создает новый сервис участия
func NewParticipationService(
	participantRepo repository.ParticipantRepository,
	campaignRepo repository.CampaignRepository,
) (*ParticipationService, error) {
	if participantRepo == nil {
		return nil, fmt.Errorf("ParticipantRepository is required for ParticipationService")
	}
	if campaignRepo == nil {
		return nil, fmt.Errorf("CampaignRepository is required for ParticipationService")
	}

	return &ParticipationService{
		participantRepo: participantRepo,
		campaignRepo:    campaignRepo,
	}, nil
}

// Join записывает пользователя в кампанию. Кампания должна быть
// эффективно активной; лимит участников проверяется до вставки, а
// дубликат пары (user, campaign) отсекается уникальным индексом, так что
// повторная вставка возвращает ErrAlreadyExists.
func (s *ParticipationService) Join(userID, campaignID uint) (*entity.CampaignParticipant, error) {
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.EffectiveActive(time.Now()) {
		return nil, fmt.Errorf("%w: campaign is not active", apperrors.ErrValidation)
	}

	if campaign.ParticipantLimit != nil {
		count, err := s.participantRepo.CountByCampaign(campaignID)
		if err != nil {
			return nil, err
		}
		if count >= int64(*campaign.ParticipantLimit) {
			return nil, fmt.Errorf("%w: participant limit reached", apperrors.ErrConflict)
		}
	}

	participant := &entity.CampaignParticipant{
		UserID:     userID,
		CampaignID: campaignID,
		JoinedAt:   time.Now(),
	}
	if err := s.participantRepo.Join(participant); err != nil {
		return nil, err
	}

	log.Printf("[ParticipationService] Пользователь %d вступил в кампанию %d", userID, campaignID)
	return participant, nil
}

// GetParticipation возвращает запись участия пользователя в кампании
func (s *ParticipationService) GetParticipation(userID, campaignID uint) (*entity.CampaignParticipant, error) {
	return s.participantRepo.GetByUserAndCampaign(userID, campaignID)
}

// IsParticipant сообщает, вступил ли пользователь в кампанию
func (s *ParticipationService) IsParticipant(userID, campaignID uint) (bool, error) {
	return s.participantRepo.IsParticipant(userID, campaignID)
}
