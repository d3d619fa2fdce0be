package repository

import (
	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// ParticipantRepository определяет методы для работы с журналом участия
type ParticipantRepository interface {
	// Join вставляет запись участия атомарно (INSERT ... ON CONFLICT DO NOTHING
	// по составному уникальному индексу). Если пара (user, campaign) уже есть,
	// возвращает ErrAlreadyExists: check-then-insert гонка исключена.
	Join(participant *entity.CampaignParticipant) error

	IsParticipant(userID, campaignID uint) (bool, error)
	GetByUserAndCampaign(userID, campaignID uint) (*entity.CampaignParticipant, error)
	CountByCampaign(campaignID uint) (int64, error)

	// UpdateProgress обновляет неавторитетные кеш-поля (score,
	// completed_questions, current_test_day) после отправки ответа.
	UpdateProgress(userID, campaignID uint, score int, completedQuestions entity.IntArray, currentTestDay *int) error
}
