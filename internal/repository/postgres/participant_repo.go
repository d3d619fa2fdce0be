package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Join вставляет запись участия атомарно.
// ON CONFLICT DO NOTHING по уникальному индексу (user_id, campaign_id):
// конкурентные вставки той же пары не могут создать дубликат.
func (r *ParticipantRepo) Join(participant *entity.CampaignParticipant) error {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "campaign_id"}},
		DoNothing: true,
	}).Create(participant)

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return apperrors.ErrAlreadyExists
		}
		return fmt.Errorf("join campaign #%d failed: %w", participant.CampaignID, result.Error)
	}

	// DO NOTHING при конфликте дает RowsAffected == 0
	if result.RowsAffected == 0 {
		return apperrors.ErrAlreadyExists
	}

	return nil
}

// IsParticipant проверяет членство пользователя в кампании
func (r *ParticipantRepo) IsParticipant(userID, campaignID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.CampaignParticipant{}).
		Where("user_id = ? AND campaign_id = ?", userID, campaignID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByUserAndCampaign возвращает запись участия
func (r *ParticipantRepo) GetByUserAndCampaign(userID, campaignID uint) (*entity.CampaignParticipant, error) {
	var participant entity.CampaignParticipant
	err := r.db.Where("user_id = ? AND campaign_id = ?", userID, campaignID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// CountByCampaign возвращает число участников кампании
func (r *ParticipantRepo) CountByCampaign(campaignID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.CampaignParticipant{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

// UpdateProgress обновляет кеш-поля участия (неавторитетные)
func (r *ParticipantRepo) UpdateProgress(userID, campaignID uint, score int, completedQuestions entity.IntArray, currentTestDay *int) error {
	updates := map[string]interface{}{
		"score":               score,
		"completed_questions": completedQuestions,
	}
	if currentTestDay != nil {
		updates["current_test_day"] = *currentTestDay
	}
	return r.db.Model(&entity.CampaignParticipant{}).
		Where("user_id = ? AND campaign_id = ?", userID, campaignID).
		Updates(updates).Error
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
