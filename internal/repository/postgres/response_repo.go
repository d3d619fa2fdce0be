package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// ResponseRepo реализует repository.ResponseRepository
type ResponseRepo struct {
	db *gorm.DB
}

// NewResponseRepo создает новый репозиторий журнала ответов
func NewResponseRepo(db *gorm.DB) *ResponseRepo {
	return &ResponseRepo{db: db}
}

// Create добавляет запись в журнал
func (r *ResponseRepo) Create(response *entity.UserResponse) error {
	return r.db.Create(response).Error
}

// GetByUserAndCampaign возвращает ответы пользователя в кампании, новые первыми
func (r *ResponseRepo) GetByUserAndCampaign(userID, campaignID uint) ([]entity.UserResponse, error) {
	var responses []entity.UserResponse
	err := r.db.Where("user_id = ? AND campaign_id = ?", userID, campaignID).
		Order("created_at DESC, id DESC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// GetByCampaign возвращает все ответы кампании (для админ-экспорта)
func (r *ResponseRepo) GetByCampaign(campaignID uint) ([]entity.UserResponse, error) {
	var responses []entity.UserResponse
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("created_at ASC, id ASC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// GetAll возвращает весь журнал ответов
func (r *ResponseRepo) GetAll() ([]entity.UserResponse, error) {
	var responses []entity.UserResponse
	err := r.db.Order("created_at ASC, id ASC").Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// SumPoints суммирует заработанные очки пользователя в кампании по журналу
func (r *ResponseRepo) SumPoints(userID, campaignID uint) (int, error) {
	var total int64
	err := r.db.Model(&entity.UserResponse{}).
		Where("user_id = ? AND campaign_id = ?", userID, campaignID).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// CountAttempts возвращает число попыток пользователя по вопросу
func (r *ResponseRepo) CountAttempts(userID, questionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.UserResponse{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error
	return count, err
}
