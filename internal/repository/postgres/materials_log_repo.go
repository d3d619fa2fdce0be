package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// MaterialsLogRepo реализует repository.MaterialsLogRepository
type MaterialsLogRepo struct {
	db *gorm.DB
}

// NewMaterialsLogRepo создает новый репозиторий аудита материалов
func NewMaterialsLogRepo(db *gorm.DB) *MaterialsLogRepo {
	return &MaterialsLogRepo{db: db}
}

// Create добавляет запись аудита
func (r *MaterialsLogRepo) Create(log *entity.MaterialsLog) error {
	return r.db.Create(log).Error
}

// GetByCampaign возвращает записи аудита кампании, новые первыми
func (r *MaterialsLogRepo) GetByCampaign(campaignID uint) ([]entity.MaterialsLog, error) {
	var logs []entity.MaterialsLog
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
