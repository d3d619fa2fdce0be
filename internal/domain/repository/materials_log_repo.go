package repository

import (
	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// MaterialsLogRepository - append-only журнал аудита ссылок на материалы
type MaterialsLogRepository interface {
	Create(log *entity.MaterialsLog) error
	GetByCampaign(campaignID uint) ([]entity.MaterialsLog, error)
}
