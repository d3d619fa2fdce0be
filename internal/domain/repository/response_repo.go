package repository

import (
	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// ResponseRepository определяет методы для работы с журналом ответов.
// Журнал append-only: интерфейс сознательно не содержит Update/Delete.
type ResponseRepository interface {
	// Create добавляет запись в журнал
	Create(response *entity.UserResponse) error

	// GetByUserAndCampaign возвращает все ответы пользователя в кампании,
	// новые первыми
	GetByUserAndCampaign(userID, campaignID uint) ([]entity.UserResponse, error)

	// GetByCampaign возвращает все ответы кампании (для админ-экспорта)
	GetByCampaign(campaignID uint) ([]entity.UserResponse, error)

	// GetAll возвращает весь журнал (для сборки лидерборда)
	GetAll() ([]entity.UserResponse, error)

	// SumPoints суммирует заработанные очки пользователя в кампании.
	// Единственный авторитетный способ получить счет.
	SumPoints(userID, campaignID uint) (int, error)

	// CountAttempts возвращает число попыток пользователя по вопросу
	CountAttempts(userID, questionID uint) (int64, error)
}
