package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// CampaignRepo реализует repository.CampaignRepository
type CampaignRepo struct {
	db *gorm.DB
}

// NewCampaignRepo создает новый репозиторий кампаний
func NewCampaignRepo(db *gorm.DB) *CampaignRepo {
	return &CampaignRepo{db: db}
}

// Create создает новую кампанию
func (r *CampaignRepo) Create(campaign *entity.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByID возвращает кампанию по ID
func (r *CampaignRepo) GetByID(id uint) (*entity.Campaign, error) {
	var campaign entity.Campaign
	err := r.db.First(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// List возвращает все кампании, новые первыми
func (r *CampaignRepo) List() ([]entity.Campaign, error) {
	var campaigns []entity.Campaign
	err := r.db.Order("created_at DESC").Find(&campaigns).Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ApplyPatch применяет валидированный патч одним UPDATE
func (r *CampaignRepo) ApplyPatch(id uint, patch *repository.CampaignPatch) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	} else if patch.ClearStartDate {
		updates["start_date"] = nil
	}
	if patch.EndDate != nil {
		updates["end_date"] = *patch.EndDate
	} else if patch.ClearEndDate {
		updates["end_date"] = nil
	}
	if patch.ParticipantLimit != nil {
		updates["participant_limit"] = *patch.ParticipantLimit
	}
	if patch.IsTestCampaign != nil {
		updates["is_test_campaign"] = *patch.IsTestCampaign
		if *patch.IsTestCampaign {
			// Переключение в тестовый режим сбрасывает счетчик дней
			day := 0
			if patch.CurrentTestDay != nil {
				day = *patch.CurrentTestDay
			}
			total := entity.DefaultTotalTestDays
			if patch.TotalTestDays != nil {
				total = *patch.TotalTestDays
			}
			updates["current_test_day"] = day
			updates["total_test_days"] = total
		} else {
			updates["current_test_day"] = nil
			updates["total_test_days"] = nil
		}
	} else {
		if patch.CurrentTestDay != nil {
			updates["current_test_day"] = *patch.CurrentTestDay
		}
		if patch.TotalTestDays != nil {
			updates["total_test_days"] = *patch.TotalTestDays
		}
	}
	if patch.LearningMaterialsURL != nil {
		// Отметку последней проверки ставит только реальная проверка
		// доступности, см. TouchMaterialsVerified
		updates["learning_materials_url"] = *patch.LearningMaterialsURL
	}

	result := r.db.Model(&entity.Campaign{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет кампанию каскадно с вопросами и участниками в одной транзакции.
// Журнал ответов (user_responses) сознательно не трогаем: это неизменяемый
// источник истины для лидерборда.
func (r *CampaignRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&entity.Question{}).Error; err != nil {
			return fmt.Errorf("failed to delete campaign questions: %w", err)
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&entity.CampaignParticipant{}).Error; err != nil {
			return fmt.Errorf("failed to delete campaign participants: %w", err)
		}
		result := tx.Delete(&entity.Campaign{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// SetHasQuestions выставляет флаг наличия вопросов
func (r *CampaignRepo) SetHasQuestions(id uint, has bool) error {
	return r.db.Model(&entity.Campaign{}).
		Where("id = ?", id).
		Update("has_questions", has).
		Error
}

// AdvanceTestDay атомарно продвигает тестовый день условным UPDATE.
// Ограничение current_test_day < total_test_days - 1 входит в WHERE,
// поэтому конкурентные вызовы не могут вывести день за пределы.
// Возможные исходы:
// - RowsAffected == 1 → день продвинут
// - RowsAffected == 0, кампания есть → ErrConflict (последний день или не тестовая)
// - Кампании нет → ErrNotFound
func (r *CampaignRepo) AdvanceTestDay(id uint) (*entity.Campaign, error) {
	result := r.db.Model(&entity.Campaign{}).
		Where("id = ? AND is_test_campaign = ? AND current_test_day < total_test_days - 1", id, true).
		Updates(map[string]interface{}{
			"current_test_day": gorm.Expr("current_test_day + 1"),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("advance test day for campaign #%d failed: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		// Различаем "не найдена" и "граница достигнута"
		if _, err := r.GetByID(id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrConflict
	}

	return r.GetByID(id)
}

// SetTestDay атомарно выставляет тестовый день в пределах [0, total_test_days-1]
func (r *CampaignRepo) SetTestDay(id uint, day int) (*entity.Campaign, error) {
	if day < 0 {
		return nil, apperrors.ErrConflict
	}

	result := r.db.Model(&entity.Campaign{}).
		Where("id = ? AND is_test_campaign = ? AND ? < total_test_days", id, true, day).
		Updates(map[string]interface{}{
			"current_test_day": day,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("set test day for campaign #%d failed: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrConflict
	}

	return r.GetByID(id)
}

// TouchMaterialsVerified обновляет отметку последней проверки ссылки
func (r *CampaignRepo) TouchMaterialsVerified(id uint, at time.Time) error {
	return r.db.Model(&entity.Campaign{}).
		Where("id = ?", id).
		Update("learning_materials_last_verified", at).
		Error
}
