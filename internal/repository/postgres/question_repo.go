package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByCampaignID возвращает вопросы кампании в порядке создания.
// dayNumber != nil сужает выборку до вопросов конкретного тестового дня.
func (r *QuestionRepo) GetByCampaignID(campaignID uint, dayNumber *int) ([]entity.Question, error) {
	var questions []entity.Question
	query := r.db.Where("campaign_id = ?", campaignID)
	if dayNumber != nil {
		query = query.Where("day_number = ?", *dayNumber)
	}
	err := query.Order("created_at ASC, id ASC").Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// CountByCampaignID возвращает число вопросов кампании (опционально - дня)
func (r *QuestionRepo) CountByCampaignID(campaignID uint, dayNumber *int) (int64, error) {
	var count int64
	query := r.db.Model(&entity.Question{}).Where("campaign_id = ?", campaignID)
	if dayNumber != nil {
		query = query.Where("day_number = ?", *dayNumber)
	}
	err := query.Count(&count).Error
	return count, err
}

// ApplyPatch применяет валидированный патч одним UPDATE
func (r *QuestionRepo) ApplyPatch(id uint, patch *repository.QuestionPatch) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if patch.Text != nil {
		updates["text"] = *patch.Text
	}
	if patch.Options != nil {
		updates["options"] = *patch.Options
	}
	if patch.CorrectAnswers != nil {
		updates["correct_answers"] = *patch.CorrectAnswers
	}
	if patch.Points != nil {
		updates["points"] = *patch.Points
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}
	if patch.DayNumber != nil {
		updates["day_number"] = *patch.DayNumber
	} else if patch.ClearDayNumber {
		updates["day_number"] = nil
	}

	result := r.db.Model(&entity.Question{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Question{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
