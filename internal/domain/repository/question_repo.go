package repository

import (
	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// QuestionPatch - типизированное частичное обновление вопроса
type QuestionPatch struct {
	Text           *string
	Options        *entity.StringArray
	CorrectAnswers *entity.IntArray
	Points         *int
	ImageURL       *string
	DayNumber      *int
	ClearDayNumber bool
}

// Empty сообщает, что патч не содержит ни одного изменения
func (p *QuestionPatch) Empty() bool {
	return p.Text == nil && p.Options == nil && p.CorrectAnswers == nil &&
		p.Points == nil && p.ImageURL == nil && p.DayNumber == nil && !p.ClearDayNumber
}

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(question *entity.Question) error
	GetByID(id uint) (*entity.Question, error)

	// GetByCampaignID возвращает вопросы кампании в порядке создания.
	// Если dayNumber задан, выборка дополнительно фильтруется по дню
	// (контекст тестовой кампании).
	GetByCampaignID(campaignID uint, dayNumber *int) ([]entity.Question, error)

	CountByCampaignID(campaignID uint, dayNumber *int) (int64, error)

	ApplyPatch(id uint, patch *QuestionPatch) error
	Delete(id uint) error
}
