package repository

import (
	"time"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// CampaignPatch - типизированное частичное обновление кампании.
// Все поля опциональны; nil означает "не менять". Произвольные карты
// обновлений не принимаются, неизвестные поля отбрасываются на уровне типа.
type CampaignPatch struct {
	Title            *string
	Description      *string
	ImageURL         *string
	IsActive         *bool
	StartDate        *time.Time
	EndDate          *time.Time
	ClearStartDate   bool
	ClearEndDate     bool
	ParticipantLimit *int

	// IsTestCampaign при переключении сбрасывает CurrentTestDay в 0
	// и TotalTestDays в значение по умолчанию (если не задано явно).
	IsTestCampaign *bool
	CurrentTestDay *int
	TotalTestDays  *int

	LearningMaterialsURL *string
}

// Empty сообщает, что патч не содержит ни одного изменения
func (p *CampaignPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.ImageURL == nil &&
		p.IsActive == nil && p.StartDate == nil && p.EndDate == nil &&
		!p.ClearStartDate && !p.ClearEndDate && p.ParticipantLimit == nil &&
		p.IsTestCampaign == nil && p.CurrentTestDay == nil && p.TotalTestDays == nil &&
		p.LearningMaterialsURL == nil
}

// CampaignRepository определяет методы для работы с кампаниями
type CampaignRepository interface {
	Create(campaign *entity.Campaign) error
	GetByID(id uint) (*entity.Campaign, error)
	List() ([]entity.Campaign, error)

	// ApplyPatch применяет валидированный патч одним UPDATE
	// и проставляет updated_at.
	ApplyPatch(id uint, patch *CampaignPatch) error

	// Delete удаляет кампанию каскадно вместе с ее вопросами и участниками
	// в одной транзакции. Журнал ответов сохраняется.
	Delete(id uint) error

	// SetHasQuestions выставляет флаг наличия вопросов
	SetHasQuestions(id uint, has bool) error

	// AdvanceTestDay атомарно увеличивает current_test_day на 1, но только если
	// кампания тестовая и день еще не последний (условный UPDATE, без
	// read-then-write гонки). При нарушении границы возвращает ErrConflict.
	AdvanceTestDay(id uint) (*entity.Campaign, error)

	// SetTestDay атомарно выставляет current_test_day, если день входит
	// в [0, total_test_days-1]. При нарушении границы возвращает ErrConflict.
	SetTestDay(id uint, day int) (*entity.Campaign, error)

	// TouchMaterialsVerified обновляет отметку последней проверки ссылки
	TouchMaterialsVerified(id uint, at time.Time) error
}
