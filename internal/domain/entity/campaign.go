package entity

import (
	"time"
)

// DefaultTotalTestDays - длительность тестовой кампании по умолчанию
const DefaultTotalTestDays = 7

// Campaign представляет учебную кампанию
type Campaign struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:2000;not null;default:''" json:"description,omitempty"`
	ImageURL    string `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	CreatedBy   *uint  `json:"created_by,omitempty"`

	// IsActive - явный флаг. Эффективная активность дополнительно учитывает EndDate,
	// см. EffectiveActive.
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	HasQuestions     bool `gorm:"not null;default:false" json:"has_questions"`
	ParticipantLimit *int `json:"participant_limit,omitempty"`

	// Поля тестовой кампании. CurrentTestDay/TotalTestDays заданы только
	// когда IsTestCampaign=true; CurrentTestDay всегда в [0, TotalTestDays).
	IsTestCampaign bool `gorm:"not null;default:false" json:"is_test_campaign"`
	CurrentTestDay *int `json:"current_test_day,omitempty"`
	TotalTestDays  *int `json:"total_test_days,omitempty"`

	LearningMaterialsURL          string     `gorm:"size:500;not null;default:''" json:"learning_materials_url,omitempty"`
	LearningMaterialsLastVerified *time.Time `json:"learning_materials_last_verified,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Campaign) TableName() string {
	return "campaigns"
}

// EffectiveActive возвращает производный статус активности на момент now:
// кампания активна, если флаг включен и срок окончания не прошел.
// Вычисляется при чтении и никогда не записывается обратно.
func (c *Campaign) EffectiveActive(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(now) {
		return false
	}
	return true
}

// TestDay возвращает текущий тестовый день (0, если не задан)
func (c *Campaign) TestDay() int {
	if c.CurrentTestDay == nil {
		return 0
	}
	return *c.CurrentTestDay
}

// TestDays возвращает общее количество тестовых дней (дефолт, если не задано)
func (c *Campaign) TestDays() int {
	if c.TotalTestDays == nil {
		return DefaultTotalTestDays
	}
	return *c.TotalTestDays
}

// IsFinalTestDay сообщает, достигнут ли последний день тестовой кампании.
// После него продвижение дня запрещено.
func (c *Campaign) IsFinalTestDay() bool {
	return c.IsTestCampaign && c.TestDay() >= c.TestDays()-1
}
