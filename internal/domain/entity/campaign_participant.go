package entity

import (
	"time"
)

// CampaignParticipant представляет членство пользователя в кампании.
// Инвариант "не более одной записи на пару (user, campaign)" обеспечивается
// составным уникальным индексом, а не проверкой перед вставкой.
type CampaignParticipant struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_participants_user_campaign" json:"user_id"`
	CampaignID uint `gorm:"not null;uniqueIndex:idx_participants_user_campaign;index" json:"campaign_id"`

	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	// Score - кеш для отображения. Источник истины для счета - журнал ответов
	// (user_responses); это поле может отставать и лидербордом не используется.
	Score int `gorm:"not null;default:0" json:"score"`

	// CompletedQuestions - кеш списка отвеченных вопросов, также неавторитетный.
	CompletedQuestions IntArray `gorm:"type:jsonb;not null;default:'[]'" json:"completed_questions"`

	// CurrentTestDay - день кампании на момент последнего взаимодействия.
	// Только информационное поле.
	CurrentTestDay *int `json:"current_test_day,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (CampaignParticipant) TableName() string {
	return "campaign_participants"
}
