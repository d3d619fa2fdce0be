package entity

import (
	"time"
)

// UserResponse - неизменяемая запись одной попытки ответа.
// Журнал ответов append-only: записи никогда не обновляются и не удаляются,
// он является единственным авторитетным источником для подсчета очков.
type UserResponse struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"not null;index:idx_responses_user_campaign" json:"user_id"`
	QuestionID uint `gorm:"not null;index" json:"question_id"`
	CampaignID uint `gorm:"not null;index:idx_responses_user_campaign" json:"campaign_id"`

	SelectedAnswers IntArray `gorm:"type:jsonb;not null" json:"selected_answers"`
	IsCorrect       bool     `gorm:"not null" json:"is_correct"`

	// PointsEarned фиксируется на момент отправки: последующее изменение
	// стоимости вопроса не меняет исторические очки.
	PointsEarned int `gorm:"not null" json:"points_earned"`

	// AttemptNumber - 1-based номер попытки по этому вопросу в рамках сессии.
	AttemptNumber int `gorm:"not null" json:"attempt_number"`

	IsTestResponse bool `gorm:"not null;default:false" json:"is_test_response"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (UserResponse) TableName() string {
	return "user_responses"
}
