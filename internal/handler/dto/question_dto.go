package dto

import (
	"time"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/handler/helper"
)

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// Правильные ответы не раскрываются.
type QuestionResponse struct {
	ID         uint                    `json:"id"`
	CampaignID uint                    `json:"campaign_id"`
	Type       string                  `json:"type"`
	Text       string                  `json:"text"`
	Options    []helper.QuestionOption `json:"options"`
	Points     int                     `json:"points"`
	ImageURL   string                  `json:"image_url,omitempty"`
	DayNumber  *int                    `json:"day_number,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// AdminQuestionResponse дополняет QuestionResponse правильными ответами.
// Только для административных маршрутов.
type AdminQuestionResponse struct {
	QuestionResponse
	CorrectAnswers []int `json:"correct_answers"`
}

// NewQuestionResponse создает DTO вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:         q.ID,
		CampaignID: q.CampaignID,
		Type:       q.Type,
		Text:       q.Text,
		Options:    helper.ConvertOptionsToObjects(q.Options),
		Points:     q.Points,
		ImageURL:   q.ImageURL,
		DayNumber:  q.DayNumber,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
}

// NewAdminQuestionResponse создает DTO вопроса с правильными ответами
func NewAdminQuestionResponse(q *entity.Question) AdminQuestionResponse {
	return AdminQuestionResponse{
		QuestionResponse: NewQuestionResponse(q),
		CorrectAnswers:   q.CorrectAnswers,
	}
}

// NewQuestionListResponse создает список DTO вопросов
func NewQuestionListResponse(questions []entity.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, NewQuestionResponse(&questions[i]))
	}
	return out
}

// NewAdminQuestionListResponse создает список DTO вопросов с ответами
func NewAdminQuestionListResponse(questions []entity.Question) []AdminQuestionResponse {
	out := make([]AdminQuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, NewAdminQuestionResponse(&questions[i]))
	}
	return out
}
