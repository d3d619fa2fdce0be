package dto

import (
	"time"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
)

// CampaignResponse представляет кампанию в формате для ответа клиенту.
// EffectiveActive - производный статус: флаг активности с учетом срока
// окончания, вычисляется на момент ответа.
type CampaignResponse struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	IsActive         bool       `json:"is_active"`
	EffectiveActive  bool       `json:"effective_active"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	HasQuestions     bool       `json:"has_questions"`
	ParticipantLimit *int       `json:"participant_limit,omitempty"`

	IsTestCampaign bool `json:"is_test_campaign"`
	CurrentTestDay *int `json:"current_test_day,omitempty"`
	TotalTestDays  *int `json:"total_test_days,omitempty"`

	LearningMaterialsURL          string     `json:"learning_materials_url,omitempty"`
	LearningMaterialsLastVerified *time.Time `json:"learning_materials_last_verified,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCampaignResponse создает DTO кампании
func NewCampaignResponse(c *entity.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:                            c.ID,
		Title:                         c.Title,
		Description:                   c.Description,
		ImageURL:                      c.ImageURL,
		IsActive:                      c.IsActive,
		EffectiveActive:               c.EffectiveActive(time.Now()),
		StartDate:                     c.StartDate,
		EndDate:                       c.EndDate,
		HasQuestions:                  c.HasQuestions,
		ParticipantLimit:              c.ParticipantLimit,
		IsTestCampaign:                c.IsTestCampaign,
		CurrentTestDay:                c.CurrentTestDay,
		TotalTestDays:                 c.TotalTestDays,
		LearningMaterialsURL:          c.LearningMaterialsURL,
		LearningMaterialsLastVerified: c.LearningMaterialsLastVerified,
		CreatedAt:                     c.CreatedAt,
		UpdatedAt:                     c.UpdatedAt,
	}
}

// NewCampaignListResponse создает список DTO кампаний
func NewCampaignListResponse(campaigns []entity.Campaign) []CampaignResponse {
	out := make([]CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		out = append(out, NewCampaignResponse(&campaigns[i]))
	}
	return out
}

// ParticipantResponse представляет запись участия
type ParticipantResponse struct {
	UserID             uint      `json:"user_id"`
	CampaignID         uint      `json:"campaign_id"`
	JoinedAt           time.Time `json:"joined_at"`
	Score              int       `json:"score"`
	CompletedQuestions []int     `json:"completed_questions"`
	CurrentTestDay     *int      `json:"current_test_day,omitempty"`
}

// NewParticipantResponse создает DTO записи участия
func NewParticipantResponse(p *entity.CampaignParticipant) ParticipantResponse {
	return ParticipantResponse{
		UserID:             p.UserID,
		CampaignID:         p.CampaignID,
		JoinedAt:           p.JoinedAt,
		Score:              p.Score,
		CompletedQuestions: p.CompletedQuestions,
		CurrentTestDay:     p.CurrentTestDay,
	}
}
