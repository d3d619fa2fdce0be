package dto

import (
	"github.com/yourusername/learnquest-api/internal/service"
	"github.com/yourusername/learnquest-api/internal/service/quizsession"
)

// SessionResponse представляет состояние квиз-сессии для клиента
type SessionResponse struct {
	ID             string            `json:"id"`
	CampaignID     uint              `json:"campaign_id"`
	State          string            `json:"state"`
	CurrentIndex   int               `json:"current_index"`
	TotalQuestions int               `json:"total_questions"`
	Selected       []int             `json:"selected"`
	Attempts       int               `json:"attempts"`
	TotalScore     int               `json:"total_score"`
	TestDay        *int              `json:"test_day,omitempty"`
	CompletedToday bool              `json:"completed_today,omitempty"`
	Question       *QuestionResponse `json:"question,omitempty"`
}

// NewSessionResponse создает DTO состояния сессии
func NewSessionResponse(s *quizsession.Session, result *service.StartResult) SessionResponse {
	resp := SessionResponse{
		ID:             s.ID,
		CampaignID:     s.CampaignID,
		State:          s.State,
		CurrentIndex:   s.CurrentIndex,
		TotalQuestions: len(s.QuestionIDs),
		Selected:       s.Selected,
		Attempts:       s.Attempts,
		TotalScore:     s.TotalScore,
		TestDay:        s.TestDay,
	}
	if result != nil {
		resp.CompletedToday = result.CompletedToday
		if result.Question != nil {
			q := NewQuestionResponse(result.Question)
			resp.Question = &q
		}
	}
	return resp
}

// SubmitResponse представляет результат отправки ответа
type SubmitResponse struct {
	IsCorrect       bool              `json:"is_correct"`
	PointsEarned    int               `json:"points_earned"`
	AttemptNumber   int               `json:"attempt_number"`
	WillRetry       bool              `json:"will_retry"`
	Advanced        bool              `json:"advanced"`
	SessionComplete bool              `json:"session_complete"`
	TotalScore      int               `json:"total_score"`
	DayAdvanced     bool              `json:"day_advanced,omitempty"`
	FinalDayReached bool              `json:"final_day_reached,omitempty"`
	NextQuestion    *QuestionResponse `json:"next_question,omitempty"`
}

// NewSubmitResponse создает DTO результата отправки
func NewSubmitResponse(result *service.SubmitResult) SubmitResponse {
	resp := SubmitResponse{
		IsCorrect:       result.Outcome.IsCorrect,
		PointsEarned:    result.Outcome.PointsEarned,
		AttemptNumber:   result.Outcome.AttemptNumber,
		WillRetry:       result.Outcome.WillRetry,
		Advanced:        result.Outcome.Advanced,
		SessionComplete: result.Outcome.SessionComplete,
		TotalScore:      result.Session.TotalScore,
		DayAdvanced:     result.DayAdvanced,
		FinalDayReached: result.FinalDayReached,
	}
	if result.NextQuestion != nil {
		q := NewQuestionResponse(result.NextQuestion)
		resp.NextQuestion = &q
	}
	return resp
}
