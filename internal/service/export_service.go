package service

import (
	"fmt"
	"log"

	"github.com/yourusername/learnquest-api/internal/domain/repository"
)

// ExportRow - одна строка отчета по ответам кампании
type ExportRow struct {
	UserName      string
	Email         string
	Department    string
	QuestionText  string
	Selected      []int
	IsCorrect     bool
	PointsEarned  int
	AttemptNumber int
	IsTest        bool
	SubmittedAt   string
}

// ExportService собирает данные для административного экспорта ответов
type ExportService struct {
	campaignRepo repository.CampaignRepository
	questionRepo repository.QuestionRepository
	responseRepo repository.ResponseRepository
	userRepo     repository.UserRepository
}

// NewExportService создает новый сервис экспорта
func NewExportService(
	campaignRepo repository.CampaignRepository,
	questionRepo repository.QuestionRepository,
	responseRepo repository.ResponseRepository,
	userRepo repository.UserRepository,
) (*ExportService, error) {
	if campaignRepo == nil {
		return nil, fmt.Errorf("CampaignRepository is required for ExportService")
	}
	if questionRepo == nil {
		return nil, fmt.Errorf("QuestionRepository is required for ExportService")
	}
	if responseRepo == nil {
		return nil, fmt.Errorf("ResponseRepository is required for ExportService")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for ExportService")
	}

	return &ExportService{
		campaignRepo: campaignRepo,
		questionRepo: questionRepo,
		responseRepo: responseRepo,
		userRepo:     userRepo,
	}, nil
}

// BuildCampaignReport собирает отчет по журналу ответов кампании.
// Записи с неизвестным пользователем или удаленным вопросом остаются в
// отчете с заглушками: журнал полнее справочников.
func (s *ExportService) BuildCampaignReport(campaignID uint) (string, []ExportRow, error) {
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return "", nil, err
	}

	responses, err := s.responseRepo.GetByCampaign(campaignID)
	if err != nil {
		return "", nil, err
	}

	users, err := s.userRepo.GetAll()
	if err != nil {
		return "", nil, err
	}
	userIdx := make(map[uint]int, len(users))
	for i := range users {
		userIdx[users[i].ID] = i
	}

	questions, err := s.questionRepo.GetByCampaignID(campaignID, nil)
	if err != nil {
		return "", nil, err
	}
	questionText := make(map[uint]string, len(questions))
	for i := range questions {
		questionText[questions[i].ID] = questions[i].Text
	}

	rows := make([]ExportRow, 0, len(responses))
	for i := range responses {
		r := &responses[i]
		row := ExportRow{
			UserName:      fmt.Sprintf("(пользователь %d)", r.UserID),
			QuestionText:  fmt.Sprintf("(вопрос %d)", r.QuestionID),
			Selected:      r.SelectedAnswers,
			IsCorrect:     r.IsCorrect,
			PointsEarned:  r.PointsEarned,
			AttemptNumber: r.AttemptNumber,
			IsTest:        r.IsTestResponse,
			SubmittedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if idx, ok := userIdx[r.UserID]; ok {
			row.UserName = users[idx].FullName()
			row.Email = users[idx].Email
			row.Department = users[idx].Department
		}
		if text, ok := questionText[r.QuestionID]; ok {
			row.QuestionText = text
		}
		rows = append(rows, row)
	}

	log.Printf("[ExportService] Отчет по кампании %d: %d строк", campaignID, len(rows))
	return campaign.Title, rows, nil
}
