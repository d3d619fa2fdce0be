package service

import (
	"fmt"
	"log"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
)

// QuestionService предоставляет методы для работы с вопросами кампаний
type QuestionService struct {
	questionRepo repository.QuestionRepository
	campaignRepo repository.CampaignRepository
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(
	questionRepo repository.QuestionRepository,
	campaignRepo repository.CampaignRepository,
) (*QuestionService, error) {
	if questionRepo == nil {
		return nil, fmt.Errorf("QuestionRepository is required for QuestionService")
	}
	if campaignRepo == nil {
		return nil, fmt.Errorf("CampaignRepository is required for QuestionService")
	}

	return &QuestionService{
		questionRepo: questionRepo,
		campaignRepo: campaignRepo,
	}, nil
}

// CreateQuestion добавляет вопрос в кампанию. Первый вопрос взводит флаг
// has_questions на кампании.
func (s *QuestionService) CreateQuestion(question *entity.Question) (*entity.Question, error) {
	campaign, err := s.campaignRepo.GetByID(question.CampaignID)
	if err != nil {
		return nil, err
	}

	if err := question.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	// У вопросов тестовой кампании день обязателен и лежит в границах
	if campaign.IsTestCampaign {
		if question.DayNumber == nil {
			return nil, fmt.Errorf("%w: dayNumber is required for test campaign questions", apperrors.ErrValidation)
		}
		if *question.DayNumber < 0 || *question.DayNumber >= campaign.TestDays() {
			return nil, fmt.Errorf("%w: dayNumber must be in [0, %d)", apperrors.ErrValidation, campaign.TestDays())
		}
	} else {
		question.DayNumber = nil
	}

	if err := s.questionRepo.Create(question); err != nil {
		return nil, err
	}

	if !campaign.HasQuestions {
		if err := s.campaignRepo.SetHasQuestions(campaign.ID, true); err != nil {
			log.Printf("[QuestionService] Не удалось взвести has_questions кампании %d: %v", campaign.ID, err)
		}
	}

	log.Printf("[QuestionService] Создан вопрос: id=%d campaign=%d type=%s", question.ID, question.CampaignID, question.Type)
	return question, nil
}

// GetQuestion возвращает вопрос по ID
func (s *QuestionService) GetQuestion(id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(id)
}

// ListQuestions возвращает вопросы кампании. Для тестовой кампании выборка
// сужается до вопросов текущего тестового дня: будущие дни не раскрываются.
// Администратору доступен полный список через includeAll.
func (s *QuestionService) ListQuestions(campaignID uint, includeAll bool) ([]entity.Question, error) {
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	var day *int
	if campaign.IsTestCampaign && !includeAll {
		d := campaign.TestDay()
		day = &d
	}

	return s.questionRepo.GetByCampaignID(campaignID, day)
}

// UpdateQuestion применяет патч к вопросу с повторной валидацией
// итогового состояния.
func (s *QuestionService) UpdateQuestion(id uint, patch *repository.QuestionPatch) (*entity.Question, error) {
	if patch == nil || patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}

	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	// Валидируем будущее состояние до записи
	preview := *question
	if patch.Text != nil {
		preview.Text = *patch.Text
	}
	if patch.Options != nil {
		preview.Options = *patch.Options
	}
	if patch.CorrectAnswers != nil {
		preview.CorrectAnswers = *patch.CorrectAnswers
	}
	if patch.Points != nil {
		preview.Points = *patch.Points
	}
	if patch.ImageURL != nil {
		preview.ImageURL = *patch.ImageURL
	}
	if patch.ClearDayNumber {
		preview.DayNumber = nil
	} else if patch.DayNumber != nil {
		preview.DayNumber = patch.DayNumber
	}
	if err := preview.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if err := s.questionRepo.ApplyPatch(id, patch); err != nil {
		return nil, err
	}

	return s.questionRepo.GetByID(id)
}

// DeleteQuestion удаляет вопрос. Если вопросов в кампании не осталось,
// флаг has_questions сбрасывается.
func (s *QuestionService) DeleteQuestion(id uint) error {
	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.questionRepo.Delete(id); err != nil {
		return err
	}

	remaining, err := s.questionRepo.CountByCampaignID(question.CampaignID, nil)
	if err != nil {
		log.Printf("[QuestionService] Не удалось пересчитать вопросы кампании %d: %v", question.CampaignID, err)
		return nil
	}
	if remaining == 0 {
		if err := s.campaignRepo.SetHasQuestions(question.CampaignID, false); err != nil {
			log.Printf("[QuestionService] Не удалось сбросить has_questions кампании %d: %v", question.CampaignID, err)
		}
	}

	log.Printf("[QuestionService] Удален вопрос: id=%d campaign=%d", id, question.CampaignID)
	return nil
}
