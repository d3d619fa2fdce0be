package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
	ws "github.com/yourusername/learnquest-api/internal/websocket"
)

// Broadcaster рассылает событие всем подключенным клиентам
type Broadcaster interface {
	Broadcast(eventType string, data interface{})
}

// CampaignService предоставляет методы для работы с кампаниями
type CampaignService struct {
	campaignRepo repository.CampaignRepository
	questionRepo repository.QuestionRepository
	logRepo      repository.MaterialsLogRepository
	broadcaster  Broadcaster

	// httpClient проверяет доступность ссылок на учебные материалы
	httpClient *http.Client
}

// NewCampaignService создает новый сервис кампаний
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	questionRepo repository.QuestionRepository,
	logRepo repository.MaterialsLogRepository,
	broadcaster Broadcaster,
	verifyTimeout time.Duration,
) (*CampaignService, error) {
	if campaignRepo == nil {
		return nil, fmt.Errorf("CampaignRepository is required for CampaignService")
	}
	if questionRepo == nil {
		return nil, fmt.Errorf("QuestionRepository is required for CampaignService")
	}
	if verifyTimeout <= 0 {
		verifyTimeout = 10 * time.Second
	}

	return &CampaignService{
		campaignRepo: campaignRepo,
		questionRepo: questionRepo,
		logRepo:      logRepo,
		broadcaster:  broadcaster,
		httpClient:   &http.Client{Timeout: verifyTimeout},
	}, nil
}

// CreateCampaignInput содержит данные для создания кампании
type CreateCampaignInput struct {
	Title                string
	Description          string
	ImageURL             string
	CreatedBy            *uint
	StartDate            *time.Time
	EndDate              *time.Time
	ParticipantLimit     *int
	IsTestCampaign       bool
	TotalTestDays        *int
	LearningMaterialsURL string
}

// CreateCampaign создает кампанию. Тестовая кампания стартует с днем 0;
// длительность по умолчанию задается константой. Указанная ссылка на
// учебные материалы проверяется на доступность до записи: недоступная
// ссылка отклоняет создание.
func (s *CampaignService) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*entity.Campaign, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, fmt.Errorf("%w: endDate must not precede startDate", apperrors.ErrValidation)
	}
	if input.ParticipantLimit != nil && *input.ParticipantLimit < 0 {
		return nil, fmt.Errorf("%w: participantLimit must not be negative", apperrors.ErrValidation)
	}

	campaign := &entity.Campaign{
		Title:                input.Title,
		Description:          strings.TrimSpace(input.Description),
		ImageURL:             strings.TrimSpace(input.ImageURL),
		CreatedBy:            input.CreatedBy,
		IsActive:             true,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		ParticipantLimit:     input.ParticipantLimit,
		IsTestCampaign:       input.IsTestCampaign,
		LearningMaterialsURL: strings.TrimSpace(input.LearningMaterialsURL),
	}

	if input.IsTestCampaign {
		day := 0
		total := entity.DefaultTotalTestDays
		if input.TotalTestDays != nil {
			if *input.TotalTestDays < 1 {
				return nil, fmt.Errorf("%w: totalTestDays must be at least 1", apperrors.ErrValidation)
			}
			total = *input.TotalTestDays
		}
		campaign.CurrentTestDay = &day
		campaign.TotalTestDays = &total
	}

	if campaign.LearningMaterialsURL != "" {
		if err := s.checkURL(ctx, campaign.LearningMaterialsURL); err != nil {
			return nil, fmt.Errorf("%w: learning materials url is unreachable: %v", apperrors.ErrValidation, err)
		}
		now := time.Now()
		campaign.LearningMaterialsLastVerified = &now
	}

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, err
	}

	if campaign.LearningMaterialsURL != "" {
		s.logMaterials(campaign.ID, entity.MaterialsLogAdd, campaign.LearningMaterialsURL, nil)
	}

	log.Printf("[CampaignService] Создана кампания: id=%d title=%q test=%v", campaign.ID, campaign.Title, campaign.IsTestCampaign)
	return campaign, nil
}

// GetCampaign возвращает кампанию по ID
func (s *CampaignService) GetCampaign(id uint) (*entity.Campaign, error) {
	return s.campaignRepo.GetByID(id)
}

// ListCampaigns возвращает все кампании
func (s *CampaignService) ListCampaigns() ([]entity.Campaign, error) {
	return s.campaignRepo.List()
}

// UpdateCampaign применяет патч к кампании. Измененная ссылка на
// материалы проверяется на доступность до записи, отметка последней
// проверки ставится только после успешной проверки; смена фиксируется
// в журнале материалов.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id uint, patch *repository.CampaignPatch) (*entity.Campaign, error) {
	if patch == nil || patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}
	if patch.ParticipantLimit != nil && *patch.ParticipantLimit < 0 {
		return nil, fmt.Errorf("%w: participantLimit must not be negative", apperrors.ErrValidation)
	}
	if patch.TotalTestDays != nil && *patch.TotalTestDays < 1 {
		return nil, fmt.Errorf("%w: totalTestDays must be at least 1", apperrors.ErrValidation)
	}

	existing, err := s.campaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if patch.CurrentTestDay != nil {
		total := existing.TestDays()
		if patch.TotalTestDays != nil {
			total = *patch.TotalTestDays
		}
		if *patch.CurrentTestDay < 0 || *patch.CurrentTestDay >= total {
			return nil, fmt.Errorf("%w: currentTestDay must be in [0, %d)", apperrors.ErrValidation, total)
		}
	}

	urlChanged := patch.LearningMaterialsURL != nil && *patch.LearningMaterialsURL != existing.LearningMaterialsURL
	if urlChanged && *patch.LearningMaterialsURL != "" {
		if err := s.checkURL(ctx, *patch.LearningMaterialsURL); err != nil {
			s.logMaterials(id, entity.MaterialsLogVerify, *patch.LearningMaterialsURL, err)
			return nil, fmt.Errorf("%w: learning materials url is unreachable: %v", apperrors.ErrValidation, err)
		}
	}

	if err := s.campaignRepo.ApplyPatch(id, patch); err != nil {
		return nil, err
	}

	if urlChanged {
		logType := entity.MaterialsLogUpdate
		if existing.LearningMaterialsURL == "" {
			logType = entity.MaterialsLogAdd
		}
		s.logMaterials(id, logType, *patch.LearningMaterialsURL, nil)
		if *patch.LearningMaterialsURL != "" {
			if err := s.campaignRepo.TouchMaterialsVerified(id, time.Now()); err != nil {
				log.Printf("[CampaignService] Не удалось обновить отметку проверки материалов кампании %d: %v", id, err)
			}
		}
	}

	updated, err := s.campaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ws.EventCampaignUpdated, map[string]interface{}{
			"campaign_id": updated.ID,
		})
	}

	return updated, nil
}

// DeleteCampaign каскадно удаляет кампанию с вопросами и участниками.
// Журнал ответов не затрагивается.
func (s *CampaignService) DeleteCampaign(id uint) error {
	if err := s.campaignRepo.Delete(id); err != nil {
		return err
	}
	log.Printf("[CampaignService] Удалена кампания: id=%d", id)
	return nil
}

// VerifyMaterials проверяет доступность ссылки на учебные материалы.
// Недоступная ссылка - ошибка валидации; успешная проверка обновляет
// отметку последней проверки. Результат фиксируется в журнале материалов.
func (s *CampaignService) VerifyMaterials(ctx context.Context, id uint) (*entity.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if campaign.LearningMaterialsURL == "" {
		return nil, fmt.Errorf("%w: campaign has no learning materials url", apperrors.ErrValidation)
	}

	if err := s.checkURL(ctx, campaign.LearningMaterialsURL); err != nil {
		s.logMaterials(id, entity.MaterialsLogVerify, campaign.LearningMaterialsURL, err)
		return nil, fmt.Errorf("%w: learning materials url is unreachable: %v", apperrors.ErrValidation, err)
	}

	now := time.Now()
	if err := s.campaignRepo.TouchMaterialsVerified(id, now); err != nil {
		return nil, err
	}
	s.logMaterials(id, entity.MaterialsLogVerify, campaign.LearningMaterialsURL, nil)

	campaign.LearningMaterialsLastVerified = &now
	return campaign, nil
}

// AdvanceTestDay продвигает день тестовой кампании на единицу.
// Продвижение атомарно на уровне хранилища; попытка выйти за последний
// день дает ErrConflict. Успех рассылается всем подключенным клиентам.
func (s *CampaignService) AdvanceTestDay(id uint) (*entity.Campaign, error) {
	campaign, err := s.campaignRepo.AdvanceTestDay(id)
	if err != nil {
		return nil, err
	}

	log.Printf("[CampaignService] Тестовый день кампании %d продвинут до %d", id, campaign.TestDay())
	s.broadcastTestDay(campaign)
	return campaign, nil
}

// SetTestDay выставляет день тестовой кампании напрямую (в границах
// [0, totalTestDays-1]); вне границ - ErrConflict.
func (s *CampaignService) SetTestDay(id uint, day int) (*entity.Campaign, error) {
	campaign, err := s.campaignRepo.SetTestDay(id, day)
	if err != nil {
		return nil, err
	}

	log.Printf("[CampaignService] Тестовый день кампании %d установлен в %d", id, campaign.TestDay())
	s.broadcastTestDay(campaign)
	return campaign, nil
}

// MaterialsHistory возвращает журнал операций над материалами кампании
func (s *CampaignService) MaterialsHistory(campaignID uint) ([]entity.MaterialsLog, error) {
	if _, err := s.campaignRepo.GetByID(campaignID); err != nil {
		return nil, err
	}
	return s.logRepo.GetByCampaign(campaignID)
}

func (s *CampaignService) broadcastTestDay(campaign *entity.Campaign) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(ws.EventTestDayChanged, map[string]interface{}{
		"campaign_id":      campaign.ID,
		"current_test_day": campaign.TestDay(),
		"total_test_days":  campaign.TestDays(),
		"is_final_day":     campaign.IsFinalTestDay(),
	})
}

// checkURL проверяет ссылку сначала HEAD-запросом, затем GET (некоторые
// хостинги не отвечают на HEAD). Код < 400 считается успехом.
func (s *CampaignService) checkURL(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("malformed url")
	}

	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return nil
		}
		if method == http.MethodGet {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
	}
	return fmt.Errorf("url did not respond")
}

func (s *CampaignService) logMaterials(campaignID uint, logType, materialURL string, verifyErr error) {
	if s.logRepo == nil {
		return
	}
	entry := &entity.MaterialsLog{
		CampaignID: campaignID,
		Type:       logType,
		URL:        materialURL,
		Status:     entity.MaterialsLogSuccess,
	}
	if verifyErr != nil {
		entry.Status = entity.MaterialsLogError
		entry.Error = verifyErr.Error()
	}
	if err := s.logRepo.Create(entry); err != nil {
		log.Printf("[CampaignService] Не удалось записать журнал материалов кампании %d: %v", campaignID, err)
	}
}
