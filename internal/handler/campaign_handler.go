package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	"github.com/yourusername/learnquest-api/internal/handler/dto"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
	"github.com/yourusername/learnquest-api/internal/service"
)

// CampaignHandler обрабатывает запросы, связанные с кампаниями
type CampaignHandler struct {
	campaignService      *service.CampaignService
	participationService *service.ParticipationService
	exportService        *service.ExportService
}

// NewCampaignHandler создает новый обработчик кампаний
func NewCampaignHandler(
	campaignService *service.CampaignService,
	participationService *service.ParticipationService,
	exportService *service.ExportService,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService:      campaignService,
		participationService: participationService,
		exportService:        exportService,
	}
}

// CreateCampaignRequest представляет запрос на создание кампании
type CreateCampaignRequest struct {
	Title                string     `json:"title" binding:"required,min=3,max=200"`
	Description          string     `json:"description" binding:"omitempty,max=2000"`
	ImageURL             string     `json:"image_url" binding:"omitempty,max=500"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	ParticipantLimit     *int       `json:"participant_limit"`
	IsTestCampaign       bool       `json:"is_test_campaign"`
	TotalTestDays        *int       `json:"total_test_days"`
	LearningMaterialsURL string     `json:"learning_materials_url" binding:"omitempty,max=500"`
}

// UpdateCampaignRequest представляет запрос на частичное обновление кампании
type UpdateCampaignRequest struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	ImageURL             *string    `json:"image_url"`
	IsActive             *bool      `json:"is_active"`
	StartDate            *time.Time `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	ClearStartDate       bool       `json:"clear_start_date"`
	ClearEndDate         bool       `json:"clear_end_date"`
	ParticipantLimit     *int       `json:"participant_limit"`
	IsTestCampaign       *bool      `json:"is_test_campaign"`
	TotalTestDays        *int       `json:"total_test_days"`
	LearningMaterialsURL *string    `json:"learning_materials_url"`
}

// SetTestDayRequest представляет запрос на прямую установку тестового дня
type SetTestDayRequest struct {
	Day *int `json:"day" binding:"required"`
}

// CreateCampaign обрабатывает запрос на создание кампании
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creator := c.MustGet("userID").(uint)
	campaign, err := h.campaignService.CreateCampaign(c.Request.Context(), service.CreateCampaignInput{
		Title:                req.Title,
		Description:          req.Description,
		ImageURL:             req.ImageURL,
		CreatedBy:            &creator,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		ParticipantLimit:     req.ParticipantLimit,
		IsTestCampaign:       req.IsTestCampaign,
		TotalTestDays:        req.TotalTestDays,
		LearningMaterialsURL: req.LearningMaterialsURL,
	})
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCampaignResponse(campaign))
}

// GetCampaign возвращает информацию о кампании
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	campaign, err := h.campaignService.GetCampaign(campaignID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCampaignResponse(campaign))
}

// ListCampaigns возвращает все кампании
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaignService.ListCampaigns()
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCampaignListResponse(campaigns))
}

// UpdateCampaign обрабатывает запрос на частичное обновление кампании
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := &repository.CampaignPatch{
		Title:                req.Title,
		Description:          req.Description,
		ImageURL:             req.ImageURL,
		IsActive:             req.IsActive,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		ClearStartDate:       req.ClearStartDate,
		ClearEndDate:         req.ClearEndDate,
		ParticipantLimit:     req.ParticipantLimit,
		IsTestCampaign:       req.IsTestCampaign,
		TotalTestDays:        req.TotalTestDays,
		LearningMaterialsURL: req.LearningMaterialsURL,
	}

	campaign, err := h.campaignService.UpdateCampaign(c.Request.Context(), campaignID, patch)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCampaignResponse(campaign))
}

// DeleteCampaign обрабатывает запрос на удаление кампании
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	if err := h.campaignService.DeleteCampaign(campaignID); err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign has been deleted"})
}

// JoinCampaign записывает текущего пользователя в кампанию
func (h *CampaignHandler) JoinCampaign(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	userID := c.MustGet("userID").(uint)

	participant, err := h.participationService.Join(userID, campaignID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Already joined this campaign"})
			return
		}
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewParticipantResponse(participant))
}

// GetParticipation возвращает запись участия текущего пользователя
func (h *CampaignHandler) GetParticipation(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	userID := c.MustGet("userID").(uint)

	participant, err := h.participationService.GetParticipation(userID, campaignID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewParticipantResponse(participant))
}

// VerifyMaterials проверяет доступность ссылки на учебные материалы
func (h *CampaignHandler) VerifyMaterials(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	campaign, err := h.campaignService.VerifyMaterials(c.Request.Context(), campaignID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCampaignResponse(campaign))
}

// MaterialsHistory возвращает журнал операций над материалами кампании
func (h *CampaignHandler) MaterialsHistory(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	logs, err := h.campaignService.MaterialsHistory(campaignID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// AdvanceTestDay продвигает тестовый день кампании на единицу
func (h *CampaignHandler) AdvanceTestDay(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	campaign, err := h.campaignService.AdvanceTestDay(campaignID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCampaignResponse(campaign))
}

// SetTestDay выставляет тестовый день кампании напрямую
func (h *CampaignHandler) SetTestDay(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	var req SetTestDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.SetTestDay(campaignID, *req.Day)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCampaignResponse(campaign))
}

// ExportResponses выгружает журнал ответов кампании в Excel.
// Используем StreamWriter для эффективной работы с большими журналами.
func (h *CampaignHandler) ExportResponses(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	title, rows, err := h.exportService.BuildCampaignReport(campaignID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}

	filename := fmt.Sprintf("campaign_%d_responses", campaignID)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Ответы"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[CampaignHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Кампания", "Пользователь", "Email", "Отдел", "Вопрос", "Выбрано", "Верно", "Очки", "Попытка", "Тестовый", "Отправлено"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[CampaignHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i, r := range rows {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		correct := "Нет"
		if r.IsCorrect {
			correct = "Да"
		}
		isTest := "Нет"
		if r.IsTest {
			isTest = "Да"
		}
		selected := strings.Trim(strings.Join(strings.Fields(fmt.Sprint(r.Selected)), ", "), "[]")

		row := []interface{}{sanitizeForExcel(title), sanitizeForExcel(r.UserName), r.Email, r.Department, sanitizeForExcel(r.QuestionText), selected, correct, r.PointsEarned, r.AttemptNumber, isTest, r.SubmittedAt}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[CampaignHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[CampaignHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[CampaignHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

func (h *CampaignHandler) handleCampaignError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in CampaignHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
