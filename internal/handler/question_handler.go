package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/learnquest-api/internal/domain/entity"
	"github.com/yourusername/learnquest-api/internal/domain/repository"
	"github.com/yourusername/learnquest-api/internal/handler/dto"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
	"github.com/yourusername/learnquest-api/internal/service"
)

// QuestionHandler обрабатывает запросы, связанные с вопросами кампаний
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
	}
}

// CreateQuestionRequest представляет запрос на создание вопроса
type CreateQuestionRequest struct {
	Type           string   `json:"type" binding:"required"`
	Text           string   `json:"text" binding:"required,min=3,max=1000"`
	Options        []string `json:"options" binding:"required,min=2,max=10"`
	CorrectAnswers []int    `json:"correct_answers" binding:"required,min=1"`
	Points         int      `json:"points"`
	ImageURL       string   `json:"image_url" binding:"omitempty,max=500"`
	DayNumber      *int     `json:"day_number"`
}

// UpdateQuestionRequest представляет запрос на частичное обновление вопроса
type UpdateQuestionRequest struct {
	Text           *string   `json:"text"`
	Options        *[]string `json:"options"`
	CorrectAnswers *[]int    `json:"correct_answers"`
	Points         *int      `json:"points"`
	ImageURL       *string   `json:"image_url"`
	DayNumber      *int      `json:"day_number"`
	ClearDayNumber bool      `json:"clear_day_number"`
}

// CreateQuestion обрабатывает запрос на добавление вопроса в кампанию
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)

	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := &entity.Question{
		CampaignID:     campaignID,
		Type:           req.Type,
		Text:           req.Text,
		Options:        entity.StringArray(req.Options),
		CorrectAnswers: entity.IntArray(req.CorrectAnswers),
		Points:         req.Points,
		ImageURL:       req.ImageURL,
		DayNumber:      req.DayNumber,
	}

	created, err := h.questionService.CreateQuestion(question)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAdminQuestionResponse(created))
}

// ListQuestions возвращает вопросы кампании. Для тестовой кампании ответ
// сужается до вопросов текущего дня; администратор видит все вопросы
// вместе с правильными ответами.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	isAdmin := c.GetString("role") == entity.RoleAdmin

	questions, err := h.questionService.ListQuestions(campaignID, isAdmin)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	if isAdmin {
		c.JSON(http.StatusOK, dto.NewAdminQuestionListResponse(questions))
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionListResponse(questions))
}

// UpdateQuestion обрабатывает запрос на частичное обновление вопроса
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := &repository.QuestionPatch{
		Text:           req.Text,
		Points:         req.Points,
		ImageURL:       req.ImageURL,
		DayNumber:      req.DayNumber,
		ClearDayNumber: req.ClearDayNumber,
	}
	if req.Options != nil {
		options := entity.StringArray(*req.Options)
		patch.Options = &options
	}
	if req.CorrectAnswers != nil {
		answers := entity.IntArray(*req.CorrectAnswers)
		patch.CorrectAnswers = &answers
	}

	question, err := h.questionService.UpdateQuestion(questionID, patch)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAdminQuestionResponse(question))
}

// DeleteQuestion обрабатывает запрос на удаление вопроса
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	if err := h.questionService.DeleteQuestion(questionID); err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question has been deleted"})
}

func (h *QuestionHandler) handleQuestionError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in QuestionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
