package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/learnquest-api/internal/handler/dto"
	apperrors "github.com/yourusername/learnquest-api/internal/pkg/errors"
	"github.com/yourusername/learnquest-api/internal/service"
)

// QuizHandler обрабатывает прохождение квизов
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик квизов
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
	}
}

// SelectRequest представляет запрос на выбор варианта ответа
type SelectRequest struct {
	OptionIndex *int `json:"option_index" binding:"required"`
}

// StartSession собирает (или возобновляет) сессию прохождения кампании
func (h *QuizHandler) StartSession(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	userID := c.MustGet("userID").(uint)

	result, err := h.quizService.StartSession(userID, campaignID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(result.Session, result))
}

// GetSession возвращает текущее состояние сессии
func (h *QuizHandler) GetSession(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	userID := c.MustGet("userID").(uint)

	session, question, err := h.quizService.GetSession(userID, campaignID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	resp := dto.NewSessionResponse(session, nil)
	if question != nil {
		q := dto.NewQuestionResponse(question)
		resp.Question = &q
	}
	c.JSON(http.StatusOK, resp)
}

// Select применяет выбор варианта к текущему вопросу
func (h *QuizHandler) Select(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	userID := c.MustGet("userID").(uint)

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.quizService.Select(userID, campaignID, *req.OptionIndex)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(session, nil))
}

// Submit отправляет текущий выбор на оценку
func (h *QuizHandler) Submit(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	userID := c.MustGet("userID").(uint)

	result, err := h.quizService.Submit(userID, campaignID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubmitResponse(result))
}

// AbandonSession удаляет живую сессию пользователя
func (h *QuizHandler) AbandonSession(c *gin.Context) {
	campaignID := c.MustGet("campaignID").(uint)
	userID := c.MustGet("userID").(uint)

	if err := h.quizService.AbandonSession(userID, campaignID); err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session abandoned"})
}

func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in QuizHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
