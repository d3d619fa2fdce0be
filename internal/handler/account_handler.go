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

// AccountHandler обрабатывает административные мутации учетных записей.
// Роль вызывающего берется из JWT и передается в сервис: шлюз проверяет
// ее до любой валидации.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler создает новый обработчик учетных записей
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// CreateAccountRequest представляет запрос на создание учетной записи
type CreateAccountRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Department string `json:"department" binding:"required"`
	Role       string `json:"role"`
}

// UpdateAccountRequest представляет запрос на обновление учетной записи
type UpdateAccountRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Department *string `json:"department"`
	Role       *string `json:"role"`
}

// ResetPasswordRequest представляет запрос на сброс пароля
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// CreateAccount обрабатывает запрос на создание учетной записи
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	callerRole := c.MustGet("role").(string)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accountService.CreateAccount(c.Request.Context(), callerRole, service.CreateAccountInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Role:       req.Role,
	})
	if err != nil {
		h.handleAccountError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// ListAccounts возвращает все профили пользователей
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	callerRole := c.MustGet("role").(string)

	users, err := h.accountService.ListAccounts(callerRole)
	if err != nil {
		h.handleAccountError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserListResponse(users))
}

// UpdateAccount обрабатывает запрос на обновление учетной записи
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	callerRole := c.MustGet("role").(string)
	userID := c.MustGet("userID_param").(uint)

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accountService.UpdateAccount(callerRole, userID, service.UpdateAccountInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Role:       req.Role,
	})
	if err != nil {
		h.handleAccountError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// ResetPassword обрабатывает запрос на сброс пароля
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	callerRole := c.MustGet("role").(string)
	userID := c.MustGet("userID_param").(uint)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accountService.ResetPassword(c.Request.Context(), callerRole, userID, req.NewPassword); err != nil {
		h.handleAccountError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// DeleteAccount обрабатывает запрос на удаление учетной записи
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	callerRole := c.MustGet("role").(string)
	userID := c.MustGet("userID_param").(uint)

	if err := h.accountService.DeleteAccount(callerRole, userID); err != nil {
		h.handleAccountError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account has been deleted"})
}

func (h *AccountHandler) handleAccountError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in AccountHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
