package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/learnquest-api/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(leaderboardService *service.LeaderboardService) *UserHandler {
	return &UserHandler{
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard возвращает сводный лидерборд по всем кампаниям.
// При ошибке сборки ответ деградирует до пустого списка: лидерборд -
// витрина, а не источник истины.
func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	leaderboard, err := h.leaderboardService.GetLeaderboard()
	if err != nil {
		log.Printf("[UserHandler] Не удалось собрать лидерборд: %v", err)
		c.JSON(http.StatusOK, []service.LeaderboardEntry{})
		return
	}

	c.JSON(http.StatusOK, leaderboard)
}
