package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// UintParam извлекает числовой параметр маршрута и кладет его в контекст
// Gin под ключом contextKey. Идентификаторы записей начинаются с 1,
// поэтому ноль отклоняется наравне с нечисловыми значениями.
func UintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || value == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s parameter: %q", paramName, raw)})
			c.Abort()
			return
		}
		c.Set(contextKey, uint(value))
		c.Next()
	}
}
