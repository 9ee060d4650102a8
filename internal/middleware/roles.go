package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/pkg/logger"
)

// RequireAdmin пропускает только пользователей с ролью администратора.
// Должен стоять после AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role != domain.RoleAdmin {
			log := logger.FromContext(c.Request.Context())
			log.Warn().
				Str("user_id", c.GetString(CtxUserID)).
				Str("role", role).
				Msg("Попытка доступа к админке без прав")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Недостаточно прав",
			})
			return
		}
		c.Next()
	}
}
