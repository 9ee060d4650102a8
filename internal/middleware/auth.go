// Package middleware содержит HTTP middleware сервера.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"example.com/bagstore/pkg/auth"
	"example.com/bagstore/pkg/logger"
)

// Ключи контекста Gin, устанавливаемые после аутентификации.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxToken  = "token"
)

// ExtractBearerToken извлекает токен из Authorization header.
// Формат: "Bearer <token>", префикс регистронезависимый.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// AuthMiddleware проверяет JWT токены: подпись, срок действия и blacklist.
type AuthMiddleware struct {
	jwt *auth.Manager
}

// NewAuthMiddleware создаёт middleware аутентификации.
func NewAuthMiddleware(jwt *auth.Manager) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Handle возвращает Gin handler, прерывающий запрос без валидного токена.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		token := ExtractBearerToken(c)
		if token == "" {
			log.Debug().Msg("Отсутствует токен авторизации")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется авторизация",
			})
			return
		}

		claims, err := m.jwt.ValidateWithBlacklist(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("Ошибка валидации токена")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Невалидный токен",
			})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxToken, token)

		log.Debug().
			Str("user_id", claims.UserID).
			Str("jti", claims.ID).
			Msg("Пользователь аутентифицирован")

		c.Next()
	}
}
