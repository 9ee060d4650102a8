package middleware

import "github.com/gin-gonic/gin"

// securityHeaders — заголовки, добавляемые ко всем ответам API.
// Ответы содержат токены и данные покупателей, поэтому кеширование
// запрещено полностью.
var securityHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"Cache-Control":          "no-store",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Permissions-Policy":     "camera=(), microphone=(), geolocation=()",
}

// SecurityHeaders добавляет защитные заголовки ко всем ответам.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for name, value := range securityHeaders {
			h.Set(name, value)
		}
		c.Next()
	}
}
