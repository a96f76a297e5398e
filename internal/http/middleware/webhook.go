package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// WebhookAuth проверяет токен платёжного процессора в заголовке
// X-Webhook-Token. Сам токен не хранится, сравнение идёт с bcrypt-хэшем.
func WebhookAuth(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Webhook-Token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется токен процессора"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен процессора невалиден"})
			return
		}

		c.Next()
	}
}
