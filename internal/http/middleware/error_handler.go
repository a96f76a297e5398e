package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-ledger/internal/logger"
	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: *AppError превращается
// в ответ со своим HTTP статусом, всё остальное маскируется как внутренняя
// ошибка. Нарушения целостности никогда не показываются пользователю.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code == apperror.ErrCodeIntegrity {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
				return
			}
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
	}
}
