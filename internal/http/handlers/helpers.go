package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

// respondServiceError переводит ошибку сервиса в HTTP ответ. Нарушения
// целостности маскируются: клиент видит 500, детали уходят в лог и алертинг.
func respondServiceError(c *gin.Context, err error) {
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
