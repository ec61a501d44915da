package handler

import (
	"notes-service/internal/apperr"
	"notes-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// fail maps a typed outcome to its HTTP status and error body. Internal
// causes are logged, never serialized.
func fail(c echo.Context, err error) error {
	status := apperr.Status(err)
	if status >= 500 {
		logger.FromContext(c).Error("Request failed", zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": apperr.Message(err)})
}
