package controllers

import (
	"checkout-service/apperrors"
	"checkout-service/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps an application error to its HTTP status and a uniform
// JSON error body.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsError(err)

	if appErr.HTTPStatus() >= 500 {
		logger.Log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(appErr.HTTPStatus(), gin.H{
		"success": false,
		"error":   appErr.Message,
	})
}
