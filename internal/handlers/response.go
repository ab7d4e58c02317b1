package handlers

import (
	"errors"
	"net/http"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/gin-gonic/gin"
)

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.ResponseEnvelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	c.JSON(status, models.ResponseEnvelope{
		Success: false,
		Message: message,
		Error:   errMsg,
	})
}

func respondValidationError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "validation failed", err)
}

// respondSendError maps a send failure to a status code.
func respondSendError(c *gin.Context, err error) {
	var (
		verr *models.ValidationError
		perr *models.ProviderError
	)
	switch {
	case errors.As(err, &verr):
		respondValidationError(c, err)
	case errors.As(err, &perr):
		respondError(c, http.StatusInternalServerError, "provider request failed", err)
	case models.IsSigning(err):
		respondError(c, http.StatusInternalServerError, "provider credentials are not configured", err)
	default:
		respondError(c, http.StatusInternalServerError, "failed to send notification", err)
	}
}
