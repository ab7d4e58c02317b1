package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/repository"
	"github.com/gin-gonic/gin"
)

// DeliveryLogReader is the read side of the delivery log.
type DeliveryLogReader interface {
	FindByRequestID(ctx context.Context, requestID string) ([]models.DeliveryLogEntry, error)
}

// StatusHandler handles status-related requests.
type StatusHandler struct {
	log DeliveryLogReader
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(log DeliveryLogReader) *StatusHandler {
	return &StatusHandler{log: log}
}

// GetStatus returns the delivery log entries of a provider request.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		respondError(c, http.StatusBadRequest, "request_id is required", nil)
		return
	}

	entries, err := h.log.FindByRequestID(c.Request.Context(), requestID)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, "notification not found", err)
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to read delivery log", err)
		return
	}

	respondSuccess(c, http.StatusOK, "notification status retrieved", gin.H{
		"request_id": requestID,
		"deliveries": entries,
	})
}
