package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no log entry matches a lookup.
var ErrNotFound = errors.New("delivery log entry not found")

// DeliveryLogStore persists delivery log entries in the delivery_logs table.
type DeliveryLogStore struct {
	db *gorm.DB
}

// NewDeliveryLogStore creates a new DeliveryLogStore.
func NewDeliveryLogStore(db *gorm.DB) *DeliveryLogStore {
	return &DeliveryLogStore{db: db}
}

// Migrate creates or updates the delivery_logs table.
func (s *DeliveryLogStore) Migrate() error {
	return s.db.AutoMigrate(&models.DeliveryLogEntry{})
}

// Record inserts entry as a new row. Entries are never updated in place.
func (s *DeliveryLogStore) Record(ctx context.Context, entry models.DeliveryLogEntry) error {
	entry.ID = 0
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("insert delivery log: %w", err)
	}
	return nil
}

// FindByRequestID returns every entry written for a provider request id.
func (s *DeliveryLogStore) FindByRequestID(ctx context.Context, requestID string) ([]models.DeliveryLogEntry, error) {
	var entries []models.DeliveryLogEntry
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query delivery log: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}
