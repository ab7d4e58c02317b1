package repository

import (
	"context"
	"sync"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

// MemoryDeliveryLog keeps a bounded list of recent entries. It is used when
// no database is configured.
type MemoryDeliveryLog struct {
	mu       sync.RWMutex
	capacity int
	nextID   uint
	entries  []models.DeliveryLogEntry
}

// NewMemoryDeliveryLog constructs a log with the provided capacity.
func NewMemoryDeliveryLog(capacity int) *MemoryDeliveryLog {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryDeliveryLog{capacity: capacity}
}

// Record appends entry, dropping the oldest entries past capacity.
func (m *MemoryDeliveryLog) Record(_ context.Context, entry models.DeliveryLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = m.nextID
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.capacity {
		m.entries = m.entries[len(m.entries)-m.capacity:]
	}
	return nil
}

// FindByRequestID returns the retained entries for requestID.
func (m *MemoryDeliveryLog) FindByRequestID(_ context.Context, requestID string) ([]models.DeliveryLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.DeliveryLogEntry
	for _, e := range m.entries {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Entries returns a snapshot of the retained entries in insertion order.
func (m *MemoryDeliveryLog) Entries() []models.DeliveryLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DeliveryLogEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
