package services

import (
	"context"
	"time"
)

const defaultRedeliveryTTL = 24 * time.Hour

// Claimer marks a key as seen. It reports false for keys seen before.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedeliveryGuard skips queue messages that were already handled, so a
// redelivered message does not produce a second delivery log entry.
type RedeliveryGuard struct {
	store Claimer
	ttl   time.Duration
}

// NewRedeliveryGuard creates a new RedeliveryGuard. A nil store lets every
// message through.
func NewRedeliveryGuard(store Claimer, ttl time.Duration) *RedeliveryGuard {
	if ttl <= 0 {
		ttl = defaultRedeliveryTTL
	}
	return &RedeliveryGuard{store: store, ttl: ttl}
}

// IsDuplicate checks if messageID has been handled before.
func (g *RedeliveryGuard) IsDuplicate(ctx context.Context, messageID string) (bool, error) {
	if g == nil || g.store == nil || messageID == "" {
		return false, nil
	}
	claimed, err := g.store.Claim(ctx, "delivered:"+messageID, g.ttl)
	if err != nil {
		return false, err
	}
	return !claimed, nil
}
