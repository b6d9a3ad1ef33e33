package consultants

import (
	"context"
	"time"

	"travelquote_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the consultant persistence surface the allocator needs.
type Store interface {
	NextUnassigned(ctx context.Context, tenantID string) (*Consultant, error)
	TouchLastAssigned(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Allocator hands out consultants round-robin by least-recent assignment.
//
// The pick and the timestamp bump are two separate store calls with no lock
// or transaction between them, so two concurrent requests can observe the
// same consultant and both assign them. That race is accepted: a double
// assignment costs one consultant an extra quote, a lock would cost every
// request latency.
type Allocator struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

// NewAllocator creates a consultant allocator.
func NewAllocator(store Store, log *logger.Logger) *Allocator {
	return &Allocator{store: store, log: log, now: time.Now}
}

// Next selects and marks the next consultant in round-robin order.
// Returns nil when no active consultant exists or the backing store is
// unavailable; allocation must never fail a quote.
func (a *Allocator) Next(ctx context.Context, tenantID string) *Consultant {
	selected, err := a.store.NextUnassigned(ctx, tenantID)
	if err != nil {
		a.log.DatabaseError("consultants.next_unassigned", err)
		return nil
	}
	if selected == nil {
		return nil
	}

	// Read-then-best-effort-write: the selection stands even when the
	// timestamp bump does not persist.
	assignedAt := a.now()
	if err := a.store.TouchLastAssigned(ctx, selected.ID, assignedAt); err != nil {
		a.log.DatabaseError("consultants.touch_last_assigned", err)
	} else {
		selected.LastAssignedAt = &assignedAt
	}

	return selected
}
