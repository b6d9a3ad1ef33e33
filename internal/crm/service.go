package crm

import (
	"context"
	"strings"
	"time"

	"travelquote_backend/internal/events"
	"travelquote_backend/platform/apperr"
	"travelquote_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the customer persistence surface the service needs.
type Store interface {
	GetByEmail(ctx context.Context, tenantID, email string) (*Customer, error)
	Insert(ctx context.Context, c *Customer) error
	UpdateProgress(ctx context.Context, id uuid.UUID, quoteCount int, stage string, at time.Time) error
}

// Service applies quote-driven CRM progression.
type Service struct {
	store Store
	bus   events.Bus
	now   func() time.Time
}

// NewService creates a CRM service. bus may be nil.
func NewService(store Store, bus events.Bus) *Service {
	return &Service{store: store, bus: bus, now: time.Now}
}

// Contact is the customer identity attached to a quote.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// RecordQuote progresses a customer on a freshly generated quote.
// A new customer is created in QUOTED. An existing customer's quote count
// is incremented; from their second quote onwards a customer still in
// QUOTED advances to NEGOTIATING. Stages never regress.
func (s *Service) RecordQuote(ctx context.Context, tenantID string, contact Contact) error {
	email := strings.TrimSpace(contact.Email)
	if email == "" {
		return apperr.Validation("customer email is required for crm progression")
	}

	existing, err := s.store.GetByEmail(ctx, tenantID, email)
	if err != nil {
		return err
	}

	now := s.now()

	if existing == nil {
		customer := &Customer{
			ID:         uuid.New(),
			TenantID:   tenantID,
			Name:       contact.Name,
			Email:      email,
			Stage:      StageQuoted,
			QuoteCount: 1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if p := phone.NormalizeE164(contact.Phone); p != "" {
			customer.Phone = &p
		}
		return s.store.Insert(ctx, customer)
	}

	quoteCount := existing.QuoteCount + 1
	stage := existing.Stage

	if quoteCount >= 2 && existing.Stage == StageQuoted {
		stage = StageNegotiating
	}

	// Guard against regression even if stored stage data is ahead of what
	// this rule would set.
	if stage != existing.Stage && !isForward(existing.Stage, stage) {
		stage = existing.Stage
	}

	if err := s.store.UpdateProgress(ctx, existing.ID, quoteCount, stage, now); err != nil {
		return err
	}

	if stage != existing.Stage && s.bus != nil {
		s.bus.Publish(ctx, events.CustomerStageAdvanced{
			BaseEvent:     events.NewBaseEvent(),
			TenantID:      tenantID,
			CustomerEmail: email,
			FromStage:     existing.Stage,
			ToStage:       stage,
		})
	}

	return nil
}
