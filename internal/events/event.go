// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"travelquote_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteGenerated is published when a quote has been built and persisted.
type QuoteGenerated struct {
	BaseEvent
	TenantID      string `json:"tenantId"`
	QuoteID       string `json:"quoteId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Destination   string `json:"destination"`
	TotalPrice    int64  `json:"totalPrice"`
	Status        string `json:"status"`
	OptionCount   int    `json:"optionCount"`
}

func (e QuoteGenerated) EventName() string { return "quotes.quote.generated" }

// QuoteSent is published when a quote email has been delivered.
type QuoteSent struct {
	BaseEvent
	TenantID      string    `json:"tenantId"`
	QuoteID       string    `json:"quoteId"`
	CustomerEmail string    `json:"customerEmail"`
	SentAt        time.Time `json:"sentAt"`
}

func (e QuoteSent) EventName() string { return "quotes.quote.sent" }

// QuoteUnavailable is published when a request matched no hotel inventory.
type QuoteUnavailable struct {
	BaseEvent
	TenantID    string `json:"tenantId"`
	Destination string `json:"destination"`
	Nights      int    `json:"nights"`
}

func (e QuoteUnavailable) EventName() string { return "quotes.quote.no_availability" }

// =============================================================================
// Follow-Up Domain Events
// =============================================================================

// FollowUpCallDue is published by the scheduler worker when a scheduled
// follow-up call reaches its contact time. The external voice subsystem
// consumes these.
type FollowUpCallDue struct {
	BaseEvent
	CallID   uuid.UUID `json:"callId"`
	TenantID string    `json:"tenantId"`
	QuoteID  string    `json:"quoteId"`
	Phone    string    `json:"phone"`
}

func (e FollowUpCallDue) EventName() string { return "followup.call.due" }

// =============================================================================
// CRM Domain Events
// =============================================================================

// CustomerStageAdvanced is published when CRM progression moves a customer
// to a later pipeline stage.
type CustomerStageAdvanced struct {
	BaseEvent
	TenantID      string `json:"tenantId"`
	CustomerEmail string `json:"customerEmail"`
	FromStage     string `json:"fromStage"`
	ToStage       string `json:"toStage"`
}

func (e CustomerStageAdvanced) EventName() string { return "crm.customer.stage_advanced" }
