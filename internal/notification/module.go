package notification

import (
	"context"

	"travelquote_backend/internal/events"
	"travelquote_backend/platform/logger"
)

// Module subscribes the webhook notifier to domain events so follow-up and
// CRM activity reaches the agency's endpoint without coupling those modules
// to HTTP delivery.
type Module struct {
	webhook *WebhookClient
	log     *logger.Logger
}

// New creates the notification module. webhook may be nil.
func New(webhook *WebhookClient, log *logger.Logger) *Module {
	return &Module{webhook: webhook, log: log}
}

// RegisterHandlers subscribes to the domain events this module cares about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.FollowUpCallDue{}.EventName(), events.HandlerFunc(m.onFollowUpDue))
	bus.Subscribe(events.CustomerStageAdvanced{}.EventName(), events.HandlerFunc(m.onStageAdvanced))
}

func (m *Module) onFollowUpDue(ctx context.Context, event events.Event) error {
	due, ok := event.(events.FollowUpCallDue)
	if !ok {
		return nil
	}
	m.log.Info("follow-up call due",
		"tenant_id", due.TenantID,
		"quote_id", due.QuoteID,
		"call_id", due.CallID,
	)
	return nil
}

func (m *Module) onStageAdvanced(ctx context.Context, event events.Event) error {
	adv, ok := event.(events.CustomerStageAdvanced)
	if !ok {
		return nil
	}
	m.log.Info("customer stage advanced",
		"tenant_id", adv.TenantID,
		"from", adv.FromStage,
		"to", adv.ToStage,
	)
	return nil
}
