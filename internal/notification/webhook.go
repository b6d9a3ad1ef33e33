// Package notification pushes best-effort webhook notifications about
// finished quote runs to the agency's configured endpoint.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/config"
	"travelquote_backend/platform/logger"
)

// WebhookClient posts quote notifications to an external webhook. A nil
// client is safe to call; every method becomes a no-op, matching the
// optional-collaborator wiring.
type WebhookClient struct {
	url    string
	apiKey string
	http   *http.Client
	log    *logger.Logger
}

type quotePayload struct {
	Event       string `json:"event"`
	TenantID    string `json:"tenantId"`
	QuoteID     string `json:"quoteId"`
	Customer    string `json:"customer"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
	TotalPrice  int64  `json:"totalPrice"`
	Options     int    `json:"options"`
}

// NewWebhookClient creates the notifier, or nil when no webhook URL is
// configured.
func NewWebhookClient(cfg config.NotificationConfig, log *logger.Logger) *WebhookClient {
	if cfg.GetNotifyWebhookURL() == "" {
		return nil
	}

	return &WebhookClient{
		url:    strings.TrimRight(cfg.GetNotifyWebhookURL(), "/"),
		apiKey: cfg.GetNotifyWebhookKey(),
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// NotifyQuote posts a quote summary to the webhook. It implements the
// orchestrator's Notifier port.
func (c *WebhookClient) NotifyQuote(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) error {
	if c == nil {
		return nil
	}

	return c.post(ctx, quotePayload{
		Event:       "quote." + q.Status,
		TenantID:    tn.ID,
		QuoteID:     q.QuoteID,
		Customer:    q.CustomerName,
		Destination: q.Destination,
		Status:      q.Status,
		TotalPrice:  q.TotalPrice,
		Options:     len(q.Hotels),
	})
}

func (c *WebhookClient) post(ctx context.Context, payload quotePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("quote notification delivered", "event", payload.Event, "quote_id", payload.QuoteID)
	return nil
}
