package service

import (
	"context"

	"travelquote_backend/internal/events"
	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/quotes/transport"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/apperr"
)

// ResendQuote re-renders and re-delivers an already persisted quote of any
// status. It is a delivery retry, not a lifecycle transition, so the stored
// status is never touched.
func (s *Service) ResendQuote(ctx context.Context, tn *tenant.Tenant, quoteID string) *transport.DeliveryResponse {
	q, err := s.repo.GetByQuoteID(ctx, tn.ID, quoteID)
	if err != nil {
		return deliveryFailure(transport.QuoteStatusError, err.Error())
	}

	pdfKey, err := s.render(ctx, tn, q)
	if err != nil {
		return deliveryFailure(transport.QuoteStatus(q.Status), "pdf render failed: "+err.Error())
	}

	if s.email == nil {
		return deliveryFailure(transport.QuoteStatus(q.Status), "no email sender configured")
	}
	if err := s.email.SendQuote(ctx, tn, q, pdfKey); err != nil {
		s.log.DeliveryError("email_resend", q.QuoteID, err)
		return deliveryFailure(transport.QuoteStatus(q.Status), "email send failed: "+err.Error())
	}

	s.log.QuoteEvent("quote_resent", tn.ID, q.QuoteID, q.Status)
	return &transport.DeliveryResponse{Success: true, Status: transport.QuoteStatus(q.Status)}
}

// SendDraftQuote promotes a draft quote to sent. The quote must still be in
// draft; any precondition or delivery failure leaves the stored status
// untouched.
func (s *Service) SendDraftQuote(ctx context.Context, tn *tenant.Tenant, quoteID string) *transport.DeliveryResponse {
	q, err := s.repo.GetByQuoteID(ctx, tn.ID, quoteID)
	if err != nil {
		return deliveryFailure(transport.QuoteStatusError, err.Error())
	}

	if q.Status != string(transport.QuoteStatusDraft) {
		err := apperr.Precondition("quote is not in draft status")
		return deliveryFailure(transport.QuoteStatus(q.Status), err.Error())
	}

	pdfKey, err := s.render(ctx, tn, q)
	if err != nil {
		return deliveryFailure(transport.QuoteStatusDraft, "pdf render failed: "+err.Error())
	}

	if s.email == nil {
		return deliveryFailure(transport.QuoteStatusDraft, "no email sender configured")
	}
	if err := s.email.SendQuote(ctx, tn, q, pdfKey); err != nil {
		s.log.DeliveryError("email_send", q.QuoteID, err)
		return deliveryFailure(transport.QuoteStatusDraft, "email send failed: "+err.Error())
	}

	sentAt := s.now().UTC()
	status := string(transport.QuoteStatusSent)
	emailSent := true
	upd := repository.StatusUpdate{Status: &status, EmailSent: &emailSent, SentAt: &sentAt}
	if err := s.repo.UpdateStatus(ctx, tn.ID, q.QuoteID, upd); err != nil {
		s.log.DatabaseError("promote draft quote", err)
	}

	q.Status = status
	q.EmailSent = true
	q.SentAt = &sentAt

	s.publish(ctx, events.QuoteSent{
		BaseEvent:     events.NewBaseEvent(),
		TenantID:      tn.ID,
		QuoteID:       q.QuoteID,
		CustomerEmail: q.CustomerEmail,
		SentAt:        sentAt,
	})
	s.scheduleFollowUp(ctx, tn, q)
	s.log.QuoteEvent("quote_draft_sent", tn.ID, q.QuoteID, q.Status)

	return &transport.DeliveryResponse{Success: true, Status: transport.QuoteStatusSent}
}

// render re-runs PDF generation for delivery paths. A configured renderer is
// required here since delivery without a document is useless.
func (s *Service) render(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) (string, error) {
	if s.pdf == nil {
		if q.PDFFileKey != nil {
			return *q.PDFFileKey, nil
		}
		return "", apperr.Precondition("no pdf renderer configured")
	}
	return s.pdf.RenderQuote(ctx, tn, q)
}

func deliveryFailure(status transport.QuoteStatus, msg string) *transport.DeliveryResponse {
	return &transport.DeliveryResponse{Success: false, Status: status, Error: msg}
}

// PresignPDF returns a short-lived download URL for the quote's stored
// document.
func (s *Service) PresignPDF(ctx context.Context, tenantID, quoteID string) (*transport.PresignedDownloadResponse, error) {
	q, err := s.repo.GetByQuoteID(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	if s.links == nil || q.PDFFileKey == nil {
		return nil, apperr.NotFound("no document available for this quote")
	}

	link, err := s.links.GenerateDownloadURL(ctx, *q.PDFFileKey)
	if err != nil {
		s.log.DeliveryError("presign", quoteID, err)
		return nil, apperr.Internal("could not generate download link")
	}

	return &transport.PresignedDownloadResponse{
		DownloadURL: link.URL,
		ExpiresAt:   link.ExpiresAt.Unix(),
	}, nil
}
