package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"travelquote_backend/internal/crm"
	"travelquote_backend/internal/events"
	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/quotes/transport"
	"travelquote_backend/internal/rates"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/apperr"
	"travelquote_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	defaultAdults       = 2
	defaultLeadTime     = 30 * 24 * time.Hour
	pricedOptionsFactor = 2
)

// GenerateQuote runs the full generation flow for one travel request. It
// never returns an error; every outcome, including a panic in a
// collaborator, is folded into the structured response.
func (s *Service) GenerateQuote(ctx context.Context, tn *tenant.Tenant, req transport.GenerateQuoteRequest) (resp *transport.GenerateQuoteResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("quote generation panicked", "tenant_id", tn.ID, "panic", r)
			resp = &transport.GenerateQuoteResponse{
				Success: false,
				Status:  transport.QuoteStatusError,
				Error:   fmt.Sprintf("unexpected failure: %v", r),
			}
		}
	}()

	norm := s.normalize(tn, req)

	candidates := s.findRates(ctx, tn, norm)
	if len(candidates) == 0 {
		return s.finishUnavailable(ctx, tn, norm)
	}

	options := s.priceOptions(ctx, candidates, norm, tn.OptionCount())
	if len(options) == 0 {
		s.log.QuoteEvent("quote_pricing_failed", tn.ID, "", string(transport.QuoteStatusPricingError))
		return &transport.GenerateQuoteResponse{
			Success: false,
			Status:  transport.QuoteStatusPricingError,
			Error:   "no hotel option priced successfully",
		}
	}

	var consultantID *uuid.UUID
	if req.AssignConsultant && s.allocator != nil {
		if c := s.allocator.Next(ctx, tn.ID); c != nil {
			consultantID = &c.ID
		}
	}

	q := s.buildQuote(tn, norm, options, consultantID, req.AsDraft)

	s.renderAndDeliver(ctx, tn, q)

	if err := s.repo.Insert(ctx, q); err != nil {
		s.log.DatabaseError("insert quote", err)
	}

	s.recordCRM(ctx, tn, norm)
	s.notify(ctx, tn, q)

	result := toResponse(q)
	return &transport.GenerateQuoteResponse{
		Success: true,
		Status:  transport.QuoteStatus(q.Status),
		Quote:   &result,
	}
}

// normalized is the request after default filling and destination
// canonicalization.
type normalized struct {
	req         transport.GenerateQuoteRequest
	destination string
	checkIn     time.Time
	checkOut    time.Time
	nights      int
	comp        TravelerComposition
}

func (s *Service) normalize(tn *tenant.Tenant, req transport.GenerateQuoteRequest) normalized {
	now := s.now().UTC()

	checkIn := now.Add(defaultLeadTime).Truncate(24 * time.Hour)
	if req.CheckIn != nil {
		if t, err := time.Parse(dateLayout, *req.CheckIn); err == nil {
			checkIn = t
		}
	}

	nights := req.Nights
	var checkOut time.Time
	if req.CheckOut != nil {
		if t, err := time.Parse(dateLayout, *req.CheckOut); err == nil && t.After(checkIn) {
			checkOut = t
		}
	}
	if checkOut.IsZero() {
		if nights < 1 {
			nights = tn.NightsDefault()
		}
		checkOut = checkIn.AddDate(0, 0, nights)
	} else {
		nights = int(checkOut.Sub(checkIn).Hours() / 24)
	}

	adults := req.Adults
	if adults < 1 {
		adults = defaultAdults
	}
	singles := req.SingleAdults
	if singles > adults {
		singles = adults
	}

	destination := strings.TrimSpace(req.Destination)
	if canonical, ok := tn.CanonicalDestination(destination); ok {
		destination = canonical
	}

	return normalized{
		req:         req,
		destination: destination,
		checkIn:     checkIn,
		checkOut:    checkOut,
		nights:      nights,
		comp: TravelerComposition{
			Adults:       adults,
			SingleAdults: singles,
			ChildAges:    req.ChildAges,
		},
	}
}

// findRates resolves candidate rates either by explicit hotel selection or
// through destination matching. Warehouse failures degrade to an empty
// candidate set.
func (s *Service) findRates(ctx context.Context, tn *tenant.Tenant, norm normalized) []rates.HotelRate {
	if len(norm.req.HotelNames) > 0 && s.rates != nil {
		rows, err := s.rates.QueryByHotelNames(ctx, norm.req.HotelNames, norm.nights, norm.checkIn, norm.checkOut)
		if err != nil {
			s.log.RateQueryError(norm.destination, err)
			return nil
		}
		return rates.Deduplicate(rows)
	}

	return s.matcher.Match(ctx, tn, rates.MatchParams{
		Destination:        norm.destination,
		CheckIn:            norm.checkIn,
		CheckOut:           norm.checkOut,
		Nights:             norm.nights,
		Adults:             norm.comp.Adults,
		ChildAges:          norm.comp.ChildAges,
		BudgetPerPerson:    norm.req.BudgetPerPerson,
		MealPlanPreference: norm.req.MealPlanPreference,
	})
}

// priceOptions prices candidates, keeping one priced option per hotel and at
// most twice the requested count overall, then returns the cheapest
// maxOptions. Candidates that fail to price are skipped, so a later rate for
// the same hotel still gets a chance.
func (s *Service) priceOptions(ctx context.Context, candidates []rates.HotelRate, norm normalized, maxOptions int) []repository.HotelOption {
	seen := make(map[string]bool)
	options := make([]repository.HotelOption, 0, len(candidates))

	for _, rate := range candidates {
		key := strings.ToLower(rate.HotelName)
		if seen[key] {
			continue
		}
		if len(options) >= pricedOptionsFactor*maxOptions {
			break
		}

		b, ok := s.price(ctx, rate, norm.comp)
		if !ok {
			continue
		}
		seen[key] = true
		options = append(options, repository.HotelOption{
			RateID:        rate.RateID,
			HotelName:     rate.HotelName,
			StarRating:    rate.StarRating,
			RoomType:      rate.RoomType,
			MealPlan:      rate.MealPlan,
			SharingAdults: toRepoCategory(b.SharingAdults),
			SingleAdults:  toRepoCategory(b.SingleAdults),
			Children:      toRepoCategory(b.Children),
			Infants:       toRepoCategory(b.Infants),
			TotalPrice:    b.Total,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].TotalPrice < options[j].TotalPrice
	})
	if len(options) > maxOptions {
		options = options[:maxOptions]
	}
	return options
}

// price computes the breakdown for one candidate rate. A rate whose cached
// row prices to zero is re-resolved from the warehouse; hotels that still
// cannot produce a positive total are skipped.
func (s *Service) price(ctx context.Context, rate rates.HotelRate, comp TravelerComposition) (PricingBreakdown, bool) {
	b := s.calc.Price(rate, comp)
	if b.Total > 0 {
		return b, true
	}

	fresh, err := s.calc.PriceByID(ctx, rate.RateID, comp)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.Warn("rate no longer available, skipping hotel",
				"rate_id", rate.RateID, "hotel", rate.HotelName)
		} else {
			s.log.Error("rate re-pricing failed",
				"rate_id", rate.RateID, "hotel", rate.HotelName, "error", err.Error())
		}
		return PricingBreakdown{}, false
	}
	if fresh.Total <= 0 {
		return PricingBreakdown{}, false
	}
	return *fresh, true
}

func (s *Service) buildQuote(tn *tenant.Tenant, norm normalized, options []repository.HotelOption, consultantID *uuid.UUID, asDraft bool) *repository.Quote {
	status := transport.QuoteStatusGenerated
	if asDraft {
		status = transport.QuoteStatusDraft
	}

	var phone *string
	if p := strings.TrimSpace(norm.req.CustomerPhone); p != "" {
		phone = &p
	}

	var total int64
	if len(options) > 0 {
		total = options[0].TotalPrice
	}

	return &repository.Quote{
		ID:            uuid.New(),
		QuoteID:       s.newQuoteID(),
		TenantID:      tn.ID,
		CustomerName:  norm.req.CustomerName,
		CustomerEmail: norm.req.CustomerEmail,
		CustomerPhone: phone,
		Destination:   norm.destination,
		CheckIn:       norm.checkIn,
		CheckOut:      norm.checkOut,
		Nights:        norm.nights,
		Adults:        norm.comp.Adults,
		Children:      len(norm.comp.ChildAges),
		ChildAges:     norm.comp.ChildAges,
		Hotels:        options,
		TotalPrice:    total,
		Status:        string(status),
		ConsultantID:  consultantID,
		CreatedAt:     s.now().UTC(),
	}
}

// renderAndDeliver runs the PDF, email and follow-up steps, mutating the
// in-memory quote. Every failure here is recorded on the quote instead of
// aborting the flow.
func (s *Service) renderAndDeliver(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) {
	if s.pdf != nil {
		key, err := s.pdf.RenderQuote(ctx, tn, q)
		if err != nil {
			s.log.DeliveryError("pdf_render", q.QuoteID, err)
			msg := "pdf render failed: " + err.Error()
			q.DeliveryError = &msg
		} else {
			q.PDFGenerated = true
			q.PDFFileKey = &key
		}
	}

	if q.Status == string(transport.QuoteStatusDraft) || !q.PDFGenerated || s.email == nil {
		return
	}

	pdfKey := ""
	if q.PDFFileKey != nil {
		pdfKey = *q.PDFFileKey
	}
	if err := s.email.SendQuote(ctx, tn, q, pdfKey); err != nil {
		s.log.DeliveryError("email_send", q.QuoteID, err)
		msg := "email send failed: " + err.Error()
		q.DeliveryError = &msg
		return
	}

	sentAt := s.now().UTC()
	q.Status = string(transport.QuoteStatusSent)
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
}

func (s *Service) scheduleFollowUp(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) {
	if s.followups == nil || q.CustomerPhone == nil {
		return
	}
	at := s.contact.NextContactTime(tn)
	contactPhone := phone.NormalizeE164Region(*q.CustomerPhone, tn.CountryCode)
	if _, err := s.followups.Schedule(ctx, tn.ID, q.QuoteID, q.CustomerName, contactPhone, at, true); err != nil {
		s.log.DeliveryError("followup_schedule", q.QuoteID, err)
	}
}

func (s *Service) finishUnavailable(ctx context.Context, tn *tenant.Tenant, norm normalized) *transport.GenerateQuoteResponse {
	q := s.buildUnavailableQuote(tn, norm)
	if err := s.repo.Insert(ctx, q); err != nil {
		s.log.DatabaseError("insert quote", err)
	}

	s.publish(ctx, events.QuoteUnavailable{
		BaseEvent:   events.NewBaseEvent(),
		TenantID:    tn.ID,
		Destination: norm.destination,
		Nights:      norm.nights,
	})
	s.log.QuoteEvent("quote_no_availability", tn.ID, q.QuoteID, q.Status)

	result := toResponse(q)
	return &transport.GenerateQuoteResponse{
		Success: true,
		Status:  transport.QuoteStatusNoAvailability,
		Quote:   &result,
	}
}

func (s *Service) buildUnavailableQuote(tn *tenant.Tenant, norm normalized) *repository.Quote {
	q := s.buildQuote(tn, norm, nil, nil, false)
	q.Status = string(transport.QuoteStatusNoAvailability)
	q.TotalPrice = 0
	return q
}

func (s *Service) recordCRM(ctx context.Context, tn *tenant.Tenant, norm normalized) {
	if s.crm == nil {
		return
	}
	err := s.crm.RecordQuote(ctx, tn.ID, crm.Contact{
		Name:  norm.req.CustomerName,
		Email: norm.req.CustomerEmail,
		Phone: norm.req.CustomerPhone,
	})
	if err != nil {
		s.log.Warn("crm progression failed", "tenant_id", tn.ID, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) {
	s.publish(ctx, events.QuoteGenerated{
		BaseEvent:     events.NewBaseEvent(),
		TenantID:      tn.ID,
		QuoteID:       q.QuoteID,
		CustomerName:  q.CustomerName,
		CustomerEmail: q.CustomerEmail,
		Destination:   q.Destination,
		TotalPrice:    q.TotalPrice,
		Status:        q.Status,
		OptionCount:   len(q.Hotels),
	})
	s.log.QuoteEvent("quote_generated", tn.ID, q.QuoteID, q.Status)

	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyQuote(ctx, tn, q); err != nil {
		s.log.Warn("quote notification failed", "tenant_id", tn.ID, "quote_id", q.QuoteID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, ev)
	}
}
