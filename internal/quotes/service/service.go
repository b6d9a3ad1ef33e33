package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"travelquote_backend/internal/consultants"
	"travelquote_backend/internal/crm"
	"travelquote_backend/internal/events"
	"travelquote_backend/internal/followup"
	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/quotes/transport"
	"travelquote_backend/internal/rates"
	"travelquote_backend/internal/storage"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/logger"
)

// Store is the persistence contract for quote records.
type Store interface {
	Insert(ctx context.Context, q *repository.Quote) error
	GetByQuoteID(ctx context.Context, tenantID, quoteID string) (*repository.Quote, error)
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
	UpdateStatus(ctx context.Context, tenantID, quoteID string, upd repository.StatusUpdate) error
}

// RateMatcher finds and ranks candidate rates for a destination.
type RateMatcher interface {
	Match(ctx context.Context, tn *tenant.Tenant, params rates.MatchParams) []rates.HotelRate
}

// RateFinder queries the warehouse by explicit hotel names, used when the
// caller pre-selected hotels instead of searching a destination.
type RateFinder interface {
	QueryByHotelNames(ctx context.Context, names []string, nights int, checkIn, checkOut time.Time) ([]rates.HotelRate, error)
}

// PDFRenderer renders the quote document and stores it, returning the
// object key of the stored file.
type PDFRenderer interface {
	RenderQuote(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) (string, error)
}

// EmailSender delivers the quote email with the rendered PDF attached.
type EmailSender interface {
	SendQuote(ctx context.Context, tn *tenant.Tenant, q *repository.Quote, pdfKey string) error
}

// CRMRecorder advances the customer's pipeline record after a quote.
type CRMRecorder interface {
	RecordQuote(ctx context.Context, tenantID string, contact crm.Contact) error
}

// Notifier pushes a best-effort notification about a finished quote run.
type Notifier interface {
	NotifyQuote(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) error
}

// ConsultantAllocator hands out the next consultant in rotation.
type ConsultantAllocator interface {
	Next(ctx context.Context, tenantID string) *consultants.Consultant
}

// FollowUpPlanner books a follow-up call for later dispatch.
type FollowUpPlanner interface {
	Schedule(ctx context.Context, tenantID, quoteID, customerName, rawPhone string, at time.Time, auto bool) (*followup.Call, error)
}

// DownloadLinker mints a time-limited download URL for a stored quote PDF.
type DownloadLinker interface {
	GenerateDownloadURL(ctx context.Context, fileKey string) (*storage.PresignedURL, error)
}

// Deps wires the orchestrator's collaborators. Repo, Matcher and Log are
// required; everything else is optional and skipped when nil.
type Deps struct {
	Repo      Store
	Matcher   RateMatcher
	Rates     RateFinder
	Calc      *Calculator
	Allocator ConsultantAllocator
	FollowUps FollowUpPlanner
	Contact   *followup.Scheduler
	PDF       PDFRenderer
	Email     EmailSender
	Links     DownloadLinker
	CRM       CRMRecorder
	Notifier  Notifier
	Bus       events.Bus
	Log       *logger.Logger
}

// Service orchestrates the quote lifecycle.
type Service struct {
	repo      Store
	matcher   RateMatcher
	rates     RateFinder
	calc      *Calculator
	allocator ConsultantAllocator
	followups FollowUpPlanner
	contact   *followup.Scheduler
	pdf       PDFRenderer
	email     EmailSender
	links     DownloadLinker
	crm       CRMRecorder
	notifier  Notifier
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates the quote service.
func New(d Deps) *Service {
	calc := d.Calc
	if calc == nil {
		calc = NewCalculator(nil)
	}
	contact := d.Contact
	if contact == nil {
		contact = followup.NewScheduler()
	}
	return &Service{
		repo:      d.Repo,
		matcher:   d.Matcher,
		rates:     d.Rates,
		calc:      calc,
		allocator: d.Allocator,
		followups: d.FollowUps,
		contact:   contact,
		pdf:       d.PDF,
		email:     d.Email,
		links:     d.Links,
		crm:       d.CRM,
		notifier:  d.Notifier,
		bus:       d.Bus,
		log:       d.Log,
		now:       time.Now,
	}
}

// GetQuote returns a single quote by its human-facing identifier.
func (s *Service) GetQuote(ctx context.Context, tenantID, quoteID string) (*transport.QuoteResponse, error) {
	q, err := s.repo.GetByQuoteID(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(q)
	return &resp, nil
}

// ListQuotes returns a filtered page of quotes for a tenant.
func (s *Service) ListQuotes(ctx context.Context, tenantID string, req transport.ListQuotesRequest) (*transport.QuoteListResponse, error) {
	params := repository.ListParams{
		TenantID: tenantID,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		params.Status = &req.Status
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.QuoteResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toResponse(&result.Items[i]))
	}
	return &transport.QuoteListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// newQuoteID builds a date-stamped identifier with a random suffix,
// e.g. QT-20260829-4f21c8.
func (s *Service) newQuoteID() string {
	var buf [3]byte
	rand.Read(buf[:])
	return "QT-" + s.now().UTC().Format("20060102") + "-" + hex.EncodeToString(buf[:])
}

const dateLayout = "2006-01-02"

func toResponse(q *repository.Quote) transport.QuoteResponse {
	hotels := make([]transport.HotelOptionResponse, 0, len(q.Hotels))
	for _, h := range q.Hotels {
		hotels = append(hotels, transport.HotelOptionResponse{
			RateID:        h.RateID,
			HotelName:     h.HotelName,
			StarRating:    h.StarRating,
			RoomType:      h.RoomType,
			MealPlan:      h.MealPlan,
			SharingAdults: transport.PricedCategory(h.SharingAdults),
			SingleAdults:  transport.PricedCategory(h.SingleAdults),
			Children:      transport.PricedCategory(h.Children),
			Infants:       transport.PricedCategory(h.Infants),
			TotalPrice:    h.TotalPrice,
		})
	}

	return transport.QuoteResponse{
		ID:            q.ID,
		QuoteID:       q.QuoteID,
		TenantID:      q.TenantID,
		CustomerName:  q.CustomerName,
		CustomerEmail: q.CustomerEmail,
		CustomerPhone: q.CustomerPhone,
		Destination:   q.Destination,
		CheckIn:       q.CheckIn.Format(dateLayout),
		CheckOut:      q.CheckOut.Format(dateLayout),
		Nights:        q.Nights,
		Adults:        q.Adults,
		Children:      q.Children,
		ChildAges:     q.ChildAges,
		Hotels:        hotels,
		TotalPrice:    q.TotalPrice,
		Status:        transport.QuoteStatus(q.Status),
		EmailSent:     q.EmailSent,
		PDFGenerated:  q.PDFGenerated,
		PDFFileKey:    q.PDFFileKey,
		ConsultantID:  q.ConsultantID,
		CreatedAt:     q.CreatedAt,
		SentAt:        q.SentAt,
		ViewedAt:      q.ViewedAt,
		AcceptedAt:    q.AcceptedAt,
	}
}
