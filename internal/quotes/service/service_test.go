package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelquote_backend/internal/consultants"
	"travelquote_backend/internal/crm"
	"travelquote_backend/internal/followup"
	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/quotes/transport"
	"travelquote_backend/internal/rates"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/apperr"
	"travelquote_backend/platform/logger"

	"github.com/google/uuid"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeStore struct {
	inserted  *repository.Quote
	insertErr error

	quotes map[string]*repository.Quote

	statusUpdates int
	lastUpdate    repository.StatusUpdate
}

func (f *fakeStore) Insert(_ context.Context, q *repository.Quote) error {
	f.inserted = q
	return f.insertErr
}

func (f *fakeStore) GetByQuoteID(_ context.Context, _, quoteID string) (*repository.Quote, error) {
	if q, ok := f.quotes[quoteID]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, apperr.NotFound("quote not found")
}

func (f *fakeStore) List(_ context.Context, _ repository.ListParams) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, _, _ string, upd repository.StatusUpdate) error {
	f.statusUpdates++
	f.lastUpdate = upd
	return nil
}

type fakeMatcher struct {
	result []rates.HotelRate
	params rates.MatchParams
}

func (f *fakeMatcher) Match(_ context.Context, _ *tenant.Tenant, params rates.MatchParams) []rates.HotelRate {
	f.params = params
	return f.result
}

type fakeFinder struct {
	result []rates.HotelRate
	err    error
	names  []string
}

func (f *fakeFinder) QueryByHotelNames(_ context.Context, names []string, _ int, _, _ time.Time) ([]rates.HotelRate, error) {
	f.names = names
	return f.result, f.err
}

type fakePDF struct {
	err   error
	calls int
}

func (f *fakePDF) RenderQuote(_ context.Context, _ *tenant.Tenant, _ *repository.Quote) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "quotes/test.pdf", nil
}

type fakeEmail struct {
	err   error
	calls int
}

func (f *fakeEmail) SendQuote(_ context.Context, _ *tenant.Tenant, _ *repository.Quote, _ string) error {
	f.calls++
	return f.err
}

type fakeCRM struct {
	calls   int
	contact crm.Contact
}

func (f *fakeCRM) RecordQuote(_ context.Context, _ string, contact crm.Contact) error {
	f.calls++
	f.contact = contact
	return nil
}

type fakeNotifier struct{ calls int }

func (f *fakeNotifier) NotifyQuote(_ context.Context, _ *tenant.Tenant, _ *repository.Quote) error {
	f.calls++
	return nil
}

type fakeAllocator struct{ consultant *consultants.Consultant }

func (f *fakeAllocator) Next(_ context.Context, _ string) *consultants.Consultant {
	return f.consultant
}

type fakeFollowUps struct {
	calls int
	at    time.Time
}

func (f *fakeFollowUps) Schedule(_ context.Context, tenantID, quoteID, customerName, rawPhone string, at time.Time, auto bool) (*followup.Call, error) {
	f.calls++
	f.at = at
	return &followup.Call{ID: uuid.New(), TenantID: tenantID, QuoteID: quoteID, ScheduledAt: at}, nil
}

type fakeRateResolver struct {
	rate *rates.HotelRate
	err  error
}

func (f *fakeRateResolver) QueryByRateID(_ context.Context, _ string) (*rates.HotelRate, error) {
	return f.rate, f.err
}

// =============================================================================
// Helpers
// =============================================================================

func quoteTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:               "safari-co",
		Name:             "Safari Co",
		Currency:         "ZAR",
		Timezone:         "Africa/Johannesburg",
		QuoteOptionCount: 3,
		DefaultNights:    3,
		Destinations: []tenant.Destination{
			{Name: "Kruger National Park", Aliases: []string{"Kruger", "KNP"}},
		},
	}
}

func matchedRate(id, hotel string, sharing int64) rates.HotelRate {
	return rates.HotelRate{
		RateID:       id,
		HotelName:    hotel,
		StarRating:   4,
		RoomType:     "Standard",
		MealPlan:     "BB",
		PriceSharing: sharing,
		Nights:       3,
		Active:       true,
	}
}

type deps struct {
	store     *fakeStore
	matcher   *fakeMatcher
	finder    *fakeFinder
	pdf       *fakePDF
	email     *fakeEmail
	crm       *fakeCRM
	notifier  *fakeNotifier
	allocator *fakeAllocator
	followups *fakeFollowUps
}

func newTestService(d *deps) *Service {
	return New(Deps{
		Repo:      d.store,
		Matcher:   d.matcher,
		Rates:     d.finder,
		Allocator: d.allocator,
		FollowUps: d.followups,
		PDF:       d.pdf,
		Email:     d.email,
		CRM:       d.crm,
		Notifier:  d.notifier,
		Log:       logger.New("test"),
	})
}

func newDeps() *deps {
	return &deps{
		store:     &fakeStore{quotes: map[string]*repository.Quote{}},
		matcher:   &fakeMatcher{},
		finder:    &fakeFinder{},
		pdf:       &fakePDF{},
		email:     &fakeEmail{},
		crm:       &fakeCRM{},
		notifier:  &fakeNotifier{},
		allocator: &fakeAllocator{},
		followups: &fakeFollowUps{},
	}
}

func baseRequest() transport.GenerateQuoteRequest {
	return transport.GenerateQuoteRequest{
		CustomerName:  "Naledi Dlamini",
		CustomerEmail: "naledi@example.com",
		CustomerPhone: "0821234567",
		Destination:   "kruger",
		Adults:        2,
	}
}

// =============================================================================
// Generation
// =============================================================================

func TestGenerateQuoteNoAvailability(t *testing.T) {
	d := newDeps()
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	if !resp.Success {
		t.Fatal("no availability must still report success")
	}
	if resp.Status != transport.QuoteStatusNoAvailability {
		t.Fatalf("expected no_availability, got %s", resp.Status)
	}
	if d.email.calls != 0 {
		t.Fatal("no email must be sent without availability")
	}
	if d.store.inserted == nil {
		t.Fatal("unavailable quote must still be persisted for audit")
	}
}

func TestGenerateQuoteHappyPathSends(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{
		matchedRate("r-1", "Mopani Lodge", 1500),
		matchedRate("r-2", "Letaba Camp", 1200),
	}
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	if !resp.Success || resp.Status != transport.QuoteStatusSent {
		t.Fatalf("expected sent, got success=%v status=%s error=%q", resp.Success, resp.Status, resp.Error)
	}
	if d.email.calls != 1 {
		t.Fatalf("expected one email, got %d", d.email.calls)
	}
	if d.followups.calls != 1 {
		t.Fatalf("expected one follow-up, got %d", d.followups.calls)
	}
	if d.crm.calls != 1 {
		t.Fatalf("expected one crm update, got %d", d.crm.calls)
	}
	if resp.Quote == nil || !resp.Quote.EmailSent || !resp.Quote.PDFGenerated {
		t.Fatal("expected email_sent and pdf_generated flags on the quote")
	}
}

func TestGenerateQuoteOptionsSortedCheapestFirst(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{
		matchedRate("r-1", "Mopani Lodge", 2000),
		matchedRate("r-2", "Letaba Camp", 1200),
		matchedRate("r-3", "Olifants Camp", 1600),
		matchedRate("r-4", "Satara Camp", 900),
	}
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	hotels := resp.Quote.Hotels
	if len(hotels) != 3 {
		t.Fatalf("expected 3 options, got %d", len(hotels))
	}
	for i := 1; i < len(hotels); i++ {
		if hotels[i-1].TotalPrice > hotels[i].TotalPrice {
			t.Fatalf("options not sorted ascending: %d before %d", hotels[i-1].TotalPrice, hotels[i].TotalPrice)
		}
	}
	if hotels[0].HotelName != "Satara Camp" {
		t.Fatalf("cheapest option should lead, got %s", hotels[0].HotelName)
	}
	if resp.Quote.TotalPrice != hotels[0].TotalPrice {
		t.Fatal("quote total must equal the cheapest option")
	}
}

func TestGenerateQuoteDeduplicatesHotels(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{
		matchedRate("r-1", "Mopani Lodge", 1000),
		matchedRate("r-2", "Mopani Lodge", 1100),
		matchedRate("r-3", "Letaba Camp", 3000),
		matchedRate("r-4", "Satara Camp", 4000),
	}
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	hotels := resp.Quote.Hotels
	if len(hotels) != 3 {
		t.Fatalf("expected 3 options, got %d", len(hotels))
	}
	want := []string{"Mopani Lodge", "Letaba Camp", "Satara Camp"}
	for i, name := range want {
		if hotels[i].HotelName != name {
			t.Fatalf("option %d: expected %s, got %s", i, name, hotels[i].HotelName)
		}
	}
	if resp.Quote.TotalPrice != 2000 {
		t.Fatalf("expected the cheapest Mopani rate to win, got total %d", resp.Quote.TotalPrice)
	}
}

func TestGenerateQuotePricingErrorWhenNothingPrices(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{
		matchedRate("r-1", "Mopani Lodge", 0),
		matchedRate("r-2", "Letaba Camp", 0),
	}
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	if resp.Success {
		t.Fatal("expected failure when no option prices")
	}
	if resp.Status != transport.QuoteStatusPricingError {
		t.Fatalf("expected pricing_error, got %s", resp.Status)
	}
	if d.email.calls != 0 {
		t.Fatal("failed pricing must not send email")
	}
	if d.store.inserted != nil {
		t.Fatal("failed pricing must not persist a quote")
	}
}

func TestGenerateQuoteReResolvesZeroPricedRate(t *testing.T) {
	fresh := matchedRate("r-1", "Mopani Lodge", 1250)
	d := newDeps()
	d.matcher.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 0)}
	svc := New(Deps{
		Repo:    d.store,
		Matcher: d.matcher,
		Calc:    NewCalculator(&fakeRateResolver{rate: &fresh}),
		Log:     logger.New("test"),
	})

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	if !resp.Success {
		t.Fatalf("expected success, got status=%s error=%q", resp.Status, resp.Error)
	}
	if len(resp.Quote.Hotels) != 1 {
		t.Fatalf("expected 1 option, got %d", len(resp.Quote.Hotels))
	}
	if got := resp.Quote.Hotels[0].TotalPrice; got != 2500 {
		t.Fatalf("expected re-priced total 2500, got %d", got)
	}
}

func TestGenerateQuoteDraftSkipsEmail(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 1200)}
	svc := newTestService(d)

	req := baseRequest()
	req.AsDraft = true
	resp := svc.GenerateQuote(context.Background(), quoteTenant(), req)

	if resp.Status != transport.QuoteStatusDraft {
		t.Fatalf("expected draft, got %s", resp.Status)
	}
	if d.email.calls != 0 {
		t.Fatal("draft quotes must not be emailed")
	}
	if d.pdf.calls != 1 {
		t.Fatal("drafts still render a preview PDF")
	}
	if d.followups.calls != 0 {
		t.Fatal("drafts must not schedule follow-ups")
	}
}

func TestGenerateQuoteEmailFailureStaysGenerated(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 1200)}
	d.email.err = errors.New("smtp down")
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	if !resp.Success {
		t.Fatal("delivery failure must not fail the operation")
	}
	if resp.Status != transport.QuoteStatusGenerated {
		t.Fatalf("expected generated, got %s", resp.Status)
	}
	if d.followups.calls != 0 {
		t.Fatal("no follow-up without a delivered email")
	}
}

func TestGenerateQuotePersistFailureNonFatal(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 1200)}
	d.store.insertErr = errors.New("db down")
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	if !resp.Success || resp.Quote == nil {
		t.Fatal("persistence failure must not change the returned result")
	}
}

func TestGenerateQuoteHotelNameOverride(t *testing.T) {
	d := newDeps()
	d.finder.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 1200)}
	svc := newTestService(d)

	req := baseRequest()
	req.HotelNames = []string{"Mopani Lodge"}
	resp := svc.GenerateQuote(context.Background(), quoteTenant(), req)

	if resp.Status != transport.QuoteStatusSent {
		t.Fatalf("expected sent, got %s", resp.Status)
	}
	if len(d.finder.names) != 1 || d.finder.names[0] != "Mopani Lodge" {
		t.Fatalf("expected hotel-name query, got %v", d.finder.names)
	}
	if d.matcher.params.Destination != "" {
		t.Fatal("matcher must be bypassed when hotels are pre-selected")
	}
}

func TestGenerateQuoteCanonicalizesDestination(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 1200)}
	svc := newTestService(d)

	resp := svc.GenerateQuote(context.Background(), quoteTenant(), baseRequest())

	if resp.Quote.Destination != "Kruger National Park" {
		t.Fatalf("expected canonical destination, got %q", resp.Quote.Destination)
	}
}

func TestGenerateQuoteConsultantAssignment(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 1200)}
	id := uuid.New()
	d.allocator.consultant = &consultants.Consultant{ID: id, Name: "Thandi"}
	svc := newTestService(d)

	req := baseRequest()
	req.AssignConsultant = true
	resp := svc.GenerateQuote(context.Background(), quoteTenant(), req)

	if resp.Quote.ConsultantID == nil || *resp.Quote.ConsultantID != id {
		t.Fatal("expected assigned consultant on the quote")
	}
}

func TestGenerateQuoteNoPhoneSkipsFollowUp(t *testing.T) {
	d := newDeps()
	d.matcher.result = []rates.HotelRate{matchedRate("r-1", "Mopani Lodge", 1200)}
	svc := newTestService(d)

	req := baseRequest()
	req.CustomerPhone = ""
	resp := svc.GenerateQuote(context.Background(), quoteTenant(), req)

	if resp.Status != transport.QuoteStatusSent {
		t.Fatalf("expected sent, got %s", resp.Status)
	}
	if d.followups.calls != 0 {
		t.Fatal("no follow-up without a phone number")
	}
}

func TestGenerateQuoteDefaults(t *testing.T) {
	d := newDeps()
	svc := newTestService(d)

	req := baseRequest()
	req.Adults = 0
	svc.GenerateQuote(context.Background(), quoteTenant(), req)

	if d.matcher.params.Adults != 2 {
		t.Fatalf("expected default 2 adults, got %d", d.matcher.params.Adults)
	}
	if d.matcher.params.Nights != 3 {
		t.Fatalf("expected tenant default nights, got %d", d.matcher.params.Nights)
	}
	if !d.matcher.params.CheckOut.Equal(d.matcher.params.CheckIn.AddDate(0, 0, 3)) {
		t.Fatal("check-out must be check-in plus default nights")
	}
}

// =============================================================================
// Delivery
// =============================================================================

func storedQuote(quoteID, status string) *repository.Quote {
	phone := "+27821234567"
	return &repository.Quote{
		ID:            uuid.New(),
		QuoteID:       quoteID,
		TenantID:      "safari-co",
		CustomerName:  "Naledi Dlamini",
		CustomerEmail: "naledi@example.com",
		CustomerPhone: &phone,
		Destination:   "Kruger National Park",
		Status:        status,
	}
}

func TestSendDraftQuotePromotesToSent(t *testing.T) {
	d := newDeps()
	d.store.quotes["QT-1"] = storedQuote("QT-1", "draft")
	svc := newTestService(d)

	resp := svc.SendDraftQuote(context.Background(), quoteTenant(), "QT-1")

	if !resp.Success || resp.Status != transport.QuoteStatusSent {
		t.Fatalf("expected sent, got success=%v status=%s", resp.Success, resp.Status)
	}
	if d.store.statusUpdates != 1 {
		t.Fatalf("expected one status update, got %d", d.store.statusUpdates)
	}
	if d.store.lastUpdate.Status == nil || *d.store.lastUpdate.Status != "sent" {
		t.Fatal("expected stored status sent")
	}
	if d.followups.calls != 1 {
		t.Fatal("expected follow-up on draft send")
	}
}

func TestSendDraftQuoteRejectsNonDraft(t *testing.T) {
	d := newDeps()
	d.store.quotes["QT-1"] = storedQuote("QT-1", "sent")
	svc := newTestService(d)

	resp := svc.SendDraftQuote(context.Background(), quoteTenant(), "QT-1")

	if resp.Success {
		t.Fatal("sending a non-draft quote must fail")
	}
	if d.email.calls != 0 {
		t.Fatal("email sender must not be called on precondition failure")
	}
	if d.store.statusUpdates != 0 {
		t.Fatal("stored status must not change on precondition failure")
	}
}

func TestSendDraftQuoteEmailFailureKeepsDraft(t *testing.T) {
	d := newDeps()
	d.store.quotes["QT-1"] = storedQuote("QT-1", "draft")
	d.email.err = errors.New("smtp down")
	svc := newTestService(d)

	resp := svc.SendDraftQuote(context.Background(), quoteTenant(), "QT-1")

	if resp.Success {
		t.Fatal("delivery failure must be reported")
	}
	if d.store.statusUpdates != 0 {
		t.Fatal("stored status must stay draft after a failed send")
	}
}

func TestResendQuoteWorksForAnyStatus(t *testing.T) {
	for _, status := range []string{"draft", "sent", "viewed", "accepted"} {
		t.Run(status, func(t *testing.T) {
			d := newDeps()
			d.store.quotes["QT-1"] = storedQuote("QT-1", status)
			svc := newTestService(d)

			resp := svc.ResendQuote(context.Background(), quoteTenant(), "QT-1")

			if !resp.Success {
				t.Fatalf("resend must succeed for status %s: %s", status, resp.Error)
			}
			if resp.Status != transport.QuoteStatus(status) {
				t.Fatalf("resend must report the unchanged status, got %s", resp.Status)
			}
			if d.store.statusUpdates != 0 {
				t.Fatal("resend must never touch stored status")
			}
			if d.email.calls != 1 {
				t.Fatalf("expected one email, got %d", d.email.calls)
			}
		})
	}
}

func TestResendQuoteUnknownQuote(t *testing.T) {
	d := newDeps()
	svc := newTestService(d)

	resp := svc.ResendQuote(context.Background(), quoteTenant(), "missing")
	if resp.Success {
		t.Fatal("resend of a missing quote must fail")
	}
	if d.email.calls != 0 {
		t.Fatal("no email for a missing quote")
	}
}
