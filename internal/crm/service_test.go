package crm

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeCustomerStore struct {
	existing *Customer
	inserted *Customer

	updatedID    uuid.UUID
	updatedCount int
	updatedStage string
	updateCalled bool
}

func (f *fakeCustomerStore) GetByEmail(_ context.Context, _, _ string) (*Customer, error) {
	return f.existing, nil
}

func (f *fakeCustomerStore) Insert(_ context.Context, c *Customer) error {
	f.inserted = c
	return nil
}

func (f *fakeCustomerStore) UpdateProgress(_ context.Context, id uuid.UUID, quoteCount int, stage string, _ time.Time) error {
	f.updateCalled = true
	f.updatedID = id
	f.updatedCount = quoteCount
	f.updatedStage = stage
	return nil
}

func TestRecordQuoteCreatesNewCustomerInQuoted(t *testing.T) {
	store := &fakeCustomerStore{}
	svc := NewService(store, nil)

	err := svc.RecordQuote(context.Background(), "safari-co", Contact{
		Name:  "Naledi Dlamini",
		Email: "naledi@example.com",
	})
	if err != nil {
		t.Fatalf("record quote: %v", err)
	}

	if store.inserted == nil {
		t.Fatal("expected customer insert")
	}
	if store.inserted.Stage != StageQuoted {
		t.Fatalf("expected stage %q, got %q", StageQuoted, store.inserted.Stage)
	}
	if store.inserted.QuoteCount != 1 {
		t.Fatalf("expected quote count 1, got %d", store.inserted.QuoteCount)
	}
}

func TestRecordQuoteSecondQuoteAdvancesToNegotiating(t *testing.T) {
	store := &fakeCustomerStore{existing: &Customer{
		ID:         uuid.New(),
		Stage:      StageQuoted,
		QuoteCount: 1,
	}}
	svc := NewService(store, nil)

	if err := svc.RecordQuote(context.Background(), "safari-co", Contact{Email: "naledi@example.com"}); err != nil {
		t.Fatalf("record quote: %v", err)
	}

	if !store.updateCalled {
		t.Fatal("expected progress update")
	}
	if store.updatedCount != 2 {
		t.Fatalf("expected quote count 2, got %d", store.updatedCount)
	}
	if store.updatedStage != StageNegotiating {
		t.Fatalf("expected stage %q, got %q", StageNegotiating, store.updatedStage)
	}
}

func TestRecordQuoteNeverRegressesStage(t *testing.T) {
	store := &fakeCustomerStore{existing: &Customer{
		ID:         uuid.New(),
		Stage:      StageBooked,
		QuoteCount: 4,
	}}
	svc := NewService(store, nil)

	if err := svc.RecordQuote(context.Background(), "safari-co", Contact{Email: "naledi@example.com"}); err != nil {
		t.Fatalf("record quote: %v", err)
	}

	if store.updatedStage != StageBooked {
		t.Fatalf("stage regressed to %q", store.updatedStage)
	}
	if store.updatedCount != 5 {
		t.Fatalf("expected quote count 5, got %d", store.updatedCount)
	}
}

func TestRecordQuoteRequiresEmail(t *testing.T) {
	svc := NewService(&fakeCustomerStore{}, nil)
	if err := svc.RecordQuote(context.Background(), "safari-co", Contact{Name: "No Email"}); err == nil {
		t.Fatal("expected validation error for missing email")
	}
}

func TestIsForward(t *testing.T) {
	if !isForward(StageQuoted, StageNegotiating) {
		t.Fatal("QUOTED -> NEGOTIATING should be forward")
	}
	if isForward(StageBooked, StageQuoted) {
		t.Fatal("BOOKED -> QUOTED must not be forward")
	}
}
