package service

import (
	"context"
	"testing"

	"travelquote_backend/internal/rates"
	"travelquote_backend/platform/apperr"
)

func int64ptr(v int64) *int64 { return &v }

func testRate() rates.HotelRate {
	return rates.HotelRate{
		RateID:       "r-1",
		HotelName:    "Mopani Lodge",
		PriceSharing: 1200,
		PriceSingle:  int64ptr(1800),
		PriceChild:   int64ptr(600),
	}
}

func TestPriceSoloAdultUsesSinglePrice(t *testing.T) {
	calc := NewCalculator(nil)
	b := calc.Price(testRate(), TravelerComposition{Adults: 1})

	if b.Total != 1800 {
		t.Fatalf("expected solo total 1800, got %d", b.Total)
	}
	if b.SharingAdults.Count != 0 {
		t.Fatalf("solo traveler must not price as sharing, got count %d", b.SharingAdults.Count)
	}
}

func TestPriceSoloAdultFallsBackToSharing(t *testing.T) {
	rate := testRate()
	rate.PriceSingle = nil

	calc := NewCalculator(nil)
	b := calc.Price(rate, TravelerComposition{Adults: 1})

	if b.Total != 1200 {
		t.Fatalf("expected fallback total 1200, got %d", b.Total)
	}
}

func TestPriceMixedRooms(t *testing.T) {
	calc := NewCalculator(nil)
	b := calc.Price(testRate(), TravelerComposition{Adults: 3, SingleAdults: 1})

	// 2 sharing at 1200 plus 1 single at 1800
	if b.SharingAdults.Subtotal != 2400 {
		t.Fatalf("expected sharing subtotal 2400, got %d", b.SharingAdults.Subtotal)
	}
	if b.SingleAdults.Subtotal != 1800 {
		t.Fatalf("expected single subtotal 1800, got %d", b.SingleAdults.Subtotal)
	}
	if b.Total != 4200 {
		t.Fatalf("expected total 4200, got %d", b.Total)
	}
}

func TestPriceMixedRoomsSingleRateFallback(t *testing.T) {
	rate := testRate()
	rate.PriceSingle = nil

	calc := NewCalculator(nil)
	b := calc.Price(rate, TravelerComposition{Adults: 2, SingleAdults: 2})

	if b.Total != 2400 {
		t.Fatalf("expected total 2400 with sharing fallback, got %d", b.Total)
	}
}

func TestPriceAllSharingDefault(t *testing.T) {
	calc := NewCalculator(nil)
	b := calc.Price(testRate(), TravelerComposition{Adults: 2})

	if b.Total != 2400 {
		t.Fatalf("expected total 2400, got %d", b.Total)
	}
	if b.SingleAdults.Count != 0 {
		t.Fatalf("default branch must not use single rooms, got count %d", b.SingleAdults.Count)
	}
}

func TestPriceChildrenAndInfantsPartition(t *testing.T) {
	calc := NewCalculator(nil)
	b := calc.Price(testRate(), TravelerComposition{
		Adults:    2,
		ChildAges: []int{1, 5, 10, 0},
	})

	if b.Infants.Count != 2 {
		t.Fatalf("expected 2 infants, got %d", b.Infants.Count)
	}
	if b.Children.Count != 2 {
		t.Fatalf("expected 2 children, got %d", b.Children.Count)
	}
	if b.Infants.Subtotal != 2*infantFlatFee {
		t.Fatalf("expected infant subtotal %d, got %d", 2*infantFlatFee, b.Infants.Subtotal)
	}
	if b.Children.Subtotal != 1200 {
		t.Fatalf("expected child subtotal 1200, got %d", b.Children.Subtotal)
	}
}

func TestPriceChildRateDefaultsToZero(t *testing.T) {
	rate := testRate()
	rate.PriceChild = nil

	calc := NewCalculator(nil)
	b := calc.Price(rate, TravelerComposition{Adults: 2, ChildAges: []int{6}})

	if b.Children.Subtotal != 0 {
		t.Fatalf("expected zero child subtotal, got %d", b.Children.Subtotal)
	}
}

func TestPriceSoloWithChildrenUsesSharingBranch(t *testing.T) {
	calc := NewCalculator(nil)
	b := calc.Price(testRate(), TravelerComposition{Adults: 1, ChildAges: []int{7}})

	// One adult with children shares the room, so the sharing rate applies.
	if b.SharingAdults.Subtotal != 1200 {
		t.Fatalf("expected sharing subtotal 1200, got %d", b.SharingAdults.Subtotal)
	}
	if b.SingleAdults.Count != 0 {
		t.Fatalf("expected no single-room pricing, got count %d", b.SingleAdults.Count)
	}
}

type fakeResolver struct {
	rate *rates.HotelRate
	err  error
}

func (f *fakeResolver) QueryByRateID(_ context.Context, _ string) (*rates.HotelRate, error) {
	return f.rate, f.err
}

func TestPriceByIDUnknownRate(t *testing.T) {
	calc := NewCalculator(&fakeResolver{})
	_, err := calc.PriceByID(context.Background(), "missing", TravelerComposition{Adults: 2})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
