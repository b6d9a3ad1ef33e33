package service

import (
	"context"
	"fmt"

	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/rates"
	"travelquote_backend/platform/apperr"
)

// infantFlatFee is the per-infant charge applied regardless of hotel or
// tenant. Infants under 2 do not occupy a bed, so the fee covers admin and
// transfers only.
const infantFlatFee int64 = 500

const (
	infantMaxAge = 2
	childMaxAge  = 12
)

// TravelerComposition describes who is traveling. SingleAdults is the subset
// of Adults that want their own room. Ages 12 and up are counted as adults
// before this struct is built.
type TravelerComposition struct {
	Adults       int
	SingleAdults int
	ChildAges    []int
}

// Infants counts ages below the infant cutoff.
func (c TravelerComposition) Infants() int {
	n := 0
	for _, age := range c.ChildAges {
		if age < infantMaxAge {
			n++
		}
	}
	return n
}

// Children counts ages in the child band.
func (c TravelerComposition) Children() int {
	n := 0
	for _, age := range c.ChildAges {
		if age >= infantMaxAge && age < childMaxAge {
			n++
		}
	}
	return n
}

// CategoryLine is one traveler category in a breakdown.
type CategoryLine struct {
	Count    int
	Rate     int64
	Subtotal int64
}

// PricingBreakdown is the full per-category price computation for one rate.
type PricingBreakdown struct {
	SharingAdults CategoryLine
	SingleAdults  CategoryLine
	Children      CategoryLine
	Infants       CategoryLine
	Total         int64
}

// RateResolver looks up a single rate by identifier.
type RateResolver interface {
	QueryByRateID(ctx context.Context, rateID string) (*rates.HotelRate, error)
}

// Calculator computes per-traveler pricing for a hotel rate.
type Calculator struct {
	resolver RateResolver
}

// NewCalculator creates a pricing calculator. resolver may be nil when
// callers only use Price with in-hand rates.
func NewCalculator(resolver RateResolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Price computes the breakdown for a rate and traveler composition.
//
// Adult pricing picks exactly one branch: mixed rooms when some adults want
// singles, the single rate for a solo traveler, and the sharing rate for
// everyone otherwise. Children and infants price the same way in every
// branch.
func (c *Calculator) Price(rate rates.HotelRate, comp TravelerComposition) PricingBreakdown {
	var b PricingBreakdown

	switch {
	case comp.SingleAdults > 0:
		sharing := comp.Adults - comp.SingleAdults
		if sharing < 0 {
			sharing = 0
		}
		b.SharingAdults = line(sharing, rate.PriceSharing)
		b.SingleAdults = line(comp.SingleAdults, rate.SingleOrSharing())
	case comp.Adults == 1 && len(comp.ChildAges) == 0:
		b.SingleAdults = line(1, rate.SingleOrSharing())
	default:
		b.SharingAdults = line(comp.Adults, rate.PriceSharing)
	}

	b.Children = line(comp.Children(), rate.ChildPrice())
	b.Infants = line(comp.Infants(), infantFlatFee)

	b.Total = b.SharingAdults.Subtotal + b.SingleAdults.Subtotal +
		b.Children.Subtotal + b.Infants.Subtotal
	return b
}

// PriceByID resolves a rate by identifier and prices it. An unknown rate
// identifier returns NotFound; callers skip the hotel rather than failing
// the whole quote.
func (c *Calculator) PriceByID(ctx context.Context, rateID string, comp TravelerComposition) (*PricingBreakdown, error) {
	if c.resolver == nil {
		return nil, apperr.Internal("no rate resolver configured")
	}
	rate, err := c.resolver.QueryByRateID(ctx, rateID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rate %s: %w", rateID, err)
	}
	if rate == nil {
		return nil, apperr.NotFound("rate not found")
	}
	b := c.Price(*rate, comp)
	return &b, nil
}

func line(count int, rate int64) CategoryLine {
	return CategoryLine{Count: count, Rate: rate, Subtotal: int64(count) * rate}
}

func toRepoCategory(l CategoryLine) repository.PricedCategory {
	return repository.PricedCategory{Count: l.Count, Rate: l.Rate, Subtotal: l.Subtotal}
}
