package rates

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/logger"
)

var testTenant = &tenant.Tenant{
	ID:       "safari-co",
	Timezone: "Africa/Johannesburg",
	Destinations: []tenant.Destination{
		{Name: "Kruger National Park", Aliases: []string{"Kruger", "KNP"}},
	},
}

type fakeSource struct {
	strict  []HotelRate
	relaxed []HotelRate
	err     error
	calls   int
}

func (f *fakeSource) Query(_ context.Context, _ []string, _, _ time.Time, _ int, _ string, strictDates bool) ([]HotelRate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if strictDates {
		return f.strict, nil
	}
	return f.relaxed, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rate(id, hotel string, pps int64, from, to time.Time, createdAt time.Time) HotelRate {
	return HotelRate{
		RateID:       id,
		Destination:  "Kruger National Park",
		HotelName:    hotel,
		RoomType:     "Standard",
		MealPlan:     "DBB",
		PriceSharing: pps,
		ValidFrom:    from,
		ValidTo:      to,
		Nights:       3,
		Active:       true,
		CreatedAt:    createdAt,
	}
}

func newTestMatcher(src Source) *Matcher {
	return NewMatcher(src, nil, logger.New("development"))
}

func TestMatchDeduplicatesKeepsMostRecent(t *testing.T) {
	checkIn := date(2026, time.September, 10)
	checkOut := date(2026, time.September, 13)

	old := rate("r-old", "Lion Lodge", 5000, checkIn, checkOut, date(2026, time.January, 1))
	fresh := rate("r-new", "Lion Lodge", 5200, checkIn, checkOut, date(2026, time.June, 1))

	src := &fakeSource{strict: []HotelRate{old, fresh}}
	got := newTestMatcher(src).Match(context.Background(), testTenant, MatchParams{
		Destination: "Kruger",
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      3,
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 deduplicated rate, got %d", len(got))
	}
	if got[0].RateID != "r-new" {
		t.Fatalf("expected most recently created rate, got %s", got[0].RateID)
	}
}

func TestMatchTierOrdering(t *testing.T) {
	checkIn := date(2026, time.September, 10)
	checkOut := date(2026, time.September, 13)

	exact := rate("r-exact", "Exact Lodge", 9000, checkIn, checkOut, date(2026, time.January, 1))
	within := rate("r-within", "Within Lodge", 1000, date(2026, time.September, 1), date(2026, time.September, 30), date(2026, time.January, 1))
	monthDay := rate("r-monthday", "Annual Lodge", 500, date(2025, time.September, 10), date(2025, time.September, 13), date(2026, time.January, 1))

	src := &fakeSource{strict: []HotelRate{monthDay, within, exact}}
	got := newTestMatcher(src).Match(context.Background(), testTenant, MatchParams{
		Destination: "Kruger",
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      3,
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 rates, got %d", len(got))
	}
	if got[0].RateID != "r-exact" || got[1].RateID != "r-within" || got[2].RateID != "r-monthday" {
		t.Fatalf("unexpected tier order: %s, %s, %s", got[0].RateID, got[1].RateID, got[2].RateID)
	}
}

func TestMatchSortsWithinTierByPrice(t *testing.T) {
	checkIn := date(2026, time.September, 10)
	checkOut := date(2026, time.September, 13)

	pricier := rate("r-high", "High Lodge", 8000, date(2026, time.September, 1), date(2026, time.September, 30), date(2026, time.January, 1))
	cheaper := rate("r-low", "Low Lodge", 3000, date(2026, time.September, 1), date(2026, time.September, 30), date(2026, time.January, 1))

	src := &fakeSource{strict: []HotelRate{pricier, cheaper}}
	got := newTestMatcher(src).Match(context.Background(), testTenant, MatchParams{
		Destination: "Kruger",
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      3,
	})

	if got[0].RateID != "r-low" {
		t.Fatalf("expected cheapest first within tier, got %s", got[0].RateID)
	}
}

func TestMatchFallsBackToRelaxedDates(t *testing.T) {
	checkIn := date(2026, time.September, 10)
	checkOut := date(2026, time.September, 13)

	annual := rate("r-annual", "Annual Lodge", 4000, date(2025, time.September, 10), date(2025, time.September, 13), date(2025, time.June, 1))
	src := &fakeSource{strict: nil, relaxed: []HotelRate{annual}}

	got := newTestMatcher(src).Match(context.Background(), testTenant, MatchParams{
		Destination: "Kruger",
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      3,
	})

	if src.calls != 2 {
		t.Fatalf("expected strict then relaxed query, got %d calls", src.calls)
	}
	if len(got) != 1 || got[0].RateID != "r-annual" {
		t.Fatalf("expected annual sheet rate, got %v", got)
	}
}

func TestMatchSwallowsQueryFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("warehouse down")}
	got := newTestMatcher(src).Match(context.Background(), testTenant, MatchParams{
		Destination: "Kruger",
		CheckIn:     date(2026, time.September, 10),
		CheckOut:    date(2026, time.September, 13),
		Nights:      3,
	})

	if got != nil {
		t.Fatalf("expected empty result on query failure, got %d rates", len(got))
	}
}

func TestMatchBudgetFilter(t *testing.T) {
	checkIn := date(2026, time.September, 10)
	checkOut := date(2026, time.September, 13)

	affordable := rate("r-ok", "Budget Lodge", 2000, checkIn, checkOut, date(2026, time.January, 1))
	pricey := rate("r-no", "Premier Lodge", 9000, checkIn, checkOut, date(2026, time.January, 1))
	budget := int64(5000)

	src := &fakeSource{strict: []HotelRate{affordable, pricey}}
	got := newTestMatcher(src).Match(context.Background(), testTenant, MatchParams{
		Destination:     "Kruger",
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Nights:          3,
		BudgetPerPerson: &budget,
	})

	if len(got) != 1 || got[0].RateID != "r-ok" {
		t.Fatalf("expected only the in-budget rate, got %v", got)
	}
}

func TestMatchCapsResultSet(t *testing.T) {
	checkIn := date(2026, time.September, 10)
	checkOut := date(2026, time.September, 13)

	var rows []HotelRate
	for i := 0; i < 80; i++ {
		rows = append(rows, rate(
			fmt.Sprintf("r-%d", i),
			fmt.Sprintf("Lodge %d", i),
			int64(1000+i),
			checkIn, checkOut,
			date(2026, time.January, 1),
		))
	}

	src := &fakeSource{strict: rows}
	got := newTestMatcher(src).Match(context.Background(), testTenant, MatchParams{
		Destination: "Kruger",
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      3,
	})

	if len(got) != maxMatches {
		t.Fatalf("expected cap of %d, got %d", maxMatches, len(got))
	}
}

func TestMonthDistanceIsAbsolute(t *testing.T) {
	cases := []struct {
		a, b time.Time
		want int
	}{
		{date(2026, time.May, 1), date(2026, time.January, 15), 4},
		{date(2026, time.January, 15), date(2026, time.May, 1), 4},
		{date(2026, time.December, 1), date(2025, time.January, 15), 11},
		{date(2026, time.March, 10), date(2026, time.March, 25), 0},
	}
	for _, tc := range cases {
		if d := monthDistance(tc.a, tc.b); d != tc.want {
			t.Fatalf("monthDistance(%s, %s): expected %d, got %d",
				tc.a.Month(), tc.b.Month(), tc.want, d)
		}
	}
}
