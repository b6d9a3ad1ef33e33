package rates

import (
	"context"
	"sort"
	"time"

	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/logger"
)

// maxMatches caps the candidate set handed back to the pricing flow.
const maxMatches = 50

// Source is the warehouse query surface the matcher needs.
type Source interface {
	Query(ctx context.Context, destinations []string, checkIn, checkOut time.Time, nights int, mealPlan string, strictDates bool) ([]HotelRate, error)
}

// MatchParams describes one availability request.
type MatchParams struct {
	Destination        string
	CheckIn            time.Time
	CheckOut           time.Time
	Nights             int
	Adults             int
	ChildAges          []int
	BudgetPerPerson    *int64
	MealPlanPreference string
}

// Matcher expands a destination into its alias set, queries the warehouse,
// deduplicates, and ranks candidates by date-proximity tiers.
type Matcher struct {
	source Source
	cache  *Cache
	log    *logger.Logger
}

// NewMatcher creates a matcher. The cache may be nil.
func NewMatcher(source Source, cache *Cache, log *logger.Logger) *Matcher {
	return &Matcher{source: source, cache: cache, log: log}
}

// Match returns ranked candidate rates for the request. An empty result
// means "no availability"; warehouse failures are swallowed into an empty
// result with a logged cause, never raised to the caller.
func (m *Matcher) Match(ctx context.Context, tn *tenant.Tenant, params MatchParams) []HotelRate {
	terms := tn.SearchTerms(params.Destination)

	cacheKey := ""
	if m.cache != nil {
		cacheKey = m.cache.Key(tn.ID, params.Destination, params.Nights, params.CheckIn, params.MealPlanPreference)
		if cached, ok := m.cache.Get(ctx, cacheKey); ok {
			return m.rank(cached, params)
		}
	}

	rows, err := m.source.Query(ctx, terms, params.CheckIn, params.CheckOut, params.Nights, params.MealPlanPreference, true)
	if err != nil {
		m.log.RateQueryError(params.Destination, err)
		return nil
	}

	// Annual rate sheets keep prior-year validity windows; when the strict
	// window query finds nothing, retry without the date filter and let the
	// tier ranking order the stale-window candidates.
	if len(rows) == 0 {
		rows, err = m.source.Query(ctx, terms, params.CheckIn, params.CheckOut, params.Nights, params.MealPlanPreference, false)
		if err != nil {
			m.log.RateQueryError(params.Destination, err)
			return nil
		}
	}

	if m.cache != nil && len(rows) > 0 {
		m.cache.Set(ctx, cacheKey, rows)
	}

	return m.rank(rows, params)
}

func (m *Matcher) rank(rows []HotelRate, params MatchParams) []HotelRate {
	candidates := Deduplicate(rows)

	if params.BudgetPerPerson != nil && *params.BudgetPerPerson > 0 {
		budget := *params.BudgetPerPerson
		filtered := candidates[:0]
		for _, r := range candidates {
			if r.PriceSharing <= budget {
				filtered = append(filtered, r)
			}
		}
		candidates = filtered
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ti := dateTier(params.CheckIn, params.CheckOut, candidates[i])
		tj := dateTier(params.CheckIn, params.CheckOut, candidates[j])
		if ti != tj {
			return ti < tj
		}
		if ti == tierFallback {
			di := monthDistance(params.CheckIn, candidates[i].ValidFrom)
			dj := monthDistance(params.CheckIn, candidates[j].ValidFrom)
			if di != dj {
				return di < dj
			}
		}
		return candidates[i].PriceSharing < candidates[j].PriceSharing
	})

	if len(candidates) > maxMatches {
		candidates = candidates[:maxMatches]
	}
	return candidates
}

// Date-proximity tiers, ascending priority.
const (
	tierExact    = 1 // requested dates equal the validity window
	tierWithin   = 2 // requested dates fall inside the validity window
	tierMonthDay = 3 // check-in shares month and day with the window start
	tierFallback = 4 // ordered by month distance from the requested check-in
)

func dateTier(checkIn, checkOut time.Time, r HotelRate) int {
	switch {
	case sameDate(checkIn, r.ValidFrom) && sameDate(checkOut, r.ValidTo):
		return tierExact
	case !checkIn.Before(r.ValidFrom) && !checkOut.After(r.ValidTo):
		return tierWithin
	case checkIn.Month() == r.ValidFrom.Month() && checkIn.Day() == r.ValidFrom.Day():
		return tierMonthDay
	default:
		return tierFallback
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// monthDistance is the absolute distance between two dates' months, ignoring
// year: May vs January is 4, December vs January is 11.
func monthDistance(a, b time.Time) int {
	diff := int(a.Month()) - int(b.Month())
	if diff < 0 {
		diff = -diff
	}
	return diff
}
