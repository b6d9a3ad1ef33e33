// Package rates provides read access to the hotel rate warehouse: a
// parameterized query gateway over ClickHouse plus the matcher that turns a
// travel request into a ranked candidate rate list. Rate records are owned
// by the warehouse and immutable here.
package rates

import "time"

// HotelRate is one priced room/meal combination for one hotel over one
// date range, as stored in the warehouse.
type HotelRate struct {
	RateID      string     `json:"rateId"`
	Destination string     `json:"destination"`
	HotelName   string     `json:"hotelName"`
	StarRating  int        `json:"starRating"`
	RoomType    string     `json:"roomType"`
	MealPlan    string     `json:"mealPlan"`
	// PriceSharing is the per-adult-sharing price (pps) in the tenant's
	// currency unit as stored.
	PriceSharing int64  `json:"priceSharing"`
	PriceSingle  *int64 `json:"priceSingle,omitempty"`
	PriceChild   *int64 `json:"priceChild,omitempty"`
	ValidFrom    time.Time `json:"validFrom"`
	ValidTo      time.Time `json:"validTo"`
	Nights       int       `json:"nights"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SingleOrSharing returns the single-room rate, falling back to the sharing
// rate when the sheet carries no single price.
func (r HotelRate) SingleOrSharing() int64 {
	if r.PriceSingle != nil && *r.PriceSingle > 0 {
		return *r.PriceSingle
	}
	return r.PriceSharing
}

// ChildPrice returns the per-child price, or 0 when unset.
func (r HotelRate) ChildPrice() int64 {
	if r.PriceChild == nil {
		return 0
	}
	return *r.PriceChild
}

// dedupeKey identifies a rate row for deduplication: the same hotel, stay
// window, room type and meal plan may appear on several rate sheet uploads.
type dedupeKey struct {
	hotel    string
	from     string
	to       string
	roomType string
	mealPlan string
}

func keyOf(r HotelRate) dedupeKey {
	return dedupeKey{
		hotel:    r.HotelName,
		from:     r.ValidFrom.Format("2006-01-02"),
		to:       r.ValidTo.Format("2006-01-02"),
		roomType: r.RoomType,
		mealPlan: r.MealPlan,
	}
}

// Deduplicate keeps, per distinct (hotel, check-in, check-out, room type,
// meal plan) tuple, only the most recently created rate.
func Deduplicate(rates []HotelRate) []HotelRate {
	latest := make(map[dedupeKey]HotelRate, len(rates))
	order := make([]dedupeKey, 0, len(rates))

	for _, r := range rates {
		k := keyOf(r)
		existing, seen := latest[k]
		if !seen {
			order = append(order, k)
			latest[k] = r
			continue
		}
		if r.CreatedAt.After(existing.CreatedAt) {
			latest[k] = r
		}
	}

	out := make([]HotelRate, 0, len(order))
	for _, k := range order {
		out = append(out, latest[k])
	}
	return out
}
