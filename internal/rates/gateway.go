package rates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"travelquote_backend/platform/config"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const rateColumns = `rate_id, destination, hotel_name, star_rating, room_type, meal_plan,
	price_sharing, price_single, price_child, valid_from, valid_to, nights, active, created_at`

// Gateway issues parameterized queries against the ClickHouse rate warehouse.
// Every query is bounded by the configured timeout; expiry surfaces as a
// query error, which callers degrade to an empty result.
type Gateway struct {
	conn    driver.Conn
	timeout time.Duration
}

// Open connects to the rate warehouse.
func Open(cfg config.WarehouseConfig) (*Gateway, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.GetWarehouseAddr()},
		Auth: clickhouse.Auth{
			Database: cfg.GetWarehouseDatabase(),
			Username: cfg.GetWarehouseUsername(),
			Password: cfg.GetWarehousePassword(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open rate warehouse: %w", err)
	}
	return &Gateway{conn: conn, timeout: cfg.GetRateQueryTimeout()}, nil
}

// NewGateway wraps an existing connection, mainly for tests.
func NewGateway(conn driver.Conn, timeout time.Duration) *Gateway {
	return &Gateway{conn: conn, timeout: timeout}
}

// Close releases the warehouse connection.
func (g *Gateway) Close() error {
	if g == nil || g.conn == nil {
		return nil
	}
	return g.conn.Close()
}

func (g *Gateway) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := g.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// Query returns active rates matching any of the destination search terms
// with the requested night count. When strictDates is set, only rates whose
// validity window contains the check-in date are returned; otherwise the
// date filter is dropped so annual rate sheets from other years remain
// candidates for tier-3/4 ranking.
func (g *Gateway) Query(ctx context.Context, destinations []string, checkIn, checkOut time.Time, nights int, mealPlan string, strictDates bool) ([]HotelRate, error) {
	if len(destinations) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(destinations))
	for i, d := range destinations {
		lowered[i] = strings.ToLower(strings.TrimSpace(d))
	}

	query := `SELECT ` + rateColumns + `
		FROM hotel_rates
		WHERE active = 1
		  AND nights = ?
		  AND lowerUTF8(destination) IN (?)`
	args := []any{nights, lowered}

	if strictDates {
		query += " AND valid_from <= ? AND valid_to >= ?"
		args = append(args, checkIn, checkIn)
	}
	if mealPlan != "" {
		query += " AND lowerUTF8(meal_plan) = ?"
		args = append(args, strings.ToLower(mealPlan))
	}
	query += " ORDER BY created_at DESC"

	return g.run(ctx, query, args...)
}

// QueryByRateID returns a single rate or nil when the identifier is unknown.
func (g *Gateway) QueryByRateID(ctx context.Context, rateID string) (*HotelRate, error) {
	results, err := g.run(ctx, `SELECT `+rateColumns+` FROM hotel_rates WHERE rate_id = ? LIMIT 1`, rateID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// QueryByHotelNames returns active rates for explicitly named hotels with
// relaxed date filtering, used when the caller pre-selected hotels.
func (g *Gateway) QueryByHotelNames(ctx context.Context, names []string, nights int, checkIn, checkOut time.Time) ([]HotelRate, error) {
	if len(names) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(n))
	}

	query := `SELECT ` + rateColumns + `
		FROM hotel_rates
		WHERE active = 1
		  AND nights = ?
		  AND lowerUTF8(hotel_name) IN (?)
		ORDER BY created_at DESC`

	return g.run(ctx, query, nights, lowered)
}

func (g *Gateway) run(ctx context.Context, query string, args ...any) ([]HotelRate, error) {
	qctx, cancel := g.queryCtx(ctx)
	defer cancel()

	rows, err := g.conn.Query(qctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rate warehouse query: %w", err)
	}
	defer rows.Close()

	var results []HotelRate
	for rows.Next() {
		var (
			r          HotelRate
			star       uint8
			nights     uint8
			active     uint8
			priceShare int64
		)
		if err := rows.Scan(
			&r.RateID, &r.Destination, &r.HotelName, &star, &r.RoomType, &r.MealPlan,
			&priceShare, &r.PriceSingle, &r.PriceChild, &r.ValidFrom, &r.ValidTo,
			&nights, &active, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rate row: %w", err)
		}
		r.StarRating = int(star)
		r.Nights = int(nights)
		r.Active = active == 1
		r.PriceSharing = priceShare
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rate warehouse rows: %w", err)
	}

	return results, nil
}
