package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"travelquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =============================================================================
// Domain Models
// =============================================================================

// PricedCategory is one traveler category line inside a hotel option.
type PricedCategory struct {
	Count    int   `json:"count"`
	Rate     int64 `json:"rate"`
	Subtotal int64 `json:"subtotal"`
}

// HotelOption is one priced hotel stored on the quote. The ordered option
// list is persisted as a JSONB column; options are immutable once written.
type HotelOption struct {
	RateID        string         `json:"rate_id"`
	HotelName     string         `json:"hotel_name"`
	StarRating    int            `json:"star_rating"`
	RoomType      string         `json:"room_type"`
	MealPlan      string         `json:"meal_plan"`
	SharingAdults PricedCategory `json:"sharing_adults"`
	SingleAdults  PricedCategory `json:"single_adults"`
	Children      PricedCategory `json:"children"`
	Infants       PricedCategory `json:"infants"`
	TotalPrice    int64          `json:"total_price"`
}

// Quote is the database model for a generated quote
type Quote struct {
	ID            uuid.UUID     `db:"id"`
	QuoteID       string        `db:"quote_id"`
	TenantID      string        `db:"tenant_id"`
	CustomerName  string        `db:"customer_name"`
	CustomerEmail string        `db:"customer_email"`
	CustomerPhone *string       `db:"customer_phone"`
	Destination   string        `db:"destination"`
	CheckIn       time.Time     `db:"check_in_date"`
	CheckOut      time.Time     `db:"check_out_date"`
	Nights        int           `db:"nights"`
	Adults        int           `db:"adults"`
	Children      int           `db:"children"`
	ChildAges     []int         `db:"children_ages"`
	Hotels        []HotelOption `db:"hotels"`
	TotalPrice    int64         `db:"total_price"`
	Status        string        `db:"status"`
	EmailSent     bool          `db:"email_sent"`
	PDFGenerated  bool          `db:"pdf_generated"`
	PDFFileKey    *string       `db:"pdf_file_key"`
	DeliveryError *string       `db:"delivery_error"`
	ConsultantID  *uuid.UUID    `db:"consultant_id"`
	CreatedAt     time.Time     `db:"created_at"`
	SentAt        *time.Time    `db:"sent_at"`
	ViewedAt      *time.Time    `db:"viewed_at"`
	AcceptedAt    *time.Time    `db:"accepted_at"`
}

// ListParams contains parameters for listing quotes
type ListParams struct {
	TenantID string
	Status   *string
	Search   string
	Page     int
	PageSize int
}

// ListResult contains the paginated result of listing quotes
type ListResult struct {
	Items      []Quote
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// StatusUpdate is a partial update applied during lifecycle transitions.
// Nil fields are left untouched.
type StatusUpdate struct {
	Status        *string
	EmailSent     *bool
	DeliveryError *string
	SentAt        *time.Time
	ViewedAt      *time.Time
	AcceptedAt    *time.Time
}

// =============================================================================
// Repository
// =============================================================================

const quoteNotFoundMsg = "quote not found"

const quoteColumns = `
	id, quote_id, tenant_id, customer_name, customer_email, customer_phone,
	destination, check_in_date, check_out_date, nights, adults, children,
	children_ages, hotels, total_price, status, email_sent, pdf_generated,
	pdf_file_key, delivery_error, consultant_id, created_at, sent_at,
	viewed_at, accepted_at`

// Repository provides database operations for quotes
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a freshly generated quote.
func (r *Repository) Insert(ctx context.Context, q *Quote) error {
	hotels, err := json.Marshal(q.Hotels)
	if err != nil {
		return fmt.Errorf("failed to marshal hotel options: %w", err)
	}

	query := `
		INSERT INTO quotes (
			id, quote_id, tenant_id, customer_name, customer_email, customer_phone,
			destination, check_in_date, check_out_date, nights, adults, children,
			children_ages, hotels, total_price, status, email_sent, pdf_generated,
			pdf_file_key, delivery_error, consultant_id, created_at, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)`

	if _, err := r.pool.Exec(ctx, query,
		q.ID, q.QuoteID, q.TenantID, q.CustomerName, q.CustomerEmail, q.CustomerPhone,
		q.Destination, q.CheckIn, q.CheckOut, q.Nights, q.Adults, q.Children,
		q.ChildAges, hotels, q.TotalPrice, q.Status, q.EmailSent, q.PDFGenerated,
		q.PDFFileKey, q.DeliveryError, q.ConsultantID, q.CreatedAt, q.SentAt,
	); err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// GetByQuoteID retrieves a quote by its human-facing identifier scoped to tenant.
func (r *Repository) GetByQuoteID(ctx context.Context, tenantID, quoteID string) (*Quote, error) {
	query := `SELECT` + quoteColumns + ` FROM quotes WHERE tenant_id = $1 AND quote_id = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, quoteID))
}

// List returns a filtered, paginated page of quotes for a tenant, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	where := `WHERE tenant_id = $1`
	args := []any{params.TenantID}

	if params.Status != nil {
		args = append(args, *params.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where += fmt.Sprintf(" AND (customer_name ILIKE $%d OR customer_email ILIKE $%d OR destination ILIKE $%d OR quote_id ILIKE $%d)",
			len(args), len(args), len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	items := make([]Quote, 0, params.PageSize)
	for rows.Next() {
		q, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quote rows: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateStatus applies a partial lifecycle update to a quote.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, quoteID string, upd StatusUpdate) error {
	set := []string{}
	args := []any{tenantID, quoteID}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.EmailSent != nil {
		add("email_sent", *upd.EmailSent)
	}
	if upd.DeliveryError != nil {
		add("delivery_error", *upd.DeliveryError)
	}
	if upd.SentAt != nil {
		add("sent_at", *upd.SentAt)
	}
	if upd.ViewedAt != nil {
		add("viewed_at", *upd.ViewedAt)
	}
	if upd.AcceptedAt != nil {
		add("accepted_at", *upd.AcceptedAt)
	}
	if len(set) == 0 {
		return nil
	}

	query := `UPDATE quotes SET ` + strings.Join(set, ", ") + ` WHERE tenant_id = $1 AND quote_id = $2`
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

// MarkViewed records the first customer view on a sent quote.
func (r *Repository) MarkViewed(ctx context.Context, tenantID, quoteID string, at time.Time) error {
	status := "viewed"
	return r.UpdateStatus(ctx, tenantID, quoteID, StatusUpdate{Status: &status, ViewedAt: &at})
}

// MarkAccepted records customer acceptance of a quote.
func (r *Repository) MarkAccepted(ctx context.Context, tenantID, quoteID string, at time.Time) error {
	status := "accepted"
	return r.UpdateStatus(ctx, tenantID, quoteID, StatusUpdate{Status: &status, AcceptedAt: &at})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOne(row rowScanner) (*Quote, error) {
	var q Quote
	var hotels []byte

	err := row.Scan(
		&q.ID, &q.QuoteID, &q.TenantID, &q.CustomerName, &q.CustomerEmail, &q.CustomerPhone,
		&q.Destination, &q.CheckIn, &q.CheckOut, &q.Nights, &q.Adults, &q.Children,
		&q.ChildAges, &hotels, &q.TotalPrice, &q.Status, &q.EmailSent, &q.PDFGenerated,
		&q.PDFFileKey, &q.DeliveryError, &q.ConsultantID, &q.CreatedAt, &q.SentAt,
		&q.ViewedAt, &q.AcceptedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}

	if len(hotels) > 0 {
		if err := json.Unmarshal(hotels, &q.Hotels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hotel options: %w", err)
		}
	}
	return &q, nil
}
