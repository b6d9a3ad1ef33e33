package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Customer is the database model for a CRM customer record.
type Customer struct {
	ID         uuid.UUID `db:"id"`
	TenantID   string    `db:"tenant_id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	Phone      *string   `db:"phone"`
	Stage      string    `db:"stage"`
	QuoteCount int       `db:"quote_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Repository provides database operations for CRM customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a CRM repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail looks a customer up by tenant and email, case-insensitively.
// Returns nil when no record exists.
func (r *Repository) GetByEmail(ctx context.Context, tenantID, email string) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, email, phone, stage, quote_count, created_at, updated_at
		FROM crm_customers
		WHERE tenant_id = $1 AND lower(email) = lower($2)`,
		tenantID, strings.TrimSpace(email),
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Stage, &c.QuoteCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select crm customer: %w", err)
	}
	return &c, nil
}

// Insert creates a customer record.
func (r *Repository) Insert(ctx context.Context, c *Customer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO crm_customers (id, tenant_id, name, email, phone, stage, quote_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.TenantID, c.Name, c.Email, c.Phone, c.Stage, c.QuoteCount, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert crm customer: %w", err)
	}
	return nil
}

// UpdateProgress persists a customer's quote count and stage.
func (r *Repository) UpdateProgress(ctx context.Context, id uuid.UUID, quoteCount int, stage string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE crm_customers SET quote_count = $2, stage = $3, updated_at = $4 WHERE id = $1`,
		id, quoteCount, stage, at,
	)
	if err != nil {
		return fmt.Errorf("update crm customer: %w", err)
	}
	return nil
}
