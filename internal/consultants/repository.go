// Package consultants provides round-robin consultant allocation: the
// active consultant with the oldest last-assigned timestamp is picked and
// its timestamp bumped.
package consultants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Consultant is the database model for a travel consultant.
type Consultant struct {
	ID             uuid.UUID  `db:"id"`
	TenantID       string     `db:"tenant_id"`
	Name           string     `db:"name"`
	Email          string     `db:"email"`
	Phone          *string    `db:"phone"`
	Active         bool       `db:"active"`
	LastAssignedAt *time.Time `db:"last_assigned_at"`
}

// Repository provides database operations for consultants.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new consultants repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextUnassigned returns the active consultant least recently assigned.
// Never-assigned consultants sort first. Returns nil when the tenant has no
// active consultants.
func (r *Repository) NextUnassigned(ctx context.Context, tenantID string) (*Consultant, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, active, last_assigned_at
		FROM consultants
		WHERE tenant_id = $1 AND active = true
		ORDER BY last_assigned_at ASC NULLS FIRST, name ASC
		LIMIT 1`

	var c Consultant
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Active, &c.LastAssignedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select next consultant: %w", err)
	}

	return &c, nil
}

// TouchLastAssigned bumps a consultant's last-assigned timestamp.
func (r *Repository) TouchLastAssigned(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE consultants SET last_assigned_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("update consultant last_assigned_at: %w", err)
	}
	return nil
}

// ListActive returns all active consultants for a tenant ordered by
// last-assigned time, oldest first.
func (r *Repository) ListActive(ctx context.Context, tenantID string) ([]Consultant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, name, email, phone, active, last_assigned_at
		FROM consultants
		WHERE tenant_id = $1 AND active = true
		ORDER BY last_assigned_at ASC NULLS FIRST, name ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	defer rows.Close()

	var results []Consultant
	for rows.Next() {
		var c Consultant
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Active, &c.LastAssignedAt); err != nil {
			return nil, fmt.Errorf("scan consultant: %w", err)
		}
		results = append(results, c)
	}

	return results, rows.Err()
}
