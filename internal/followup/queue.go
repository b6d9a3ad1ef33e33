package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travelquote_backend/platform/logger"
	"travelquote_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Call statuses. The voice subsystem owns everything after "due".
const (
	CallStatusScheduled = "scheduled"
	CallStatusDue       = "due"
)

// Call is a scheduled follow-up contact for a delivered quote.
type Call struct {
	ID            uuid.UUID `db:"id"`
	TenantID      string    `db:"tenant_id"`
	QuoteID       string    `db:"quote_id"`
	CustomerName  string    `db:"customer_name"`
	Phone         string    `db:"phone"`
	ScheduledAt   time.Time `db:"scheduled_at"`
	AutoScheduled bool      `db:"auto_scheduled"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

// Repository provides database operations for follow-up calls.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a follow-up call repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a scheduled call.
func (r *Repository) Insert(ctx context.Context, call *Call) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO followup_calls (id, tenant_id, quote_id, customer_name, phone, scheduled_at, auto_scheduled, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		call.ID, call.TenantID, call.QuoteID, call.CustomerName, call.Phone,
		call.ScheduledAt, call.AutoScheduled, call.Status, call.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert followup call: %w", err)
	}
	return nil
}

// GetByID returns a call, or nil when unknown.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Call, error) {
	var c Call
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, quote_id, customer_name, phone, scheduled_at, auto_scheduled, status, created_at
		FROM followup_calls WHERE id = $1`, id,
	).Scan(&c.ID, &c.TenantID, &c.QuoteID, &c.CustomerName, &c.Phone, &c.ScheduledAt, &c.AutoScheduled, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select followup call: %w", err)
	}
	return &c, nil
}

// MarkDue flips a scheduled call to due. Idempotent: a call already past
// "scheduled" is left alone.
func (r *Repository) MarkDue(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE followup_calls SET status = $2 WHERE id = $1 AND status = $3`,
		id, CallStatusDue, CallStatusScheduled,
	)
	if err != nil {
		return false, fmt.Errorf("mark followup call due: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// TaskEnqueuer schedules the delayed "call is due" task.
type TaskEnqueuer interface {
	EnqueueFollowUpCall(ctx context.Context, callID uuid.UUID, tenantID string, runAt time.Time) error
}

// Queue persists follow-up calls and schedules their dispatch.
type Queue struct {
	repo  *Repository
	tasks TaskEnqueuer
	log   *logger.Logger
	now   func() time.Time
}

// NewQueue creates a follow-up call queue producer. tasks may be nil when
// no scheduler backend is configured; calls are then stored but dispatched
// by an external poller.
func NewQueue(repo *Repository, tasks TaskEnqueuer, log *logger.Logger) *Queue {
	return &Queue{repo: repo, tasks: tasks, log: log, now: time.Now}
}

// Schedule stores a follow-up call and enqueues its dispatch task.
func (q *Queue) Schedule(ctx context.Context, tenantID, quoteID, customerName, rawPhone string, at time.Time, auto bool) (*Call, error) {
	call := &Call{
		ID:            uuid.New(),
		TenantID:      tenantID,
		QuoteID:       quoteID,
		CustomerName:  customerName,
		Phone:         phone.NormalizeE164(rawPhone),
		ScheduledAt:   at,
		AutoScheduled: auto,
		Status:        CallStatusScheduled,
		CreatedAt:     q.now(),
	}

	if err := q.repo.Insert(ctx, call); err != nil {
		return nil, err
	}

	if q.tasks != nil {
		if err := q.tasks.EnqueueFollowUpCall(ctx, call.ID, tenantID, at); err != nil {
			// The row exists; the scheduler poller will still pick it up.
			q.log.Error("enqueue followup call task failed", "call_id", call.ID, "error", err)
		}
	}

	return call, nil
}
