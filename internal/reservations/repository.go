package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

// activeSlotConstraint is the partial unique index enforcing slot
// exclusivity. Its violation is the authoritative conflict signal.
const activeSlotConstraint = "reservations_active_slot_key"

const uniqueViolationCode = "23505"

// Querier is the pgx surface store methods run on, so the completion
// pipeline can pass its transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool adds Begin on top of Querier. pgxpool.Pool satisfies it and
// pgxmock stands in for tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Querier
}

// Store persists reservations.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &Store{pool: pool}
}

// Begin opens a transaction for the completion pipeline.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

const reservationColumns = `id, tenant_id, provider_id, service_id, client_id, client_name, client_email,
	date, start_time, end_time, status, cancel_token, review_token,
	price_base_cents, price_final_cents, override_provider_pct,
	revenue_transaction_id, completed_at, canceled_at, created_at`

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var date time.Time
	if err := row.Scan(&r.ID, &r.TenantID, &r.ProviderID, &r.ServiceID, &r.ClientID, &r.ClientName, &r.ClientEmail,
		&date, &r.Slot.Start, &r.Slot.End, &r.Status, &r.CancelToken, &r.ReviewToken,
		&r.PriceBaseCents, &r.PriceFinalCents, &r.OverrideProviderPct,
		&r.RevenueTransactionID, &r.CompletedAt, &r.CanceledAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Slot.Date = date.Format("2006-01-02")
	return &r, nil
}

// TryReserve inserts the reservation row. A concurrent writer that won the
// slot surfaces as a unique violation on the active-slot index, returned as
// a ConflictError. The caller's optimistic availability read never replaces
// this check.
func (s *Store) TryReserve(ctx context.Context, q Querier, r *Reservation) error {
	if q == nil {
		q = s.pool
	}
	date, err := time.Parse("2006-01-02", r.Slot.Date)
	if err != nil {
		return apperrors.Validation("date %q is not a calendar day", r.Slot.Date)
	}
	err = q.QueryRow(ctx, `
		INSERT INTO reservations (id, tenant_id, provider_id, service_id, client_id, client_name, client_email,
		    date, start_time, end_time, status, cancel_token, review_token,
		    price_base_cents, price_final_cents, override_provider_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at`,
		r.ID, r.TenantID, r.ProviderID, r.ServiceID, r.ClientID, r.ClientName, r.ClientEmail,
		date, r.Slot.Start, r.Slot.End, r.Status, r.CancelToken, r.ReviewToken,
		r.PriceBaseCents, r.PriceFinalCents, r.OverrideProviderPct).
		Scan(&r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == activeSlotConstraint {
			return apperrors.Conflict("someone just booked this slot")
		}
		return fmt.Errorf("reservations: insert: %w", err)
	}
	return nil
}

// ListActiveForProviderDay returns reserved and completed reservations for a
// provider on a calendar day, for the availability read.
func (s *Store) ListActiveForProviderDay(ctx context.Context, tenantID, providerID uuid.UUID, day string) ([]Reservation, error) {
	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, apperrors.Validation("date %q is not a calendar day", day)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE tenant_id = $1 AND provider_id = $2 AND date = $3
		  AND status IN ('reserved', 'completed')
		ORDER BY start_time`, tenantID, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("reservations: list active: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("reservations: scan: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetByID loads a reservation scoped to the tenant. A row in another tenant
// answers the same NotFoundError as an absent one.
func (s *Store) GetByID(ctx context.Context, q Querier, tenantID, id uuid.UUID) (*Reservation, error) {
	if q == nil {
		q = s.pool
	}
	r, err := scanReservation(q.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("reservation")
	}
	if err != nil {
		return nil, fmt.Errorf("reservations: load: %w", err)
	}
	return r, nil
}

// GetByIDAnyTenant is the super-operator read. Callers must have checked the
// role explicitly; regular paths go through GetByID.
func (s *Store) GetByIDAnyTenant(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("reservation")
	}
	if err != nil {
		return nil, fmt.Errorf("reservations: load any tenant: %w", err)
	}
	return r, nil
}

// GetByCancelToken loads a reservation by its cancel capability.
func (s *Store) GetByCancelToken(ctx context.Context, tenantID uuid.UUID, token string) (*Reservation, error) {
	r, err := scanReservation(s.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations WHERE cancel_token = $1 AND tenant_id = $2`, token, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("reservation")
	}
	if err != nil {
		return nil, fmt.Errorf("reservations: load by token: %w", err)
	}
	return r, nil
}

// MarkCanceled transitions reserved -> canceled. The status predicate keeps
// it safe under concurrent cancels; zero rows means the row was no longer
// reserved.
func (s *Store) MarkCanceled(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (bool, error) {
	ct, err := s.pool.Exec(ctx, `
		UPDATE reservations
		SET status = 'canceled', canceled_at = $3
		WHERE id = $1 AND tenant_id = $2 AND status = 'reserved'`, id, tenantID, at)
	if err != nil {
		return false, fmt.Errorf("reservations: mark canceled: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// MarkCompleted transitions reserved -> completed inside the completion
// transaction, attaching the revenue transaction id.
func (s *Store) MarkCompleted(ctx context.Context, q Querier, tenantID, id uuid.UUID, at time.Time, revenueTxID uuid.UUID) error {
	if q == nil {
		q = s.pool
	}
	ct, err := q.Exec(ctx, `
		UPDATE reservations
		SET status = 'completed', completed_at = $3, revenue_transaction_id = $4
		WHERE id = $1 AND tenant_id = $2 AND status = 'reserved'`, id, tenantID, at, revenueTxID)
	if err != nil {
		return fmt.Errorf("reservations: mark completed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.InvalidState("reservation is no longer reserved")
	}
	return nil
}
