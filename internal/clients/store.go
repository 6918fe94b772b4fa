// Package clients updates the client profile aggregate. The booking core
// does not own this data; the completion pipeline increments its visit
// counters inside the completion transaction so a failed completion leaves
// the aggregate untouched.
package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

// Client is the aggregate profile row.
type Client struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	VisitCount  int64      `json:"visit_count"`
	LastVisitAt *time.Time `json:"last_visit_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Querier lets callers pass a transaction; nil falls back to the pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists client aggregates.
type Store struct {
	pool Querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &Store{pool: pool}
}

// NewStoreWithDB injects a mock for tests.
func NewStoreWithDB(db Querier) *Store {
	return &Store{pool: db}
}

// Get loads a client scoped to the tenant.
func (s *Store) Get(ctx context.Context, tenantID, clientID uuid.UUID) (*Client, error) {
	var c Client
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, email, phone, visit_count, last_visit_at, created_at
		FROM clients WHERE id = $1 AND tenant_id = $2`, clientID, tenantID).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.VisitCount, &c.LastVisitAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("client")
	}
	if err != nil {
		return nil, fmt.Errorf("clients: load: %w", err)
	}
	return &c, nil
}

// RecordVisit increments the visit counter and stamps the last visit. It
// must run on the caller's transaction during completion so the increment
// rolls back with the rest of the pipeline.
func (s *Store) RecordVisit(ctx context.Context, q Querier, tenantID, clientID uuid.UUID, visitedAt time.Time) error {
	if q == nil {
		q = s.pool
	}
	ct, err := q.Exec(ctx, `
		UPDATE clients
		SET visit_count = visit_count + 1, last_visit_at = $3
		WHERE id = $1 AND tenant_id = $2`, clientID, tenantID, visitedAt)
	if err != nil {
		return fmt.Errorf("clients: record visit: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("clients: record visit: %w", apperrors.NotFound("client"))
	}
	return nil
}
