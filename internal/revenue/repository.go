package revenue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

// Querier is the subset of pgx used by store methods, so callers can pass a
// transaction or let the method fall back to the pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool is the pool surface the store needs. pgxpool.Pool satisfies it and
// pgxmock stands in for tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists revenue configuration and transactions.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("revenue: pgx pool required")
	}
	return &Store{pool: pool}
}

// GetConfig loads the tenant's revenue config with its overrides. A tenant
// without a config returns nil, nil; the calculator handles that case.
func (s *Store) GetConfig(ctx context.Context, q Querier, tenantID uuid.UUID) (*Config, error) {
	if q == nil {
		q = s.pool
	}
	cfg := Config{TenantID: tenantID}
	err := q.QueryRow(ctx, `
		SELECT default_provider_pct, default_tenant_pct,
		       iva_enabled, iva_rate, withholding_enabled, withholding_rate,
		       approval_required, updated_at
		FROM revenue_configs WHERE tenant_id = $1`, tenantID).Scan(
		&cfg.DefaultProviderPct, &cfg.DefaultTenantPct,
		&cfg.IVAEnabled, &cfg.IVARate, &cfg.WithholdingEnabled, &cfg.WithholdingRate,
		&cfg.ApprovalRequired, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revenue: load config: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, scope, target_id, provider_pct, tenant_pct, active
		FROM revenue_overrides WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("revenue: load overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ov Override
		if err := rows.Scan(&ov.ID, &ov.Scope, &ov.TargetID, &ov.ProviderPct, &ov.TenantPct, &ov.Active); err != nil {
			return nil, fmt.Errorf("revenue: scan override: %w", err)
		}
		cfg.Overrides = append(cfg.Overrides, ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("revenue: iterate overrides: %w", err)
	}
	return &cfg, nil
}

// SaveConfig validates and persists the tenant's config, replacing its
// overrides. Any active percentage pair not summing to 100 is rejected
// before anything is written.
func (s *Store) SaveConfig(ctx context.Context, cfg *Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("revenue: begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO revenue_configs (tenant_id, default_provider_pct, default_tenant_pct,
		    iva_enabled, iva_rate, withholding_enabled, withholding_rate, approval_required, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
		    default_provider_pct = EXCLUDED.default_provider_pct,
		    default_tenant_pct = EXCLUDED.default_tenant_pct,
		    iva_enabled = EXCLUDED.iva_enabled,
		    iva_rate = EXCLUDED.iva_rate,
		    withholding_enabled = EXCLUDED.withholding_enabled,
		    withholding_rate = EXCLUDED.withholding_rate,
		    approval_required = EXCLUDED.approval_required,
		    updated_at = now()`,
		cfg.TenantID, cfg.DefaultProviderPct, cfg.DefaultTenantPct,
		cfg.IVAEnabled, cfg.IVARate, cfg.WithholdingEnabled, cfg.WithholdingRate,
		cfg.ApprovalRequired)
	if err != nil {
		return fmt.Errorf("revenue: upsert config: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM revenue_overrides WHERE tenant_id = $1`, cfg.TenantID); err != nil {
		return fmt.Errorf("revenue: clear overrides: %w", err)
	}
	for _, ov := range cfg.Overrides {
		id := ov.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO revenue_overrides (id, tenant_id, scope, target_id, provider_pct, tenant_pct, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, cfg.TenantID, ov.Scope, ov.TargetID, ov.ProviderPct, ov.TenantPct, ov.Active)
		if err != nil {
			return fmt.Errorf("revenue: insert override: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("revenue: commit save: %w", err)
	}
	return nil
}

// InsertTransaction writes the immutable financial record. Callers inside the
// completion pipeline pass their transaction as q.
func (s *Store) InsertTransaction(ctx context.Context, q Querier, t *Transaction) error {
	if q == nil {
		q = s.pool
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := q.QueryRow(ctx, `
		INSERT INTO revenue_transactions (id, tenant_id, reservation_id, provider_id, service_id,
		    total_cents, provider_pct, tenant_pct, origin,
		    provider_amount_cents, tenant_amount_cents, iva_cents, withholding_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`,
		t.ID, t.TenantID, t.ReservationID, t.ProviderID, t.ServiceID,
		t.TotalCents, t.ProviderPct, t.TenantPct, t.Origin,
		t.ProviderAmountCents, t.TenantAmountCents, t.IVACents, t.WithholdingCents, t.Status).
		Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("revenue: insert transaction: %w", err)
	}
	return nil
}

// GetTransaction loads a transaction scoped to the tenant.
func (s *Store) GetTransaction(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error) {
	var t Transaction
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, reservation_id, provider_id, service_id,
		       total_cents, provider_pct, tenant_pct, origin,
		       provider_amount_cents, tenant_amount_cents, iva_cents, withholding_cents,
		       status, created_at
		FROM revenue_transactions WHERE id = $1 AND tenant_id = $2`, id, tenantID).Scan(
		&t.ID, &t.TenantID, &t.ReservationID, &t.ProviderID, &t.ServiceID,
		&t.TotalCents, &t.ProviderPct, &t.TenantPct, &t.Origin,
		&t.ProviderAmountCents, &t.TenantAmountCents, &t.IVACents, &t.WithholdingCents,
		&t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("revenue transaction")
	}
	if err != nil {
		return nil, fmt.Errorf("revenue: load transaction: %w", err)
	}
	return &t, nil
}

// ValidateConfig checks every active percentage pair sums to 100.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return apperrors.Configuration("revenue config is required")
	}
	if !cfg.DefaultProviderPct.Add(cfg.DefaultTenantPct).Equal(hundred) {
		return apperrors.Configuration("default split must sum to 100")
	}
	for _, ov := range cfg.Overrides {
		if !ov.Active {
			continue
		}
		if !ov.ProviderPct.Add(ov.TenantPct).Equal(hundred) {
			return apperrors.Configuration("%s override for %s must sum to 100", ov.Scope, ov.TargetID)
		}
	}
	return nil
}
