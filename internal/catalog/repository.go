// Package catalog reads the tenant's providers and services. The booking
// core treats it as an external collaborator: reads only, always scoped by
// tenant, inactive rows answered as not found.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

// Service is a bookable service offering.
type Service struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	Name            string    `json:"name"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Provider is a service provider (a barber).
type Provider struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository looks up catalog rows.
type Repository struct {
	db rowQuerier
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB injects a mock database for tests.
func NewRepositoryWithDB(db rowQuerier) *Repository {
	return &Repository{db: db}
}

// GetActiveService returns the service if it exists, is active and belongs
// to the tenant. Every other case is the same NotFoundError.
func (r *Repository) GetActiveService(ctx context.Context, tenantID, serviceID uuid.UUID) (*Service, error) {
	var svc Service
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, price_cents, duration_minutes, active, created_at
		FROM services
		WHERE id = $1 AND tenant_id = $2 AND active`, serviceID, tenantID).Scan(
		&svc.ID, &svc.TenantID, &svc.Name, &svc.PriceCents, &svc.DurationMinutes, &svc.Active, &svc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("service")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load service: %w", err)
	}
	return &svc, nil
}

// GetActiveProvider returns the provider scoped to the tenant.
func (r *Repository) GetActiveProvider(ctx context.Context, tenantID, providerID uuid.UUID) (*Provider, error) {
	var p Provider
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, active, created_at
		FROM providers
		WHERE id = $1 AND tenant_id = $2 AND active`, providerID, tenantID).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("provider")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load provider: %w", err)
	}
	return &p, nil
}
