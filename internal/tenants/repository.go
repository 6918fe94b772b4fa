package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

// Repository reads tenants from the identity database.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("tenants: database required")
	}
	return &Repository{db: db}
}

// GetBySlug returns the active tenant for a slug. Inactive tenants answer
// the same NotFoundError as absent ones.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	var t Tenant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, timezone, currency, features, active, created_at
		FROM tenants WHERE slug = $1 AND active`, slug).Scan(
		&t.ID, &t.Slug, &t.Name, &t.Timezone, &t.Currency, pq.Array(&t.Features), &t.Active, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tenant")
	}
	if err != nil {
		return nil, fmt.Errorf("tenants: load by slug: %w", err)
	}
	if t.Features == nil {
		t.Features = []string{}
	}
	return &t, nil
}

// GetByID returns the tenant regardless of active flag, for admin reads.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var t Tenant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, timezone, currency, features, active, created_at
		FROM tenants WHERE id = $1`, id).Scan(
		&t.ID, &t.Slug, &t.Name, &t.Timezone, &t.Currency, pq.Array(&t.Features), &t.Active, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tenant")
	}
	if err != nil {
		return nil, fmt.Errorf("tenants: load by id: %w", err)
	}
	if t.Features == nil {
		t.Features = []string{}
	}
	return &t, nil
}
