package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

func TestGetActiveService(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	tenantID := uuid.New()
	serviceID := uuid.New()

	mock.ExpectQuery("SELECT id, tenant_id, name, price_cents").
		WithArgs(serviceID, tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "name", "price_cents", "duration_minutes", "active", "created_at"}).
			AddRow(serviceID, tenantID, "Corte clásico", int64(1500), 30, true, time.Now()))

	svc, err := repo.GetActiveService(context.Background(), tenantID, serviceID)
	if err != nil {
		t.Fatalf("get service: %v", err)
	}
	if svc.PriceCents != 1500 || svc.DurationMinutes != 30 {
		t.Fatalf("unexpected service %+v", svc)
	}
}

func TestGetActiveServiceCrossTenantIsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	mock.ExpectQuery("SELECT id, tenant_id, name, price_cents").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetActiveService(context.Background(), uuid.New(), uuid.New())
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetActiveProviderInactiveIsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	// The query filters on active, so an inactive provider surfaces as no rows.
	mock.ExpectQuery("SELECT id, tenant_id, name, active").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetActiveProvider(context.Background(), uuid.New(), uuid.New())
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
