package tenants

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turnohq/turno-platform/internal/apperrors"
	"github.com/turnohq/turno-platform/pkg/logging"
)

func newTestResolver(t *testing.T) (*Resolver, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	resolver := NewResolver(NewRepository(db), client, time.Minute, logging.Default())
	return resolver, mock, mr
}

func TestResolveCachesSlug(t *testing.T) {
	resolver, mock, mr := newTestResolver(t)
	id := uuid.New()

	// Only one database read is expected across both calls.
	mock.ExpectQuery("SELECT (.+) FROM tenants WHERE slug").
		WithArgs("el-patron").
		WillReturnRows(tenantRows(id, "el-patron", true))

	first, err := resolver.Resolve(context.Background(), "el-patron")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !mr.Exists(slugKey("el-patron")) {
		t.Fatal("expected the slug to be cached")
	}

	second, err := resolver.Resolve(context.Background(), "el-patron")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("cache answered a different tenant: %s vs %s", first.ID, second.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("second resolve must not hit the database: %v", err)
	}
}

func TestResolveUnknownSlug(t *testing.T) {
	resolver, mock, mr := newTestResolver(t)

	mock.ExpectQuery("SELECT (.+) FROM tenants WHERE slug").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := resolver.Resolve(context.Background(), "ghost")
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if mr.Exists(slugKey("ghost")) {
		t.Error("misses must not be cached")
	}
}

func TestResolveSurvivesCorruptCacheEntry(t *testing.T) {
	resolver, mock, mr := newTestResolver(t)
	id := uuid.New()

	mr.Set(slugKey("el-patron"), "not json")
	mock.ExpectQuery("SELECT (.+) FROM tenants WHERE slug").
		WithArgs("el-patron").
		WillReturnRows(tenantRows(id, "el-patron", true))

	tenant, err := resolver.Resolve(context.Background(), "el-patron")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tenant.ID != id {
		t.Errorf("expected id %s, got %s", id, tenant.ID)
	}
}

func TestInvalidateDropsCacheEntry(t *testing.T) {
	resolver, mock, mr := newTestResolver(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM tenants WHERE slug").
		WithArgs("el-patron").
		WillReturnRows(tenantRows(id, "el-patron", true))

	if _, err := resolver.Resolve(context.Background(), "el-patron"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := resolver.Invalidate(context.Background(), "el-patron"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(slugKey("el-patron")) {
		t.Error("expected the cache entry to be gone")
	}
}
