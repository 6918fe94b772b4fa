package tenants

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/turnohq/turno-platform/pkg/logging"
)

const defaultSlugTTL = 5 * time.Minute

// Resolver answers slug lookups through a Redis cache. A cache failure is
// never fatal; the identity database stays the source of truth.
type Resolver struct {
	repo   *Repository
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
}

func NewResolver(repo *Repository, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Resolver {
	if repo == nil {
		panic("tenants: repository required")
	}
	if ttl <= 0 {
		ttl = defaultSlugTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		repo:   repo,
		redis:  redisClient,
		ttl:    ttl,
		tracer: otel.Tracer("turno.internal.tenants"),
		logger: logger.Component("tenants"),
	}
}

// Resolve returns the tenant for a slug, from cache when possible.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "tenants.resolve")
	defer span.End()

	if r.redis != nil {
		data, err := r.redis.Get(ctx, slugKey(slug)).Bytes()
		if err == nil {
			var t Tenant
			if err := json.Unmarshal(data, &t); err == nil {
				return &t, nil
			}
			// A corrupt entry falls through to the database and gets rewritten.
		} else if err != redis.Nil {
			r.logger.Warn("slug cache read failed", "slug", slug, "error", err)
		}
	}

	t, err := r.repo.GetBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if r.redis != nil {
		data, err := json.Marshal(t)
		if err == nil {
			if err := r.redis.Set(ctx, slugKey(slug), data, r.ttl).Err(); err != nil {
				r.logger.Warn("slug cache write failed", "slug", slug, "error", err)
			}
		}
	}
	return t, nil
}

// Invalidate drops the cached entry after a tenant update.
func (r *Resolver) Invalidate(ctx context.Context, slug string) error {
	if r.redis == nil {
		return nil
	}
	if err := r.redis.Del(ctx, slugKey(slug)).Err(); err != nil {
		return fmt.Errorf("tenants: invalidate slug: %w", err)
	}
	return nil
}

func slugKey(slug string) string {
	return fmt.Sprintf("tenant:slug:%s", slug)
}
