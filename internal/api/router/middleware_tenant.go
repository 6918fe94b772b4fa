package router

import (
	"net/http"
	"strings"

	"github.com/turnohq/turno-platform/internal/apperrors"
	"github.com/turnohq/turno-platform/internal/tenancy"
	"github.com/turnohq/turno-platform/internal/tenants"
)

const tenantSlugHeader = "X-Tenant-Slug"

// requireTenantSlug resolves the X-Tenant-Slug header into a tenant id and
// stores it in context. Public booking traffic is always addressed by slug;
// ids never come from the client.
func requireTenantSlug(resolver *tenants.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := strings.TrimSpace(r.Header.Get(tenantSlugHeader))
			if slug == "" {
				http.Error(w, "missing "+tenantSlugHeader, http.StatusBadRequest)
				return
			}
			tenant, err := resolver.Resolve(r.Context(), slug)
			if err != nil {
				if apperrors.Is(err, apperrors.KindNotFound) {
					http.Error(w, "unknown tenant", http.StatusNotFound)
					return
				}
				http.Error(w, "tenant resolution failed", http.StatusInternalServerError)
				return
			}
			ctx := tenancy.WithTenantID(r.Context(), tenant.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
