package tenancy

import "context"

type ctxKey string

const (
	tenantKey  ctxKey = "turno.tenant_id"
	superOpKey ctxKey = "turno.super_operator"
)

// WithTenantID stores the resolved tenant id in context. The id must come
// from server-side resolution (JWT claims or slug lookup), never from the
// request body or query string.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantIDFromContext extracts the tenant id if present.
func TenantIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(tenantKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

// WithSuperOperator marks the context as belonging to the cross-tenant
// operator role. Repositories only honor it when set explicitly.
func WithSuperOperator(ctx context.Context) context.Context {
	return context.WithValue(ctx, superOpKey, true)
}

// IsSuperOperator reports whether the context carries the cross-tenant role.
func IsSuperOperator(ctx context.Context) bool {
	v, ok := ctx.Value(superOpKey).(bool)
	return ok && v
}
