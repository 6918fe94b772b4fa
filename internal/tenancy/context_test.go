package tenancy

import (
	"context"
	"testing"
)

func TestTenantIDRoundTrip(t *testing.T) {
	ctx := WithTenantID(context.Background(), "tenant-1")
	id, ok := TenantIDFromContext(ctx)
	if !ok || id != "tenant-1" {
		t.Fatalf("expected tenant-1, got %q / %v", id, ok)
	}
}

func TestTenantIDMissing(t *testing.T) {
	if _, ok := TenantIDFromContext(context.Background()); ok {
		t.Fatal("expected no tenant id on empty context")
	}
}

func TestEmptyTenantIDNotOK(t *testing.T) {
	ctx := WithTenantID(context.Background(), "")
	if _, ok := TenantIDFromContext(ctx); ok {
		t.Fatal("empty tenant id must not count as present")
	}
}

func TestSuperOperatorFlag(t *testing.T) {
	if IsSuperOperator(context.Background()) {
		t.Fatal("plain context must not be super operator")
	}
	if !IsSuperOperator(WithSuperOperator(context.Background())) {
		t.Fatal("flagged context should be super operator")
	}
}
