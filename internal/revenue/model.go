package revenue

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Origin records which tier of the waterfall resolved the split.
type Origin string

const (
	OriginReservation Origin = "reservation"
	OriginService     Origin = "service"
	OriginProvider    Origin = "provider"
	OriginDefault     Origin = "default"
)

// OverrideScope distinguishes provider- from service-level overrides.
type OverrideScope string

const (
	ScopeProvider OverrideScope = "provider"
	ScopeService  OverrideScope = "service"
)

// Override is one waterfall rule targeting a provider or service.
type Override struct {
	ID          uuid.UUID       `json:"id"`
	Scope       OverrideScope   `json:"scope"`
	TargetID    uuid.UUID       `json:"target_id"`
	ProviderPct decimal.Decimal `json:"provider_pct"`
	TenantPct   decimal.Decimal `json:"tenant_pct"`
	Active      bool            `json:"active"`
}

// Config is the per-tenant revenue split configuration.
type Config struct {
	TenantID           uuid.UUID       `json:"tenant_id"`
	DefaultProviderPct decimal.Decimal `json:"default_provider_pct"`
	DefaultTenantPct   decimal.Decimal `json:"default_tenant_pct"`
	Overrides          []Override      `json:"overrides"`
	IVAEnabled         bool            `json:"iva_enabled"`
	IVARate            decimal.Decimal `json:"iva_rate"`
	WithholdingEnabled bool            `json:"withholding_enabled"`
	WithholdingRate    decimal.Decimal `json:"withholding_rate"`
	ApprovalRequired   bool            `json:"approval_required"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DefaultConfig is the implicit 50/50 split for tenants that never saved
// a config. Taxes stay disabled until the tenant opts in.
func DefaultConfig(tenantID uuid.UUID) *Config {
	return &Config{
		TenantID:           tenantID,
		DefaultProviderPct: fiftyFifty,
		DefaultTenantPct:   fiftyFifty,
		Overrides:          []Override{},
	}
}

// TransactionStatus is the approval state of a revenue transaction.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusApproved TransactionStatus = "approved"
)

// Transaction is the immutable financial record created once per completed
// reservation.
type Transaction struct {
	ID                  uuid.UUID         `json:"id"`
	TenantID            uuid.UUID         `json:"tenant_id"`
	ReservationID       uuid.UUID         `json:"reservation_id"`
	ProviderID          uuid.UUID         `json:"provider_id"`
	ServiceID           uuid.UUID         `json:"service_id"`
	TotalCents          int64             `json:"total_cents"`
	ProviderPct         decimal.Decimal   `json:"provider_pct"`
	TenantPct           decimal.Decimal   `json:"tenant_pct"`
	Origin              Origin            `json:"origin"`
	ProviderAmountCents int64             `json:"provider_amount_cents"`
	TenantAmountCents   int64             `json:"tenant_amount_cents"`
	IVACents            int64             `json:"iva_cents"`
	WithholdingCents    int64             `json:"withholding_cents"`
	Status              TransactionStatus `json:"status"`
	CreatedAt           time.Time         `json:"created_at"`
}
