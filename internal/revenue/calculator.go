package revenue

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	fiftyFifty = decimal.NewFromInt(50)
)

// Split is the resolved percentage pair plus the tier that produced it.
type Split struct {
	ProviderPct decimal.Decimal
	TenantPct   decimal.Decimal
	Origin      Origin
}

// Amounts carries the computed money movement for a completed reservation.
type Amounts struct {
	Split
	TotalCents          int64
	ProviderAmountCents int64
	TenantAmountCents   int64
	IVACents            int64
	WithholdingCents    int64
}

// ResolveSplit walks the waterfall: reservation override, active service
// override, active provider override, tenant default. A nil config yields
// 50/50 so a tenant without revenue configuration can still complete
// reservations. Inactive overrides are skipped as if absent.
func ResolveSplit(cfg *Config, providerID, serviceID uuid.UUID, reservationOverridePct *decimal.Decimal) Split {
	if reservationOverridePct != nil {
		p := *reservationOverridePct
		return Split{ProviderPct: p, TenantPct: hundred.Sub(p), Origin: OriginReservation}
	}
	if cfg == nil {
		return Split{ProviderPct: fiftyFifty, TenantPct: fiftyFifty, Origin: OriginDefault}
	}
	if ov, ok := findOverride(cfg.Overrides, ScopeService, serviceID); ok {
		return Split{ProviderPct: ov.ProviderPct, TenantPct: ov.TenantPct, Origin: OriginService}
	}
	if ov, ok := findOverride(cfg.Overrides, ScopeProvider, providerID); ok {
		return Split{ProviderPct: ov.ProviderPct, TenantPct: ov.TenantPct, Origin: OriginProvider}
	}
	return Split{ProviderPct: cfg.DefaultProviderPct, TenantPct: cfg.DefaultTenantPct, Origin: OriginDefault}
}

func findOverride(overrides []Override, scope OverrideScope, target uuid.UUID) (Override, bool) {
	for _, ov := range overrides {
		if ov.Scope == scope && ov.TargetID == target && ov.Active {
			return ov, true
		}
	}
	return Override{}, false
}

// ComputeAmounts applies the split and taxes to a total. Each amount is
// rounded independently, so the provider/tenant sum may differ from the
// total by at most one cent. Taxes apply to the provider amount only and
// only when enabled on the config; a nil config means no taxes.
func ComputeAmounts(split Split, totalCents int64, cfg *Config) Amounts {
	total := decimal.NewFromInt(totalCents)
	providerAmount := roundCents(total.Mul(split.ProviderPct).Div(hundred))
	tenantAmount := roundCents(total.Mul(split.TenantPct).Div(hundred))

	out := Amounts{
		Split:               split,
		TotalCents:          totalCents,
		ProviderAmountCents: providerAmount,
		TenantAmountCents:   tenantAmount,
	}
	if cfg == nil {
		return out
	}
	providerDec := decimal.NewFromInt(providerAmount)
	if cfg.IVAEnabled {
		out.IVACents = roundCents(providerDec.Mul(cfg.IVARate).Div(hundred))
	}
	if cfg.WithholdingEnabled {
		out.WithholdingCents = roundCents(providerDec.Mul(cfg.WithholdingRate).Div(hundred))
	}
	return out
}

func roundCents(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
