package reservations

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

// Status is the reservation lifecycle state.
type Status string

const (
	StatusReserved  Status = "reserved"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
)

// Slot identifies a bookable provider/date/time window. Times are fixed
// "HH:MM" strings; the interval is half-open so End == next Start does not
// overlap.
type Slot struct {
	Date  string `json:"date"`  // 2006-01-02
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// Validate checks the slot's shape and ordering.
func (s Slot) Validate() error {
	if !dateRe.MatchString(s.Date) {
		return apperrors.Validation("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return apperrors.Validation("date %q is not a calendar day", s.Date)
	}
	if !timeRe.MatchString(s.Start) || !timeRe.MatchString(s.End) {
		return apperrors.Validation("times must be HH:MM")
	}
	if s.Start >= s.End {
		return apperrors.Validation("start must be before end")
	}
	return nil
}

// Overlaps reports half-open interval overlap with another slot on the same
// provider and date.
func (s Slot) Overlaps(other Slot) bool {
	return s.Date == other.Date && s.Start < other.End && s.End > other.Start
}

// ClientInfo identifies who the booking is for. A known client carries an
// ID; anonymous bookings carry name/email only.
type ClientInfo struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
}

// Reservation is one booked appointment.
type Reservation struct {
	ID                   uuid.UUID        `json:"id"`
	TenantID             uuid.UUID        `json:"tenant_id"`
	ProviderID           uuid.UUID        `json:"provider_id"`
	ServiceID            uuid.UUID        `json:"service_id"`
	ClientID             *uuid.UUID       `json:"client_id,omitempty"`
	ClientName           string           `json:"client_name"`
	ClientEmail          string           `json:"client_email"`
	Slot                 Slot             `json:"slot"`
	Status               Status           `json:"status"`
	CancelToken          string           `json:"cancel_token,omitempty"`
	ReviewToken          string           `json:"review_token,omitempty"`
	PriceBaseCents       int64            `json:"price_base_cents"`
	PriceFinalCents      int64            `json:"price_final_cents"`
	OverrideProviderPct  *decimal.Decimal `json:"override_provider_pct,omitempty"`
	RevenueTransactionID *uuid.UUID       `json:"revenue_transaction_id,omitempty"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	CanceledAt           *time.Time       `json:"canceled_at,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// CanCancel reports whether cancellation is a transition or an idempotent
// no-op. Completed reservations cannot be canceled.
func (r *Reservation) CanCancel() error {
	switch r.Status {
	case StatusReserved, StatusCanceled:
		return nil
	default:
		return apperrors.InvalidState("cannot cancel a %s reservation", r.Status)
	}
}

// CanComplete reports whether the completion pipeline may run.
func (r *Reservation) CanComplete() error {
	if r.Status != StatusReserved {
		return apperrors.InvalidState("cannot complete a %s reservation", r.Status)
	}
	return nil
}

// newToken returns an opaque single-purpose capability. 128 bits keeps it
// unguessable without being unwieldy in links.
func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails on a broken platform; uuid is the fallback.
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
