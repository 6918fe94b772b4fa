package events

import "time"

// Event types routed through the outbox.
const (
	TypeReservationConfirmed = "reservation.confirmed.v1"
	TypeReviewRequested      = "reservation.review_requested.v1"
)

// ReservationConfirmedV1 is emitted after a booking commits.
type ReservationConfirmedV1 struct {
	TenantID      string    `json:"tenant_id"`
	ReservationID string    `json:"reservation_id"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	ProviderName  string    `json:"provider_name"`
	ServiceName   string    `json:"service_name"`
	Date          string    `json:"date"`
	Start         string    `json:"start"`
	CancelToken   string    `json:"cancel_token"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReviewRequestedV1 is emitted after a completion commits.
type ReviewRequestedV1 struct {
	TenantID      string    `json:"tenant_id"`
	ReservationID string    `json:"reservation_id"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	ServiceName   string    `json:"service_name"`
	ReviewToken   string    `json:"review_token"`
	OccurredAt    time.Time `json:"occurred_at"`
}
