// Package notify emails booking participants. The dispatcher consumes
// outbox entries after the owning transaction has committed; a send failure
// leaves the entry pending so delivery retries.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/turnohq/turno-platform/internal/events"
	"github.com/turnohq/turno-platform/pkg/logging"
)

// Dispatcher turns outbox entries into emails.
type Dispatcher struct {
	email   EmailSender
	baseURL string
	logger  *logging.Logger
}

func NewDispatcher(email EmailSender, baseURL string, logger *logging.Logger) *Dispatcher {
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		email:   email,
		baseURL: baseURL,
		logger:  logger.Component("notify"),
	}
}

// Handle delivers one outbox entry. Events without a recipient are dropped
// as delivered; there is nobody to retry for.
func (d *Dispatcher) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeReservationConfirmed:
		var evt events.ReservationConfirmedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		return d.sendConfirmation(ctx, evt)
	case events.TypeReviewRequested:
		var evt events.ReviewRequestedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		return d.sendReviewRequest(ctx, evt)
	default:
		d.logger.Warn("unknown outbox event type", "type", entry.Type, "id", entry.ID)
		return nil
	}
}

func (d *Dispatcher) sendConfirmation(ctx context.Context, evt events.ReservationConfirmedV1) error {
	if evt.ClientEmail == "" {
		d.logger.Debug("confirmation skipped, no client email", "reservation_id", evt.ReservationID)
		return nil
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment is confirmed.\n\nService: %s\nWith: %s\nWhen: %s at %s\n\nNeed to cancel? Use this link:\n%s/cancel/%s\n",
		evt.ClientName, evt.ServiceName, evt.ProviderName, evt.Date, evt.Start,
		d.baseURL, evt.CancelToken)

	return d.email.Send(ctx, EmailMessage{
		To:      evt.ClientEmail,
		ToName:  evt.ClientName,
		Subject: fmt.Sprintf("Confirmed: %s on %s at %s", evt.ServiceName, evt.Date, evt.Start),
		Body:    body,
	})
}

func (d *Dispatcher) sendReviewRequest(ctx context.Context, evt events.ReviewRequestedV1) error {
	if evt.ClientEmail == "" {
		d.logger.Debug("review request skipped, no client email", "reservation_id", evt.ReservationID)
		return nil
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for coming in. We would love to hear how it went:\n%s/review/%s\n",
		evt.ClientName, d.baseURL, evt.ReviewToken)

	return d.email.Send(ctx, EmailMessage{
		To:      evt.ClientEmail,
		ToName:  evt.ClientName,
		Subject: "How was your visit?",
		Body:    body,
	})
}

var _ events.DeliveryHandler = (*Dispatcher)(nil)
