package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/turnohq/turno-platform/internal/events"
	"github.com/turnohq/turno-platform/pkg/logging"
)

type capturingSender struct {
	sent []EmailMessage
	err  error
}

func (c *capturingSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func confirmedEntry(t *testing.T, evt events.ReservationConfirmedV1) events.OutboxEntry {
	t.Helper()
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return events.OutboxEntry{
		ID:        uuid.New(),
		TenantID:  evt.TenantID,
		Type:      events.TypeReservationConfirmed,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

func TestHandleConfirmationSendsEmail(t *testing.T) {
	sender := &capturingSender{}
	d := NewDispatcher(sender, "https://elpatron.turno.app", logging.Default())

	evt := events.ReservationConfirmedV1{
		TenantID:      uuid.NewString(),
		ReservationID: uuid.NewString(),
		ClientName:    "Ana",
		ClientEmail:   "ana@example.com",
		ProviderName:  "Marco",
		ServiceName:   "Corte clasico",
		Date:          "2026-03-15",
		Start:         "10:00",
		CancelToken:   "tok123",
	}
	if err := d.Handle(context.Background(), confirmedEntry(t, evt)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "ana@example.com" {
		t.Errorf("unexpected recipient %s", msg.To)
	}
	if !strings.Contains(msg.Body, "https://elpatron.turno.app/cancel/tok123") {
		t.Errorf("body must carry the cancel link, got %q", msg.Body)
	}
	if !strings.Contains(msg.Subject, "2026-03-15") {
		t.Errorf("subject must carry the date, got %q", msg.Subject)
	}
}

func TestHandleConfirmationWithoutEmailIsDropped(t *testing.T) {
	sender := &capturingSender{}
	d := NewDispatcher(sender, "https://turno.app", logging.Default())

	evt := events.ReservationConfirmedV1{ClientName: "Walk-in"}
	if err := d.Handle(context.Background(), confirmedEntry(t, evt)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("no email expected without a recipient")
	}
}

func TestHandleSendFailurePropagates(t *testing.T) {
	sender := &capturingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, "https://turno.app", logging.Default())

	evt := events.ReservationConfirmedV1{ClientName: "Ana", ClientEmail: "ana@example.com"}
	if err := d.Handle(context.Background(), confirmedEntry(t, evt)); err == nil {
		t.Fatal("send failures must propagate so the entry stays pending")
	}
}

func TestHandleReviewRequest(t *testing.T) {
	sender := &capturingSender{}
	d := NewDispatcher(sender, "https://turno.app", logging.Default())

	payload, _ := json.Marshal(events.ReviewRequestedV1{
		ClientName:  "Ana",
		ClientEmail: "ana@example.com",
		ReviewToken: "rev456",
	})
	entry := events.OutboxEntry{
		ID:      uuid.New(),
		Type:    events.TypeReviewRequested,
		Payload: payload,
	}
	if err := d.Handle(context.Background(), entry); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Body, "/review/rev456") {
		t.Errorf("body must carry the review link, got %q", sender.sent[0].Body)
	}
}

func TestHandleUnknownTypeIsDelivered(t *testing.T) {
	sender := &capturingSender{}
	d := NewDispatcher(sender, "https://turno.app", logging.Default())

	entry := events.OutboxEntry{ID: uuid.New(), Type: "something.else.v1", Payload: []byte("{}")}
	if err := d.Handle(context.Background(), entry); err != nil {
		t.Fatalf("unknown types must not wedge the outbox: %v", err)
	}
}

func TestHandleMalformedPayload(t *testing.T) {
	sender := &capturingSender{}
	d := NewDispatcher(sender, "https://turno.app", logging.Default())

	entry := events.OutboxEntry{ID: uuid.New(), Type: events.TypeReservationConfirmed, Payload: []byte("not json")}
	if err := d.Handle(context.Background(), entry); err == nil {
		t.Fatal("expected a decode error")
	}
}
