package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestInsertUsesCallerQuerier(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewOutboxStore(mock)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), "tenant-1", TypeReviewRequested, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := store.Insert(context.Background(), tx, "tenant-1", TypeReviewRequested,
		ReviewRequestedV1{TenantID: "tenant-1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

type recordingHandler struct {
	entries []OutboxEntry
	fail    bool
}

func (h *recordingHandler) Handle(_ context.Context, entry OutboxEntry) error {
	if h.fail {
		return errors.New("transport down")
	}
	h.entries = append(h.entries, entry)
	return nil
}

func TestDeliverOnceMarksDelivered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	entryID := uuid.New()
	mock.ExpectQuery("SELECT id, tenant_id, type, payload").
		WithArgs(int32(25)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "type", "payload", "created_at"}).
			AddRow(entryID, "tenant-1", TypeReservationConfirmed, []byte(`{}`), time.Now()))
	mock.ExpectExec("UPDATE outbox").
		WithArgs(entryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	handler := &recordingHandler{}
	deliverer := NewDeliverer(NewOutboxStore(mock), handler, nil)
	deliverer.DeliverOnce(context.Background())

	if len(handler.entries) != 1 || handler.entries[0].ID != entryID {
		t.Fatalf("expected one delivered entry, got %+v", handler.entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeliverOnceKeepsFailedEntriesPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, tenant_id, type, payload").
		WithArgs(int32(25)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "type", "payload", "created_at"}).
			AddRow(uuid.New(), "tenant-1", TypeReviewRequested, []byte(`{}`), time.Now()))
	// No UPDATE expectation: a failed delivery must not be marked.

	deliverer := NewDeliverer(NewOutboxStore(mock), &recordingHandler{fail: true}, nil)
	deliverer.DeliverOnce(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
