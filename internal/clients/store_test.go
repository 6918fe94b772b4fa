package clients

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/turnohq/turno-platform/internal/apperrors"
)

func TestRecordVisit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewStoreWithDB(mock)
	tenantID := uuid.New()
	clientID := uuid.New()
	visitedAt := time.Now()

	mock.ExpectExec("UPDATE clients").
		WithArgs(clientID, tenantID, visitedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.RecordVisit(context.Background(), nil, tenantID, clientID, visitedAt); err != nil {
		t.Fatalf("record visit: %v", err)
	}
}

func TestRecordVisitUnknownClient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewStoreWithDB(mock)
	mock.ExpectExec("UPDATE clients").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.RecordVisit(context.Background(), nil, uuid.New(), uuid.New(), time.Now())
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found through wrapping, got %v", err)
	}
}
