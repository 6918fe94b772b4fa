package reservations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/turnohq/turno-platform/internal/tenancy"
	"github.com/turnohq/turno-platform/pkg/logging"
)

func tenantRequest(method, target string, body []byte, tenantID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(tenancy.WithTenantID(req.Context(), tenantID.String()))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateHandlerReturnsCreated(t *testing.T) {
	svc, mock := newTestService(t)
	handler := NewHandler(svc, logging.Default())

	tenantID := uuid.New()
	providerID := uuid.New()
	serviceID := uuid.New()

	expectCatalogLookups(mock, tenantID, providerID, serviceID, 45)
	mock.ExpectQuery("SELECT (.+) FROM reservations").
		WithArgs(tenantID, providerID, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(reservationCols))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reservations").
		WithArgs(pgxmock.AnyArg(), tenantID, providerID, serviceID, pgxmock.AnyArg(), "Ana", "ana@example.com",
			pgxmock.AnyArg(), "10:00", "10:45", StatusReserved,
			pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1500), int64(1500), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	body, _ := json.Marshal(CreateRequest{
		ProviderID: providerID,
		ServiceID:  serviceID,
		Slot:       Slot{Date: "2026-03-15", Start: "10:00"},
		Client:     ClientInfo{Name: "Ana", Email: "ana@example.com"},
	})
	w := httptest.NewRecorder()
	handler.Create(w, tenantRequest(http.MethodPost, "/reservations", body, tenantID))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var res Reservation
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Status != StatusReserved {
		t.Errorf("expected status reserved, got %s", res.Status)
	}
	if res.CancelToken == "" {
		t.Error("expected a cancel token in the response")
	}
}

func TestCreateHandlerMissingTenantContext(t *testing.T) {
	svc, _ := newTestService(t)
	handler := NewHandler(svc, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateHandlerSlotRaceMapsTo409(t *testing.T) {
	svc, mock := newTestService(t)
	handler := NewHandler(svc, logging.Default())

	tenantID := uuid.New()
	providerID := uuid.New()
	serviceID := uuid.New()

	expectCatalogLookups(mock, tenantID, providerID, serviceID, 30)
	mock.ExpectQuery("SELECT (.+) FROM reservations").
		WithArgs(tenantID, providerID, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(reservationCols))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO reservations").
		WithArgs(pgxmock.AnyArg(), tenantID, providerID, serviceID, pgxmock.AnyArg(), "Ana", "",
			pgxmock.AnyArg(), "10:00", "10:30", StatusReserved,
			pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1500), int64(1500), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "reservations_active_slot_key"})
	mock.ExpectRollback()

	body, _ := json.Marshal(CreateRequest{
		ProviderID: providerID,
		ServiceID:  serviceID,
		Slot:       Slot{Date: "2026-03-15", Start: "10:00"},
		Client:     ClientInfo{Name: "Ana"},
	})
	w := httptest.NewRecorder()
	handler.Create(w, tenantRequest(http.MethodPost, "/reservations", body, tenantID))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	if strings.Contains(w.Body.String(), "23505") {
		t.Error("driver detail must not reach the response body")
	}
}

func TestGetHandlerCrossTenantIs404(t *testing.T) {
	svc, mock := newTestService(t)
	handler := NewHandler(svc, logging.Default())

	tenantID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(id, tenantID).
		WillReturnError(pgx.ErrNoRows)

	req := withURLParam(tenantRequest(http.MethodGet, "/reservations/"+id.String(), nil, tenantID), "id", id.String())
	w := httptest.NewRecorder()
	handler.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("cross tenant reads must answer %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestCompleteHandlerCanceledReservationIs422(t *testing.T) {
	svc, mock := newTestService(t)
	handler := NewHandler(svc, logging.Default())

	tenantID := uuid.New()
	r := newTestReservation()
	r.TenantID = tenantID
	r.Status = StatusCanceled

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(r.ID, tenantID).
		WillReturnRows(reservationRow(r))
	mock.ExpectRollback()

	req := withURLParam(tenantRequest(http.MethodPost, "/admin/reservations/"+r.ID.String()+"/complete", nil, tenantID), "id", r.ID.String())
	w := httptest.NewRecorder()
	handler.Complete(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
}

func TestCompleteHandlerPipelineFailureIs500Generic(t *testing.T) {
	svc, mock := newTestService(t)
	handler := NewHandler(svc, logging.Default())

	tenantID := uuid.New()
	r := newTestReservation()
	r.TenantID = tenantID

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs(r.ID, tenantID).
		WillReturnRows(reservationRow(r))
	mock.ExpectQuery("SELECT (.+) FROM revenue_configs").
		WithArgs(tenantID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("UPDATE reservations").
		WithArgs(r.ID, tenantID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	req := withURLParam(tenantRequest(http.MethodPost, "/admin/reservations/"+r.ID.String()+"/complete", nil, tenantID), "id", r.ID.String())
	w := httptest.NewRecorder()
	handler.Complete(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if strings.Contains(w.Body.String(), "serialize access") {
		t.Error("driver detail must not reach the response body")
	}
}

func TestAvailabilityHandlerListsBusySlots(t *testing.T) {
	svc, mock := newTestService(t)
	handler := NewHandler(svc, logging.Default())

	tenantID := uuid.New()
	providerID := uuid.New()

	booked := newTestReservation()
	booked.TenantID = tenantID
	booked.ProviderID = providerID

	mock.ExpectQuery("SELECT (.+) FROM reservations").
		WithArgs(tenantID, providerID, pgxmock.AnyArg()).
		WillReturnRows(reservationRow(booked))

	req := withURLParam(
		tenantRequest(http.MethodGet, "/providers/"+providerID.String()+"/availability?date=2026-03-15", nil, tenantID),
		"providerID", providerID.String())
	w := httptest.NewRecorder()
	handler.Availability(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var res AvailabilityResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(res.Busy) != 1 || res.Busy[0].Start != booked.Slot.Start {
		t.Errorf("expected the booked window, got %+v", res.Busy)
	}
}
