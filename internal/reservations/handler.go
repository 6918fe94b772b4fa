package reservations

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/turnohq/turno-platform/internal/apperrors"
	"github.com/turnohq/turno-platform/internal/tenancy"
	"github.com/turnohq/turno-platform/pkg/logging"
)

// Handler handles HTTP requests for reservations
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new reservations handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.Component("reservations.http"),
	}
}

// Create handles POST /reservations requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.CreateReservation(r.Context(), tenantID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Cancel handles POST /reservations/{id}/cancel requests. The path value may
// be a reservation id or a cancel token.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}

	res, err := h.service.CancelReservation(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Complete handles POST /admin/reservations/{id}/complete requests.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid reservation id", http.StatusBadRequest)
		return
	}

	res, err := h.service.CompleteReservation(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Get handles GET /reservations/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid reservation id", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetReservation(r.Context(), tenantID, id, tenancy.IsSuperOperator(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AvailabilityResponse lists the busy windows for a provider day.
type AvailabilityResponse struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Date       string    `json:"date"`
	Busy       []Slot    `json:"busy"`
}

// Availability handles GET /providers/{providerID}/availability?date= requests.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
	if err != nil {
		http.Error(w, "invalid provider id", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")

	busy, err := h.service.Availability(r.Context(), tenantID, providerID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{ProviderID: providerID, Date: date, Busy: busy})
}

// SplitPreview handles GET /admin/revenue/split requests.
func (h *Handler) SplitPreview(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}
	providerID, err := uuid.Parse(r.URL.Query().Get("provider_id"))
	if err != nil {
		http.Error(w, "invalid provider id", http.StatusBadRequest)
		return
	}
	serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}
	var overridePct *decimal.Decimal
	if raw := r.URL.Query().Get("override_provider_pct"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			http.Error(w, "invalid override percentage", http.StatusBadRequest)
			return
		}
		overridePct = &p
	}

	split, err := h.service.CalculateSplit(r.Context(), tenantID, providerID, serviceID, overridePct)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}

// writeError maps the error taxonomy onto HTTP statuses. Driver detail stays
// in the log; clients get the user message only.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if kind, ok := apperrors.KindOf(err); ok {
		switch kind {
		case apperrors.KindValidation:
			status = http.StatusBadRequest
		case apperrors.KindNotFound:
			status = http.StatusNotFound
		case apperrors.KindConflict:
			status = http.StatusConflict
		case apperrors.KindInvalidState, apperrors.KindConfiguration:
			status = http.StatusUnprocessableEntity
		}
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": apperrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func tenantFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid tenant context", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
