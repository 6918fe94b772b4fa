package revenue

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/turnohq/turno-platform/internal/apperrors"
	"github.com/turnohq/turno-platform/internal/tenancy"
	"github.com/turnohq/turno-platform/pkg/logging"
)

// Handler exposes the tenant's revenue configuration to admins.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger.Component("revenue.http")}
}

// GetConfig handles GET /admin/revenue/config requests. A tenant that never
// saved a config gets the implicit 50/50 default.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	cfg, err := h.store.GetConfig(r.Context(), nil, tenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cfg == nil {
		cfg = DefaultConfig(tenantID)
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SaveConfig handles PUT /admin/revenue/config requests.
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cfg.TenantID = tenantID

	if err := h.store.SaveConfig(r.Context(), &cfg); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("revenue config saved", "tenant_id", tenantID)
	writeJSON(w, http.StatusOK, &cfg)
}

// GetTransaction handles GET /admin/revenue/transactions/{id} requests.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	tx, err := h.store.GetTransaction(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
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

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if kind, ok := apperrors.KindOf(err); ok {
		switch kind {
		case apperrors.KindValidation, apperrors.KindConfiguration:
			status = http.StatusUnprocessableEntity
		case apperrors.KindNotFound:
			status = http.StatusNotFound
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
