package reservations

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnohq/turno-platform/pkg/logging"
)

// Stats aggregates a tenant's booking activity and settled revenue.
type Stats struct {
	TenantID             string `json:"tenant_id"`
	Reserved             int64  `json:"reserved"`
	Completed            int64  `json:"completed"`
	Canceled             int64  `json:"canceled"`
	TotalRevenueCents    int64  `json:"total_revenue_cents"`
	ProviderRevenueCents int64  `json:"provider_revenue_cents"`
	TenantRevenueCents   int64  `json:"tenant_revenue_cents"`
	PeriodStart          string `json:"period_start"`
	PeriodEnd            string `json:"period_end"`
}

// StatsRepository queries booking metrics from the database.
type StatsRepository struct {
	db Querier
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("reservations: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db Querier) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats retrieves aggregated metrics for a tenant. Optional start/end
// bound the period by creation time; when nil the stats are all-time.
func (r *StatsRepository) GetStats(ctx context.Context, tenantID uuid.UUID, start, end *time.Time) (*Stats, error) {
	stats := &Stats{TenantID: tenantID.String()}

	var timeFilter string
	args := []any{tenantID}
	if start != nil && end != nil {
		timeFilter = " AND created_at >= $2 AND created_at < $3"
		args = append(args, *start, *end)
		stats.PeriodStart = start.Format(time.RFC3339)
		stats.PeriodEnd = end.Format(time.RFC3339)
	} else {
		stats.PeriodStart = "all-time"
		stats.PeriodEnd = "now"
	}

	counts := []struct {
		status string
		dest   *int64
	}{
		{"reserved", &stats.Reserved},
		{"completed", &stats.Completed},
		{"canceled", &stats.Canceled},
	}
	for _, c := range counts {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM reservations WHERE tenant_id = $1 AND status = '%s'`, c.status) + timeFilter
		if err := r.db.QueryRow(ctx, query, args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("booking stats: count %s: %w", c.status, err)
		}
	}

	revenueQuery := `SELECT COALESCE(SUM(total_cents), 0), COALESCE(SUM(provider_amount_cents), 0), COALESCE(SUM(tenant_amount_cents), 0)
		FROM revenue_transactions WHERE tenant_id = $1` + timeFilter
	if err := r.db.QueryRow(ctx, revenueQuery, args...).Scan(
		&stats.TotalRevenueCents, &stats.ProviderRevenueCents, &stats.TenantRevenueCents,
	); err != nil {
		return nil, fmt.Errorf("booking stats: sum revenue: %w", err)
	}

	return stats, nil
}

// StatsHandler provides the admin endpoint for booking statistics.
type StatsHandler struct {
	repo   *StatsRepository
	logger *logging.Logger
}

// NewStatsHandler creates a new stats HTTP handler.
func NewStatsHandler(repo *StatsRepository, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{
		repo:   repo,
		logger: logger.Component("reservations.stats"),
	}
}

// GetStats returns aggregated metrics for the authenticated tenant.
// GET /admin/stats
// Query params:
//   - start: RFC3339 timestamp for period start (optional)
//   - end: RFC3339 timestamp for period end (optional)
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(w, r)
	if !ok {
		return
	}

	var start, end *time.Time
	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			http.Error(w, `{"error": "invalid start time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		start = &t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			http.Error(w, `{"error": "invalid end time, use RFC3339 format"}`, http.StatusBadRequest)
			return
		}
		end = &t
	}

	if (start == nil) != (end == nil) {
		http.Error(w, `{"error": "both start and end must be provided, or neither"}`, http.StatusBadRequest)
		return
	}

	stats, err := h.repo.GetStats(r.Context(), tenantID, start, end)
	if err != nil {
		h.logger.Error("failed to get booking stats", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
