package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/turnohq/turno-platform/internal/apperrors"
	"github.com/turnohq/turno-platform/internal/catalog"
	"github.com/turnohq/turno-platform/internal/clients"
	"github.com/turnohq/turno-platform/internal/events"
	"github.com/turnohq/turno-platform/internal/observability/metrics"
	"github.com/turnohq/turno-platform/internal/revenue"
	"github.com/turnohq/turno-platform/pkg/logging"
)

var tracer = otel.Tracer("turno.internal.reservations")

// CreateRequest is the booking input. End may be empty; it is derived from
// the service duration.
type CreateRequest struct {
	ProviderID          uuid.UUID        `json:"provider_id"`
	ServiceID           uuid.UUID        `json:"service_id"`
	Slot                Slot             `json:"slot"`
	Client              ClientInfo       `json:"client"`
	OverrideProviderPct *decimal.Decimal `json:"override_provider_pct,omitempty"`
}

// Service implements the booking core operations.
type Service struct {
	store    *Store
	catalogs *catalog.Repository
	clients  *clients.Store
	revenue  *revenue.Store
	outbox   *events.OutboxStore
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(store *Store, catalogs *catalog.Repository, clientStore *clients.Store,
	revenueStore *revenue.Store, outbox *events.OutboxStore,
	bookingMetrics *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("reservations: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		catalogs: catalogs,
		clients:  clientStore,
		revenue:  revenueStore,
		outbox:   outbox,
		metrics:  bookingMetrics,
		logger:   logger.Component("reservations"),
		now:      time.Now,
	}
}

// CreateReservation books a slot. The availability read gives the common
// case a friendly answer; the partial unique index decides races. The
// reservation row and its confirmation event commit together.
func (s *Service) CreateReservation(ctx context.Context, tenantID uuid.UUID, req CreateRequest) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.create")
	defer span.End()
	span.SetAttributes(attribute.String("turno.tenant_id", tenantID.String()))

	if tenantID == uuid.Nil {
		return nil, apperrors.Validation("tenant id is required")
	}
	if req.Client.ID == nil && req.Client.Name == "" {
		return nil, apperrors.Validation("client name is required for anonymous bookings")
	}
	if req.OverrideProviderPct != nil {
		p := *req.OverrideProviderPct
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperrors.Validation("override percentage must be between 0 and 100")
		}
	}

	provider, err := s.catalogs.GetActiveProvider(ctx, tenantID, req.ProviderID)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalogs.GetActiveService(ctx, tenantID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	slot := req.Slot
	if slot.End == "" {
		end, err := addMinutes(slot.Start, svc.DurationMinutes)
		if err != nil {
			return nil, err
		}
		slot.End = end
	}
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	// Optimistic availability read. Purely a UX optimization: the partial
	// unique index below is the actual guarantee.
	existing, err := s.store.ListActiveForProviderDay(ctx, tenantID, req.ProviderID, slot.Date)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if slot.Overlaps(other.Slot) {
			s.metrics.ObserveBooking("unavailable")
			return nil, apperrors.Conflict("slot unavailable")
		}
	}

	r := &Reservation{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		ProviderID:          provider.ID,
		ServiceID:           svc.ID,
		ClientID:            req.Client.ID,
		ClientName:          req.Client.Name,
		ClientEmail:         req.Client.Email,
		Slot:                slot,
		Status:              StatusReserved,
		CancelToken:         newToken(),
		ReviewToken:         newToken(),
		PriceBaseCents:      svc.PriceCents,
		PriceFinalCents:     svc.PriceCents,
		OverrideProviderPct: req.OverrideProviderPct,
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperrors.Transaction(err)
	}
	defer tx.Rollback(ctx)

	if err := s.store.TryReserve(ctx, tx, r); err != nil {
		if apperrors.Is(err, apperrors.KindConflict) {
			s.metrics.ObserveBooking("conflict")
			s.logger.Info("slot race lost",
				"tenant_id", tenantID, "provider_id", req.ProviderID,
				"date", slot.Date, "start", slot.Start)
		}
		return nil, err
	}
	_, err = s.outbox.Insert(ctx, tx, tenantID.String(), events.TypeReservationConfirmed,
		events.ReservationConfirmedV1{
			TenantID:      tenantID.String(),
			ReservationID: r.ID.String(),
			ClientName:    r.ClientName,
			ClientEmail:   r.ClientEmail,
			ProviderName:  provider.Name,
			ServiceName:   svc.Name,
			Date:          slot.Date,
			Start:         slot.Start,
			CancelToken:   r.CancelToken,
			OccurredAt:    s.now().UTC(),
		})
	if err != nil {
		return nil, apperrors.Transaction(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Transaction(err)
	}

	s.metrics.ObserveBooking("success")
	s.logger.Info("reservation created",
		"tenant_id", tenantID, "reservation_id", r.ID,
		"provider_id", r.ProviderID, "date", slot.Date, "start", slot.Start)
	return r, nil
}

// CancelReservation transitions reserved -> canceled by id or by cancel
// token. Canceling twice is a no-op success; canceling a completed
// reservation is an InvalidStateError.
func (s *Service) CancelReservation(ctx context.Context, tenantID uuid.UUID, idOrToken string) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("turno.tenant_id", tenantID.String()))

	r, err := s.lookup(ctx, tenantID, idOrToken)
	if err != nil {
		return nil, err
	}
	if err := r.CanCancel(); err != nil {
		return nil, err
	}
	if r.Status == StatusCanceled {
		return r, nil
	}

	at := s.now().UTC()
	canceled, err := s.store.MarkCanceled(ctx, tenantID, r.ID, at)
	if err != nil {
		return nil, err
	}
	if !canceled {
		// Lost a race with another cancel or a completion; reload to decide.
		r, err = s.store.GetByID(ctx, nil, tenantID, r.ID)
		if err != nil {
			return nil, err
		}
		if r.Status == StatusCanceled {
			return r, nil
		}
		return nil, apperrors.InvalidState("cannot cancel a %s reservation", r.Status)
	}

	r.Status = StatusCanceled
	r.CanceledAt = &at
	s.logger.Info("reservation canceled", "tenant_id", tenantID, "reservation_id", r.ID)
	return r, nil
}

// CompleteReservation runs the completion pipeline: reservation to
// completed, client visit recorded, revenue transaction written, review
// request queued, all in one transaction. Any step failure rolls the whole
// pipeline back and surfaces as a TransactionError.
func (s *Service) CompleteReservation(ctx context.Context, tenantID uuid.UUID, reservationID uuid.UUID) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("turno.tenant_id", tenantID.String()),
		attribute.String("turno.reservation_id", reservationID.String()),
	)
	started := s.now()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperrors.Transaction(err)
	}
	defer tx.Rollback(ctx)

	r, err := s.store.GetByID(ctx, tx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}
	if err := r.CanComplete(); err != nil {
		return nil, err
	}

	cfg, err := s.revenue.GetConfig(ctx, tx, tenantID)
	if err != nil {
		return nil, s.rollbackErr(err)
	}
	split := revenue.ResolveSplit(cfg, r.ProviderID, r.ServiceID, r.OverrideProviderPct)
	amounts := revenue.ComputeAmounts(split, r.PriceFinalCents, cfg)

	status := revenue.StatusApproved
	if cfg != nil && cfg.ApprovalRequired {
		status = revenue.StatusPending
	}
	revenueTx := &revenue.Transaction{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		ReservationID:       r.ID,
		ProviderID:          r.ProviderID,
		ServiceID:           r.ServiceID,
		TotalCents:          amounts.TotalCents,
		ProviderPct:         split.ProviderPct,
		TenantPct:           split.TenantPct,
		Origin:              split.Origin,
		ProviderAmountCents: amounts.ProviderAmountCents,
		TenantAmountCents:   amounts.TenantAmountCents,
		IVACents:            amounts.IVACents,
		WithholdingCents:    amounts.WithholdingCents,
		Status:              status,
	}

	completedAt := s.now().UTC()
	if err := s.store.MarkCompleted(ctx, tx, tenantID, r.ID, completedAt, revenueTx.ID); err != nil {
		// A concurrent cancel or complete between the read and the update
		// is a state conflict, not a pipeline failure.
		if apperrors.Is(err, apperrors.KindInvalidState) {
			return nil, err
		}
		return nil, s.rollbackErr(err)
	}
	if r.ClientID != nil {
		if err := s.clients.RecordVisit(ctx, tx, tenantID, *r.ClientID, completedAt); err != nil {
			return nil, s.rollbackErr(err)
		}
	}
	if err := s.revenue.InsertTransaction(ctx, tx, revenueTx); err != nil {
		return nil, s.rollbackErr(err)
	}
	_, err = s.outbox.Insert(ctx, tx, tenantID.String(), events.TypeReviewRequested,
		events.ReviewRequestedV1{
			TenantID:      tenantID.String(),
			ReservationID: r.ID.String(),
			ClientName:    r.ClientName,
			ClientEmail:   r.ClientEmail,
			ReviewToken:   r.ReviewToken,
			OccurredAt:    completedAt,
		})
	if err != nil {
		return nil, s.rollbackErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, s.rollbackErr(err)
	}

	r.Status = StatusCompleted
	r.CompletedAt = &completedAt
	r.RevenueTransactionID = &revenueTx.ID
	s.metrics.ObserveCompletionLatency(s.now().Sub(started).Seconds())
	s.logger.Info("reservation completed",
		"tenant_id", tenantID, "reservation_id", r.ID,
		"revenue_transaction_id", revenueTx.ID, "origin", split.Origin)
	return r, nil
}

// CalculateSplit resolves the tenant's split for a provider/service pair
// without side effects.
func (s *Service) CalculateSplit(ctx context.Context, tenantID, providerID, serviceID uuid.UUID, overridePct *decimal.Decimal) (revenue.Split, error) {
	cfg, err := s.revenue.GetConfig(ctx, nil, tenantID)
	if err != nil {
		return revenue.Split{}, err
	}
	return revenue.ResolveSplit(cfg, providerID, serviceID, overridePct), nil
}

// Availability lists the booked windows for a provider on a day.
func (s *Service) Availability(ctx context.Context, tenantID, providerID uuid.UUID, day string) ([]Slot, error) {
	existing, err := s.store.ListActiveForProviderDay(ctx, tenantID, providerID, day)
	if err != nil {
		return nil, err
	}
	busy := make([]Slot, 0, len(existing))
	for _, r := range existing {
		busy = append(busy, r.Slot)
	}
	return busy, nil
}

// GetReservation loads a reservation for the tenant. A super-operator
// context may read across tenants.
func (s *Service) GetReservation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, superOperator bool) (*Reservation, error) {
	if superOperator {
		return s.store.GetByIDAnyTenant(ctx, id)
	}
	return s.store.GetByID(ctx, nil, tenantID, id)
}

func (s *Service) lookup(ctx context.Context, tenantID uuid.UUID, idOrToken string) (*Reservation, error) {
	if id, err := uuid.Parse(idOrToken); err == nil {
		return s.store.GetByID(ctx, nil, tenantID, id)
	}
	return s.store.GetByCancelToken(ctx, tenantID, idOrToken)
}

// rollbackErr wraps a pipeline failure. The deferred tx.Rollback has
// already undone every applied step; callers see only the generic
// transaction taxonomy while the cause goes to the log.
func (s *Service) rollbackErr(err error) error {
	s.metrics.ObserveRollback()
	s.logger.Error("completion pipeline rolled back", "error", err)
	return apperrors.Transaction(err)
}

func addMinutes(start string, minutes int) (string, error) {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return "", apperrors.Validation("times must be HH:MM")
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format("15:04"), nil
}
