package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking core.
type BookingMetrics struct {
	bookingAttempts    *prometheus.CounterVec
	slotConflicts      prometheus.Counter
	completionRollback prometheus.Counter
	completionLatency  prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turno",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turno",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts that lost the slot race",
		}),
		completionRollback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turno",
			Subsystem: "completion",
			Name:      "rollbacks_total",
			Help:      "Completion pipelines rolled back",
		}),
		completionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "turno",
			Subsystem: "completion",
			Name:      "latency_seconds",
			Help:      "Latency of the completion transaction",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingAttempts, m.slotConflicts, m.completionRollback, m.completionLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(outcome).Inc()
	if outcome == "conflict" {
		m.slotConflicts.Inc()
	}
}

func (m *BookingMetrics) ObserveRollback() {
	if m == nil {
		return
	}
	m.completionRollback.Inc()
}

func (m *BookingMetrics) ObserveCompletionLatency(seconds float64) {
	if m == nil {
		return
	}
	m.completionLatency.Observe(seconds)
}
