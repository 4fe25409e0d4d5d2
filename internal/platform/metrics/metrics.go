package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics holds the booking service collectors.
type BookingMetrics struct {
	BookingsCommitted      *prometheus.CounterVec
	RecurrenceChildFailure prometheus.Counter
	Payments               *prometheus.CounterVec
	PendingSwept           prometheus.Counter
}

// NewBookingMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		BookingsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "committed_total",
			Help:      "Primary bookings written, by recurrence.",
		}, []string{"recurring"}),
		RecurrenceChildFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "recurrence_children_failed_total",
			Help:      "Recurrence child batches that failed to persist.",
		}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "payments_total",
			Help:      "Payment handoff outcomes.",
		}, []string{"outcome"}),
		PendingSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "pending_swept_total",
			Help:      "Stale pending bookings cancelled by the sweep job.",
		}),
	}
	reg.MustRegister(m.BookingsCommitted, m.RecurrenceChildFailure, m.Payments, m.PendingSwept)
	return m
}
