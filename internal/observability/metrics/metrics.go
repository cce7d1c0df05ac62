package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the appointment lifecycle.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	paymentsTotal      *prometheus.CounterVec
	bookingLatency     *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docpoint",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"status"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docpoint",
			Subsystem: "appointments",
			Name:      "cancellations_total",
			Help:      "Total cancellation attempts",
		}, []string{"status", "actor_role"}),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docpoint",
			Subsystem: "payments",
			Name:      "verifications_total",
			Help:      "Total payment verification attempts",
		}, []string{"status"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docpoint",
			Subsystem: "appointments",
			Name:      "booking_latency_seconds",
			Help:      "Latency of booking requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.cancellationsTotal, m.paymentsTotal, m.bookingLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(status string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
	m.bookingLatency.WithLabelValues(status).Observe(seconds)
}

func (m *BookingMetrics) ObserveCancellation(status, actorRole string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(status, actorRole).Inc()
}

func (m *BookingMetrics) ObservePaymentVerification(status string) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(status).Inc()
}
