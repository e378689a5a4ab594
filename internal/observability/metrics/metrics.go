package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the payment-to-booking flow.
type BookingMetrics struct {
	webhookTotal    *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
	bookingsCreated *prometheus.CounterVec
	persistFailures prometheus.Counter
	notifyFailures  prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrzn",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Total inbound Stripe webhook events",
		}, []string{"event_type", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hrzn",
			Subsystem: "payments",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of Stripe webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrzn",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Bookings committed to the store",
		}, []string{"property_code"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrzn",
			Subsystem: "bookings",
			Name:      "persist_failures_total",
			Help:      "Failed flushes of the booking store to disk",
		}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrzn",
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "Failed deliveries to the notification sink",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.webhookLatency, m.bookingsCreated, m.persistFailures, m.notifyFailures)
	return m
}

func (m *BookingMetrics) ObserveWebhook(eventType, status string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(eventType, status).Inc()
}

func (m *BookingMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}

func (m *BookingMetrics) ObserveBookingCreated(propertyCode string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(propertyCode).Inc()
}

func (m *BookingMetrics) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *BookingMetrics) ObserveNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
