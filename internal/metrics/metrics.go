package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling core.
// A nil *BookingMetrics is valid and records nothing.
type BookingMetrics struct {
	transitionsTotal *prometheus.CounterVec
	slotQueriesTotal *prometheus.CounterVec
	slotLatency      prometheus.Histogram
	autoBookTotal    *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counseling",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Appointment state transitions by action and result",
		}, []string{"action", "result"}),
		slotQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counseling",
			Subsystem: "slots",
			Name:      "queries_total",
			Help:      "Open slot computations by result",
		}, []string{"result"}),
		slotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "counseling",
			Subsystem: "slots",
			Name:      "computation_seconds",
			Help:      "Latency of loading and computing open slots for one date",
			Buckets:   prometheus.DefBuckets,
		}),
		autoBookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counseling",
			Subsystem: "autobook",
			Name:      "requests_total",
			Help:      "Auto-booking requests by result",
		}, []string{"result"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "counseling",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Appointment events handed to the notification dispatcher",
		}, []string{"type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.slotQueriesTotal, m.slotLatency, m.autoBookTotal, m.eventsTotal)
	return m
}

func (m *BookingMetrics) ObserveTransition(action, result string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(action, result).Inc()
}

func (m *BookingMetrics) ObserveSlotQuery(result string, seconds float64) {
	if m == nil {
		return
	}
	m.slotQueriesTotal.WithLabelValues(result).Inc()
	m.slotLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveAutoBook(result string) {
	if m == nil {
		return
	}
	m.autoBookTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(eventType, status).Inc()
}
