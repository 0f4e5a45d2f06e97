package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for booking, lifecycle and poll flows.
type SchedulingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	pollCyclesTotal  *prometheus.CounterVec
	eventsEmitted    prometheus.Counter
	newAppointments  prometheus.Counter
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "transitions_total",
			Help:      "Lifecycle transition attempts by action and outcome",
		}, []string{"action", "outcome"}),
		pollCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Change-detector poll cycles by status",
		}, []string{"status"}),
		eventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "poller",
			Name:      "events_emitted_total",
			Help:      "Notification events delivered to the sink",
		}),
		newAppointments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "poller",
			Name:      "new_appointments_total",
			Help:      "Appointment ids reported as newly observed",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal, m.pollCyclesTotal, m.eventsEmitted, m.newAppointments)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *SchedulingMetrics) ObservePollCycle(status string) {
	if m == nil {
		return
	}
	m.pollCyclesTotal.WithLabelValues(status).Inc()
}

func (m *SchedulingMetrics) ObserveEventEmitted(addedCount int) {
	if m == nil {
		return
	}
	m.eventsEmitted.Inc()
	m.newAppointments.Add(float64(addedCount))
}
