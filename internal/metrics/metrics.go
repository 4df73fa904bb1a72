package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zolver_scheduling",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	appointmentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zolver_scheduling",
			Name:      "appointments_created_total",
			Help:      "Appointments created, by origin type.",
		},
		[]string{"type"},
	)

	conflictsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zolver_scheduling",
			Name:      "conflicts_rejected_total",
			Help:      "External creates rejected by the overlap guard.",
		},
	)

	exportsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zolver_scheduling",
			Name:      "exports_served_total",
			Help:      "Calendar exports served, by format.",
		},
		[]string{"format"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, appointmentsCreated, conflictsRejected, exportsServed)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncCreated counts a successful create by appointment type.
func IncCreated(appointmentType string) {
	appointmentsCreated.WithLabelValues(appointmentType).Inc()
}

// IncConflict counts an overlap rejection.
func IncConflict() {
	conflictsRejected.Inc()
}

// IncExport counts a served export ("google", "ics", "xlsx").
func IncExport(format string) {
	exportsServed.WithLabelValues(format).Inc()
}
