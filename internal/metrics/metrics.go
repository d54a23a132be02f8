package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentease",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rentease",
			Name:      "bookings_created_total",
			Help:      "Bookings persisted in pending state.",
		},
	)

	bookingDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentease",
			Name:      "booking_denials_total",
			Help:      "Availability denials by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingDenials)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a successfully persisted booking request.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncDenial counts an availability denial by the rule that fired.
func IncDenial(reason string) {
	bookingDenials.WithLabelValues(reason).Inc()
}
