package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal counts handled HTTP requests by endpoint and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// LoginsTotal counts login attempts by result (success, invalid,
	// rejected, rate_limited).
	LoginsTotal *prometheus.CounterVec

	// BookingsCreatedTotal counts successfully created bookings.
	BookingsCreatedTotal prometheus.Counter

	// BookingConflictsTotal counts create/update attempts refused because
	// the slot was taken.
	BookingConflictsTotal prometheus.Counter

	// SessionsDisplacedTotal counts sessions invalidated by a newer login.
	SessionsDisplacedTotal prometheus.Counter
)

// Init registers all collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoombook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"endpoint", "status"},
		)

		LoginsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zoombook_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		)

		BookingsCreatedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "zoombook_bookings_created_total",
				Help: "Total number of bookings created",
			},
		)

		BookingConflictsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "zoombook_booking_conflicts_total",
				Help: "Total number of booking attempts refused due to a time conflict",
			},
		)

		SessionsDisplacedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "zoombook_sessions_displaced_total",
				Help: "Total number of sessions displaced by a newer login",
			},
		)
	})
}

func RecordHTTPRequest(endpoint, status string) {
	if HTTPRequestsTotal != nil {
		HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	}
}

func RecordLogin(result string) {
	if LoginsTotal != nil {
		LoginsTotal.WithLabelValues(result).Inc()
	}
}

func RecordBookingCreated() {
	if BookingsCreatedTotal != nil {
		BookingsCreatedTotal.Inc()
	}
}

func RecordBookingConflict() {
	if BookingConflictsTotal != nil {
		BookingConflictsTotal.Inc()
	}
}

func RecordSessionDisplaced() {
	if SessionsDisplacedTotal != nil {
		SessionsDisplacedTotal.Inc()
	}
}
