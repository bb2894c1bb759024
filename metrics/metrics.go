package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "selfkey",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by status.",
		},
		[]string{"status"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "selfkey",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled, including reaped pending bookings.",
		},
	)

	reservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "selfkey",
			Name:      "reservation_conflict_total",
			Help:      "Count of reservation attempts that lost the race for a room.",
		},
	)

	priceMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "selfkey",
			Name:      "price_mismatch_total",
			Help:      "Count of bookings rejected because the client-quoted price disagreed with the server.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, reservationConflicts, priceMismatches)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncReservationConflict() {
	reservationConflicts.Inc()
}

func IncPriceMismatch() {
	priceMismatches.Inc()
}
