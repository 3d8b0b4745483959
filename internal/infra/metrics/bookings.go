package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(bookingsFetchTotal, bookingsFetchLatencyMs, bookingSearchesTotal) }

var (
	bookingsFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_fetch_total",
			Help: "Calls to the bookings endpoints by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	bookingsFetchLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookings_fetch_latency_ms",
			Help:    "Bookings endpoint latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"endpoint"},
	)

	bookingSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_searches_total",
			Help: "Booking searches by result (found/empty/invalid/error).",
		},
		[]string{"result"},
	)
)

func ObserveBookingsFetch(endpoint string, elapsed time.Duration, err error) {
	bookingsFetchTotal.WithLabelValues(norm(endpoint), outcome(err)).Inc()
	bookingsFetchLatencyMs.WithLabelValues(norm(endpoint)).Observe(float64(elapsed.Milliseconds()))
}

func IncBookingSearch(result string) {
	bookingSearchesTotal.WithLabelValues(norm(result)).Inc()
}
