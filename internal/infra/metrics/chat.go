package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		chatSendsTotal,
		chatRejectedTotal,
		assistantLatencyMs,
		chatSessionsOpen,
		chatInterruptsTotal,
		sessionsReapedTotal,
	)
}

var (
	chatSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sends_total",
			Help: "Messages dispatched to the assistant by outcome.",
		},
		[]string{"outcome"},
	)

	chatRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rejected_total",
			Help: "Submits rejected before any network call.",
		},
		[]string{"reason"}, // empty | in_flight | closed | suggestions_closed
	)

	assistantLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_latency_ms",
			Help:    "Assistant round-trip latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"success"},
	)

	chatSessionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sessions_open",
			Help: "Chat sessions currently held by the registry.",
		},
	)

	chatInterruptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_interrupts_total",
			Help: "Assistant replies flagged as interrupts.",
		},
	)

	sessionsReapedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_reaped_total",
			Help: "Idle sessions closed by the reaper.",
		},
		[]string{"kind"}, // chat | bookings_page
	)
)

func ObserveChatSend(elapsed time.Duration, err error) {
	chatSendsTotal.WithLabelValues(outcome(err)).Inc()
	success := "true"
	if err != nil {
		success = "false"
	}
	assistantLatencyMs.WithLabelValues(success).Observe(float64(elapsed.Milliseconds()))
}

func IncChatRejected(reason string) {
	chatRejectedTotal.WithLabelValues(norm(reason)).Inc()
}

func IncChatInterrupt() { chatInterruptsTotal.Inc() }

func SetChatSessionsOpen(n int) { chatSessionsOpen.Set(float64(n)) }

func AddSessionsReaped(kind string, n int) {
	sessionsReapedTotal.WithLabelValues(norm(kind)).Add(float64(n))
}
