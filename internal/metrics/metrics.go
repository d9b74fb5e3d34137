package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for bridge requests.
const (
	OutcomeSuccess     = "success"
	OutcomeTimeout     = "timeout"
	OutcomeRemoteError = "remote_error"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeError       = "error"
)

var (
	BridgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lot_service",
			Name:      "bridge_requests_total",
			Help:      "Request/reply bridge calls per capability and outcome",
		},
		[]string{"capability", "outcome"},
	)

	BridgeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lot_service",
			Name:      "bridge_request_duration_seconds",
			Help:      "Time spent waiting on a correlated reply per capability",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		},
		[]string{"capability"},
	)

	LotsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lot_service",
			Name:      "lots_closed_total",
			Help:      "Expired lots transitioned to COMPLETED, by winner attribution",
		},
		[]string{"attribution"},
	)
)

func init() {
	prometheus.MustRegister(BridgeRequestsTotal, BridgeRequestDuration, LotsClosedTotal)
}

func ObserveBridgeRequest(capability, outcome string, seconds float64) {
	BridgeRequestsTotal.WithLabelValues(capability, outcome).Inc()
	BridgeRequestDuration.WithLabelValues(capability).Observe(seconds)
}

func IncLotClosed(withWinner bool) {
	attribution := "without_winner"
	if withWinner {
		attribution = "with_winner"
	}
	LotsClosedTotal.WithLabelValues(attribution).Inc()
}
