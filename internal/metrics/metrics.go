package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trader_ticks_total", Help: "Ticks resolved, split by outcome"},
		[]string{"account", "instrument", "outcome"},
	)
	DecisionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trader_decision_latency_seconds",
			Help:    "Dispatch-to-validated-decision round trip time",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"instrument"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trader_orders_total", Help: "Connector-confirmed orders"},
		[]string{"account", "instrument", "side"},
	)
	PositionWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "trader_position_weight", Help: "Current position weight in [-1,1]"},
		[]string{"account", "instrument"},
	)
	StaleResponsesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trader_stale_responses_total", Help: "Responses dropped for carrying a non-matching request id"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, DecisionLatency, OrdersTotal, PositionWeight, StaleResponsesTotal)
}

// Serve exposes /metrics in Prometheus text format on addr.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
