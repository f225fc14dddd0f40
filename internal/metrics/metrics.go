// Package metrics exposes the registry's operational counters and
// matching latency as Prometheus collectors. It is a pure observer: it
// never sits on the hot matching path and cannot affect a submit's
// outcome, only record it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles the counters/histograms cmd/server registers once and
// internal/transport updates per message.
type Collectors struct {
	OrdersProcessed prometheus.Counter
	TradesEmitted   prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	SubmitLatency   prometheus.Histogram
}

// NewCollectors builds a Collectors with the matchcore_ metric namespace.
func NewCollectors() *Collectors {
	return &Collectors{
		OrdersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_processed_total",
			Help:      "Orders accepted and routed to a book.",
		}),
		TradesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "trades_emitted_total",
			Help:      "Trades emitted by the matching engine.",
		}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchcore",
			Name:      "orders_rejected_total",
			Help:      "Orders rejected at the registry boundary, by reason.",
		}, []string{"reason"}),
		SubmitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchcore",
			Name:      "submit_latency_seconds",
			Help:      "Wall-clock time spent inside a single PlaceOrder call.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate registration — a programmer error, not a runtime condition.
func (c *Collectors) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(c.OrdersProcessed, c.TradesEmitted, c.OrdersRejected, c.SubmitLatency)
}

// ObserveReject records a rejection at the registry boundary, keyed by the
// sentinel error's message (InvalidOrder / UnknownSymbol).
func (c *Collectors) ObserveReject(reason string) {
	c.OrdersRejected.WithLabelValues(reason).Inc()
}
