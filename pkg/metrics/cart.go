package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and persistence activity.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	hydrations      *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_failures_total",
		Help: "Failed persistence bridge operations.",
	}, []string{"op"})
	hydrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_hydrations_total",
		Help: "Cart loads from persistent storage by outcome.",
	}, []string{"outcome"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_active_sessions",
		Help: "Carts currently held in the in-memory registry.",
	})
	reg.MustRegister(mutations, persistFailures, hydrations, activeSessions)
	return &CartMetrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		hydrations:      hydrations,
		activeSessions:  activeSessions,
	}
}

// IncMutation counts a mutation attempt; result is "ok" or "rejected".
func (c *CartMetrics) IncMutation(op, result string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// IncPersistFailure counts a failed save/load/clear against storage.
func (c *CartMetrics) IncPersistFailure(op string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncHydration counts a load outcome: hit, miss, corrupt or error.
func (c *CartMetrics) IncHydration(outcome string) {
	if c == nil || c.hydrations == nil {
		return
	}
	c.hydrations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetActiveSessions reports the registry size.
func (c *CartMetrics) SetActiveSessions(n int) {
	if c == nil || c.activeSessions == nil {
		return
	}
	c.activeSessions.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
