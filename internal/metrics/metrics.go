// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	relayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "push_relay",
		Name:      "relay_requests_total",
		Help:      "Relay attempts by outcome.",
	}, []string{"result"})

	relayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "push_relay",
		Name:      "relay_duration_seconds",
		Help:      "End-to-end relay latency by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
)

// ObserveRelay records one relay attempt. result is "success" or the
// failure kind.
func ObserveRelay(result string, seconds float64) {
	relayRequests.WithLabelValues(result).Inc()
	relayDuration.WithLabelValues(result).Observe(seconds)
}

// Handler adapts the Prometheus scrape handler to gin.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
