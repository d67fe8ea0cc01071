package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "finmodel",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finmodel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finmodel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "finmodel",
			Subsystem: "events",
			Name:      "active_streams",
			Help:      "Currently registered push connections.",
		},
	)

	broadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finmodel",
			Subsystem: "events",
			Name:      "broadcasts_total",
			Help:      "Events fanned out to push connections.",
		},
		[]string{"event"},
	)

	dropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "finmodel",
			Subsystem: "events",
			Name:      "dropped_connections_total",
			Help:      "Push connections removed after a failed write.",
		},
	)

	integrationSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finmodel",
			Subsystem: "integrations",
			Name:      "syncs_total",
			Help:      "Integration feed syncs by outcome.",
		},
		[]string{"provider", "success"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		streamsActive,
		broadcasts,
		dropped,
		integrationSyncs,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks the start of a request.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight marks the end of a request.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records a finished request against its route template.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetActiveStreams reports the size of the broadcaster's connection set.
func SetActiveStreams(n int) { streamsActive.Set(float64(n)) }

// RecordBroadcast counts one fan-out of event.
func RecordBroadcast(event string) { broadcasts.WithLabelValues(event).Inc() }

// RecordDropped counts connections pruned after failed writes.
func RecordDropped(n int) { dropped.Add(float64(n)) }

// RecordIntegrationSync counts one integration sync attempt.
func RecordIntegrationSync(provider string, success bool) {
	integrationSyncs.WithLabelValues(provider, strconv.FormatBool(success)).Inc()
}
