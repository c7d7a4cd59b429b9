package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections tracks currently open ingest connections.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_active_connections",
			Help: "Number of open telemetry TCP connections",
		},
	)

	// MessagesTotal counts processed ingest messages by outcome.
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Total number of ingest messages processed",
		},
		[]string{"result"},
	)

	// ReadingsSavedTotal counts readings persisted to the store.
	ReadingsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_saved_total",
			Help: "Total number of machine readings saved",
		},
	)

	// LiveDataRequestsTotal counts derived-metrics computations served.
	LiveDataRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "live_data_requests_total",
			Help: "Total number of live data records computed",
		},
	)
)

func init() {
	prometheus.MustRegister(ActiveConnections)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(ReadingsSavedTotal)
	prometheus.MustRegister(LiveDataRequestsTotal)
}

// RecordMessage increments the message counter for an outcome label.
func RecordMessage(result string) {
	MessagesTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
