package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HistoryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_proxy_history_writes_total",
			Help: "Search history writes by result.",
		},
		[]string{"result"},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_proxy_upstream_requests_total",
			Help: "Weather provider requests by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_proxy_cache_lookups_total",
			Help: "Weather cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HistoryWrites, UpstreamRequests, CacheLookups)
}

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
