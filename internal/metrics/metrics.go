package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "situationroom_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "situationroom_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "situationroom_submissions_total",
		Help: "Accepted submissions by form slug.",
	}, []string{"form"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "situationroom_uploads_total",
		Help: "Submission and incident report file uploads by outcome.",
	}, []string{"outcome"})

	IncidentReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "situationroom_incident_reports_total",
		Help: "Accepted incident reports by state.",
	}, []string{"state"})

	ReportCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "situationroom_report_cache_total",
		Help: "Report cache lookups by result.",
	}, []string{"result"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "situationroom_ws_connections",
		Help: "Open websocket connections.",
	})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
