package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "emenu",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emenu",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "emenu",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	reportRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emenu",
			Subsystem: "report",
			Name:      "runs_total",
			Help:      "Daily dish report runs by outcome.",
		},
		[]string{"outcome"},
	)

	reportEmails = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "emenu",
			Subsystem: "report",
			Name:      "emails_sent_total",
			Help:      "Report emails handed to the mail transport.",
		},
	)

	tasksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emenu",
			Subsystem: "tasks",
			Name:      "processed_total",
			Help:      "Queued tasks processed by the worker.",
		},
		[]string{"task", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		reportRuns,
		reportEmails,
		tasksProcessed,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncInFlight() { httpInFlight.Inc() }

func DecInFlight() { httpInFlight.Dec() }

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Report outcomes.
const (
	ReportSent    = "sent"
	ReportSkipped = "skipped"
	ReportFailed  = "failed"
)

func RecordReport(outcome string, sent int) {
	reportRuns.WithLabelValues(outcome).Inc()
	if sent > 0 {
		reportEmails.Add(float64(sent))
	}
}

func RecordTask(task string, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	tasksProcessed.WithLabelValues(task, label).Inc()
}
