package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Contribution ledger
	ContributionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contributions_total",
			Help: "Total committed contributions (append + increment both applied)",
		},
	)
	ContributionsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contributions_failed_total",
			Help: "Total contributions rejected by a store fault",
		},
	)

	// Admission limiter
	AdmissionRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_rejected_total",
			Help: "Write operations denied a permit before the admission timeout",
		},
	)

	// Gateway sessions
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_sessions_active",
			Help: "Currently connected gateway sessions",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// handler for the /metrics endpoint
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ContributionsTotal)
	prometheus.MustRegister(ContributionsFailed)
	prometheus.MustRegister(AdmissionRejected)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(WorkerQueueDepth)
}
