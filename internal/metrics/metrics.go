package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "goeat"

var (
	once sync.Once

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_status_cache_lookups_total",
			Help:      "Open-status cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	statusResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_status_resolutions_total",
			Help:      "Computed open-status results by deciding reason.",
		},
		[]string{"reason"},
	)

	scheduleMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_mutations_total",
			Help:      "Schedule and manual status writes by operation.",
		},
		[]string{"operation"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background task runs by task and result.",
		},
		[]string{"task", "result"},
	)

	partnersRepaired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partners_repaired_total",
			Help:      "Partners whose unset manual flag was set to open.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			cacheLookups,
			statusResolutions,
			scheduleMutations,
			jobRuns,
			partnersRepaired,
			httpRequests,
			httpDuration,
		)
	})
}

func IncCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func IncStatusResolution(reason string) {
	statusResolutions.WithLabelValues(reason).Inc()
}

func IncScheduleMutation(operation string) {
	scheduleMutations.WithLabelValues(operation).Inc()
}

func IncJobRun(task string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobRuns.WithLabelValues(task, result).Inc()
}

func AddPartnersRepaired(n int) {
	partnersRepaired.Add(float64(n))
}

func ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
