package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goalrisk"

// Collector owns a private registry so several instances can coexist in
// one process.
type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	monitorRuns     prometheus.Counter
	monitorDuration prometheus.Histogram
	goalsByLevel    *prometheus.GaugeVec
	healthScore     *prometheus.GaugeVec
	degradedGoals   prometheus.Counter
	jobRuns         *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by status code.",
		}, []string{"code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"class"}),
		monitorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "runs_total",
			Help:      "Team monitoring runs.",
		}),
		monitorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "run_duration_seconds",
			Help:      "Duration of a team monitoring run.",
			Buckets:   prometheus.DefBuckets,
		}),
		goalsByLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "goals",
			Help:      "Goals per risk level in the latest run of each team.",
		}, []string{"team", "level"}),
		healthScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "team_health_score",
			Help:      "Health score from the latest run of each team.",
		}, []string{"team"}),
		degradedGoals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "degraded_goals_total",
			Help:      "Goals that fell back to an insufficient-data assessment.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by type and outcome.",
		}, []string{"job", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requests, c.requestDuration,
		c.monitorRuns, c.monitorDuration, c.goalsByLevel, c.healthScore, c.degradedGoals,
		c.jobRuns,
	)
	return c
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(statusClass(status)).Observe(duration.Seconds())
}

func (c *Collector) ObserveMonitorRun(teamID string, levels map[string]int, healthScore, degraded int, duration time.Duration) {
	if c == nil {
		return
	}
	c.monitorRuns.Inc()
	c.monitorDuration.Observe(duration.Seconds())
	for level, n := range levels {
		c.goalsByLevel.WithLabelValues(teamID, level).Set(float64(n))
	}
	c.healthScore.WithLabelValues(teamID).Set(float64(healthScore))
	c.degradedGoals.Add(float64(degraded))
}

func (c *Collector) ObserveJob(jobType, status string) {
	if c == nil {
		return
	}
	c.jobRuns.WithLabelValues(jobType, status).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
