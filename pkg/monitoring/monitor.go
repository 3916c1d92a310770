package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 评估流水线指标
	GradingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_grading_outcomes_total",
			Help: "Graded answers by question type and outcome",
		},
		[]string{"type", "outcome"},
	)

	FinalizedApplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_finalized_applications_total",
			Help: "Applications finalized, by resulting status and trigger",
		},
		[]string{"status", "trigger"},
	)

	FinalizeStageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_finalize_stage_failures_total",
			Help: "Finalize pipeline stages that failed and were isolated",
		},
		[]string{"stage"},
	)

	RankRecomputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recruit_rank_recompute_duration_seconds",
			Help:    "Duration of a full per-job leaderboard rebuild",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	ProctoringEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_proctoring_events_total",
			Help: "Accepted proctoring events by type",
		},
		[]string{"type"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(GradingOutcomes)
	prometheus.MustRegister(FinalizedApplications)
	prometheus.MustRegister(FinalizeStageFailures)
	prometheus.MustRegister(RankRecomputeDuration)
	prometheus.MustRegister(ProctoringEvents)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
