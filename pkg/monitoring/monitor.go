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

	// StageFailures counts pipeline stage errors by workflow and stage name.
	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_failures_total",
			Help: "Total number of failed pipeline stages",
		},
		[]string{"workflow", "stage"},
	)

	// FallbackSubstitutions counts degraded collaborator calls where a
	// deterministic fallback was substituted (workflow still succeeded).
	FallbackSubstitutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_fallback_substitutions_total",
			Help: "Total number of fallback substitutions after collaborator failures",
		},
		[]string{"collaborator"},
	)

	// NarrationDuration observes the length in seconds of synthesized audio.
	NarrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "narration_audio_duration_seconds",
			Help:    "Duration of synthesized narration artifacts",
			Buckets: []float64{1, 2, 5, 10, 20, 40},
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(StageFailures)
	prometheus.MustRegister(FallbackSubstitutions)
	prometheus.MustRegister(NarrationDuration)
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
