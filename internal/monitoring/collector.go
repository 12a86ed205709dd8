package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation kinds.
const (
	KindMetrics    = "metrics"
	KindProjection = "projection"
	KindTimeline   = "timeline"
	KindExport     = "export"
)

// Calculation results.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// Collector holds the service's Prometheus collectors.
type Collector struct {
	gatherer prometheus.Gatherer

	calculationsTotal *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// NewCollector registers the collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewCollectorWith(reg, reg)
}

// NewCollectorWith registers the collectors on reg and serves gatherer on
// the metrics endpoint.
func NewCollectorWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		gatherer: gatherer,

		calculationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_calculations_total",
				Help: "Total number of funnel calculations by kind and result",
			},
			[]string{"kind", "result"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "funnel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (c *Collector) RecordCalculation(kind, result string) {
	c.calculationsTotal.WithLabelValues(kind, result).Inc()
}

// Middleware times every request under its route template.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.requestDuration.
			WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
