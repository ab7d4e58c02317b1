package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector tracks HTTP and dispatcher metrics on its own registry.
type Collector struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	published      *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	consumed       *prometheus.CounterVec
	processingTime *prometheus.HistogramVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatcher_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatcher_http_request_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications accepted by the broker",
		}, []string{"routing_key"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_fallback_total",
			Help: "Asynchronous sends delivered inline because the broker was unavailable",
		}, []string{"channel"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Provider deliveries by final status",
		}, []string{"channel", "status"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_consumed_total",
			Help: "Queue messages handled by the consumer",
		}, []string{"queue", "outcome"}),
		processingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_processing_seconds",
			Help:    "Time to handle one queue message in the consumer",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"}),
	}
	c.registry.MustRegister(
		c.requests,
		c.requestLatency,
		c.published,
		c.fallbacks,
		c.deliveries,
		c.consumed,
		c.processingTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// GinMiddleware records request count and latency per route.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.requests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.requestLatency.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Published(routingKey string) {
	c.published.WithLabelValues(routingKey).Inc()
}

func (c *Collector) Fallback(channel models.Channel) {
	c.fallbacks.WithLabelValues(string(channel)).Inc()
}

func (c *Collector) Delivery(channel models.Channel, status models.DeliveryStatus) {
	c.deliveries.WithLabelValues(string(channel), string(status)).Inc()
}

// Consumed counts one handled queue message and how long it took.
func (c *Collector) Consumed(queue, outcome string, took time.Duration) {
	c.consumed.WithLabelValues(queue, outcome).Inc()
	c.processingTime.WithLabelValues(queue).Observe(took.Seconds())
}
