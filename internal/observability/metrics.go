package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatroom_http_requests_total",
			Help: "Total number of HTTP requests processed by the chatroom service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatroom_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatroom_messages_sent_total",
			Help: "Total number of messages accepted into room logs.",
		},
		[]string{"room_type"},
	)
	roomsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatroom_rooms_created_total",
			Help: "Total number of rooms committed to the registry.",
		},
		[]string{"room_type"},
	)
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatroom_users_registered_total",
			Help: "Total number of users registered.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatroom_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		messagesSentTotal,
		roomsCreatedTotal,
		usersRegisteredTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncMessageSent(roomType string) {
	messagesSentTotal.WithLabelValues(roomType).Inc()
}

func IncRoomCreated(roomType string) {
	roomsCreatedTotal.WithLabelValues(roomType).Inc()
}

func IncUserRegistered() {
	usersRegisteredTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
