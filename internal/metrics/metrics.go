package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// CallbackMetrics collects counters for the callback pipeline and the HTTP surface.
// A nil *CallbackMetrics is valid and records nothing.
type CallbackMetrics struct {
	callbacks           *prometheus.CounterVec
	transitions         *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	droppedNotification prometheus.Counter
	requestDuration     *prometheus.HistogramVec
}

// New registers the collectors on registerer (prometheus.DefaultRegisterer when nil).
func New(registerer prometheus.Registerer) *CallbackMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	callbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_callbacks_total",
			Help: "Provider callbacks received, by outcome.",
		},
		[]string{"outcome"}, // applied | noop | invalid | unauthorized | not_found | error
	)
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_status_transitions_total",
			Help: "Status changes applied to top-up requests.",
		},
		[]string{"from", "to"},
	)
	notifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topup_notifications_total",
			Help: "Notification dispatch attempts, by gateway and result.",
		},
		[]string{"gateway", "result"}, // sent | failed
	)
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topup_notifications_dropped_total",
		Help: "Notifications dropped because the dispatch queue was full or closed.",
	})
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topup_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	registerer.MustRegister(callbacks, transitions, notifications, dropped, requestDuration)

	return &CallbackMetrics{
		callbacks:           callbacks,
		transitions:         transitions,
		notifications:       notifications,
		droppedNotification: dropped,
		requestDuration:     requestDuration,
	}
}

func (m *CallbackMetrics) IncCallback(outcome string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(outcome).Inc()
}

func (m *CallbackMetrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *CallbackMetrics) IncNotification(gateway, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(gateway, result).Inc()
}

func (m *CallbackMetrics) IncDroppedNotification() {
	if m == nil {
		return
	}
	m.droppedNotification.Inc()
}

// GinMiddleware records request latency per matched route.
func (m *CallbackMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
