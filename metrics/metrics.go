package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_sessions_active",
		Help: "The current number of open websocket sessions.",
	})
	TotalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_sessions_total",
		Help: "The total number of websocket sessions accepted.",
	})
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_frames_received_total",
		Help: "Inbound frames processed, by kind.",
	}, []string{"kind"})
	EventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_events_delivered_total",
		Help: "Outbound events handed to session send queues.",
	})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_events_dropped_total",
		Help: "Outbound events dropped (dead socket or full queue).",
	})
	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_persisted_total",
		Help: "Chat messages durably stored (realtime and sync).",
	})
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_auth_failures_total",
		Help: "Failed connection authentications, by reason.",
	}, []string{"reason"})
)

// Handler exposes the prometheus registry on a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
