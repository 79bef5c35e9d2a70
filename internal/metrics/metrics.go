// Package metrics holds the Prometheus collectors exported on the metrics port.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification outcomes
const (
	OutcomeEmitted = "emitted"
	OutcomeSkipped = "skipped"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

var (
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "notifications_total",
		Help:      "Notification deliveries by outcome",
	}, []string{"type", "outcome"})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "messages_sent_total",
		Help:      "Messages appended to conversations",
	})

	ConversationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "conversations_created_total",
		Help:      "Conversations created (reused threads are not counted)",
	})

	FavoritesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bazaar",
		Name:      "favorites_added_total",
		Help:      "New favorites (idempotent repeats are not counted)",
	})

	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bazaar",
		Name:      "notification_queue_depth",
		Help:      "Events waiting in the notification outbox",
	})
)

// NewServer exposes the default registry on addr at /metrics.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
