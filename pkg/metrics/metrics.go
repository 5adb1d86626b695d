// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InteractionsRecorded tracks recorded interactions by listing type and interaction type
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "interactions",
			Name:      "recorded_total",
			Help:      "Total number of interactions recorded by listing type and interaction type",
		},
		[]string{"listing_type", "interaction_type"},
	)

	// MatchesDetected tracks mutual matches detected
	MatchesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "matches_detected_total",
			Help:      "Total number of mutual matches detected",
		},
	)

	// ConversationsCreated tracks conversations created by origin
	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "conversations",
			Name:      "created_total",
			Help:      "Total number of conversations created by origin",
		},
		[]string{"origin"},
	)

	// MessagesSent tracks messages persisted
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "conversations",
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent",
		},
	)

	// NotificationsDispatched tracks outbound match notifications by status
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "notify",
			Name:      "dispatched_total",
			Help:      "Total number of match notifications dispatched by status",
		},
		[]string{"status"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaMessagesConsumed tracks listing events consumed by status
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Total number of listing events consumed by status",
		},
		[]string{"topic", "status"},
	)

	// UnreadCacheLookups tracks unread badge cache lookups by result
	UnreadCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "cache",
			Name:      "unread_lookups_total",
			Help:      "Total number of unread badge cache lookups by result",
		},
		[]string{"result"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordInteraction records an interaction metric
func RecordInteraction(listingType, interactionType string) {
	InteractionsRecorded.WithLabelValues(listingType, interactionType).Inc()
}

// RecordConversationCreated records a conversation creation by origin
func RecordConversationCreated(origin string) {
	ConversationsCreated.WithLabelValues(origin).Inc()
}

// RecordNotification records a match notification dispatch outcome
func RecordNotification(status string) {
	NotificationsDispatched.WithLabelValues(status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}

// RecordKafkaConsume records a consumed listing event outcome
func RecordKafkaConsume(topic, status string) {
	KafkaMessagesConsumed.WithLabelValues(topic, status).Inc()
}

// ObserveQueryDuration records the elapsed time of one database query
func ObserveQueryDuration(operation string, start time.Time) {
	DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
