package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_map_events_applied_total",
		Help: "Events applied to the view model, by kind",
	}, []string{"kind"})
	EventsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_map_events_ignored_total",
		Help: "Events fully or partly ignored by the reconciler, by reason",
	}, []string{"reason"})
	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_map_events_rejected_total",
		Help: "Engine messages that failed decoding or validation, by topic kind",
	}, []string{"kind"})
	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geofence_map_notifications_dropped_total",
		Help: "State-change notifications dropped because a subscriber was full",
	})
	EngineCommandFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_map_engine_command_failures_total",
		Help: "Engine commands that reported failure or timed out, by command",
	}, []string{"command"})
	SnapshotMirrorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geofence_map_snapshot_mirror_errors_total",
		Help: "Errors writing the view-model snapshot to redis",
	})
	NotificationPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geofence_map_notification_publish_errors_total",
		Help: "Errors publishing notifications to rabbitmq",
	})
)
