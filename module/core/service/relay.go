package service

import (
	"context"
	"log"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/observability"
)

type notificationPublisher interface {
	PublishStateChange(ctx context.Context, n Notification) error
	PublishToast(ctx context.Context, message string) error
}

type snapshotMirror interface {
	SaveSnapshot(ctx context.Context, seq uint64, vm domain.ViewModel) error
}

// RelayNotifications forwards state changes and toasts to the publisher until ctx is
// done or the subscription is closed.
func RelayNotifications(ctx context.Context, changes <-chan Notification, toasts <-chan string, pub notificationPublisher) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-changes:
			if !ok {
				return
			}
			if err := pub.PublishStateChange(ctx, n); err != nil {
				observability.NotificationPublishErrors.Inc()
				log.Printf("publish state change %d: %v", n.Seq, err)
			}
		case msg := <-toasts:
			if err := pub.PublishToast(ctx, msg); err != nil {
				observability.NotificationPublishErrors.Inc()
				log.Printf("publish toast: %v", err)
			}
		}
	}
}

// MirrorSnapshots writes every changed snapshot to the mirror. Only the newest pending
// snapshot matters, so older queued notifications are skipped.
func MirrorSnapshots(ctx context.Context, changes <-chan Notification, mirror snapshotMirror) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-changes:
			if !ok {
				return
			}
			n = latest(n, changes)
			if err := mirror.SaveSnapshot(ctx, n.Seq, n.Snapshot); err != nil {
				observability.SnapshotMirrorErrors.Inc()
				log.Printf("mirror snapshot %d: %v", n.Seq, err)
			}
		}
	}
}

func latest(n Notification, changes <-chan Notification) Notification {
	for {
		select {
		case next, ok := <-changes:
			if !ok {
				return n
			}
			n = next
		default:
			return n
		}
	}
}
