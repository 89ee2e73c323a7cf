package publisher

import (
	"context"

	"github.com/nandanugg/geofence-map/module/core/service"
)

type NotificationPublisher interface {
	PublishStateChange(ctx context.Context, n service.Notification) error
	PublishToast(ctx context.Context, message string) error
}
