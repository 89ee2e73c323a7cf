package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/internal/repository/publisher"
	"github.com/nandanugg/geofence-map/module/core/service"
)

var _ publisher.NotificationPublisher = (*NotificationPublisher)(nil)

const (
	ExchangeName = "tracker.events"
	QueueName    = "tracker_notifications"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type NotificationPublisher struct {
	ch  channel
	now func() time.Time
}

func NewNotificationPublisher(conn *amqp.Connection) (*NotificationPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &NotificationPublisher{ch: ch, now: time.Now}, nil
}

type stateMessage struct {
	Type       string                   `json:"type"`
	Seq        uint64                   `json:"seq"`
	Event      domain.EventKind         `json:"event"`
	Session    domain.SessionState      `json:"session"`
	Markers    int                      `json:"markers"`
	Geofences  []string                 `json:"geofences"`
	Hits       []hitSummary             `json:"hits"`
	Stationary *domain.StationaryRegion `json:"stationary,omitempty"`
	Timestamp  int64                    `json:"timestamp"`
}

type hitSummary struct {
	Identifier string                `json:"identifier"`
	Crossings  int                   `json:"crossings"`
	Last       *domain.CrossingEvent `json:"last,omitempty"`
}

type toastMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func (p *NotificationPublisher) PublishStateChange(ctx context.Context, n service.Notification) error {
	return p.publish(ctx, toStateMessage(n, p.now()))
}

func (p *NotificationPublisher) PublishToast(ctx context.Context, message string) error {
	return p.publish(ctx, toastMessage{
		Type:      "toast",
		Message:   message,
		Timestamp: p.now().Unix(),
	})
}

func (p *NotificationPublisher) publish(ctx context.Context, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func toStateMessage(n service.Notification, now time.Time) stateMessage {
	vm := n.Snapshot
	msg := stateMessage{
		Type:      "state",
		Seq:       n.Seq,
		Event:     n.Kind,
		Session:   vm.Session,
		Markers:   len(vm.Markers),
		Geofences: []string{},
		Hits:      []hitSummary{},
		Timestamp: now.Unix(),
	}
	for _, g := range vm.GeofenceList() {
		msg.Geofences = append(msg.Geofences, g.Identifier)
	}
	for _, hit := range vm.HitList() {
		summary := hitSummary{Identifier: hit.Identifier, Crossings: len(hit.CrossingEvents)}
		if len(hit.CrossingEvents) > 0 {
			last := hit.CrossingEvents[len(hit.CrossingEvents)-1]
			summary.Last = &last
		}
		msg.Hits = append(msg.Hits, summary)
	}
	if vm.Stationary.Visible() {
		stationary := vm.Stationary
		msg.Stationary = &stationary
	}
	return msg
}
