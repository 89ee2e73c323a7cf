package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nandanugg/geofence-map/module/core/domain"
	handler "github.com/nandanugg/geofence-map/module/core/internal/handler/http"
	"github.com/nandanugg/geofence-map/module/core/internal/handler/subscriber"
	"github.com/nandanugg/geofence-map/module/core/internal/loop"
	"github.com/nandanugg/geofence-map/module/core/internal/repository/cache/redis"
	"github.com/nandanugg/geofence-map/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/geofence-map/module/core/internal/repository/engine/mqtt"
	"github.com/nandanugg/geofence-map/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/geofence-map/module/core/service"
)

type Options struct {
	TopicPrefix      string
	CommandTimeout   time.Duration
	StationaryRadius float64
	SnapshotTTL      time.Duration
	SettingsTimeout  time.Duration
	Engine           domain.EngineOptions
}

type Module struct {
	Store      *service.Store
	Dispatcher *service.Dispatcher

	opts        Options
	loop        *loop.Loop
	settingsDB  *postgres.SettingsRepo
	settingsSvc *service.SettingsService
	prompts     *service.Prompts
	engine      *mqtt.Engine
	publisher   *rabbitmq.NotificationPublisher
	mirror      *redis.SnapshotMirror
	handler     *handler.MapHandler
	subscriber  *subscriber.EngineSubscriber
	unsubscribe []func()
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient pahomqtt.Client, redisClient *goredis.Client, opts Options) (*Module, error) {
	l := loop.New(256)

	notificationPub, err := rabbitmq.NewNotificationPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("notification publisher: %w", err)
	}

	settingsDB := postgres.NewSettingsRepo(db)
	defaults := domain.NewViewModel().Settings
	settingsSvc := service.NewSettingsService(settingsDB, l.Post, defaults, opts.SettingsTimeout)

	store := service.NewStore(service.NewReconciler(opts.StationaryRadius))
	prompts := service.NewPrompts(l.Post, 64)
	engine := mqtt.NewEngine(mqttClient, opts.TopicPrefix, l.Post, opts.CommandTimeout)
	dispatcher := service.NewDispatcher(store, engine, settingsSvc, prompts)

	return &Module{
		Store:       store,
		Dispatcher:  dispatcher,
		opts:        opts,
		loop:        l,
		settingsDB:  settingsDB,
		settingsSvc: settingsSvc,
		prompts:     prompts,
		engine:      engine,
		publisher:   notificationPub,
		mirror:      redis.NewSnapshotMirror(redisClient, opts.SnapshotTTL),
		handler:     handler.NewMapHandler(store, dispatcher, prompts, l.Post),
		subscriber:  subscriber.NewEngineSubscriber(mqttClient, opts.TopicPrefix, l.Post, store),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

// Start runs the loop and its workers until ctx is done, subscribes to the engine,
// and posts the initial configure.
func (m *Module) Start(ctx context.Context) error {
	if err := m.settingsDB.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("settings schema: %w", err)
	}

	go m.loop.Run(ctx)
	go m.settingsSvc.Run(ctx)

	relayCh, unsubscribeRelay := m.Store.Subscribe(256)
	mirrorCh, unsubscribeMirror := m.Store.Subscribe(16)
	m.unsubscribe = append(m.unsubscribe, unsubscribeRelay, unsubscribeMirror)
	go service.RelayNotifications(ctx, relayCh, m.prompts.Toasts(), m.publisher)
	go service.MirrorSnapshots(ctx, mirrorCh, m.mirror)

	m.settingsSvc.OnChange(m.Dispatcher.OnSettingChanged)

	if err := m.engine.Listen(); err != nil {
		return fmt.Errorf("engine replies: %w", err)
	}
	if err := m.subscriber.Start(); err != nil {
		return fmt.Errorf("engine events: %w", err)
	}

	m.loop.Post(func() { m.Dispatcher.Init(m.opts.Engine) })
	return nil
}

// Stop unsubscribes from engine events and replies and waits for the loop. Cancel the Start context first.
func (m *Module) Stop() error {
	err := errors.Join(m.subscriber.Stop(), m.engine.Close())
	for _, fn := range m.unsubscribe {
		fn()
	}
	<-m.loop.Done()
	return err
}
