package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/config"
	handler "github.com/nandanugg/tracker-geofence/module/core/internal/handler/http"
	"github.com/nandanugg/tracker-geofence/module/core/internal/handler/subscriber"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/publisher"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/publisher/rabbitmq"
	redisfeed "github.com/nandanugg/tracker-geofence/module/core/internal/repository/publisher/redis"
	"github.com/nandanugg/tracker-geofence/module/core/service"
)

// AlertMessage is the body of every alert event on the RabbitMQ exchange.
type AlertMessage = rabbitmq.AlertMessage

// DeclareAlertQueue sets up the exchange and queue alert consumers read from.
func DeclareAlertQueue(ch *amqp.Channel, cfg config.RabbitMQConfig) error {
	return rabbitmq.Declare(ch, cfg.Exchange, cfg.Queue)
}

// EnsureSchema creates the tables and indexes the module needs.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return postgres.EnsureSchema(ctx, db)
}

type Module struct {
	IngestSvc   *service.IngestService
	AlertSvc    *service.AlertService
	LocationSvc *service.LocationService

	telemetryHandler *handler.TelemetryHandler
	alertHandler     *handler.AlertHandler
	locationHandler  *handler.LocationHandler
	subscriber       *subscriber.TelemetrySubscriber
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, cfg *config.Config, log zerolog.Logger) (*Module, error) {
	store := postgres.NewStore(db)

	alertPub, err := rabbitmq.NewAlertPublisher(amqpConn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}
	feed := redisfeed.NewAlertFeed(redisClient, log)

	policy := service.NewAlertPolicy(PolicyConfig(cfg.Alerting), time.Now)

	ingestSvc := service.NewIngestService(store, policy, publisher.Multi{alertPub, feed}, log)
	alertSvc := service.NewAlertService(store)
	locationSvc := service.NewLocationService(store, cfg.Device.PollSeconds)

	return &Module{
		IngestSvc:        ingestSvc,
		AlertSvc:         alertSvc,
		LocationSvc:      locationSvc,
		telemetryHandler: handler.NewTelemetryHandler(ingestSvc, log),
		alertHandler:     handler.NewAlertHandler(alertSvc, feed, log),
		locationHandler:  handler.NewLocationHandler(locationSvc, log),
		subscriber:       subscriber.NewTelemetrySubscriber(mqttClient, cfg.MQTT.Topic, ingestSvc, log),
	}, nil
}

func PolicyConfig(cfg config.AlertingConfig) service.PolicyConfig {
	return service.PolicyConfig{
		SpeedLimitKmh:           cfg.SpeedLimitKmh,
		SpeedWindow:             cfg.SpeedWindow,
		ResolveGeofenceOnReturn: cfg.ResolveGeofenceOnReturn,
	}
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.telemetryHandler.Register(r)
	m.alertHandler.Register(r)
	m.locationHandler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}
