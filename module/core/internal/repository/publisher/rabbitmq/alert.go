package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

const (
	DefaultExchange = "tracker.events"
	DefaultQueue    = "tracker_alerts"

	EventAlertCreated = "alert.created"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type AlertPublisher struct {
	ch       channel
	exchange string
	now      func() time.Time
}

// NewAlertPublisher declares a durable fanout exchange and binds queue to it
// so events survive until event_listener consumes them.
func NewAlertPublisher(conn *amqp.Connection, exchange, queue string) (*AlertPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := Declare(ch, exchange, queue); err != nil {
		return nil, err
	}
	return &AlertPublisher{ch: ch, exchange: exchange, now: time.Now}, nil
}

// Declare sets up the exchange, queue and binding used for alert events.
func Declare(ch *amqp.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// AlertMessage is the wire body of an alert.created event.
type AlertMessage struct {
	EventID    uuid.UUID        `json:"event_id"`
	Event      string           `json:"event"`
	OccurredAt int64            `json:"occurred_at"`
	OwnerID    int64            `json:"owner_id"`
	AlertID    uuid.UUID        `json:"alert_id"`
	AlertType  domain.AlertKind `json:"alert_type"`
	Message    string           `json:"message"`
	DeviceID   string           `json:"device_id"`
	FixID      int64            `json:"gps_data_id"`
	Asset      alertAsset       `json:"asset"`
	Location   alertLocation    `json:"location"`
	Timestamp  int64            `json:"timestamp"`
}

type alertAsset struct {
	Kind domain.AssetKind `json:"kind"`
	Name string           `json:"name"`
}

type alertLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, event *domain.AlertEvent) error {
	msg := p.toMessage(event)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.EventID.String(),
		Type:         EventAlertCreated,
		Timestamp:    time.Unix(msg.OccurredAt, 0),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish alert %s: %w", event.Alert.ID, err)
	}
	return nil
}

func (p *AlertPublisher) toMessage(event *domain.AlertEvent) AlertMessage {
	return AlertMessage{
		EventID:    uuid.New(),
		Event:      EventAlertCreated,
		OccurredAt: p.now().Unix(),
		OwnerID:    event.OwnerID,
		AlertID:    event.Alert.ID,
		AlertType:  event.Alert.Kind,
		Message:    event.Alert.Message,
		DeviceID:   event.Alert.DeviceID,
		FixID:      event.Alert.FixID,
		Asset: alertAsset{
			Kind: event.AssetKind,
			Name: event.AssetName,
		},
		Location: alertLocation{
			Latitude:  event.Latitude,
			Longitude: event.Longitude,
		},
		Timestamp: event.FixTime.Unix(),
	}
}
