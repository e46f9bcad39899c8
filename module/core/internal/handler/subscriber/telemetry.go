package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

const (
	DefaultTopic  = "/tracking/device/+/gps"
	ingestTimeout = 10 * time.Second
)

type ingestService interface {
	Ingest(ctx context.Context, fix domain.TelemetryFix) (*domain.IngestResult, error)
}

// TelemetrySubscriber feeds fixes published by devices over MQTT into the
// same ingest pipeline the HTTP endpoint uses.
type TelemetrySubscriber struct {
	client    mqtt.Client
	topic     string
	ingestSvc ingestService
	log       zerolog.Logger
}

func NewTelemetrySubscriber(client mqtt.Client, topic string, ingestSvc ingestService, log zerolog.Logger) *TelemetrySubscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	return &TelemetrySubscriber{
		client:    client,
		topic:     topic,
		ingestSvc: ingestSvc,
		log:       log.With().Str("component", "mqtt_subscriber").Logger(),
	}
}

func (s *TelemetrySubscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	s.log.Info().Str("topic", s.topic).Msg("subscribed")
	return nil
}

func (s *TelemetrySubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	fix, err := decodeFix(msg)
	if err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("rejected telemetry message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	result, err := s.ingestSvc.Ingest(ctx, fix)
	if err != nil {
		s.log.Error().Err(err).Str("device_id", fix.DeviceID).Msg("ingest failed")
		return
	}
	if n := len(result.AlertsCreated); n > 0 {
		s.log.Debug().Str("device_id", fix.DeviceID).Int("alerts", n).Msg("ingested fix with alerts")
	}
}

// decodeFix parses a payload and fills device_id from the topic when the
// body omits it. A body device_id that disagrees with the topic is rejected.
func decodeFix(msg mqtt.Message) (domain.TelemetryFix, error) {
	var payload domain.TelemetryPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		return domain.TelemetryFix{}, fmt.Errorf("decode payload: %w", err)
	}

	if topicID := deviceFromTopic(msg.Topic()); topicID != "" {
		switch payload.DeviceID {
		case "":
			payload.DeviceID = topicID
		case topicID:
		default:
			return domain.TelemetryFix{}, &domain.ValidationError{Field: "device_id", Reason: "does not match topic"}
		}
	}
	return payload.Fix()
}

// deviceFromTopic extracts <id> from /tracking/device/<id>/gps.
func deviceFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) != 4 || parts[0] != "tracking" || parts[1] != "device" || parts[3] != "gps" {
		return ""
	}
	return parts[2]
}
