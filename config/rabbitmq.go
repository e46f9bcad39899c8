package config

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// NewRabbitMQ dials the broker and logs when the connection drops. The
// health check reports the closed state; reconnecting is left to a restart.
func NewRabbitMQ(cfg RabbitMQConfig, log zerolog.Logger) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": "tracker-geofence",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			log.Error().Str("reason", amqpErr.Reason).Int("code", amqpErr.Code).Msg("rabbitmq connection closed")
		}
	}()
	return conn, nil
}
