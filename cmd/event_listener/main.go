package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nandanugg/tracker-geofence/config"
	"github.com/nandanugg/tracker-geofence/module/core"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:          "event_listener",
		Short:        "Print alert events consumed from RabbitMQ",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("TRACKER_CONFIG"), "path to a YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Logging)

	conn, err := config.NewRabbitMQ(cfg.RabbitMQ, log)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := core.DeclareAlertQueue(ch, cfg.RabbitMQ); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, cfg.RabbitMQ.Queue, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	log.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("waiting for alerts")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			logAlert(log, msg.Body)
		}
	}
}

func logAlert(log zerolog.Logger, body []byte) {
	var alert core.AlertMessage
	if err := json.Unmarshal(body, &alert); err != nil {
		log.Warn().Err(err).Bytes("body", body).Msg("skipping malformed alert")
		return
	}
	log.Info().
		Str("event", alert.Event).
		Str("alert_id", alert.AlertID.String()).
		Str("type", string(alert.AlertType)).
		Str("device_id", alert.DeviceID).
		Int64("owner_id", alert.OwnerID).
		Str("asset", alert.Asset.Name).
		Msg(alert.Message)
}
