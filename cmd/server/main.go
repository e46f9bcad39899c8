package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nandanugg/tracker-geofence/config"
	"github.com/nandanugg/tracker-geofence/module/core"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Run the tracker ingest and alerting API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("TRACKER_CONFIG"), "path to a YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Logging)

	db, err := config.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := core.EnsureSchema(ctx, db); err != nil {
		return err
	}

	amqpConn, err := config.NewRabbitMQ(cfg.RabbitMQ, log)
	if err != nil {
		return err
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	defer mqttClient.Disconnect(250)

	redisClient, err := config.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	coreModule, err := core.Build(db, amqpConn, mqttClient, redisClient, cfg, log)
	if err != nil {
		return err
	}

	if err := coreModule.StartSubscribers(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	health := config.NewHealthChecker(db, amqpConn, mqttClient, config.RedisPinger{Client: redisClient})
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
