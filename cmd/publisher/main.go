package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

type options struct {
	broker    string
	devices   []string
	interval  time.Duration
	centerLat float64
	centerLon float64
	maxSpeed  float64
	escape    float64
}

// device is one simulated tracker doing a random walk around the center.
type device struct {
	id  string
	lat float64
	lon float64
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	opts := options{}

	cmd := &cobra.Command{
		Use:          "publisher",
		Short:        "Publish simulated GPS fixes over MQTT",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.broker, "broker", envOr("TRACKER_MQTT_BROKER", "tcp://localhost:1883"), "MQTT broker URL")
	f.StringSliceVar(&opts.devices, "devices", []string{"ESP32-01", "COLLAR-9"}, "device ids to simulate")
	f.DurationVar(&opts.interval, "interval", 5*time.Second, "delay between fixes")
	f.Float64Var(&opts.centerLat, "lat", -15.4167, "latitude the walk starts from")
	f.Float64Var(&opts.centerLon, "lon", 28.2833, "longitude the walk starts from")
	f.Float64Var(&opts.maxSpeed, "max-speed", 70, "upper bound of simulated speed in km/h")
	f.Float64Var(&opts.escape, "escape", 0.1, "probability of a fix jumping ~1km away")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options, log zerolog.Logger) error {
	if opts.interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if len(opts.devices) == 0 {
		return fmt.Errorf("at least one device is required")
	}

	client := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(opts.broker).
		SetClientID(fmt.Sprintf("tracker-simulator-%d", time.Now().UnixNano())))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	fleet := make([]*device, len(opts.devices))
	for i, id := range opts.devices {
		fleet[i] = &device{id: id, lat: opts.centerLat, lon: opts.centerLon}
	}

	log.Info().Str("broker", opts.broker).Strs("devices", opts.devices).Dur("interval", opts.interval).Msg("publishing")

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}

		d := fleet[rand.Intn(len(fleet))]
		d.step(opts)

		payload, err := json.Marshal(d.payload(opts.maxSpeed))
		if err != nil {
			return fmt.Errorf("marshal fix: %w", err)
		}
		topic := fmt.Sprintf("/tracking/device/%s/gps", d.id)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("publish failed")
			continue
		}
		log.Info().Str("topic", topic).RawJSON("payload", payload).Msg("published")
	}
}

func (d *device) step(opts options) {
	if rand.Float64() < opts.escape {
		d.lat = opts.centerLat + 0.01
		d.lon = opts.centerLon + 0.01
		return
	}
	// ~50m drift, pulled back toward the center
	d.lat += (rand.Float64()-0.5)*0.0005 + (opts.centerLat-d.lat)*0.2
	d.lon += (rand.Float64()-0.5)*0.0005 + (opts.centerLon-d.lon)*0.2
}

func (d *device) payload(maxSpeed float64) domain.TelemetryPayload {
	lat, lon := d.lat, d.lon
	speed := rand.Float64() * maxSpeed
	alt := 1200 + rand.Float64()*50
	return domain.TelemetryPayload{
		DeviceID:  d.id,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Latitude:  &lat,
		Longitude: &lon,
		Speed:     &speed,
		Altitude:  &alt,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
