package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertFeed)(nil)

type pubSubClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// AlertFeed fans alert events out to live dashboards over one Redis channel
// per owner.
type AlertFeed struct {
	client pubSubClient
	log    zerolog.Logger
}

func NewAlertFeed(client *redis.Client, log zerolog.Logger) *AlertFeed {
	return &AlertFeed{client: client, log: log.With().Str("component", "alert_feed").Logger()}
}

func ChannelFor(ownerID int64) string {
	return fmt.Sprintf("owner:%d:alerts", ownerID)
}

func (f *AlertFeed) PublishAlert(ctx context.Context, event *domain.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	if err := f.client.Publish(ctx, ChannelFor(event.OwnerID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe streams the owner's alert events until ctx is done. The returned
// channel is closed when the subscription ends.
func (f *AlertFeed) Subscribe(ctx context.Context, ownerID int64) (<-chan domain.AlertEvent, error) {
	channel := ChannelFor(ownerID)
	sub := f.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	out := make(chan domain.AlertEvent, 16)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				event, err := decodeEvent(m.Payload)
				if err != nil {
					f.log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed alert event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func decodeEvent(payload string) (domain.AlertEvent, error) {
	var event domain.AlertEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, fmt.Errorf("decode alert event: %w", err)
	}
	return event, nil
}
