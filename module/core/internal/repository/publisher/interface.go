package publisher

import (
	"context"
	"errors"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

// AlertPublisher notifies downstream consumers that an alert was created.
// It is called after the alert is committed.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, event *domain.AlertEvent) error
}

// Multi fans one event out to every publisher and joins their errors.
type Multi []AlertPublisher

var _ AlertPublisher = Multi(nil)

func (m Multi) PublishAlert(ctx context.Context, event *domain.AlertEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishAlert(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
