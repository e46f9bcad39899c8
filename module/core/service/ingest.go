package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/publisher"
)

// IngestService runs one telemetry fix end to end: store it, resolve its
// asset, evaluate containment and apply the alert policy, all under the
// device lock. Alert events are published after commit.
type IngestService struct {
	store     database.TxRunner
	evaluator ContainmentEvaluator
	policy    *AlertPolicy
	publisher publisher.AlertPublisher
	log       zerolog.Logger
}

func NewIngestService(store database.TxRunner, policy *AlertPolicy, pub publisher.AlertPublisher, log zerolog.Logger) *IngestService {
	return &IngestService{
		store:     store,
		policy:    policy,
		publisher: pub,
		log:       log.With().Str("component", "ingest").Logger(),
	}
}

func (s *IngestService) Ingest(ctx context.Context, fix domain.TelemetryFix) (*domain.IngestResult, error) {
	if err := fix.Validate(); err != nil {
		return nil, err
	}
	fix.InsideGeofence = false

	result := &domain.IngestResult{AlertsCreated: []domain.Alert{}}
	err := s.store.InDeviceTx(ctx, fix.DeviceID, func(tx database.Store) error {
		asset, err := ResolveAsset(ctx, tx.Assets(), fix.DeviceID)
		if err != nil {
			return err
		}
		result.Asset = asset

		if asset != nil {
			fences, err := tx.Geofences().ActiveBoundariesFor(ctx, asset.OwnerID)
			if err != nil {
				return fmt.Errorf("load geofences: %w", err)
			}
			result.Verdict = s.evaluator.Evaluate(&fix, fences)
			fix.InsideGeofence = result.Verdict.HasFences && result.Verdict.Inside
		}

		if err := tx.Fixes().Insert(ctx, &fix); err != nil {
			return fmt.Errorf("insert fix: %w", err)
		}
		result.Fix = fix

		if asset == nil {
			return nil
		}
		created, err := s.policy.Apply(ctx, tx.Alerts(), asset, &fix, result.Verdict)
		if err != nil {
			return err
		}
		result.AlertsCreated = created
		return nil
	})
	if err != nil {
		return nil, domain.Unavailable("ingest "+fix.DeviceID, err)
	}

	logEvent := s.log.Debug().
		Str("device_id", fix.DeviceID).
		Int64("fix_id", result.Fix.ID).
		Bool("inside_geofence", fix.InsideGeofence)
	if result.Asset == nil {
		logEvent.Msg("stored fix for unregistered device")
	} else {
		logEvent.Int64("owner_id", result.Asset.OwnerID).Msg("stored fix")
	}

	s.publish(ctx, result)
	return result, nil
}

// ResolveAsset prefers equipment over employee and livestock trackers. It
// returns (nil, nil) for an unregistered device.
func ResolveAsset(ctx context.Context, assets database.AssetDirectory, deviceID string) (*domain.TrackedAsset, error) {
	asset, err := assets.FindEquipmentByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("find equipment: %w", err)
	}
	if asset != nil {
		return asset, nil
	}
	asset, err = assets.FindTrackerAssetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("find tracker asset: %w", err)
	}
	return asset, nil
}

func (s *IngestService) publish(ctx context.Context, result *domain.IngestResult) {
	for _, a := range result.AlertsCreated {
		s.log.Info().
			Str("alert_id", a.ID.String()).
			Str("device_id", a.DeviceID).
			Str("alert_type", string(a.Kind)).
			Msg(a.Message)

		if s.publisher == nil {
			continue
		}
		event := &domain.AlertEvent{
			Alert:     a,
			OwnerID:   result.Asset.OwnerID,
			AssetKind: result.Asset.Kind,
			AssetName: result.Asset.Name,
			Latitude:  result.Fix.Latitude,
			Longitude: result.Fix.Longitude,
			FixTime:   result.Fix.Timestamp,
		}
		if err := s.publisher.PublishAlert(ctx, event); err != nil {
			s.log.Error().Err(err).Str("alert_id", a.ID.String()).Msg("publish alert event")
		}
	}
}
