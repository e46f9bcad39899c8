package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

const (
	DefaultSpeedLimitKmh = 40.0
	DefaultSpeedWindow   = 5 * time.Minute
)

type PolicyConfig struct {
	SpeedLimitKmh float64
	SpeedWindow   time.Duration
	// ResolveGeofenceOnReturn resolves the open geofence alert once a fix is
	// back inside a boundary. Off unless configured.
	ResolveGeofenceOnReturn bool
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		SpeedLimitKmh: DefaultSpeedLimitKmh,
		SpeedWindow:   DefaultSpeedWindow,
	}
}

// AlertPolicy decides which alerts a stored fix raises. Geofence alerts are
// deduplicated by open state, speed alerts by a creation time window.
// Callers must hold the device lock across Apply.
type AlertPolicy struct {
	cfg PolicyConfig
	now func() time.Time
}

func NewAlertPolicy(cfg PolicyConfig, now func() time.Time) *AlertPolicy {
	if cfg.SpeedLimitKmh <= 0 {
		cfg.SpeedLimitKmh = DefaultSpeedLimitKmh
	}
	if cfg.SpeedWindow <= 0 {
		cfg.SpeedWindow = DefaultSpeedWindow
	}
	if now == nil {
		now = time.Now
	}
	return &AlertPolicy{cfg: cfg, now: now}
}

func (p *AlertPolicy) Apply(ctx context.Context, alerts database.AlertStore, asset *domain.TrackedAsset, fix *domain.TelemetryFix, verdict domain.ContainmentVerdict) ([]domain.Alert, error) {
	created := []domain.Alert{}
	now := p.now()

	a, err := p.applyGeofence(ctx, alerts, asset, fix, verdict, now)
	if err != nil {
		return nil, err
	}
	if a != nil {
		created = append(created, *a)
	}

	a, err = p.applySpeed(ctx, alerts, fix, now)
	if err != nil {
		return nil, err
	}
	if a != nil {
		created = append(created, *a)
	}
	return created, nil
}

func (p *AlertPolicy) applyGeofence(ctx context.Context, alerts database.AlertStore, asset *domain.TrackedAsset, fix *domain.TelemetryFix, verdict domain.ContainmentVerdict, now time.Time) (*domain.Alert, error) {
	if !verdict.HasFences {
		return nil, nil
	}

	if verdict.Inside {
		if p.cfg.ResolveGeofenceOnReturn {
			if _, err := alerts.ResolveOpen(ctx, fix.DeviceID, domain.AlertGeofence); err != nil {
				return nil, fmt.Errorf("resolve geofence alert: %w", err)
			}
		}
		return nil, nil
	}

	open, err := alerts.HasOpenAlert(ctx, fix.DeviceID, domain.AlertGeofence)
	if err != nil {
		return nil, fmt.Errorf("check open geofence alert: %w", err)
	}
	if open {
		return nil, nil
	}

	a, err := alerts.Create(ctx, domain.NewAlert{
		FixID:     fix.ID,
		DeviceID:  fix.DeviceID,
		Kind:      domain.AlertGeofence,
		Message:   GeofenceMessage(asset.Name),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create geofence alert: %w", err)
	}
	return a, nil
}

func (p *AlertPolicy) applySpeed(ctx context.Context, alerts database.AlertStore, fix *domain.TelemetryFix, now time.Time) (*domain.Alert, error) {
	if fix.Speed <= p.cfg.SpeedLimitKmh {
		return nil, nil
	}

	recent, err := alerts.HasRecentAlert(ctx, fix.DeviceID, domain.AlertSpeed, now.Add(-p.cfg.SpeedWindow))
	if err != nil {
		return nil, fmt.Errorf("check recent speed alert: %w", err)
	}
	if recent {
		return nil, nil
	}

	a, err := alerts.Create(ctx, domain.NewAlert{
		FixID:     fix.ID,
		DeviceID:  fix.DeviceID,
		Kind:      domain.AlertSpeed,
		Message:   SpeedMessage(fix.Speed),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create speed alert: %w", err)
	}
	return a, nil
}

func GeofenceMessage(assetName string) string {
	return assetName + " has left the geofence!"
}

func SpeedMessage(speed float64) string {
	return "Overspeed detected: " + strconv.FormatFloat(speed, 'f', -1, 64) + " km/h"
}
