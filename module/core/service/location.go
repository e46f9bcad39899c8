package service

import (
	"context"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/geo"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

const DefaultPollSeconds = 30

// LocationService answers read-side questions about where an owner's assets
// are.
type LocationService struct {
	store       database.Store
	evaluator   ContainmentEvaluator
	pollSeconds int
}

func NewLocationService(store database.Store, pollSeconds int) *LocationService {
	if pollSeconds <= 0 {
		pollSeconds = DefaultPollSeconds
	}
	return &LocationService{store: store, pollSeconds: pollSeconds}
}

func (s *LocationService) GetLatest(ctx context.Context, ownerID int64, deviceID string) (*domain.TelemetryFix, error) {
	if err := ownsDevice(ctx, s.store.Assets(), ownerID, deviceID); err != nil {
		return nil, err
	}
	fix, err := s.store.Fixes().GetLatest(ctx, deviceID)
	if err != nil {
		return nil, storeError("latest fix", err)
	}
	return fix, nil
}

func (s *LocationService) GetHistory(ctx context.Context, ownerID int64, query *domain.HistoryQuery) ([]domain.TelemetryFix, error) {
	if query.DeviceID == "" {
		return nil, &domain.ValidationError{Field: "device_id", Reason: "required"}
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.From.After(query.To) {
		return nil, &domain.ValidationError{Field: "from", Reason: "must not be after to"}
	}
	if err := ownsDevice(ctx, s.store.Assets(), ownerID, query.DeviceID); err != nil {
		return nil, err
	}
	fixes, err := s.store.Fixes().GetHistory(ctx, query)
	if err != nil {
		return nil, domain.Unavailable("fix history", err)
	}
	if fixes == nil {
		fixes = []domain.TelemetryFix{}
	}
	return fixes, nil
}

// Overview lists every asset of the owner with its latest fix evaluated
// against the owner's current boundaries.
func (s *LocationService) Overview(ctx context.Context, ownerID int64) ([]domain.AssetStatus, error) {
	assets, err := s.store.Assets().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Unavailable("list assets", err)
	}
	fences, err := s.store.Geofences().ActiveBoundariesFor(ctx, ownerID)
	if err != nil {
		return nil, domain.Unavailable("load geofences", err)
	}

	var deviceIDs []string
	for _, a := range assets {
		if a.DeviceID != "" {
			deviceIDs = append(deviceIDs, a.DeviceID)
		}
	}
	latest, err := s.store.Fixes().LatestForDevices(ctx, deviceIDs)
	if err != nil {
		return nil, domain.Unavailable("latest fixes", err)
	}

	out := make([]domain.AssetStatus, 0, len(assets))
	for _, a := range assets {
		status := domain.AssetStatus{Asset: a}
		if fix, ok := latest[a.DeviceID]; ok && a.DeviceID != "" {
			status.LatestFix = &fix
			v := s.evaluator.Evaluate(&fix, fences)
			status.InsideGeofence = v.HasFences && v.Inside
		}
		out = append(out, status)
	}
	return out, nil
}

// DeviceConfig is pulled by the device itself, so it is keyed by device id
// alone. Unknown devices get ErrNotFound.
func (s *LocationService) DeviceConfig(ctx context.Context, deviceID string) (*domain.DeviceConfig, error) {
	asset, err := ResolveAsset(ctx, s.store.Assets(), deviceID)
	if err != nil {
		return nil, domain.Unavailable("resolve device", err)
	}
	if asset == nil {
		return nil, domain.ErrNotFound
	}
	boundary, err := s.store.Geofences().LatestActiveFor(ctx, asset.OwnerID)
	if err != nil {
		return nil, domain.Unavailable("latest geofence", err)
	}
	return &domain.DeviceConfig{
		DeviceID:    deviceID,
		Asset:       *asset,
		Geofence:    boundary,
		PollSeconds: s.pollSeconds,
	}, nil
}

// CheckLocation evaluates an arbitrary point against the owner's active
// boundaries without storing anything.
func (s *LocationService) CheckLocation(ctx context.Context, ownerID int64, p geo.Point) (domain.ContainmentVerdict, error) {
	if err := domain.ValidatePoint(p); err != nil {
		return domain.ContainmentVerdict{}, err
	}
	fences, err := s.store.Geofences().ActiveBoundariesFor(ctx, ownerID)
	if err != nil {
		return domain.ContainmentVerdict{}, domain.Unavailable("load geofences", err)
	}
	probe := domain.TelemetryFix{Latitude: p.Lat, Longitude: p.Lon}
	return s.evaluator.Evaluate(&probe, fences), nil
}
