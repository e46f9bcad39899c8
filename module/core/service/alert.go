package service

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

// AlertService carries the owner-facing alert actions. Every call is scoped
// to the devices of the requesting owner.
type AlertService struct {
	store database.Store
}

func NewAlertService(store database.Store) *AlertService {
	return &AlertService{store: store}
}

// List returns the owner's unresolved alerts, newest first.
func (s *AlertService) List(ctx context.Context, ownerID int64) ([]domain.Alert, error) {
	deviceIDs, err := s.store.Assets().DeviceIDsForOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Unavailable("list owner devices", err)
	}
	alerts, err := s.store.Alerts().ListOpen(ctx, deviceIDs)
	if err != nil {
		return nil, domain.Unavailable("list alerts", err)
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	return alerts, nil
}

// Resolve marks one alert resolved. Acknowledging an alert is the same action.
func (s *AlertService) Resolve(ctx context.Context, ownerID int64, id uuid.UUID) error {
	if err := s.authorize(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.Alerts().Resolve(ctx, id); err != nil {
		return storeError("resolve alert", err)
	}
	return nil
}

// ClearAll resolves every open alert of the owner's devices and reports how
// many were changed.
func (s *AlertService) ClearAll(ctx context.Context, ownerID int64) (int64, error) {
	deviceIDs, err := s.store.Assets().DeviceIDsForOwner(ctx, ownerID)
	if err != nil {
		return 0, domain.Unavailable("list owner devices", err)
	}
	n, err := s.store.Alerts().ResolveAllFor(ctx, deviceIDs)
	if err != nil {
		return 0, domain.Unavailable("clear alerts", err)
	}
	return n, nil
}

func (s *AlertService) Delete(ctx context.Context, ownerID int64, id uuid.UUID) error {
	if err := s.authorize(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.Alerts().Delete(ctx, id); err != nil {
		return storeError("delete alert", err)
	}
	return nil
}

func (s *AlertService) authorize(ctx context.Context, ownerID int64, id uuid.UUID) error {
	alert, err := s.store.Alerts().Get(ctx, id)
	if err != nil {
		return storeError("get alert", err)
	}
	return ownsDevice(ctx, s.store.Assets(), ownerID, alert.DeviceID)
}

func ownsDevice(ctx context.Context, assets database.AssetDirectory, ownerID int64, deviceID string) error {
	deviceIDs, err := assets.DeviceIDsForOwner(ctx, ownerID)
	if err != nil {
		return domain.Unavailable("list owner devices", err)
	}
	if !slices.Contains(deviceIDs, deviceID) {
		return domain.ErrOwnershipViolation
	}
	return nil
}

// storeError keeps ErrNotFound visible to callers and marks everything else
// as unavailable.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return domain.Unavailable(op, err)
}
