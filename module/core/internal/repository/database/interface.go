package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

type FixRepository interface {
	Insert(ctx context.Context, fix *domain.TelemetryFix) error
	GetLatest(ctx context.Context, deviceID string) (*domain.TelemetryFix, error)
	// LatestForDevices returns the newest fix per device in one round trip.
	// Devices that never reported are absent from the map.
	LatestForDevices(ctx context.Context, deviceIDs []string) (map[string]domain.TelemetryFix, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.TelemetryFix, error)
}

// AssetDirectory resolves device ids to registered assets. Lookups return
// (nil, nil) when nothing matches.
type AssetDirectory interface {
	FindEquipmentByDeviceID(ctx context.Context, deviceID string) (*domain.TrackedAsset, error)
	FindTrackerAssetByDeviceID(ctx context.Context, deviceID string) (*domain.TrackedAsset, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.TrackedAsset, error)
	DeviceIDsForOwner(ctx context.Context, ownerID int64) ([]string, error)
}

type GeofenceStore interface {
	// ActiveBoundariesFor returns the owner's active boundaries ordered by id.
	ActiveBoundariesFor(ctx context.Context, ownerID int64) (*domain.GeofenceSet, error)
	// LatestActiveFor returns the most recently created active boundary or nil.
	LatestActiveFor(ctx context.Context, ownerID int64) (*domain.Boundary, error)
}

type AlertStore interface {
	HasOpenAlert(ctx context.Context, deviceID string, kind domain.AlertKind) (bool, error)
	HasRecentAlert(ctx context.Context, deviceID string, kind domain.AlertKind, since time.Time) (bool, error)
	Create(ctx context.Context, in domain.NewAlert) (*domain.Alert, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error)
	ListOpen(ctx context.Context, deviceIDs []string) ([]domain.Alert, error)
	Resolve(ctx context.Context, id uuid.UUID) error
	ResolveOpen(ctx context.Context, deviceID string, kind domain.AlertKind) (int64, error)
	ResolveAllFor(ctx context.Context, deviceIDs []string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Fixes() FixRepository
	Assets() AssetDirectory
	Geofences() GeofenceStore
	Alerts() AlertStore
}

// TxRunner runs fn inside a transaction that holds an exclusive per-device
// lock until commit. fn's error rolls the transaction back.
type TxRunner interface {
	Store
	InDeviceTx(ctx context.Context, deviceID string, fn func(Store) error) error
}
