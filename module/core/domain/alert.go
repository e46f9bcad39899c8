package domain

import (
	"time"

	"github.com/google/uuid"
)

type AlertKind string

const (
	AlertGeofence AlertKind = "geofence"
	AlertSpeed    AlertKind = "speed"
)

type Alert struct {
	ID        uuid.UUID `json:"id"`
	FixID     int64     `json:"gps_data"`
	DeviceID  string    `json:"device_id"`
	Kind      AlertKind `json:"alert_type"`
	Message   string    `json:"message"`
	Resolved  bool      `json:"is_resolved"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAlert is what the alert policy asks the store to create.
type NewAlert struct {
	FixID     int64
	DeviceID  string
	Kind      AlertKind
	Message   string
	CreatedAt time.Time
}

// AlertEvent is published after an ingest that created an alert commits.
type AlertEvent struct {
	Alert     Alert     `json:"alert"`
	OwnerID   int64     `json:"owner_id"`
	AssetKind AssetKind `json:"asset_kind"`
	AssetName string    `json:"asset_name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	FixTime   time.Time `json:"fix_timestamp"`
}

// IngestResult is returned for every accepted fix. Asset is nil for devices
// that are not registered to anyone.
type IngestResult struct {
	Fix           TelemetryFix       `json:"data"`
	Asset         *TrackedAsset      `json:"asset,omitempty"`
	Verdict       ContainmentVerdict `json:"verdict"`
	AlertsCreated []Alert            `json:"alerts_created"`
}
