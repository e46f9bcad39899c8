package domain

// AssetStatus is one row of an owner's overview.
type AssetStatus struct {
	Asset          TrackedAsset  `json:"asset"`
	LatestFix      *TelemetryFix `json:"latest,omitempty"`
	InsideGeofence bool          `json:"inside_geofence"`
}

// DeviceConfig is what a device pulls to learn its boundary and reporting
// interval. Geofence is nil when the owner has no active boundary.
type DeviceConfig struct {
	DeviceID    string       `json:"device_id"`
	Asset       TrackedAsset `json:"asset"`
	Geofence    *Boundary    `json:"geofence"`
	PollSeconds int          `json:"poll_seconds"`
}
