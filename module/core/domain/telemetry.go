package domain

import (
	"math"
	"time"

	"github.com/nandanugg/tracker-geofence/module/core/geo"
)

// TelemetryFix is one stored GPS sample. InsideGeofence is derived by the
// ingest pipeline and is false for devices that resolve to no asset.
type TelemetryFix struct {
	ID             int64     `json:"id"`
	DeviceID       string    `json:"device_id"`
	Timestamp      time.Time `json:"timestamp"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Speed          float64   `json:"speed"`
	Altitude       float64   `json:"altitude"`
	InsideGeofence bool      `json:"inside_geofence"`
	CreatedAt      time.Time `json:"created_at"`
}

func (f *TelemetryFix) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lon: f.Longitude}
}

// Validate rejects a fix that must not reach storage.
func (f *TelemetryFix) Validate() error {
	if f.DeviceID == "" {
		return &ValidationError{Field: "device_id", Reason: "required"}
	}
	if f.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "required"}
	}
	if err := ValidatePoint(f.Point()); err != nil {
		return err
	}
	if !finite(f.Speed) {
		return &ValidationError{Field: "speed", Reason: "must be a number"}
	}
	if !finite(f.Altitude) {
		return &ValidationError{Field: "altitude", Reason: "must be a number"}
	}
	return nil
}

func ValidatePoint(p geo.Point) error {
	if !finite(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if !finite(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type HistoryQuery struct {
	DeviceID string
	From     time.Time
	To       time.Time
}

// TelemetryPayload is the JSON body a device sends over HTTP or MQTT.
// Coordinates, speed and altitude are pointers so a missing field is told
// apart from a zero reading. Timestamp is kept raw and parsed by Fix.
type TelemetryPayload struct {
	DeviceID  string   `json:"device_id"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Altitude  *float64 `json:"altitude"`
}

// timestampLayouts are the ISO-8601 forms devices send. Layouts without an
// offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp reads an ISO-8601 date-time with or without an offset.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "timestamp", Reason: "must be an ISO-8601 date-time"}
}

func (p *TelemetryPayload) Fix() (TelemetryFix, error) {
	required := []struct {
		field string
		v     *float64
	}{
		{"latitude", p.Latitude},
		{"longitude", p.Longitude},
		{"speed", p.Speed},
		{"altitude", p.Altitude},
	}
	for _, r := range required {
		if r.v == nil {
			return TelemetryFix{}, &ValidationError{Field: r.field, Reason: "required"}
		}
	}

	var ts time.Time
	if p.Timestamp != "" {
		parsed, err := ParseTimestamp(p.Timestamp)
		if err != nil {
			return TelemetryFix{}, err
		}
		ts = parsed
	}

	fix := TelemetryFix{
		DeviceID:  p.DeviceID,
		Timestamp: ts,
		Latitude:  *p.Latitude,
		Longitude: *p.Longitude,
		Speed:     *p.Speed,
		Altitude:  *p.Altitude,
	}
	return fix, fix.Validate()
}
