package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

var _ database.FixRepository = (*FixRepo)(nil)

const fixColumns = `id, device_id, timestamp, latitude, longitude, speed, altitude, inside_geofence, created_at`

type FixRepo struct {
	db DBTX
}

func NewFixRepo(db DBTX) *FixRepo {
	return &FixRepo{db: db}
}

func (r *FixRepo) Insert(ctx context.Context, fix *domain.TelemetryFix) error {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO gps_data (device_id, timestamp, latitude, longitude, speed, altitude, inside_geofence) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		fix.DeviceID, fix.Timestamp, fix.Latitude, fix.Longitude, fix.Speed, fix.Altitude, fix.InsideGeofence,
	)
	return row.Scan(&fix.ID, &fix.CreatedAt)
}

func (r *FixRepo) GetLatest(ctx context.Context, deviceID string) (*domain.TelemetryFix, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fixColumns+` FROM gps_data WHERE device_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		deviceID,
	)

	var f domain.TelemetryFix
	if err := scanFix(row, &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *FixRepo) LatestForDevices(ctx context.Context, deviceIDs []string) (map[string]domain.TelemetryFix, error) {
	latest := make(map[string]domain.TelemetryFix, len(deviceIDs))
	if len(deviceIDs) == 0 {
		return latest, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (device_id) `+fixColumns+` FROM gps_data WHERE device_id = ANY($1) ORDER BY device_id, timestamp DESC`,
		pq.Array(deviceIDs),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var f domain.TelemetryFix
		if err := scanFix(rows, &f); err != nil {
			return nil, err
		}
		latest[f.DeviceID] = f
	}
	return latest, rows.Err()
}

// GetHistory returns fixes in timestamp order. A zero From or To leaves that
// side open.
func (r *FixRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.TelemetryFix, error) {
	where := []string{"device_id = $1"}
	args := []any{query.DeviceID}
	if !query.From.IsZero() {
		args = append(args, query.From)
		where = append(where, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if !query.To.IsZero() {
		args = append(args, query.To)
		where = append(where, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fixColumns+` FROM gps_data WHERE `+strings.Join(where, " AND ")+` ORDER BY timestamp ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.TelemetryFix
	for rows.Next() {
		var f domain.TelemetryFix
		if err := scanFix(rows, &f); err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFix(s scanner, f *domain.TelemetryFix) error {
	return s.Scan(&f.ID, &f.DeviceID, &f.Timestamp, &f.Latitude, &f.Longitude, &f.Speed, &f.Altitude, &f.InsideGeofence, &f.CreatedAt)
}
