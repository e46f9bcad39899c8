package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/geo"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

var _ database.GeofenceStore = (*GeofenceRepo)(nil)

const geofenceColumns = `id, owner_id, name, shape, center_latitude, center_longitude, radius_meters, vertices, is_active, created_at`

type GeofenceRepo struct {
	db DBTX
}

func NewGeofenceRepo(db DBTX) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

func (r *GeofenceRepo) ActiveBoundariesFor(ctx context.Context, ownerID int64) (*domain.GeofenceSet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+geofenceColumns+` FROM geofences WHERE owner_id = $1 AND is_active ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var boundaries []domain.Boundary
	for rows.Next() {
		b, err := scanBoundary(rows)
		if err != nil {
			return nil, err
		}
		boundaries = append(boundaries, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.NewGeofenceSet(boundaries), nil
}

// LatestActiveFor skips rows whose geometry is unusable, so devices are never
// handed a boundary the ingest path would ignore.
func (r *GeofenceRepo) LatestActiveFor(ctx context.Context, ownerID int64) (*domain.Boundary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+geofenceColumns+` FROM geofences WHERE owner_id = $1 AND is_active ORDER BY id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		b, err := scanBoundary(rows)
		if err != nil {
			return nil, err
		}
		if b.Valid() {
			return &b, nil
		}
	}
	return nil, rows.Err()
}

// scanBoundary leaves Shape nil for a circle row missing its center or radius.
// Invalid geometry is filtered later rather than failing the whole read.
func scanBoundary(s scanner) (domain.Boundary, error) {
	var (
		b        domain.Boundary
		shape    string
		lat, lon sql.NullFloat64
		radius   sql.NullFloat64
		vertices []byte
	)
	if err := s.Scan(&b.ID, &b.OwnerID, &b.Name, &shape, &lat, &lon, &radius, &vertices, &b.Active, &b.CreatedAt); err != nil {
		return b, err
	}

	switch domain.ShapeKind(shape) {
	case domain.ShapeCircle:
		if !lat.Valid || !lon.Valid || !radius.Valid {
			return b, nil
		}
		b.Shape = domain.Circle{
			Center:       geo.Point{Lat: lat.Float64, Lon: lon.Float64},
			RadiusMeters: radius.Float64,
		}
	case domain.ShapePolygon:
		pts, err := decodeVertices(vertices)
		if err != nil {
			return b, fmt.Errorf("geofence %d: %w", b.ID, err)
		}
		b.Shape = domain.Polygon{Vertices: pts}
	default:
		return b, fmt.Errorf("geofence %d: unknown shape %q", b.ID, shape)
	}
	return b, nil
}

// decodeVertices reads the [[lat, lon], ...] layout the map editor stores.
func decodeVertices(raw []byte) ([]geo.Point, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var pairs [][2]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("decode vertices: %w", err)
	}
	pts := make([]geo.Point, len(pairs))
	for i, p := range pairs {
		pts[i] = geo.Point{Lat: p[0], Lon: p[1]}
	}
	return pts, nil
}
