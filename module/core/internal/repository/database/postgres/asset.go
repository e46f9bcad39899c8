package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

var _ database.AssetDirectory = (*AssetRepo)(nil)

// trackerAssets exposes employees and livestock under one shape. rank keeps
// the lookup order stable when both tables share a tracker id.
const trackerAssets = `(
	SELECT id, 'employee' AS kind, owner_id, full_name AS name, tracker_device_id AS device_id, 1 AS rank FROM employees
	UNION ALL
	SELECT id, 'livestock' AS kind, owner_id, name, tracker_device_id AS device_id, 2 AS rank FROM livestock
)`

const allAssets = `(
	SELECT id, 'equipment' AS kind, owner_id, name, device_id, 0 AS rank FROM equipment
	UNION ALL
	SELECT id, 'employee' AS kind, owner_id, full_name AS name, tracker_device_id AS device_id, 1 AS rank FROM employees
	UNION ALL
	SELECT id, 'livestock' AS kind, owner_id, name, tracker_device_id AS device_id, 2 AS rank FROM livestock
)`

type AssetRepo struct {
	db DBTX
}

func NewAssetRepo(db DBTX) *AssetRepo {
	return &AssetRepo{db: db}
}

func (r *AssetRepo) FindEquipmentByDeviceID(ctx context.Context, deviceID string) (*domain.TrackedAsset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, device_id FROM equipment WHERE device_id = $1 ORDER BY id LIMIT 1`,
		deviceID,
	)

	a := domain.TrackedAsset{Kind: domain.AssetEquipment}
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.DeviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepo) FindTrackerAssetByDeviceID(ctx context.Context, deviceID string) (*domain.TrackedAsset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, owner_id, name, device_id FROM `+trackerAssets+` a WHERE device_id = $1 ORDER BY rank, id LIMIT 1`,
		deviceID,
	)

	var a domain.TrackedAsset
	if err := row.Scan(&a.ID, &a.Kind, &a.OwnerID, &a.Name, &a.DeviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.TrackedAsset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, owner_id, name, COALESCE(device_id, '') FROM `+allAssets+` a WHERE owner_id = $1 ORDER BY rank, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.TrackedAsset
	for rows.Next() {
		var a domain.TrackedAsset
		if err := rows.Scan(&a.ID, &a.Kind, &a.OwnerID, &a.Name, &a.DeviceID); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// DeviceIDsForOwner is the ownership lookup shared by alert listing and every
// owner-scoped alert action.
func (r *AssetRepo) DeviceIDsForOwner(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT device_id FROM `+allAssets+` a WHERE owner_id = $1 AND device_id IS NOT NULL AND device_id <> '' ORDER BY device_id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
