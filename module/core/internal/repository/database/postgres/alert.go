package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

var _ database.AlertStore = (*AlertRepo)(nil)

const alertColumns = `id, gps_data_id, device_id, alert_type, message, is_resolved, created_at`

type AlertRepo struct {
	db DBTX
}

func NewAlertRepo(db DBTX) *AlertRepo {
	return &AlertRepo{db: db}
}

func (r *AlertRepo) HasOpenAlert(ctx context.Context, deviceID string, kind domain.AlertKind) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM alerts WHERE device_id = $1 AND alert_type = $2 AND NOT is_resolved)`,
		deviceID, string(kind),
	).Scan(&exists)
	return exists, err
}

func (r *AlertRepo) HasRecentAlert(ctx context.Context, deviceID string, kind domain.AlertKind, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM alerts WHERE device_id = $1 AND alert_type = $2 AND NOT is_resolved AND created_at >= $3)`,
		deviceID, string(kind), since,
	).Scan(&exists)
	return exists, err
}

func (r *AlertRepo) Create(ctx context.Context, in domain.NewAlert) (*domain.Alert, error) {
	a := &domain.Alert{
		ID:        uuid.New(),
		FixID:     in.FixID,
		DeviceID:  in.DeviceID,
		Kind:      in.Kind,
		Message:   in.Message,
		CreatedAt: in.CreatedAt,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, gps_data_id, device_id, alert_type, message, is_resolved, created_at) VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		a.ID, a.FixID, a.DeviceID, string(a.Kind), a.Message, a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AlertRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Alert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)

	var a domain.Alert
	if err := scanAlert(row, &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepo) ListOpen(ctx context.Context, deviceIDs []string) ([]domain.Alert, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE NOT is_resolved AND device_id = ANY($1) ORDER BY created_at DESC`,
		pq.Array(deviceIDs),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := scanAlert(rows, &a); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (r *AlertRepo) Resolve(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET is_resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *AlertRepo) ResolveOpen(ctx context.Context, deviceID string, kind domain.AlertKind) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET is_resolved = TRUE WHERE device_id = $1 AND alert_type = $2 AND NOT is_resolved`,
		deviceID, string(kind),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AlertRepo) ResolveAllFor(ctx context.Context, deviceIDs []string) (int64, error) {
	if len(deviceIDs) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET is_resolved = TRUE WHERE NOT is_resolved AND device_id = ANY($1)`,
		pq.Array(deviceIDs),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AlertRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAlert(s scanner, a *domain.Alert) error {
	return s.Scan(&a.ID, &a.FixID, &a.DeviceID, &a.Kind, &a.Message, &a.Resolved, &a.CreatedAt)
}
