package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

var _ database.TxRunner = (*Store)(nil)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repos struct {
	fixes     *FixRepo
	assets    *AssetRepo
	geofences *GeofenceRepo
	alerts    *AlertRepo
}

func newRepos(q DBTX) repos {
	return repos{
		fixes:     NewFixRepo(q),
		assets:    NewAssetRepo(q),
		geofences: NewGeofenceRepo(q),
		alerts:    NewAlertRepo(q),
	}
}

func (r repos) Fixes() database.FixRepository { return r.fixes }
func (r repos) Assets() database.AssetDirectory { return r.assets }
func (r repos) Geofences() database.GeofenceStore { return r.geofences }
func (r repos) Alerts() database.AlertStore { return r.alerts }

type Store struct {
	repos
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{repos: newRepos(db), db: db}
}

// InDeviceTx serializes writers of the same device with a transaction-scoped
// advisory lock, so check-then-create alert sequences cannot interleave.
func (s *Store) InDeviceTx(ctx context.Context, deviceID string, fn func(database.Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, deviceID); err != nil {
		return fmt.Errorf("lock device %s: %w", deviceID, err)
	}

	if err = fn(newRepos(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
