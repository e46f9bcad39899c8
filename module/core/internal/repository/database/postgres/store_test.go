package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

func TestInDeviceTx_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("ESP32-01").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO gps_data`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), ts))
	mock.ExpectCommit()

	store := NewStore(db)
	err = store.InDeviceTx(context.Background(), "ESP32-01", func(s database.Store) error {
		return s.Fixes().Insert(context.Background(), &domain.TelemetryFix{DeviceID: "ESP32-01", Timestamp: ts})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInDeviceTx_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("ESP32-01").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	boom := errors.New("alert insert failed")
	store := NewStore(db)
	err = store.InDeviceTx(context.Background(), "ESP32-01", func(database.Store) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInDeviceTx_LockError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("ESP32-01").
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	called := false
	store := NewStore(db)
	err = store.InDeviceTx(context.Background(), "ESP32-01", func(database.Store) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if called {
		t.Error("fn must not run without the device lock")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInDeviceTx_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin().WillReturnError(sqlmock.ErrCancelled)

	store := NewStore(db)
	err = store.InDeviceTx(context.Background(), "ESP32-01", func(database.Store) error {
		t.Fatal("fn should not be called")
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS equipment`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
