package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
	"github.com/nandanugg/tracker-geofence/module/core/internal/repository/database"
)

type mockFixRepo struct {
	insertFn     func(ctx context.Context, fix *domain.TelemetryFix) error
	getLatestFn  func(ctx context.Context, deviceID string) (*domain.TelemetryFix, error)
	getHistoryFn func(ctx context.Context, query *domain.HistoryQuery) ([]domain.TelemetryFix, error)
	latestForFn  func(ctx context.Context, deviceIDs []string) (map[string]domain.TelemetryFix, error)
	inserted     []domain.TelemetryFix
}

func (m *mockFixRepo) Insert(ctx context.Context, fix *domain.TelemetryFix) error {
	if m.insertFn != nil {
		if err := m.insertFn(ctx, fix); err != nil {
			return err
		}
	}
	fix.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, *fix)
	return nil
}

func (m *mockFixRepo) GetLatest(ctx context.Context, deviceID string) (*domain.TelemetryFix, error) {
	return m.getLatestFn(ctx, deviceID)
}

func (m *mockFixRepo) LatestForDevices(ctx context.Context, deviceIDs []string) (map[string]domain.TelemetryFix, error) {
	return m.latestForFn(ctx, deviceIDs)
}

func (m *mockFixRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.TelemetryFix, error) {
	return m.getHistoryFn(ctx, query)
}

type mockAssets struct {
	findEquipmentFn func(ctx context.Context, deviceID string) (*domain.TrackedAsset, error)
	findTrackerFn   func(ctx context.Context, deviceID string) (*domain.TrackedAsset, error)
	listByOwnerFn   func(ctx context.Context, ownerID int64) ([]domain.TrackedAsset, error)
	deviceIDsFn     func(ctx context.Context, ownerID int64) ([]string, error)
	trackerCalls    int
}

func (m *mockAssets) FindEquipmentByDeviceID(ctx context.Context, deviceID string) (*domain.TrackedAsset, error) {
	if m.findEquipmentFn == nil {
		return nil, nil
	}
	return m.findEquipmentFn(ctx, deviceID)
}

func (m *mockAssets) FindTrackerAssetByDeviceID(ctx context.Context, deviceID string) (*domain.TrackedAsset, error) {
	m.trackerCalls++
	if m.findTrackerFn == nil {
		return nil, nil
	}
	return m.findTrackerFn(ctx, deviceID)
}

func (m *mockAssets) ListByOwner(ctx context.Context, ownerID int64) ([]domain.TrackedAsset, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockAssets) DeviceIDsForOwner(ctx context.Context, ownerID int64) ([]string, error) {
	return m.deviceIDsFn(ctx, ownerID)
}

type mockGeofences struct {
	activeFn    func(ctx context.Context, ownerID int64) (*domain.GeofenceSet, error)
	latestFn    func(ctx context.Context, ownerID int64) (*domain.Boundary, error)
	activeCalls int
}

func (m *mockGeofences) ActiveBoundariesFor(ctx context.Context, ownerID int64) (*domain.GeofenceSet, error) {
	m.activeCalls++
	if m.activeFn == nil {
		return domain.NewGeofenceSet(nil), nil
	}
	return m.activeFn(ctx, ownerID)
}

func (m *mockGeofences) LatestActiveFor(ctx context.Context, ownerID int64) (*domain.Boundary, error) {
	return m.latestFn(ctx, ownerID)
}

// memAlerts keeps alerts in memory with the same open and window semantics
// as the Postgres store.
type memAlerts struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
}

func (m *memAlerts) HasOpenAlert(_ context.Context, deviceID string, kind domain.AlertKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, a := range m.alerts {
		if a.DeviceID == deviceID && a.Kind == kind && !a.Resolved {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAlerts) HasRecentAlert(_ context.Context, deviceID string, kind domain.AlertKind, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, a := range m.alerts {
		if a.DeviceID == deviceID && a.Kind == kind && !a.Resolved && !a.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAlerts) Create(_ context.Context, in domain.NewAlert) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a := domain.Alert{
		ID:        uuid.New(),
		FixID:     in.FixID,
		DeviceID:  in.DeviceID,
		Kind:      in.Kind,
		Message:   in.Message,
		CreatedAt: in.CreatedAt,
	}
	m.alerts = append(m.alerts, a)
	return &a, nil
}

func (m *memAlerts) Get(_ context.Context, id uuid.UUID) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.alerts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAlerts) ListOpen(_ context.Context, deviceIDs []string) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Alert
	for _, a := range m.alerts {
		if !a.Resolved && slices.Contains(deviceIDs, a.DeviceID) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memAlerts) Resolve(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Resolved = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memAlerts) ResolveOpen(_ context.Context, deviceID string, kind domain.AlertKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for i := range m.alerts {
		a := &m.alerts[i]
		if a.DeviceID == deviceID && a.Kind == kind && !a.Resolved {
			a.Resolved = true
			n++
		}
	}
	return n, nil
}

func (m *memAlerts) ResolveAllFor(_ context.Context, deviceIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for i := range m.alerts {
		a := &m.alerts[i]
		if !a.Resolved && slices.Contains(deviceIDs, a.DeviceID) {
			a.Resolved = true
			n++
		}
	}
	return n, nil
}

func (m *memAlerts) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memAlerts) open() []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Alert
	for _, a := range m.alerts {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

type mockStore struct {
	fixes     *mockFixRepo
	assets    *mockAssets
	geofences *mockGeofences
	alerts    *memAlerts

	// txMu serializes InDeviceTx the way the advisory lock does.
	txMu      sync.Mutex
	txDevices []string
}

var _ database.TxRunner = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		fixes:     &mockFixRepo{},
		assets:    &mockAssets{},
		geofences: &mockGeofences{},
		alerts:    &memAlerts{},
	}
}

func (m *mockStore) Fixes() database.FixRepository { return m.fixes }
func (m *mockStore) Assets() database.AssetDirectory { return m.assets }
func (m *mockStore) Geofences() database.GeofenceStore { return m.geofences }
func (m *mockStore) Alerts() database.AlertStore { return m.alerts }

func (m *mockStore) InDeviceTx(_ context.Context, deviceID string, fn func(database.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.txDevices = append(m.txDevices, deviceID)
	return fn(m)
}

type mockAlertPublisher struct {
	publishFn func(ctx context.Context, event *domain.AlertEvent) error
	calls     []*domain.AlertEvent
}

func (m *mockAlertPublisher) PublishAlert(ctx context.Context, event *domain.AlertEvent) error {
	m.calls = append(m.calls, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
