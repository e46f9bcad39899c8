package subscriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nandanugg/tracker-geofence/module/core/domain"
)

type mockIngestSvc struct {
	ingestFn func(ctx context.Context, fix domain.TelemetryFix) (*domain.IngestResult, error)
}

func (m *mockIngestSvc) Ingest(ctx context.Context, fix domain.TelemetryFix) (*domain.IngestResult, error) {
	return m.ingestFn(ctx, fix)
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 0 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return f.topic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

const topicESP = "/tracking/device/ESP32-01/gps"

func TestHandleMessage_Success(t *testing.T) {
	var ingested *domain.TelemetryFix
	svc := &mockIngestSvc{
		ingestFn: func(ctx context.Context, fix domain.TelemetryFix) (*domain.IngestResult, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected a deadline on the ingest context")
			}
			ingested = &fix
			return &domain.IngestResult{Fix: fix, AlertsCreated: []domain.Alert{}}, nil
		},
	}
	sub := &TelemetrySubscriber{ingestSvc: svc, log: zerolog.Nop()}

	payload := `{"device_id":"ESP32-01","timestamp":"2024-05-06T12:00:00Z","latitude":-15.4167,"longitude":28.2833,"speed":12.5,"altitude":1250}`
	sub.handleMessage(nil, &fakeMQTTMessage{topic: topicESP, payload: []byte(payload)})

	if ingested == nil {
		t.Fatal("expected Ingest to be called")
	}
	if ingested.DeviceID != "ESP32-01" {
		t.Errorf("expected ESP32-01, got %s", ingested.DeviceID)
	}
	if ingested.Latitude != -15.4167 || ingested.Speed != 12.5 {
		t.Errorf("unexpected fix %+v", ingested)
	}
	expectedTs := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	if !ingested.Timestamp.Equal(expectedTs) {
		t.Errorf("expected %v, got %v", expectedTs, ingested.Timestamp)
	}
}

func TestHandleMessage_DeviceFromTopic(t *testing.T) {
	var deviceID string
	svc := &mockIngestSvc{
		ingestFn: func(_ context.Context, fix domain.TelemetryFix) (*domain.IngestResult, error) {
			deviceID = fix.DeviceID
			return &domain.IngestResult{Fix: fix}, nil
		},
	}
	sub := &TelemetrySubscriber{ingestSvc: svc, log: zerolog.Nop()}

	payload := `{"timestamp":"2024-05-06T12:00:00Z","latitude":1,"longitude":2,"speed":0,"altitude":0}`
	sub.handleMessage(nil, &fakeMQTTMessage{topic: topicESP, payload: []byte(payload)})

	if deviceID != "ESP32-01" {
		t.Errorf("expected device id from topic, got %q", deviceID)
	}
}

func TestHandleMessage_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"invalid json", topicESP, "invalid"},
		{"missing coordinates", topicESP, `{"device_id":"ESP32-01","timestamp":"2024-05-06T12:00:00Z","speed":0,"altitude":0}`},
		{"latitude out of range", topicESP, `{"device_id":"ESP32-01","timestamp":"2024-05-06T12:00:00Z","latitude":91,"longitude":0,"speed":0,"altitude":0}`},
		{"device mismatch", topicESP, `{"device_id":"OTHER","timestamp":"2024-05-06T12:00:00Z","latitude":1,"longitude":2,"speed":0,"altitude":0}`},
		{"missing timestamp", topicESP, `{"device_id":"ESP32-01","latitude":1,"longitude":2,"speed":0,"altitude":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockIngestSvc{
				ingestFn: func(context.Context, domain.TelemetryFix) (*domain.IngestResult, error) {
					t.Fatal("Ingest should not be called")
					return nil, nil
				},
			}
			sub := &TelemetrySubscriber{ingestSvc: svc, log: zerolog.Nop()}
			sub.handleMessage(nil, &fakeMQTTMessage{topic: tt.topic, payload: []byte(tt.payload)})
		})
	}
}

func TestHandleMessage_IngestError(t *testing.T) {
	calls := 0
	svc := &mockIngestSvc{
		ingestFn: func(context.Context, domain.TelemetryFix) (*domain.IngestResult, error) {
			calls++
			return nil, domain.Unavailable("ingest", errors.New("db error"))
		},
	}
	sub := &TelemetrySubscriber{ingestSvc: svc, log: zerolog.Nop()}

	payload := `{"device_id":"ESP32-01","timestamp":"2024-05-06T12:00:00Z","latitude":1,"longitude":2,"speed":0,"altitude":0}`
	sub.handleMessage(nil, &fakeMQTTMessage{topic: topicESP, payload: []byte(payload)})

	if calls != 1 {
		t.Errorf("expected one ingest attempt, got %d", calls)
	}
}

func TestDeviceFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"/tracking/device/ESP32-01/gps", "ESP32-01"},
		{"tracking/device/COLLAR-9/gps", "COLLAR-9"},
		{"/tracking/device/ESP32-01/status", ""},
		{"/fleet/vehicle/B1234XYZ/location", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := deviceFromTopic(tt.topic); got != tt.want {
			t.Errorf("deviceFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}
