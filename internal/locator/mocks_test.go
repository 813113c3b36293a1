package locator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/geolink/edge-locator/internal/models"
	"github.com/geolink/edge-locator/pkg/geoservice"
	"github.com/geolink/edge-locator/pkg/location"
	"github.com/geolink/edge-locator/pkg/transport"
)

// fakeTransport records sends and lets tests deliver messages to registered
// handlers, standing in for the broker round-trip.
type fakeTransport struct {
	mu       sync.Mutex
	handlers map[string]transport.Handler
	sent     map[string][][]byte
	sendErr  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers: make(map[string]transport.Handler),
		sent:     make(map[string][][]byte),
	}
}

func (f *fakeTransport) OnMessage(topic string, handler transport.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeTransport) Send(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[topic] = append(f.sent[topic], payload)
	return f.sendErr
}

// deliver invokes the handler registered for the topic, as the broker would.
func (f *fakeTransport) deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	handler := f.handlers[topic]
	f.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(payload)
	return true
}

func (f *fakeTransport) sentOn(topic string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent[topic]...)
}

// fakeScheduler captures retry timers instead of running them.
type fakeScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) *time.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, f)
	return time.NewTimer(time.Hour)
}

func (s *fakeScheduler) scheduled() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// MockGeoClient is a mock implementation of the geoservice.Client interface.
type MockGeoClient struct {
	mock.Mock
}

func (m *MockGeoClient) Geolocate(ctx context.Context, networks []models.NetworkObservation) (geoservice.Coordinates, error) {
	args := m.Called(ctx, networks)
	return args.Get(0).(geoservice.Coordinates), args.Error(1)
}

func (m *MockGeoClient) ReverseGeocode(ctx context.Context, lat, lng float64) (json.RawMessage, error) {
	args := m.Called(ctx, lat, lng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockGeoClient) Timezone(ctx context.Context, lat, lng float64, timestamp int64) (geoservice.TimezoneOffsets, error) {
	args := m.Called(ctx, lat, lng, timestamp)
	return args.Get(0).(geoservice.TimezoneOffsets), args.Error(1)
}

// MockWiFiScanner is a mock implementation of the scanner.WiFiScanner interface.
type MockWiFiScanner struct {
	mock.Mock
}

func (m *MockWiFiScanner) Scan(ctx context.Context) ([]models.NetworkObservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NetworkObservation), args.Error(1)
}

// MockSensorProvider is a mock implementation of the location.Provider interface.
type MockSensorProvider struct {
	mock.Mock
}

func (m *MockSensorProvider) GetPosition() (location.Position, error) {
	args := m.Called()
	return args.Get(0).(location.Position), args.Error(1)
}
