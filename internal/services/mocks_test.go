package services_test

import (
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/geolink/edge-locator/internal/models"
	"github.com/geolink/edge-locator/pkg/identity"
	"github.com/geolink/edge-locator/pkg/transport"
)

// MockTransport is a mock implementation of the transport.Transport interface.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) OnMessage(topic string, handler transport.Handler) error {
	args := m.Called(topic, handler)
	return args.Error(0)
}

func (m *MockTransport) Send(topic string, payload []byte) error {
	args := m.Called(topic, payload)
	return args.Error(0)
}

// MockDeviceInfo is a mock implementation of the identity.DeviceInfoInterface.
type MockDeviceInfo struct {
	mock.Mock
}

func (m *MockDeviceInfo) LoadDeviceInfo() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDeviceInfo) SaveDeviceID(deviceID string) error {
	args := m.Called(deviceID)
	return args.Error(0)
}

func (m *MockDeviceInfo) GetDeviceID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDeviceInfo) GetDeviceIdentity() *identity.Identity {
	args := m.Called()
	return args.Get(0).(*identity.Identity)
}

// fakeNode is a locator.Node that counts Locate calls.
type fakeNode struct {
	startErr    error
	locateCalls atomic.Int32
}

func (n *fakeNode) Start() error {
	return n.startErr
}

func (n *fakeNode) Locate(usePrevious bool, onComplete func()) {
	n.locateCalls.Add(1)
	if onComplete != nil {
		onComplete()
	}
}

func (n *fakeNode) GetLocation() (models.LocationResult, error) {
	return models.LocationResult{}, nil
}

func (n *fakeNode) GetTimezone() (models.TimezoneResult, error) {
	return models.TimezoneResult{}, nil
}
