package treadmill

import (
	"errors"
	"log"
	"sync"
)

// MockAddress selects the simulated treadmill instead of a BLE device
const MockAddress = "mock"

// MockDevice is an in-memory treadmill. It records control point writes,
// tracks the speed and running state they imply and answers each write with
// a success indication when notifications are enabled.
type MockDevice struct {
	mu         sync.Mutex
	logger     *log.Logger
	connected  bool
	writes     [][]byte
	notify     func(buf []byte)
	writeErr   error
	running    bool
	controlled bool
	speedKmh   float64
}

var _ Device = (*MockDevice)(nil)

func NewMockDevice(logger *log.Logger) *MockDevice {
	if logger == nil {
		panic("MockDevice: logger cannot be nil")
	}
	return &MockDevice{logger: logger, connected: true}
}

func (m *MockDevice) GetAddressString() string {
	return MockAddress
}

func (m *MockDevice) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockDevice) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *MockDevice) EnableNotifications(serviceUuid string, characteristicUuid string, callbackFunc func(buf []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return errors.New("no connected device")
	}
	m.notify = callbackFunc
	return nil
}

func (m *MockDevice) WriteCharacteristic(serviceUuid string, characteristicUuid string, data []byte) error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return errors.New("no connected device")
	}
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return err
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	result := m.apply(data)
	notify := m.notify
	m.mu.Unlock()

	if notify != nil && len(data) > 0 {
		notify([]byte{FTMSOpCodeResponseCode, data[0], result})
	}
	return nil
}

// apply updates the simulated state. Caller holds mu.
func (m *MockDevice) apply(data []byte) byte {
	if len(data) == 0 {
		return FTMSResultInvalidParameter
	}
	if data[0] != FTMSOpCodeRequestControl && !m.controlled {
		return FTMSResultControlNotPermitted
	}
	switch data[0] {
	case FTMSOpCodeRequestControl:
		m.controlled = true
	case FTMSOpCodeReset:
		m.running = false
		m.speedKmh = 0
	case FTMSOpCodeStartOrResume:
		m.running = true
	case FTMSOpCodeStopOrPause:
		m.running = false
		if len(data) > 1 && data[1] == FTMSStopParam {
			m.speedKmh = 0
		}
	case FTMSOpCodeSetTargetSpeed:
		if len(data) < 3 {
			return FTMSResultInvalidParameter
		}
		m.speedKmh = float64(uint16(data[1])|uint16(data[2])<<8) / 100
	default:
		return FTMSResultOpCodeNotSupported
	}
	m.logger.Printf("MockDevice: %s (running=%v speed=%.2f)", OpCodeName(data[0]), m.running, m.speedKmh)
	return FTMSResultSuccess
}

// SetWriteError makes every following write fail with err; nil clears it
func (m *MockDevice) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes returns a copy of every successful write in order
func (m *MockDevice) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	for i, w := range m.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

func (m *MockDevice) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *MockDevice) SpeedKmh() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speedKmh
}
