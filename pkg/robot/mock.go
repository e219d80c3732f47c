package robot

import (
	"context"
	"sync"
)

// MockDriver implements Driver for testing.
// Behaviour can be customized via the function fields; every call is recorded.
type MockDriver struct {
	// EnableFunc is called by EnableTorque. If nil, returns nil.
	EnableFunc func(id uint8) error

	// DisableFunc is called by DisableTorque. If nil, returns nil.
	DisableFunc func(id uint8) error

	// SetFunc is called by SetPosition. If nil, returns nil.
	SetFunc func(id uint8, deg float64) error

	// ReadFunc is called by ReadPosition. If nil, returns the last
	// commanded position for id, or false if none was sent.
	ReadFunc func(id uint8) (float64, bool)

	// CloseFunc is called by Close. If nil, returns nil.
	CloseFunc func() error

	mu        sync.Mutex
	calls     []MockCall
	positions map[uint8]float64
}

// Mock call methods.
const (
	CallEnable  = "EnableTorque"
	CallDisable = "DisableTorque"
	CallSet     = "SetPosition"
	CallRead    = "ReadPosition"
	CallClose   = "Close"
)

// MockCall records a driver invocation.
type MockCall struct {
	Method string
	ID     uint8
	Deg    float64
}

// NewMockDriver returns a driver that accepts everything.
func NewMockDriver() *MockDriver {
	return &MockDriver{positions: make(map[uint8]float64)}
}

func (m *MockDriver) record(c MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// EnableTorque implements Driver.
func (m *MockDriver) EnableTorque(ctx context.Context, id uint8) error {
	m.record(MockCall{Method: CallEnable, ID: id})
	if m.EnableFunc != nil {
		return m.EnableFunc(id)
	}
	return nil
}

// DisableTorque implements Driver.
func (m *MockDriver) DisableTorque(ctx context.Context, id uint8) error {
	m.record(MockCall{Method: CallDisable, ID: id})
	if m.DisableFunc != nil {
		return m.DisableFunc(id)
	}
	return nil
}

// SetPosition implements Driver.
func (m *MockDriver) SetPosition(ctx context.Context, id uint8, deg float64) error {
	m.record(MockCall{Method: CallSet, ID: id, Deg: deg})
	if m.SetFunc != nil {
		if err := m.SetFunc(id, deg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.positions[id] = deg
	m.mu.Unlock()
	return nil
}

// ReadPosition implements Driver.
func (m *MockDriver) ReadPosition(ctx context.Context, id uint8) (float64, bool) {
	m.record(MockCall{Method: CallRead, ID: id})
	if m.ReadFunc != nil {
		return m.ReadFunc(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	deg, ok := m.positions[id]
	return deg, ok
}

// Close implements Driver.
func (m *MockDriver) Close() error {
	m.record(MockCall{Method: CallClose})
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *MockDriver) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls of one method.
func (m *MockDriver) CallsTo(method string) []MockCall {
	var out []MockCall
	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (m *MockDriver) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
