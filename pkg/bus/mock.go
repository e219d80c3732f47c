package bus

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"go.bug.st/serial"
)

// TestablePort implements Port with configurable behaviour for testing.
// It records every frame written and can answer requests through Respond.
type TestablePort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// Frames captures each Write call as a separate frame
	Frames [][]byte

	// Respond, if set, is called with every written frame; its result is
	// queued for the next Read, the way a servo answers on the line.
	Respond func(frame []byte) []byte

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWrite makes the next Write report one byte less than requested
	ShortWrite bool

	// CloseError is returned by Close if set
	CloseError error

	// OpenError is returned by Opener if set
	OpenError error

	// Closed indicates whether Close was called
	Closed bool

	ReadCalls  int
	WriteCalls int
	CloseCalls int
	ResetCalls int

	// ReadTimeout is the current read timeout
	ReadTimeout time.Duration
}

// NewTestablePort creates a new TestablePort.
func NewTestablePort() *TestablePort {
	return &TestablePort{
		ReadBuffer: bytes.NewBuffer(nil),
	}
}

// Opener returns an Opener that hands out this port.
func (t *TestablePort) Opener() Opener {
	return func(path string, _ *serial.Mode) (Port, error) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.OpenError != nil {
			return nil, t.OpenError
		}
		return t, nil
	}
}

// Read reads from the read buffer.
func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	return t.ReadBuffer.Read(p)
}

// Write records the frame and queues any response.
func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	frame := append([]byte(nil), p...)
	t.Frames = append(t.Frames, frame)
	if t.Respond != nil {
		if resp := t.Respond(frame); len(resp) > 0 {
			t.ReadBuffer.Write(resp)
		}
	}
	if t.ShortWrite {
		t.ShortWrite = false
		return len(p) - 1, nil
	}
	return len(p), nil
}

// Close marks the port as closed.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.CloseCalls++
	t.Closed = true
	return t.CloseError
}

// ResetInputBuffer discards unread data.
func (t *TestablePort) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ResetCalls++
	t.ReadBuffer.Reset()
	return nil
}

// ResetOutputBuffer is a no-op; writes are never buffered.
func (t *TestablePort) ResetOutputBuffer() error {
	return nil
}

// SetReadTimeout implements Port.
func (t *TestablePort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	return nil
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestablePort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
}

// Written returns a copy of all frames written so far.
func (t *TestablePort) Written() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([][]byte, len(t.Frames))
	copy(out, t.Frames)
	return out
}

// Reset clears buffers, recorded frames and counters.
func (t *TestablePort) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Reset()
	t.Frames = nil
	t.ReadCalls = 0
	t.WriteCalls = 0
	t.CloseCalls = 0
	t.ResetCalls = 0
	t.Closed = false
	t.ReadError = nil
	t.WriteError = nil
	t.CloseError = nil
}
