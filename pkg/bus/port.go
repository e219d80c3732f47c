// Package bus owns the half-duplex serial line that every servo on the neck
// is daisy-chained to.
package bus

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the subset of a serial port the bus needs.
// go.bug.st/serial's Port satisfies it; TestablePort stands in for tests.
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetReadTimeout(timeout time.Duration) error
}

// Opener opens a port at path with the given mode.
type Opener func(path string, mode *serial.Mode) (Port, error)

// SerialOpener opens a real serial device.
func SerialOpener(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// ListPorts returns the serial devices present on this machine.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

var _ Port = (serial.Port)(nil)
