package b3m

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gwillem/neck/internal/log"
	"github.com/gwillem/neck/pkg/bus"
)

// DeviceLimitRaw is the electrical travel limit for position commands, in
// 0.01° units (±80.00°). It is wider than any rig's logical axis range.
const DeviceLimitRaw = 8000

// Default timings.
const (
	DefaultTorqueDelay  = 100 * time.Millisecond
	DefaultReadDelay    = 50 * time.Millisecond
	DefaultResponseSize = 12
	DefaultAckSize      = 5
)

// Transport is the part of the bus the command set needs.
type Transport interface {
	Send(frame []byte) error
	Exchange(frame []byte, wait time.Duration, n int) ([]byte, error)
}

// Servos issues commands to the servos on one bus.
type Servos struct {
	t      Transport
	closer interface{ Close() error }
	logger *slog.Logger

	// TorqueDelay separates the Free and Normal writes of EnableTorque.
	TorqueDelay time.Duration
	// ReadDelay is how long to wait after a read request before reading.
	ReadDelay time.Duration
	// ResponseSize is how many bytes to read for a position response.
	ResponseSize int
	// AckSize is how many bytes a torque write acknowledgement may take.
	AckSize int
}

// New returns a command set speaking over t.
func New(t Transport) *Servos {
	s := &Servos{
		t:            t,
		logger:       log.With("component", "b3m"),
		TorqueDelay:  DefaultTorqueDelay,
		ReadDelay:    DefaultReadDelay,
		ResponseSize: DefaultResponseSize,
		AckSize:      DefaultAckSize,
	}
	if c, ok := t.(interface{ Close() error }); ok {
		s.closer = c
	}
	return s
}

// Open opens the serial bus at path and returns a command set that owns it.
func Open(path string, opts bus.Options) (*Servos, error) {
	b, err := bus.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

// Close releases the underlying transport if the command set owns one.
func (s *Servos) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// EnableTorque powers the servo. The device rejects Normal unless it was
// switched to Free first, so both writes are always sent.
func (s *Servos) EnableTorque(ctx context.Context, id uint8) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeMode(id, TorqueFree); err != nil {
		return fmt.Errorf("enable torque %d: %w", id, err)
	}
	time.Sleep(s.TorqueDelay)
	if err := s.writeMode(id, TorqueNormal); err != nil {
		return fmt.Errorf("enable torque %d: %w", id, err)
	}
	s.logger.Debug("torque on", "id", id)
	return nil
}

// DisableTorque leaves the servo compliant.
func (s *Servos) DisableTorque(ctx context.Context, id uint8) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeMode(id, TorqueFree); err != nil {
		return fmt.Errorf("disable torque %d: %w", id, err)
	}
	s.logger.Debug("torque off", "id", id)
	return nil
}

// SetPosition commands id to deg degrees, clamped to the device limit.
// No response is read.
func (s *Servos) SetPosition(ctx context.Context, id uint8, deg float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw := clampRaw(DegreesToRaw(deg))
	if err := s.t.Send(EncodeSetPosition(id, raw)); err != nil {
		return fmt.Errorf("set position %d: %w", id, err)
	}
	return nil
}

// ReadPosition returns the current position of id in degrees. Any failure
// is logged and reported as ok == false.
func (s *Servos) ReadPosition(ctx context.Context, id uint8) (float64, bool) {
	if ctx.Err() != nil {
		return 0, false
	}
	resp, err := s.t.Exchange(EncodeReadPosition(id), s.ReadDelay, s.ResponseSize)
	if err != nil {
		s.logger.Warn("read position failed", "id", id, "error", err)
		return 0, false
	}
	raw, err := DecodeReadResponse(resp)
	if err != nil {
		s.logger.Warn("read position failed", "id", id, "error", err, "bytes", len(resp))
		return 0, false
	}
	return RawToDegrees(raw), true
}

// writeMode sends a torque write and drains its acknowledgement so the
// next command does not collide with it on the line. A missing ack is fine.
func (s *Servos) writeMode(id uint8, mode TorqueMode) error {
	frame := EncodeTorqueMode(id, mode)
	if s.AckSize <= 0 {
		return s.t.Send(frame)
	}
	ack, err := s.t.Exchange(frame, 0, s.AckSize)
	if err != nil {
		return err
	}
	if len(ack) < s.AckSize {
		s.logger.Debug("no torque ack", "id", id, "mode", mode, "bytes", len(ack))
	}
	return nil
}

func clampRaw(raw int16) int16 {
	switch {
	case raw > DeviceLimitRaw:
		return DeviceLimitRaw
	case raw < -DeviceLimitRaw:
		return -DeviceLimitRaw
	}
	return raw
}
