package robot

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCommandGap separates consecutive commands to different servos on
// the daisy chain so the second frame is not corrupted.
const DefaultCommandGap = time.Millisecond

// ErrDriverPanic wraps a panic raised by the driver for one axis.
var ErrDriverPanic = errors.New("driver panic")

// Neck is a yaw/pitch pair of servos sharing one driver.
type Neck struct {
	driver Driver
	yaw    AxisConfig
	pitch  AxisConfig
	offset Offset

	// Gap is the pause between the yaw and pitch commands of one move.
	Gap time.Duration
}

// NewNeck creates a neck over an open driver.
func NewNeck(d Driver, yaw, pitch AxisConfig, off Offset) *Neck {
	return &Neck{
		driver: d,
		yaw:    yaw,
		pitch:  pitch,
		offset: off,
		Gap:    DefaultCommandGap,
	}
}

// Driver returns the underlying driver.
func (n *Neck) Driver() Driver {
	return n.driver
}

// Offset returns the calibration offset in use.
func (n *Neck) Offset() Offset {
	return n.offset
}

// SetOffset replaces the calibration offset.
func (n *Neck) SetOffset(off Offset) {
	n.offset = off
}

// Target maps input angles to clamped device angles.
func (n *Neck) Target(yaw, pitch float64) (float64, float64) {
	return n.yaw.Map(yaw, n.offset.Yaw), n.pitch.Map(pitch, n.offset.Pitch)
}

// Neutral returns the device angles for a zero input.
func (n *Neck) Neutral() (float64, float64) {
	return n.Target(0, 0)
}

// Enable turns torque on for both axes.
func (n *Neck) Enable(ctx context.Context) error {
	return n.each(func(name AxisName, a AxisConfig) error {
		return n.driver.EnableTorque(ctx, a.ID)
	})
}

// Disable turns torque off for both axes. Both are attempted even if the
// first one fails.
func (n *Neck) Disable(ctx context.Context) error {
	return n.each(func(name AxisName, a AxisConfig) error {
		return n.driver.DisableTorque(ctx, a.ID)
	})
}

// Center commands both axes to neutral. Both are attempted even if the
// first one fails.
func (n *Neck) Center(ctx context.Context) error {
	yaw, pitch := n.Neutral()
	first := true
	return n.each(func(name AxisName, a AxisConfig) error {
		if !first {
			time.Sleep(n.Gap)
		}
		first = false
		if name == Yaw {
			return n.driver.SetPosition(ctx, a.ID, yaw)
		}
		return n.driver.SetPosition(ctx, a.ID, pitch)
	})
}

// Move sends device angles, yaw first. It stops at the first failure.
func (n *Neck) Move(ctx context.Context, yaw, pitch float64) error {
	if err := n.driver.SetPosition(ctx, n.yaw.ID, yaw); err != nil {
		return fmt.Errorf("yaw: %w", err)
	}
	time.Sleep(n.Gap)
	if err := n.driver.SetPosition(ctx, n.pitch.ID, pitch); err != nil {
		return fmt.Errorf("pitch: %w", err)
	}
	return nil
}

// ReadPositions reads the current device angle of each axis.
// Axes that could not be read are missing from the result.
func (n *Neck) ReadPositions(ctx context.Context) map[AxisName]float64 {
	positions := make(map[AxisName]float64, 2)
	for _, name := range AllAxes() {
		a := n.axis(name)
		if deg, ok := n.driver.ReadPosition(ctx, a.ID); ok {
			positions[name] = deg
		}
	}
	return positions
}

// Calibrate records the current pose as the new zero.
func (n *Neck) Calibrate(ctx context.Context, store *CalibrationStore) (Offset, error) {
	off, err := Calibrate(ctx, n.driver, n.yaw, n.pitch, store)
	n.offset = off
	return off, err
}

// Close closes the driver.
func (n *Neck) Close() error {
	return n.driver.Close()
}

func (n *Neck) axis(name AxisName) AxisConfig {
	if name == Pitch {
		return n.pitch
	}
	return n.yaw
}

// each runs fn for every axis. A failure or panic on one axis does not
// stop the others.
func (n *Neck) each(fn func(AxisName, AxisConfig) error) error {
	var errs []error
	for _, name := range AllAxes() {
		if err := n.call(name, fn); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (n *Neck) call(name AxisName, fn func(AxisName, AxisConfig) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDriverPanic, r)
		}
	}()
	return fn(name, n.axis(name))
}
