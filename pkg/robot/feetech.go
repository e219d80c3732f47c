package robot

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/neck/internal/log"
)

// Feetech STS servos report 4096 steps per turn with 2048 at the middle of travel.
const (
	feetechStepsPerRev = 4096
	feetechCenter      = 2048
	feetechBaudRate    = 1_000_000
)

// FeetechDriver drives a neck built from Feetech STS servos.
type FeetechDriver struct {
	bus *feetech.Bus

	mu     sync.Mutex
	groups map[uint8]*feetech.ServoGroup
}

var _ Driver = (*FeetechDriver)(nil)

// OpenFeetech opens a Feetech bus on port.
func OpenFeetech(port string, baud int) (*FeetechDriver, error) {
	if baud <= 0 {
		baud = feetechBaudRate
	}
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	log.Info("feetech bus opened", "port", port, "baud", baud)
	return &FeetechDriver{
		bus:    bus,
		groups: make(map[uint8]*feetech.ServoGroup),
	}, nil
}

func (d *FeetechDriver) group(id uint8) *feetech.ServoGroup {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.groups[id]
	if !ok {
		g = feetech.NewServoGroupByIDs(d.bus, int(id))
		d.groups[id] = g
	}
	return g
}

// EnableTorque implements Driver.
func (d *FeetechDriver) EnableTorque(ctx context.Context, id uint8) error {
	if err := d.group(id).EnableAll(ctx); err != nil {
		return fmt.Errorf("enable torque %d: %w", id, err)
	}
	return nil
}

// DisableTorque implements Driver.
func (d *FeetechDriver) DisableTorque(ctx context.Context, id uint8) error {
	if err := d.group(id).DisableAll(ctx); err != nil {
		return fmt.Errorf("disable torque %d: %w", id, err)
	}
	return nil
}

// SetPosition implements Driver.
func (d *FeetechDriver) SetPosition(ctx context.Context, id uint8, deg float64) error {
	positions := feetech.PositionMap{int(id): FeetechFromDegrees(deg)}
	if err := d.group(id).SetPositions(ctx, positions); err != nil {
		return fmt.Errorf("set position %d: %w", id, err)
	}
	return nil
}

// ReadPosition implements Driver.
func (d *FeetechDriver) ReadPosition(ctx context.Context, id uint8) (float64, bool) {
	positions, err := d.group(id).Positions(ctx)
	if err != nil {
		log.Warn("read position failed", "id", id, "error", err)
		return 0, false
	}
	raw, ok := positions[int(id)]
	if !ok {
		log.Warn("read position failed", "id", id, "error", "no reply")
		return 0, false
	}
	return FeetechToDegrees(raw), true
}

// Close closes the bus.
func (d *FeetechDriver) Close() error {
	return d.bus.Close()
}

// FeetechToDegrees converts a raw STS position to degrees from center.
func FeetechToDegrees(raw int) float64 {
	return float64(raw-feetechCenter) * 360 / feetechStepsPerRev
}

// FeetechFromDegrees converts degrees from center to a raw STS position,
// clamped to one turn.
func FeetechFromDegrees(deg float64) int {
	raw := int(math.Round(deg*feetechStepsPerRev/360)) + feetechCenter
	return max(0, min(feetechStepsPerRev-1, raw))
}
