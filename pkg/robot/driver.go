package robot

import (
	"context"
	"fmt"

	"github.com/gwillem/neck/pkg/b3m"
	"github.com/gwillem/neck/pkg/bus"
)

// Driver is a servo family on one bus, addressed by servo id and degrees.
type Driver interface {
	PositionReader
	EnableTorque(ctx context.Context, id uint8) error
	DisableTorque(ctx context.Context, id uint8) error
	SetPosition(ctx context.Context, id uint8, deg float64) error
	Close() error
}

// Supported driver names.
const (
	DriverB3M     = "b3m"
	DriverFeetech = "feetech"
)

var _ Driver = (*b3m.Servos)(nil)

// OpenDriver opens the bus described by cfg. Failure here is fatal to
// anything that would move the neck.
func OpenDriver(cfg *Config) (Driver, error) {
	switch cfg.Driver {
	case "", DriverB3M:
		return b3m.Open(cfg.Port, bus.Options{BaudRate: cfg.BaudRate})
	case DriverFeetech:
		return OpenFeetech(cfg.Port, cfg.BaudRate)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
