// Package pose supplies the desired head orientation to the control loop.
//
// A Source reports input-space angles in degrees. Sources may be polled
// (Redis), pushed (WebSocket) or synthetic (Static, Sweep).
package pose

import (
	"context"
	"errors"
	"time"
)

// ErrNoData means no fresh sample is available. The caller skips the update.
var ErrNoData = errors.New("no pose data")

// Sample is one desired orientation in input space, in degrees.
type Sample struct {
	Yaw   float64
	Pitch float64
	Time  time.Time
}

// Source yields the latest desired orientation.
type Source interface {
	Next(ctx context.Context) (Sample, error)
}

// Func adapts a function to a Source.
type Func func(ctx context.Context) (Sample, error)

// Next implements Source.
func (f Func) Next(ctx context.Context) (Sample, error) {
	return f(ctx)
}
