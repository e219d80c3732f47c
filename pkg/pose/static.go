package pose

import (
	"context"
	"time"
)

// Static always returns the same orientation.
type Static struct {
	Yaw   float64
	Pitch float64
}

// Next implements Source.
func (s Static) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	return Sample{Yaw: s.Yaw, Pitch: s.Pitch, Time: time.Now()}, nil
}
