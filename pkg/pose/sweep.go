package pose

import (
	"context"
	"math"
	"time"
)

// DefaultSweepPeriod is the time for one full yaw oscillation.
const DefaultSweepPeriod = 4 * time.Second

// Sweep moves both axes along a sinusoid. Pitch runs at half the yaw
// frequency so the head traces a figure eight. Useful for bench testing a
// rig without an operator.
type Sweep struct {
	Yaw    float64 // amplitude, degrees
	Pitch  float64 // amplitude, degrees
	Period time.Duration

	start time.Time
	now   func() time.Time
}

// NewSweep returns a sweep starting now.
func NewSweep(yaw, pitch float64, period time.Duration) *Sweep {
	if period <= 0 {
		period = DefaultSweepPeriod
	}
	return &Sweep{
		Yaw:    yaw,
		Pitch:  pitch,
		Period: period,
		start:  time.Now(),
		now:    time.Now,
	}
}

// At returns the sample at elapsed time d after the start.
func (s *Sweep) At(d time.Duration) Sample {
	phase := 2 * math.Pi * d.Seconds() / s.Period.Seconds()
	return Sample{
		Yaw:   s.Yaw * math.Sin(phase),
		Pitch: s.Pitch * math.Sin(phase/2),
		Time:  s.start.Add(d),
	}
}

// Next implements Source.
func (s *Sweep) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	if s.now == nil {
		s.start, s.now = time.Now(), time.Now
	}
	return s.At(s.now().Sub(s.start)), nil
}
