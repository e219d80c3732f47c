package robot

import (
	"fmt"
	"math"
)

// AxisConfig describes one axis in device space. It never changes while a
// controller is running.
type AxisConfig struct {
	ID        uint8   `json:"id"`
	MinDeg    float64 `json:"min_deg"`
	MaxDeg    float64 `json:"max_deg"`
	CenterDeg float64 `json:"center_deg"`

	// Sign maps the input direction onto the servo direction: +1 or -1.
	// Rigs disagree on whether pitch-up is positive, so it is set per rig.
	Sign float64 `json:"sign"`

	// Scale multiplies the input angle before mapping. Zero means 1.
	Scale float64 `json:"scale,omitempty"`
}

// Validate checks the axis invariants.
func (a AxisConfig) Validate() error {
	if a.MinDeg > a.CenterDeg || a.CenterDeg > a.MaxDeg {
		return fmt.Errorf("axis %d: need min <= center <= max, got %v <= %v <= %v",
			a.ID, a.MinDeg, a.CenterDeg, a.MaxDeg)
	}
	if a.Sign != 1 && a.Sign != -1 {
		return fmt.Errorf("axis %d: sign must be +1 or -1, got %v", a.ID, a.Sign)
	}
	if a.Scale < 0 {
		return fmt.Errorf("axis %d: scale must not be negative, got %v", a.ID, a.Scale)
	}
	return nil
}

// Map converts an input angle into a device angle:
//
//	clamp(center + offset + sign*scale*input, min, max)
//
// Out-of-range targets are clamped, never rejected.
func (a AxisConfig) Map(input, offset float64) float64 {
	scale := a.Scale
	if scale == 0 {
		scale = 1
	}
	return a.Clamp(a.CenterDeg + offset + a.Sign*scale*input)
}

// Neutral is the device angle for a zero input.
func (a AxisConfig) Neutral(offset float64) float64 {
	return a.Map(0, offset)
}

// Clamp limits deg to [MinDeg, MaxDeg].
func (a AxisConfig) Clamp(deg float64) float64 {
	if math.IsNaN(deg) {
		return a.CenterDeg
	}
	return math.Max(a.MinDeg, math.Min(a.MaxDeg, deg))
}
