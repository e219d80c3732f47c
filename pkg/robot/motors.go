// Package robot models the two-axis neck: axis limits, calibration and the
// servo drivers that move it.
package robot

// AxisName identifies an axis of the neck.
type AxisName string

// Axis names.
const (
	Yaw   AxisName = "yaw"
	Pitch AxisName = "pitch"
)

// AllAxes returns all axis names in command order (yaw first).
func AllAxes() []AxisName {
	return []AxisName{
		Yaw,
		Pitch,
	}
}
