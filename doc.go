// Package neck drives a two-axis (yaw/pitch) robot neck built from serial
// bus servos.
//
// A fixed-rate control loop polls a pose source (a VR headset stream over
// WebSocket, a Redis key, or a synthetic signal), applies the rig's axis
// mapping and calibration offset, and commands Kondo B3M servos over a
// shared half-duplex serial line. Feetech STS servos are supported as an
// alternate driver. Whatever stops the loop, the head is recentered and
// released before the port is closed.
//
// # Installation
//
//	go install github.com/gwillem/neck/cmd/neck@latest
//
// # Usage
//
// Find the servos and pick a rig layout:
//
//	neck setup
//
// Hold the head straight and record that pose as zero:
//
//	neck calibrate
//
// Then start the control loop:
//
//	neck run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/neck: CLI with setup, calibrate, run and info commands
//   - pkg/bus: serial transport with single-writer discipline
//   - pkg/b3m: B3M frame codec and servo command set
//   - pkg/robot: axis model, calibration, configuration and drivers
//   - pkg/pose: pose sources
//   - pkg/teleop: control loop
package neck
