// Package b3m speaks the Kondo B3M serial servo protocol.
//
// Every frame starts with its own length and ends with an 8-bit additive
// checksum over all preceding bytes.
package b3m

import (
	"encoding/binary"
	"errors"
	"math"
)

// Command codes.
const (
	CmdRead     = 0x03
	CmdWrite    = 0x04
	CmdPosition = 0x06
)

// Register addresses.
const (
	RegServoMode = 0x28

	// RegTargetPosition holds the last commanded target. Reading it tells
	// you nothing about where the horn actually is; read RegCurrentPosition.
	RegTargetPosition  = 0x2A
	RegCurrentPosition = 0x2C
)

// Frame lengths.
const (
	TorqueModeLen   = 8
	SetPositionLen  = 9
	ReadPositionLen = 7

	// MinResponseLen is the shortest usable read response.
	MinResponseLen = 7
)

// ErrShortResponse is returned when a read response is too short to carry a position.
var ErrShortResponse = errors.New("b3m: short response")

// TorqueMode is the servo power state written to RegServoMode.
type TorqueMode byte

const (
	// TorqueNormal holds position.
	TorqueNormal TorqueMode = 0x00
	// TorqueFree leaves the output compliant.
	TorqueFree TorqueMode = 0x02
)

func (m TorqueMode) String() string {
	switch m {
	case TorqueNormal:
		return "normal"
	case TorqueFree:
		return "free"
	default:
		return "unknown"
	}
}

// Checksum is the sum of b, mod 256.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

func seal(frame []byte) []byte {
	return append(frame, Checksum(frame))
}

// EncodeTorqueMode builds the 8-byte write that switches id into mode.
func EncodeTorqueMode(id uint8, mode TorqueMode) []byte {
	return seal([]byte{TorqueModeLen, CmdWrite, 0x00, id, byte(mode), RegServoMode, 0x01})
}

// EncodeSetPosition builds the 9-byte position command. raw is in 0.01°
// units; move time is zero (as fast as possible).
func EncodeSetPosition(id uint8, raw int16) []byte {
	f := []byte{SetPositionLen, CmdPosition, 0x00, id, 0, 0, 0x00, 0x00}
	binary.LittleEndian.PutUint16(f[4:6], uint16(raw))
	return seal(f)
}

// EncodeReadPosition builds the 7-byte request for the two bytes at RegCurrentPosition.
func EncodeReadPosition(id uint8) []byte {
	return seal([]byte{ReadPositionLen, CmdRead, 0x00, id, RegCurrentPosition, 0x02})
}

// DecodeReadResponse extracts the position from a read response.
// Anything past the checksum byte at offset 6 is ignored.
func DecodeReadResponse(b []byte) (int16, error) {
	if len(b) < MinResponseLen {
		return 0, ErrShortResponse
	}
	return int16(binary.LittleEndian.Uint16(b[4:6])), nil
}

// DegreesToRaw converts degrees to 0.01° units, rounding to the nearest
// step and saturating at the int16 range.
func DegreesToRaw(deg float64) int16 {
	v := math.Round(deg * 100)
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// RawToDegrees converts 0.01° units to degrees.
func RawToDegrees(raw int16) float64 {
	return float64(raw) / 100
}
