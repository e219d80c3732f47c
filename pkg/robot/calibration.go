package robot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gwillem/neck/internal/log"
)

// DefaultCalibrationFile is where offsets live unless configured otherwise.
const DefaultCalibrationFile = "b3m_calibration.txt"

// ErrCalibrationFailed is returned when an axis position could not be read.
var ErrCalibrationFailed = errors.New("calibration failed")

// Offset is the learned zero-point correction per axis, in degrees.
type Offset struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// OffsetLoader supplies calibration offsets.
type OffsetLoader interface {
	Load() Offset
}

// PositionReader reads the current device angle of a servo.
type PositionReader interface {
	ReadPosition(ctx context.Context, id uint8) (float64, bool)
}

// CalibrationStore persists an Offset as two lines of decimal text,
// yaw first.
type CalibrationStore struct {
	path   string
	logger *slog.Logger
}

// NewCalibrationStore returns a store backed by path.
func NewCalibrationStore(path string) *CalibrationStore {
	if path == "" {
		path = DefaultCalibrationFile
	}
	return &CalibrationStore{
		path:   path,
		logger: log.With("component", "calibration", "path", path),
	}
}

// Path returns the backing file.
func (s *CalibrationStore) Path() string {
	return s.path
}

// Load reads the stored offset. A missing or malformed file yields a zero
// offset; the reason is logged.
func (s *CalibrationStore) Load() Offset {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("no calibration file, using zero offset")
		return Offset{}
	}
	if err != nil {
		s.logger.Info("calibration file unreadable, using zero offset", "error", err)
		return Offset{}
	}

	off, err := ParseOffset(string(data))
	if err != nil {
		s.logger.Info("calibration file malformed, using zero offset", "error", err)
		return Offset{}
	}

	s.logger.Info("calibration loaded", "yaw_offset", off.Yaw, "pitch_offset", off.Pitch)
	return off
}

// Save writes off to the backing file. A file that already holds off is
// left untouched, whatever its formatting.
func (s *CalibrationStore) Save(off Offset) error {
	if data, err := os.ReadFile(s.path); err == nil {
		if cur, err := ParseOffset(string(data)); err == nil && cur == off {
			s.logger.Debug("calibration unchanged", "yaw_offset", off.Yaw, "pitch_offset", off.Pitch)
			return nil
		}
	}
	if err := os.WriteFile(s.path, []byte(FormatOffset(off)), 0644); err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	s.logger.Info("calibration saved", "yaw_offset", off.Yaw, "pitch_offset", off.Pitch)
	return nil
}

// ParseOffset parses the two-line calibration format.
func ParseOffset(text string) (Offset, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return Offset{}, fmt.Errorf("want 2 lines, got %d", len(lines))
	}

	yaw, err := strconv.ParseFloat(strings.TrimSpace(lines[0]), 64)
	if err != nil {
		return Offset{}, fmt.Errorf("yaw offset: %w", err)
	}
	pitch, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return Offset{}, fmt.Errorf("pitch offset: %w", err)
	}
	return Offset{Yaw: yaw, Pitch: pitch}, nil
}

// FormatOffset renders off in the calibration file format, using the
// shortest representation that parses back to the same values. It may
// differ textually from files written elsewhere ("12.0" becomes "12").
func FormatOffset(off Offset) string {
	return strconv.FormatFloat(off.Yaw, 'g', -1, 64) + "\n" +
		strconv.FormatFloat(off.Pitch, 'g', -1, 64) + "\n"
}

// Calibrate reads both axes while the operator holds the mechanism at its
// desired zero and stores the resulting offsets. If either read fails the
// zero offset is returned with ErrCalibrationFailed and nothing is written.
// A failed save is logged; the returned offset is still valid.
func Calibrate(ctx context.Context, r PositionReader, yaw, pitch AxisConfig, store *CalibrationStore) (Offset, error) {
	yawPos, yawOK := r.ReadPosition(ctx, yaw.ID)
	pitchPos, pitchOK := r.ReadPosition(ctx, pitch.ID)
	if !yawOK || !pitchOK {
		return Offset{}, fmt.Errorf("%w: yaw read ok=%t, pitch read ok=%t", ErrCalibrationFailed, yawOK, pitchOK)
	}

	// The offset is relative to the nominal center, so the neutral command
	// lands exactly on the position just read.
	off := Offset{
		Yaw:   yawPos - yaw.CenterDeg,
		Pitch: pitchPos - pitch.CenterDeg,
	}

	if store != nil {
		if err := store.Save(off); err != nil {
			log.Warn("calibration not persisted", "error", err)
		}
	}
	return off, nil
}
