package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gwillem/neck/pkg/pose"
)

const DefaultConfigFile = "neck.json"

// PortEnv overrides the configured serial port when set.
const PortEnv = "NECK_PORT"

// Config holds the neck configuration for one rig.
type Config struct {
	Driver          string  `json:"driver,omitempty"`
	Port            string  `json:"port"`
	BaudRate        int     `json:"baud_rate,omitempty"`
	Hz              int     `json:"hz"`
	Deadband        float64 `json:"deadband_deg"`
	CalibrationFile string  `json:"calibration_file,omitempty"`

	Yaw   AxisConfig `json:"yaw"`
	Pitch AxisConfig `json:"pitch"`

	Source pose.Config `json:"source"`
}

// Validate checks both axes and that they are distinct on the bus.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Yaw.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("yaw: %w", err))
	}
	if err := c.Pitch.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pitch: %w", err))
	}
	if c.Yaw.ID == c.Pitch.ID {
		errs = append(errs, fmt.Errorf("yaw and pitch share servo id %d", c.Yaw.ID))
	}
	if c.Hz <= 0 {
		errs = append(errs, fmt.Errorf("hz must be positive, got %d", c.Hz))
	}
	if c.Deadband < 0 {
		errs = append(errs, fmt.Errorf("deadband must not be negative, got %v", c.Deadband))
	}
	return errors.Join(errs...)
}

// Axis returns the configuration for name.
func (c *Config) Axis(name AxisName) AxisConfig {
	if name == Pitch {
		return c.Pitch
	}
	return c.Yaw
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if port := os.Getenv(PortEnv); port != "" {
		cfg.Port = port
	}
	if cfg.CalibrationFile == "" {
		cfg.CalibrationFile = DefaultCalibrationFile
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}

// Preset names.
const (
	PresetTwist2 = "twist2"
	PresetRedis  = "redis"
	PresetHead   = "head"
)

// Presets returns the known rig layouts by name.
func Presets() map[string]Config {
	return map[string]Config{
		// VR headset drives a centre-zero neck; both directions inverted.
		PresetTwist2: {
			Driver:   DriverB3M,
			Hz:       100,
			Deadband: 0.5,
			Yaw:      AxisConfig{ID: 0, MinDeg: -80, MaxDeg: 80, CenterDeg: 0, Sign: -1, Scale: 1.5},
			Pitch:    AxisConfig{ID: 1, MinDeg: -60, MaxDeg: 60, CenterDeg: 0, Sign: -1, Scale: 1.5},
			Source:   pose.Config{Kind: pose.KindWebSocket},
		},
		// Neck angles arrive over Redis from the teleop PC.
		PresetRedis: {
			Driver:   DriverB3M,
			Hz:       50,
			Deadband: 0.5,
			Yaw:      AxisConfig{ID: 0, MinDeg: -80, MaxDeg: 80, CenterDeg: 0, Sign: 1},
			Pitch:    AxisConfig{ID: 1, MinDeg: -60, MaxDeg: 60, CenterDeg: 0, Sign: 1},
			Source:   pose.Config{Kind: pose.KindRedis},
		},
		// Head mount with servos zeroed at one end of travel.
		PresetHead: {
			Driver:   DriverB3M,
			Hz:       100,
			Deadband: 0.01,
			Yaw:      AxisConfig{ID: 0, MinDeg: 10, MaxDeg: 150, CenterDeg: 90, Sign: 1},
			Pitch:    AxisConfig{ID: 1, MinDeg: 8, MaxDeg: 125, CenterDeg: 60, Sign: -1},
			Source:   pose.Config{Kind: pose.KindWebSocket},
		},
	}
}

// PresetNames returns the preset names in a stable order.
func PresetNames() []string {
	return []string{PresetTwist2, PresetRedis, PresetHead}
}
