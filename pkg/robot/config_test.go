package robot

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets_Valid(t *testing.T) {
	presets := Presets()
	require.Len(t, presets, len(PresetNames()))

	for _, name := range PresetNames() {
		cfg, ok := presets[name]
		require.True(t, ok, "preset %q missing", name)
		cfg.Port = "/dev/null"
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := Presets()[PresetTwist2]

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"shared id", func(c *Config) { c.Pitch.ID = c.Yaw.ID }},
		{"zero hz", func(c *Config) { c.Hz = 0 }},
		{"negative deadband", func(c *Config) { c.Deadband = -1 }},
		{"bad yaw", func(c *Config) { c.Yaw.Sign = 0 }},
		{"bad pitch range", func(c *Config) { c.Pitch.MinDeg = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv(PortEnv, "")
	path := filepath.Join(t.TempDir(), "neck.json")

	cfg := Presets()[PresetHead]
	cfg.Port = "/dev/ttyUSB0"
	cfg.CalibrationFile = "cal.txt"
	require.NoError(t, cfg.SaveTo(path))

	got, err := LoadConfigFrom(path)
	require.NoError(t, err)
	if diff := cmp.Diff(&cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_LoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neck.json")
	cfg := Presets()[PresetRedis]
	cfg.Port = "/dev/ttyUSB0"
	require.NoError(t, cfg.SaveTo(path))

	t.Setenv(PortEnv, "/dev/ttyACM3")
	got, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM3", got.Port)
	assert.Equal(t, DefaultCalibrationFile, got.CalibrationFile)
}

func TestConfig_Axis(t *testing.T) {
	cfg := Presets()[PresetHead]
	assert.Equal(t, cfg.Yaw, cfg.Axis(Yaw))
	assert.Equal(t, cfg.Pitch, cfg.Axis(Pitch))
}
