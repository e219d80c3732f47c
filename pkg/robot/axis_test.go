package robot

import (
	"math"
	"testing"
)

func TestAxisConfig_Map(t *testing.T) {
	yaw := AxisConfig{ID: 0, MinDeg: 10, MaxDeg: 150, CenterDeg: 90, Sign: 1}
	pitch := AxisConfig{ID: 1, MinDeg: 8, MaxDeg: 125, CenterDeg: 60, Sign: -1}
	scaled := AxisConfig{ID: 0, MinDeg: -80, MaxDeg: 80, CenterDeg: 0, Sign: -1, Scale: 1.5}

	tests := []struct {
		name   string
		axis   AxisConfig
		input  float64
		offset float64
		want   float64
	}{
		{"yaw center", yaw, 0, 0, 90},
		{"yaw right", yaw, 30, 0, 120},
		{"yaw clamp high", yaw, 200, 0, 150},
		{"yaw clamp low", yaw, -200, 0, 10},
		{"pitch inverted", pitch, 20, 0, 40},
		{"pitch clamp", pitch, -100, 0, 125},
		{"offset shifts", yaw, 10, 5, 105},
		{"scaled inverted", scaled, 10, 0, -15},
		{"scaled clamp", scaled, 100, 0, -80},
		{"scaled with offset", scaled, 10, 2.5, -12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.axis.Map(tt.input, tt.offset)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Map(%v, %v) = %v, want %v", tt.input, tt.offset, got, tt.want)
			}
		})
	}
}

func TestAxisConfig_MapStaysInRange(t *testing.T) {
	a := AxisConfig{MinDeg: -60, MaxDeg: 60, Sign: 1}
	for in := -500.0; in <= 500; in += 7.3 {
		got := a.Map(in, 0)
		if got < a.MinDeg || got > a.MaxDeg {
			t.Fatalf("Map(%v) = %v escapes [%v, %v]", in, got, a.MinDeg, a.MaxDeg)
		}
	}
	if got := a.Map(math.NaN(), 0); got != a.CenterDeg {
		t.Errorf("Map(NaN) = %v, want center", got)
	}
}

func TestAxisConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		axis    AxisConfig
		wantErr bool
	}{
		{"ok", AxisConfig{MinDeg: -80, MaxDeg: 80, Sign: 1}, false},
		{"ok inverted", AxisConfig{MinDeg: 10, MaxDeg: 150, CenterDeg: 90, Sign: -1}, false},
		{"center below min", AxisConfig{MinDeg: 10, MaxDeg: 150, CenterDeg: 0, Sign: 1}, true},
		{"center above max", AxisConfig{MinDeg: -10, MaxDeg: 10, CenterDeg: 20, Sign: 1}, true},
		{"zero sign", AxisConfig{MinDeg: -10, MaxDeg: 10}, true},
		{"bad sign", AxisConfig{MinDeg: -10, MaxDeg: 10, Sign: 2}, true},
		{"negative scale", AxisConfig{MinDeg: -10, MaxDeg: 10, Sign: 1, Scale: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.axis.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// Sign conventions differ between rigs and none is documented as correct;
// these pin what each preset does so a change is deliberate.
func TestPresets_SignConventions(t *testing.T) {
	tests := []struct {
		preset    string
		yawSign   float64
		pitchSign float64
	}{
		{PresetTwist2, -1, -1},
		{PresetRedis, 1, 1},
		{PresetHead, 1, -1},
	}

	presets := Presets()
	for _, tt := range tests {
		cfg, ok := presets[tt.preset]
		if !ok {
			t.Fatalf("preset %q missing", tt.preset)
		}
		if cfg.Yaw.Sign != tt.yawSign || cfg.Pitch.Sign != tt.pitchSign {
			t.Errorf("%s: signs = (%v, %v), want (%v, %v)",
				tt.preset, cfg.Yaw.Sign, cfg.Pitch.Sign, tt.yawSign, tt.pitchSign)
		}
	}
}
