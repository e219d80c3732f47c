package robot

import "testing"

func TestFeetechDegrees(t *testing.T) {
	tests := []struct {
		raw int
		deg float64
	}{
		{2048, 0},
		{3072, 90},
		{1024, -90},
		{0, -180},
	}

	for _, tt := range tests {
		if got := FeetechToDegrees(tt.raw); got != tt.deg {
			t.Errorf("FeetechToDegrees(%d) = %f, want %f", tt.raw, got, tt.deg)
		}
		if got := FeetechFromDegrees(tt.deg); got != tt.raw {
			t.Errorf("FeetechFromDegrees(%f) = %d, want %d", tt.deg, got, tt.raw)
		}
	}
}

func TestFeetechFromDegrees_Clamps(t *testing.T) {
	if got := FeetechFromDegrees(400); got != 4095 {
		t.Errorf("FeetechFromDegrees(400) = %d, want 4095", got)
	}
	if got := FeetechFromDegrees(-400); got != 0 {
		t.Errorf("FeetechFromDegrees(-400) = %d, want 0", got)
	}
}
