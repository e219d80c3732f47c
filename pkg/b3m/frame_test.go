package b3m

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeTorqueMode(t *testing.T) {
	tests := []struct {
		id   uint8
		mode TorqueMode
		want []byte
	}{
		{0, TorqueFree, []byte{0x08, 0x04, 0x00, 0x00, 0x02, 0x28, 0x01, 0x37}},
		{0, TorqueNormal, []byte{0x08, 0x04, 0x00, 0x00, 0x00, 0x28, 0x01, 0x35}},
		{1, TorqueFree, []byte{0x08, 0x04, 0x00, 0x01, 0x02, 0x28, 0x01, 0x38}},
	}

	for _, tt := range tests {
		got := EncodeTorqueMode(tt.id, tt.mode)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("EncodeTorqueMode(%d, %s) mismatch (-want +got):\n%s", tt.id, tt.mode, diff)
		}
	}
}

func TestEncodeSetPosition(t *testing.T) {
	tests := []struct {
		id   uint8
		raw  int16
		want []byte
	}{
		// 9+6+0x40+0x1F = 110
		{0, 8000, []byte{9, 6, 0, 0, 0x40, 0x1F, 0, 0, 110}},
		{1, 0, []byte{9, 6, 0, 1, 0, 0, 0, 0, 16}},
		// -8000 = 0xE0C0
		{0, -8000, []byte{9, 6, 0, 0, 0xC0, 0xE0, 0, 0, 0xAF}},
		{1, 3000, []byte{9, 6, 0, 1, 0xB8, 0x0B, 0, 0, 0xD3}},
	}

	for _, tt := range tests {
		got := EncodeSetPosition(tt.id, tt.raw)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("EncodeSetPosition(%d, %d) mismatch (-want +got):\n%s", tt.id, tt.raw, diff)
		}
	}
}

func TestEncodeReadPosition(t *testing.T) {
	got := EncodeReadPosition(1)
	want := []byte{7, 3, 0, 1, 44, 2, 57}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EncodeReadPosition(1) mismatch (-want +got):\n%s", diff)
	}
	if got[4] == RegTargetPosition {
		t.Error("read request must address the current-position register")
	}
}

func TestChecksumProperty(t *testing.T) {
	var frames [][]byte
	for id := 0; id < 256; id++ {
		frames = append(frames,
			EncodeTorqueMode(uint8(id), TorqueFree),
			EncodeTorqueMode(uint8(id), TorqueNormal),
			EncodeReadPosition(uint8(id)),
		)
		for _, raw := range []int16{-8000, -1, 0, 1, 1234, 8000} {
			frames = append(frames, EncodeSetPosition(uint8(id), raw))
		}
	}

	for _, f := range frames {
		var sum int
		for _, b := range f[:len(f)-1] {
			sum += int(b)
		}
		if f[len(f)-1] != byte(sum%256) {
			t.Fatalf("frame % x: checksum %#x, want %#x", f, f[len(f)-1], sum%256)
		}
		if int(f[0]) != len(f) {
			t.Fatalf("frame % x: size byte %d, len %d", f, f[0], len(f))
		}
	}
}

func TestDecodeReadResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    []byte
		want    int16
		wantErr error
	}{
		{"positive", []byte{0x07, 0x83, 0x00, 0x00, 0xB8, 0x0B, 0x4D}, 3000, nil},
		{"negative", []byte{0x07, 0x83, 0x00, 0x01, 0x18, 0xFC, 0x9F}, -1000, nil},
		{"padded", []byte{0x07, 0x83, 0x00, 0x00, 0x01, 0x00, 0x8B, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, 1, nil},
		{"short", []byte{0x07, 0x83, 0x00, 0x00, 0xB8, 0x0B}, 0, ErrShortResponse},
		{"empty", nil, 0, ErrShortResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeReadResponse(tt.resp)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeReadResponse() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DecodeReadResponse() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPositionRoundTrip(t *testing.T) {
	for deg := -80.0; deg <= 80.0; deg += 0.37 {
		frame := EncodeSetPosition(0, DegreesToRaw(deg))
		// A read response carries the position at the same offsets.
		raw, err := DecodeReadResponse(frame)
		if err != nil {
			t.Fatalf("decode %v: %v", deg, err)
		}
		if back := RawToDegrees(raw); math.Abs(back-deg) > 0.01 {
			t.Errorf("round trip %v -> %v", deg, back)
		}
	}
}

func TestDegreesToRaw(t *testing.T) {
	tests := []struct {
		deg  float64
		want int16
	}{
		{0, 0},
		{0.29, 29},
		{-12.34, -1234},
		{80, 8000},
		{1000, math.MaxInt16},
		{-1000, math.MinInt16},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := DegreesToRaw(tt.deg); got != tt.want {
			t.Errorf("DegreesToRaw(%v) = %d, want %d", tt.deg, got, tt.want)
		}
	}
}
