package pose

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/neck/internal/log"
)

func TestStatic(t *testing.T) {
	s, err := Static{Yaw: 10, Pitch: -5}.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.Yaw)
	assert.Equal(t, -5.0, s.Pitch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Static{}.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunc(t *testing.T) {
	var src Source = Func(func(ctx context.Context) (Sample, error) {
		return Sample{}, ErrNoData
	})
	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSweep_At(t *testing.T) {
	s := NewSweep(30, 20, 4*time.Second)

	tests := []struct {
		d     time.Duration
		yaw   float64
		pitch float64
	}{
		{0, 0, 0},
		{time.Second, 30, 20 * math.Sin(math.Pi/4)},
		{2 * time.Second, 0, 20},
		{3 * time.Second, -30, 20 * math.Sin(3*math.Pi/4)},
	}

	for _, tt := range tests {
		got := s.At(tt.d)
		if math.Abs(got.Yaw-tt.yaw) > 1e-9 || math.Abs(got.Pitch-tt.pitch) > 1e-9 {
			t.Errorf("At(%v) = (%f, %f), want (%f, %f)", tt.d, got.Yaw, got.Pitch, tt.yaw, tt.pitch)
		}
	}
}

func TestSweep_StaysWithinAmplitude(t *testing.T) {
	s := NewSweep(30, 20, 0)
	assert.Equal(t, DefaultSweepPeriod, s.Period)

	for d := time.Duration(0); d < 10*time.Second; d += 37 * time.Millisecond {
		got := s.At(d)
		if math.Abs(got.Yaw) > 30+1e-9 || math.Abs(got.Pitch) > 20+1e-9 {
			t.Fatalf("At(%v) = (%f, %f) exceeds amplitude", d, got.Yaw, got.Pitch)
		}
	}
}

func TestParseRadians(t *testing.T) {
	s, err := ParseRadians([]byte(`[0.5235987755982988, -0.17453292519943295]`))
	require.NoError(t, err)
	assert.InDelta(t, 30.0, s.Yaw, 1e-9)
	assert.InDelta(t, -10.0, s.Pitch, 1e-9)

	bad := []string{``, `{}`, `[1]`, `["a", "b"]`, `null`}
	for _, in := range bad {
		_, err := ParseRadians([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	src, closer, err := New(ctx, Config{Kind: KindStatic, Yaw: 1}, log.Discard())
	require.NoError(t, err)
	assert.IsType(t, Static{}, src)
	assert.NoError(t, closer.Close())

	src, closer, err = New(ctx, Config{Kind: KindSweep, Yaw: 1}, log.Discard())
	require.NoError(t, err)
	assert.IsType(t, &Sweep{}, src)
	assert.NoError(t, closer.Close())

	src, closer, err = New(ctx, Config{Kind: KindRedis}, log.Discard())
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, src)
	assert.NoError(t, closer.Close())

	_, _, err = New(ctx, Config{Kind: "carrier-pigeon"}, log.Discard())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoData))
}
