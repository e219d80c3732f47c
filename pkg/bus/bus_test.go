package bus

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWith_SetsReadTimeout(t *testing.T) {
	port := NewTestablePort()

	b, err := OpenWith(port.Opener(), "/dev/ttyUSB0", Options{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, DefaultReadTimeout, port.ReadTimeout)
}

func TestOpenWith_FailureIsErrOpen(t *testing.T) {
	port := NewTestablePort()
	port.OpenError = errors.New("no such device")

	_, err := OpenWith(port.Opener(), "/dev/ttyUSB9", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Contains(t, err.Error(), "/dev/ttyUSB9")
}

func TestOpenWith_InvalidOptions(t *testing.T) {
	port := NewTestablePort()

	_, err := OpenWith(port.Opener(), "/dev/ttyUSB0", Options{Parity: "X"})
	assert.ErrorIs(t, err, ErrOpen)
}

func TestBus_Send(t *testing.T) {
	port := NewTestablePort()
	b := New(port)

	require.NoError(t, b.Send([]byte{1, 2, 3}))
	require.NoError(t, b.Send([]byte{4}))

	want := [][]byte{{1, 2, 3}, {4}}
	if diff := cmp.Diff(want, port.Written()); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestBus_SendShortWrite(t *testing.T) {
	port := NewTestablePort()
	port.ShortWrite = true
	b := New(port)

	err := b.Send([]byte{1, 2, 3})
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestBus_ExchangeFlushesStaleInput(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte{0xEE, 0xEE})
	port.Respond = func(frame []byte) []byte {
		return []byte{0xAA, 0xBB, 0xCC}
	}
	b := New(port)

	resp, err := b.Exchange([]byte{0x01}, 0, 12)
	require.NoError(t, err)

	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, resp)
	assert.Equal(t, 1, port.ResetCalls)
}

func TestBus_ExchangeWaits(t *testing.T) {
	port := NewTestablePort()
	b := New(port)

	start := time.Now()
	_, err := b.Exchange([]byte{0x01}, 20*time.Millisecond, 4)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBus_ReadStopsAtN(t *testing.T) {
	port := NewTestablePort()
	port.AddReadData([]byte{1, 2, 3, 4, 5, 6})
	b := New(port)

	got, err := b.Read(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	got, err = b.Read(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6}, got)
}

func TestBus_ReadError(t *testing.T) {
	port := NewTestablePort()
	port.ReadError = errors.New("device unplugged")
	b := New(port)

	_, err := b.Read(4)
	assert.Error(t, err)
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	port := NewTestablePort()
	b := New(port)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, port.CloseCalls)

	assert.ErrorIs(t, b.Send([]byte{1}), ErrClosed)
	_, err := b.Exchange([]byte{1}, 0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Flush(), ErrClosed)
}
