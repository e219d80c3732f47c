package bus

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gwillem/neck/internal/log"
)

var (
	// ErrOpen is returned when the serial line cannot be opened. It is fatal:
	// nothing that depends on the bus may start.
	ErrOpen = errors.New("bus: open failed")

	// ErrClosed is returned by any operation on a closed bus.
	ErrClosed = errors.New("bus: closed")
)

// Bus is a shared half-duplex line. Every exported method holds the bus lock
// for its full duration, so a request and its response are never interleaved
// with another command.
type Bus struct {
	mu     sync.Mutex
	port   Port
	path   string
	closed bool
	logger *slog.Logger
}

// Open opens the serial device at path.
func Open(path string, opts Options) (*Bus, error) {
	return OpenWith(SerialOpener, path, opts)
}

// OpenWith opens path using opener.
func OpenWith(opener Opener, path string, opts Options) (*Bus, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}

	port, err := opener(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %s: set read timeout: %w", ErrOpen, path, err)
	}

	b := New(port)
	b.path = path
	b.logger.Info("bus opened", "path", path, "baud", opts.BaudRate, "read_timeout", opts.ReadTimeout)
	return b, nil
}

// New wraps an already open port.
func New(port Port) *Bus {
	return &Bus{
		port:   port,
		logger: log.With("component", "bus"),
	}
}

// Send writes a frame that expects no response.
func (b *Bus) Send(frame []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	return b.write(frame)
}

// Exchange clears both buffers, writes frame, waits for the device to answer
// and reads up to n bytes. Fewer than n bytes is not an error; callers decide
// whether the response is usable.
func (b *Bus) Exchange(frame []byte, wait time.Duration, n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if err := b.flush(); err != nil {
		return nil, err
	}
	if err := b.write(frame); err != nil {
		return nil, err
	}
	if wait > 0 {
		time.Sleep(wait)
	}
	return b.read(n)
}

// Read reads up to n bytes, returning early when the port read times out.
func (b *Bus) Read(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	return b.read(n)
}

// Flush discards anything pending in the input and output buffers.
func (b *Bus) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	return b.flush()
}

// Close closes the port. Calling it more than once is harmless.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", b.path, err)
	}
	b.logger.Info("bus closed", "path", b.path)
	return nil
}

func (b *Bus) write(frame []byte) error {
	n, err := b.port.Write(frame)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("write: %w (%d of %d bytes)", io.ErrShortWrite, n, len(frame))
	}
	return nil
}

func (b *Bus) read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		k, err := b.port.Read(buf[got:])
		got += k
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return buf[:got], fmt.Errorf("read: %w", err)
		}
		// go.bug.st/serial reports a timeout as a zero-length read
		if k == 0 {
			break
		}
	}
	return buf[:got], nil
}

func (b *Bus) flush() error {
	if err := b.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input: %w", err)
	}
	if err := b.port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("reset output: %w", err)
	}
	return nil
}
