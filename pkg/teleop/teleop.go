// Package teleop runs the fixed-rate control loop that points the neck at
// whatever a pose source asks for.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gwillem/neck/internal/log"
	"github.com/gwillem/neck/pkg/pose"
	"github.com/gwillem/neck/pkg/robot"
)

// Defaults for zero Config fields.
const (
	DefaultHz         = 100
	DefaultSettleTime = 500 * time.Millisecond
)

var (
	// ErrAlreadyRunning is returned by Run on a controller that has been started.
	ErrAlreadyRunning = errors.New("already running")

	// ErrPanic wraps a panic recovered from the control loop.
	ErrPanic = errors.New("control loop panic")
)

// Phase is the controller lifecycle stage.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitializing
	PhaseRunning
	PhaseShuttingDown
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitializing:
		return "initializing"
	case PhaseRunning:
		return "running"
	case PhaseShuttingDown:
		return "shutting down"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is a snapshot published after every tick.
type State struct {
	Phase Phase

	// Input is the last sample received from the pose source.
	Input pose.Sample

	// Yaw and Pitch are the last device angles commanded successfully.
	Yaw   float64
	Pitch float64

	// Sent reports whether this tick wrote to the bus.
	Sent bool

	Ticks     uint64
	Writes    uint64
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the controller.
type Config struct {
	// Dial opens the servo driver. The controller owns the result and
	// closes it on every exit path.
	Dial func() (robot.Driver, error)

	Yaw   robot.AxisConfig
	Pitch robot.AxisConfig

	// Calibration supplies offsets at startup. Nil means zero offsets.
	Calibration robot.OffsetLoader

	Source pose.Source

	Hz       int
	Deadband float64 // degrees, device space

	// CommandGap separates the yaw and pitch commands. Zero means
	// robot.DefaultCommandGap.
	CommandGap time.Duration

	// SettleTime is the pause between recentering and detorquing on
	// shutdown. Zero means DefaultSettleTime.
	SettleTime time.Duration

	// SourceTimeout bounds one pose poll. Zero means one period.
	SourceTimeout time.Duration

	Logger *slog.Logger
}

// Controller manages the neck control loop.
type Controller struct {
	cfg    Config
	period time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	phase   Phase
	running bool
	stateCh chan State
	logCh   chan string

	// Owned by the Run goroutine.
	neck     *robot.Neck
	state    State
	shutdown sync.Once
}

// NewController creates a controller. Nothing is opened until Run.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Dial == nil {
		return nil, errors.New("teleop: Dial is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("teleop: Source is required")
	}
	if err := cfg.Yaw.Validate(); err != nil {
		return nil, fmt.Errorf("teleop: yaw: %w", err)
	}
	if err := cfg.Pitch.Validate(); err != nil {
		return nil, fmt.Errorf("teleop: pitch: %w", err)
	}
	if cfg.Deadband < 0 {
		return nil, fmt.Errorf("teleop: negative deadband %v", cfg.Deadband)
	}

	if cfg.Hz <= 0 {
		cfg.Hz = DefaultHz
	}
	if cfg.CommandGap <= 0 {
		cfg.CommandGap = robot.DefaultCommandGap
	}
	if cfg.SettleTime <= 0 {
		cfg.SettleTime = DefaultSettleTime
	}
	period := time.Second / time.Duration(cfg.Hz)
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = period
	}

	return &Controller{
		cfg:     cfg,
		period:  period,
		logger:  log.Or(cfg.Logger).With("component", "teleop"),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.cfg.Hz
}

// Phase returns the current lifecycle stage.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	c.state.Phase = p
}

// log mirrors a line to slog and to the Logs channel.
func (c *Controller) log(level slog.Level, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	c.logger.Log(context.Background(), level, text)

	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Run opens the driver and runs the loop until ctx is cancelled. Whatever
// happens after the driver is open, both axes are recentered and detorqued
// and the driver is closed before Run returns. A panic in the loop is
// recovered and returned wrapped in ErrPanic.
func (c *Controller) Run(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	c.setPhase(PhaseInitializing)

	driver, err := c.cfg.Dial()
	if err != nil {
		c.setPhase(PhaseStopped)
		c.log(slog.LevelError, "Open failed: %v", err)
		return fmt.Errorf("open driver: %w", err)
	}

	c.neck = robot.NewNeck(driver, c.cfg.Yaw, c.cfg.Pitch, robot.Offset{})
	c.neck.Gap = c.cfg.CommandGap

	defer func() {
		if r := recover(); r != nil {
			c.log(slog.LevelError, "Control loop panic: %v", r)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		c.stop()
	}()

	var off robot.Offset
	if c.cfg.Calibration != nil {
		off = c.cfg.Calibration.Load()
	}
	c.neck.SetOffset(off)
	c.log(slog.LevelInfo, "Calibration offset: yaw %.2f°, pitch %.2f°", off.Yaw, off.Pitch)

	if err := c.neck.Enable(ctx); err != nil {
		return fmt.Errorf("enable torque: %w", err)
	}
	c.log(slog.LevelInfo, "Torque enabled")

	if err := c.neck.Center(ctx); err != nil {
		return fmt.Errorf("center: %w", err)
	}
	c.state.Yaw, c.state.Pitch = c.neck.Neutral()
	c.log(slog.LevelInfo, "Centered at yaw %.2f°, pitch %.2f°", c.state.Yaw, c.state.Pitch)

	c.setPhase(PhaseRunning)
	c.log(slog.LevelInfo, "Control loop started at %d Hz", c.cfg.Hz)

	for {
		start := time.Now()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.step(ctx)

		if d := c.period - time.Since(start); d > 0 {
			time.Sleep(d)
		}
	}
}

// step runs one sense, compute, command cycle.
func (c *Controller) step(ctx context.Context) {
	c.state.Ticks++
	c.state.Sent = false
	c.state.Error = nil
	c.state.Timestamp = time.Now()

	pollCtx, cancel := context.WithTimeout(ctx, c.cfg.SourceTimeout)
	sample, err := c.cfg.Source.Next(pollCtx)
	cancel()
	if err != nil {
		if !errors.Is(err, pose.ErrNoData) {
			c.logger.Debug("pose unavailable", "error", err)
			c.state.Error = err
		}
		c.sendState(c.state)
		return
	}
	c.state.Input = sample

	yaw, pitch := c.neck.Target(sample.Yaw, sample.Pitch)
	if math.Abs(yaw-c.state.Yaw) <= c.cfg.Deadband && math.Abs(pitch-c.state.Pitch) <= c.cfg.Deadband {
		c.sendState(c.state)
		return
	}

	if err := c.neck.Move(ctx, yaw, pitch); err != nil {
		c.log(slog.LevelWarn, "Write error: %v", err)
		c.state.Error = err
		c.sendState(c.state)
		return
	}

	c.state.Yaw, c.state.Pitch = yaw, pitch
	c.state.Sent = true
	c.state.Writes++
	c.sendState(c.state)
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}

// stop runs the shutdown sequence once. Every step runs even if an earlier
// one fails or panics.
func (c *Controller) stop() {
	c.shutdown.Do(func() {
		c.setPhase(PhaseShuttingDown)

		// The caller's context is usually cancelled by now.
		ctx := context.Background()

		c.guard("recenter", func() error { return c.neck.Center(ctx) })
		time.Sleep(c.cfg.SettleTime)
		c.guard("disable torque", func() error { return c.neck.Disable(ctx) })
		c.guard("close bus", c.neck.Close)

		c.setPhase(PhaseStopped)
		c.sendState(c.state)
		c.log(slog.LevelInfo, "Control loop stopped")
	})
}

func (c *Controller) guard(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.log(slog.LevelError, "Shutdown %s panicked: %v", step, r)
		}
	}()
	if err := fn(); err != nil {
		c.log(slog.LevelWarn, "Shutdown %s failed: %v", step, err)
		return
	}
	c.log(slog.LevelInfo, "Shutdown %s ok", step)
}
