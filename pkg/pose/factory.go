package pose

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gwillem/neck/internal/log"
)

// Source kinds.
const (
	KindStatic    = "static"
	KindSweep     = "sweep"
	KindRedis     = "redis"
	KindWebSocket = "websocket"
)

// Config selects and configures a Source.
type Config struct {
	Kind string `json:"kind"`

	// Static target or sweep amplitude, degrees.
	Yaw   float64 `json:"yaw,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`

	// Sweep period.
	Period time.Duration `json:"period,omitempty"`

	// Redis.
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	Key      string `json:"key,omitempty"`

	// WebSocket.
	URL    string        `json:"url,omitempty"`
	MaxAge time.Duration `json:"max_age,omitempty"`
}

// New creates the Source described by cfg. The returned closer releases
// its connection and is never nil.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Source, io.Closer, error) {
	logger = log.Or(logger)

	switch cfg.Kind {
	case "", KindStatic:
		logger.Info("pose source", "kind", KindStatic, "yaw", cfg.Yaw, "pitch", cfg.Pitch)
		return Static{Yaw: cfg.Yaw, Pitch: cfg.Pitch}, nopCloser{}, nil

	case KindSweep:
		s := NewSweep(cfg.Yaw, cfg.Pitch, cfg.Period)
		logger.Info("pose source", "kind", KindSweep, "period", s.Period)
		return s, nopCloser{}, nil

	case KindRedis:
		r := NewRedis(cfg.Addr, cfg.Password, cfg.Key, logger)
		logger.Info("pose source", "kind", KindRedis, "addr", cfg.Addr)
		return r, r, nil

	case KindWebSocket:
		w, err := DialWebSocket(ctx, cfg.URL, cfg.MaxAge, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("pose source %s: %w", KindWebSocket, err)
		}
		return w, w, nil

	default:
		return nil, nil, fmt.Errorf("unknown pose source %q", cfg.Kind)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
