package pose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gwillem/neck/internal/log"
)

// Redis defaults.
const (
	DefaultRedisAddr = "localhost:6379"
	DefaultRedisKey  = "action_neck_unitree_g1_with_hands"
)

// Redis polls a key holding a JSON array [yaw_rad, pitch_rad].
type Redis struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedis connects to addr. The connection is lazy; the first failure
// surfaces on Next.
func NewRedis(addr, password, key string, logger *slog.Logger) *Redis {
	if addr == "" {
		addr = DefaultRedisAddr
	}
	if key == "" {
		key = DefaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  time.Second,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
	})
	return &Redis{
		client: client,
		key:    key,
		logger: log.Or(logger).With("component", "pose", "source", "redis", "key", key),
	}
}

// Next implements Source. A missing key is ErrNoData.
func (r *Redis) Next(ctx context.Context) (Sample, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return Sample{}, ErrNoData
	}
	if err != nil {
		return Sample{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	s, err := ParseRadians([]byte(raw))
	if err != nil {
		r.logger.Debug("bad neck value", "value", raw, "error", err)
		return Sample{}, err
	}
	return s, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// ParseRadians decodes [yaw_rad, pitch_rad] into a degree Sample.
func ParseRadians(data []byte) (Sample, error) {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return Sample{}, fmt.Errorf("decode neck value: %w", err)
	}
	if len(v) < 2 {
		return Sample{}, fmt.Errorf("decode neck value: want 2 elements, got %d", len(v))
	}
	return Sample{
		Yaw:   v[0] * 180 / math.Pi,
		Pitch: v[1] * 180 / math.Pi,
		Time:  time.Now(),
	}, nil
}
