package pose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gwillem/neck/internal/log"
)

// WebSocket defaults.
const (
	DefaultWebSocketURL = "ws://localhost:8765/neck"
	DefaultMaxAge       = 200 * time.Millisecond
)

// Message is the JSON pushed by a WebSocket pose publisher, in degrees.
type Message struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// WebSocket subscribes to a pose stream and keeps the latest message.
type WebSocket struct {
	conn   *websocket.Conn
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	latest Sample
	have   bool
	err    error

	done chan struct{}
}

// DialWebSocket connects to url and starts reading.
func DialWebSocket(ctx context.Context, url string, maxAge time.Duration, logger *slog.Logger) (*WebSocket, error) {
	if url == "" {
		url = DefaultWebSocketURL
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	w := &WebSocket{
		conn:   conn,
		maxAge: maxAge,
		logger: log.Or(logger).With("component", "pose", "source", "websocket", "url", url),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go w.readLoop()
	w.logger.Info("pose stream connected")
	return w, nil
}

func (w *WebSocket) readLoop() {
	defer close(w.done)
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				w.logger.Warn("pose stream closed", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logger.Debug("bad pose message", "error", err)
			continue
		}

		w.mu.Lock()
		w.latest = Sample{Yaw: msg.Yaw, Pitch: msg.Pitch, Time: w.now()}
		w.have = true
		w.mu.Unlock()
	}
}

// Next implements Source. It returns ErrNoData if nothing arrived within
// the max age, and the stream error once the connection is gone.
func (w *WebSocket) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.err != nil {
		return Sample{}, fmt.Errorf("pose stream: %w", w.err)
	}
	if !w.have || w.now().Sub(w.latest.Time) > w.maxAge {
		return Sample{}, ErrNoData
	}
	return w.latest, nil
}

// Close closes the connection and waits for the reader to exit.
func (w *WebSocket) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := w.conn.Close()
	<-w.done
	return err
}
