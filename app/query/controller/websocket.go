package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the public site origins before GA
		return true
	},
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "run.completed", "ping", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// HandleWebSocket upgrades the connection and streams run lifecycle events.
// Clients receive a "run.completed" message whenever the engine publishes a
// new snapshot, plus periodic pings for keep-alive.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		http.Error(w, "Real-time events not available (Redis disabled)", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(closeErr))
		}
	}()

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan ServerMessage, 64)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in run event reader",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.streamRunEvents(ctx, send)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case send <- ServerMessage{Type: "ping", Payload: map[string]int64{"timestamp": time.Now().Unix()}}:
				default:
					// Slow client; skip the ping rather than block.
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-send:
				data, marshalErr := json.Marshal(msg)
				if marshalErr != nil {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if writeErr := conn.WriteMessage(websocket.TextMessage, data); writeErr != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Read loop: clients send nothing meaningful, but the read detects the
	// close handshake. Blocks until the connection drops.
	for {
		if _, _, readErr := conn.ReadMessage(); readErr != nil {
			break
		}
	}
	cancel()
	wg.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// streamRunEvents tails the run stream and forwards entries to the client.
func (c *Controller) streamRunEvents(ctx context.Context, send chan<- ServerMessage) {
	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, next, err := c.App.RedisClient.ReadRunEvents(ctx, lastID, 15*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.App.Logger.Warn("Run event read failed, backing off", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		lastID = next

		for _, m := range msgs {
			select {
			case <-ctx.Done():
				return
			case send <- ServerMessage{Type: "run.completed", Payload: m.Values}:
			}
		}
	}
}
