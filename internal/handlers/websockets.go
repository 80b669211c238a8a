package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMsgSize      = 1 << 12 // 4 KB
	defaultInterval = 1 * time.Second
	maxInterval     = 10 * time.Second

	wsTypeSnapshot = "snapshot"
	wsTypeError    = "error"
)

// wsEnvelope wraps every message pushed to a WebSocket client.
type wsEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// The dashboard is served from the same LAN host, so any origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// snapshotStream pushes a snapshot when it differs from the last one sent.
type snapshotStream struct {
	h    *Handler
	conn *websocket.Conn
	last []byte
}

// @Summary      Snapshot stream
// @Description  Upgrades to a WebSocket, sends the snapshot at once and again whenever it changes, checking every interval (?interval=2s or ?interval_ms=2000, max 10s).
// @Tags         laundry
// @Param        interval     query  string  false  "Poll interval as a Go duration"  example(2s)
// @Param        interval_ms  query  int     false  "Poll interval in milliseconds"   example(2000)
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The client never sends data; reading only services control frames.
	done := make(chan struct{})
	go h.drain(conn, done)

	ctx := c.Request.Context()
	s := &snapshotStream{h: h, conn: conn}
	if err := s.push(ctx); err != nil {
		if h.log != nil {
			h.log.Infow("ws_initial_snapshot_failed", "err", err)
		}
		return
	}

	poll := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer poll.Stop()
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-poll.C:
			if err := s.refresh(ctx); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// push sends the current snapshot unconditionally.
func (s *snapshotStream) push(ctx context.Context) error {
	snap, err := s.h.services.Monitoring.Snapshot(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.last = body
	return s.write(wsEnvelope{Type: wsTypeSnapshot, Data: body})
}

// refresh sends the snapshot if it changed. A failed read is reported to the
// client and the stream goes on; only write errors end it.
func (s *snapshotStream) refresh(ctx context.Context) error {
	snap, err := s.h.services.Monitoring.Snapshot(ctx)
	if err != nil {
		if s.h.log != nil {
			s.h.log.Errorw("ws_snapshot_failed", "err", err)
		}
		return s.write(wsEnvelope{Type: wsTypeError, Error: errGetSnapshot})
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if bytes.Equal(body, s.last) {
		return nil
	}
	s.last = body
	return s.write(wsEnvelope{Type: wsTypeSnapshot, Data: body})
}

func (s *snapshotStream) write(env wsEnvelope) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(env)
}

// parseInterval reads ?interval=2s, then ?interval_ms=2000. Missing, invalid
// or out-of-range values fall back to the default.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			if d := time.Duration(v) * time.Millisecond; d <= maxInterval {
				return d
			}
		}
	}
	return defaultInterval
}

// drain reads until the connection closes.
func (h *Handler) drain(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_closed", "err", err)
			}
			return
		}
	}
}
