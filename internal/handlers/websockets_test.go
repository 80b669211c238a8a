package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := []struct {
		query string
		want  time.Duration
	}{
		{"", defaultInterval},
		{"interval=250ms", 250 * time.Millisecond},
		{"interval_ms=400", 400 * time.Millisecond},
		{"interval=1m", defaultInterval},
		{"interval_ms=60000", defaultInterval},
		{"interval=-1s", defaultInterval},
		{"interval=soon&interval_ms=300", 300 * time.Millisecond},
		{"interval=3s&interval_ms=300", 3 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/ws?"+tc.query, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

// switchableMonitoring lets a test change the snapshot while a stream is open.
type switchableMonitoring struct {
	mu   sync.Mutex
	snap models.Snapshot
	err  error
}

func (m *switchableMonitoring) Snapshot(context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.err
}

func (m *switchableMonitoring) set(snap models.Snapshot, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap, m.err = snap, err
}

func dialStream(t *testing.T, mon service.Monitoring, query string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewHandler(&service.Service{Monitoring: mon}, nil, nil).wsConnect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn, wait time.Duration) (wsEnvelope, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var env wsEnvelope
	err := conn.ReadJSON(&env)
	return env, err
}

func TestWebSocket_InitialSnapshotThenQuietWhileUnchanged(t *testing.T) {
	mon := &switchableMonitoring{snap: sampleSnapshot()}
	conn := dialStream(t, mon, "interval_ms=20")

	env, err := readEnvelope(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read initial: %v", err)
	}
	var snap models.Snapshot
	if env.Type != wsTypeSnapshot || json.Unmarshal(env.Data, &snap) != nil {
		t.Fatalf("bad envelope: %+v", env)
	}
	if snap.Appliances[0].Cycle != 2 || *snap.Appliances[0].User != "Sam" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// nothing changed: no message within a few ticks
	if env, err := readEnvelope(t, conn, 100*time.Millisecond); err == nil {
		t.Fatalf("unchanged snapshot was pushed again: %+v", env)
	}
}

func TestWebSocket_PushesChange(t *testing.T) {
	mon := &switchableMonitoring{snap: sampleSnapshot()}
	conn := dialStream(t, mon, "interval_ms=20")
	if _, err := readEnvelope(t, conn, time.Second); err != nil {
		t.Fatalf("read initial: %v", err)
	}

	next := sampleSnapshot()
	next.Appliances[0].Cycle = 3
	mon.set(next, nil)

	env, err := readEnvelope(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read change: %v", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil || snap.Appliances[0].Cycle != 3 {
		t.Fatalf("expected cycle 3, got %+v (%v)", snap, err)
	}
}

func TestWebSocket_ReportsReadErrorsInBand(t *testing.T) {
	mon := &switchableMonitoring{snap: sampleSnapshot()}
	conn := dialStream(t, mon, "interval_ms=20")
	if _, err := readEnvelope(t, conn, time.Second); err != nil {
		t.Fatalf("read initial: %v", err)
	}

	mon.set(models.Snapshot{}, errors.New("db locked"))
	env, err := readEnvelope(t, conn, time.Second)
	if err != nil {
		t.Fatalf("read error envelope: %v", err)
	}
	if env.Type != wsTypeError || env.Error != errGetSnapshot {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	// the stream recovers once reads succeed again
	mon.set(sampleSnapshot(), nil)
	for i := 0; i < 5; i++ {
		env, err = readEnvelope(t, conn, time.Second)
		if err != nil {
			t.Fatalf("read after recovery: %v", err)
		}
		if env.Type == wsTypeSnapshot {
			return
		}
	}
	t.Fatalf("no snapshot after recovery")
}

func TestWebSocket_InitialSnapshotError_Closes(t *testing.T) {
	conn := dialStream(t, &mockMonitoring{err: errors.New("boom")}, "")

	if env, err := readEnvelope(t, conn, 500*time.Millisecond); err == nil {
		t.Fatalf("expected the connection to close, got %+v", env)
	}
}
