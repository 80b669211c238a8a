package handlers

import (
	"context"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockReadings struct {
	snap    models.Snapshot
	err     error
	calls   int
	lastRaw map[string]string
	lastAt  time.Time
}

func (m *mockReadings) SubmitReadings(ctx context.Context, raw map[string]string, at time.Time) (models.Snapshot, error) {
	m.calls++
	m.lastRaw = raw
	m.lastAt = at
	return m.snap, m.err
}

type mockButton struct {
	snap     models.Snapshot
	err      error
	calls    int
	lastName string
}

func (m *mockButton) PushButton(ctx context.Context, name string, at time.Time) (models.Snapshot, error) {
	m.calls++
	m.lastName = name
	return m.snap, m.err
}

type mockMonitoring struct {
	snap models.Snapshot
	err  error
}

func (m *mockMonitoring) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return m.snap, m.err
}

type mockEventLog struct {
	resp []models.LoadEvent
	err  error
	last service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.LoadEvent, error) {
	m.last = f
	return m.resp, m.err
}

type mockHistory struct {
	resp []models.Load
	err  error
	last service.HistoryFilter
}

func (m *mockHistory) ListLoads(ctx context.Context, f service.HistoryFilter) ([]models.Load, error) {
	m.last = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func sampleSnapshot() models.Snapshot {
	sam := "Sam"
	return models.Snapshot{Appliances: []models.ApplianceStatus{
		{Name: "washer", Reading: 10, Running: true, Cycle: 2, User: &sam},
		{Name: "dryer", Reading: 0, Collected: true},
	}}
}
