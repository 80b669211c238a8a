package service

import (
	"context"
	"time"

	"laundrybot/internal/logger"
	"laundrybot/internal/metrics"
	"laundrybot/internal/models"
	"laundrybot/internal/notify"
	"laundrybot/internal/repository"
)

// Readings ingests power samples from the meter.
type Readings interface {
	SubmitReadings(ctx context.Context, raw map[string]string, at time.Time) (models.Snapshot, error)
}

// Button handles presses of the shared ownership button.
type Button interface {
	PushButton(ctx context.Context, name string, at time.Time) (models.Snapshot, error)
}

// Monitoring exposes the read-only snapshot.
type Monitoring interface {
	Snapshot(ctx context.Context) (models.Snapshot, error)
}

// EventLog exposes the append-only load event log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.LoadEvent, error)
}

// History exposes past loads.
type History interface {
	ListLoads(ctx context.Context, f HistoryFilter) ([]models.Load, error)
}

type Service struct {
	Readings
	Button
	Monitoring
	EventLog
	History
}

// Options carries the engine policies and the optional collaborators.
type Options struct {
	IdleTimeout       time.Duration
	AutoCollectOnIdle bool
	ButtonTarget      string
	Notifier          notify.Notifier
	Metrics           metrics.Recorder
	Logger            *logger.Logger
}

// NewService wires the repository layer into the concrete services.
func NewService(repos *repository.Repository, catalog *Catalog, opts Options) *Service {
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	repos.OnRetry = func(err error) {
		rec.IncStorageRetry()
		log.Warnw("transaction_retry", "err", err)
	}

	monitoring := NewMonitoringService(repos)
	laundry := NewLaundryService(
		repos,
		catalog,
		NewCycleEngine(catalog, opts.IdleTimeout, opts.AutoCollectOnIdle),
		NewOwnershipTracker(catalog, opts.ButtonTarget),
		monitoring,
		opts.Notifier,
		rec,
		log,
	)
	return &Service{
		Readings:   laundry,
		Button:     laundry,
		Monitoring: laundry,
		EventLog:   NewEventLogService(repos.Events, catalog),
		History:    NewHistoryService(repos.Loads, catalog),
	}
}
