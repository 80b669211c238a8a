package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"laundrybot/internal/logger"
	"laundrybot/internal/metrics"
	"laundrybot/internal/models"
	"laundrybot/internal/notify"
	"laundrybot/internal/repository"
)

const notifyTimeout = 5 * time.Second

// LaundryService is the entry point for readings and button presses. Each
// request runs as one transaction under the locks of the appliances it can
// touch, and returns the snapshot after commit.
type LaundryService struct {
	tx         repository.Transactor
	catalog    *Catalog
	engine     *CycleEngine
	owners     *OwnershipTracker
	monitoring *MonitoringService
	locks      *applianceLocks
	notifier   notify.Notifier
	metrics    metrics.Recorder
	log        *logger.Logger
}

func NewLaundryService(tx repository.Transactor, catalog *Catalog, engine *CycleEngine, owners *OwnershipTracker,
	monitoring *MonitoringService, notifier notify.Notifier, rec metrics.Recorder, log *logger.Logger) *LaundryService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LaundryService{
		tx:         tx,
		catalog:    catalog,
		engine:     engine,
		owners:     owners,
		monitoring: monitoring,
		locks:      newApplianceLocks(),
		notifier:   notifier,
		metrics:    rec,
		log:        log,
	}
}

// SubmitReadings validates one reading per appliance and feeds them through
// the cycle engine, sources first. Nothing is written unless every field is
// valid and every step succeeds.
func (s *LaundryService) SubmitReadings(ctx context.Context, raw map[string]string, at time.Time) (models.Snapshot, error) {
	values, err := ParseReadings(s.catalog.All(), raw)
	if err != nil {
		s.log.Infow("readings_rejected", "err", err)
		return models.Snapshot{}, err
	}
	at = at.UTC()

	unlock := s.locks.lock(s.catalog.IDs()...)
	var results []StepResult
	err = s.tx.WithinTx(ctx, func(st *repository.Store) error {
		var err error
		results, err = s.engine.Tick(ctx, st, values, at)
		return err
	})
	unlock()
	if err != nil {
		return models.Snapshot{}, s.failed("submit_readings", err)
	}

	for _, res := range results {
		s.metrics.IncReading(res.Appliance.Name)
		s.metrics.IncTransition(res.Appliance.Name, string(res.Transition))
		if res.Transition != TransitionNone {
			s.log.Debugw("transition", "appliance", res.Appliance.Name, "kind", res.Transition, "at", at)
		}
		s.published(ctx, res.Events)
	}
	return s.monitoring.Snapshot(ctx)
}

// PushButton applies a press by the named person.
func (s *LaundryService) PushButton(ctx context.Context, name string, at time.Time) (models.Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := models.ValidationErrors{"name": msgNotProvided}
		s.log.Infow("button_rejected", "err", err)
		return models.Snapshot{}, err
	}
	at = at.UTC()

	ids := []int{s.catalog.Source().ID}
	if s.owners.target == models.ButtonTargetLatest {
		ids = s.catalog.IDs()
	}
	unlock := s.locks.lock(ids...)
	var res PressResult
	err := s.tx.WithinTx(ctx, func(st *repository.Store) error {
		p, err := st.People.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: %q", models.ErrUnknownPerson, name)
		}
		res, err = s.owners.Press(ctx, st, *p, at)
		return err
	})
	unlock()
	if err != nil {
		return models.Snapshot{}, s.failed("push_button", err, "person", name)
	}

	s.metrics.IncButton(string(res.Outcome))
	s.log.Infow("button_pressed", "person", name, "outcome", res.Outcome, "load_id", res.Load.ID)
	s.published(ctx, res.Events)
	return s.monitoring.Snapshot(ctx)
}

// Snapshot returns the current snapshot.
func (s *LaundryService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return s.monitoring.Snapshot(ctx)
}

// published logs and counts committed events and sends finish notifications
// to owners. Notification failures never undo the request.
func (s *LaundryService) published(ctx context.Context, events []models.LoadEvent) {
	for _, ev := range events {
		s.metrics.IncLoadEvent(ev.Type)
		s.log.Infow(strings.ToLower(ev.Type),
			"load_id", ev.LoadID,
			"appliance", s.catalog.Name(ev.ApplianceID),
			"person", ev.Person,
			"at", ev.OccurredAt,
		)
		if ev.Type != models.EventLoadFinished || ev.Person == "" {
			continue
		}

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		err := s.notifier.Notify(nctx, notify.Notification{
			Person:     ev.Person,
			Appliance:  s.catalog.Name(ev.ApplianceID),
			LoadID:     ev.LoadID,
			FinishedAt: ev.OccurredAt,
		})
		cancel()
		s.metrics.IncNotification(err == nil)
		if err != nil {
			s.log.Warnw("notify_failed", "err", err, "person", ev.Person, "load_id", ev.LoadID)
		}
	}
}

// failed logs err at the level its class deserves and returns it unchanged.
func (s *LaundryService) failed(op string, err error, kv ...interface{}) error {
	fields := append([]interface{}{"op", op, "err", err}, kv...)
	switch {
	case errors.Is(err, models.ErrValidation):
		s.log.Infow("request_rejected", fields...)
	case errors.Is(err, models.ErrConsistency):
		s.metrics.IncConsistencyViolation()
		s.log.Errorw("consistency_violation", fields...)
	default:
		s.log.Errorw("storage_error", fields...)
	}
	return err
}
