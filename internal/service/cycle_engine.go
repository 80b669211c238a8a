package service

import (
	"context"
	"fmt"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"
)

// CycleEngine turns one reading of one appliance into ledger mutations.
type CycleEngine struct {
	catalog           *Catalog
	idleTimeout       time.Duration
	autoCollectOnIdle bool
}

func NewCycleEngine(catalog *Catalog, idleTimeout time.Duration, autoCollectOnIdle bool) *CycleEngine {
	return &CycleEngine{
		catalog:           catalog,
		idleTimeout:       idleTimeout,
		autoCollectOnIdle: autoCollectOnIdle,
	}
}

// StepResult describes what a single Step did.
type StepResult struct {
	Appliance  models.Appliance
	Transition Transition
	Events     []models.LoadEvent
}

// Tick steps every appliance through one sample, sources first. Sinks
// reconcile against the source's newest load as it stood before the tick, so
// a source that restarts in the same sample still hands its previous owner
// over. s must be bound to the caller's transaction.
func (e *CycleEngine) Tick(ctx context.Context, s *repository.Store, values map[int]float64, at time.Time) ([]StepResult, error) {
	before, err := s.Loads.MostRecent(ctx, e.catalog.Source().ID)
	if err != nil {
		return nil, err
	}
	view := &sourceView{captured: true, before: before}

	order := e.catalog.IngestOrder()
	results := make([]StepResult, 0, len(order))
	for _, a := range order {
		res, err := e.step(ctx, s, a.ID, models.Reading{Value: values[a.ID], At: at}, view)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Step records cur as the appliance's latest reading and applies the
// transition it causes. s must be bound to the caller's transaction.
func (e *CycleEngine) Step(ctx context.Context, s *repository.Store, applianceID int, cur models.Reading) (StepResult, error) {
	return e.step(ctx, s, applianceID, cur, &sourceView{})
}

// sourceView is the source's newest load at the start of a tick.
type sourceView struct {
	captured bool
	before   *models.Load
}

func (e *CycleEngine) step(ctx context.Context, s *repository.Store, applianceID int, cur models.Reading, view *sourceView) (StepResult, error) {
	a, err := s.Appliances.Get(ctx, applianceID)
	if err != nil {
		return StepResult{}, err
	}
	latest, err := s.Loads.MostRecent(ctx, a.ID)
	if err != nil {
		return StepResult{}, err
	}
	var open *models.Load
	if latest.IsOpen() {
		open = latest
	}

	tr := Classify(a, a.Previous(), cur, open, e.idleTimeout)
	if err := s.Appliances.SaveReading(ctx, a.ID, cur); err != nil {
		return StepResult{}, err
	}

	j := newJournal(s, e.catalog)
	at := cur.At
	switch tr {
	case TransitionIdleTimeout:
		err = e.finishIdle(ctx, j, open, at)
	case TransitionCrossedUp:
		if open != nil && open.CycleNumber < a.Cycles {
			err = e.advance(ctx, j, open, at)
		} else {
			err = e.startRun(ctx, j, a, latest, view, at)
		}
	case TransitionCrossedDown:
		if open != nil {
			err = e.settle(ctx, j, a, open, at)
		}
	}
	if err != nil {
		return StepResult{}, fmt.Errorf("%s %s: %w", a.Name, tr, err)
	}
	return StepResult{Appliance: a, Transition: tr, Events: j.events}, nil
}

// finishIdle closes a load that has been quiet for longer than the idle timeout.
func (e *CycleEngine) finishIdle(ctx context.Context, j *journal, open *models.Load, at time.Time) error {
	var types []string
	if open.Finish(at) {
		types = append(types, models.EventLoadFinished)
	}
	if e.autoCollectOnIdle && !open.Collected {
		open.Collect(at)
		types = append(types, models.EventLoadCollected)
	}
	return j.save(ctx, open, at, map[string]any{"reason": string(TransitionIdleTimeout)}, types...)
}

// advance counts another sub-cycle of the running load.
func (e *CycleEngine) advance(ctx context.Context, j *journal, open *models.Load, at time.Time) error {
	open.CycleNumber++
	open.LastChangeTime = at
	return j.save(ctx, open, at, nil, models.EventCycleAdvanced)
}

// settle handles a drop below threshold. Only a drop after the final cycle
// ends the load; earlier drops are pauses between sub-cycles.
func (e *CycleEngine) settle(ctx context.Context, j *journal, a models.Appliance, open *models.Load, at time.Time) error {
	open.LastChangeTime = at
	var types []string
	if open.CycleNumber >= a.Cycles && open.Finish(at) {
		types = append(types, models.EventLoadFinished)
	}
	return j.save(ctx, open, at, nil, types...)
}

// startRun opens a new load. Anything still uncollected on this appliance,
// and for a sink on its source, must have been taken out by someone, so it
// is collected first. A sink inherits the owner of its source's load.
func (e *CycleEngine) startRun(ctx context.Context, j *journal, a models.Appliance, latest *models.Load, view *sourceView, at time.Time) error {
	var stale []*models.Load
	if latest != nil && !latest.Collected {
		stale = append(stale, latest)
	}

	var fromSource *models.Load
	if a.IsSink() {
		src, err := j.store.Loads.MostRecent(ctx, a.SourceID)
		if err != nil {
			return err
		}
		if view.captured && src != nil && (view.before == nil || src.ID != view.before.ID) {
			// The source started src in this tick and has already collected
			// its previous load; only the owner carries over.
			if prev := view.before; prev != nil && !prev.Collected {
				fromSource = prev
			}
		} else if src != nil && !src.Collected {
			fromSource = src
			stale = append(stale, src)
		}
	}

	for _, l := range stale {
		types := make([]string, 0, 2)
		if l.Collect(at) {
			types = append(types, models.EventLoadFinished)
		}
		types = append(types, models.EventLoadCollected)
		meta := map[string]any{"reason": "new run on " + a.Name}
		if err := j.save(ctx, l, at, meta, types...); err != nil {
			return err
		}
	}

	next := &models.Load{
		ApplianceID:    a.ID,
		CycleNumber:    1,
		StartTime:      at,
		LastChangeTime: at,
	}
	inherited := fromSource != nil && fromSource.HasOwner()
	if inherited {
		owner := *fromSource.OwnerID
		next.OwnerID = &owner
		next.OwnerName = fromSource.OwnerName
	}
	if err := j.create(ctx, next, at, nil); err != nil {
		return err
	}
	if inherited {
		return j.record(ctx, next, models.EventOwnerAssigned, at, map[string]any{"from_load_id": fromSource.ID})
	}
	return nil
}
