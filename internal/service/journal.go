package service

import (
	"context"
	"fmt"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"

	"github.com/google/uuid"
)

// journal writes loads through one transaction's Store and appends a typed
// event for every change in that same transaction.
type journal struct {
	store   *repository.Store
	catalog *Catalog
	events  []models.LoadEvent
}

func newJournal(store *repository.Store, catalog *Catalog) *journal {
	return &journal{store: store, catalog: catalog}
}

// create inserts l and records LOAD_STARTED.
func (j *journal) create(ctx context.Context, l *models.Load, at time.Time, meta map[string]any) error {
	if err := j.store.Loads.Create(ctx, l); err != nil {
		return err
	}
	return j.record(ctx, l, models.EventLoadStarted, at, meta)
}

// save writes l and records one event per type, in order.
func (j *journal) save(ctx context.Context, l *models.Load, at time.Time, meta map[string]any, types ...string) error {
	if err := j.store.Loads.Update(ctx, l); err != nil {
		return err
	}
	for _, typ := range types {
		if err := j.record(ctx, l, typ, at, meta); err != nil {
			return err
		}
	}
	return nil
}

func (j *journal) record(ctx context.Context, l *models.Load, typ string, at time.Time, meta map[string]any) error {
	md := map[string]any{"cycle_number": l.CycleNumber}
	for k, v := range meta {
		md[k] = v
	}
	ev := models.LoadEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at,
		Type:        typ,
		LoadID:      l.ID,
		ApplianceID: l.ApplianceID,
		Person:      l.OwnerName,
		Description: j.describe(typ, l),
		Metadata:    md,
	}
	if err := j.store.Events.Append(ctx, ev); err != nil {
		return err
	}
	j.events = append(j.events, ev)
	return nil
}

func (j *journal) describe(typ string, l *models.Load) string {
	name := j.catalog.Name(l.ApplianceID)
	switch typ {
	case models.EventLoadStarted:
		if l.CycleNumber == 0 {
			return fmt.Sprintf("%s load claimed by %s before starting", name, l.OwnerName)
		}
		return fmt.Sprintf("%s load started", name)
	case models.EventCycleAdvanced:
		return fmt.Sprintf("%s advanced to cycle %d", name, l.CycleNumber)
	case models.EventLoadFinished:
		return fmt.Sprintf("%s load finished", name)
	case models.EventLoadCollected:
		return fmt.Sprintf("%s load collected", name)
	case models.EventOwnerAssigned:
		return fmt.Sprintf("%s load assigned to %s", name, l.OwnerName)
	default:
		return fmt.Sprintf("%s load %s", name, typ)
	}
}
